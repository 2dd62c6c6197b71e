package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantOK   bool
		wantRule Rule
	}{
		{name: "valid simple", username: "alice", wantOK: true},
		{name: "valid with separators", username: "alice_b-2", wantOK: true},
		{name: "too short", username: "ab", wantOK: false, wantRule: RuleUsernameLength},
		{name: "too long", username: "abcdefghijklmnopqrstu", wantOK: false, wantRule: RuleUsernameLength},
		{name: "bad charset", username: "alice!", wantOK: false, wantRule: RuleUsernameCharset},
		{name: "reserved", username: "admin", wantOK: false, wantRule: RuleUsernameReserved},
		{name: "reserved case-insensitive", username: "ROOT", wantOK: false, wantRule: RuleUsernameReserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, violations := ValidateUsername(tt.username)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Empty(t, violations)
				return
			}
			rules := make([]Rule, 0, len(violations))
			for _, v := range violations {
				rules = append(rules, v.Rule)
			}
			assert.Contains(t, rules, tt.wantRule)
		})
	}
}

// All failing rules must be reported together, not just the first.
func TestValidatePasswordCollectsAllViolations(t *testing.T) {
	ok, violations := ValidatePassword("ab")
	require.False(t, ok)

	rules := make(map[Rule]bool, len(violations))
	for _, v := range violations {
		rules[v.Rule] = true
	}
	assert.True(t, rules[RulePasswordLength])
	assert.True(t, rules[RulePasswordUpper])
	assert.True(t, rules[RulePasswordDigit])
	assert.True(t, rules[RulePasswordSpecial])
	assert.False(t, rules[RulePasswordLower], "lowercase is present in %q", "ab")
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantOK   bool
	}{
		{name: "valid", password: "Sunshine#2024", wantOK: true},
		{name: "no uppercase", password: "sunshine#2024", wantOK: false},
		{name: "no lowercase", password: "SUNSHINE#2024", wantOK: false},
		{name: "no digit", password: "Sunshine#day", wantOK: false},
		{name: "no special", password: "Sunshine2024", wantOK: false},
		{name: "too short", password: "Aa1#x", wantOK: false},
		{name: "too long", password: "Aa1#" + strings.Repeat("x", 50), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _ := ValidatePassword(tt.password)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

// Score must be monotonically non-decreasing as required character classes
// are added, and always within [0,5].
func TestStrengthScoreMonotonic(t *testing.T) {
	steps := []string{
		"aaaaaaaa",      // length>=8, lowercase
		"aaaaaaaA",      // + uppercase
		"aaaaaaA1",      // + digit
		"aaaaaA1#",      // + special
		"aaaaaaaaaA1#",  // + length>=12
		"aaaaaaaaaaA1#", // no new class, must not decrease
	}

	prev := 0
	for _, s := range steps {
		score := StrengthScore(s)
		assert.GreaterOrEqual(t, score, prev, "score decreased at %q", s)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 5)
		prev = score
	}
	assert.Equal(t, 5, StrengthScore("aaaaaaaaaA1#"))
	assert.Equal(t, 0, StrengthScore(""))
}
