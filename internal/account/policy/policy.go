// Package policy implements the static username and password rules. All
// functions are pure: the same checks run on the submission path and on any
// live-feedback surface, with no I/O and no engine state.
package policy

import (
	"fmt"
	"strings"
	"unicode"
)

// Rule identifies a single policy rule. Rules are stable identifiers that
// callers can switch on; messages are for humans.
type Rule string

const (
	RuleUsernameLength   Rule = "username_length"
	RuleUsernameCharset  Rule = "username_charset"
	RuleUsernameReserved Rule = "username_reserved"
	RulePasswordLength   Rule = "password_length"
	RulePasswordUpper    Rule = "password_uppercase"
	RulePasswordLower    Rule = "password_lowercase"
	RulePasswordDigit    Rule = "password_digit"
	RulePasswordSpecial  Rule = "password_special"
)

// Violation is one failed rule with a human-readable message.
type Violation struct {
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
}

const (
	usernameMinLen = 3
	usernameMaxLen = 20
	passwordMinLen = 8
	passwordMaxLen = 50

	// SpecialChars is the fixed special-character set a password must draw
	// at least one character from.
	SpecialChars = "!@#$%^&*()-_=+[]{};:,.<>?"
)

// reservedUsernames are rejected case-insensitively.
var reservedUsernames = map[string]struct{}{
	"admin":     {},
	"root":      {},
	"system":    {},
	"null":      {},
	"undefined": {},
}

// ValidateUsername checks a username against every rule and reports all
// violations together rather than stopping at the first.
func ValidateUsername(username string) (bool, []Violation) {
	var violations []Violation

	if n := len(username); n < usernameMinLen || n > usernameMaxLen {
		violations = append(violations, Violation{
			Rule:    RuleUsernameLength,
			Message: fmt.Sprintf("username must be %d-%d characters", usernameMinLen, usernameMaxLen),
		})
	}
	for _, r := range username {
		if !isUsernameRune(r) {
			violations = append(violations, Violation{
				Rule:    RuleUsernameCharset,
				Message: "username may only contain letters, digits, underscore, and hyphen",
			})
			break
		}
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		violations = append(violations, Violation{
			Rule:    RuleUsernameReserved,
			Message: fmt.Sprintf("username %q is reserved", username),
		})
	}

	return len(violations) == 0, violations
}

// ValidatePassword checks a password against every rule and reports all
// violations together rather than stopping at the first.
func ValidatePassword(password string) (bool, []Violation) {
	var violations []Violation

	if n := len(password); n < passwordMinLen || n > passwordMaxLen {
		violations = append(violations, Violation{
			Rule:    RulePasswordLength,
			Message: fmt.Sprintf("password must be %d-%d characters", passwordMinLen, passwordMaxLen),
		})
	}

	classes := classify(password)
	if !classes.upper {
		violations = append(violations, Violation{
			Rule:    RulePasswordUpper,
			Message: "password must contain an uppercase letter",
		})
	}
	if !classes.lower {
		violations = append(violations, Violation{
			Rule:    RulePasswordLower,
			Message: "password must contain a lowercase letter",
		})
	}
	if !classes.digit {
		violations = append(violations, Violation{
			Rule:    RulePasswordDigit,
			Message: "password must contain a digit",
		})
	}
	if !classes.special {
		violations = append(violations, Violation{
			Rule:    RulePasswordSpecial,
			Message: fmt.Sprintf("password must contain one of %s", SpecialChars),
		})
	}

	return len(violations) == 0, violations
}

// StrengthScore rates a password 0..5: one point each for length >= 8,
// length >= 12, and presence of the four required character classes, capped
// at 5.
func StrengthScore(password string) int {
	score := 0
	if len(password) >= passwordMinLen {
		score++
	}
	if len(password) >= 12 {
		score++
	}
	classes := classify(password)
	if classes.upper {
		score++
	}
	if classes.lower {
		score++
	}
	if classes.digit {
		score++
	}
	if classes.special {
		score++
	}
	if score > 5 {
		score = 5
	}
	return score
}

// Messages flattens violations into their human-readable messages, in rule
// order, for error payloads.
func Messages(violations []Violation) []string {
	if len(violations) == 0 {
		return nil
	}
	out := make([]string, len(violations))
	for i, v := range violations {
		out[i] = v.Message
	}
	return out
}

type charClasses struct {
	upper, lower, digit, special bool
}

func classify(s string) charClasses {
	var c charClasses
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsDigit(r):
			c.digit = true
		case strings.ContainsRune(SpecialChars, r):
			c.special = true
		}
	}
	return c
}

func isUsernameRune(r rune) bool {
	return r == '_' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
