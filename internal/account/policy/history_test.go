package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gatekeeper/pkg/secrets"
)

func TestIsReused(t *testing.T) {
	hasher := secrets.NewHasher(bcrypt.MinCost)

	hash := func(s string) string {
		digest, err := hasher.Hash(s)
		require.NoError(t, err)
		return digest
	}

	history := []string{
		hash("Oldest#Pass1"),
		hash("Middle#Pass2"),
		hash("Recent#Pass3"),
	}

	assert.True(t, IsReused(hasher, "Oldest#Pass1", history))
	assert.True(t, IsReused(hasher, "Recent#Pass3", history))
	assert.False(t, IsReused(hasher, "Brand#New4", history))
	assert.False(t, IsReused(hasher, "Brand#New4", nil))
}

// A digest evicted from the bounded history no longer blocks reuse.
func TestIsReusedAfterEviction(t *testing.T) {
	hasher := secrets.NewHasher(bcrypt.MinCost)

	digests := make([]string, 0, 6)
	passwords := []string{"Gen#Pass1", "Gen#Pass2", "Gen#Pass3", "Gen#Pass4", "Gen#Pass5", "Gen#Pass6"}
	for _, p := range passwords {
		digest, err := hasher.Hash(p)
		require.NoError(t, err)
		digests = append(digests, digest)
	}

	// Retain only the 5 most recent, as the account model does.
	retained := digests[1:]

	assert.False(t, IsReused(hasher, "Gen#Pass1", retained), "evicted generation must be accepted")
	assert.True(t, IsReused(hasher, "Gen#Pass2", retained))
	assert.True(t, IsReused(hasher, "Gen#Pass6", retained))
}
