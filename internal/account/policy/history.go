package policy

// Verifier matches a plaintext secret against a stored digest. Satisfied by
// *secrets.Hasher.
type Verifier interface {
	Verify(secret, digest string) error
}

// IsReused reports whether the candidate secret matches any of the retained
// digests. The caller passes the current digest plus the bounded history, so
// "reuse" covers both the active secret and the most recent prior ones.
// Applied only on self-service password change, never on registration.
func IsReused(v Verifier, candidate string, digests []string) bool {
	for _, digest := range digests {
		if digest == "" {
			continue
		}
		if v.Verify(candidate, digest) == nil {
			return true
		}
	}
	return false
}
