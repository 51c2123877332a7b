package validators

import (
	"crypto/hmac"
	"strings"
)

// SecretEquals compares a caller-supplied secret against the configured
// one in constant time. An empty configured secret never matches.
func SecretEquals(got, want string) bool {
	got = strings.TrimSpace(got)
	if want == "" || got == "" {
		return false
	}
	return hmac.Equal([]byte(got), []byte(want))
}
