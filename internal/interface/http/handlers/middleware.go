package handlers

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// API KEY AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

// APIKeyVerifier checks presented API keys against stored bcrypt hashes.
// Only hashes are kept in configuration; the plaintext key exists solely in
// the caller's request.
type APIKeyVerifier struct {
	header string
	hashes [][]byte
}

// NewAPIKeyVerifier creates a verifier for the given header and hash list.
// An empty hash list disables authentication (every request passes), which
// is the default for local development.
func NewAPIKeyVerifier(header string, hashes []string) *APIKeyVerifier {
	if header == "" {
		header = "X-API-Key"
	}
	v := &APIKeyVerifier{header: header}
	for _, h := range hashes {
		if h != "" {
			v.hashes = append(v.hashes, []byte(h))
		}
	}
	return v
}

// Enabled reports whether any keys are configured.
func (v *APIKeyVerifier) Enabled() bool {
	return len(v.hashes) > 0
}

// Verify checks the request's API key header.
func (v *APIKeyVerifier) Verify(r *http.Request) bool {
	if !v.Enabled() {
		return true
	}
	key := []byte(r.Header.Get(v.header))
	if len(key) == 0 {
		return false
	}
	for _, hash := range v.hashes {
		if bcrypt.CompareHashAndPassword(hash, key) == nil {
			return true
		}
	}
	return false
}

// HashAPIKey produces a bcrypt hash for an API key, for generating
// configuration values.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
