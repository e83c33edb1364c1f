package transport

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrMissingToken and ErrInvalidToken mirror the teacher's API-key
// taxonomy (internal/api/middleware.ErrMissingAPIKey /
// ErrInvalidAPIKey), retargeted from plugin API keys to the OTLP
// transport token named in spec.md §4.8.
var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

const bcryptInputLimit = 72

// TokenAuth verifies the `Authorization: Bearer <token>` header against
// a bcrypt hash of the configured OTEL_TOKEN, the same constant-time
// comparison the teacher uses for API keys: a plaintext token is never
// compared directly, and the hash is computed once at construction.
type TokenAuth struct {
	hash string
}

// NewTokenAuth hashes expectedToken once. An empty token disables
// authentication: Verify always succeeds, matching spec.md's default
// empty OTEL_TOKEN meaning "no transport auth configured".
func NewTokenAuth(expectedToken string) (*TokenAuth, error) {
	if expectedToken == "" {
		return &TokenAuth{}, nil
	}

	hash, err := bcrypt.GenerateFromPassword(prepareInput(expectedToken), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash transport token: %w", err)
	}

	return &TokenAuth{hash: string(hash)}, nil
}

// Enabled reports whether a token was configured.
func (a *TokenAuth) Enabled() bool {
	return a.hash != ""
}

// Verify checks a presented token against the configured hash. When
// auth is disabled it accepts any token. An empty presented token is
// rejected after a throwaway comparison against a dummy hash.
func (a *TokenAuth) Verify(presented string) bool {
	if !a.Enabled() {
		return true
	}

	if presented == "" {
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$dummydummydummydummydu"), []byte("dummy"))

		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(a.hash), prepareInput(presented)) == nil
}

func prepareInput(token string) []byte {
	if len(token) <= bcryptInputLimit {
		return []byte(token)
	}

	sum := sha256.Sum256([]byte(token))

	return sum[:]
}

// extractBearerToken reads the Authorization: Bearer <token> header,
// the OTLP exporter convention for transport auth (spec.md §4.8's
// `token` field), mirroring the teacher's Authorization fallback path
// in internal/api/middleware.extractAPIKey without its X-Api-Key
// primary, which has no OTLP equivalent.
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}

	return token, true
}
