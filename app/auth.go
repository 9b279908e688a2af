package app

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// TokenStore validates ingress bearer tokens. Tokens are supplied through
// configuration, hashed with bcrypt at startup, and validation results are
// cached keyed by the SHA-256 digest of the presented token so the bcrypt
// comparison runs once per distinct token.
type TokenStore struct {
	hashes []string
	cache  *Cache[string, bool]
}

// Bounds the validation cache so unauthenticated callers cannot grow it
// without limit.
const maxCachedTokenDigests = 10000

// NewTokenStore hashes the configured tokens. Empty entries are skipped.
func NewTokenStore(tokens []string) (*TokenStore, error) {
	store := &TokenStore{cache: NewBoundedCache[string, bool](maxCachedTokenDigests)}
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(token), 10)
		if err != nil {
			return nil, fmt.Errorf("hashing ingest token: %w", err)
		}
		store.hashes = append(store.hashes, string(hash))
	}
	return store, nil
}

// Validate reports whether the presented token is one of the configured
// ingest tokens.
func (s *TokenStore) Validate(token string) bool {
	if token == "" || len(s.hashes) == 0 {
		return false
	}

	digest := sha256.Sum256([]byte(token))
	key := hex.EncodeToString(digest[:])

	valid, _, inCache := s.cache.Get(key)
	if inCache {
		return valid
	}

	valid = false
	for _, hash := range s.hashes {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil {
			valid = true
			break
		}
	}
	s.cache.Set(key, valid, valid)
	return valid
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", NewError(KindAuth, "MISSING_BEARER_TOKEN", "authorization header must carry a bearer token")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", NewError(KindAuth, "MISSING_BEARER_TOKEN", "authorization header must carry a bearer token")
	}
	return token, nil
}
