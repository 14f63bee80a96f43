// pkg/utils/token.go
package utils

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// API tokens are handed out once and only their hash is persisted.
const tokenPrefix = "ps_"

// GenerateAPIToken creates a new opaque bearer token.
func GenerateAPIToken() (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return tokenPrefix + hex.EncodeToString(bytes), nil
}

// HashToken returns the SHA-256 hex digest stored in place of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MD5Hash generates MD5 hash of input string, used for cache keys only.
func MD5Hash(input string) string {
	hash := md5.Sum([]byte(input))
	return hex.EncodeToString(hash[:])
}

// IsValidUUID reports whether an identifier parses as a UUID.
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
