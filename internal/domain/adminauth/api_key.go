// Package adminauth gates the admin surface (rule reload) with
// a single operator-provisioned API key, supporting both a fast SHA-256
// direct-lookup hash and an Argon2id hash for operators who prefer not to
// store even a keyed hash of their admin secret in config.
package adminauth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
)

// ErrInvalidKey is returned when the presented admin key does not match the
// configured hash.
var ErrInvalidKey = errors.New("invalid admin api key")

// ErrUnknownHashType is returned when the configured hash has an
// unrecognized format.
var ErrUnknownHashType = errors.New("unknown admin key hash type")

// Verifier checks a presented admin API key against a single configured
// hash. It is stateless beyond that one hash: there is no per-key identity,
// expiry, or revocation, matching the admin surface's single-operator
// threat model.
type Verifier struct {
	storedHash string
}

// NewVerifier creates a Verifier for the given configured hash (either a
// bare/prefixed SHA-256 hex digest or an Argon2id PHC-format hash).
func NewVerifier(storedHash string) *Verifier {
	return &Verifier{storedHash: storedHash}
}

// Verify reports whether rawKey matches the configured admin key hash.
func (v *Verifier) Verify(rawKey string) error {
	match, err := VerifyKey(rawKey, v.storedHash)
	if err != nil {
		return err
	}
	if !match {
		return ErrInvalidKey
	}
	return nil
}

// HashKey returns the SHA-256 hex hash of the raw key.
func HashKey(rawKey string) string {
	hash := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(hash[:])
}

// argon2idParams defines OWASP minimum parameters for Argon2id.
var argon2idParams = &argon2id.Params{
	Memory:      47 * 1024, // 47 MiB (OWASP minimum: 46 MiB)
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// HashKeyArgon2id returns an Argon2id hash of the raw key in PHC format.
func HashKeyArgon2id(rawKey string) (string, error) {
	return argon2id.CreateHash(rawKey, argon2idParams)
}

// DetectHashType identifies the hash algorithm used for a stored hash.
func DetectHashType(storedHash string) string {
	if strings.HasPrefix(storedHash, "$argon2id$") {
		return "argon2id"
	}
	if strings.HasPrefix(storedHash, "sha256:") {
		return "sha256"
	}
	if len(storedHash) == 64 && isHexString(storedHash) {
		return "sha256"
	}
	return "unknown"
}

func isHexString(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// VerifyKey verifies a raw key against a stored hash, supporting Argon2id
// (PHC format), SHA-256 prefixed, and bare SHA-256 hex.
func VerifyKey(rawKey, storedHash string) (bool, error) {
	switch DetectHashType(storedHash) {
	case "argon2id":
		return safeArgon2idCompare(rawKey, storedHash)

	case "sha256":
		expectedHash := strings.TrimPrefix(storedHash, "sha256:")
		computedHash := HashKey(rawKey)
		return subtle.ConstantTimeCompare([]byte(computedHash), []byte(expectedHash)) == 1, nil

	default:
		return false, ErrUnknownHashType
	}
}

// safeArgon2idCompare wraps argon2id.ComparePasswordAndHash with panic
// recovery: the underlying library panics on malformed hash parameters
// (e.g. t=0, p=0) instead of returning an error.
func safeArgon2idCompare(rawKey, storedHash string) (match bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			match = false
			err = fmt.Errorf("invalid argon2id hash parameters: %v", r)
		}
	}()
	return argon2id.ComparePasswordAndHash(rawKey, storedHash)
}
