package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cityfix/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// Algorithm names the scheme used for new password hashes.
type Algorithm string

const (
	AlgorithmBcrypt Algorithm = "bcrypt"
	AlgorithmPBKDF2 Algorithm = "pbkdf2_sha256"
)

const (
	pbkdf2Prefix     = "pbkdf2_sha256$"
	pbkdf2Iterations = 210000
	pbkdf2SaltLen    = 16
	pbkdf2KeyLen     = 32

	// bcrypt ignores everything after 72 bytes; refuse instead of truncating.
	bcryptMaxPasswordLen = 72
)

func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgorithmBcrypt, AlgorithmPBKDF2:
		return Algorithm(s), nil
	}
	return "", fmt.Errorf("unknown password algorithm %q", s)
}

// PasswordHasher hashes credentials with the configured algorithm and
// verifies any supported encoding, picked from the hash string prefix:
//
//	$2a$ / $2b$ / $2y$                   bcrypt
//	pbkdf2_sha256$<salt_hex>$<digest_hex>  PBKDF2-HMAC-SHA256
//
// It holds no mutable state and is safe for concurrent use.
type PasswordHasher struct {
	algorithm Algorithm
	cost      int
}

func NewPasswordHasher(algorithm Algorithm) *PasswordHasher {
	return &PasswordHasher{algorithm: algorithm, cost: bcryptCost}
}

// Hash returns a self-describing hash of password with a fresh random salt.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", common.ErrValidation)
	}

	switch h.algorithm {
	case AlgorithmPBKDF2:
		return hashPBKDF2(password)
	case AlgorithmBcrypt, "":
		if len(password) > bcryptMaxPasswordLen {
			return "", fmt.Errorf("%w: password longer than %d bytes", common.ErrValidation, bcryptMaxPasswordLen)
		}
		b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unknown password algorithm %q", h.algorithm)
	}
}

// Verify reports whether password matches encoded. A malformed or unknown
// encoding yields false.
func (h *PasswordHasher) Verify(password, encoded string) bool {
	switch {
	case isBcrypt(encoded):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	case strings.HasPrefix(encoded, pbkdf2Prefix):
		ok, err := verifyPBKDF2(password, encoded)
		return err == nil && ok
	default:
		return false
	}
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func hashPBKDF2(password string) (string, error) {
	salt, err := common.RandomHex(pbkdf2SaltLen)
	if err != nil {
		return "", err
	}
	digest := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return pbkdf2Prefix + salt + "$" + hex.EncodeToString(digest), nil
}

var errMalformedHash = errors.New("malformed password hash")

func verifyPBKDF2(password, encoded string) (bool, error) {
	parts := strings.Split(strings.TrimPrefix(encoded, pbkdf2Prefix), "$")
	if len(parts) != 2 || parts[0] == "" {
		return false, errMalformedHash
	}
	salt := parts[0]
	want, err := hex.DecodeString(parts[1])
	if err != nil || len(want) == 0 {
		return false, errMalformedHash
	}

	got := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
