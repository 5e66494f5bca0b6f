package verification

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"

	"github.com/tendant/dental-idm/pkg/account"
)

const (
	linkTokenBytes = 32
	codeDigits     = 6
)

var (
	codeRange   = big.NewInt(1_000_000)
	codePattern = regexp.MustCompile(`^\d{6}$`)
)

// Generator produces plaintext secrets
type Generator interface {
	Generate(kind account.SecretKind) (string, error)
}

// RandomGenerator draws secrets from crypto/rand. Link tokens are 32 random
// bytes hex encoded; codes are uniform in [000000, 999999].
type RandomGenerator struct{}

func (RandomGenerator) Generate(kind account.SecretKind) (string, error) {
	switch kind {
	case account.KindLink:
		b := make([]byte, linkTokenBytes)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("failed to generate token: %w", err)
		}
		return hex.EncodeToString(b), nil
	case account.KindCode:
		n, err := rand.Int(rand.Reader, codeRange)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
	default:
		return "", fmt.Errorf("unknown secret kind: %s", kind)
	}
}

// HashSecret returns the SHA-256 hex digest stored in place of a secret
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// ValidCode reports whether code is exactly six ASCII digits
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}
