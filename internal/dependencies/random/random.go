package random

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// IDLength is the length of generated entity identifiers
	IDLength = 9
	// IDAlphabet is the character set for entity identifiers
	IDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	// PlayerCodeLength is the length of generated player codes
	PlayerCodeLength = 8
)

// Random provides random generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// String generates a random string of the given length from the given alphabet
	String(length int, alphabet string) string

	// ID generates a server-side identifier for assets, liabilities and actions
	ID() string

	// PlayerCode generates an opaque player code
	PlayerCode() string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a cryptographically random int in [0, n)
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	max := big.NewInt(int64(n))
	result, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Fall back to 0 on error (should never happen with crypto/rand)
		return 0
	}
	return int(result.Int64())
}

// String generates a random string of the given length from the given alphabet
func (r *CryptoRandom) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 {
		return ""
	}
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(result)
}

// ID generates a 9-character base36 identifier
func (r *CryptoRandom) ID() string {
	return r.String(IDLength, IDAlphabet)
}

// PlayerCode generates an 8-character uppercase code from a UUID
func (r *CryptoRandom) PlayerCode() string {
	return strings.ToUpper(uuid.NewString()[:PlayerCodeLength])
}
