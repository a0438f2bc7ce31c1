package helpers

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const digitBytes = "0123456789"

// GenerateNumericCode returns an n-digit numeric string, the human-typeable
// alternative to scanning. Codes act as short-lived payment credentials, so
// the digits come from crypto/rand rather than a seeded generator.
func GenerateNumericCode(n int) string {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(digitBytes)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b.WriteByte(digitBytes[idx.Int64()])
	}
	return b.String()
}
