// Package shortcode generates the fixed-length codes that shortened URLs
// are stored under.
package shortcode

import (
	"crypto/sha256"
	"strconv"
	"time"
)

// Alphabet is the 62-symbol set short codes are drawn from. The ordering
// (lowercase, uppercase, digits) is fixed: it determines which code each
// hash byte maps to, so changing it changes the reachable codes.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength is the number of characters in a generated short code.
// 62^7 gives roughly 3.5e12 possible codes, which makes per-call collisions
// negligible but not impossible; uniqueness is enforced by the store, not here.
const DefaultLength = 7

// Generator derives short codes from URLs. Codes are salted with the
// current time, so repeated calls for the same URL yield different codes.
type Generator struct {
	length int
	now    func() time.Time
}

// New returns a Generator producing codes of the given length. Lengths
// outside the usable range (1 to one code character per hash byte) fall
// back to DefaultLength.
func New(length int) *Generator {
	if length < 1 || length > sha256.Size {
		length = DefaultLength
	}

	return &Generator{
		length: length,
		now:    time.Now,
	}
}

// Generate returns a short code for the original URL. The URL is salted
// with the current Unix-millisecond timestamp and hashed with SHA-256; each
// output character is one hash byte reduced modulo the alphabet size.
func (g *Generator) Generate(originalURL string) string {
	salt := strconv.FormatInt(g.now().UnixMilli(), 10)
	sum := sha256.Sum256([]byte(originalURL + salt))

	code := make([]byte, g.length)
	for i := range code {
		code[i] = Alphabet[int(sum[i])%len(Alphabet)]
	}

	return string(code)
}
