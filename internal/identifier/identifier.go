package identifier

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Token returns an opaque single-use token handed back by simulate and
// pre-create steps.
func Token() string {
	return uuid.NewString()
}

// ContractID mints a new 12-digit account contract identifier.
func ContractID() string {
	return Digits(12)
}

// RIB mints a 24-digit bank account identifier.
func RIB() string {
	return Digits(24)
}

// Reference builds a globally unique journal reference for the given
// transaction type, e.g. "TT-9F2A6C1B04D3".
func Reference(txType string) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a UUID.
		return fmt.Sprintf("%s-%s", txType, strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12]))
	}
	return fmt.Sprintf("%s-%s", txType, strings.ToUpper(hex.EncodeToString(buf)))
}

// Digits returns n cryptographically random decimal digits.
func Digits(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			sb.WriteByte('0')
			continue
		}
		sb.WriteByte(byte('0' + v.Int64()))
	}
	return sb.String()
}

// CodeGenerator produces one-time codes. Implementations decide length and
// randomness so flows that need deterministic codes can swap one in.
type CodeGenerator interface {
	Generate() string
}

// RandomCode issues cryptographically random numeric codes of a fixed length.
type RandomCode struct {
	Length int
}

// Generate returns a fresh numeric code.
func (g RandomCode) Generate() string {
	n := g.Length
	if n <= 0 {
		n = 6
	}
	return Digits(n)
}

// Static always issues the same code. Used by flows where the upstream rail
// fixes the challenge value.
type Static string

// Generate returns the fixed code.
func (s Static) Generate() string {
	return string(s)
}
