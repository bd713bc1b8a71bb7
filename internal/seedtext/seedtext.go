// Package seedtext turns user input into a root seed.
package seedtext

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
	"strconv"
	"strings"
	"time"

	"blockscape.ai/internal/gen/prng"
)

var mod64 = new(big.Int).Lsh(big.NewInt(1), 64)

// Parse reads an integer literal (decimal, 0x, 0o, 0b), then a bare hex
// string; anything else is hashed and returned as the name. Literals wider
// than 64 bits wrap.
func Parse(text string) (seed prng.Seed, name string) {
	t := strings.TrimSpace(text)
	if t != "" {
		if v, ok := new(big.Int).SetString(t, 0); ok {
			return wrap(v), ""
		}
		if v, ok := new(big.Int).SetString(t, 16); ok {
			return wrap(v), ""
		}
	}
	return FromText(text), text
}

// FromText is the first 8 bytes of SHA-256(text), big-endian.
func FromText(text string) prng.Seed {
	sum := sha256.Sum256([]byte(text))
	return prng.Seed(binary.BigEndian.Uint64(sum[:8]))
}

// FromTime seeds from the wall clock in Unix milliseconds.
func FromTime(t time.Time) prng.Seed {
	return prng.Seed(uint64(t.UnixMilli()))
}

// Resolve is Parse with a clock fallback when no input was given at all.
func Resolve(text string, given bool, now func() time.Time) (prng.Seed, string) {
	if !given {
		return FromTime(now()), ""
	}
	return Parse(text)
}

func Format(seed prng.Seed) string {
	return strconv.FormatUint(uint64(seed), 16)
}

func wrap(v *big.Int) prng.Seed {
	m := new(big.Int).Mod(v, mod64)
	return prng.Seed(m.Uint64())
}
