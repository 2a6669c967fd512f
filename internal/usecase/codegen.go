package usecase

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// GenerateCode returns a uniformly random 6-digit numeric code in
// [100000, 999999], so the code always has exactly six digits and no
// leading-zero ambiguity.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// ValidCodeFormat reports whether the submitted value is exactly six ASCII
// digits. Format failures are rejected before any store lookup.
func ValidCodeFormat(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
