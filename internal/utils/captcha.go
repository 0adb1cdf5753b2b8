package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// CaptchaAlphabet leaves out glyphs that are easy to confuse (0/O, 1/I/l, i/L/o).
const CaptchaAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

const CaptchaLength = 6

// GenerateCaptcha draws every character uniformly from CaptchaAlphabet.
func GenerateCaptcha() (string, error) {
	b := make([]byte, CaptchaLength)
	max := big.NewInt(int64(len(CaptchaAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = CaptchaAlphabet[n.Int64()]
	}
	return string(b), nil
}

// CheckCaptcha compares case-insensitively. It never regenerates; callers
// issue a new code after a failed attempt.
func CheckCaptcha(code, answer string) bool {
	if code == "" {
		return false
	}
	return strings.ToLower(strings.TrimSpace(answer)) == strings.ToLower(code)
}
