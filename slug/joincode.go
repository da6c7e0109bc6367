package slug

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"unicode"

	"github.com/rpupo63/rooms-blog-backend/errs"
)

const (
	// JoinCodeLength is the number of digits in a room join code
	JoinCodeLength = 4

	// DefaultJoinCodeAttempts bounds rejection sampling before giving up
	DefaultJoinCodeAttempts = 10

	minJoinCode = 1000
	maxJoinCode = 9999
)

var joinCodePattern = regexp.MustCompile(`^[0-9]{4}$`)

// CodeExists reports whether a join code is already taken.
type CodeExists func(ctx context.Context, code string) (bool, error)

// NewJoinCode draws codes from 1000-9999 until one is free, giving up after
// attempts tries. The code space is 9000 wide so exhaustion is a capacity
// limit, reported as errs.ErrJoinCodeExhausted.
func NewJoinCode(ctx context.Context, exists CodeExists, attempts int) (string, error) {
	if attempts <= 0 {
		attempts = DefaultJoinCodeAttempts
	}

	for i := 0; i < attempts; i++ {
		code := fmt.Sprintf("%04d", minJoinCode+rand.Intn(maxJoinCode-minJoinCode+1))
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", errs.NewJoinCodeExhaustedError(attempts)
}

// IsValidJoinCode accepts exactly four ASCII digits.
func IsValidJoinCode(code string) bool {
	return joinCodePattern.MatchString(code)
}

// NormalizeJoinCode strips everything but digits and keeps the first four.
func NormalizeJoinCode(input string) string {
	var sb strings.Builder
	for _, r := range input {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			continue
		}
		sb.WriteRune(r)
		if sb.Len() == JoinCodeLength {
			break
		}
	}
	return sb.String()
}

// FormatJoinCode renders a code for display as two pairs, "0042" -> "00 42".
// Invalid codes are returned unchanged.
func FormatJoinCode(code string) string {
	if !IsValidJoinCode(code) {
		return code
	}
	return code[:2] + " " + code[2:]
}
