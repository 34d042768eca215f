// Package bookingcode generates and validates the short human-facing
// booking identifiers of the form MT-XXXXXX.
package bookingcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	prefix     = "MT"
	codeLength = 6
	alphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var codePattern = regexp.MustCompile(`^MT-[A-Z0-9]{6}$`)

// Generate produces a booking code combining a time-derived component
// with random characters. Collisions are possible in principle; the
// caller enforces uniqueness with a bounded retry against the store's
// unique constraint.
func Generate() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))

	var sb strings.Builder
	sb.Grow(codeLength)

	// last two digits of the base-36 timestamp churn fastest
	if len(ts) >= 2 {
		sb.WriteString(ts[len(ts)-2:])
	}

	for sb.Len() < codeLength {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			panic(fmt.Sprintf("bookingcode: rand failed: %v", err))
		}
		sb.WriteByte(alphabet[n.Int64()])
	}

	return prefix + "-" + sb.String()
}

// IsValid reports whether code matches the exact PREFIX-XXXXXX shape:
// correct prefix, single hyphen, exactly six uppercase alphanumerics.
func IsValid(code string) bool {
	return codePattern.MatchString(code)
}
