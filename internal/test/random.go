package test

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomASCIIString returns an alphanumeric string with a length in [minLen, maxLen].
func RandomASCIIString(minLen, maxLen int) string {
	minLen = max(minLen, 1)
	maxLen = max(maxLen, minLen)
	buf := make([]byte, minLen+rand.IntN(maxLen-minLen+1))
	for i := range buf {
		buf[i] = alphanumeric[rand.IntN(len(alphanumeric))]
	}
	return string(buf)
}

// RandomSourceID mimics a mail Message-ID so each fixture lands as a distinct receipt.
func RandomSourceID() string {
	return fmt.Sprintf("<%s@mail.example>", uuid.NewString())
}

// RandomOrderNumber returns a marketplace style order id such as "OD4821-ZK31Q8".
func RandomOrderNumber() string {
	return fmt.Sprintf("OD%04d-%s", rand.IntN(10000), RandomASCIIString(6, 6))
}
