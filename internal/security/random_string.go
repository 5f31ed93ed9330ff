package security

import (
	"crypto/rand"
	"errors"
)

var (
	errLengthNegative  = errors.New("random string length must not be negative")
	errAlphabetEmpty   = errors.New("random string alphabet must not be empty")
	errAlphabetTooWide = errors.New("random string alphabet must fit in one byte")
)

// RandomString draws length characters from alphabet using crypto/rand.
// Bytes at or above the largest multiple of the alphabet size are discarded,
// so every character keeps the same probability.
func RandomString(length int, alphabet string) (string, error) {
	if length < 0 {
		return "", errLengthNegative
	}
	if len(alphabet) == 0 {
		return "", errAlphabetEmpty
	}
	if len(alphabet) > 256 {
		return "", errAlphabetTooWide
	}
	if length == 0 {
		return "", nil
	}

	limit := 256 - 256%len(alphabet)
	out := make([]byte, 0, length)
	scratch := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(scratch); err != nil {
			return "", err
		}
		for _, raw := range scratch {
			if int(raw) >= limit {
				continue
			}
			out = append(out, alphabet[int(raw)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
