package uniuri

import (
	"crypto/rand"
)

const (
	// IDLen is the length of the random fragment of a record identifier.
	IDLen = 9

	idSeparator = "_"

	// bufLen random bytes are read per round; with base 36 about 3% are rejected.
	bufLen = 32
)

// Base36Chars are the digits of base 36, lower case.
var Base36Chars = []byte("0123456789abcdefghijklmnopqrstuvwxyz")

// NewID returns prefix + "_" + a random base-36 fragment of IDLen characters.
// Nothing checks the result against existing identifiers.
func NewID(prefix string) string {
	return prefix + idSeparator + NewLenChars(IDLen, Base36Chars)
}

// NewLenChars returns a random string of length characters picked from chars.
// Random bytes at or above the largest multiple of len(chars) are dropped, so
// every character is equally likely.
func NewLenChars(length int, chars []byte) string {
	clen := len(chars)
	if clen < 2 || clen > 256 {
		panic("uniuri: charset must hold 2 to 256 characters")
	}

	if length <= 0 {
		return ""
	}

	limit := 256 - 256%clen
	out := make([]byte, 0, length)
	buf := make([]byte, bufLen)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			panic("uniuri: reading random bytes: " + err.Error())
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, chars[int(b)%clen])
			if len(out) == length {
				break
			}
		}
	}

	return string(out)
}
