package id

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Alphabet is Crockford's base32 alphabet; it omits I, L, O and U.
const Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// ULIDLength is the length of a string returned by NewULID.
const ULIDLength = 26

// NewULID returns a ULID for the current time.
func NewULID() string {
	return ULIDAt(time.Now())
}

// ULIDAt returns a ULID whose 48-bit timestamp is t in milliseconds,
// followed by 80 random bits. IDs sort lexicographically by t.
func ULIDAt(t time.Time) string {
	var raw [16]byte
	ms := uint64(t.UnixMilli())
	for i := 5; i >= 0; i-- {
		raw[i] = byte(ms)
		ms >>= 8
	}
	entropy(raw[6:])

	// 128 bits packed into 26 characters; the leading two bits are zero.
	var out [ULIDLength]byte
	hi := binary.BigEndian.Uint64(raw[:8])
	lo := binary.BigEndian.Uint64(raw[8:])
	for i := ULIDLength - 1; i >= 0; i-- {
		out[i] = Alphabet[lo&0x1F]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}

// Random returns n random characters from Alphabet.
func Random(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	entropy(buf)
	for i, b := range buf {
		buf[i] = Alphabet[b&0x1F]
	}
	return string(buf)
}

// entropy fills b from crypto/rand, which never fails on supported platforms.
func entropy(b []byte) {
	_, _ = rand.Read(b)
}
