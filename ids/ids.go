// Package ids generates the fixed-length random identifiers used for all
// entities (posts, comments, snapshots, notifications).
package ids

import (
	"crypto/rand"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	// Length of every generated identifier.
	Length = 16
)

// New returns a new random identifier of Length characters over [a-z0-9].
func New() string {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf)
}
