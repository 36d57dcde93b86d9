package util

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/pkg/errors"
)

// RandomHex returns a hex string derived from n cryptographically random
// bytes. The result is 2n characters long.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return hex.EncodeToString(buf), nil
}
