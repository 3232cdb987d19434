// Package randutil holds the default source of randomness used for salts,
// seeds and PKCS #1 v1.5 padding strings.
package randutil

import (
	"io"

	"github.com/go-i2p/crypto/rand"
)

type reader struct{}

func (reader) Read(b []byte) (int, error) {
	return rand.Read(b)
}

// Reader is a cryptographically secure source of random bytes.
var Reader io.Reader = reader{}

// Or returns random, or Reader when random is nil.
func Or(random io.Reader) io.Reader {
	if random == nil {
		return Reader
	}
	return random
}

// NonZeroBytes fills buf with random non-zero octets read from random.
func NonZeroBytes(random io.Reader, buf []byte) error {
	if _, err := io.ReadFull(random, buf); err != nil {
		return err
	}
	for i := range buf {
		for buf[i] == 0 {
			if _, err := io.ReadFull(random, buf[i:i+1]); err != nil {
				return err
			}
		}
	}
	return nil
}
