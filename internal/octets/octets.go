// Package octets converts between non-negative integers and fixed-length
// big-endian octet strings (I2OSP and OS2IP of PKCS #1 section 4).
package octets

import (
	"errors"
	"math/big"
)

// ErrIntegerTooLarge is returned by I2OSP when x needs more than the
// requested number of octets.
var ErrIntegerTooLarge = errors.New("octets: integer too large")

// ErrNegative is returned by I2OSP for negative input.
var ErrNegative = errors.New("octets: negative integer")

// Len returns the number of octets needed to hold bits bits, ⌈bits/8⌉.
func Len(bits int) int {
	if bits <= 0 {
		return 0
	}
	return (bits + 7) / 8
}

// I2OSP encodes x as a big-endian octet string of exactly length octets.
func I2OSP(x *big.Int, length int) ([]byte, error) {
	if x.Sign() < 0 {
		return nil, ErrNegative
	}
	if length < 0 || x.BitLen() > 8*length {
		return nil, ErrIntegerTooLarge
	}
	return x.FillBytes(make([]byte, length)), nil
}

// OS2IP interprets b as a big-endian unsigned integer.
func OS2IP(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// TopMask returns the mask that clears the leftmost 8·⌈bits/8⌉ − bits bits of
// the first octet of a bits-bit string.
func TopMask(bits int) byte {
	return 0xFF >> uint(8*Len(bits)-bits)
}
