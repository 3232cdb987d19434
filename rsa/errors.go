package rsa

import "errors"

var (
	// ErrInvalidKey is returned when key components are inconsistent or out
	// of range.
	ErrInvalidKey = errors.New("crypto/rsa: invalid key")

	// ErrDomain is returned by the primitives for a representative outside
	// [0, n).
	ErrDomain = errors.New("crypto/rsa: representative out of range")

	// ErrCapacity is returned when the modulus is too short for the
	// requested encoding, salt or message.
	ErrCapacity = errors.New("crypto/rsa: capacity too small")

	// ErrM1TooLong is returned when the requested recoverable part does not
	// fit into the ISO/IEC 9796-2 representative.
	ErrM1TooLong = errors.New("crypto/rsa: recoverable message part too long")

	// ErrParameter is returned for arguments that can never be valid, such
	// as a bit length that is not a multiple of eight.
	ErrParameter = errors.New("crypto/rsa: invalid parameter")

	// ErrMessageTooLong is returned when attempting to encrypt a message which is
	// too large for the size of the public key.
	ErrMessageTooLong = errors.New("crypto/rsa: message too long for RSA public key size")

	// ErrDecryption represents a failure to decrypt a message.
	// It is deliberately vague to avoid adaptive attacks.
	ErrDecryption = errors.New("crypto/rsa: decryption error")

	// ErrVerification represents a failure to verify a signature.
	// It is deliberately vague to avoid adaptive attacks.
	ErrVerification = errors.New("crypto/rsa: verification error")
)
