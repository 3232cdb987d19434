package rsa

// This file implements ISO/IEC 9796-2 digital signature schemes 2 and 3, the
// randomized schemes with a PSS-like structure. With emBits = k − 1:
//
//	DB = 00 ... 00 | 01 | M1 | salt
//	H  = Hash(C | M1 | Hash(M2) | salt)
//	F  = (DB xor MGF1(H)) | H | trailer
//
// C is the bit length of M1 as a 64-bit big-endian integer. Scheme 2 puts as
// much of the message into M1 as fits; scheme 3 lets the caller fix the
// length of M1.

import (
	"crypto/subtle"
	"encoding/binary"
	"io"

	"github.com/gematik/lib-smartcards-sub003/hashalg"
	"github.com/gematik/lib-smartcards-sub003/internal/octets"
	"github.com/gematik/lib-smartcards-sub003/internal/randutil"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

// ds2Capacity returns the octets available for M1 and salt together:
// ⌊(k − hash bits − 8·trailer octets − 2)/8⌋.
func ds2Capacity(k, hLen, tLen int) int {
	if k < 2 {
		return -1
	}
	return (k-2)/8 - hLen - tLen
}

func ds2Hash(h *hashalg.Hash, m1, m2Hash, salt []byte) []byte {
	var c [8]byte
	binary.BigEndian.PutUint64(c[:], uint64(len(m1))*8)
	d := h.New()
	d.Write(c[:])
	d.Write(m1)
	d.Write(m2Hash)
	d.Write(salt)
	return d.Sum(nil)
}

// ds2Encode builds the representative. m1 and salt must fit ds2Capacity.
func ds2Encode(h *hashalg.Hash, k int, m1, m2Hash, salt, trailer []byte) []byte {
	emBits := k - 1
	emLen := octets.Len(emBits)
	hLen := h.Size()

	hh := ds2Hash(h, m1, m2Hash, salt)

	f := make([]byte, emLen)
	db := f[:emLen-hLen-len(trailer)]
	off := len(db) - len(m1) - len(salt) - 1
	db[off] = 0x01
	copy(db[off+1:], m1)
	copy(db[off+1+len(m1):], salt)

	hashalg.MGF1XOR(db, h.New(), hh)
	db[0] &= octets.TopMask(emBits)

	copy(f[len(db):], hh)
	copy(f[emLen-len(trailer):], trailer)
	return f
}

// ds2SaltLength returns the length of the salt opts asks for, checked
// against the capacity.
func ds2SaltLength(h *hashalg.Hash, opts *ISO9796Options, capacity int) (int, error) {
	saltLen := h.Size()
	if opts != nil {
		switch {
		case opts.Salt != nil:
			saltLen = len(opts.Salt)
		case opts.SaltLength < 0:
			return 0, oops.Code("parameter").In("rsa").With("salt_length", opts.SaltLength).
				Wrapf(ErrParameter, "negative salt length")
		case opts.SaltLength > 0:
			saltLen = opts.SaltLength
		}
	}
	if saltLen > capacity {
		return 0, oops.Code("capacity").In("rsa").
			With("salt_length", saltLen).
			With("capacity", capacity).
			Wrapf(ErrCapacity, "salt does not fit the representative")
	}
	return saltLen, nil
}

func ds2Salt(random io.Reader, opts *ISO9796Options, saltLen int) ([]byte, error) {
	if opts != nil && opts.Salt != nil {
		return opts.Salt, nil
	}
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(randutil.Or(random), salt); err != nil {
		return nil, oops.In("rsa").Wrapf(err, "ISO/IEC 9796-2 salt")
	}
	return salt, nil
}

func ds2Prepare(h *hashalg.Hash, k int, opts *ISO9796Options) (trailer []byte, capacity int, err error) {
	trailer, err = isoTrailer(h, opts.explicit())
	if err != nil {
		return nil, 0, err
	}
	capacity = ds2Capacity(k, h.Size(), len(trailer))
	if capacity < 0 {
		return nil, 0, oops.Code("capacity").In("rsa").
			With("modulus_bits", k).
			With("hash", h.String()).
			Wrapf(ErrCapacity, "ISO/IEC 9796-2 representative")
	}
	return trailer, capacity, nil
}

func ds2Sign(priv PrivateKey, h *hashalg.Hash, m1, m2, salt, trailer []byte, opts *ISO9796Options) (*SignatureResult, error) {
	f := ds2Encode(h, priv.Public().BitLen(), m1, h.Sum(m2), salt, trailer)
	sig, err := signRepresentative(priv, f, opts.useMinimum())
	if err != nil {
		return nil, err
	}
	return &SignatureResult{Signature: sig, M2: m2}, nil
}

// SignISO9796Ds2 signs msg with ISO/IEC 9796-2 scheme 2. After the salt, the
// longest prefix of msg that fits becomes M1; the remainder is returned as
// M2. A nil random uses the default source.
func SignISO9796Ds2(random io.Reader, priv PrivateKey, h *hashalg.Hash, msg []byte, opts *ISO9796Options) (*SignatureResult, error) {
	k := priv.Public().BitLen()
	trailer, capacity, err := ds2Prepare(h, k, opts)
	if err != nil {
		return nil, err
	}
	saltLen, err := ds2SaltLength(h, opts, capacity)
	if err != nil {
		return nil, err
	}
	salt, err := ds2Salt(random, opts, saltLen)
	if err != nil {
		return nil, err
	}

	m1, m2 := splitMessage(msg, capacity-saltLen)
	res, err := ds2Sign(priv, h, m1, m2, salt, trailer, opts)
	if err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{
		"modulus_bits": k,
		"m1_length":    len(m1),
		"m2_length":    len(m2),
		"salt_length":  len(salt),
		"hash":         h.String(),
	}).Debug("ISO/IEC 9796-2 scheme 2 signature created")
	return res, nil
}

// SignISO9796Ds3 signs msg with ISO/IEC 9796-2 scheme 3. M1 is the first
// m1BitLength/8 octets of msg, or all of msg if it is shorter. m1BitLength
// must be a multiple of 8 and at most 8·(capacity − salt length); the salt
// must not be empty. A nil random uses the default source.
func SignISO9796Ds3(random io.Reader, priv PrivateKey, h *hashalg.Hash, msg []byte, m1BitLength int, opts *ISO9796Options) (*SignatureResult, error) {
	k := priv.Public().BitLen()
	trailer, capacity, err := ds2Prepare(h, k, opts)
	if err != nil {
		return nil, err
	}
	if opts != nil && opts.Salt != nil && len(opts.Salt) == 0 {
		return nil, oops.Code("parameter").In("rsa").Wrapf(ErrParameter, "scheme 3 needs a non-empty salt")
	}
	saltLen, err := ds2SaltLength(h, opts, capacity)
	if err != nil {
		return nil, err
	}

	maxM1Bits := 8 * (capacity - saltLen)
	switch {
	case m1BitLength > maxM1Bits:
		return nil, oops.Code("m1_too_long").In("rsa").
			With("m1_bits", m1BitLength).
			With("max_m1_bits", maxM1Bits).
			Wrapf(ErrM1TooLong, "ISO/IEC 9796-2 scheme 3")
	case m1BitLength < 0 || m1BitLength%8 != 0:
		return nil, oops.Code("parameter").In("rsa").With("m1_bits", m1BitLength).
			Wrapf(ErrParameter, "M1 bit length must be a non-negative multiple of 8")
	}

	salt, err := ds2Salt(random, opts, saltLen)
	if err != nil {
		return nil, err
	}
	m1, m2 := splitMessage(msg, m1BitLength/8)
	res, err := ds2Sign(priv, h, m1, m2, salt, trailer, opts)
	if err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{
		"modulus_bits": k,
		"m1_length":    len(m1),
		"m2_length":    len(m2),
		"salt_length":  len(salt),
		"hash":         h.String(),
	}).Debug("ISO/IEC 9796-2 scheme 3 signature created")
	return res, nil
}

// VerifyISO9796Ds2 verifies a scheme 2 signature over M1 || m2 with a salt of
// saltLength octets (or ISO9796SaltLengthEqualsHash) and returns M1. Every
// failure is ErrVerification.
func VerifyISO9796Ds2(pub *PublicKey, h *hashalg.Hash, sig, m2 []byte, saltLength int) ([]byte, error) {
	m1, err := ds2Verify(pub, h, sig, m2, saltLength)
	if err != nil {
		log.Debug("verification failed")
		return nil, ErrVerification
	}
	return m1, nil
}

// VerifyISO9796Ds3 verifies a scheme 3 signature. Its representative has the
// scheme 2 layout, so the check is the same.
func VerifyISO9796Ds3(pub *PublicKey, h *hashalg.Hash, sig, m2 []byte, saltLength int) ([]byte, error) {
	if saltLength == 0 {
		return nil, ErrVerification
	}
	return VerifyISO9796Ds2(pub, h, sig, m2, saltLength)
}

func ds2Verify(pub *PublicKey, h *hashalg.Hash, sig, m2 []byte, saltLength int) ([]byte, error) {
	hLen := h.Size()
	if saltLength == ISO9796SaltLengthEqualsHash {
		saltLength = hLen
	}
	if saltLength < 0 {
		return nil, ErrVerification
	}

	emBits := pub.BitLen() - 1
	emLen := octets.Len(emBits)
	f, ok := recoverRepresentative(pub, sig, emLen)
	if !ok {
		return nil, ErrVerification
	}
	mask := octets.TopMask(emBits)
	if f[0]&^mask != 0 {
		return nil, ErrVerification
	}

	tLen := parseTrailer(h, f)
	if tLen == 0 || ds2Capacity(pub.BitLen(), hLen, tLen) < saltLength {
		return nil, ErrVerification
	}

	db := append([]byte{}, f[:emLen-hLen-tLen]...)
	hh := f[emLen-hLen-tLen : emLen-tLen]
	hashalg.MGF1XOR(db, h.New(), hh)
	db[0] &= mask

	// DB must be zero or more 0x00, then 0x01, then M1 and the salt.
	var lookingForIndex, index, invalid int
	lookingForIndex = 1
	for i := 0; i < len(db); i++ {
		equals0 := subtle.ConstantTimeByteEq(db[i], 0)
		equals1 := subtle.ConstantTimeByteEq(db[i], 1)
		index = subtle.ConstantTimeSelect(lookingForIndex&equals1, i, index)
		lookingForIndex = subtle.ConstantTimeSelect(equals1, 0, lookingForIndex)
		invalid = subtle.ConstantTimeSelect(lookingForIndex&^equals0, 1, invalid)
	}
	if invalid|lookingForIndex != 0 {
		return nil, ErrVerification
	}

	rest := db[index+1:]
	if len(rest) < saltLength {
		return nil, ErrVerification
	}
	m1 := rest[:len(rest)-saltLength]
	salt := rest[len(rest)-saltLength:]

	if subtle.ConstantTimeCompare(ds2Hash(h, m1, h.Sum(m2), salt), hh) != 1 {
		return nil, ErrVerification
	}
	return append([]byte{}, m1...), nil
}
