// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsa

// This file implements the RSASSA-PSS signature scheme according to RFC 8017.

import (
	"bytes"
	"crypto"
	"crypto/subtle"
	"io"

	"github.com/gematik/lib-smartcards-sub003/hashalg"
	"github.com/gematik/lib-smartcards-sub003/internal/octets"
	"github.com/gematik/lib-smartcards-sub003/internal/randutil"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

const (
	// PSSSaltLengthAuto causes the salt in a PSS signature to be as large
	// as possible when signing, and to be auto-detected when verifying.
	PSSSaltLengthAuto = 0
	// PSSSaltLengthEqualsHash causes the salt length to equal the length
	// of the hash used in the signature.
	PSSSaltLengthEqualsHash = -1
)

// PSSOptions contains options for creating and verifying PSS signatures.
type PSSOptions struct {
	// SaltLength controls the length of the salt used in the PSS signature.
	// It can either be a positive number of bytes, or one of the special
	// PSSSaltLength constants.
	SaltLength int

	// Salt, if non-nil, is used verbatim instead of random bytes and
	// overrides SaltLength when signing.
	Salt []byte

	// Hash is the hash function used to generate the message digest. It is
	// consulted by Signer.Sign only.
	Hash crypto.Hash
}

// HashFunc returns opts.Hash so that PSSOptions implements crypto.SignerOpts.
func (opts *PSSOptions) HashFunc() crypto.Hash {
	return opts.Hash
}

func (opts *PSSOptions) saltLength() int {
	if opts == nil {
		return PSSSaltLengthEqualsHash
	}
	return opts.SaltLength
}

// EncodePSS computes the EMSA-PSS encoding of the digest mHash for an
// encoded message of emBits bits, see RFC 8017, section 9.1.1.
func EncodePSS(h *hashalg.Hash, mHash []byte, emBits int, salt []byte) ([]byte, error) {
	hLen := h.Size()
	sLen := len(salt)
	emLen := octets.Len(emBits)

	// 2.  Let mHash = Hash(M), an octet string of length hLen.
	if len(mHash) != hLen {
		return nil, oops.Code("parameter").In("rsa").Wrapf(ErrParameter, "input must be hashed message")
	}

	// 3.  If emLen < hLen + sLen + 2, output "encoding error" and stop.
	if emLen < hLen+sLen+2 {
		return nil, oops.Code("capacity").In("rsa").
			With("em_bits", emBits).
			With("salt_length", sLen).
			Wrapf(ErrCapacity, "PSS encoding error")
	}

	em := make([]byte, emLen)
	psLen := emLen - sLen - hLen - 2
	db := em[:psLen+1+sLen]
	hh := em[psLen+1+sLen : emLen-1]

	// 5.  M' = (0x)00 00 00 00 00 00 00 00 || mHash || salt
	// 6.  H = Hash(M')
	var prefix [8]byte
	d := h.New()
	d.Write(prefix[:])
	d.Write(mHash)
	d.Write(salt)
	hh = d.Sum(hh[:0])

	// 7.-8.  DB = PS || 0x01 || salt
	db[psLen] = 0x01
	copy(db[psLen+1:], salt)

	// 9.-10.  maskedDB = DB xor MGF(H, emLen - hLen - 1)
	hashalg.MGF1XOR(db, d, hh)

	// 11. Set the leftmost 8 * emLen - emBits bits of the leftmost octet in
	//     maskedDB to zero.
	db[0] &= octets.TopMask(emBits)

	// 12. EM = maskedDB || H || 0xbc
	em[emLen-1] = 0xbc
	return em, nil
}

// VerifyPSSEncoding checks em against the digest mHash, see RFC 8017,
// section 9.1.2. sLen may be PSSSaltLengthAuto to detect the salt length.
func VerifyPSSEncoding(h *hashalg.Hash, mHash, em []byte, emBits int, sLen int) error {
	hLen := h.Size()
	if sLen == PSSSaltLengthEqualsHash {
		sLen = hLen
	}
	emLen := octets.Len(emBits)
	if emLen != len(em) || len(mHash) != hLen || sLen < 0 {
		return ErrVerification
	}

	// 3.  If emLen < hLen + sLen + 2, output "inconsistent" and stop.
	if emLen < hLen+sLen+2 {
		return ErrVerification
	}

	// 4.  If the rightmost octet of EM does not have hexadecimal value
	//     0xbc, output "inconsistent" and stop.
	if em[emLen-1] != 0xbc {
		return ErrVerification
	}

	// 5.  Let maskedDB be the leftmost emLen - hLen - 1 octets of EM, and
	//     let H be the next hLen octets.
	db := append([]byte(nil), em[:emLen-hLen-1]...)
	hh := em[emLen-hLen-1 : emLen-1]

	// 6.  If the leftmost 8 * emLen - emBits bits of the leftmost octet in
	//     maskedDB are not all equal to zero, output "inconsistent" and
	//     stop.
	mask := octets.TopMask(emBits)
	if db[0]&^mask != 0 {
		return ErrVerification
	}

	// 7.-8.  DB = maskedDB xor MGF(H, emLen - hLen - 1)
	d := h.New()
	hashalg.MGF1XOR(db, d, hh)

	// 9.  Set the leftmost 8 * emLen - emBits bits of the leftmost octet in DB
	//     to zero.
	db[0] &= mask

	// 10. PS must be zeros followed by 0x01.
	if sLen == PSSSaltLengthAuto {
		psLen := bytes.IndexByte(db, 0x01)
		if psLen < 0 {
			return ErrVerification
		}
		sLen = len(db) - psLen - 1
	}
	psLen := emLen - hLen - sLen - 2
	for _, e := range db[:psLen] {
		if e != 0x00 {
			return ErrVerification
		}
	}
	if db[psLen] != 0x01 {
		return ErrVerification
	}

	// 11. Let salt be the last sLen octets of DB.
	salt := db[len(db)-sLen:]

	// 12.-13.  H' = Hash(00 00 00 00 00 00 00 00 || mHash || salt)
	var prefix [8]byte
	d.Reset()
	d.Write(prefix[:])
	d.Write(mHash)
	d.Write(salt)
	h0 := d.Sum(nil)

	// 14. If H = H', output "consistent." Otherwise, output "inconsistent."
	if subtle.ConstantTimeCompare(h0, hh) != 1 {
		return ErrVerification
	}
	return nil
}

// SignPSS calculates the signature of msg using RSASSA-PSS with the MGF1
// mask generation function over h. A nil opts uses a salt as long as the
// digest; a nil random uses the default source.
func SignPSS(random io.Reader, priv PrivateKey, h *hashalg.Hash, msg []byte, opts *PSSOptions) ([]byte, error) {
	return signPSSDigest(random, priv, h, h.Sum(msg), opts)
}

func signPSSDigest(random io.Reader, priv PrivateKey, h *hashalg.Hash, digest []byte, opts *PSSOptions) ([]byte, error) {
	pub := priv.Public()
	emBits := pub.BitLen() - 1

	var salt []byte
	if opts != nil && opts.Salt != nil {
		salt = opts.Salt
	} else {
		saltLength := opts.saltLength()
		switch saltLength {
		case PSSSaltLengthAuto:
			saltLength = octets.Len(emBits) - 2 - h.Size()
		case PSSSaltLengthEqualsHash:
			saltLength = h.Size()
		}
		if saltLength < 0 {
			return nil, oops.Code("capacity").In("rsa").With("salt_length", saltLength).
				Wrapf(ErrCapacity, "PSS salt")
		}
		salt = make([]byte, saltLength)
		if _, err := io.ReadFull(randutil.Or(random), salt); err != nil {
			return nil, oops.In("rsa").Wrapf(err, "PSS salt")
		}
	}

	em, err := EncodePSS(h, digest, emBits, salt)
	if err != nil {
		return nil, err
	}
	s, err := priv.RSASP1(octets.OS2IP(em))
	if err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{
		"modulus_bits": pub.BitLen(),
		"salt_length":  len(salt),
		"hash":         h.String(),
	}).Debug("RSASSA-PSS signature created")
	return octets.I2OSP(s, pub.Size())
}

// VerifyPSS verifies a PSS signature of msg. A valid signature is indicated
// by returning a nil error. opts may be nil, in which case the salt length
// is expected to equal the digest length.
func VerifyPSS(pub *PublicKey, h *hashalg.Hash, msg []byte, sig []byte, opts *PSSOptions) error {
	return verifyPSSDigest(pub, h, h.Sum(msg), sig, opts)
}

func verifyPSSDigest(pub *PublicKey, h *hashalg.Hash, digest []byte, sig []byte, opts *PSSOptions) error {
	if len(sig) != pub.Size() {
		return ErrVerification
	}
	m, err := RSAVP1(pub, octets.OS2IP(sig))
	if err != nil {
		return ErrVerification
	}
	emBits := pub.BitLen() - 1
	em, err := octets.I2OSP(m, octets.Len(emBits))
	if err != nil {
		return ErrVerification
	}
	if err := VerifyPSSEncoding(h, digest, em, emBits, opts.saltLength()); err != nil {
		log.Debug("verification failed")
		return ErrVerification
	}
	return nil
}
