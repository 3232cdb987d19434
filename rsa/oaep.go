// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsa

import (
	"crypto"
	"crypto/subtle"
	"io"

	"github.com/gematik/lib-smartcards-sub003/hashalg"
	"github.com/gematik/lib-smartcards-sub003/internal/octets"
	"github.com/gematik/lib-smartcards-sub003/internal/randutil"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

// OAEPOptions is an interface for passing options to OAEP decryption using the
// crypto.Decrypter interface.
type OAEPOptions struct {
	// Hash is the hash function that will be used when generating the mask.
	Hash crypto.Hash
	// Label is an arbitrary byte string that must be equal to the value
	// used when encrypting.
	Label []byte
}

// EncryptOAEP encrypts the given message with RSA-OAEP.
//
// OAEP is parameterised by a hash function that is used as a random oracle.
// Encryption and decryption of a given message must use the same hash function
// and hashalg.SHA256 is a reasonable choice. MGF1 uses the same hash.
//
// The random parameter is used as a source of entropy to ensure that
// encrypting the same message twice doesn't result in the same ciphertext.
// A nil random uses the default source.
//
// The label parameter may contain arbitrary data that will not be encrypted,
// but which gives important context to the message. If not required it can
// be empty.
//
// The message must be no longer than the length of the public modulus minus
// twice the hash length, minus a further 2.
func EncryptOAEP(h *hashalg.Hash, random io.Reader, pub *PublicKey, msg []byte, label []byte) ([]byte, error) {
	k := pub.Size()
	hLen := h.Size()
	if k < 2*hLen+2 {
		return nil, oops.Code("capacity").In("rsa").
			With("modulus_bits", pub.BitLen()).
			With("hash", h.String()).
			Wrapf(ErrCapacity, "modulus too short for OAEP")
	}
	if len(msg) > k-2*hLen-2 {
		return nil, oops.In("rsa").With("message_length", len(msg)).With("limit", k-2*hLen-2).
			Wrapf(ErrMessageTooLong, "EME-OAEP")
	}

	lHash := h.Sum(label)

	em := make([]byte, k)
	seed := em[1 : 1+hLen]
	db := em[1+hLen:]

	copy(db[0:hLen], lHash)
	db[len(db)-len(msg)-1] = 1
	copy(db[len(db)-len(msg):], msg)

	if _, err := io.ReadFull(randutil.Or(random), seed); err != nil {
		return nil, oops.In("rsa").Wrapf(err, "OAEP seed")
	}

	d := h.New()
	hashalg.MGF1XOR(db, d, seed)
	hashalg.MGF1XOR(seed, d, db)

	c, err := RSAEP(pub, octets.OS2IP(em))
	if err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{
		"modulus_bits":   pub.BitLen(),
		"message_length": len(msg),
		"hash":           h.String(),
	}).Debug("EME-OAEP encryption done")
	return octets.I2OSP(c, k)
}

// DecryptOAEP decrypts ciphertext using RSA-OAEP.
//
// The label parameter must match the value given when encrypting. See
// EncryptOAEP for details. A wrong leading octet, a label hash mismatch and a
// missing 0x01 separator all give the same ErrDecryption.
func DecryptOAEP(h *hashalg.Hash, priv PrivateKey, ciphertext []byte, label []byte) ([]byte, error) {
	k := priv.Public().Size()
	hLen := h.Size()
	if len(ciphertext) != k || k < hLen*2+2 {
		return nil, ErrDecryption
	}

	m, err := priv.RSADP(octets.OS2IP(ciphertext))
	if err != nil {
		return nil, ErrDecryption
	}
	em, err := octets.I2OSP(m, k)
	if err != nil {
		return nil, ErrDecryption
	}

	lHash := h.Sum(label)

	firstByteIsZero := subtle.ConstantTimeByteEq(em[0], 0)

	seed := em[1 : hLen+1]
	db := em[hLen+1:]

	d := h.New()
	hashalg.MGF1XOR(seed, d, db)
	hashalg.MGF1XOR(db, d, seed)

	lHash2 := db[0:hLen]

	// We have to validate the plaintext in constant time in order to avoid
	// attacks like: J. Manger. A Chosen Ciphertext Attack on RSA Optimal
	// Asymmetric Encryption Padding (OAEP) as Standardized in PKCS #1
	// v2.0. In J. Kilian, editor, Advances in Cryptology.
	lHash2Good := subtle.ConstantTimeCompare(lHash, lHash2)

	// The remainder of the plaintext must be zero or more 0x00, followed
	// by 0x01, followed by the message.
	//   lookingForIndex: 1 iff we are still looking for the 0x01
	//   index: the offset of the first 0x01 byte
	//   invalid: 1 iff we saw a non-zero byte before the 0x01.
	var lookingForIndex, index, invalid int
	lookingForIndex = 1
	rest := db[hLen:]

	for i := 0; i < len(rest); i++ {
		equals0 := subtle.ConstantTimeByteEq(rest[i], 0)
		equals1 := subtle.ConstantTimeByteEq(rest[i], 1)
		index = subtle.ConstantTimeSelect(lookingForIndex&equals1, i, index)
		lookingForIndex = subtle.ConstantTimeSelect(equals1, 0, lookingForIndex)
		invalid = subtle.ConstantTimeSelect(lookingForIndex&^equals0, 1, invalid)
	}

	if firstByteIsZero&lHash2Good&^invalid&^lookingForIndex != 1 {
		log.Debug("decryption failed")
		return nil, ErrDecryption
	}

	return rest[index+1:], nil
}
