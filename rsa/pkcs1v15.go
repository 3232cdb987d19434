// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsa

import (
	"crypto/subtle"
	"io"

	"github.com/gematik/lib-smartcards-sub003/hashalg"
	"github.com/gematik/lib-smartcards-sub003/internal/octets"
	"github.com/gematik/lib-smartcards-sub003/internal/randutil"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

// PKCS1v15DecryptOptions is for passing options to PKCS #1 v1.5 decryption
// using the crypto.Decrypter interface.
type PKCS1v15DecryptOptions struct {
	// SessionKeyLen is the length of the session key that is being
	// decrypted. If not zero, then a padding error during decryption will
	// cause a random plaintext of this length to be returned rather than an
	// error. These alternatives happen in constant time.
	SessionKeyLen int
}

// EncryptPKCS1v15 encrypts msg with RSA and the padding scheme from PKCS #1
// v1.5:
//
//	EM = 0x00 || 0x02 || PS || 0x00 || M
//
// where PS holds at least eight random non-zero octets. msg must be no longer
// than the modulus size minus 11. A nil random uses the default source.
//
// WARNING: use of this function to encrypt plaintexts other than session
// keys is dangerous. Use RSA OAEP in new protocols.
func EncryptPKCS1v15(random io.Reader, pub *PublicKey, msg []byte) ([]byte, error) {
	k := pub.Size()
	if len(msg) > k-11 {
		return nil, oops.In("rsa").With("message_length", len(msg)).With("limit", k-11).
			Wrapf(ErrMessageTooLong, "EME-PKCS1-v1_5")
	}

	em := make([]byte, k)
	em[1] = 2
	ps, mm := em[2:len(em)-len(msg)-1], em[len(em)-len(msg):]
	if err := randutil.NonZeroBytes(randutil.Or(random), ps); err != nil {
		return nil, oops.In("rsa").Wrapf(err, "padding string")
	}
	copy(mm, msg)

	c, err := RSAEP(pub, octets.OS2IP(em))
	if err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{
		"modulus_bits":   pub.BitLen(),
		"message_length": len(msg),
	}).Debug("EME-PKCS1-v1_5 encryption done")
	return octets.I2OSP(c, k)
}

// DecryptPKCS1v15 decrypts a ciphertext using RSA and the padding scheme from
// PKCS #1 v1.5. Any padding violation yields ErrDecryption; the checks run in
// constant time and never reveal which one failed.
func DecryptPKCS1v15(priv PrivateKey, ciphertext []byte) ([]byte, error) {
	valid, em, index, err := decryptPKCS1v15(priv, ciphertext)
	if err != nil {
		return nil, err
	}
	if valid == 0 {
		log.Debug("decryption failed")
		return nil, ErrDecryption
	}
	return em[index:], nil
}

// DecryptPKCS1v15SessionKey decrypts a session key using RSA and the padding
// scheme from PKCS #1 v1.5. If the padding is invalid, key is left unchanged
// and no error is returned, so a caller that filled key with random octets
// beforehand continues with a random session key. This defeats Bleichenbacher
// style attacks as long as the protocol fails later on a wrong key.
//
// Only errors that do not depend on the ciphertext content are returned.
func DecryptPKCS1v15SessionKey(priv PrivateKey, ciphertext []byte, key []byte) error {
	k := priv.Public().Size()
	if k-(len(key)+3+8) < 0 {
		return ErrDecryption
	}

	valid, em, index, err := decryptPKCS1v15(priv, ciphertext)
	if err != nil {
		return err
	}

	valid &= subtle.ConstantTimeEq(int32(len(em)-index), int32(len(key)))
	subtle.ConstantTimeCopy(valid, key, em[len(em)-len(key):])
	return nil
}

// decryptPKCS1v15 returns valid = 1 and the index of the first message octet
// in em when the padding is well formed.
func decryptPKCS1v15(priv PrivateKey, ciphertext []byte) (valid int, em []byte, index int, err error) {
	k := priv.Public().Size()
	if k < 11 || len(ciphertext) != k {
		return 0, nil, 0, ErrDecryption
	}

	m, err := priv.RSADP(octets.OS2IP(ciphertext))
	if err != nil {
		return 0, nil, 0, ErrDecryption
	}
	em, err = octets.I2OSP(m, k)
	if err != nil {
		return 0, nil, 0, ErrDecryption
	}

	firstByteIsZero := subtle.ConstantTimeByteEq(em[0], 0)
	secondByteIsTwo := subtle.ConstantTimeByteEq(em[1], 2)

	// The remainder of the plaintext must be a string of non-zero random
	// octets, followed by a 0, followed by the message.
	//   lookingForIndex: 1 iff we are still looking for the zero.
	//   index: the offset of the first zero byte.
	lookingForIndex := 1

	for i := 2; i < len(em); i++ {
		equals0 := subtle.ConstantTimeByteEq(em[i], 0)
		index = subtle.ConstantTimeSelect(lookingForIndex&equals0, i, index)
		lookingForIndex = subtle.ConstantTimeSelect(equals0, 0, lookingForIndex)
	}

	// PS needs to be at least 8 bytes long.
	validPS := subtle.ConstantTimeLessOrEq(2+8, index)

	valid = firstByteIsZero & secondByteIsTwo & (^lookingForIndex & 1) & validPS
	index = subtle.ConstantTimeSelect(valid, index+1, 0)
	return valid, em, index, nil
}

// EncodePKCS1v15 returns the EMSA-PKCS1-v1_5 encoding of msg for an encoded
// message length of emLen octets:
//
//	EM = 0x00 || 0x01 || PS || 0x00 || DigestInfo
//
// with PS made of emLen − len(DigestInfo) − 3 octets 0xFF. emLen has to be at
// least len(DigestInfo) + 11.
func EncodePKCS1v15(h *hashalg.Hash, msg []byte, emLen int) ([]byte, error) {
	return emsaPKCS1v15Encode(h, h.Sum(msg), emLen)
}

func emsaPKCS1v15Encode(h *hashalg.Hash, digest []byte, emLen int) ([]byte, error) {
	t, err := h.DigestInfo(digest)
	if err != nil {
		return nil, oops.Code("parameter").In("rsa").Wrapf(ErrParameter, "%v", err)
	}
	if emLen < len(t)+11 {
		return nil, oops.Code("capacity").In("rsa").
			With("em_length", emLen).
			With("digest_info_length", len(t)).
			Wrapf(ErrCapacity, "intended encoded message length too short")
	}

	em := make([]byte, emLen)
	em[1] = 1
	for i := 2; i < emLen-len(t)-1; i++ {
		em[i] = 0xff
	}
	copy(em[emLen-len(t):], t)
	return em, nil
}

// SignPKCS1v15 calculates the signature of msg using RSASSA-PKCS1-v1_5.
func SignPKCS1v15(priv PrivateKey, h *hashalg.Hash, msg []byte) ([]byte, error) {
	return signPKCS1v15Digest(priv, h, h.Sum(msg))
}

func signPKCS1v15Digest(priv PrivateKey, h *hashalg.Hash, digest []byte) ([]byte, error) {
	pub := priv.Public()
	em, err := emsaPKCS1v15Encode(h, digest, pub.Size())
	if err != nil {
		return nil, err
	}
	s, err := priv.RSASP1(octets.OS2IP(em))
	if err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{
		"modulus_bits": pub.BitLen(),
		"hash":         h.String(),
	}).Debug("RSASSA-PKCS1-v1_5 signature created")
	return octets.I2OSP(s, pub.Size())
}

// VerifyPKCS1v15 verifies an RSASSA-PKCS1-v1_5 signature. A valid signature
// is indicated by returning a nil error; every failure is ErrVerification.
func VerifyPKCS1v15(pub *PublicKey, h *hashalg.Hash, msg []byte, sig []byte) error {
	return verifyPKCS1v15Digest(pub, h, h.Sum(msg), sig)
}

func verifyPKCS1v15Digest(pub *PublicKey, h *hashalg.Hash, digest []byte, sig []byte) error {
	k := pub.Size()
	if len(sig) != k {
		return ErrVerification
	}
	expected, err := emsaPKCS1v15Encode(h, digest, k)
	if err != nil {
		return ErrVerification
	}
	m, err := RSAVP1(pub, octets.OS2IP(sig))
	if err != nil {
		return ErrVerification
	}
	em, err := octets.I2OSP(m, k)
	if err != nil {
		return ErrVerification
	}
	if subtle.ConstantTimeCompare(em, expected) != 1 {
		log.Debug("verification failed")
		return ErrVerification
	}
	return nil
}
