package rsa

// This file implements ISO/IEC 9796-2 digital signature scheme 1, the
// deterministic scheme with total or partial message recovery.
//
// The representative F has exactly k bits, k being the modulus bit length:
//
//	01 | more data | 0 | B B ... B A | M1 | H | trailer
//
// The header is the leading nibble. The padding is a run of 0xB nibbles
// closed by a 0xA nibble, right-aligned so that 0xA is the low nibble of the
// octet in front of M1 and cut off where it meets the header. H = Hash(M).

import (
	"crypto/subtle"

	"github.com/gematik/lib-smartcards-sub003/hashalg"
	"github.com/gematik/lib-smartcards-sub003/internal/octets"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

// ds1Capacity returns the number of message octets a scheme 1 representative
// of k bits can carry. The header and the 0xA nibble take at least 8 bits.
func ds1Capacity(k, hLen, tLen int) int {
	if k < 8 {
		return -1
	}
	return (k-8)/8 - hLen - tLen
}

func setBit(f []byte, pos int, v byte) {
	i := len(f) - 1 - pos/8
	mask := byte(1) << uint(pos%8)
	if v&1 == 1 {
		f[i] |= mask
	} else {
		f[i] &^= mask
	}
}

// ds1Encode builds the k-bit representative. m1 must fit ds1Capacity.
func ds1Encode(k int, m1 []byte, more bool, digest, trailer []byte) []byte {
	emLen := octets.Len(k)
	f := make([]byte, emLen)
	delta := emLen - len(trailer) - len(digest) - len(m1)

	for i := 0; i < delta; i++ {
		f[i] = 0xBB
	}
	f[delta-1] ^= 0x01
	copy(f[delta:], m1)
	copy(f[delta+len(m1):], digest)
	copy(f[emLen-len(trailer):], trailer)

	header := byte(0x4)
	if more {
		header |= 0x2
	}
	for i := 0; i < 4; i++ {
		setBit(f, k-1-i, header>>uint(3-i))
	}
	f[0] &= octets.TopMask(k)
	return f
}

// SignISO9796Ds1 signs msg with ISO/IEC 9796-2 scheme 1. The longest prefix
// of msg that fits into the representative becomes the recoverable part M1;
// the rest is returned as M2 and has to be transmitted with the signature.
func SignISO9796Ds1(priv PrivateKey, h *hashalg.Hash, msg []byte, opts *ISO9796Options) (*SignatureResult, error) {
	pub := priv.Public()
	k := pub.BitLen()
	trailer, err := isoTrailer(h, opts.explicit())
	if err != nil {
		return nil, err
	}
	capacity := ds1Capacity(k, h.Size(), len(trailer))
	if capacity < 0 {
		return nil, oops.Code("capacity").In("rsa").
			With("modulus_bits", k).
			With("hash", h.String()).
			Wrapf(ErrCapacity, "ISO/IEC 9796-2 scheme 1")
	}

	m1, m2 := splitMessage(msg, capacity)
	f := ds1Encode(k, m1, len(m2) > 0, h.Sum(msg), trailer)
	sig, err := signRepresentative(priv, f, opts.useMinimum())
	if err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{
		"modulus_bits": k,
		"m1_length":    len(m1),
		"m2_length":    len(m2),
		"hash":         h.String(),
	}).Debug("ISO/IEC 9796-2 scheme 1 signature created")
	return &SignatureResult{Signature: sig, M2: m2}, nil
}

// VerifyISO9796Ds1 verifies a scheme 1 signature over M1 || m2 and returns
// the recovered part M1. Every failure is ErrVerification.
func VerifyISO9796Ds1(pub *PublicKey, h *hashalg.Hash, sig, m2 []byte) ([]byte, error) {
	k := pub.BitLen()
	emLen := octets.Len(k)
	f, ok := recoverRepresentative(pub, sig, emLen)
	if !ok {
		log.Debug("verification failed")
		return nil, ErrVerification
	}

	tLen := parseTrailer(h, f)
	capacity := ds1Capacity(k, h.Size(), tLen)
	if tLen == 0 || capacity < 0 {
		log.Debug("verification failed")
		return nil, ErrVerification
	}

	// M1 starts behind the first octet whose low nibble is 0xA.
	end := emLen - tLen - h.Size()
	start := -1
	for i := 0; i < end; i++ {
		if f[i]&0x0F == 0x0A {
			start = i + 1
			break
		}
	}
	if start < 0 || end-start > capacity {
		log.Debug("verification failed")
		return nil, ErrVerification
	}
	m1 := append([]byte{}, f[start:end]...)

	d := h.New()
	d.Write(m1)
	d.Write(m2)
	expected := ds1Encode(k, m1, len(m2) > 0, d.Sum(nil), f[emLen-tLen:])
	if subtle.ConstantTimeCompare(f, expected) != 1 {
		log.Debug("verification failed")
		return nil, ErrVerification
	}
	return m1, nil
}
