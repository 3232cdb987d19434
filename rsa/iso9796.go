package rsa

import (
	"math/big"

	"github.com/gematik/lib-smartcards-sub003/hashalg"
	"github.com/gematik/lib-smartcards-sub003/internal/octets"
	"github.com/samber/oops"
)

// Trailer octets of ISO/IEC 9796-2. An implicit trailer is the single octet
// 0xBC; an explicit one is the hash identifier followed by 0xCC. Both end
// in the nibble 0xC, which is what lets the verifier undo minimum selection.
const (
	trailerImplicit = 0xBC
	trailerExplicit = 0xCC
)

// ISO9796Options selects the variant of an ISO/IEC 9796-2 signature.
// The zero value signs with an implicit trailer, without minimum selection
// and, for schemes 2 and 3, a random salt as long as the digest.
type ISO9796Options struct {
	// ExplicitTrailer selects the two-octet trailer {hash id, 0xCC}.
	ExplicitTrailer bool
	// UseMinimum publishes min(S, n−S) instead of S.
	UseMinimum bool
	// Salt, if non-nil, is used verbatim (schemes 2 and 3).
	Salt []byte
	// SaltLength is the length of a random salt. Zero means the digest
	// length (schemes 2 and 3).
	SaltLength int
}

// SignatureResult is an ISO/IEC 9796-2 signature together with the part of
// the message that could not be recovered from it. M2 is empty for total
// recovery.
type SignatureResult struct {
	Signature []byte
	M2        []byte
}

// ISO9796SaltLengthEqualsHash, passed as the salt length to the scheme 2 and
// 3 verifiers, expects a salt as long as the digest.
const ISO9796SaltLengthEqualsHash = -1

func (opts *ISO9796Options) explicit() bool   { return opts != nil && opts.ExplicitTrailer }
func (opts *ISO9796Options) useMinimum() bool { return opts != nil && opts.UseMinimum }

// isoTrailer returns the trailer field for h.
func isoTrailer(h *hashalg.Hash, explicit bool) ([]byte, error) {
	if !explicit {
		return []byte{trailerImplicit}, nil
	}
	id, ok := h.ISOIdentifier()
	if !ok {
		return nil, oops.Code("parameter").In("rsa").With("hash", h.String()).
			Wrapf(ErrParameter, "no explicit ISO/IEC 9796-2 trailer for hash")
	}
	return []byte{id, trailerExplicit}, nil
}

// parseTrailer returns the length of the trailer ending f, or 0 if f does
// not end in a trailer valid for h.
func parseTrailer(h *hashalg.Hash, f []byte) int {
	switch {
	case len(f) >= 1 && f[len(f)-1] == trailerImplicit:
		return 1
	case len(f) >= 2 && f[len(f)-1] == trailerExplicit:
		if id, ok := h.ISOIdentifier(); ok && f[len(f)-2] == id {
			return 2
		}
	}
	return 0
}

func lowNibble(x *big.Int) uint {
	return x.Bit(3)<<3 | x.Bit(2)<<2 | x.Bit(1)<<1 | x.Bit(0)
}

// signRepresentative applies RSASP1 to the representative f and, when
// useMinimum is set, replaces S by n−S if that is smaller.
func signRepresentative(priv PrivateKey, f []byte, useMinimum bool) ([]byte, error) {
	pub := priv.Public()
	s, err := priv.RSASP1(octets.OS2IP(f))
	if err != nil {
		return nil, err
	}
	if useMinimum {
		if alt := new(big.Int).Sub(pub.n, s); alt.Cmp(s) < 0 {
			s = alt
		}
	}
	return octets.I2OSP(s, pub.Size())
}

// recoverRepresentative applies RSAVP1 to sig and returns the representative
// as an emLen octet string. Of J' and n−J' it keeps the one whose low nibble
// is 0xC, so signatures with and without minimum selection verify alike.
func recoverRepresentative(pub *PublicKey, sig []byte, emLen int) ([]byte, bool) {
	if len(sig) != pub.Size() {
		return nil, false
	}
	j, err := RSAVP1(pub, octets.OS2IP(sig))
	if err != nil {
		return nil, false
	}
	if lowNibble(j) != 0xC {
		j.Sub(pub.n, j)
	}
	if lowNibble(j) != 0xC {
		return nil, false
	}
	f, err := octets.I2OSP(j, emLen)
	if err != nil {
		return nil, false
	}
	return f, true
}

func splitMessage(msg []byte, m1Len int) (m1, m2 []byte) {
	if m1Len > len(msg) {
		m1Len = len(msg)
	}
	m1 = msg[:m1Len]
	m2 = append([]byte{}, msg[m1Len:]...)
	return m1, m2
}
