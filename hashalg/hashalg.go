// Package hashalg describes the message digests usable with the RSA schemes:
// digest length, DigestInfo algorithm identifier, ISO/IEC 9796-2 hash
// identifier, and the MGF1 mask generation function built on the digest.
package hashalg

import (
	"crypto"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	encoding_asn1 "encoding/asn1"
	"errors"
	"hash"
	"strings"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

var log = logger.GetGoI2PLogger()

// ErrUnknownHash is returned when a name or crypto.Hash has no descriptor.
var ErrUnknownHash = errors.New("hashalg: unknown hash algorithm")

// ErrDigestLength is returned when a digest does not match the length of
// its algorithm.
var ErrDigestLength = errors.New("hashalg: digest has wrong length")

// Hash is an immutable descriptor of a digest algorithm.
type Hash struct {
	name   string
	id     crypto.Hash
	size   int
	newFn  func() hash.Hash
	oid    encoding_asn1.ObjectIdentifier
	isoID  byte // ISO/IEC 10118 part/number identifier, 0 if none
	labels []string
}

var (
	SHA1 = &Hash{
		name: "SHA-1", id: crypto.SHA1, size: sha1.Size, newFn: sha1.New,
		oid:    encoding_asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26},
		isoID:  0x33,
		labels: []string{"sha1"},
	}
	SHA224 = &Hash{
		name: "SHA-224", id: crypto.SHA224, size: sha256.Size224, newFn: sha256.New224,
		oid:    encoding_asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 4},
		isoID:  0x38,
		labels: []string{"sha224"},
	}
	SHA256 = &Hash{
		name: "SHA-256", id: crypto.SHA256, size: sha256.Size, newFn: sha256.New,
		oid:    encoding_asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1},
		isoID:  0x34,
		labels: []string{"sha256"},
	}
	SHA384 = &Hash{
		name: "SHA-384", id: crypto.SHA384, size: sha512.Size384, newFn: sha512.New384,
		oid:    encoding_asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2},
		isoID:  0x36,
		labels: []string{"sha384"},
	}
	SHA512 = &Hash{
		name: "SHA-512", id: crypto.SHA512, size: sha512.Size, newFn: sha512.New,
		oid:    encoding_asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3},
		isoID:  0x35,
		labels: []string{"sha512"},
	}
	SHA512_224 = &Hash{
		name: "SHA-512/224", id: crypto.SHA512_224, size: sha512.Size224, newFn: sha512.New512_224,
		oid:    encoding_asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 5},
		isoID:  0x39,
		labels: []string{"sha512/224", "sha512_224"},
	}
	SHA512_256 = &Hash{
		name: "SHA-512/256", id: crypto.SHA512_256, size: sha512.Size256, newFn: sha512.New512_256,
		oid:    encoding_asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 6},
		isoID:  0x3A,
		labels: []string{"sha512/256", "sha512_256"},
	}
	RIPEMD160 = &Hash{
		name: "RIPEMD-160", id: crypto.RIPEMD160, size: ripemd160.Size, newFn: ripemd160.New,
		oid:    encoding_asn1.ObjectIdentifier{1, 3, 36, 3, 2, 1},
		isoID:  0x31,
		labels: []string{"ripemd160"},
	}
	SHA3_224 = &Hash{
		name: "SHA3-224", id: crypto.SHA3_224, size: 28, newFn: sha3.New224,
		oid:    encoding_asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 7},
		labels: []string{"sha3-224", "sha3_224"},
	}
	SHA3_256 = &Hash{
		name: "SHA3-256", id: crypto.SHA3_256, size: 32, newFn: sha3.New256,
		oid:    encoding_asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 8},
		labels: []string{"sha3-256", "sha3_256"},
	}
	SHA3_384 = &Hash{
		name: "SHA3-384", id: crypto.SHA3_384, size: 48, newFn: sha3.New384,
		oid:    encoding_asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 9},
		labels: []string{"sha3-384", "sha3_384"},
	}
	SHA3_512 = &Hash{
		name: "SHA3-512", id: crypto.SHA3_512, size: 64, newFn: sha3.New512,
		oid:    encoding_asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 10},
		labels: []string{"sha3-512", "sha3_512"},
	}
)

// All lists every supported descriptor.
var All = []*Hash{
	SHA1, SHA224, SHA256, SHA384, SHA512, SHA512_224, SHA512_256,
	RIPEMD160, SHA3_224, SHA3_256, SHA3_384, SHA3_512,
}

// Lookup finds a descriptor by name. Matching ignores case and dashes, so
// "SHA-256", "sha256" and "Sha-256" are equivalent.
func Lookup(name string) (*Hash, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, h := range All {
		if strings.EqualFold(h.name, key) {
			return h, nil
		}
		for _, l := range h.labels {
			if key == l || strings.ReplaceAll(key, "-", "") == strings.ReplaceAll(l, "-", "") {
				return h, nil
			}
		}
	}
	log.WithField("name", name).Debug("unknown hash algorithm requested")
	return nil, oops.In("hashalg").With("name", name).Wrapf(ErrUnknownHash, "lookup %q", name)
}

// FromCrypto maps a crypto.Hash to its descriptor.
func FromCrypto(id crypto.Hash) (*Hash, error) {
	for _, h := range All {
		if h.id == id {
			return h, nil
		}
	}
	return nil, oops.In("hashalg").With("hash", uint(id)).Wrapf(ErrUnknownHash, "crypto.Hash %d", uint(id))
}

// String returns the canonical name, e.g. "SHA-256".
func (h *Hash) String() string { return h.name }

// CryptoHash returns the matching crypto.Hash identifier.
func (h *Hash) CryptoHash() crypto.Hash { return h.id }

// Size returns the digest length in octets.
func (h *Hash) Size() int { return h.size }

// New returns a fresh hash.Hash.
func (h *Hash) New() hash.Hash { return h.newFn() }

// OID returns the algorithm identifier used in DigestInfo.
func (h *Hash) OID() encoding_asn1.ObjectIdentifier {
	oid := make(encoding_asn1.ObjectIdentifier, len(h.oid))
	copy(oid, h.oid)
	return oid
}

// Sum hashes the concatenation of parts.
func (h *Hash) Sum(parts ...[]byte) []byte {
	d := h.newFn()
	for _, p := range parts {
		d.Write(p)
	}
	return d.Sum(nil)
}

// ISOIdentifier returns the ISO/IEC 9796-2 hash identifier placed in front of
// 0xCC in an explicit trailer. ok is false for digests without one.
func (h *Hash) ISOIdentifier() (id byte, ok bool) {
	return h.isoID, h.isoID != 0
}

// DigestInfo returns the DER encoding of
//
//	DigestInfo ::= SEQUENCE {
//	    digestAlgorithm AlgorithmIdentifier,
//	    digest OCTET STRING }
//
// with NULL algorithm parameters.
func (h *Hash) DigestInfo(digest []byte) ([]byte, error) {
	if len(digest) != h.size {
		return nil, oops.In("hashalg").
			With("algorithm", h.name).
			With("want", h.size).
			With("got", len(digest)).
			Wrapf(ErrDigestLength, "digest info")
	}
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(h.oid)
			b.AddASN1NULL()
		})
		b.AddASN1OctetString(digest)
	})
	return b.Bytes()
}
