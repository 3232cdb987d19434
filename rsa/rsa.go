// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rsa implements the RSA primitives of PKCS #1 (RFC 8017) together
// with the encoding methods built on them: EME-PKCS1-v1_5 and EME-OAEP for
// encryption, EMSA-PKCS1-v1_5 and EMSA-PSS for signatures with appendix, and
// the ISO/IEC 9796-2 digital signature schemes 1, 2 and 3 giving total or
// partial message recovery.
//
// Moduli of any bit length are supported; all length arithmetic is done in
// bits and rounded up to octets only where an encoding requires it. This is
// what smart card applications need: the card holds the key and performs the
// exponentiation, the host has to produce bit-exact encoded messages.
//
// Modular exponentiation uses safenum, whose running time does not depend on
// the value of the exponent. Keys are never generated by this package; they
// are constructed from externally supplied integers and are immutable.
package rsa

import (
	"crypto"
	"math/big"

	"github.com/cronokirby/safenum"
	"github.com/gematik/lib-smartcards-sub003/config"
	"github.com/gematik/lib-smartcards-sub003/internal/octets"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

// A PublicKey represents the public part of an RSA key.
type PublicKey struct {
	n    *big.Int
	e    *big.Int
	nMod *safenum.Modulus
	eNat *safenum.Nat
	bits int // k, the bit length of n
	size int // ⌈k/8⌉

	policy config.SecurityPolicy
}

// KeyOption adjusts key construction.
type KeyOption func(*keyOptions)

type keyOptions struct {
	policy config.SecurityPolicy
}

// WithPolicy replaces the default security policy. The policy must pass
// config.SecurityPolicy.Validate.
func WithPolicy(p config.SecurityPolicy) KeyOption {
	return func(o *keyOptions) { o.policy = p }
}

func newKeyOptions(opts []KeyOption) keyOptions {
	o := keyOptions{policy: config.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewPublicKey builds a public key from modulus n and exponent e. n must be
// odd and greater than one; e must have at least 2 and at most
// MaxExponentBits bits.
func NewPublicKey(n, e *big.Int, opts ...KeyOption) (*PublicKey, error) {
	return newPublicKey(n, e, newKeyOptions(opts))
}

func newPublicKey(n, e *big.Int, o keyOptions) (*PublicKey, error) {
	if err := o.policy.Validate(); err != nil {
		return nil, oops.Code("invalid_policy").In("rsa").Wrapf(err, "key construction")
	}
	if n == nil || n.Sign() <= 0 || n.Bit(0) == 0 || n.Cmp(big.NewInt(1)) == 0 {
		return nil, oops.Code("invalid_key").In("rsa").Wrapf(ErrInvalidKey, "modulus must be odd and greater than one")
	}
	if e == nil || e.BitLen() < 2 {
		return nil, oops.Code("invalid_key").In("rsa").Wrapf(ErrInvalidKey, "public exponent too small")
	}
	if e.BitLen() > o.policy.MaxExponentBits {
		return nil, oops.Code("invalid_key").In("rsa").
			With("exponent_bits", e.BitLen()).
			With("max_exponent_bits", o.policy.MaxExponentBits).
			Wrapf(ErrInvalidKey, "public exponent too large")
	}
	pub := &PublicKey{
		n:      new(big.Int).Set(n),
		e:      new(big.Int).Set(e),
		nMod:   safenum.ModulusFromBytes(n.Bytes()),
		eNat:   new(safenum.Nat).SetBytes(e.Bytes()),
		bits:   n.BitLen(),
		policy: o.policy,
	}
	pub.size = octets.Len(pub.bits)
	return pub, nil
}

// N returns a copy of the modulus.
func (pub *PublicKey) N() *big.Int { return new(big.Int).Set(pub.n) }

// E returns a copy of the public exponent.
func (pub *PublicKey) E() *big.Int { return new(big.Int).Set(pub.e) }

// BitLen returns k, the bit length of the modulus.
func (pub *PublicKey) BitLen() int { return pub.bits }

// Size returns the modulus size in bytes. Raw signatures and ciphertexts
// for or by this public key will have the same size.
func (pub *PublicKey) Size() int { return pub.size }

// Equal reports whether pub and x have the same value.
func (pub *PublicKey) Equal(x crypto.PublicKey) bool {
	xx, ok := x.(*PublicKey)
	if !ok || xx == nil {
		return false
	}
	return pub.n.Cmp(xx.n) == 0 && pub.e.Cmp(xx.e) == 0
}

// A PrivateKey performs the private-key RSA primitives. The two
// implementations, *PlainPrivateKey and *CRTPrivateKey, produce identical
// results for every valid input.
type PrivateKey interface {
	// Public returns the public part of the key.
	Public() *PublicKey
	// RSADP computes c^d mod n.
	RSADP(c *big.Int) (*big.Int, error)
	// RSASP1 computes m^d mod n.
	RSASP1(m *big.Int) (*big.Int, error)
	// SecurityFindings reports policy violations of the key. Findings are
	// not fatal.
	SecurityFindings(policy config.SecurityPolicy) []Finding
	// Zero overwrites the private components. The key is unusable afterwards.
	Zero()
}

// A Finding names a property of a key that violates the security policy.
type Finding string

const (
	FindingModulusTooShort  Finding = "modulus bit length below infimum"
	FindingExponentTooShort Finding = "public exponent bit length below infimum"
	FindingExponentTooLong  Finding = "public exponent bit length above supremum"
)

func publicFindings(pub *PublicKey, policy config.SecurityPolicy) []Finding {
	var findings []Finding
	if pub.bits < policy.MinModulusBits {
		findings = append(findings, FindingModulusTooShort)
	}
	if pub.e.BitLen() < policy.MinExponentBits {
		findings = append(findings, FindingExponentTooShort)
	}
	if pub.e.BitLen() > policy.MaxExponentBits {
		findings = append(findings, FindingExponentTooLong)
	}
	if len(findings) > 0 {
		log.WithFields(logger.Fields{
			"modulus_bits":  pub.bits,
			"exponent_bits": pub.e.BitLen(),
			"findings":      len(findings),
		}).Warn("private key violates security policy")
	}
	return findings
}

// PlainPrivateKey is a private key given by its private exponent d.
type PlainPrivateKey struct {
	pub  *PublicKey
	d    *big.Int
	dNat *safenum.Nat
}

// NewPrivateKey builds a private key from n, e and d, with 0 < d < n.
func NewPrivateKey(n, e, d *big.Int, opts ...KeyOption) (*PlainPrivateKey, error) {
	pub, err := newPublicKey(n, e, newKeyOptions(opts))
	if err != nil {
		return nil, err
	}
	if d == nil || d.Sign() <= 0 || d.Cmp(n) >= 0 {
		return nil, oops.Code("invalid_key").In("rsa").Wrapf(ErrInvalidKey, "private exponent out of range")
	}
	return &PlainPrivateKey{
		pub:  pub,
		d:    new(big.Int).Set(d),
		dNat: new(safenum.Nat).SetBytes(d.Bytes()),
	}, nil
}

// Public returns the public key corresponding to priv.
func (priv *PlainPrivateKey) Public() *PublicKey { return priv.pub }

// SecurityFindings implements PrivateKey.
func (priv *PlainPrivateKey) SecurityFindings(policy config.SecurityPolicy) []Finding {
	return publicFindings(priv.pub, policy)
}

// Zero implements PrivateKey.
func (priv *PlainPrivateKey) Zero() {
	wipeInt(priv.d)
	wipeNat(priv.dNat)
	priv.dNat = nil
}

// Precompute derives the CRT form of priv from the prime factors of the
// modulus: dP = d mod (p−1), dQ = d mod (q−1) and qInv = q^−1 mod p. It
// fails unless p·q = n and d·e ≡ 1 modulo p−1 and q−1.
func (priv *PlainPrivateKey) Precompute(p, q *big.Int) (*CRTPrivateKey, error) {
	if priv.dNat == nil {
		return nil, zeroedError()
	}
	if err := checkPrimes(p, q); err != nil {
		return nil, err
	}
	if p.Cmp(q) == 0 || new(big.Int).Mul(p, q).Cmp(priv.pub.n) != 0 {
		return nil, oops.Code("invalid_key").In("rsa").Wrapf(ErrInvalidKey, "invalid modulus")
	}
	if !invertsModPrimeMinusOne(priv.pub.e, priv.d, p) || !invertsModPrimeMinusOne(priv.pub.e, priv.d, q) {
		return nil, oops.Code("invalid_key").In("rsa").Wrapf(ErrInvalidKey, "invalid exponents")
	}

	one := new(safenum.Nat).SetUint64(1)
	pNat, qNat := toNat(p), toNat(q)

	dP := new(safenum.Nat).Sub(pNat, one, uint(p.BitLen()))
	dP.Mod(priv.dNat, safenum.ModulusFromNat(*dP))

	dQ := new(safenum.Nat).Sub(qNat, one, uint(q.BitLen()))
	dQ.Mod(priv.dNat, safenum.ModulusFromNat(*dQ))

	qInv := new(safenum.Nat).ModInverse(qNat, safenum.ModulusFromBytes(p.Bytes()))

	crt, err := NewCRTPrivateKey(priv.pub.e, p, q, toInt(dP), toInt(dQ), toInt(qInv), WithPolicy(priv.pub.policy))
	if err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{"modulus_bits": priv.pub.bits}).Debug("CRT values precomputed")
	return crt, nil
}

// CRTPrivateKey is a private key given by its prime factors and the Chinese
// remainder theorem values of PKCS #1: dP = d mod (p−1), dQ = d mod (q−1)
// and qInv = q^−1 mod p.
type CRTPrivateKey struct {
	pub               *PublicKey
	p, q              *big.Int
	dP, dQ, qInv      *big.Int
	pMod, qMod        *safenum.Modulus
	dPNat, dQNat, qiN *safenum.Nat
}

// NewCRTPrivateKey builds a private key from the public exponent and the CRT
// components. The modulus is p·q.
func NewCRTPrivateKey(e, p, q, dP, dQ, qInv *big.Int, opts ...KeyOption) (*CRTPrivateKey, error) {
	for _, x := range []*big.Int{dP, dQ, qInv} {
		if x == nil || x.Sign() <= 0 {
			return nil, oops.Code("invalid_key").In("rsa").Wrapf(ErrInvalidKey, "missing CRT component")
		}
	}
	if err := checkPrimes(p, q); err != nil {
		return nil, err
	}
	if dP.Cmp(p) >= 0 || dQ.Cmp(q) >= 0 || qInv.Cmp(p) >= 0 {
		return nil, oops.Code("invalid_key").In("rsa").Wrapf(ErrInvalidKey, "CRT value out of range")
	}
	check := new(big.Int).Mul(qInv, q)
	if check.Mod(check, p).Cmp(big.NewInt(1)) != 0 {
		return nil, oops.Code("invalid_key").In("rsa").Wrapf(ErrInvalidKey, "invalid CRT coefficient")
	}

	pub, err := newPublicKey(new(big.Int).Mul(p, q), e, newKeyOptions(opts))
	if err != nil {
		return nil, err
	}
	if !invertsModPrimeMinusOne(pub.e, dP, p) || !invertsModPrimeMinusOne(pub.e, dQ, q) {
		return nil, oops.Code("invalid_key").In("rsa").Wrapf(ErrInvalidKey, "invalid exponents")
	}
	return &CRTPrivateKey{
		pub:   pub,
		p:     new(big.Int).Set(p),
		q:     new(big.Int).Set(q),
		dP:    new(big.Int).Set(dP),
		dQ:    new(big.Int).Set(dQ),
		qInv:  new(big.Int).Set(qInv),
		pMod:  safenum.ModulusFromBytes(p.Bytes()),
		qMod:  safenum.ModulusFromBytes(q.Bytes()),
		dPNat: new(safenum.Nat).SetBytes(dP.Bytes()),
		dQNat: new(safenum.Nat).SetBytes(dQ.Bytes()),
		qiN:   new(safenum.Nat).SetBytes(qInv.Bytes()),
	}, nil
}

// Public returns the public key corresponding to priv.
func (priv *CRTPrivateKey) Public() *PublicKey { return priv.pub }

// SecurityFindings implements PrivateKey.
func (priv *CRTPrivateKey) SecurityFindings(policy config.SecurityPolicy) []Finding {
	return publicFindings(priv.pub, policy)
}

// Zero implements PrivateKey. The safenum moduli of p and q cannot be
// overwritten in place and are released instead.
func (priv *CRTPrivateKey) Zero() {
	for _, x := range []*big.Int{priv.p, priv.q, priv.dP, priv.dQ, priv.qInv} {
		wipeInt(x)
	}
	for _, x := range []*safenum.Nat{priv.dPNat, priv.dQNat, priv.qiN} {
		wipeNat(x)
	}
	priv.pMod, priv.qMod = nil, nil
	priv.dPNat, priv.dQNat, priv.qiN = nil, nil, nil
}

func zeroedError() error {
	return oops.Code("invalid_key").In("rsa").Wrapf(ErrInvalidKey, "key has been zeroed")
}

func checkPrimes(p, q *big.Int) error {
	one := big.NewInt(1)
	if p == nil || q == nil || p.Cmp(one) <= 0 || q.Cmp(one) <= 0 || p.Bit(0) == 0 || q.Bit(0) == 0 {
		return oops.Code("invalid_key").In("rsa").Wrapf(ErrInvalidKey, "invalid prime value")
	}
	return nil
}

// invertsModPrimeMinusOne reports whether e·x ≡ 1 mod (prime − 1). Holding
// for both primes, it gives a^(e·x) ≡ a mod p·q for every a.
func invertsModPrimeMinusOne(e, x, prime *big.Int) bool {
	one := new(safenum.Nat).SetUint64(1)
	pminus1 := new(safenum.Nat).Sub(toNat(prime), one, uint(prime.BitLen()))
	ex := new(safenum.Nat).Mul(toNat(e), toNat(x), uint(e.BitLen()+x.BitLen()))
	congruence := new(safenum.Nat).Mod(ex, safenum.ModulusFromNat(*pminus1))
	return congruence.Cmp(one) == 0
}

// wipeInt overwrites every word backing x, then sets x to zero.
func wipeInt(x *big.Int) {
	if x == nil {
		return
	}
	words := x.Bits()
	words = words[:cap(words)]
	for i := range words {
		words[i] = 0
	}
	x.SetInt64(0)
}

// wipeNat overwrites the limbs of x in place. SetBytes with an input of the
// announced length reuses the existing limbs.
func wipeNat(x *safenum.Nat) {
	if x == nil {
		return
	}
	x.SetBytes(make([]byte, (x.AnnouncedLen()+7)/8))
}
