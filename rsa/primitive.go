// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsa

import (
	"errors"
	"math/big"

	"github.com/cronokirby/safenum"
	"github.com/samber/oops"
)

var errFault = errors.New("crypto/rsa: internal error")

// checkRepresentative enforces 0 ≤ x < n.
func checkRepresentative(pub *PublicKey, x *big.Int) error {
	if x == nil || x.Sign() < 0 || x.Cmp(pub.n) >= 0 {
		return oops.Code("domain").In("rsa").With("modulus_bits", pub.bits).
			Wrapf(ErrDomain, "representative not in [0, n)")
	}
	return nil
}

func toNat(x *big.Int) *safenum.Nat {
	return new(safenum.Nat).SetBytes(x.Bytes())
}

func toInt(x *safenum.Nat) *big.Int {
	return new(big.Int).SetBytes(x.Bytes())
}

// expMod returns x^y mod m, reducing x first.
func expMod(x, y *safenum.Nat, m *safenum.Modulus) *safenum.Nat {
	base := new(safenum.Nat).Mod(x, m)
	return new(safenum.Nat).Exp(base, y, m)
}

func encrypt(pub *PublicKey, m *big.Int) *big.Int {
	return toInt(expMod(toNat(m), pub.eNat, pub.nMod))
}

// RSAEP computes m^e mod n.
func RSAEP(pub *PublicKey, m *big.Int) (*big.Int, error) {
	if err := checkRepresentative(pub, m); err != nil {
		return nil, err
	}
	return encrypt(pub, m), nil
}

// RSAVP1 computes s^e mod n.
func RSAVP1(pub *PublicKey, s *big.Int) (*big.Int, error) {
	return RSAEP(pub, s)
}

// RSADP computes c^d mod n with priv.
func RSADP(priv PrivateKey, c *big.Int) (*big.Int, error) {
	return priv.RSADP(c)
}

// RSASP1 computes m^d mod n with priv.
func RSASP1(priv PrivateKey, m *big.Int) (*big.Int, error) {
	return priv.RSASP1(m)
}

// checkResult defends against faults in the private computation: m^e has to
// give back the input.
func checkResult(pub *PublicKey, in, out *big.Int) error {
	if encrypt(pub, out).Cmp(in) != 0 {
		log.Error("private key operation failed consistency check")
		return errFault
	}
	return nil
}

// RSADP implements PrivateKey.
func (priv *PlainPrivateKey) RSADP(c *big.Int) (*big.Int, error) {
	if err := checkRepresentative(priv.pub, c); err != nil {
		return nil, err
	}
	if priv.dNat == nil {
		return nil, zeroedError()
	}
	m := toInt(expMod(toNat(c), priv.dNat, priv.pub.nMod))
	if err := checkResult(priv.pub, c, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RSASP1 implements PrivateKey.
func (priv *PlainPrivateKey) RSASP1(m *big.Int) (*big.Int, error) {
	return priv.RSADP(m)
}

// RSADP implements PrivateKey using the Chinese remainder theorem:
//
//	m1 = c^dP mod p, m2 = c^dQ mod q
//	h  = qInv·(m1 − m2) mod p
//	m  = m2 + q·h
func (priv *CRTPrivateKey) RSADP(c *big.Int) (*big.Int, error) {
	if err := checkRepresentative(priv.pub, c); err != nil {
		return nil, err
	}
	if priv.pMod == nil {
		return nil, zeroedError()
	}
	cNat := toNat(c)
	m1 := expMod(cNat, priv.dPNat, priv.pMod)
	m2 := expMod(cNat, priv.dQNat, priv.qMod)

	m2p := new(safenum.Nat).Mod(m2, priv.pMod)
	h := new(safenum.Nat).ModSub(m1, m2p, priv.pMod)
	h.ModMul(h, priv.qiN, priv.pMod)

	m := new(safenum.Nat).Mul(h, toNat(priv.q), priv.pub.nMod.BitLen())
	m.Add(m, m2, priv.pub.nMod.BitLen())

	out := toInt(m)
	if err := checkResult(priv.pub, c, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RSASP1 implements PrivateKey.
func (priv *CRTPrivateKey) RSASP1(m *big.Int) (*big.Int, error) {
	return priv.RSADP(m)
}
