// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsa

import (
	"crypto"
	"io"

	"github.com/gematik/lib-smartcards-sub003/hashalg"
	"github.com/gematik/lib-smartcards-sub003/internal/randutil"
	"github.com/samber/oops"
)

// Signer binds a PrivateKey to the crypto.Signer and crypto.Decrypter
// interfaces.
type Signer struct {
	key PrivateKey
}

var (
	_ crypto.Signer    = (*Signer)(nil)
	_ crypto.Decrypter = (*Signer)(nil)
)

// NewSigner returns a Signer using key.
func NewSigner(key PrivateKey) *Signer {
	return &Signer{key: key}
}

// Key returns the underlying private key.
func (s *Signer) Key() PrivateKey { return s.key }

// Public returns the *PublicKey of the signer.
func (s *Signer) Public() crypto.PublicKey {
	return s.key.Public()
}

func hashFor(opts crypto.SignerOpts, digest []byte) (*hashalg.Hash, error) {
	if opts == nil {
		return nil, oops.Code("parameter").In("rsa").Wrapf(ErrParameter, "missing signer options")
	}
	h, err := hashalg.FromCrypto(opts.HashFunc())
	if err != nil {
		return nil, oops.Code("parameter").In("rsa").Wrapf(ErrParameter, "%v", err)
	}
	if len(digest) != h.Size() {
		return nil, oops.Code("parameter").In("rsa").
			With("digest_length", len(digest)).
			With("hash", h.String()).
			Wrapf(ErrParameter, "input must be hashed message")
	}
	return h, nil
}

// Sign signs digest with the key, reading randomness from random. If opts is
// a *PSSOptions then the PSS algorithm will be used, otherwise PKCS #1 v1.5
// will be used. digest must be the result of hashing the input message using
// opts.HashFunc().
func (s *Signer) Sign(random io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	h, err := hashFor(opts, digest)
	if err != nil {
		return nil, err
	}
	if pssOpts, ok := opts.(*PSSOptions); ok {
		return signPSSDigest(random, s.key, h, digest, pssOpts)
	}
	return signPKCS1v15Digest(s.key, h, digest)
}

// Decrypt decrypts ciphertext with the key. If opts is nil or of type
// *PKCS1v15DecryptOptions then PKCS #1 v1.5 decryption is performed. Otherwise
// opts must have type *OAEPOptions and OAEP decryption is done.
func (s *Signer) Decrypt(random io.Reader, ciphertext []byte, opts crypto.DecrypterOpts) (plaintext []byte, err error) {
	if opts == nil {
		return DecryptPKCS1v15(s.key, ciphertext)
	}

	switch opts := opts.(type) {
	case *OAEPOptions:
		h, err := hashalg.FromCrypto(opts.Hash)
		if err != nil {
			return nil, oops.Code("parameter").In("rsa").Wrapf(ErrParameter, "%v", err)
		}
		return DecryptOAEP(h, s.key, ciphertext, opts.Label)

	case *PKCS1v15DecryptOptions:
		if l := opts.SessionKeyLen; l > 0 {
			plaintext = make([]byte, l)
			if _, err := io.ReadFull(randutil.Or(random), plaintext); err != nil {
				return nil, err
			}
			if err := DecryptPKCS1v15SessionKey(s.key, ciphertext, plaintext); err != nil {
				return nil, err
			}
			return plaintext, nil
		}
		return DecryptPKCS1v15(s.key, ciphertext)

	default:
		return nil, oops.Code("parameter").In("rsa").Wrapf(ErrParameter, "invalid options for Decrypt")
	}
}

// Verify checks a signature over digest made by Signer.Sign with the same
// options. A valid signature is indicated by returning a nil error.
func (pub *PublicKey) Verify(digest, sig []byte, opts crypto.SignerOpts) error {
	h, err := hashFor(opts, digest)
	if err != nil {
		return err
	}
	if pssOpts, ok := opts.(*PSSOptions); ok {
		return verifyPSSDigest(pub, h, digest, sig, pssOpts)
	}
	return verifyPKCS1v15Digest(pub, h, digest, sig)
}

// Encrypt encrypts msg for pub. A nil opts selects PKCS #1 v1.5, an
// *OAEPOptions selects OAEP.
func (pub *PublicKey) Encrypt(random io.Reader, msg []byte, opts crypto.DecrypterOpts) ([]byte, error) {
	switch opts := opts.(type) {
	case nil, *PKCS1v15DecryptOptions:
		return EncryptPKCS1v15(random, pub, msg)
	case *OAEPOptions:
		h, err := hashalg.FromCrypto(opts.Hash)
		if err != nil {
			return nil, oops.Code("parameter").In("rsa").Wrapf(ErrParameter, "%v", err)
		}
		return EncryptOAEP(h, random, pub, msg, opts.Label)
	default:
		return nil, oops.Code("parameter").In("rsa").Wrapf(ErrParameter, "invalid options for Encrypt")
	}
}
