package rsa

import (
	"crypto"
	"crypto/rand"
	stdrsa "crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerSign(t *testing.T) {
	priv := crtKey(t, "rsa2048")
	std := stdKey(t, "rsa2048")
	signer := NewSigner(priv)
	pub, ok := signer.Public().(*PublicKey)
	require.True(t, ok)
	require.Same(t, priv.Public(), pub)

	digest := sha256.Sum256([]byte("crypto.Signer"))

	sig, err := signer.Sign(rand.Reader, digest[:], crypto.SHA256)
	require.NoError(t, err)
	assert.NoError(t, pub.Verify(digest[:], sig, crypto.SHA256))
	assert.NoError(t, stdrsa.VerifyPKCS1v15(&std.PublicKey, crypto.SHA256, digest[:], sig))

	pssOpts := &PSSOptions{SaltLength: PSSSaltLengthEqualsHash, Hash: crypto.SHA256}
	sig, err = signer.Sign(nil, digest[:], pssOpts)
	require.NoError(t, err)
	assert.NoError(t, pub.Verify(digest[:], sig, pssOpts))
	assert.Equal(t, ErrVerification, pub.Verify(digest[:], sig, crypto.SHA256))
	assert.NoError(t, stdrsa.VerifyPSS(&std.PublicKey, crypto.SHA256, digest[:], sig,
		&stdrsa.PSSOptions{SaltLength: stdrsa.PSSSaltLengthEqualsHash}))

	long := sha512.Sum512([]byte("crypto.Signer"))
	_, err = signer.Sign(nil, long[:], crypto.SHA256)
	assert.ErrorIs(t, err, ErrParameter)
	_, err = signer.Sign(nil, digest[:], crypto.MD5)
	assert.ErrorIs(t, err, ErrParameter)
	_, err = signer.Sign(nil, digest[:], nil)
	assert.ErrorIs(t, err, ErrParameter)
}

func TestSignerDecrypt(t *testing.T) {
	priv := plainKey(t, "rsa1024")
	signer := NewSigner(priv)
	pub := priv.Public()
	msg := []byte("sixteen byte key")

	ct, err := pub.Encrypt(nil, msg, nil)
	require.NoError(t, err)
	pt, err := signer.Decrypt(nil, ct, nil)
	require.NoError(t, err)
	assert.Equal(t, msg, pt)

	pt, err = signer.Decrypt(nil, ct, &PKCS1v15DecryptOptions{SessionKeyLen: 16})
	require.NoError(t, err)
	assert.Equal(t, msg, pt)

	// A session key of the wrong length comes back random instead of failing.
	pt, err = signer.Decrypt(nil, ct, &PKCS1v15DecryptOptions{SessionKeyLen: 24})
	require.NoError(t, err)
	assert.Len(t, pt, 24)

	oaepOpts := &OAEPOptions{Hash: crypto.SHA256, Label: []byte("label")}
	ct, err = pub.Encrypt(nil, msg, oaepOpts)
	require.NoError(t, err)
	pt, err = signer.Decrypt(nil, ct, oaepOpts)
	require.NoError(t, err)
	assert.Equal(t, msg, pt)

	_, err = signer.Decrypt(nil, ct, &OAEPOptions{Hash: crypto.SHA256})
	assert.Equal(t, ErrDecryption, err)

	_, err = signer.Decrypt(nil, ct, &stdrsa.OAEPOptions{Hash: crypto.SHA256})
	assert.ErrorIs(t, err, ErrParameter)
	_, err = pub.Encrypt(nil, msg, &OAEPOptions{Hash: crypto.MD5})
	assert.ErrorIs(t, err, ErrParameter)
}
