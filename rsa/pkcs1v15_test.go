package rsa

import (
	"bytes"
	"crypto"
	"crypto/rand"
	stdrsa "crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/gematik/lib-smartcards-sub003/hashalg"
	"github.com/gematik/lib-smartcards-sub003/internal/octets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePKCS1v15(t *testing.T) {
	msg := []byte("Mac Mustermann")
	digestInfo := "3031300d060960864801650304020105000420" +
		"84f2ebc34624acaad2080ec20f52e5ee3b6f97660fc99a9b61981d0f04db71bd"

	em, err := EncodePKCS1v15(hashalg.SHA256, msg, 62)
	require.NoError(t, err)
	assert.Equal(t, "0001ffffffffffffffff00"+digestInfo, hex.EncodeToString(em))

	em, err = EncodePKCS1v15(hashalg.SHA256, msg, 64)
	require.NoError(t, err)
	assert.Equal(t, "0001ffffffffffffffffffff00"+digestInfo, hex.EncodeToString(em))

	_, err = EncodePKCS1v15(hashalg.SHA256, msg, 61)
	assert.ErrorIs(t, err, ErrCapacity)
}

func TestPKCS1v15EncryptRoundTrip(t *testing.T) {
	for _, name := range []string{"rsa512", "rsa517", "rsa1031"} {
		t.Run(name, func(t *testing.T) {
			priv := crtKey(t, name)
			pub := priv.Public()
			for _, size := range []int{0, 1, 16, pub.Size() - 11} {
				msg := bytes.Repeat([]byte{0x5a}, size)
				ct, err := EncryptPKCS1v15(nil, pub, msg)
				require.NoError(t, err)
				require.Len(t, ct, pub.Size())

				pt, err := DecryptPKCS1v15(priv, ct)
				require.NoError(t, err)
				assert.Equal(t, msg, pt)
			}

			_, err := EncryptPKCS1v15(nil, pub, make([]byte, pub.Size()-10))
			assert.ErrorIs(t, err, ErrMessageTooLong)
		})
	}
}

// encryptRawEM applies RSAEP to a hand-made encoded message.
func encryptRawEM(t *testing.T, pub *PublicKey, em []byte) []byte {
	t.Helper()
	c, err := RSAEP(pub, octets.OS2IP(em))
	require.NoError(t, err)
	ct, err := octets.I2OSP(c, pub.Size())
	require.NoError(t, err)
	return ct
}

func TestPKCS1v15DecryptRejectsBadPadding(t *testing.T) {
	priv := crtKey(t, "rsa1024")
	pub := priv.Public()
	k := pub.Size()

	valid := func() []byte {
		em := make([]byte, k)
		em[1] = 2
		for i := 2; i < k-17; i++ {
			em[i] = 0x42
		}
		copy(em[k-16:], "sixteen byte key")
		return em
	}
	pt, err := DecryptPKCS1v15(priv, encryptRawEM(t, pub, valid()))
	require.NoError(t, err)
	assert.Equal(t, []byte("sixteen byte key"), pt)

	tests := []struct {
		name    string
		corrupt func(em []byte)
	}{
		{"leading octet", func(em []byte) { em[0] = 1 }},
		{"block type", func(em []byte) { em[1] = 1 }},
		{"no separator", func(em []byte) { em[k-17] = 0x42 }},
		{"short padding string", func(em []byte) { em[9] = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			em := valid()
			tc.corrupt(em)
			_, err := DecryptPKCS1v15(priv, encryptRawEM(t, pub, em))
			assert.Equal(t, ErrDecryption, err)
		})
	}

	_, err = DecryptPKCS1v15(priv, make([]byte, k-1))
	assert.Equal(t, ErrDecryption, err)
}

func TestDecryptPKCS1v15SessionKey(t *testing.T) {
	priv := crtKey(t, "rsa1024")
	sessionKey := []byte("0123456789abcdef")
	ct, err := EncryptPKCS1v15(nil, priv.Public(), sessionKey)
	require.NoError(t, err)

	key := make([]byte, 16)
	require.NoError(t, DecryptPKCS1v15SessionKey(priv, ct, key))
	assert.Equal(t, sessionKey, key)

	// A wrong key length leaves the buffer untouched.
	key = bytes.Repeat([]byte{0xee}, 24)
	require.NoError(t, DecryptPKCS1v15SessionKey(priv, ct, key))
	assert.Equal(t, bytes.Repeat([]byte{0xee}, 24), key)

	assert.Equal(t, ErrDecryption, DecryptPKCS1v15SessionKey(priv, ct, make([]byte, 120)))
}

func TestPKCS1v15SignVerify(t *testing.T) {
	msg := []byte("Mac Mustermann")
	for _, name := range []string{"rsa1024", "rsa1025", "rsa2048"} {
		for _, h := range []*hashalg.Hash{hashalg.SHA1, hashalg.SHA256, hashalg.SHA512, hashalg.RIPEMD160} {
			t.Run(name+"/"+h.String(), func(t *testing.T) {
				priv := crtKey(t, name)
				sig, err := SignPKCS1v15(priv, h, msg)
				require.NoError(t, err)
				require.Len(t, sig, priv.Public().Size())

				plainSig, err := SignPKCS1v15(plainKey(t, name), h, msg)
				require.NoError(t, err)
				assert.Equal(t, sig, plainSig)

				assert.NoError(t, VerifyPKCS1v15(priv.Public(), h, msg, sig))
				assert.Equal(t, ErrVerification, VerifyPKCS1v15(priv.Public(), h, []byte("Erika Mustermann"), sig))

				sig[len(sig)-1] ^= 0x01
				assert.Equal(t, ErrVerification, VerifyPKCS1v15(priv.Public(), h, msg, sig))
			})
		}
	}
}

func TestPKCS1v15SignTooShortModulus(t *testing.T) {
	// SHA-512 DigestInfo is 83 octets, more than a 512-bit modulus holds.
	_, err := SignPKCS1v15(crtKey(t, "rsa512"), hashalg.SHA512, []byte("x"))
	assert.ErrorIs(t, err, ErrCapacity)
}

func TestPKCS1v15Interop(t *testing.T) {
	for _, name := range []string{"rsa1024", "rsa2048"} {
		t.Run(name, func(t *testing.T) {
			std := stdKey(t, name)
			priv := crtKey(t, name)
			msg := []byte("interoperability")
			digest := sha256.Sum256(msg)

			sig, err := SignPKCS1v15(priv, hashalg.SHA256, msg)
			require.NoError(t, err)
			require.NoError(t, stdrsa.VerifyPKCS1v15(&std.PublicKey, crypto.SHA256, digest[:], sig))

			stdSig, err := stdrsa.SignPKCS1v15(rand.Reader, std, crypto.SHA256, digest[:])
			require.NoError(t, err)
			assert.Equal(t, stdSig, sig)

			ct, err := stdrsa.EncryptPKCS1v15(rand.Reader, &std.PublicKey, msg)
			require.NoError(t, err)
			pt, err := DecryptPKCS1v15(priv, ct)
			require.NoError(t, err)
			assert.Equal(t, msg, pt)

			ct, err = EncryptPKCS1v15(nil, priv.Public(), msg)
			require.NoError(t, err)
			pt, err = stdrsa.DecryptPKCS1v15(rand.Reader, std, ct)
			require.NoError(t, err)
			assert.Equal(t, msg, pt)
		})
	}
}
