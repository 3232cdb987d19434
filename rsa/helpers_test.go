package rsa

import (
	stdrsa "crypto/rsa"
	"encoding/hex"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type keyFixture struct {
	N    string `yaml:"n"`
	E    string `yaml:"e"`
	D    string `yaml:"d"`
	P    string `yaml:"p"`
	Q    string `yaml:"q"`
	DP   string `yaml:"dp"`
	DQ   string `yaml:"dq"`
	QInv string `yaml:"qinv"`
}

type isoVector struct {
	Name           string `yaml:"name"`
	Key            string `yaml:"key"`
	Hash           string `yaml:"hash"`
	Message        string `yaml:"message"`
	Salt           string `yaml:"salt"`
	M1Bits         int    `yaml:"m1_bits"`
	Explicit       bool   `yaml:"explicit"`
	Minimum        bool   `yaml:"minimum"`
	Signature      string `yaml:"signature"`
	M2             string `yaml:"m2"`
	Representative string `yaml:"representative"`
}

type vectorFile struct {
	Keys map[string]keyFixture `yaml:"keys"`
	DS1  []isoVector           `yaml:"ds1"`
	DS2  []isoVector           `yaml:"ds2"`
}

// Key sizes present in testdata/vectors.yaml.
var fixtureKeys = []string{"rsa512", "rsa517", "rsa1024", "rsa1025", "rsa1031", "rsa2048"}

func loadVectors(t *testing.T) *vectorFile {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "vectors.yaml"))
	require.NoError(t, err)
	var vf vectorFile
	require.NoError(t, yaml.Unmarshal(data, &vf))
	return &vf
}

func hexInt(t *testing.T, s string) *big.Int {
	t.Helper()
	x, ok := new(big.Int).SetString(s, 16)
	require.True(t, ok, "bad hex integer %q", s)
	return x
}

func unhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func fixture(t *testing.T, name string) keyFixture {
	t.Helper()
	kf, ok := loadVectors(t).Keys[name]
	require.True(t, ok, "no key %s", name)
	return kf
}

func crtKey(t *testing.T, name string) *CRTPrivateKey {
	t.Helper()
	kf := fixture(t, name)
	priv, err := NewCRTPrivateKey(hexInt(t, kf.E), hexInt(t, kf.P), hexInt(t, kf.Q),
		hexInt(t, kf.DP), hexInt(t, kf.DQ), hexInt(t, kf.QInv))
	require.NoError(t, err)
	require.Equal(t, 0, priv.Public().N().Cmp(hexInt(t, kf.N)))
	return priv
}

func plainKey(t *testing.T, name string) *PlainPrivateKey {
	t.Helper()
	kf := fixture(t, name)
	priv, err := NewPrivateKey(hexInt(t, kf.N), hexInt(t, kf.E), hexInt(t, kf.D))
	require.NoError(t, err)
	return priv
}

// stdKey returns the fixture as a crypto/rsa key for interoperability checks.
func stdKey(t *testing.T, name string) *stdrsa.PrivateKey {
	t.Helper()
	kf := fixture(t, name)
	priv := &stdrsa.PrivateKey{
		PublicKey: stdrsa.PublicKey{N: hexInt(t, kf.N), E: int(hexInt(t, kf.E).Int64())},
		D:         hexInt(t, kf.D),
		Primes:    []*big.Int{hexInt(t, kf.P), hexInt(t, kf.Q)},
	}
	priv.Precompute()
	require.NoError(t, priv.Validate())
	return priv
}

// smallKeys is the textbook key n = 55 = 5·11, e = 7, d = 23.
func smallKeys(t *testing.T) (*PlainPrivateKey, *CRTPrivateKey) {
	t.Helper()
	plain, err := NewPrivateKey(big.NewInt(55), big.NewInt(7), big.NewInt(23))
	require.NoError(t, err)
	crt, err := NewCRTPrivateKey(big.NewInt(7), big.NewInt(5), big.NewInt(11),
		big.NewInt(3), big.NewInt(3), big.NewInt(1))
	require.NoError(t, err)
	return plain, crt
}
