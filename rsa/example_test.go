package rsa_test

import (
	"fmt"
	"math/big"

	"github.com/gematik/lib-smartcards-sub003/hashalg"
	"github.com/gematik/lib-smartcards-sub003/rsa"
)

func ExampleRSAEP() {
	priv, err := rsa.NewPrivateKey(big.NewInt(55), big.NewInt(7), big.NewInt(23))
	if err != nil {
		panic(err)
	}
	c, err := rsa.RSAEP(priv.Public(), big.NewInt(2))
	if err != nil {
		panic(err)
	}
	m, err := rsa.RSADP(priv, c)
	if err != nil {
		panic(err)
	}
	fmt.Println(c, m)
	// Output: 18 2
}

func ExampleEncodePKCS1v15() {
	em, err := rsa.EncodePKCS1v15(hashalg.SHA256, []byte("Mac Mustermann"), 62)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%x\n", em[:11])
	// Output: 0001ffffffffffffffff00
}
