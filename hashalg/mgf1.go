package hashalg

import "hash"

// incCounter increments a four byte, big-endian counter.
func incCounter(c *[4]byte) {
	if c[3]++; c[3] != 0 {
		return
	}
	if c[2]++; c[2] != 0 {
		return
	}
	if c[1]++; c[1] != 0 {
		return
	}
	c[0]++
}

// MGF1XOR XORs the bytes in out with a mask generated using the MGF1 function
// specified in PKCS #1 v2.1. d is reset before use.
func MGF1XOR(out []byte, d hash.Hash, seed []byte) {
	var counter [4]byte
	var digest []byte

	d.Reset()
	done := 0
	for done < len(out) {
		d.Write(seed)
		d.Write(counter[0:4])
		digest = d.Sum(digest[:0])
		d.Reset()

		for i := 0; i < len(digest) && done < len(out); i++ {
			out[done] ^= digest[i]
			done++
		}
		incCounter(&counter)
	}
}

// MGF1 returns a mask of length octets derived from seed.
func (h *Hash) MGF1(seed []byte, length int) []byte {
	mask := make([]byte, length)
	MGF1XOR(mask, h.New(), seed)
	return mask
}
