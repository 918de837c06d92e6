package mdx

import (
	"encoding/binary"

	"github.com/kerneld-io/kerneld/internal/mdx/ripemd128"
)

// keyBlockInfoKey derives the RIPEMD-128 key used to decrypt a version-2
// key-block-info section from that section's frame checksum: the seed is
// the checksum's four raw bytes followed by the little-endian u32
// constant 0x3695.
func keyBlockInfoKey(checksum [4]byte) [16]byte {
	seed := make([]byte, 8)
	copy(seed, checksum[:])
	binary.LittleEndian.PutUint32(seed[4:], 0x3695)
	return ripemd128.Sum128(seed)
}

// decryptKeyBlockInfo reverses the nibble-swap-then-XOR cipher over data
// using key, chaining each output byte from the previous ciphertext byte.
func decryptKeyBlockInfo(data []byte, key [16]byte) []byte {
	out := make([]byte, len(data))
	previous := byte(0x36)
	for i, c := range data {
		swapped := c>>4 | c<<4
		out[i] = swapped ^ previous ^ byte(i) ^ key[i%len(key)]
		previous = c
	}
	return out
}
