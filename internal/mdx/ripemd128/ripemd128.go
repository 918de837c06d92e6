// Package ripemd128 implements the RIPEMD-128 hash algorithm, in the shape
// of golang.org/x/crypto/ripemd160's API. x/crypto ships RIPEMD-160 but not
// RIPEMD-128, and MDX/MDict's version-2 key-block-info cipher derives its
// key with RIPEMD-128 specifically, so this is hand-written rather than
// adapted from an import.
package ripemd128

import "hash"

// Size is the size, in bytes, of a RIPEMD-128 checksum.
const Size = 16

// BlockSize is the block size, in bytes, of the RIPEMD-128 hash function.
const BlockSize = 64

const (
	h0 = 0x67452301
	h1 = 0xefcdab89
	h2 = 0x98badcfe
	h3 = 0x10325476
)

type digest struct {
	s   [4]uint32
	x   [BlockSize]byte
	nx  int
	len uint64
}

// New returns a new hash.Hash computing the RIPEMD-128 checksum.
func New() hash.Hash {
	d := new(digest)
	d.Reset()
	return d
}

func (d *digest) Reset() {
	d.s[0], d.s[1], d.s[2], d.s[3] = h0, h1, h2, h3
	d.nx = 0
	d.len = 0
}

func (d *digest) Size() int { return Size }

func (d *digest) BlockSize() int { return BlockSize }

func (d *digest) Write(p []byte) (nn int, err error) {
	nn = len(p)
	d.len += uint64(nn)
	if d.nx > 0 {
		n := copy(d.x[d.nx:], p)
		d.nx += n
		if d.nx == BlockSize {
			block(d, d.x[:])
			d.nx = 0
		}
		p = p[n:]
	}
	for len(p) >= BlockSize {
		block(d, p[:BlockSize])
		p = p[BlockSize:]
	}
	if len(p) > 0 {
		d.nx = copy(d.x[:], p)
	}
	return
}

func (d0 *digest) Sum(in []byte) []byte {
	d := *d0
	len := d.len
	var tmp [64]byte
	tmp[0] = 0x80
	if len%64 < 56 {
		d.Write(tmp[0 : 56-len%64])
	} else {
		d.Write(tmp[0 : 64+56-len%64])
	}
	len <<= 3
	for i := uint(0); i < 8; i++ {
		tmp[i] = byte(len >> (8 * i))
	}
	d.Write(tmp[0:8])
	if d.nx != 0 {
		panic("d.nx != 0")
	}

	var digest [Size]byte
	for i, s := range d.s {
		digest[i*4] = byte(s)
		digest[i*4+1] = byte(s >> 8)
		digest[i*4+2] = byte(s >> 16)
		digest[i*4+3] = byte(s >> 24)
	}
	return append(in, digest[:]...)
}

// Sum128 returns the RIPEMD-128 checksum of data.
func Sum128(data []byte) [Size]byte {
	d := new(digest)
	d.Reset()
	d.Write(data)
	var out [Size]byte
	copy(out[:], d.Sum(nil))
	return out
}

func rol(x uint32, s uint) uint32 { return x<<s | x>>(32-s) }

// f applies the round-appropriate boolean function for the left line; the
// right line uses the same functions in reverse round order (see block).
func f(round int, x, y, z uint32) uint32 {
	switch round {
	case 0:
		return x ^ y ^ z
	case 1:
		return (x & y) | (^x & z)
	case 2:
		return (x | ^y) ^ z
	default:
		return (x & z) | (y &^ z)
	}
}

var kLeft = [4]uint32{0x00000000, 0x5a827999, 0x6ed9eba1, 0x8f1bbcdc}
var kRight = [4]uint32{0x50a28be6, 0x5c4dd124, 0x6d703ef3, 0x00000000}

var rLeft = [64]int{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
	7, 4, 13, 1, 10, 6, 15, 3, 12, 0, 9, 5, 2, 14, 11, 8,
	3, 10, 14, 4, 9, 15, 8, 1, 2, 7, 0, 6, 13, 11, 5, 12,
	1, 9, 11, 10, 0, 8, 12, 4, 13, 3, 7, 15, 14, 5, 6, 2,
}

var rRight = [64]int{
	5, 14, 7, 0, 9, 2, 11, 4, 13, 6, 15, 8, 1, 10, 3, 12,
	6, 11, 3, 7, 0, 13, 5, 10, 14, 15, 8, 12, 4, 9, 1, 2,
	15, 5, 1, 3, 7, 14, 6, 9, 11, 8, 12, 2, 10, 0, 4, 13,
	8, 6, 4, 1, 3, 11, 15, 0, 5, 12, 2, 13, 9, 7, 10, 14,
}

var sLeft = [64]uint{
	11, 14, 15, 12, 5, 8, 7, 9, 11, 13, 14, 15, 6, 7, 9, 8,
	7, 6, 8, 13, 11, 9, 7, 15, 7, 12, 15, 9, 11, 7, 13, 12,
	11, 13, 6, 7, 14, 9, 13, 15, 14, 8, 13, 6, 5, 12, 7, 5,
	11, 12, 14, 15, 14, 15, 9, 8, 9, 14, 5, 6, 8, 6, 5, 12,
}

var sRight = [64]uint{
	8, 9, 9, 11, 13, 15, 15, 5, 7, 7, 8, 11, 14, 14, 12, 6,
	9, 13, 15, 7, 12, 8, 9, 11, 7, 7, 12, 7, 6, 15, 13, 11,
	9, 7, 15, 11, 8, 6, 6, 14, 12, 13, 5, 14, 13, 13, 7, 5,
	15, 5, 8, 11, 14, 14, 6, 14, 6, 9, 12, 9, 12, 5, 15, 8,
}

// line runs one 64-step line (left or right) starting from the chaining
// values in start, returning its final four registers. The physical
// register that plays role "a" at step i cycles through v[0],v[3],v[2],v[1]
// every four steps — the same permutation the reference implementation
// expresses by unrolling FF(aa,bb,cc,dd,..), FF(dd,aa,bb,cc,..),
// FF(cc,dd,aa,bb,..), FF(bb,cc,dd,aa,..) for each block of four steps.
func line(start [4]uint32, x [16]uint32, k [4]uint32, idx [64]int, shift [64]uint, rightLine bool) [4]uint32 {
	v := start
	for i := 0; i < 64; i++ {
		round := i / 16
		rot := i % 4
		idxA := (4 - rot) % 4
		idxB := (idxA + 1) % 4
		idxC := (idxA + 2) % 4
		idxD := (idxA + 3) % 4

		fRound := round
		if rightLine {
			fRound = 3 - round
		}

		val := v[idxA] + f(fRound, v[idxB], v[idxC], v[idxD]) + x[idx[i]] + k[round]
		v[idxA] = rol(val, shift[i])
	}
	return v
}

func block(d *digest, p []byte) {
	var x [16]uint32
	for i := 0; i < 16; i++ {
		x[i] = uint32(p[i*4]) | uint32(p[i*4+1])<<8 | uint32(p[i*4+2])<<16 | uint32(p[i*4+3])<<24
	}

	start := d.s
	left := line(start, x, kLeft, rLeft, sLeft, false)
	right := line(start, x, kRight, rRight, sRight, true)

	aa, bb, cc, dd := left[0], left[1], left[2], left[3]
	aaa, bbb, ccc, ddd := right[0], right[1], right[2], right[3]

	t := d.s[1] + cc + ddd
	d.s[1] = d.s[2] + dd + aaa
	d.s[2] = d.s[3] + aa + bbb
	d.s[3] = d.s[0] + bb + ccc
	d.s[0] = t
}
