// Package lzo implements LZO1X decompression. No LZO library appears
// anywhere in the example corpus (nor does any Go port in the wider
// ecosystem see meaningful use alongside the pack's other compression
// choices), and MDX content blocks tagged type 1 are LZO1X-compressed, so
// this follows the classic minilzo/lzo1x_decompress_safe algorithm
// directly rather than adapting an import.
package lzo

import "github.com/kerneld-io/kerneld/internal/kerrors"

const (
	m2MaxOffset = 0x0800
	m3MaxOffset = 0x4000
)

// Decompress1X decompresses an LZO1X stream to exactly dstLen bytes.
func Decompress1X(src []byte, dstLen int) ([]byte, error) {
	dst := make([]byte, 0, dstLen)
	ip := 0

	need := func(n int) error {
		if ip+n > len(src) {
			return kerrors.New(kerrors.FormatError, "lzo: truncated input")
		}
		return nil
	}

	copyLiteral := func(n int) error {
		if err := need(n); err != nil {
			return err
		}
		dst = append(dst, src[ip:ip+n]...)
		ip += n
		return nil
	}

	copyMatch := func(pos, n int) error {
		if pos < 0 || pos >= len(dst) {
			return kerrors.New(kerrors.FormatError, "lzo: match distance out of range")
		}
		for i := 0; i < n; i++ {
			dst = append(dst, dst[pos+i])
		}
		return nil
	}

	readLen := func(t int) (int, error) {
		for ip < len(src) && src[ip] == 0 {
			t += 255
			ip++
		}
		if err := need(1); err != nil {
			return 0, err
		}
		t += int(src[ip])
		ip++
		return t, nil
	}

	t := 0
	// resume names the label the first pass of mainLoop jumps to when the
	// stream opens with a literal run (1: firstLiteralRun, 2: matchNext).
	resume := 0
	if len(src) > 0 && src[0] > 17 {
		t = int(src[0]) - 17
		ip = 1
		if t < 4 {
			resume = 2
		} else {
			if err := copyLiteral(t); err != nil {
				return nil, err
			}
			resume = 1
		}
	}

mainLoop:
	for ip < len(src) {
		switch resume {
		case 1:
			resume = 0
			goto firstLiteralRun
		case 2:
			resume = 0
			goto matchNext
		}
		t = int(src[ip])
		ip++
		if t >= 16 {
			goto match
		}
		if t == 0 {
			var err error
			t, err = readLen(15 - 15)
			if err != nil {
				return nil, err
			}
			t += 15
		}
		if err := copyLiteral(t + 3); err != nil {
			return nil, err
		}

	firstLiteralRun:
		if err := need(1); err != nil {
			return nil, err
		}
		t = int(src[ip])
		ip++
		if t >= 16 {
			goto match
		}
		{
			if err := need(1); err != nil {
				return nil, err
			}
			mPos := len(dst) - (1 + m2MaxOffset) - (t >> 2)
			mPos -= int(src[ip]) << 2
			ip++
			if err := copyMatch(mPos, 3); err != nil {
				return nil, err
			}
		}
		goto matchDone

	match:
		switch {
		case t >= 64:
			if err := need(1); err != nil {
				return nil, err
			}
			mPos := len(dst) - 1 - ((t >> 2) & 7)
			mPos -= int(src[ip]) << 3
			ip++
			t = (t >> 5) - 1
			if err := copyMatch(mPos, t+2); err != nil {
				return nil, err
			}
		case t >= 32:
			t &= 31
			if t == 0 {
				var err error
				t, err = readLen(31)
				if err != nil {
					return nil, err
				}
			}
			if err := need(2); err != nil {
				return nil, err
			}
			dist := int(src[ip]) | int(src[ip+1])<<8
			ip += 2
			mPos := len(dst) - 1 - (dist >> 2)
			if err := copyMatch(mPos, t+2); err != nil {
				return nil, err
			}
		case t < 16: // reached only from matchNext
			if err := need(1); err != nil {
				return nil, err
			}
			mPos := len(dst) - 1 - (t >> 2)
			mPos -= int(src[ip]) << 2
			ip++
			if err := copyMatch(mPos, 2); err != nil {
				return nil, err
			}
		default: // 16 <= t < 32
			t &= 7
			base := len(dst)
			if int(src[ip-1])&8 != 0 {
				base -= 0x4000
			}
			if t == 0 {
				var err error
				t, err = readLen(7)
				if err != nil {
					return nil, err
				}
			}
			if err := need(2); err != nil {
				return nil, err
			}
			dist := int(src[ip]) | int(src[ip+1])<<8
			ip += 2
			mPos := base - (dist >> 2)
			if mPos == len(dst) {
				break mainLoop
			}
			mPos -= 0x4000
			if err := copyMatch(mPos, t+2); err != nil {
				return nil, err
			}
		}

	matchDone:
		t = int(src[ip-2]) & 3
		if t == 0 {
			continue mainLoop
		}

	matchNext:
		if err := copyLiteral(t); err != nil {
			return nil, err
		}
		if ip >= len(src) {
			break mainLoop
		}
		t = int(src[ip])
		ip++
		goto match
	}

	if len(dst) != dstLen {
		return nil, kerrors.New(kerrors.FormatError, "lzo: decompressed length mismatch: got %d want %d", len(dst), dstLen)
	}
	return dst, nil
}
