// Package mdx decodes MDX/MDict compressed dictionary archives: the
// variable-length header, the ciphered and compressed key-block-info
// section, the key blocks, and the lazily-decompressed record blocks, ending
// in keyword search and direct record lookup.
package mdx

import (
	"encoding/binary"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// DictMeta is the parsed dictionary header. Encoding and VersionMajor drive
// every downstream length type and string decode in the rest of the file.
type DictMeta struct {
	Encoding     string
	Encrypted    bool
	VersionMajor int
}

var attrPattern = regexp.MustCompile(`(\w+)="([^"]*)"`)

// reader is a cursor over an in-memory archive. MDX decoding is synchronous
// and CPU-bound (per the async-synchronous seam design note), so there is
// no value in streaming it through io.Reader; everything here operates on a
// byte slice with an explicit offset.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader { return &reader{data: data} }

func (r *reader) remaining() int { return len(r.data) - r.pos }

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, kerrors.New(kerrors.FormatError, "mdx: truncated input at offset %d, need %d bytes", r.pos, n)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *reader) u8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// count reads a u32 for version 1 archives and a u64 for version 2:
// version 2 uses big-endian u64 counts throughout, version 1 uses
// big-endian u32.
func (r *reader) count(version int) (uint64, error) {
	if version >= 2 {
		return r.u64()
	}
	n, err := r.u32()
	return uint64(n), err
}

// readHeader parses the length-prefixed, NUL-terminated dictionary header
// and the checksum that follows it, returning the parsed DictMeta.
func readHeader(r *reader) (DictMeta, error) {
	n, err := r.u32()
	if err != nil {
		return DictMeta{}, kerrors.Wrap(err, "reading header length")
	}
	body, err := r.take(int(n))
	if err != nil {
		return DictMeta{}, kerrors.Wrap(err, "reading header body")
	}
	if _, err := r.take(4); err != nil { // trailing header checksum, unverified
		return DictMeta{}, kerrors.Wrap(err, "reading header checksum")
	}

	if idx := indexByte(body, 0); idx >= 0 {
		body = body[:idx]
	}
	return parseDictMeta(string(body))
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func parseDictMeta(attrText string) (DictMeta, error) {
	attrs := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatch(attrText, -1) {
		attrs[m[1]] = m[2]
	}

	meta := DictMeta{Encoding: "UTF-8", VersionMajor: 2}
	if enc, ok := attrs["Encoding"]; ok && enc != "" {
		meta.Encoding = enc
	}
	if meta.Encoding != "UTF-8" && meta.Encoding != "UTF-16" {
		return DictMeta{}, kerrors.New(kerrors.Parse, "mdx: unsupported encoding %q", meta.Encoding)
	}

	if enc, ok := attrs["Encrypted"]; ok {
		meta.Encrypted = enc == "1" || strings.EqualFold(enc, "yes") || strings.EqualFold(enc, "true")
	}

	if ver, ok := attrs["RequiredEngineVersion"]; ok {
		meta.VersionMajor = majorOf(ver)
	} else if ver, ok := attrs["GeneratedByEngineVersion"]; ok {
		meta.VersionMajor = majorOf(ver)
	}
	if meta.VersionMajor != 1 && meta.VersionMajor != 2 {
		return DictMeta{}, kerrors.New(kerrors.Parse, "mdx: unknown version major %d", meta.VersionMajor)
	}
	return meta, nil
}

func majorOf(version string) int {
	dot := strings.IndexByte(version, '.')
	if dot < 0 {
		n, err := strconv.Atoi(version)
		if err != nil {
			return 2
		}
		return n
	}
	n, err := strconv.Atoi(version[:dot])
	if err != nil {
		return 2
	}
	return n
}

// decodeUTF16LE decodes little-endian UTF-16 bytes into a string.
func decodeUTF16LE(b []byte) string {
	u := make([]uint16, len(b)/2)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(u))
}
