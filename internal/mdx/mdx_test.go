package mdx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encryptKeyBlockInfo is decryptKeyBlockInfo's inverse, used only to build
// test fixtures. The cipher's chaining value is the previous ciphertext
// byte, not the plaintext byte, so encryption is computable in the same
// left-to-right pass as decryption.
func encryptKeyBlockInfo(plain []byte, key [16]byte) []byte {
	out := make([]byte, len(plain))
	previous := byte(0x36)
	for i, p := range plain {
		x := p ^ previous ^ byte(i) ^ key[i%len(key)]
		c := x>>4 | x<<4
		out[i] = c
		previous = c
	}
	return out
}

func beU64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func beU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func leU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func zlibCompress(t *testing.T, p []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(p)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// writeKeyword encodes one keyword the way readKeyword expects to decode
// it for version and encoding.
func writeKeyword(version int, encoding, keyword string) []byte {
	var out []byte
	n := len([]rune(keyword))
	if version >= 2 {
		out = append(out, 0, 0)
		binary.BigEndian.PutUint16(out[len(out)-2:], uint16(n))
	} else {
		out = append(out, byte(n))
	}
	if encoding == "UTF-16" {
		for _, r := range keyword {
			b := make([]byte, 2)
			binary.LittleEndian.PutUint16(b, uint16(r))
			out = append(out, b...)
		}
	} else {
		out = append(out, []byte(keyword)...)
	}
	if version >= 2 {
		width := 1
		if encoding == "UTF-16" {
			width = 2
		}
		out = append(out, make([]byte, width)...)
	}
	return out
}

// buildArchive assembles a minimal, single-key, single-record MDX archive
// for version 2 with zlib-compressed content blocks, encoding either UTF-8
// or UTF-16.
func buildArchive(t *testing.T, encoding, keyword, recordText string) []byte {
	t.Helper()
	version := 2

	attrText := fmt.Sprintf(`<Dictionary RequiredEngineVersion="2.0" Encrypted="0" Encoding="%s" />`, encoding)
	var archive []byte
	archive = append(archive, beU32(uint32(len(attrText)))...)
	archive = append(archive, []byte(attrText)...)
	archive = append(archive, 0, 0, 0, 0) // header checksum, unverified

	width := 1
	if encoding == "UTF-16" {
		width = 2
	}

	// --- key block ---
	var keyPlain []byte
	keyPlain = append(keyPlain, beU64(0)...)
	if encoding == "UTF-16" {
		for _, r := range keyword {
			b := make([]byte, 2)
			binary.LittleEndian.PutUint16(b, uint16(r))
			keyPlain = append(keyPlain, b...)
		}
	} else {
		keyPlain = append(keyPlain, []byte(keyword)...)
	}
	keyPlain = append(keyPlain, make([]byte, width)...) // NUL terminator

	keyCompressed := zlibCompress(t, keyPlain)
	var keyFrame []byte
	keyFrame = append(keyFrame, leU32(2)...)
	keyFrame = append(keyFrame, leU32(0)...)
	keyFrame = append(keyFrame, keyCompressed...)

	var infoPlain []byte
	infoPlain = append(infoPlain, beU64(1)...) // n_entries
	infoPlain = append(infoPlain, writeKeyword(version, encoding, keyword)...)
	infoPlain = append(infoPlain, writeKeyword(version, encoding, keyword)...)
	infoPlain = append(infoPlain, beU64(uint64(len(keyFrame)))...)
	infoPlain = append(infoPlain, beU64(uint64(len(keyPlain)))...)

	infoCompressed := zlibCompress(t, infoPlain)
	checksum := [4]byte{0x11, 0x22, 0x33, 0x44}
	key := keyBlockInfoKey(checksum)
	infoCiphered := encryptKeyBlockInfo(infoCompressed, key)

	var infoSection []byte
	infoSection = append(infoSection, leU32(2)...)
	infoSection = append(infoSection, checksum[:]...)
	infoSection = append(infoSection, infoCiphered...)

	archive = append(archive, beU64(1)...)                          // n_blocks
	archive = append(archive, beU64(1)...)                          // n_entries
	archive = append(archive, beU64(uint64(len(infoPlain)))...)     // decompressed info size
	archive = append(archive, beU64(uint64(len(infoSection)))...)   // info section size
	archive = append(archive, beU64(uint64(len(keyFrame)))...)      // key blocks size
	archive = append(archive, 0, 0, 0, 0)                           // key block header checksum
	archive = append(archive, infoSection...)
	archive = append(archive, keyFrame...)

	// --- record block ---
	var recordPlain []byte
	if encoding == "UTF-16" {
		for _, r := range recordText {
			b := make([]byte, 2)
			binary.LittleEndian.PutUint16(b, uint16(r))
			recordPlain = append(recordPlain, b...)
		}
	} else {
		recordPlain = append(recordPlain, []byte(recordText)...)
	}
	recordPlain = append(recordPlain, make([]byte, width)...) // NUL terminator
	recordCompressed := zlibCompress(t, recordPlain)
	var recordFrame []byte
	recordFrame = append(recordFrame, leU32(2)...)
	recordFrame = append(recordFrame, leU32(0)...)
	recordFrame = append(recordFrame, recordCompressed...)

	archive = append(archive, beU64(1)...) // n_blocks
	archive = append(archive, beU64(1)...) // n_entries
	archive = append(archive, beU64(16)...) // info section size: one (compressed,decompressed) pair
	archive = append(archive, beU64(uint64(len(recordFrame)))...)
	archive = append(archive, beU64(uint64(len(recordFrame)))...)
	archive = append(archive, beU64(uint64(len(recordPlain)))...)
	archive = append(archive, recordFrame...)

	return archive
}

func TestOpenAndSearchUTF8ZlibArchive(t *testing.T) {
	archive := buildArchive(t, "UTF-8", "hello", "world")

	d, err := Open(archive)
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", d.Meta().Encoding)
	assert.Equal(t, 2, d.Meta().VersionMajor)

	results, err := d.Search("hell")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hello", results[0].Keyword)
	assert.Equal(t, "world", results[0].Text)
}

func TestOpenAndSearchUTF16Archive(t *testing.T) {
	archive := buildArchive(t, "UTF-16", "hello", "world")

	d, err := Open(archive)
	require.NoError(t, err)

	results, err := d.Search("ello")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hello", results[0].Keyword)
	assert.Equal(t, "world", results[0].Text)
}

func TestSearchNoMatchReturnsEmpty(t *testing.T) {
	archive := buildArchive(t, "UTF-8", "hello", "world")
	d, err := Open(archive)
	require.NoError(t, err)

	results, err := d.Search("goodbye")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLookupByRecordOffsetDirectly(t *testing.T) {
	archive := buildArchive(t, "UTF-8", "hello", "world")
	d, err := Open(archive)
	require.NoError(t, err)

	text, err := d.Lookup(0)
	require.NoError(t, err)
	assert.Equal(t, "world", text)
}

func TestLookupOutOfRangeIsNotFound(t *testing.T) {
	archive := buildArchive(t, "UTF-8", "hello", "world")
	d, err := Open(archive)
	require.NoError(t, err)

	_, err = d.Lookup(9999)
	assert.Error(t, err)
}

func TestKeyBlockInfoCipherRoundTrips(t *testing.T) {
	plain := []byte("a sample key block info payload of arbitrary length")
	checksum := [4]byte{0xde, 0xad, 0xbe, 0xef}
	key := keyBlockInfoKey(checksum)

	ciphered := encryptKeyBlockInfo(plain, key)
	recovered := decryptKeyBlockInfo(ciphered, key)
	assert.Equal(t, plain, recovered)
}

func TestParseDictMetaDefaultsAndOverrides(t *testing.T) {
	meta, err := parseDictMeta(`<Dictionary RequiredEngineVersion="1.2" Encrypted="Yes" Encoding="UTF-16" />`)
	require.NoError(t, err)
	assert.Equal(t, "UTF-16", meta.Encoding)
	assert.True(t, meta.Encrypted)
	assert.Equal(t, 1, meta.VersionMajor)

	fallback, err := parseDictMeta(`<Dictionary />`)
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", fallback.Encoding)
	assert.False(t, fallback.Encrypted)
	assert.Equal(t, 2, fallback.VersionMajor)
}

func TestParseDictMetaRejectsUnknownEncoding(t *testing.T) {
	_, err := parseDictMeta(`<Dictionary Encoding="Shift-JIS" />`)
	assert.Error(t, err)
}
