package mdx

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// keyBlockHeader is the fixed-width preamble to the key-block section.
// NBDecompressed is only present in version 2 archives and is left zero for
// version 1; version 2 headers also end in a checksum, which
// readKeyBlockHeader reads and discards.
type keyBlockHeader struct {
	NBlocks        uint64
	NEntries       uint64
	NBDecompressed uint64
	NBBlockInfo    uint64
	NBBlocks       uint64
}

func readKeyBlockHeader(r *reader, version int) (keyBlockHeader, error) {
	var h keyBlockHeader
	var err error
	if h.NBlocks, err = r.count(version); err != nil {
		return h, kerrors.Wrap(err, "reading key block count")
	}
	if h.NEntries, err = r.count(version); err != nil {
		return h, kerrors.Wrap(err, "reading key entry count")
	}
	if version >= 2 {
		if h.NBDecompressed, err = r.count(version); err != nil {
			return h, kerrors.Wrap(err, "reading key block info decompressed size")
		}
	}
	if h.NBBlockInfo, err = r.count(version); err != nil {
		return h, kerrors.Wrap(err, "reading key block info size")
	}
	if h.NBBlocks, err = r.count(version); err != nil {
		return h, kerrors.Wrap(err, "reading key blocks size")
	}
	if version >= 2 {
		if _, err := r.take(4); err != nil { // header checksum, unverified
			return h, kerrors.Wrap(err, "reading key block header checksum")
		}
	}
	return h, nil
}

// keyBlockInfo describes one compressed key block: how many entries it
// holds, its first and last keywords (used for binary search over blocks by
// readers that index the whole archive, not exercised by this package's own
// linear Search), and its compressed/decompressed sizes.
type keyBlockInfo struct {
	NEntries       uint64
	HeadKeyword    string
	TailKeyword    string
	NBCompressed   uint64
	NBDecompressed uint64
}

// readKeyword reads one length-prefixed keyword string: version 2 uses a
// u16 character count plus a one-character NUL sentinel; version 1 uses an
// exact u8 character count with no sentinel. Character width follows the
// archive's encoding: two bytes per character for UTF-16, one for UTF-8.
func readKeyword(r *reader, version int, encoding string) (string, error) {
	var chars int
	if version >= 2 {
		n, err := r.u16()
		if err != nil {
			return "", kerrors.Wrap(err, "reading keyword length")
		}
		chars = int(n)
	} else {
		n, err := r.u8()
		if err != nil {
			return "", kerrors.Wrap(err, "reading keyword length")
		}
		chars = int(n)
	}

	width := 1
	if encoding == "UTF-16" {
		width = 2
	}
	b, err := r.take(chars * width)
	if err != nil {
		return "", kerrors.Wrap(err, "reading keyword text")
	}
	if version >= 2 {
		if _, err := r.take(width); err != nil { // NUL sentinel
			return "", kerrors.Wrap(err, "reading keyword sentinel")
		}
	}
	if encoding == "UTF-16" {
		return decodeUTF16LE(b), nil
	}
	return string(b), nil
}

func readKeyBlockInfoEntry(r *reader, version int, encoding string) (keyBlockInfo, error) {
	var info keyBlockInfo
	var err error
	if info.NEntries, err = r.count(version); err != nil {
		return info, kerrors.Wrap(err, "reading key block info entry count")
	}
	if info.HeadKeyword, err = readKeyword(r, version, encoding); err != nil {
		return info, err
	}
	if info.TailKeyword, err = readKeyword(r, version, encoding); err != nil {
		return info, err
	}
	if info.NBCompressed, err = r.count(version); err != nil {
		return info, kerrors.Wrap(err, "reading key block compressed size")
	}
	if info.NBDecompressed, err = r.count(version); err != nil {
		return info, kerrors.Wrap(err, "reading key block decompressed size")
	}
	return info, nil
}

// readKeyBlockInfoSection reads all nBlocks KeyBlockInfo entries. Version 1
// archives store them unframed, in place. Version 2 archives wrap the whole
// section in a content-block-style frame whose payload is ciphered before
// it is zlib-inflated; the frame's checksum field doubles as part of the
// cipher's key-derivation seed.
func readKeyBlockInfoSection(r *reader, version int, encoding string, nBlocks uint64, sectionLen uint64) ([]keyBlockInfo, error) {
	raw, err := r.take(int(sectionLen))
	if err != nil {
		return nil, kerrors.Wrap(err, "reading key block info section")
	}

	var plain []byte
	if version >= 2 {
		checksum, err := frameChecksum(raw)
		if err != nil {
			return nil, err
		}
		key := keyBlockInfoKey(checksum)
		ciphered := raw[8:]
		deciphered := decryptKeyBlockInfo(ciphered, key)
		zr, err := zlib.NewReader(bytes.NewReader(deciphered))
		if err != nil {
			return nil, kerrors.Wrap(err, "mdx: opening key block info zlib stream")
		}
		defer zr.Close()
		plain, err = io.ReadAll(zr)
		if err != nil {
			return nil, kerrors.Wrap(err, "mdx: inflating key block info section")
		}
	} else {
		plain = raw
	}

	sub := newReader(plain)
	infos := make([]keyBlockInfo, 0, nBlocks)
	for i := uint64(0); i < nBlocks; i++ {
		info, err := readKeyBlockInfoEntry(sub, version, encoding)
		if err != nil {
			return nil, kerrors.Wrap(err, "reading key block info entry %d", i)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// keyIndexEntry is one (record_offset, keyword) pair recovered from a
// decompressed key block.
type keyIndexEntry struct {
	RecordOffset uint64
	Keyword      string
}

// readKeyBlockEntries parses one decompressed key block's entries. Each
// entry is a record offset (u64 in version 2, u32 in version 1) followed by
// a NUL-terminated keyword, the NUL width matching the archive's encoding.
func readKeyBlockEntries(data []byte, version int, encoding string, nEntries uint64) ([]keyIndexEntry, error) {
	r := newReader(data)
	width := 1
	if encoding == "UTF-16" {
		width = 2
	}

	entries := make([]keyIndexEntry, 0, nEntries)
	for i := uint64(0); i < nEntries; i++ {
		offset, err := r.count(version)
		if err != nil {
			return nil, kerrors.Wrap(err, "reading key block entry %d offset", i)
		}
		start := r.pos
		for {
			b, err := r.take(width)
			if err != nil {
				return nil, kerrors.Wrap(err, "reading key block entry %d keyword", i)
			}
			if allZero(b) {
				break
			}
		}
		text := data[start : r.pos-width]
		keyword := string(text)
		if encoding == "UTF-16" {
			keyword = decodeUTF16LE(text)
		}
		entries = append(entries, keyIndexEntry{RecordOffset: offset, Keyword: keyword})
	}
	return entries, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
