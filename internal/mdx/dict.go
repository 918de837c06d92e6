package mdx

import (
	"sort"
	"strings"
	"sync"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// KeyRecord pairs a matched keyword with its decoded record text, the
// result shape Search returns.
type KeyRecord struct {
	Keyword string
	Text    string
}

// Dict is a parsed MDX/MDict archive. Key blocks are decompressed eagerly at
// Open time since they are small and needed immediately to build the
// keyword index; record blocks are decompressed lazily and cached, since a
// typical dictionary's record data dwarfs its key data and most lookups
// only ever touch a handful of blocks.
type Dict struct {
	meta DictMeta

	keys []keyIndexEntry

	mu           sync.Mutex
	recordBlocks []recordBlockEntry
	cache        map[int][]byte
}

// Meta returns the archive's parsed header.
func (d *Dict) Meta() DictMeta { return d.meta }

// Open parses an MDX archive held entirely in memory. Decoding is
// synchronous and CPU-bound; there is no benefit to streaming it.
func Open(data []byte) (*Dict, error) {
	r := newReader(data)

	meta, err := readHeader(r)
	if err != nil {
		return nil, kerrors.Wrap(err, "mdx: reading header")
	}

	kbh, err := readKeyBlockHeader(r, meta.VersionMajor)
	if err != nil {
		return nil, kerrors.Wrap(err, "mdx: reading key block header")
	}
	keyInfos, err := readKeyBlockInfoSection(r, meta.VersionMajor, meta.Encoding, kbh.NBlocks, kbh.NBBlockInfo)
	if err != nil {
		return nil, kerrors.Wrap(err, "mdx: reading key block info section")
	}

	keyBlocksRaw, err := r.take(int(kbh.NBBlocks))
	if err != nil {
		return nil, kerrors.Wrap(err, "mdx: reading key blocks")
	}
	kr := newReader(keyBlocksRaw)
	var keys []keyIndexEntry
	for i, info := range keyInfos {
		frame, err := kr.take(int(info.NBCompressed))
		if err != nil {
			return nil, kerrors.Wrap(err, "mdx: reading key block %d frame", i)
		}
		decompressed, err := decodeContentBlock(frame, int(info.NBDecompressed))
		if err != nil {
			return nil, kerrors.Wrap(err, "mdx: decoding key block %d", i)
		}
		entries, err := readKeyBlockEntries(decompressed, meta.VersionMajor, meta.Encoding, info.NEntries)
		if err != nil {
			return nil, kerrors.Wrap(err, "mdx: parsing key block %d entries", i)
		}
		keys = append(keys, entries...)
	}

	rbh, err := readRecordBlockHeader(r, meta.VersionMajor)
	if err != nil {
		return nil, kerrors.Wrap(err, "mdx: reading record block header")
	}
	recordInfos, err := readRecordBlockInfoSection(r, meta.VersionMajor, rbh.NBlocks)
	if err != nil {
		return nil, kerrors.Wrap(err, "mdx: reading record block info section")
	}

	recordBlocksRaw, err := r.take(int(rbh.NBBlocks))
	if err != nil {
		return nil, kerrors.Wrap(err, "mdx: reading record blocks")
	}
	rr := newReader(recordBlocksRaw)
	blocks := make([]recordBlockEntry, 0, len(recordInfos))
	var cumulative uint64
	for i, info := range recordInfos {
		frame, err := rr.take(int(info.NBCompressed))
		if err != nil {
			return nil, kerrors.Wrap(err, "mdx: reading record block %d frame", i)
		}
		blocks = append(blocks, recordBlockEntry{
			frame:          frame,
			nbDecompressed: int(info.NBDecompressed),
			startOffset:    cumulative,
		})
		cumulative += info.NBDecompressed
	}

	return &Dict{
		meta:         meta,
		keys:         keys,
		recordBlocks: blocks,
		cache:        make(map[int][]byte),
	}, nil
}

// decompressBlock returns block index's decompressed bytes, decompressing
// and caching it on first access.
func (d *Dict) decompressBlock(index int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cached, ok := d.cache[index]; ok {
		return cached, nil
	}
	block := d.recordBlocks[index]
	decoded, err := decodeContentBlock(block.frame, block.nbDecompressed)
	if err != nil {
		return nil, kerrors.Wrap(err, "mdx: decoding record block %d", index)
	}
	d.cache[index] = decoded
	return decoded, nil
}

// blockForOffset finds the record block whose decompressed range contains
// recordOffset.
func (d *Dict) blockForOffset(recordOffset uint64) (int, error) {
	idx := sort.Search(len(d.recordBlocks), func(i int) bool {
		return d.recordBlocks[i].startOffset > recordOffset
	}) - 1
	if idx < 0 || idx >= len(d.recordBlocks) {
		return 0, kerrors.New(kerrors.NotFound, "mdx: no record block contains offset %d", recordOffset)
	}
	if block := d.recordBlocks[idx]; recordOffset >= block.startOffset+uint64(block.nbDecompressed) {
		return 0, kerrors.New(kerrors.NotFound, "mdx: no record block contains offset %d", recordOffset)
	}
	return idx, nil
}

// Lookup decodes the record text stored at recordOffset in the
// concatenation of all decompressed record blocks.
func (d *Dict) Lookup(recordOffset uint64) (string, error) {
	idx, err := d.blockForOffset(recordOffset)
	if err != nil {
		return "", err
	}
	data, err := d.decompressBlock(idx)
	if err != nil {
		return "", err
	}
	intra := int(recordOffset - d.recordBlocks[idx].startOffset)
	if intra < 0 || intra > len(data) {
		return "", kerrors.New(kerrors.FormatError, "mdx: record offset %d out of block range", recordOffset)
	}

	width := 1
	if d.meta.Encoding == "UTF-16" {
		width = 2
	}
	end := intra
	for end+width <= len(data) {
		if allZero(data[end : end+width]) {
			break
		}
		end += width
	}

	text := data[intra:end]
	if d.meta.Encoding == "UTF-16" {
		return decodeUTF16LE(text), nil
	}
	return string(text), nil
}

// Search returns every (keyword, record text) pair whose keyword contains
// substring.
func (d *Dict) Search(substring string) ([]KeyRecord, error) {
	var out []KeyRecord
	for _, k := range d.keys {
		if !strings.Contains(k.Keyword, substring) {
			continue
		}
		text, err := d.Lookup(k.RecordOffset)
		if err != nil {
			return nil, kerrors.Wrap(err, "mdx: resolving record for keyword %q", k.Keyword)
		}
		out = append(out, KeyRecord{Keyword: k.Keyword, Text: text})
	}
	return out, nil
}
