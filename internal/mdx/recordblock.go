package mdx

import "github.com/kerneld-io/kerneld/internal/kerrors"

// recordBlockHeader is the fixed-width preamble to the record-block
// section: the same four/five-count shape as keyBlockHeader, but record
// blocks carry no decompressed-size-of-info field or trailing checksum in
// either version.
type recordBlockHeader struct {
	NBlocks     uint64
	NEntries    uint64
	NBBlockInfo uint64
	NBBlocks    uint64
}

func readRecordBlockHeader(r *reader, version int) (recordBlockHeader, error) {
	var h recordBlockHeader
	var err error
	if h.NBlocks, err = r.count(version); err != nil {
		return h, kerrors.Wrap(err, "reading record block count")
	}
	if h.NEntries, err = r.count(version); err != nil {
		return h, kerrors.Wrap(err, "reading record entry count")
	}
	if h.NBBlockInfo, err = r.count(version); err != nil {
		return h, kerrors.Wrap(err, "reading record block info size")
	}
	if h.NBBlocks, err = r.count(version); err != nil {
		return h, kerrors.Wrap(err, "reading record blocks size")
	}
	return h, nil
}

// recordBlockInfo gives one record block's compressed and decompressed
// byte sizes; unlike keyBlockInfo it carries no keyword range or entry
// count, since record blocks are addressed purely by cumulative
// decompressed byte offset.
type recordBlockInfo struct {
	NBCompressed   uint64
	NBDecompressed uint64
}

func readRecordBlockInfoSection(r *reader, version int, nBlocks uint64) ([]recordBlockInfo, error) {
	infos := make([]recordBlockInfo, 0, nBlocks)
	for i := uint64(0); i < nBlocks; i++ {
		var info recordBlockInfo
		var err error
		if info.NBCompressed, err = r.count(version); err != nil {
			return nil, kerrors.Wrap(err, "reading record block info entry %d compressed size", i)
		}
		if info.NBDecompressed, err = r.count(version); err != nil {
			return nil, kerrors.Wrap(err, "reading record block info entry %d decompressed size", i)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// recordBlockEntry is one lazily-decompressed record block: its raw framed
// bytes taken verbatim from the archive, the decompressed size the frame
// must produce, and where its decompressed bytes begin in the conceptual
// concatenation of every record block (the addressing space record offsets
// from the key index live in).
type recordBlockEntry struct {
	frame          []byte
	nbDecompressed int
	startOffset    uint64
}
