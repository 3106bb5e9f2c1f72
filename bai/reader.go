// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bai

import (
	"sort"

	"github.com/biogo/baidx/bin"
	"github.com/biogo/baidx/iobuf"
	"github.com/biogo/baidx/linear"
	"github.com/biogo/baidx/voffset"
)

// Reader answers region queries against an index file without decoding
// it in full. It reads the magic and reference count eagerly at
// construction and decodes one reference's bins, chunks, and linear
// index only when SkipToSequence, GetMetaData, GetStartOfLastLinearBin
// or Query asks for it.
type Reader struct {
	buf iobuf.Buffer

	numRefs int32
	// cache[i] is the byte offset of reference i's bin-count field, or
	// -1 if not yet discovered. cache[0] is known as soon as the header
	// is read.
	cache []int64
}

// NewReader reads the magic and header from buf and returns a Reader
// positioned at the start of reference 0. It takes ownership of buf;
// callers should not use buf directly afterward.
func NewReader(buf iobuf.Buffer) (*Reader, error) {
	var magic [4]byte
	if err := buf.ReadBytes(magic[:]); err != nil {
		return nil, readErr("read magic", err)
	}
	if magic != Magic {
		return nil, newErr(BadMagic, "magic number mismatch")
	}
	nRef, err := buf.ReadI32()
	if err != nil {
		return nil, readErr("read reference count", err)
	}
	if nRef < 0 {
		return nil, newErr(Corrupt, "negative reference count")
	}
	cache := make([]int64, nRef)
	for i := range cache {
		cache[i] = -1
	}
	if nRef > 0 {
		cache[0] = buf.Position()
	}
	return &Reader{buf: buf, numRefs: nRef, cache: cache}, nil
}

// NumberOfReferences returns the number of references the index
// covers.
func (r *Reader) NumberOfReferences() int32 { return r.numRefs }

// Close releases the underlying buffer.
func (r *Reader) Close() error { return r.buf.Close() }

// SkipToSequence positions the reader at the start of refID's record,
// decoding and skipping intervening references as needed. Previously
// visited references are remembered, so repeated or sequential access
// is cheap.
func (r *Reader) SkipToSequence(refID int) error {
	if refID < 0 || refID >= int(r.numRefs) {
		return newErr(Corrupt, "referenceIndex out of range")
	}
	if r.cache[refID] >= 0 {
		return r.buf.Seek(r.cache[refID])
	}
	j := refID - 1
	for j > 0 && r.cache[j] < 0 {
		j--
	}
	if err := r.buf.Seek(r.cache[j]); err != nil {
		return err
	}
	for i := j; i < refID; i++ {
		if err := skipOneRef(r.buf); err != nil {
			return err
		}
		r.cache[i+1] = r.buf.Position()
	}
	return nil
}

// skipOneRef advances buf past exactly one reference's record without
// decoding any of its contents.
func skipOneRef(buf iobuf.Buffer) error {
	nBin, err := buf.ReadI32()
	if err != nil {
		return readErr("read bin count", err)
	}
	if nBin < 0 || nBin > MetaBin+1 {
		return newErr(Corrupt, "implausible bin count")
	}
	for i := int32(0); i < nBin; i++ {
		if _, err := buf.ReadI32(); err != nil {
			return readErr("read bin number", err)
		}
		nChunk, err := buf.ReadI32()
		if err != nil {
			return readErr("read chunk count", err)
		}
		if nChunk < 0 {
			return newErr(Corrupt, "negative chunk count")
		}
		if err := buf.SkipBytes(int64(nChunk) * 16); err != nil {
			return readErr("skip chunks", err)
		}
	}
	nIntv, err := buf.ReadI32()
	if err != nil {
		return readErr("read interval count", err)
	}
	if nIntv < 0 {
		return newErr(Corrupt, "negative interval count")
	}
	if err := buf.SkipBytes(int64(nIntv) * 8); err != nil {
		return readErr("skip intervals", err)
	}
	return nil
}

// decodeRef fully decodes one reference's record, starting at buf's
// current position, which must be the start of a reference record.
func decodeRef(buf iobuf.Buffer) (RefIndex, error) {
	nBin, err := buf.ReadI32()
	if err != nil {
		return RefIndex{}, readErr("read bin count", err)
	}
	if nBin < 0 || nBin > MetaBin+1 {
		return RefIndex{}, newErr(Corrupt, "implausible bin count")
	}
	ref := RefIndex{Bins: make(map[uint32]*Bin)}
	for i := int32(0); i < nBin; i++ {
		numRaw, err := buf.ReadI32()
		if err != nil {
			return RefIndex{}, readErr("read bin number", err)
		}
		num := uint32(numRaw)
		nChunk, err := buf.ReadI32()
		if err != nil {
			return RefIndex{}, readErr("read chunk count", err)
		}
		if num == MetaBin {
			if nChunk != 2 {
				return RefIndex{}, newErr(Corrupt, "malformed meta bin header")
			}
			meta, err := readMetaBuf(buf)
			if err != nil {
				return RefIndex{}, err
			}
			ref.Meta = meta
			continue
		}
		if num > MetaBin {
			return RefIndex{}, newErr(Corrupt, "bin number out of range")
		}
		if nChunk < 0 {
			return RefIndex{}, newErr(Corrupt, "negative chunk count")
		}
		chunks := make([]voffset.Chunk, nChunk)
		for j := range chunks {
			beg, err := buf.ReadI64()
			if err != nil {
				return RefIndex{}, readErr("read chunk begin", err)
			}
			end, err := buf.ReadI64()
			if err != nil {
				return RefIndex{}, readErr("read chunk end", err)
			}
			chunks[j] = voffset.Chunk{Begin: voffset.VirtualOffset(beg), End: voffset.VirtualOffset(end)}
		}
		ref.Bins[num] = &Bin{Number: num, Chunks: chunks}
	}
	nIntv, err := buf.ReadI32()
	if err != nil {
		return RefIndex{}, readErr("read interval count", err)
	}
	if nIntv < 0 {
		return RefIndex{}, newErr(Corrupt, "negative interval count")
	}
	offsets := make([]voffset.VirtualOffset, nIntv)
	for i := range offsets {
		v, err := buf.ReadI64()
		if err != nil {
			return RefIndex{}, readErr("read interval offset", err)
		}
		offsets[i] = voffset.VirtualOffset(v)
	}
	if len(offsets) > 0 {
		ref.Linear = linear.FromOffsets(offsets)
	}
	return ref, nil
}

func readMetaBuf(buf iobuf.Buffer) (*Metadata, error) {
	firstVO, err := buf.ReadI64()
	if err != nil {
		return nil, readErr("read meta first virtual offset", err)
	}
	lastVO, err := buf.ReadI64()
	if err != nil {
		return nil, readErr("read meta last virtual offset", err)
	}
	aligned, err := buf.ReadI64()
	if err != nil {
		return nil, readErr("read meta aligned count", err)
	}
	unaligned, err := buf.ReadI64()
	if err != nil {
		return nil, readErr("read meta unaligned count", err)
	}
	return &Metadata{
		FirstVO:   voffset.VirtualOffset(firstVO),
		LastVO:    voffset.VirtualOffset(lastVO),
		Aligned:   uint64(aligned),
		Unaligned: uint64(unaligned),
	}, nil
}

// GetMetaData returns refID's metadata, if the index carries one. The
// second return value is false when the reference has no meta bin
// (e.g. it received no records).
func (r *Reader) GetMetaData(refID int) (*Metadata, bool, error) {
	if err := r.SkipToSequence(refID); err != nil {
		return nil, false, err
	}
	ref, err := decodeRef(r.buf)
	if err != nil {
		return nil, false, err
	}
	return ref.Meta, ref.Meta != nil, nil
}

// GetStartOfLastLinearBin iterates every reference in order, skipping
// its bins and reading the last entry of its linear index if it has
// one, and returns the latest (greatest) virtual offset seen across
// all references. It returns false if no reference has a linear index
// entry at all.
func (r *Reader) GetStartOfLastLinearBin() (voffset.VirtualOffset, bool, error) {
	if r.numRefs == 0 {
		return 0, false, nil
	}
	if err := r.buf.Seek(r.cache[0]); err != nil {
		return 0, false, err
	}
	var best voffset.VirtualOffset
	found := false
	for i := 0; i < int(r.numRefs); i++ {
		v, ok, err := lastLinearEntryOfRef(r.buf)
		if err != nil {
			return 0, false, err
		}
		if ok && (!found || v > best) {
			best = v
			found = true
		}
		if i+1 < int(r.numRefs) && r.cache[i+1] < 0 {
			r.cache[i+1] = r.buf.Position()
		}
	}
	if !found {
		return 0, false, nil
	}
	return best, true, nil
}

// lastLinearEntryOfRef advances buf past exactly one reference's bins
// and linear index, starting at buf's current position (which must be
// the start of a reference record), returning the final linear-index
// entry if the reference has one.
func lastLinearEntryOfRef(buf iobuf.Buffer) (voffset.VirtualOffset, bool, error) {
	nBin, err := buf.ReadI32()
	if err != nil {
		return 0, false, readErr("read bin count", err)
	}
	if nBin < 0 || nBin > MetaBin+1 {
		return 0, false, newErr(Corrupt, "implausible bin count")
	}
	for i := int32(0); i < nBin; i++ {
		if _, err := buf.ReadI32(); err != nil {
			return 0, false, readErr("read bin number", err)
		}
		nChunk, err := buf.ReadI32()
		if err != nil {
			return 0, false, readErr("read chunk count", err)
		}
		if nChunk < 0 {
			return 0, false, newErr(Corrupt, "negative chunk count")
		}
		if err := buf.SkipBytes(int64(nChunk) * 16); err != nil {
			return 0, false, readErr("skip chunks", err)
		}
	}
	nIntv, err := buf.ReadI32()
	if err != nil {
		return 0, false, readErr("read interval count", err)
	}
	if nIntv < 0 {
		return 0, false, newErr(Corrupt, "negative interval count")
	}
	if nIntv == 0 {
		return 0, false, nil
	}
	if err := buf.SkipBytes(int64(nIntv-1) * 8); err != nil {
		return 0, false, readErr("skip intervals", err)
	}
	v, err := buf.ReadI64()
	if err != nil {
		return 0, false, readErr("read last interval offset", err)
	}
	return voffset.VirtualOffset(v), true, nil
}

// GetNoCoordinateCount returns the file's trailing count of records
// with no reference coordinate at all. It returns a nil count, with no
// error, for a legacy file that omits the trailing field.
func (r *Reader) GetNoCoordinateCount() (*uint64, error) {
	if r.numRefs > 0 {
		if err := r.SkipToSequence(int(r.numRefs) - 1); err != nil {
			return nil, err
		}
		if err := skipOneRef(r.buf); err != nil {
			return nil, err
		}
	}
	if r.buf.Position()+8 > r.buf.Size() {
		return nil, nil
	}
	v, err := r.buf.ReadI64()
	if err != nil {
		return nil, readErr("read no-coordinate count", err)
	}
	n := uint64(v)
	return &n, nil
}

// Query returns the optimized, ascending, non-overlapping set of
// chunks that may contain records overlapping the 1-based inclusive
// region [start, end] on reference refID.
func (r *Reader) Query(refID int, start, end int64) ([]voffset.Chunk, error) {
	if refID < 0 || refID >= int(r.numRefs) {
		return nil, newErr(Corrupt, "referenceIndex out of range")
	}
	candidates := bin.RegionToBins(start, end)
	if len(candidates) == 0 {
		return nil, nil
	}
	if err := r.SkipToSequence(refID); err != nil {
		return nil, err
	}
	ref, err := decodeRef(r.buf)
	if err != nil {
		return nil, err
	}

	var minVO voffset.VirtualOffset
	if ref.Linear != nil {
		minVO = ref.Linear.LookupLowerBound(start)
	}

	var all []voffset.Chunk
	for num, b := range ref.Bins {
		if candidates.Contains(num) {
			all = append(all, b.Chunks...)
		}
	}
	return voffset.Optimize(all, minVO), nil
}

// AllOffsets returns every chunk boundary virtual offset recorded for
// refID, deduplicated and sorted ascending. It is useful for sanity
// checks and for tools that want to walk an entire reference's chunk
// layout rather than query a specific region.
func (r *Reader) AllOffsets(refID int) ([]voffset.VirtualOffset, error) {
	if refID < 0 || refID >= int(r.numRefs) {
		return nil, newErr(Corrupt, "referenceIndex out of range")
	}
	if err := r.SkipToSequence(refID); err != nil {
		return nil, err
	}
	ref, err := decodeRef(r.buf)
	if err != nil {
		return nil, err
	}
	var all []voffset.VirtualOffset
	for _, b := range ref.Bins {
		for _, c := range b.Chunks {
			all = append(all, c.Begin, c.End)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	out := all[:0]
	for i, v := range all {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out, nil
}
