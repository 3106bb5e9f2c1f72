// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bai

import (
	"encoding/binary"
	"io"

	"github.com/biogo/baidx/linear"
	"github.com/biogo/baidx/voffset"
)

// WriteArtifact serializes art to w in the layout described in
// spec.md §6: magic, reference count, then per reference the bin
// list (with the synthetic meta bin, if present, included in the bin
// count), the linear index, and finally the optional trailing
// no-coordinate count.
func WriteArtifact(w io.Writer, art *Artifact) error {
	if err := binary.Write(w, binary.LittleEndian, Magic); err != nil {
		return wrapErr(Io, "write magic", err)
	}
	if err := binary.Write(w, binary.LittleEndian, int32(len(art.Refs))); err != nil {
		return wrapErr(Io, "write reference count", err)
	}
	for i := range art.Refs {
		if err := writeRef(w, &art.Refs[i]); err != nil {
			return err
		}
	}
	if art.NoCoordCount != nil {
		if err := binary.Write(w, binary.LittleEndian, *art.NoCoordCount); err != nil {
			return wrapErr(Io, "write no-coordinate count", err)
		}
	}
	return nil
}

func writeRef(w io.Writer, ref *RefIndex) error {
	n := int32(len(ref.Bins))
	if ref.Meta != nil {
		n++
	}
	if err := binary.Write(w, binary.LittleEndian, n); err != nil {
		return wrapErr(Io, "write bin count", err)
	}
	numbers := sortedBinNumbers(ref.Bins)
	for _, num := range numbers {
		b := ref.Bins[num]
		if err := binary.Write(w, binary.LittleEndian, b.Number); err != nil {
			return wrapErr(Io, "write bin number", err)
		}
		if err := writeChunks(w, b.Chunks); err != nil {
			return err
		}
	}
	if ref.Meta != nil {
		if err := writeMeta(w, ref.Meta); err != nil {
			return err
		}
	}
	var offsets []voffset.VirtualOffset
	if ref.Linear != nil {
		offsets = ref.Linear.Offsets()
	}
	if err := binary.Write(w, binary.LittleEndian, int32(len(offsets))); err != nil {
		return wrapErr(Io, "write interval count", err)
	}
	for _, o := range offsets {
		if err := binary.Write(w, binary.LittleEndian, uint64(o)); err != nil {
			return wrapErr(Io, "write interval offset", err)
		}
	}
	return nil
}

func writeChunks(w io.Writer, chunks []voffset.Chunk) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(chunks))); err != nil {
		return wrapErr(Io, "write chunk count", err)
	}
	for _, c := range chunks {
		if err := binary.Write(w, binary.LittleEndian, uint64(c.Begin)); err != nil {
			return wrapErr(Io, "write chunk begin", err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(c.End)); err != nil {
			return wrapErr(Io, "write chunk end", err)
		}
	}
	return nil
}

func writeMeta(w io.Writer, m *Metadata) error {
	if err := binary.Write(w, binary.LittleEndian, [2]uint32{MetaBin, 2}); err != nil {
		return wrapErr(Io, "write meta bin header", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(m.FirstVO)); err != nil {
		return wrapErr(Io, "write meta first virtual offset", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(m.LastVO)); err != nil {
		return wrapErr(Io, "write meta last virtual offset", err)
	}
	if err := binary.Write(w, binary.LittleEndian, m.Aligned); err != nil {
		return wrapErr(Io, "write meta aligned count", err)
	}
	if err := binary.Write(w, binary.LittleEndian, m.Unaligned); err != nil {
		return wrapErr(Io, "write meta unaligned count", err)
	}
	return nil
}

func sortedBinNumbers(bins map[uint32]*Bin) []uint32 {
	numbers := make([]uint32, 0, len(bins))
	for n := range bins {
		numbers = append(numbers, n)
	}
	// insertion sort: per-reference bin counts are small (bounded by
	// MaxBins) and this keeps the codec free of an extra import.
	for i := 1; i < len(numbers); i++ {
		for j := i; j > 0 && numbers[j-1] > numbers[j]; j-- {
			numbers[j-1], numbers[j] = numbers[j], numbers[j-1]
		}
	}
	return numbers
}

// ReadArtifact reads a complete index from r, decoding every reference
// eagerly. It is the simple counterpart to Reader's lazy, single-
// reference decode, useful for round-tripping and for merging.
func ReadArtifact(r io.Reader) (*Artifact, error) {
	var magic [4]byte
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, readErr("read magic", err)
	}
	if magic != Magic {
		return nil, newErr(BadMagic, "magic number mismatch")
	}
	var nRef int32
	if err := binary.Read(r, binary.LittleEndian, &nRef); err != nil {
		return nil, readErr("read reference count", err)
	}
	if nRef < 0 {
		return nil, newErr(Corrupt, "negative reference count")
	}
	art := &Artifact{Refs: make([]RefIndex, nRef)}
	for i := range art.Refs {
		ref, err := readRef(r)
		if err != nil {
			return nil, err
		}
		art.Refs[i] = ref
	}
	var noCoord uint64
	if err := binary.Read(r, binary.LittleEndian, &noCoord); err == nil {
		art.NoCoordCount = &noCoord
	} else if err != io.EOF {
		return nil, readErr("read no-coordinate count", err)
	}
	return art, nil
}

func readRef(r io.Reader) (RefIndex, error) {
	var nBin int32
	if err := binary.Read(r, binary.LittleEndian, &nBin); err != nil {
		return RefIndex{}, readErr("read bin count", err)
	}
	if nBin < 0 || nBin > MetaBin+1 {
		return RefIndex{}, newErr(Corrupt, "implausible bin count")
	}
	ref := RefIndex{Bins: make(map[uint32]*Bin)}
	for i := int32(0); i < nBin; i++ {
		var num uint32
		if err := binary.Read(r, binary.LittleEndian, &num); err != nil {
			return RefIndex{}, readErr("read bin number", err)
		}
		var nChunk int32
		if err := binary.Read(r, binary.LittleEndian, &nChunk); err != nil {
			return RefIndex{}, readErr("read chunk count", err)
		}
		if num == MetaBin {
			if nChunk != 2 {
				return RefIndex{}, newErr(Corrupt, "malformed meta bin header")
			}
			meta, err := readMeta(r)
			if err != nil {
				return RefIndex{}, err
			}
			ref.Meta = meta
			continue
		}
		if num > MetaBin {
			return RefIndex{}, newErr(Corrupt, "bin number out of range")
		}
		chunks, err := readChunks(r, nChunk)
		if err != nil {
			return RefIndex{}, err
		}
		ref.Bins[num] = &Bin{Number: num, Chunks: chunks}
	}
	var nIntv int32
	if err := binary.Read(r, binary.LittleEndian, &nIntv); err != nil {
		return RefIndex{}, readErr("read interval count", err)
	}
	if nIntv < 0 {
		return RefIndex{}, newErr(Corrupt, "negative interval count")
	}
	offsets := make([]voffset.VirtualOffset, nIntv)
	for i := range offsets {
		var v uint64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return RefIndex{}, readErr("read interval offset", err)
		}
		offsets[i] = voffset.VirtualOffset(v)
	}
	if len(offsets) > 0 {
		ref.Linear = linear.FromOffsets(offsets)
	}
	return ref, nil
}

func readChunks(r io.Reader, n int32) ([]voffset.Chunk, error) {
	if n < 0 {
		return nil, newErr(Corrupt, "negative chunk count")
	}
	chunks := make([]voffset.Chunk, n)
	for i := range chunks {
		var beg, end uint64
		if err := binary.Read(r, binary.LittleEndian, &beg); err != nil {
			return nil, readErr("read chunk begin", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &end); err != nil {
			return nil, readErr("read chunk end", err)
		}
		chunks[i] = voffset.Chunk{Begin: voffset.VirtualOffset(beg), End: voffset.VirtualOffset(end)}
	}
	return chunks, nil
}

func readMeta(r io.Reader) (*Metadata, error) {
	var firstVO, lastVO, aligned, unaligned uint64
	if err := binary.Read(r, binary.LittleEndian, &firstVO); err != nil {
		return nil, readErr("read meta first virtual offset", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &lastVO); err != nil {
		return nil, readErr("read meta last virtual offset", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &aligned); err != nil {
		return nil, readErr("read meta aligned count", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &unaligned); err != nil {
		return nil, readErr("read meta unaligned count", err)
	}
	return &Metadata{
		FirstVO:   voffset.VirtualOffset(firstVO),
		LastVO:    voffset.VirtualOffset(lastVO),
		Aligned:   aligned,
		Unaligned: unaligned,
	}, nil
}
