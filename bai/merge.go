// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bai

import (
	"github.com/biogo/baidx/linear"
	"github.com/biogo/baidx/voffset"
)

// MergeArtifacts concatenates the per-segment index artifacts of a
// file that was written as consecutive byte-compressed segments (for
// example, one segment per shard of a parallel write), producing a
// single Artifact equivalent to indexing the concatenation directly.
// segmentByteLengths[i] must be the exact length, in compressed bytes,
// of the data segment that artifacts[i] indexes; it is used to shift
// every virtual offset in that segment into the concatenated file's
// address space.
//
// Shifting a virtual offset is only valid when its block offset is
// zero (it already addresses the start of a compressed block, so
// moving the block address preserves that) or the segment break
// happens to land exactly on a block boundary. This function cannot
// observe the latter without the block-compressed codec itself, which
// is a collaborator out of this package's scope (see spec.md §1), but
// it can and does check the former directly against every virtual
// offset it shifts: any non-zero shift applied to a virtual offset
// whose block offset is non-zero fails with BadConcatenation.
func MergeArtifacts(segments []*Artifact, segmentByteLengths []int64) (*Artifact, error) {
	if len(segments) == 0 {
		return nil, newErr(BadConcatenation, "no segments to merge")
	}
	if len(segments) != len(segmentByteLengths) {
		return nil, newErr(BadConcatenation, "segment count does not match byte length count")
	}
	nRefs := len(segments[0].Refs)
	for i, s := range segments {
		if len(s.Refs) != nRefs {
			return nil, newErr(BadConcatenation, "segments disagree on reference count")
		}
		if segmentByteLengths[i] < 0 {
			return nil, newErr(BadConcatenation, "negative segment byte length")
		}
	}

	shifts := make([]int64, len(segments))
	var cum int64
	for i := range segments {
		shifts[i] = cum
		cum += segmentByteLengths[i]
	}

	merged := make([]RefIndex, nRefs)
	for r := 0; r < nRefs; r++ {
		binChunks := map[uint32][]voffset.Chunk{}
		linears := make([]*linear.Index, 0, len(segments))
		var meta *Metadata
		for i, s := range segments {
			ref := s.Refs[r]
			n := shifts[i]
			for num, b := range ref.Bins {
				cs, err := shiftChunks(b.Chunks, n)
				if err != nil {
					return nil, err
				}
				binChunks[num] = append(binChunks[num], cs...)
			}
			if ref.Linear != nil && ref.Linear.Len() > 0 {
				offs, err := shiftOffsets(ref.Linear.Offsets(), n)
				if err != nil {
					return nil, err
				}
				linears = append(linears, linear.FromOffsets(offs))
			} else {
				linears = append(linears, nil)
			}
			if ref.Meta != nil {
				fv, err := shiftOne(ref.Meta.FirstVO, n)
				if err != nil {
					return nil, err
				}
				lv, err := shiftOne(ref.Meta.LastVO, n)
				if err != nil {
					return nil, err
				}
				if meta == nil {
					meta = &Metadata{FirstVO: fv, LastVO: lv}
				} else {
					if fv < meta.FirstVO {
						meta.FirstVO = fv
					}
					if lv > meta.LastVO {
						meta.LastVO = lv
					}
				}
				meta.Aligned += ref.Meta.Aligned
				meta.Unaligned += ref.Meta.Unaligned
			}
		}
		bins := make(map[uint32]*Bin, len(binChunks))
		for num, chunks := range binChunks {
			bins[num] = &Bin{Number: num, Chunks: voffset.Optimize(chunks, 0)}
		}
		merged[r] = RefIndex{Bins: bins, Linear: mergeLinear(linears), Meta: meta}
	}

	var noCoord *uint64
	var sum uint64
	haveAny := false
	for _, s := range segments {
		if s.NoCoordCount != nil {
			sum += *s.NoCoordCount
			haveAny = true
		}
	}
	if haveAny {
		noCoord = &sum
	}
	return &Artifact{Refs: merged, NoCoordCount: noCoord}, nil
}

// shiftOne shifts a single virtual offset by n bytes, failing with
// BadConcatenation if the shift is non-zero and v does not address the
// start of a compressed block (BlockOffset() != 0): such a v cannot be
// safely relocated without knowledge of the underlying block layout,
// which this package does not have.
func shiftOne(v voffset.VirtualOffset, n int64) (voffset.VirtualOffset, error) {
	if n == 0 {
		return v, nil
	}
	if v.BlockOffset() != 0 {
		return 0, newErr(BadConcatenation, "virtual offset does not address a block boundary")
	}
	return v.Shift(n), nil
}

func shiftChunks(chunks []voffset.Chunk, n int64) ([]voffset.Chunk, error) {
	if n == 0 {
		return chunks, nil
	}
	out := make([]voffset.Chunk, len(chunks))
	for i, c := range chunks {
		beg, err := shiftOne(c.Begin, n)
		if err != nil {
			return nil, err
		}
		end, err := shiftOne(c.End, n)
		if err != nil {
			return nil, err
		}
		out[i] = voffset.Chunk{Begin: beg, End: end}
	}
	return out, nil
}

func shiftOffsets(offsets []voffset.VirtualOffset, n int64) ([]voffset.VirtualOffset, error) {
	if n == 0 {
		return offsets, nil
	}
	out := make([]voffset.VirtualOffset, len(offsets))
	for i, v := range offsets {
		s, err := shiftOne(v, n)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// mergeLinear combines a reference's per-segment linear indexes,
// already shifted into the concatenated address space, into one. A
// segment shorter than the longest is padded on the right with its own
// final (already left-propagated) cell, then the elementwise minimum
// across contributing segments is taken.
func mergeLinear(linears []*linear.Index) *linear.Index {
	maxLen := 0
	for _, l := range linears {
		if l != nil && l.Len() > maxLen {
			maxLen = l.Len()
		}
	}
	if maxLen == 0 {
		return nil
	}
	merged := make([]voffset.VirtualOffset, maxLen)
	set := make([]bool, maxLen)
	for _, l := range linears {
		if l == nil || l.Len() == 0 {
			continue
		}
		offs := l.Offsets()
		last := offs[len(offs)-1]
		for w := 0; w < maxLen; w++ {
			v := last
			if w < len(offs) {
				v = offs[w]
			}
			if !set[w] || v < merged[w] {
				merged[w] = v
				set[w] = true
			}
		}
	}
	return linear.FromOffsets(merged)
}
