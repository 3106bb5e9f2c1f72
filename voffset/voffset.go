// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package voffset implements BAI-style virtual offsets and the byte
// span ("chunk") arithmetic built on top of them.
package voffset

import "sort"

// VirtualOffset is a 64-bit value combining the byte address of a
// compressed block (the high 48 bits) and an offset within that
// block's decompressed data (the low 16 bits).
type VirtualOffset uint64

// New builds a VirtualOffset from a compressed block address and an
// offset within the decompressed block.
func New(blockAddress int64, blockOffset uint16) VirtualOffset {
	return VirtualOffset(blockAddress<<16 | int64(blockOffset))
}

// BlockAddress returns the compressed block's byte address.
func (v VirtualOffset) BlockAddress() int64 { return int64(v >> 16) }

// BlockOffset returns the offset within the decompressed block.
func (v VirtualOffset) BlockOffset() uint16 { return uint16(v) }

// Shift returns v with n bytes added to its block address; the block
// offset is unchanged. The caller must ensure n is only applied across
// a genuine block boundary (see Chunk concatenation in package bai).
func (v VirtualOffset) Shift(n int64) VirtualOffset {
	return New(v.BlockAddress()+n, v.BlockOffset())
}

// Less reports whether v orders before w.
func (v VirtualOffset) Less(w VirtualOffset) bool { return v < w }

// IsZero reports whether v is the zero virtual offset.
func (v VirtualOffset) IsZero() bool { return v == 0 }

// Chunk is a half-open byte span [Begin, End) in virtual-offset space.
type Chunk struct {
	Begin, End VirtualOffset
}

// byBegin sorts chunks by Begin ascending, breaking ties by End
// ascending.
type byBegin []Chunk

func (c byBegin) Len() int      { return len(c) }
func (c byBegin) Swap(i, j int) { c[i], c[j] = c[j], c[i] }
func (c byBegin) Less(i, j int) bool {
	if c[i].Begin != c[j].Begin {
		return c[i].Begin < c[j].Begin
	}
	return c[i].End < c[j].End
}

// MergeSlop is the tolerance, in compressed block bytes, within which
// two chunks are considered adjacent and merged by Optimize. It is
// zero for the canonical BAI layout; the linear-index-derived lower
// bound (min) is what actually trims chunks in that case.
const MergeSlop = 0

// Optimize sorts chunks by Begin, drops any chunk whose End is
// strictly below min, and merges chunks whose compressed blocks are
// adjacent or overlapping. The result is ascending and
// non-overlapping.
func Optimize(chunks []Chunk, min VirtualOffset) []Chunk {
	if len(chunks) == 0 {
		return nil
	}
	cs := make([]Chunk, len(chunks))
	copy(cs, chunks)
	sort.Sort(byBegin(cs))

	kept := cs[:0]
	for _, c := range cs {
		if c.End < min {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return nil
	}

	out := make([]Chunk, 0, len(kept))
	out = append(out, kept[0])
	for _, c := range kept[1:] {
		last := &out[len(out)-1]
		if last.End.BlockAddress()+MergeSlop >= c.Begin.BlockAddress() {
			if c.End > last.End {
				last.End = c.End
			}
			continue
		}
		out = append(out, c)
	}
	return out
}
