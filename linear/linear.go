// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linear implements the dense per-window virtual offset array
// ("linear index") used to bound the earliest chunk that can possibly
// overlap a query region.
package linear

import "github.com/biogo/baidx/voffset"

// Window is the width, in reference bases, of one linear index cell.
const Window = 1 << 14

// Index is a dense array mapping each Window-bp tile of a reference
// to the smallest virtual offset of any record overlapping that tile.
type Index struct {
	offsets []voffset.VirtualOffset
	set     []bool
}

// Len returns the number of windows currently held.
func (idx *Index) Len() int { return len(idx.offsets) }

// At returns the virtual offset stored at window w. It panics if w is
// out of range; callers should grow the index first via Update or
// check Len.
func (idx *Index) At(w int) voffset.VirtualOffset { return idx.offsets[w] }

// First returns the virtual offset of the lowest-numbered set window,
// or zero if no window is set.
func (idx *Index) First() voffset.VirtualOffset {
	for i, ok := range idx.set {
		if ok {
			return idx.offsets[i]
		}
	}
	return 0
}

func (idx *Index) grow(n int) {
	if n <= len(idx.offsets) {
		return
	}
	offsets := make([]voffset.VirtualOffset, n)
	set := make([]bool, n)
	copy(offsets, idx.offsets)
	copy(set, idx.set)
	idx.offsets = offsets
	idx.set = set
}

// Update records that a record beginning at begVO overlaps every
// window in [w1, w2] (inclusive), growing the index as needed. The
// stored offset for each window is the minimum observed.
func (idx *Index) Update(w1, w2 int, begVO voffset.VirtualOffset) {
	if w2 >= len(idx.offsets) {
		idx.grow(w2 + 1)
	}
	for w := w1; w <= w2; w++ {
		if !idx.set[w] || begVO < idx.offsets[w] {
			idx.offsets[w] = begVO
			idx.set[w] = true
		}
	}
}

// Finalize left-propagates set cells across any unset (hole) cells: a
// hole takes the value of the nearest preceding set cell, and leading
// holes take the first set cell's value. It is a no-op on an empty or
// fully-set index.
func (idx *Index) Finalize() {
	var last voffset.VirtualOffset
	seen := false
	for i := range idx.offsets {
		if idx.set[i] {
			last = idx.offsets[i]
			seen = true
			continue
		}
		if seen {
			idx.offsets[i] = last
			idx.set[i] = true
		}
	}
	if !seen {
		return
	}
	// Leading holes (before the first set cell) take the first
	// record's virtual offset.
	firstIdx := indexOfFirstSet(idx.set)
	first := idx.offsets[firstIdx]
	for i := 0; i < firstIdx; i++ {
		idx.offsets[i] = first
		idx.set[i] = true
	}
}

func indexOfFirstSet(set []bool) int {
	for i, ok := range set {
		if ok {
			return i
		}
	}
	return 0
}

// LookupLowerBound returns the linear-index lower bound virtual offset
// to use when querying starting at the 1-based position start. It
// returns 0 if the index is empty, and the final cell's value if start
// falls beyond the end of the index.
func (idx *Index) LookupLowerBound(start int64) voffset.VirtualOffset {
	if len(idx.offsets) == 0 {
		return 0
	}
	w := int((start - 1) >> 14)
	if w >= len(idx.offsets) {
		w = len(idx.offsets) - 1
	}
	if w < 0 {
		w = 0
	}
	return idx.offsets[w]
}

// Slice returns the raw offsets in [w1, w2] inclusive, clamped to the
// index bounds. It returns nil if w1 is beyond the index.
func (idx *Index) Slice(w1, w2 int) []voffset.VirtualOffset {
	if w1 >= len(idx.offsets) {
		return nil
	}
	if w2 >= len(idx.offsets) {
		w2 = len(idx.offsets) - 1
	}
	if w2 < w1 {
		return nil
	}
	return idx.offsets[w1 : w2+1]
}

// WindowRange returns the inclusive window range [w1, w2] covered by
// the 1-based alignment interval [start, end].
func WindowRange(start, end int64) (w1, w2 int) {
	return int((start - 1) >> 14), int((end - 1) >> 14)
}

// FromOffsets builds an Index directly from a slice of already-decoded
// virtual offsets, as produced when reading a serialized index. Every
// entry is treated as set, matching on-disk semantics where a zero
// virtual offset is a legitimate (if unlikely) value, not a hole.
func FromOffsets(offsets []voffset.VirtualOffset) *Index {
	set := make([]bool, len(offsets))
	for i := range set {
		set[i] = true
	}
	return &Index{offsets: offsets, set: set}
}

// Offsets returns the raw backing slice of the index.
func (idx *Index) Offsets() []voffset.VirtualOffset { return idx.offsets }
