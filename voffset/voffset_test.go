// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package voffset

import "testing"

func TestNewAndAccessors(t *testing.T) {
	v := New(0x123456789, 0xABCD)
	if v.BlockAddress() != 0x123456789 {
		t.Errorf("BlockAddress() = %#x, want %#x", v.BlockAddress(), 0x123456789)
	}
	if v.BlockOffset() != 0xABCD {
		t.Errorf("BlockOffset() = %#x, want %#x", v.BlockOffset(), 0xABCD)
	}
}

func TestShift(t *testing.T) {
	v := New(1000, 5)
	s := v.Shift(500)
	if s.BlockAddress() != 1500 {
		t.Errorf("Shift: BlockAddress() = %d, want 1500", s.BlockAddress())
	}
	if s.BlockOffset() != 5 {
		t.Errorf("Shift: BlockOffset() = %d, want 5", s.BlockOffset())
	}
}

func TestOrdering(t *testing.T) {
	a := New(10, 0)
	b := New(10, 1)
	c := New(11, 0)
	if !a.Less(b) || !b.Less(c) {
		t.Error("virtual offsets do not order lexicographically by (block address, block offset)")
	}
}

func TestOptimizeMergesAdjacent(t *testing.T) {
	chunks := []Chunk{
		{Begin: New(0x100, 0), End: New(0x1F0, 0)},
		{Begin: New(0x1F0, 0), End: New(0x2F0, 0)},
	}
	got := Optimize(chunks, 0)
	want := []Chunk{{Begin: New(0x100, 0), End: New(0x2F0, 0)}}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("Optimize() = %v, want %v", got, want)
	}
}

func TestOptimizeDropsBelowMin(t *testing.T) {
	chunks := []Chunk{
		{Begin: New(1, 0), End: New(2, 0)},
		{Begin: New(10, 0), End: New(20, 0)},
	}
	got := Optimize(chunks, New(5, 0))
	if len(got) != 1 || got[0].Begin != New(10, 0) {
		t.Errorf("Optimize() = %v, want single chunk starting at 10", got)
	}
}

func TestOptimizeIdempotent(t *testing.T) {
	chunks := []Chunk{
		{Begin: New(0, 0), End: New(5, 0)},
		{Begin: New(5, 0), End: New(10, 0)},
		{Begin: New(20, 0), End: New(30, 0)},
	}
	min := New(0, 0)
	once := Optimize(chunks, min)
	twice := Optimize(once, min)
	if len(once) != len(twice) {
		t.Fatalf("Optimize not idempotent: %v vs %v", once, twice)
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("Optimize not idempotent at %d: %v vs %v", i, once[i], twice[i])
		}
	}
}

func TestOptimizeOrdering(t *testing.T) {
	chunks := []Chunk{
		{Begin: New(50, 0), End: New(60, 0)},
		{Begin: New(0, 0), End: New(10, 0)},
	}
	got := Optimize(chunks, 0)
	for i := 1; i < len(got); i++ {
		if got[i-1].End > got[i].Begin {
			t.Errorf("chunks not ascending/non-overlapping: %v", got)
		}
	}
}
