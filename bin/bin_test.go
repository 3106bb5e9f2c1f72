// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bin

import "testing"

func TestLevelArithmetic(t *testing.T) {
	for level := 0; level < NumLevels; level++ {
		first, err := FirstBinOfLevel(level)
		if err != nil {
			t.Fatalf("FirstBinOfLevel(%d): %v", level, err)
		}
		if first != LevelStarts[level] {
			t.Errorf("FirstBinOfLevel(%d) = %d, want %d", level, first, LevelStarts[level])
		}
		size, err := LevelSize(level)
		if err != nil {
			t.Fatalf("LevelSize(%d): %v", level, err)
		}
		if level < NumLevels-1 {
			if got := LevelStarts[level+1] - LevelStarts[level]; got != size {
				t.Errorf("LevelSize(%d) = %d, want %d", level, size, got)
			}
		}
	}
	if _, err := FirstBinOfLevel(NumLevels); err == nil {
		t.Error("FirstBinOfLevel(NumLevels) should fail")
	}
	if _, err := LevelSize(-1); err == nil {
		t.Error("LevelSize(-1) should fail")
	}
}

func TestLevelOfBin(t *testing.T) {
	for level := 0; level < NumLevels; level++ {
		lvl, err := LevelOfBin(LevelStarts[level])
		if err != nil {
			t.Fatalf("LevelOfBin(%d): %v", LevelStarts[level], err)
		}
		if lvl != level {
			t.Errorf("LevelOfBin(%d) = %d, want %d", LevelStarts[level], lvl, level)
		}
	}
	if _, err := LevelOfBin(MaxBins); err == nil {
		t.Error("LevelOfBin(MaxBins) should fail")
	}
}

func TestLocusBounds(t *testing.T) {
	for bin := uint32(0); bin < MaxBins; bin++ {
		first, err := FirstLocusInBin(bin)
		if err != nil {
			t.Fatalf("FirstLocusInBin(%d): %v", bin, err)
		}
		last, err := LastLocusInBin(bin)
		if err != nil {
			t.Fatalf("LastLocusInBin(%d): %v", bin, err)
		}
		if first > last {
			t.Fatalf("bin %d: first locus %d > last locus %d", bin, first, last)
		}
		level, _ := LevelOfBin(bin)
		size, _ := LevelSize(level)
		if want := int64(GenomicSpan) / int64(size); last-first+1 != want {
			t.Fatalf("bin %d: span %d, want %d", bin, last-first+1, want)
		}
	}
}

func TestRegionToBin(t *testing.T) {
	cases := []struct {
		beg, end int64
		want     uint32
	}{
		{0, 1, 4681},
		{16000, 16500, 585}, // crosses a level-5 window, stays within one level-4 window
		{0, GenomicSpan, 0},
	}
	for _, c := range cases {
		if got := RegionToBin(c.beg, c.end); got != c.want {
			t.Errorf("RegionToBin(%d, %d) = %d, want %d", c.beg, c.end, got, c.want)
		}
	}
}

func TestRegionToBinsContainsRegionToBin(t *testing.T) {
	regions := [][2]int64{
		{1, 1},
		{1000, 1099},
		{1, 200},
		{1, GenomicSpan},
		{5000000, 5000001},
	}
	for _, r := range regions {
		s, e := r[0], r[1]
		set := RegionToBins(s, e)
		if !set.Contains(0) {
			t.Errorf("RegionToBins(%d, %d) does not contain bin 0", s, e)
		}
		single := RegionToBin(s-1, e)
		if !set.Contains(single) {
			t.Errorf("RegionToBins(%d, %d) does not contain RegionToBin result %d", s, e, single)
		}
	}
}

func TestRegionToBinsEmpty(t *testing.T) {
	set := RegionToBins(200, 100)
	if len(set) != 0 {
		t.Errorf("RegionToBins(200, 100) = %v, want empty", set)
	}
}
