// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bai

import (
	"github.com/biogo/baidx/bin"
	"github.com/biogo/baidx/linear"
	"github.com/biogo/baidx/voffset"
)

// Record is the minimal view of an alignment record the Indexer needs.
// Start is 1-based; RefID is negative for a record with no reference
// (unplaced). BeginVO/EndVO bracket the record's on-disk byte span.
type Record interface {
	RefID() int
	Start() int64
	End() int64
	BeginVO() voffset.VirtualOffset
	EndVO() voffset.VirtualOffset
	// Unmapped reports the record's unmapped flag, independent of
	// whether it carries reference coordinates.
	Unmapped() bool
}

// Indexer consumes a coordinate-sorted record stream (ascending
// referenceIndex, then ascending alignmentStart; unplaced records
// last) and builds an Artifact. It is a single-pass, single-threaded
// state machine: INIT -> BUILDING_REF(r) -> EMIT_REF(r) -> ... ->
// FINISHED, driven solely by ProcessRecord and Finish. There are no
// retries; any error is terminal.
type Indexer struct {
	nRefs int

	curRef     int
	haveRecord bool
	lastStart  int64

	bins map[uint32]*Bin
	lin  linear.Index
	meta *Metadata

	finalized []RefIndex
	noCoord   uint64
	done      bool
}

// NewIndexer returns an Indexer that expects nRefs references total
// (the size of the externally supplied sequence dictionary), so that
// Finish can pad any references that received no records.
func NewIndexer(nRefs int) *Indexer {
	return &Indexer{nRefs: nRefs, curRef: -1}
}

// ProcessRecord ingests one record. Records must arrive in the
// required sort order: a reference index lower than the current one,
// or a start lower than the previous start within a reference, fails
// with Kind OutOfOrder. The position of unplaced records in the stream
// is not checked.
func (ix *Indexer) ProcessRecord(rec Record) error {
	if ix.done {
		return newErr(OutOfOrder, "ProcessRecord called after Finish")
	}

	refID := rec.RefID()
	if refID < 0 {
		ix.noCoord++
		return nil
	}
	if refID < ix.curRef {
		return newErr(OutOfOrder, "referenceIndex moved backward")
	}
	if refID >= ix.nRefs {
		return newErr(Corrupt, "referenceIndex beyond sequence dictionary size")
	}
	if refID > ix.curRef {
		if err := ix.advanceTo(refID); err != nil {
			return err
		}
	}

	start, end := rec.Start(), rec.End()
	if end < start {
		end = start
	}
	if ix.haveRecord && start < ix.lastStart {
		return newErr(OutOfOrder, "alignmentStart decreased within a reference")
	}
	ix.haveRecord = true
	ix.lastStart = start

	binNum := bin.RegionToBin(start-1, end)
	c := voffset.Chunk{Begin: rec.BeginVO(), End: rec.EndVO()}
	if b, ok := ix.bins[binNum]; ok {
		last := &b.Chunks[len(b.Chunks)-1]
		if last.End > c.Begin {
			if c.End > last.End {
				last.End = c.End
			}
		} else {
			b.Chunks = append(b.Chunks, c)
		}
	} else {
		ix.bins[binNum] = &Bin{Number: binNum, Chunks: []voffset.Chunk{c}}
	}

	w1, w2 := linear.WindowRange(start, end)
	ix.lin.Update(w1, w2, c.Begin)

	if ix.meta == nil {
		ix.meta = &Metadata{FirstVO: c.Begin, LastVO: c.End}
	} else {
		if c.Begin < ix.meta.FirstVO {
			ix.meta.FirstVO = c.Begin
		}
		if c.End > ix.meta.LastVO {
			ix.meta.LastVO = c.End
		}
	}
	if rec.Unmapped() {
		ix.meta.Unaligned++
	} else {
		ix.meta.Aligned++
	}
	return nil
}

// advanceTo finalizes the current reference (if any), pads any
// references strictly between it and refID with empty structures, and
// resets builder state for refID.
func (ix *Indexer) advanceTo(refID int) error {
	if ix.curRef >= 0 {
		if err := ix.finalizeCurrent(); err != nil {
			return err
		}
	}
	for r := ix.curRef + 1; r < refID; r++ {
		ix.finalized = append(ix.finalized, RefIndex{Bins: map[uint32]*Bin{}})
	}
	ix.curRef = refID
	ix.haveRecord = false
	ix.lastStart = 0
	ix.bins = map[uint32]*Bin{}
	ix.lin = linear.Index{}
	ix.meta = nil
	return nil
}

// finalizeCurrent optimizes and freezes the reference currently being
// built, appending it to the finalized list.
func (ix *Indexer) finalizeCurrent() error {
	minVO := ix.lin.First()
	for num, b := range ix.bins {
		b.Chunks = voffset.Optimize(b.Chunks, minVO)
		ix.bins[num] = b
	}
	ix.lin.Finalize()
	lin := ix.lin
	ix.finalized = append(ix.finalized, RefIndex{
		Bins:   ix.bins,
		Linear: &lin,
		Meta:   ix.meta,
	})
	return nil
}

// Finish finalizes any in-progress reference, pads trailing references
// with no records, and returns the completed Artifact. The Indexer
// must not be used after Finish returns successfully.
func (ix *Indexer) Finish() (*Artifact, error) {
	if ix.done {
		return nil, newErr(OutOfOrder, "Finish called twice")
	}
	if ix.curRef >= 0 {
		if err := ix.finalizeCurrent(); err != nil {
			return nil, err
		}
	}
	for r := ix.curRef + 1; r < ix.nRefs; r++ {
		ix.finalized = append(ix.finalized, RefIndex{Bins: map[uint32]*Bin{}})
	}
	ix.done = true
	noCoord := ix.noCoord
	return &Artifact{Refs: ix.finalized, NoCoordCount: &noCoord}, nil
}
