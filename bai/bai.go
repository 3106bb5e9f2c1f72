// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bai implements the binary on-disk BAI-shaped index format: a
// per-reference hierarchy of bins carrying byte-span chunks, a dense
// linear index, and optional per-reference and whole-file metadata.
//
// The package does not log; every failure is reported to the caller as
// an *Error carrying one of the Kind values below.
package bai

import (
	"github.com/biogo/baidx/linear"
	"github.com/biogo/baidx/voffset"
)

// Magic is the literal 4-byte magic every BAI-shaped index file opens
// with.
var Magic = [4]byte{'B', 'A', 'I', 0x1}

// MetaBin is the reserved bin number carrying per-reference metadata.
// It is never returned by a region query.
const MetaBin = 37450

// Bin is one node of the hierarchy: a bin number and its ordered,
// optimized chunks.
type Bin struct {
	Number uint32
	Chunks []voffset.Chunk
}

// Metadata holds the per-reference counters and overall chunk span
// encoded in the reserved meta bin.
type Metadata struct {
	FirstVO, LastVO    voffset.VirtualOffset
	Aligned, Unaligned uint64
}

// RefIndex is the decoded or built index for a single reference
// sequence.
type RefIndex struct {
	Bins   map[uint32]*Bin
	Linear *linear.Index
	Meta   *Metadata
}

// Artifact is a complete, in-memory index: one RefIndex per reference,
// plus the optional trailing count of records with no reference
// coordinate at all.
type Artifact struct {
	Refs         []RefIndex
	NoCoordCount *uint64
}
