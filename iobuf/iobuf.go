// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iobuf provides little-endian random-access readers over an
// index file, fulfilled either by a memory-mapped region or by an
// on-demand paged random-access file.
package iobuf

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// Buffer is the random-access capability an IndexReader needs: a
// little-endian sequential reader with absolute seek. It is owned
// exclusively by one reader instance and is not safe for concurrent
// use.
type Buffer interface {
	// ReadBytes fills out completely or fails with an error
	// wrapping io.ErrUnexpectedEOF.
	ReadBytes(out []byte) error
	// ReadI32 reads one little-endian int32 and advances.
	ReadI32() (int32, error)
	// ReadI64 reads one little-endian int64 and advances.
	ReadI64() (int64, error)
	// SkipBytes advances the cursor by n bytes without reading them.
	SkipBytes(n int64) error
	// Seek moves the cursor to an absolute byte offset.
	Seek(pos int64) error
	// Position returns the current absolute byte offset.
	Position() int64
	// Size returns the total length of the underlying file in bytes.
	Size() int64
	// Close releases any resources held by the buffer.
	Close() error
}

// MemoryMapped is a Buffer backed by a read-only memory mapping of the
// whole index file.
type MemoryMapped struct {
	r   *mmap.ReaderAt
	pos int64
}

// OpenMemoryMapped memory-maps the index file at path.
func OpenMemoryMapped(path string) (*MemoryMapped, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "iobuf: mmap open")
	}
	return &MemoryMapped{r: r}, nil
}

func (b *MemoryMapped) ReadBytes(out []byte) error {
	n, err := b.r.ReadAt(out, b.pos)
	b.pos += int64(n)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return errors.Wrap(err, "iobuf: mmap read")
	}
	return nil
}

func (b *MemoryMapped) ReadI32() (int32, error) {
	var buf [4]byte
	if err := b.ReadBytes(buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

func (b *MemoryMapped) ReadI64() (int64, error) {
	var buf [8]byte
	if err := b.ReadBytes(buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

func (b *MemoryMapped) SkipBytes(n int64) error {
	if b.pos+n > int64(b.r.Len()) || b.pos+n < 0 {
		return errors.Wrap(io.ErrUnexpectedEOF, "iobuf: skip past end of file")
	}
	b.pos += n
	return nil
}

func (b *MemoryMapped) Seek(pos int64) error {
	if pos < 0 || pos > int64(b.r.Len()) {
		return errors.New("iobuf: seek out of range")
	}
	b.pos = pos
	return nil
}

func (b *MemoryMapped) Position() int64 { return b.pos }

func (b *MemoryMapped) Size() int64 { return int64(b.r.Len()) }

func (b *MemoryMapped) Close() error { return b.r.Close() }

// pageSize is the Paged buffer's working-set size.
const pageSize = 4096

// Paged is a Buffer backed by a random-access file handle and a single
// page-sized read buffer. It is not reentrant.
type Paged struct {
	f    *os.File
	size int64

	page     [pageSize]byte
	pageBase int64 // byte address of the start of the loaded page, -1 if none loaded
	pageLen  int

	pos int64
}

// OpenPaged opens path for paged random access.
func OpenPaged(path string) (*Paged, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "iobuf: open")
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "iobuf: stat")
	}
	return &Paged{f: f, size: fi.Size(), pageBase: -1}, nil
}

func (b *Paged) loadPage(base int64) error {
	if b.pageBase == base {
		return nil
	}
	n, err := b.f.ReadAt(b.page[:], base)
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "iobuf: paged read")
	}
	b.pageBase = base
	b.pageLen = n
	return nil
}

// ReadBytes fills out page by page from whichever pages cover the
// requested span; out may straddle a page boundary.
func (b *Paged) ReadBytes(out []byte) error {
	if b.pos+int64(len(out)) > b.size {
		return errors.Wrap(io.ErrUnexpectedEOF, "iobuf: truncated")
	}
	for len(out) > 0 {
		base := (b.pos / pageSize) * pageSize
		if err := b.loadPage(base); err != nil {
			return err
		}
		off := int(b.pos - base)
		if off >= b.pageLen {
			return errors.Wrap(io.ErrUnexpectedEOF, "iobuf: truncated")
		}
		n := copy(out, b.page[off:b.pageLen])
		out = out[n:]
		b.pos += int64(n)
	}
	return nil
}

func (b *Paged) ReadI32() (int32, error) {
	var buf [4]byte
	if err := b.ReadBytes(buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

// ReadI64 decomposes the 64-bit read into two little-endian 32-bit
// reads: the BAI format aligns i32 fields on 4-byte boundaries but
// never guarantees 8-byte alignment for the i64 fields (virtual
// offsets and the trailing no-coordinate count).
func (b *Paged) ReadI64() (int64, error) {
	lower, err := b.ReadI32()
	if err != nil {
		return 0, err
	}
	upper, err := b.ReadI32()
	if err != nil {
		return 0, err
	}
	return int64(upper)<<32 | int64(uint32(lower)), nil
}

func (b *Paged) SkipBytes(n int64) error {
	if b.pos+n > b.size || b.pos+n < 0 {
		return errors.Wrap(io.ErrUnexpectedEOF, "iobuf: skip past end of file")
	}
	b.pos += n
	return nil
}

func (b *Paged) Seek(pos int64) error {
	if pos < 0 || pos > b.size {
		return errors.New("iobuf: seek out of range")
	}
	b.pos = pos
	return nil
}

func (b *Paged) Position() int64 { return b.pos }

func (b *Paged) Size() int64 { return b.size }

func (b *Paged) Close() error { return b.f.Close() }
