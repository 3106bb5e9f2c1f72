// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iobuf

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// buildUnalignedFixture writes an i32 followed immediately by an i64,
// so the i64 begins at byte offset 4 (not 8-byte aligned), matching
// the BAI layout's actual packing.
func buildUnalignedFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := binary.Write(f, binary.LittleEndian, int32(0x11223344)); err != nil {
		t.Fatal(err)
	}
	if err := binary.Write(f, binary.LittleEndian, int64(0x0102030405060708)); err != nil {
		t.Fatal(err)
	}
	return path
}

func testBuffer(t *testing.T, b Buffer) {
	t.Helper()
	i32, err := b.ReadI32()
	if err != nil {
		t.Fatalf("ReadI32: %v", err)
	}
	if i32 != 0x11223344 {
		t.Errorf("ReadI32() = %#x, want %#x", i32, 0x11223344)
	}
	i64, err := b.ReadI64()
	if err != nil {
		t.Fatalf("ReadI64: %v", err)
	}
	if i64 != 0x0102030405060708 {
		t.Errorf("ReadI64() = %#x, want %#x", i64, 0x0102030405060708)
	}
	if b.Position() != 12 {
		t.Errorf("Position() = %d, want 12", b.Position())
	}
	if err := b.Seek(0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if err := b.SkipBytes(4); err != nil {
		t.Fatalf("SkipBytes: %v", err)
	}
	if b.Position() != 4 {
		t.Errorf("Position() after skip = %d, want 4", b.Position())
	}
	if err := b.SkipBytes(1000); err == nil {
		t.Error("SkipBytes past end of file should fail")
	}
}

func TestPagedReadsUnaligned(t *testing.T) {
	path := buildUnalignedFixture(t)
	b, err := OpenPaged(path)
	if err != nil {
		t.Fatalf("OpenPaged: %v", err)
	}
	defer b.Close()
	testBuffer(t, b)
}

func TestMemoryMappedReadsUnaligned(t *testing.T) {
	path := buildUnalignedFixture(t)
	b, err := OpenMemoryMapped(path)
	if err != nil {
		t.Fatalf("OpenMemoryMapped: %v", err)
	}
	defer b.Close()
	testBuffer(t, b)
}

func TestPagedTruncated(t *testing.T) {
	path := buildUnalignedFixture(t)
	b, err := OpenPaged(path)
	if err != nil {
		t.Fatalf("OpenPaged: %v", err)
	}
	defer b.Close()
	if err := b.Seek(11); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	var buf [4]byte
	err = b.ReadBytes(buf[:])
	if err == nil {
		t.Fatal("ReadBytes past end of file should fail")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadBytes error = %v, want one wrapping io.ErrUnexpectedEOF", err)
	}
}

func TestPagedCrossesPageBoundary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	data := make([]byte, pageSize*3)
	for i := range data {
		data[i] = byte(i)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatal(err)
	}
	f.Close()

	b, err := OpenPaged(path)
	if err != nil {
		t.Fatalf("OpenPaged: %v", err)
	}
	defer b.Close()
	if err := b.Seek(pageSize - 2); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	out := make([]byte, 4)
	if err := b.ReadBytes(out); err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	want := data[pageSize-2 : pageSize+2]
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("ReadBytes across page boundary = %v, want %v", out, want)
		}
	}
}
