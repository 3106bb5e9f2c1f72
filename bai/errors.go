// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bai

import (
	goerrors "errors"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Kind classifies the ways a BAI-shaped index can fail to be built,
// read, or merged.
type Kind int

const (
	// BadMagic: the first 4 bytes of the index do not match Magic.
	BadMagic Kind = iota
	// Truncated: a read would exceed the end of the file.
	Truncated
	// Corrupt: a count or bin number takes an implausible value.
	Corrupt
	// OutOfOrder: the writer's input stream violated the
	// coordinate-sorted contract.
	OutOfOrder
	// BadConcatenation: a virtual offset cannot be safely shifted for
	// the supplied segment layout.
	BadConcatenation
	// Io: an underlying I/O failure.
	Io
)

func (k Kind) String() string {
	switch k {
	case BadMagic:
		return "bad magic"
	case Truncated:
		return "truncated"
	case Corrupt:
		return "corrupt"
	case OutOfOrder:
		return "out of order"
	case BadConcatenation:
		return "bad concatenation"
	case Io:
		return "I/O error"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every fallible operation in this
// package. It wraps the underlying cause (if any) with
// github.com/pkg/errors so the original error text and stack are still
// reachable via errors.Cause/Unwrap.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("bai: %s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("bai: %s: %s", e.Kind, e.msg)
}

// Unwrap returns the wrapped cause, if any, so errors.Is/errors.As see
// through an *Error to the underlying failure.
func (e *Error) Unwrap() error { return e.err }

// Cause returns the wrapped cause, if any, so errors.Cause from
// github.com/pkg/errors sees through an *Error as well.
func (e *Error) Cause() error { return e.err }

// newErr constructs an *Error with no wrapped cause.
func newErr(kind Kind, msg string) error {
	return &Error{Kind: kind, msg: msg}
}

// wrapErr constructs an *Error wrapping cause with github.com/pkg/errors,
// classified as kind.
func wrapErr(kind Kind, msg string, cause error) error {
	if cause == nil {
		return newErr(kind, msg)
	}
	return &Error{Kind: kind, msg: msg, err: errors.WithStack(cause)}
}

// readErr wraps a failed read or skip as Truncated when the underlying
// cause is an EOF-class error (the read simply ran past the end of the
// file), and as Io for every other cause, matching spec.md §7's
// distinction between the two kinds.
func readErr(msg string, cause error) error {
	if goerrors.Is(cause, io.EOF) || goerrors.Is(cause, io.ErrUnexpectedEOF) {
		return wrapErr(Truncated, msg, cause)
	}
	return wrapErr(Io, msg, cause)
}
