/*
Copyright © 2024 the d3plot authors.
This file is part of d3plot.

d3plot is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

d3plot is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with d3plot.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package d3perr defines the error taxonomy shared by every d3plot
// subpackage: a small closed set of Kinds plus an Error that carries one of
// them, a message, and an optional wrapped cause.
package d3perr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a parse or analysis failure. Callers
// should branch on Kind via errors.As, not on Error.Error()'s text.
type Kind int

const (
	// Unknown is the zero value; Error never returns it.
	Unknown Kind = iota

	// FileNotFound indicates a required family segment is missing.
	FileNotFound

	// InvalidFormat indicates header probing failed all candidate
	// word-size/endianness combinations.
	InvalidFormat

	// Truncated indicates a segment ended mid-record.
	Truncated

	// CorruptedData indicates internally-inconsistent data: a NaN time
	// word, out-of-range ARBS offsets, implausible element counts, or a
	// node index outside [0, NUMNP).
	CorruptedData

	// UnsupportedVersion indicates a ControlBlock field combination this
	// implementation refuses to decode.
	UnsupportedVersion

	// Cancelled indicates the engine observed a cancellation request.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case FileNotFound:
		return "FileNotFound"
	case InvalidFormat:
		return "InvalidFormat"
	case Truncated:
		return "Truncated"
	case CorruptedData:
		return "CorruptedData"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every fallible operation in
// this module. It always carries a non-Unknown Kind.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("d3plot: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("d3plot: %s: %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, d3perr.New(d3perr.Truncated, "")).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given Kind that wraps cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Of reports the Kind of err if it is (or wraps) an *Error, and Unknown
// otherwise.
func Of(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
