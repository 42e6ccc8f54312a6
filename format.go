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

package d3plot

import (
	"encoding/binary"
	"io"

	"github.com/dynaread/d3plot/d3perr"
)

// FileFormat describes the two low-level encoding choices that an
// unlabeled d3plot header leaves implicit: word width and byte order.
// Every BinaryCursor is bound to exactly one FileFormat for its lifetime.
type FileFormat struct {
	WordSize int // 4 or 8
	Endian   binary.ByteOrder
	Version  float64 // word 11, as a floating-point code/release marker
}

// candidateFormats enumerates every combination HeaderProbe tries, in the
// fixed order required by spec.md §4.1: little-endian 4-byte first, since
// it is by far the most common production encoding.
var candidateFormats = []FileFormat{
	{WordSize: 4, Endian: binary.LittleEndian},
	{WordSize: 4, Endian: binary.BigEndian},
	{WordSize: 8, Endian: binary.LittleEndian},
	{WordSize: 8, Endian: binary.BigEndian},
}

// HeaderProbe determines the word size and endianness of r by trying each
// candidate encoding in turn, decoding a tentative control block, and
// accepting the first one whose fields satisfy spec.md §4.1's
// plausibility predicates (NDIM range, IU/IV/IA/IT booleans, non-negative
// bounded element counts, printable title). It returns the accepted
// format together with the control block decoded under it, so callers
// never decode the control block twice. The accepted format's Version is
// read from word 11 for informational purposes only; it is never checked,
// since validate() already rejects the combinations that matter.
func HeaderProbe(r io.ReaderAt) (FileFormat, ControlBlock, error) {
	var lastErr error
	for _, candidate := range candidateFormats {
		cursor := NewBinaryCursor(r, candidate)
		cb, err := decodeControlBlock(cursor)
		if err != nil {
			lastErr = err
			continue
		}

		cursor.SeekWord(0)
		titleRaw, err := cursor.ReadRawWords(10)
		if err != nil {
			lastErr = err
			continue
		}
		if !isPrintableTitle(titleRaw) {
			lastErr = d3perr.New(d3perr.InvalidFormat, "title region is not printable ASCII/NUL")
			continue
		}

		if err := cb.validate(); err != nil {
			lastErr = err
			continue
		}

		cursor.SeekWord(11)
		version, err := cursor.ReadFloat()
		if err != nil {
			lastErr = err
			continue
		}
		candidate.Version = version

		return candidate, cb, nil
	}

	if lastErr == nil {
		lastErr = d3perr.New(d3perr.InvalidFormat, "no candidate word size/endianness combination matched")
	}
	return FileFormat{}, ControlBlock{}, d3perr.Wrap(d3perr.InvalidFormat,
		"header probe exhausted all word size/endianness combinations", lastErr)
}
