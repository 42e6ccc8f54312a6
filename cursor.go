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
	"io"
	"math"

	"github.com/dynaread/d3plot/d3perr"
)

// BinaryCursor is a typed, endian-aware, word-addressed reader over a
// segmented byte stream (normally a *FileFamily). It tracks the current
// word position and is the only place in the package that converts raw
// bytes to numbers.
//
// BinaryCursor is not safe for concurrent use; callers that read the same
// underlying stream from multiple goroutines should open independent
// cursors (see Reader's parallel-mode wiring), since positioned reads on
// the shared io.ReaderAt are themselves safe for concurrent use.
type BinaryCursor struct {
	r      io.ReaderAt
	format FileFormat
	pos    int64 // current word position
}

// NewBinaryCursor builds a cursor over r using format's word size and
// endianness, starting at word 0.
func NewBinaryCursor(r io.ReaderAt, format FileFormat) *BinaryCursor {
	return &BinaryCursor{r: r, format: format}
}

// Pos returns the current word position.
func (c *BinaryCursor) Pos() int64 { return c.pos }

// SeekWord moves the cursor to an absolute word position.
func (c *BinaryCursor) SeekWord(word int64) { c.pos = word }

// WordSize returns the word size in bytes (4 or 8).
func (c *BinaryCursor) WordSize() int { return c.format.WordSize }

// readRaw reads n words starting at the cursor position into a byte slice,
// advancing the cursor by n words. When allowCleanEOF is true and the
// stream has exactly zero bytes remaining at the start of the read, the
// unwrapped io.EOF is returned instead of a Truncated error — used only by
// TryReadFloat to let StateIterator distinguish a clean end of stream from
// a record cut off mid-way.
func (c *BinaryCursor) readRaw(n int, allowCleanEOF bool) ([]byte, error) {
	ws := c.format.WordSize
	buf := make([]byte, n*ws)
	byteOff := c.pos * int64(ws)
	read, err := c.r.ReadAt(buf, byteOff)
	c.pos += int64(n)
	if err != nil {
		if err == io.EOF && read == len(buf) {
			return buf, nil
		}
		if err == io.EOF && read == 0 && allowCleanEOF {
			return nil, io.EOF
		}
		return buf[:read], d3perr.Wrap(d3perr.Truncated, "reading word stream", err)
	}
	return buf, nil
}

// ReadFloats reads n consecutive words as float64 (widened from float32 if
// the stream's word size is 4 bytes).
func (c *BinaryCursor) ReadFloats(n int) ([]float64, error) {
	raw, err := c.readRaw(n, false)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	ws := c.format.WordSize
	for i := 0; i < n; i++ {
		word := raw[i*ws : (i+1)*ws]
		if ws == 4 {
			bits := c.format.Endian.Uint32(word)
			out[i] = float64(math.Float32frombits(bits))
		} else {
			bits := c.format.Endian.Uint64(word)
			out[i] = math.Float64frombits(bits)
		}
	}
	return out, nil
}

// ReadFloat reads a single word as float64.
func (c *BinaryCursor) ReadFloat() (float64, error) {
	v, err := c.ReadFloats(1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

// ReadInts reads n consecutive words as two's-complement signed integers.
func (c *BinaryCursor) ReadInts(n int) ([]int64, error) {
	raw, err := c.readRaw(n, false)
	if err != nil {
		return nil, err
	}
	out := make([]int64, n)
	ws := c.format.WordSize
	for i := 0; i < n; i++ {
		word := raw[i*ws : (i+1)*ws]
		if ws == 4 {
			out[i] = int64(int32(c.format.Endian.Uint32(word)))
		} else {
			out[i] = int64(c.format.Endian.Uint64(word))
		}
	}
	return out, nil
}

// ReadInt reads a single word as a signed integer.
func (c *BinaryCursor) ReadInt() (int64, error) {
	v, err := c.ReadInts(1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

// ReadRawWords reads n words verbatim, without numeric interpretation
// (used for the title region, which is ASCII packed into words).
func (c *BinaryCursor) ReadRawWords(n int) ([]byte, error) {
	return c.readRaw(n, false)
}

// Skip advances the cursor by n words without reading.
func (c *BinaryCursor) Skip(n int64) { c.pos += n }

// TryReadFloat reads a single word as float64, but reports a clean end of
// stream (zero bytes remaining) via eof=true, err=nil instead of an
// error. Any other short read is still reported as a Truncated error.
func (c *BinaryCursor) TryReadFloat() (value float64, eof bool, err error) {
	raw, err := c.readRaw(1, true)
	if err == io.EOF {
		return 0, true, nil
	}
	if err != nil {
		return 0, false, err
	}
	ws := c.format.WordSize
	if ws == 4 {
		return float64(math.Float32frombits(c.format.Endian.Uint32(raw))), false, nil
	}
	return math.Float64frombits(c.format.Endian.Uint64(raw)), false, nil
}
