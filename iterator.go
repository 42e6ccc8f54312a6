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
	"math"

	"github.com/dynaread/d3plot/d3perr"
)

// StateIterator enumerates state records at the fixed stride
// ControlBlock.StateWords (spec.md §4.4), stopping at the negative-time
// sentinel or at stream exhaustion, whichever comes first. It never
// emits a partial state.
type StateIterator struct {
	decoder *StateDecoder
	pos     int64
	stride  int64
	done    bool
}

// NewStateIterator builds an iterator starting at startWord, the word
// position immediately following geometry (and ARBS, if present).
func NewStateIterator(cursor *BinaryCursor, cb ControlBlock, startWord int64) *StateIterator {
	return &StateIterator{
		decoder: NewStateDecoder(cursor, cb),
		pos:     startWord,
		stride:  int64(cb.StateWords),
	}
}

// Next returns the next decoded state. ok is false exactly at end of
// stream (err is nil in that case); any non-nil err is a hard failure and
// the iterator must not be called again.
func (it *StateIterator) Next() (data *StateData, ok bool, err error) {
	if it.done {
		return nil, false, nil
	}

	sd, stop, err := it.decoder.DecodeAt(it.pos)
	if err != nil {
		it.done = true
		return nil, false, err
	}
	if stop {
		it.done = true
		return nil, false, nil
	}

	it.pos += it.stride
	return sd, true, nil
}

// NextTimeOnly reads only the next state's time word and skips the rest of
// its stride without decoding nodal or element data, so a full family scan
// never allocates the per-state float blocks it isn't going to use. This
// is the cheap-scan path behind Reader.StateTimes.
func (it *StateIterator) NextTimeOnly() (t float64, ok bool, err error) {
	if it.done {
		return 0, false, nil
	}

	cursor := it.decoder.cursor
	cursor.SeekWord(it.pos)
	t, eof, err := cursor.TryReadFloat()
	if err != nil {
		it.done = true
		return 0, false, err
	}
	if eof || t < 0 {
		it.done = true
		return 0, false, nil
	}
	if math.IsNaN(t) {
		it.done = true
		return 0, false, d3perr.New(d3perr.CorruptedData, "state time word is NaN")
	}

	cursor.Skip(it.stride - 1)
	it.pos += it.stride
	return t, true, nil
}
