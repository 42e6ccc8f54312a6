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
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildOneHexStateStream builds a control block + single-hex geometry +
// two states + sentinel, and returns the decoded ControlBlock, a cursor
// over the whole stream (at word 0), and the word position where the
// state region starts.
func buildOneHexStateStream(t *testing.T) (ControlBlock, *BinaryCursor, int64) {
	t.Helper()

	var w testWriter
	w.writeControlBlock(testControlSpec{
		ndim: 3, numnp: 8,
		iu: 1, nglbv: 1,
		nel8: 1, nv3d: 7,
	})
	w.writeUnitCubeNodes()
	w.writeSolidConnectivity(1)

	cb, err := decodeControlBlock(NewBinaryCursor(bytes.NewReader(w.buf.Bytes()), candidateFormats[0]))
	require.NoError(t, err)

	startOfStates := int64(controlBlockWords) + int64(cb.NUMNP*cb.NDIM) + 9 // one hex record

	// State 0: time=0, global=0, zero displacement, stress (100,50,0,10,0,0), eps=0.01.
	w.float32(0.0)
	w.floats(0.0)
	w.zeroWords(24) // 8 nodes * 3 components displacement
	w.floats(100, 50, 0, 10, 0, 0, 0.01)

	// State 1: time=0.001, global=1, +0.01 x translation, stress (110,55,0,12,0,0), eps=0.02.
	w.float32(0.001)
	w.floats(1.0)
	for i := 0; i < 8; i++ {
		w.floats(0.01, 0, 0)
	}
	w.floats(110, 55, 0, 12, 0, 0, 0.02)

	w.writeSentinel()

	fullCursor := NewBinaryCursor(bytes.NewReader(w.buf.Bytes()), candidateFormats[0])
	return cb, fullCursor, startOfStates
}

func TestStateDecoderDecodesTwoStatesThenStops(t *testing.T) {
	cb, cursor, start := buildOneHexStateStream(t)
	it := NewStateIterator(cursor, cb, start)

	s0, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.0, s0.Time)
	assert.InDelta(t, 100.0, s0.SolidStressTensor(0).XX, 1e-9)
	assert.InDelta(t, 0.01, s0.SolidEffectivePlasticStrain(0), 1e-9)

	s1, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.001, s1.Time, 1e-9)
	assert.InDelta(t, 0.01, s1.NodeDisplacements[0], 1e-9)

	_, ok, err = it.Next()
	require.NoError(t, err)
	assert.False(t, ok, "sentinel must stop iteration without emitting a state")
}

func TestStateDecoderStopsCleanlyAtEOFWithoutSentinel(t *testing.T) {
	var w testWriter
	w.writeControlBlock(testControlSpec{ndim: 3, numnp: 1, nglbv: 0})
	w.floats(0, 0, 0) // one node
	cb, err := decodeControlBlock(NewBinaryCursor(bytes.NewReader(w.buf.Bytes()), candidateFormats[0]))
	require.NoError(t, err)

	w.float32(0.0) // a single complete state, then nothing — no sentinel

	cursor := NewBinaryCursor(bytes.NewReader(w.buf.Bytes()), candidateFormats[0])
	start := int64(controlBlockWords) + 3
	it := NewStateIterator(cursor, cb, start)

	_, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = it.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStateDecoderNaNTimeIsCorrupted(t *testing.T) {
	var w testWriter
	w.writeControlBlock(testControlSpec{ndim: 3, numnp: 1})
	w.floats(0, 0, 0)
	cb, err := decodeControlBlock(NewBinaryCursor(bytes.NewReader(w.buf.Bytes()), candidateFormats[0]))
	require.NoError(t, err)

	w.float32(float32(math.NaN()))

	cursor := NewBinaryCursor(bytes.NewReader(w.buf.Bytes()), candidateFormats[0])
	start := int64(controlBlockWords) + 3
	it := NewStateIterator(cursor, cb, start)

	_, _, err = it.Next()
	require.Error(t, err)
	assert.Equal(t, CorruptedData, ErrorKind(err))
}

func TestStateDecoderTruncatedMidRecordFails(t *testing.T) {
	var w testWriter
	w.writeControlBlock(testControlSpec{ndim: 3, numnp: 1, nglbv: 4})
	w.floats(0, 0, 0)
	cb, err := decodeControlBlock(NewBinaryCursor(bytes.NewReader(w.buf.Bytes()), candidateFormats[0]))
	require.NoError(t, err)

	w.float32(0.0)
	w.floats(1, 2) // only 2 of 4 declared globals present, then EOF

	cursor := NewBinaryCursor(bytes.NewReader(w.buf.Bytes()), candidateFormats[0])
	start := int64(controlBlockWords) + 3
	it := NewStateIterator(cursor, cb, start)

	_, _, err = it.Next()
	require.Error(t, err)
	assert.Equal(t, Truncated, ErrorKind(err))
}
