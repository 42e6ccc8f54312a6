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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTwoStateHexFile(t *testing.T) string {
	t.Helper()
	var w testWriter
	w.writeControlBlock(testControlSpec{
		ndim: 3, numnp: 8,
		iu: 1, nglbv: 1,
		nel8: 1, nv3d: 7,
	})
	w.writeUnitCubeNodes()
	w.writeSolidConnectivity(1)

	w.float32(0.0)
	w.floats(0.0)
	w.zeroWords(24)
	w.floats(100, 50, 0, 10, 0, 0, 0.01)

	w.float32(0.001)
	w.floats(1.0)
	for i := 0; i < 8; i++ {
		w.floats(0.01, 0, 0)
	}
	w.floats(110, 55, 0, 12, 0, 0, 0.02)

	w.writeSentinel()
	return w.writeFile(t)
}

func TestOpenReadAllStatesRoundTrip(t *testing.T) {
	path := buildTwoStateHexFile(t)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Len(t, r.Mesh().Nodes, 8)
	assert.Equal(t, []int{1}, r.PartIndex().Parts())

	states, err := r.ReadAllStates()
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, 0.0, states[0].Time)
	assert.InDelta(t, 0.001, states[1].Time, 1e-9)

	n, err := r.NumStates()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	times, err := r.StateTimes()
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.Equal(t, 0.0, times[0])
	assert.InDelta(t, 0.001, times[1], 1e-9)

	s1, err := r.StateAt(1)
	require.NoError(t, err)
	assert.InDelta(t, 110.0, s1.SolidStressTensor(0).XX, 1e-9)

	_, err = r.StateAt(5)
	require.Error(t, err)
	assert.Equal(t, CorruptedData, ErrorKind(err))
}

func TestOpenIsIdempotentAcrossReopens(t *testing.T) {
	path := buildTwoStateHexFile(t)

	r1, err := Open(path)
	require.NoError(t, err)
	defer r1.Close()
	cb1 := r1.ControlBlock()
	states1, err := r1.ReadAllStates()
	require.NoError(t, err)

	r2, err := Open(path)
	require.NoError(t, err)
	defer r2.Close()
	cb2 := r2.ControlBlock()
	states2, err := r2.ReadAllStates()
	require.NoError(t, err)

	assert.Equal(t, cb1, cb2)
	require.Len(t, states2, len(states1))
	for i := range states1 {
		assert.Equal(t, states1[i].Time, states2[i].Time)
	}
}

// TestFamilyWithSentinelInSecondSegment reproduces spec.md §8's
// multi-segment scenario: the base file holds one complete state, and a
// second physical segment holds four more states followed by the
// negative-time sentinel as the fifth record's time word (each state is a
// single time word here) — the reader must see exactly five states total
// with no double-counting
// across the segment boundary.
func TestFamilyWithSentinelInSecondSegment(t *testing.T) {
	var base testWriter
	base.writeControlBlock(testControlSpec{ndim: 3, numnp: 1, nglbv: 0})
	base.floats(0, 0, 0)
	base.float32(0.0) // state 0

	var seg1 testWriter
	for i := 1; i <= 4; i++ {
		seg1.float32(float32(i) * 0.1) // states 1..4
	}
	seg1.writeSentinel()

	dir := t.TempDir()
	basePath := filepath.Join(dir, "d3plot")
	require.NoError(t, os.WriteFile(basePath, base.buf.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(basePath+"01", seg1.buf.Bytes(), 0o644))

	r, err := Open(basePath)
	require.NoError(t, err)
	defer r.Close()

	states, err := r.ReadAllStates()
	require.NoError(t, err)
	require.Len(t, states, 5)
	assert.Equal(t, 0.0, states[0].Time)
	assert.InDelta(t, 0.4, states[4].Time, 1e-6)

	times, err := r.StateTimes()
	require.NoError(t, err)
	require.Len(t, times, 5)
	assert.InDelta(t, 0.4, times[4], 1e-6)
}
