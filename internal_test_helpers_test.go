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
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// testWriter builds a little-endian, 4-byte-word family file byte by
// byte, mirroring the layout readGeometry/StateDecoder expect. It exists
// only to give the root package's tests a realistic, hand-checkable
// fixture without depending on a real LS-DYNA output file.
type testWriter struct {
	buf bytes.Buffer
}

func (w *testWriter) int32(v int32)     { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *testWriter) float32(v float32) { binary.Write(&w.buf, binary.LittleEndian, v) }

func (w *testWriter) ints(vs ...int32) {
	for _, v := range vs {
		w.int32(v)
	}
}

func (w *testWriter) floats(vs ...float32) {
	for _, v := range vs {
		w.float32(v)
	}
}

func (w *testWriter) zeroWords(n int) {
	for i := 0; i < n; i++ {
		w.int32(0)
	}
}

// testControlSpec is the small subset of ControlBlock fields the fixture
// builder needs; everything else defaults to zero.
type testControlSpec struct {
	ndim, numnp         int32
	it, iu, iv, ia       int32
	nglbv                int32
	nel8, nv3d           int32
	nel2, nv1d           int32
	nel4, nv2d           int32
	narbs                int32
}

// writeControlBlock appends the 64-word control block, leaving every
// field not named in testControlSpec at zero apart from ICODE, which is
// set to a fixed non-zero value (the zeros decode to NUMMAT8=0,
// NELT=0, IOSHL=0, Extra=0, etc. — all benign for these fixtures).
func (w *testWriter) writeControlBlock(s testControlSpec) {
	words := make([]int32, controlBlockWords)
	words[14] = s.ndim
	words[15] = s.numnp
	words[16] = 6 // ICODE, arbitrary non-zero
	words[17] = s.nglbv
	words[18] = s.it
	words[19] = s.iu
	words[20] = s.iv
	words[21] = s.ia
	words[22] = s.nel8
	words[27] = s.nv3d
	words[28] = s.nel2
	words[30] = s.nv1d
	words[31] = s.nel4
	words[33] = s.nv2d
	words[39] = s.narbs
	w.ints(words...)
}

// unitCubeNodes is the eight corner coordinates in the same local
// numbering the surface package's hex face table assumes.
var unitCubeNodes = [8][3]float32{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

func (w *testWriter) writeUnitCubeNodes() {
	for _, n := range unitCubeNodes {
		w.floats(n[0], n[1], n[2])
	}
}

// writeSolidConnectivity writes one 8-node hex element (1-based node IDs
// 1..8) belonging to partID.
func (w *testWriter) writeSolidConnectivity(partID int32) {
	w.ints(1, 2, 3, 4, 5, 6, 7, 8, partID)
}

// writeSentinel appends the single-word negative-time end-of-stream
// marker.
func (w *testWriter) writeSentinel() {
	w.float32(-1.0)
}

// writeFile flushes the builder's buffer to a temp file named "d3plot"
// under t's temp directory and returns its path.
func (w *testWriter) writeFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "d3plot")
	if err := os.WriteFile(path, w.buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing fixture file: %v", err)
	}
	return path
}
