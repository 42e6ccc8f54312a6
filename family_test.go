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

func writeSegment(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestFileFamilyDiscoversContiguousSegments(t *testing.T) {
	dir := t.TempDir()
	writeSegment(t, dir, "d3plot", []byte("ABCD"))
	writeSegment(t, dir, "d3plot01", []byte("EFGH"))
	writeSegment(t, dir, "d3plot02", []byte("IJ"))
	// A gap at 03 must stop discovery even though 04 exists.
	writeSegment(t, dir, "d3plot04", []byte("ZZ"))

	ff, err := OpenFileFamily(filepath.Join(dir, "d3plot"))
	require.NoError(t, err)
	defer ff.Close()

	assert.Equal(t, 3, ff.NumSegments())
	assert.EqualValues(t, 10, ff.Size())
}

func TestFileFamilyReadAtSpansSegmentBoundary(t *testing.T) {
	dir := t.TempDir()
	writeSegment(t, dir, "d3plot", []byte("ABCD"))
	writeSegment(t, dir, "d3plot01", []byte("EFGH"))

	ff, err := OpenFileFamily(filepath.Join(dir, "d3plot"))
	require.NoError(t, err)
	defer ff.Close()

	buf := make([]byte, 4)
	n, err := ff.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "CDEF", string(buf))
}

func TestFileFamilyReadAtPastEndReturnsEOF(t *testing.T) {
	dir := t.TempDir()
	writeSegment(t, dir, "d3plot", []byte("ABCD"))

	ff, err := OpenFileFamily(filepath.Join(dir, "d3plot"))
	require.NoError(t, err)
	defer ff.Close()

	buf := make([]byte, 4)
	n, err := ff.ReadAt(buf, 2)
	assert.Equal(t, 2, n)
	assert.Error(t, err)
}

func TestOpenFileFamilyMissingBaseFails(t *testing.T) {
	dir := t.TempDir()
	_, err := OpenFileFamily(filepath.Join(dir, "nope"))
	assert.Equal(t, FileNotFound, ErrorKind(err))
}
