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
	"fmt"
	"io"
	"os"

	"github.com/dynaread/d3plot/d3perr"
)

// segment is one physical file in a d3plot family.
type segment struct {
	path   string
	file   *os.File
	size   int64 // bytes
	offset int64 // byte offset of this segment's first byte within the logical family stream
}

// FileFamily discovers and orders the segment files of a d3plot dataset
// (base, base01, base02, ...) and exposes them as one logical, seekable
// byte stream via ReadAt.
//
// FileFamily implements io.ReaderAt and io.Closer.
type FileFamily struct {
	basePath string
	segments []segment
	total    int64 // total bytes across all segments
}

// OpenFileFamily discovers every segment of the family rooted at basePath
// and opens them read-only. The base file must exist; numbered
// continuations (basePath+"01", basePath+"02", ...) are included as long as
// they exist contiguously, stopping at the first gap.
func OpenFileFamily(basePath string) (*FileFamily, error) {
	paths, err := discoverSegmentPaths(basePath)
	if err != nil {
		return nil, err
	}

	ff := &FileFamily{basePath: basePath}
	var offset int64
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			ff.Close()
			return nil, d3perr.Wrap(d3perr.FileNotFound, fmt.Sprintf("opening segment %q", p), err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			ff.Close()
			return nil, d3perr.Wrap(d3perr.FileNotFound, fmt.Sprintf("statting segment %q", p), err)
		}
		ff.segments = append(ff.segments, segment{
			path:   p,
			file:   f,
			size:   info.Size(),
			offset: offset,
		})
		offset += info.Size()
	}
	ff.total = offset
	return ff, nil
}

// discoverSegmentPaths returns the ordered list of family segment paths:
// basePath, then basePath+"01", basePath+"02", ..., stopping at the first
// numbered file that doesn't exist. basePath itself must exist.
func discoverSegmentPaths(basePath string) ([]string, error) {
	if _, err := os.Stat(basePath); err != nil {
		return nil, d3perr.Wrap(d3perr.FileNotFound, fmt.Sprintf("base family file %q", basePath), err)
	}
	paths := []string{basePath}
	for n := 1; ; n++ {
		p := fmt.Sprintf("%s%02d", basePath, n)
		if _, err := os.Stat(p); err != nil {
			break
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// NumSegments returns the number of physical files in the family.
func (ff *FileFamily) NumSegments() int { return len(ff.segments) }

// Size returns the total byte length of the logical concatenated stream.
func (ff *FileFamily) Size() int64 { return ff.total }

// ReadAt reads len(p) bytes starting at the logical byte offset off,
// transparently spanning segment boundaries. It satisfies io.ReaderAt.
func (ff *FileFamily) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= ff.total {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}

	idx := ff.segmentIndexFor(off)
	read := 0
	for read < len(p) && idx < len(ff.segments) {
		seg := ff.segments[idx]
		localOff := off + int64(read) - seg.offset
		if localOff >= seg.size {
			idx++
			continue
		}
		n, err := seg.file.ReadAt(p[read:], localOff)
		read += n
		if err != nil && err != io.EOF {
			return read, err
		}
		if n == 0 {
			idx++
			continue
		}
		if localOff+int64(n) < seg.size {
			// Satisfied entirely within this segment.
			break
		}
		idx++
	}

	if read < len(p) {
		return read, io.EOF
	}
	return read, nil
}

func (ff *FileFamily) segmentIndexFor(off int64) int {
	for i, seg := range ff.segments {
		if off < seg.offset+seg.size {
			return i
		}
	}
	return len(ff.segments)
}

// Close closes every open segment file.
func (ff *FileFamily) Close() error {
	var first error
	for _, seg := range ff.segments {
		if seg.file == nil {
			continue
		}
		if err := seg.file.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
