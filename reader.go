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
	"github.com/sirupsen/logrus"

	"github.com/dynaread/d3plot/d3perr"
)

// Reader is the public façade over a d3plot family: it owns the open
// FileFamily, the probed FileFormat, the decoded ControlBlock, and the
// materialized Mesh, and hands out StateIterators over the state region
// that follows geometry. Mesh and ControlBlock are immutable once Open
// returns; any number of goroutines may read through the same Reader
// concurrently via independent StateIterators (spec.md §5).
type Reader struct {
	Log logrus.FieldLogger

	path          string
	family        *FileFamily
	format        FileFormat
	control       ControlBlock
	mesh          *Mesh
	partIndex     *PartIndex
	startOfStates int64
}

// Open discovers the family rooted at path, probes its word size and
// endianness, decodes the control block, and materializes the mesh. The
// returned Reader logs through logrus.StandardLogger(); use OpenWithLogger
// to override.
func Open(path string) (*Reader, error) {
	return openWithLogger(path, logrus.StandardLogger())
}

// OpenWithLogger is Open with an explicit logger, e.g. a *logrus.Logger
// scoped with WithField for this dataset. A nil log falls back to
// logrus.StandardLogger().
func OpenWithLogger(path string, log logrus.FieldLogger) (*Reader, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return openWithLogger(path, log)
}

func openWithLogger(path string, log logrus.FieldLogger) (*Reader, error) {
	family, err := OpenFileFamily(path)
	if err != nil {
		return nil, err
	}

	format, control, err := HeaderProbe(family)
	if err != nil {
		family.Close()
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"path":      path,
		"word_size": format.WordSize,
		"numnp":     control.NUMNP,
		"nel8":      control.NEL8,
	}).Debug("d3plot: header probed")

	cursor := NewBinaryCursor(family, format)
	mesh, err := readGeometry(cursor, control)
	if err != nil {
		family.Close()
		return nil, err
	}

	r := &Reader{
		Log:           log,
		path:          path,
		family:        family,
		format:        format,
		control:       control,
		mesh:          mesh,
		partIndex:     BuildPartIndex(mesh),
		startOfStates: cursor.Pos(),
	}
	log.WithFields(logrus.Fields{
		"numnp":    len(mesh.Nodes),
		"nel8":     len(mesh.Solids),
		"nel4":     len(mesh.Shells),
		"numparts": len(r.partIndex.Parts()),
	}).Info("d3plot: geometry materialized")

	return r, nil
}

// Path returns the family's base path, as passed to Open.
func (r *Reader) Path() string { return r.path }

// Close releases the family's underlying file descriptors.
func (r *Reader) Close() error { return r.family.Close() }

// FileFormat returns the probed word size and endianness.
func (r *Reader) FileFormat() FileFormat { return r.format }

// ControlBlock returns the decoded 64-word descriptor.
func (r *Reader) ControlBlock() ControlBlock { return r.control }

// Mesh returns the materialized geometry. Callers must not mutate it.
func (r *Reader) Mesh() *Mesh { return r.mesh }

// PartIndex returns the element<->part lookup tables.
func (r *Reader) PartIndex() *PartIndex { return r.partIndex }

// NewStateIterator returns a fresh iterator positioned at the first
// state. Every call opens an independent BinaryCursor over the shared
// FileFamily, so multiple iterators may be driven concurrently from
// separate goroutines (spec.md §5's positioned-read sharing policy).
func (r *Reader) NewStateIterator() *StateIterator {
	cursor := NewBinaryCursor(r.family, r.format)
	return NewStateIterator(cursor, r.control, r.startOfStates)
}

// ReadAllStates decodes every state in order. It is the simplest, least
// parallel way to consume a family; SinglePassEngine is preferred for
// anything beyond inspection and round-trip tests.
func (r *Reader) ReadAllStates() ([]*StateData, error) {
	it := r.NewStateIterator()
	var states []*StateData
	for {
		sd, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return states, nil
		}
		states = append(states, sd)
	}
}

// StateAt decodes states sequentially from the start and returns the
// one at index. The underlying stream has no random-access record index,
// so this is O(index) like the format itself.
func (r *Reader) StateAt(index int) (*StateData, error) {
	if index < 0 {
		return nil, d3perr.Newf(d3perr.CorruptedData, "negative state index %d", index)
	}
	it := r.NewStateIterator()
	for i := 0; ; i++ {
		sd, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, d3perr.Newf(d3perr.CorruptedData, "state index %d out of range (only %d states present)", index, i)
		}
		if i == index {
			return sd, nil
		}
	}
}

// StateTimes returns every state's time value by seeking past each
// state's nodal and element blocks rather than decoding them, so a family
// with many large states scans in roughly the time it takes to read one
// word per state — callers that need every field should use
// ReadAllStates or SinglePassEngine instead.
func (r *Reader) StateTimes() ([]float64, error) {
	it := r.NewStateIterator()
	var times []float64
	for {
		t, ok, err := it.NextTimeOnly()
		if err != nil {
			return nil, err
		}
		if !ok {
			return times, nil
		}
		times = append(times, t)
	}
}

// NumStates counts the states present by iterating the full family.
func (r *Reader) NumStates() (int, error) {
	times, err := r.StateTimes()
	if err != nil {
		return 0, err
	}
	return len(times), nil
}
