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

// Package analyze implements the single-pass time-history engine
// (spec.md §4.8): one traversal of every state, dispatching to every
// configured reduction and accumulating per-part, per-surface, and
// per-part-motion time series.
package analyze

import "github.com/dynaread/d3plot/tensor"

// ParallelismMode selects how SinglePassEngine parallelizes work across a
// run, per spec.md §4.8. The zero value is StateLevel, the documented
// default.
type ParallelismMode int

const (
	// StateLevel decodes states sequentially (the stream has one cursor)
	// but reduces a bounded window of already-decoded states concurrently
	// on a worker pool.
	StateLevel ParallelismMode = iota
	// ElementLevel processes states strictly in order, parallelizing the
	// per-element reduction loop within each state.
	ElementLevel
)

// SurfaceSpec configures one direction-filtered exterior-surface analysis
// (spec.md §9's flat configuration object).
type SurfaceSpec struct {
	Name                  string
	Direction             tensor.Vec3
	AngleThresholdDegrees float64
	PartFilter            []int // empty = all parts contribute faces

	// IncludeShells adds shell elements' own top faces to this surface's
	// candidate set (spec.md §4.6); they are never deduplicated against
	// solid faces or each other, since each shell is its own boundary.
	IncludeShells bool
	// IncludeShellBottomFaces additionally contributes each included
	// shell's bottom face (inward-facing normal reversed).
	IncludeShellBottomFaces bool
}

// ProgressFunc is invoked once per processed state (or at an
// implementation-controlled cadence); it must be side-effect-free with
// respect to engine state (spec.md §4.8 step 1).
type ProgressFunc func(phaseTag string, current, total int, message string)

// Config is the flat, no-plugin-interface configuration object spec.md
// §9 calls for.
type Config struct {
	AnalyzeVonMises               bool
	AnalyzeEffectivePlasticStrain bool
	AnalyzeMotion                 bool

	SurfaceSpecs []SurfaceSpec

	// PartFilter restricts per-part stress/strain and motion analyses to
	// these part IDs; empty means every part in the mesh.
	PartFilter []int

	Parallelism ParallelismMode
	// MaxWorkers bounds the state-level worker pool; <= 0 means
	// runtime.GOMAXPROCS(0).
	MaxWorkers int

	Progress ProgressFunc
	// Cancel, when non-nil, is checked at each state boundary (spec.md
	// §5's cancellation-at-state-boundary contract).
	Cancel <-chan struct{}
}
