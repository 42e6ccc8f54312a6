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

package analyze

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/dynaread/d3plot/tensor"
)

// MotionIntegrator accumulates one part's average nodal displacement per
// step and derives velocity/acceleration by two-point finite differencing
// (spec.md §4.9).
type MotionIntegrator struct {
	partID      int
	nodeIndices []int // deduplicated, ascending, internal 0-based
	nodeUserIDs []int // parallel to nodeIndices

	step             int
	prevTime         float64
	prevAvgDisp      tensor.Vec3
	prevVelocity     tensor.Vec3
}

// NewMotionIntegrator builds an integrator over the union of node indices
// referenced by a part's elements, deduplicated and sorted so iteration
// order (and therefore the gonum/floats.Sum reduction below) is
// independent of element traversal order.
func NewMotionIntegrator(partID int, nodeIndices []int, nodeUserIDs []int) *MotionIntegrator {
	unique := dedupSorted(nodeIndices)
	userIDs := make([]int, len(unique))
	for i, idx := range unique {
		userIDs[i] = nodeUserIDs[idx]
	}
	return &MotionIntegrator{partID: partID, nodeIndices: unique, nodeUserIDs: userIDs}
}

func dedupSorted(indices []int) []int {
	seen := make(map[int]bool, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// MotionStep is one state's worth of motion output for a part.
type MotionStep struct {
	AvgDisplacement          tensor.Vec3
	AvgDisplacementMagnitude float64
	AvgVelocity              tensor.Vec3
	AvgAcceleration          tensor.Vec3
	MaxNodeDisplacement      float64
	ArgMaxNodeUserID         int
}

// Step consumes one state's node displacement array (node-major,
// component-minor, length NUMNP*effNDIM) and returns this part's motion
// for that state, per spec.md §4.9's formulas.
func (m *MotionIntegrator) Step(time float64, nodeDisplacements []float64, effNDIM int) MotionStep {
	n := len(m.nodeIndices)
	if n == 0 || len(nodeDisplacements) == 0 {
		m.advance(time, tensor.Vec3{}, tensor.Vec3{})
		return MotionStep{}
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	zs := make([]float64, n)
	maxDisp := -1.0
	argmaxUserID := 0

	for i, nodeIdx := range m.nodeIndices {
		base := nodeIdx * effNDIM
		var v tensor.Vec3
		v.X = nodeDisplacements[base]
		if effNDIM > 1 {
			v.Y = nodeDisplacements[base+1]
		}
		if effNDIM > 2 {
			v.Z = nodeDisplacements[base+2]
		}
		xs[i], ys[i], zs[i] = v.X, v.Y, v.Z

		mag := v.Magnitude()
		if mag > maxDisp {
			maxDisp = mag
			argmaxUserID = m.nodeUserIDs[i]
		}
	}

	avg := tensor.Vec3{
		X: floats.Sum(xs) / float64(n),
		Y: floats.Sum(ys) / float64(n),
		Z: floats.Sum(zs) / float64(n),
	}

	dt := time - m.prevTime
	var velocity, acceleration tensor.Vec3
	if m.step >= 1 && dt > 0 {
		velocity = avg.Sub(m.prevAvgDisp).Scale(1 / dt)
	}
	if m.step >= 2 && dt > 0 {
		acceleration = velocity.Sub(m.prevVelocity).Scale(1 / dt)
	}

	result := MotionStep{
		AvgDisplacement:          avg,
		AvgDisplacementMagnitude: avg.Magnitude(),
		AvgVelocity:              velocity,
		AvgAcceleration:          acceleration,
		MaxNodeDisplacement:      maxDisp,
		ArgMaxNodeUserID:         argmaxUserID,
	}

	m.advance(time, avg, velocity)
	return result
}

func (m *MotionIntegrator) advance(time float64, avg, velocity tensor.Vec3) {
	m.prevTime = time
	m.prevAvgDisp = avg
	m.prevVelocity = velocity
	m.step++
}
