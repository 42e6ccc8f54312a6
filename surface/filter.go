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

package surface

import (
	"math"

	"github.com/dynaread/d3plot/tensor"
)

// FilterByDirection keeps faces whose outward normal lies within
// thresholdDegrees of reference, per spec.md §4.6: a face passes iff
// acos(clamp(n . r_hat, -1, 1)) <= thresholdDegrees.
func FilterByDirection(faces []Face, reference tensor.Vec3, thresholdDegrees float64) []Face {
	r := reference.NormalizedSafe()
	thresholdRad := thresholdDegrees * math.Pi / 180

	out := make([]Face, 0, len(faces))
	for _, f := range faces {
		if f.Normal.AngleTo(r) <= thresholdRad {
			out = append(out, f)
		}
	}
	return out
}

// FilterByPart keeps faces whose PartID is in partIDs.
func FilterByPart(faces []Face, partIDs []int) []Face {
	wanted := make(map[int]bool, len(partIDs))
	for _, p := range partIDs {
		wanted[p] = true
	}
	out := make([]Face, 0, len(faces))
	for _, f := range faces {
		if wanted[f.PartID] {
			out = append(out, f)
		}
	}
	return out
}
