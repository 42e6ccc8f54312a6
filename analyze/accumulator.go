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

import "gonum.org/v1/gonum/floats"

// stepValues holds one step's per-eligible-entity scalar values and the
// user IDs they belong to, written at fixed slice positions regardless of
// which goroutine computed which entry, so that element-level parallel
// mode produces thread-count-independent results (spec.md §4.8
// Determinism).
type stepValues struct {
	values  []float64
	userIDs []int
	// valid is true for entries that were set and false for entries
	// skipped due to a non-finite reduction (spec.md §4.8 Failure
	// handling): those are counted as a warning, excluded from the
	// reduction, never aborting the step.
	valid []bool
}

func newStepValues(n int) *stepValues {
	return &stepValues{
		values:  make([]float64, n),
		userIDs: make([]int, n),
		valid:   make([]bool, n),
	}
}

func (s *stepValues) set(i int, userID int, value float64) {
	s.userIDs[i] = userID
	s.values[i] = value
	s.valid[i] = true
}

// reduce computes one TimePoint from a step's collected values. It scans
// in fixed index order for min/max/argmin/argmax (order-independent
// results) and uses gonum/floats.Sum for the mean's sum, which fixes the
// pairwise summation tree layout so the result is identical regardless of
// how many goroutines filled the slice.
func (s *stepValues) reduce(t float64) (TimePoint, int) {
	var values []float64
	var userIDs []int
	for i, ok := range s.valid {
		if ok {
			values = append(values, s.values[i])
			userIDs = append(userIDs, s.userIDs[i])
		}
	}
	if len(values) == 0 {
		return TimePoint{Time: t}, 0
	}

	min, max := values[0], values[0]
	argmin, argmax := userIDs[0], userIDs[0]
	for i, v := range values {
		if v < min {
			min, argmin = v, userIDs[i]
		}
		if v > max {
			max, argmax = v, userIDs[i]
		}
	}
	sum := floats.Sum(values)
	mean := sum / float64(len(values))

	return TimePoint{
		Time:                t,
		Max:                 max,
		Min:                 min,
		Mean:                mean,
		ArgMaxElementUserID: argmax,
		ArgMinElementUserID: argmin,
	}, len(s.values) - len(values)
}
