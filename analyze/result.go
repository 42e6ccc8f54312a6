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

import "github.com/dynaread/d3plot/tensor"

// TimePoint is one step's reduced value for a single accumulator
// (spec.md §3).
type TimePoint struct {
	Time                float64
	Max, Min, Mean      float64
	ArgMaxElementUserID int
	ArgMinElementUserID int
}

// PartTimeSeriesStats is one part's time series for one scalar quantity.
// OverallMax/OverallMin are computed at finalization from Series and must
// equal the series-wise extrema by construction (spec.md §3).
type PartTimeSeriesStats struct {
	PartID       int
	QuantityName string
	Unit         string
	Series       []TimePoint

	OverallMax     float64
	OverallMaxTime float64
	OverallMin     float64
	OverallMinTime float64
}

// SurfaceTimeSeriesStats is one surface specification's per-step normal
// stress, shear stress, and Von Mises series (spec.md §3).
type SurfaceTimeSeriesStats struct {
	Name                  string
	Direction             tensor.Vec3
	AngleThresholdDegrees float64
	FaceCount             int

	NormalStressSeries []TimePoint
	ShearStressSeries  []TimePoint
	VonMisesSeries     []TimePoint

	// ShearStrainSeries reproduces the source's surface-strain
	// placeholder (effective_plastic_strain / sqrt(3)) verbatim; it is
	// not a physical shear strain. See SPEC_FULL.md's supplemented
	// features and DESIGN.md's Open Question #1.
	ShearStrainSeries        []TimePoint
	ShearStrainIsApproximate bool
}

// MotionTimeSeriesStats is one part's motion time series (spec.md §3,
// §4.9).
type MotionTimeSeriesStats struct {
	PartID int
	Times  []float64

	AvgDisplacement          []tensor.Vec3
	AvgDisplacementMagnitude []float64
	AvgVelocity              []tensor.Vec3
	AvgAcceleration          []tensor.Vec3

	MaxNodeDisplacement []float64
	ArgMaxNodeUserID    []int
}

// AnalysisResult is the final report returned by SinglePassEngine.Run
// (spec.md §3).
type AnalysisResult struct {
	InputPath             string
	ImplementationVersion string
	StateCount            int
	TimeRangeStart        float64
	TimeRangeEnd          float64
	AnalyzedParts         []int

	PartStats    []PartTimeSeriesStats
	SurfaceStats []SurfaceTimeSeriesStats
	MotionStats  []MotionTimeSeriesStats

	// Warnings counts non-fatal numerical anomalies (non-finite stress
	// values, zero-area faces) per spec.md §4.8 and §7, keyed by a short
	// stable reason string.
	Warnings map[string]int
}

func finalizePartStats(p *PartTimeSeriesStats) {
	if len(p.Series) == 0 {
		return
	}
	p.OverallMax, p.OverallMaxTime = p.Series[0].Max, p.Series[0].Time
	p.OverallMin, p.OverallMinTime = p.Series[0].Min, p.Series[0].Time
	for _, tp := range p.Series[1:] {
		if tp.Max > p.OverallMax {
			p.OverallMax, p.OverallMaxTime = tp.Max, tp.Time
		}
		if tp.Min < p.OverallMin {
			p.OverallMin, p.OverallMinTime = tp.Min, tp.Time
		}
	}
}
