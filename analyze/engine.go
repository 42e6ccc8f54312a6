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
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/dynaread/d3plot"
	"github.com/dynaread/d3plot/d3perr"
	"github.com/dynaread/d3plot/surface"
	"github.com/dynaread/d3plot/tensor"
)

const (
	quantityVonMises               = "von_mises"
	quantityEffectivePlasticStrain = "effective_plastic_strain"
)

// zeroAreaEpsilon bounds the face area below which a face is treated as
// degenerate rather than load-bearing, per spec.md §7.
const zeroAreaEpsilon = 1e-12

// SinglePassEngine drives exactly one traversal of a family's states,
// dispatching every enabled reduction to each state as it is decoded
// (spec.md §4.8). Motion integration always runs in strict decode order,
// independent of Config.Parallelism, because its finite-difference
// recurrence depends on the previous step; only the per-part and
// per-surface scalar reductions are eligible for element-level
// parallelism or state-level pipelining.
type SinglePassEngine struct {
	reader *d3plot.Reader
	config Config

	mesh          *d3plot.Mesh
	partIndex     *d3plot.PartIndex
	analyzedParts []int
	missingParts  int // PartFilter entries absent from partIndex.Parts()

	restFaces []preparedSurface
	motion    map[int]*MotionIntegrator
}

type preparedSurface struct {
	spec  SurfaceSpec
	faces []surface.Face
}

// NewSinglePassEngine prepares an engine over reader's mesh: it resolves
// the analyzed part set, extracts and direction-filters exterior faces
// for every configured SurfaceSpec, and builds one MotionIntegrator per
// analyzed part when motion analysis is enabled. All of this is done
// once, before any state is decoded (spec.md §4.8 step "Setup").
func NewSinglePassEngine(reader *d3plot.Reader, config Config) *SinglePassEngine {
	mesh := reader.Mesh()
	partIndex := reader.PartIndex()

	parts := append([]int{}, config.PartFilter...)
	missingParts := 0
	if len(parts) == 0 {
		parts = append(parts, partIndex.Parts()...)
	} else {
		present := make(map[int]bool, len(partIndex.Parts()))
		for _, p := range partIndex.Parts() {
			present[p] = true
		}
		for _, p := range parts {
			if !present[p] {
				missingParts++
			}
		}
	}
	sort.Ints(parts)

	e := &SinglePassEngine{
		reader:        reader,
		config:        config,
		mesh:          mesh,
		partIndex:     partIndex,
		analyzedParts: parts,
		missingParts:  missingParts,
	}

	if len(config.SurfaceSpecs) > 0 {
		e.restFaces = prepareSurfaces(mesh, config.SurfaceSpecs)
	}
	if config.AnalyzeMotion {
		e.motion = make(map[int]*MotionIntegrator, len(parts))
		for _, p := range parts {
			e.motion[p] = NewMotionIntegrator(p, nodeIndicesOfPart(mesh, partIndex, p), mesh.NodeUserIDs)
		}
	}

	return e
}

func prepareSurfaces(mesh *d3plot.Mesh, specs []SurfaceSpec) []preparedSurface {
	solidFaces := surface.ExtractSolidExteriorFaces(solidInputFromMesh(mesh))

	out := make([]preparedSurface, len(specs))
	for i, spec := range specs {
		faces := solidFaces
		if spec.IncludeShells {
			shellFaces := surface.ExtractShellFaces(shellInputFromMesh(mesh), spec.IncludeShellBottomFaces)
			faces = append(append([]surface.Face{}, faces...), shellFaces...)
		}
		if len(spec.PartFilter) > 0 {
			faces = surface.FilterByPart(faces, spec.PartFilter)
		}
		faces = surface.FilterByDirection(faces, spec.Direction, spec.AngleThresholdDegrees)
		out[i] = preparedSurface{spec: spec, faces: faces}
	}
	return out
}

func solidInputFromMesh(mesh *d3plot.Mesh) surface.SolidInput {
	positions := make([]tensor.Vec3, len(mesh.Nodes))
	for i, n := range mesh.Nodes {
		positions[i] = tensor.Vec3{X: n.X, Y: n.Y, Z: n.Z}
	}
	conn := make([][8]int, len(mesh.Solids))
	partIDs := make([]int, len(mesh.Solids))
	userIDs := make([]int, len(mesh.Solids))
	for i, s := range mesh.Solids {
		conn[i] = s.NodeIndices
		partIDs[i] = s.PartID
		userIDs[i] = s.UserID
	}
	return surface.SolidInput{
		NodePositions: positions,
		NodeUserIDs:   mesh.NodeUserIDs,
		Connectivity:  conn,
		PartIDs:       partIDs,
		UserIDs:       userIDs,
	}
}

func shellInputFromMesh(mesh *d3plot.Mesh) surface.ShellInput {
	positions := make([]tensor.Vec3, len(mesh.Nodes))
	for i, n := range mesh.Nodes {
		positions[i] = tensor.Vec3{X: n.X, Y: n.Y, Z: n.Z}
	}
	conn := make([][4]int, len(mesh.Shells))
	partIDs := make([]int, len(mesh.Shells))
	userIDs := make([]int, len(mesh.Shells))
	for i, s := range mesh.Shells {
		conn[i] = s.NodeIndices
		partIDs[i] = s.PartID
		userIDs[i] = s.UserID
	}
	return surface.ShellInput{
		NodePositions: positions,
		NodeUserIDs:   mesh.NodeUserIDs,
		Connectivity:  conn,
		PartIDs:       partIDs,
		UserIDs:       userIDs,
	}
}

func nodeIndicesOfPart(mesh *d3plot.Mesh, partIndex *d3plot.PartIndex, partID int) []int {
	var idx []int
	for _, ref := range partIndex.ElementsOf(partID) {
		switch ref.Class {
		case d3plot.ClassSolid:
			idx = append(idx, mesh.Solids[ref.Index].NodeIndices[:]...)
		case d3plot.ClassThickShell:
			idx = append(idx, mesh.ThickShells[ref.Index].NodeIndices[:]...)
		case d3plot.ClassBeam:
			idx = append(idx, mesh.Beams[ref.Index].NodeIndices[:]...)
		case d3plot.ClassShell:
			idx = append(idx, mesh.Shells[ref.Index].NodeIndices[:]...)
		}
	}
	return idx
}

// stateReduction is the thread-count-independent output of reducing one
// state's stress/strain quantities, computed either sequentially
// (state-level parallel mode) or with the element loop itself
// parallelized (element-level mode). It carries no reference to the
// decoded StateData, so it may be produced out of order and reordered by
// seq before being merged into the result's series.
type stateReduction struct {
	seq           int
	part          map[string]map[int]TimePoint // quantity -> partID -> point
	surf          map[string]surfaceStep       // spec name -> point
	warnings      int
	shellSkips    int
	zeroAreaSkips int
}

type surfaceStep struct {
	normal, shear, vonMises, shearStrain TimePoint
}

// Run executes the single pass and returns the assembled result. It
// returns a Cancelled-kind error, discarding all partial accumulation,
// if config.Cancel closes before the family is exhausted; any decode
// error is likewise returned with the run's partial state discarded
// (spec.md §4.8 step "Failure handling").
func (e *SinglePassEngine) Run() (*AnalysisResult, error) {
	quantities := e.enabledQuantities()

	partSeries := make(map[string]map[int]*PartTimeSeriesStats, len(quantities))
	for _, q := range quantities {
		byPart := make(map[int]*PartTimeSeriesStats, len(e.analyzedParts))
		for _, p := range e.analyzedParts {
			byPart[p] = &PartTimeSeriesStats{PartID: p, QuantityName: q, Unit: quantityUnit(q)}
		}
		partSeries[q] = byPart
	}

	surfSeries := make(map[string]*SurfaceTimeSeriesStats, len(e.restFaces))
	for _, ps := range e.restFaces {
		surfSeries[ps.spec.Name] = &SurfaceTimeSeriesStats{
			Name:                     ps.spec.Name,
			Direction:                ps.spec.Direction,
			AngleThresholdDegrees:    ps.spec.AngleThresholdDegrees,
			FaceCount:                len(ps.faces),
			ShearStrainIsApproximate: true,
		}
	}

	motionSeries := make(map[int]*MotionTimeSeriesStats, len(e.motion))
	for p := range e.motion {
		motionSeries[p] = &MotionTimeSeriesStats{PartID: p}
	}

	result := &AnalysisResult{
		InputPath:             e.reader.Path(),
		ImplementationVersion: "1.0.0",
		AnalyzedParts:         append([]int{}, e.analyzedParts...),
		Warnings:              map[string]int{},
	}
	if e.missingParts > 0 {
		result.Warnings["missing_part_elements"] = e.missingParts
	}

	var reduceErr error
	switch e.config.Parallelism {
	case ElementLevel:
		reduceErr = e.runElementLevel(quantities, partSeries, surfSeries, motionSeries, result)
	default:
		reduceErr = e.runStateLevel(quantities, partSeries, surfSeries, motionSeries, result)
	}
	if reduceErr != nil {
		return nil, reduceErr
	}

	for _, byPart := range partSeries {
		for _, p := range e.analyzedParts {
			finalizePartStats(byPart[p])
			result.PartStats = append(result.PartStats, *byPart[p])
		}
	}
	for _, ps := range e.restFaces {
		result.SurfaceStats = append(result.SurfaceStats, *surfSeries[ps.spec.Name])
	}
	for _, p := range e.analyzedParts {
		if ms, ok := motionSeries[p]; ok {
			result.MotionStats = append(result.MotionStats, *ms)
		}
	}
	if result.StateCount > 0 {
		result.TimeRangeStart = firstTime(partSeries, surfSeries, motionSeries)
	}

	return result, nil
}

func firstTime(partSeries map[string]map[int]*PartTimeSeriesStats, surfSeries map[string]*SurfaceTimeSeriesStats, motionSeries map[int]*MotionTimeSeriesStats) float64 {
	for _, ms := range motionSeries {
		if len(ms.Times) > 0 {
			return ms.Times[0]
		}
	}
	for _, byPart := range partSeries {
		for _, p := range byPart {
			if len(p.Series) > 0 {
				return p.Series[0].Time
			}
		}
	}
	for _, s := range surfSeries {
		if len(s.NormalStressSeries) > 0 {
			return s.NormalStressSeries[0].Time
		}
	}
	return 0
}

func (e *SinglePassEngine) enabledQuantities() []string {
	var qs []string
	if e.config.AnalyzeVonMises {
		qs = append(qs, quantityVonMises)
	}
	if e.config.AnalyzeEffectivePlasticStrain {
		qs = append(qs, quantityEffectivePlasticStrain)
	}
	return qs
}

func quantityUnit(name string) string {
	if name == quantityEffectivePlasticStrain {
		return "1"
	}
	return "stress"
}

// reportProgress invokes config.Progress, if set, once per decoded state.
// The total state count is unknown without a second pass over the family,
// so total is reported as -1 (spec.md §5 permits an
// implementation-controlled cadence and does not require a known total).
func (e *SinglePassEngine) reportProgress(seq int, time float64) {
	if e.config.Progress == nil {
		return
	}
	e.config.Progress("decode", seq+1, -1, fmt.Sprintf("state at t=%g", time))
}

func cancelled(cancel <-chan struct{}) bool {
	if cancel == nil {
		return false
	}
	select {
	case <-cancel:
		return true
	default:
		return false
	}
}

// runStateLevel decodes strictly in order, performs motion integration
// immediately, and dispatches the (stateless) stress/strain reduction of
// each state to a bounded worker pool, reassembling results in ascending
// seq order before merging (spec.md §4.8's state-level parallel mode).
func (e *SinglePassEngine) runStateLevel(quantities []string, partSeries map[string]map[int]*PartTimeSeriesStats, surfSeries map[string]*SurfaceTimeSeriesStats, motionSeries map[int]*MotionTimeSeriesStats, result *AnalysisResult) error {
	workers := e.config.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	type job struct {
		seq int
		sd  *d3plot.StateData
	}

	jobs := make(chan job, workers)
	results := make(chan stateReduction, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- e.reduceState(j.seq, j.sd, quantities, false)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	it := e.reader.NewStateIterator()
	pending := make(map[int]stateReduction)
	nextToMerge := 0

	var decodeErr error
	var decodeWg sync.WaitGroup
	decodeWg.Add(1)
	go func() {
		defer decodeWg.Done()
		defer close(jobs)
		seq := 0
		for {
			if cancelled(e.config.Cancel) {
				decodeErr = d3perr.New(d3perr.Cancelled, "analysis cancelled")
				return
			}
			sd, ok, err := it.Next()
			if err != nil {
				decodeErr = err
				return
			}
			if !ok {
				return
			}
			e.integrateMotion(seq, sd, motionSeries, result)
			e.reportProgress(seq, sd.Time)
			jobs <- job{seq: seq, sd: sd}
			seq++
		}
	}()

	for red := range results {
		pending[red.seq] = red
		for {
			next, ok := pending[nextToMerge]
			if !ok {
				break
			}
			e.mergeReduction(next, partSeries, surfSeries, result)
			delete(pending, nextToMerge)
			nextToMerge++
		}
	}
	decodeWg.Wait()

	if decodeErr != nil {
		return decodeErr
	}
	return nil
}

// runElementLevel processes states strictly in order; within each state,
// the per-element reduction loops are parallelized across
// runtime.GOMAXPROCS(0) strided goroutines, mirroring the teacher's
// Calculations() worker-striding pattern.
func (e *SinglePassEngine) runElementLevel(quantities []string, partSeries map[string]map[int]*PartTimeSeriesStats, surfSeries map[string]*SurfaceTimeSeriesStats, motionSeries map[int]*MotionTimeSeriesStats, result *AnalysisResult) error {
	it := e.reader.NewStateIterator()
	seq := 0
	for {
		if cancelled(e.config.Cancel) {
			return d3perr.New(d3perr.Cancelled, "analysis cancelled")
		}
		sd, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		e.integrateMotion(seq, sd, motionSeries, result)
		e.reportProgress(seq, sd.Time)
		red := e.reduceState(seq, sd, quantities, true)
		e.mergeReduction(red, partSeries, surfSeries, result)
		seq++
	}
}

func (e *SinglePassEngine) integrateMotion(seq int, sd *d3plot.StateData, motionSeries map[int]*MotionTimeSeriesStats, result *AnalysisResult) {
	if e.motion != nil {
		effNDIM := e.reader.ControlBlock().EffectiveNDIM
		for _, p := range e.analyzedParts {
			integrator, ok := e.motion[p]
			if !ok {
				continue
			}
			step := integrator.Step(sd.Time, sd.NodeDisplacements, effNDIM)
			ms := motionSeries[p]
			ms.Times = append(ms.Times, sd.Time)
			ms.AvgDisplacement = append(ms.AvgDisplacement, step.AvgDisplacement)
			ms.AvgDisplacementMagnitude = append(ms.AvgDisplacementMagnitude, step.AvgDisplacementMagnitude)
			ms.AvgVelocity = append(ms.AvgVelocity, step.AvgVelocity)
			ms.AvgAcceleration = append(ms.AvgAcceleration, step.AvgAcceleration)
			ms.MaxNodeDisplacement = append(ms.MaxNodeDisplacement, step.MaxNodeDisplacement)
			ms.ArgMaxNodeUserID = append(ms.ArgMaxNodeUserID, step.ArgMaxNodeUserID)
		}
	}
	if seq == 0 || sd.Time > result.TimeRangeEnd {
		result.TimeRangeEnd = sd.Time
	}
	result.StateCount = seq + 1
}

// reduceState computes every enabled per-part and per-surface scalar for
// one state. When parallel is true the per-part element loops are
// strided across runtime.GOMAXPROCS(0) goroutines; either way the
// per-element work is written at a fixed pre-sized slice index, so the
// resulting TimePoints are identical regardless of how the loop was
// scheduled (spec.md §4.8 Determinism).
func (e *SinglePassEngine) reduceState(seq int, sd *d3plot.StateData, quantities []string, parallel bool) stateReduction {
	red := stateReduction{
		seq:  seq,
		part: make(map[string]map[int]TimePoint, len(quantities)),
		surf: make(map[string]surfaceStep, len(e.restFaces)),
	}

	for _, q := range quantities {
		red.part[q] = make(map[int]TimePoint, len(e.analyzedParts))
	}

	for _, p := range e.analyzedParts {
		refs := e.partIndex.ElementsOf(p)
		solidRefs := make([]int, 0, len(refs))
		for _, ref := range refs {
			if ref.Class == d3plot.ClassSolid {
				solidRefs = append(solidRefs, ref.Index)
			}
		}
		if len(solidRefs) == 0 || len(sd.SolidData) == 0 {
			for _, q := range quantities {
				red.part[q][p] = TimePoint{Time: sd.Time}
			}
			continue
		}

		vm := newStepValues(len(solidRefs))
		eps := newStepValues(len(solidRefs))

		fill := func(lo, hi int) {
			for i := lo; i < hi; i++ {
				elem := solidRefs[i]
				userID := e.mesh.Solids[elem].UserID
				if e.config.AnalyzeVonMises {
					v := sd.SolidStressTensor(elem).VonMises()
					if !math.IsNaN(v) && !math.IsInf(v, 0) {
						vm.set(i, userID, v)
					}
				}
				if e.config.AnalyzeEffectivePlasticStrain {
					v := sd.SolidEffectivePlasticStrain(elem)
					if !math.IsNaN(v) && !math.IsInf(v, 0) {
						eps.set(i, userID, v)
					}
				}
			}
		}
		runStrided(len(solidRefs), parallel, fill)

		var warn int
		if e.config.AnalyzeVonMises {
			pt, skipped := vm.reduce(sd.Time)
			red.part[quantityVonMises][p] = pt
			warn += skipped
		}
		if e.config.AnalyzeEffectivePlasticStrain {
			pt, skipped := eps.reduce(sd.Time)
			red.part[quantityEffectivePlasticStrain][p] = pt
			warn += skipped
		}
		red.warnings += warn
	}

	for _, ps := range e.restFaces {
		step, shellSkips, zeroAreaSkips := e.reduceSurface(sd, ps, parallel)
		red.surf[ps.spec.Name] = step
		red.shellSkips += shellSkips
		red.zeroAreaSkips += zeroAreaSkips
	}

	return red
}

// reduceSurface reduces the stress/strain quantities over one surface
// spec's faces for one state. Shell-owned faces (surface.ElementClassShell)
// contribute geometry only: spec.md never documents a shell state-data
// stress layout the way it does for solids (DESIGN.md's Open Questions on
// "refuse rather than guess"), so they are skipped here and counted toward
// shellSkips rather than guessed at. Faces whose Area is degenerate
// (below zeroAreaEpsilon) are likewise skipped and counted toward
// zeroAreaSkips, per spec.md §7's non-fatal anomaly reporting.
func (e *SinglePassEngine) reduceSurface(sd *d3plot.StateData, ps preparedSurface, parallel bool) (surfaceStep, int, int) {
	faces := ps.faces
	normal := newStepValues(len(faces))
	shear := newStepValues(len(faces))
	vm := newStepValues(len(faces))
	eps := newStepValues(len(faces))

	fill := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			f := faces[i]
			if f.Area < zeroAreaEpsilon {
				continue
			}
			if f.OwnerElementClass != surface.ElementClassSolid || f.OwnerElementIndex >= len(sd.SolidData) {
				continue
			}
			st := sd.SolidStressTensor(f.OwnerElementIndex)
			normal.set(i, f.OwnerElementUserID, st.NormalStress(f.Normal))
			shear.set(i, f.OwnerElementUserID, st.ShearStress(f.Normal))
			vm.set(i, f.OwnerElementUserID, st.VonMises())
			eps.set(i, f.OwnerElementUserID, sd.SolidEffectivePlasticStrain(f.OwnerElementIndex)/math.Sqrt(3))
		}
	}
	runStrided(len(faces), parallel, fill)

	shellSkips, zeroAreaSkips := 0, 0
	for _, f := range faces {
		if f.OwnerElementClass == surface.ElementClassShell {
			shellSkips++
		}
		if f.Area < zeroAreaEpsilon {
			zeroAreaSkips++
		}
	}

	n, _ := normal.reduce(sd.Time)
	s, _ := shear.reduce(sd.Time)
	v, _ := vm.reduce(sd.Time)
	eq, _ := eps.reduce(sd.Time)
	return surfaceStep{normal: n, shear: s, vonMises: v, shearStrain: eq}, shellSkips, zeroAreaSkips
}

// runStrided runs fill(0, n) either directly or split across
// runtime.GOMAXPROCS(0) contiguous, non-overlapping index ranges, per
// the teacher's Calculations() worker-striding pattern.
func runStrided(n int, parallel bool, fill func(lo, hi int)) {
	if !parallel || n == 0 {
		fill(0, n)
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if lo >= n {
			break
		}
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fill(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

func (e *SinglePassEngine) mergeReduction(red stateReduction, partSeries map[string]map[int]*PartTimeSeriesStats, surfSeries map[string]*SurfaceTimeSeriesStats, result *AnalysisResult) {
	for q, byPart := range red.part {
		for p, pt := range byPart {
			series := partSeries[q][p]
			series.Series = append(series.Series, pt)
		}
	}
	for name, step := range red.surf {
		s := surfSeries[name]
		s.NormalStressSeries = append(s.NormalStressSeries, step.normal)
		s.ShearStressSeries = append(s.ShearStressSeries, step.shear)
		s.VonMisesSeries = append(s.VonMisesSeries, step.vonMises)
		s.ShearStrainSeries = append(s.ShearStrainSeries, step.shearStrain)
	}
	if red.warnings > 0 {
		result.Warnings["non_finite_reduction_value"] += red.warnings
	}
	if red.shellSkips > 0 {
		result.Warnings["shell_surface_stress_unavailable"] += red.shellSkips
	}
	if red.zeroAreaSkips > 0 {
		result.Warnings["zero_area_face"] += red.zeroAreaSkips
	}
}
