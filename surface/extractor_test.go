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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dynaread/d3plot/tensor"
)

func unitCube() SolidInput {
	return SolidInput{
		NodePositions: []tensor.Vec3{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
		},
		NodeUserIDs:  []int{101, 102, 103, 104, 105, 106, 107, 108},
		Connectivity: [][8]int{{0, 1, 2, 3, 4, 5, 6, 7}},
		PartIDs:      []int{1},
		UserIDs:      []int{1},
	}
}

func TestExtractSolidExteriorFacesCarriesNodeUserIDs(t *testing.T) {
	faces := ExtractSolidExteriorFaces(unitCube())
	for _, f := range faces {
		if f.Normal.Z > 0.5 { // the top face, nodes 4-7 -> user IDs 105-108
			assert.ElementsMatch(t, []int{105, 106, 107, 108}, f.NodeUserIDs[:])
		}
	}
}

func TestExtractSolidExteriorFacesSingleHexHasSix(t *testing.T) {
	faces := ExtractSolidExteriorFaces(unitCube())
	assert.Len(t, faces, 6)
}

func TestExtractSolidExteriorFacesDumbbellHasTen(t *testing.T) {
	// Two unit hexes sharing their x=1 face, 12 unique nodes: 6 faces per
	// hex, minus the one shared pair that dedups away on both sides, leaves
	// 6+6-2=10.
	in := SolidInput{
		NodePositions: []tensor.Vec3{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
			{X: 2, Y: 0, Z: 0}, {X: 2, Y: 1, Z: 0}, {X: 2, Y: 0, Z: 1}, {X: 2, Y: 1, Z: 1},
		},
		Connectivity: [][8]int{
			{0, 1, 2, 3, 4, 5, 6, 7},
			{1, 8, 9, 2, 5, 10, 11, 6},
		},
		PartIDs: []int{1, 1},
		UserIDs: []int{1, 2},
	}

	faces := ExtractSolidExteriorFaces(in)
	assert.Len(t, faces, 10)

	for _, f := range faces {
		if f.Centroid.X == 1 {
			t.Fatalf("shared interface face %+v should have been deduplicated away", f)
		}
	}
}

func TestFilterByDirectionSingleHexTopAndBottom(t *testing.T) {
	faces := ExtractSolidExteriorFaces(unitCube())

	top := FilterByDirection(faces, tensor.Vec3{Z: 1}, 45)
	assert.Len(t, top, 1)
	assert.InDelta(t, 1.0, top[0].Normal.Z, 1e-9)

	bottom := FilterByDirection(faces, tensor.Vec3{Z: -1}, 45)
	assert.Len(t, bottom, 1)
	assert.InDelta(t, -1.0, bottom[0].Normal.Z, 1e-9)
}

func TestQuadGeometryAreaAndCentroid(t *testing.T) {
	faces := ExtractSolidExteriorFaces(unitCube())
	for _, f := range faces {
		assert.InDelta(t, 1.0, f.Area, 1e-9)
		// Every face centroid of the unit cube lies half an edge from the
		// cube's center.
		assert.InDelta(t, 0.5, f.Centroid.Sub(tensor.Vec3{X: 0.5, Y: 0.5, Z: 0.5}).Magnitude(), 1e-9)
	}
}

func unitSquareShell() ShellInput {
	return ShellInput{
		NodePositions: []tensor.Vec3{
			{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
		},
		NodeUserIDs:  []int{201, 202, 203, 204},
		Connectivity: [][4]int{{0, 1, 2, 3}},
		PartIDs:      []int{7},
		UserIDs:      []int{9},
	}
}

func TestExtractShellFacesTopOnlyByDefault(t *testing.T) {
	faces := ExtractShellFaces(unitSquareShell(), false)
	if assert.Len(t, faces, 1) {
		f := faces[0]
		assert.Equal(t, ElementClassShell, f.OwnerElementClass)
		assert.Equal(t, 9, f.OwnerElementUserID)
		assert.Equal(t, 7, f.PartID)
		assert.InDelta(t, 1.0, f.Normal.Z, 1e-9)
		assert.InDelta(t, 1.0, f.Area, 1e-9)
		assert.Equal(t, [4]int{201, 202, 203, 204}, f.NodeUserIDs)
	}
}

func TestExtractShellFacesIncludeBottomAddsReversedNormal(t *testing.T) {
	faces := ExtractShellFaces(unitSquareShell(), true)
	if assert.Len(t, faces, 2) {
		assert.InDelta(t, 1.0, faces[0].Normal.Z, 1e-9)
		assert.Equal(t, 0, faces[0].LocalFaceOrdinal)
		assert.InDelta(t, -1.0, faces[1].Normal.Z, 1e-9)
		assert.Equal(t, 1, faces[1].LocalFaceOrdinal)
	}
}
