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

// Package surface discovers exterior boundary faces of a solid/shell mesh
// by face-hash deduplication and filters them by outward-normal direction
// (spec.md §4.6). It depends only on tensor, not on the d3plot root
// package, so that both the reader and the analysis engine can build
// faces from their own Mesh without an import cycle.
package surface

import (
	"sort"

	"github.com/dynaread/d3plot/tensor"
)

// hexLocalFaces is the fixed local face ordering for an 8-node
// hexahedron, per the glossary: face index -> the four local corner
// indices (0-7) that bound it, already wound so the right-hand-rule
// cross product of its diagonals points outward.
var hexLocalFaces = [6][4]int{
	{0, 3, 2, 1}, // Z- (bottom)
	{4, 5, 6, 7}, // Z+ (top)
	{0, 1, 5, 4}, // Y- (front)
	{2, 3, 7, 6}, // Y+ (back)
	{0, 4, 7, 3}, // X- (left)
	{1, 2, 6, 5}, // X+ (right)
}

// ElementClass distinguishes the element kind a Face was extracted from,
// since a shell face has no counterpart element to dedup against and (per
// DESIGN.md's Open Question on the undocumented shell state-data layout)
// no stress tensor a caller can safely read from state data.
type ElementClass int

const (
	ElementClassSolid ElementClass = iota
	ElementClassShell
)

// Face is one quadrilateral boundary face.
type Face struct {
	OwnerElementIndex  int
	OwnerElementUserID int
	OwnerElementClass  ElementClass
	PartID             int
	NodeIndices        [4]int // internal 0-based, in outward-wound order
	NodeUserIDs        [4]int // user (real) IDs of NodeIndices, parallel order
	Normal             tensor.Vec3
	Centroid           tensor.Vec3
	Area               float64
	LocalFaceOrdinal   int // for solids, the hexLocalFaces index; for shells, 0=top 1=bottom
}

// SolidInput is the minimal view of solid connectivity the extractor
// needs, decoupled from d3plot.Mesh to avoid an import cycle.
type SolidInput struct {
	NodePositions []tensor.Vec3 // indexed by internal node index
	NodeUserIDs   []int         // indexed by internal node index
	Connectivity  [][8]int      // one entry per solid element, internal 0-based node indices
	PartIDs       []int         // parallel to Connectivity
	UserIDs       []int         // parallel to Connectivity
}

// ShellInput is the minimal view of shell connectivity the extractor
// needs, decoupled from d3plot.Mesh to avoid an import cycle.
type ShellInput struct {
	NodePositions []tensor.Vec3 // indexed by internal node index
	NodeUserIDs   []int         // indexed by internal node index
	Connectivity  [][4]int      // one entry per shell element, internal 0-based node indices
	PartIDs       []int         // parallel to Connectivity
	UserIDs       []int         // parallel to Connectivity
}

// faceNodeUserIDs looks up the user IDs of a face's four internal node
// indices; userIDs is the full mesh-wide NodeUserIDs table, possibly nil.
func faceNodeUserIDs(userIDs []int, nodeIndices [4]int) [4]int {
	var out [4]int
	for i, ni := range nodeIndices {
		if ni >= 0 && ni < len(userIDs) {
			out[i] = userIDs[ni]
		}
	}
	return out
}

// faceKey is the canonical dedup key: the four node indices of a face,
// sorted ascending.
type faceKey [4]int

func canonicalKey(nodes [4]int) faceKey {
	k := faceKey(nodes)
	sort.Ints(k[:])
	return k
}

// candidateFace is a face pending dedup; it is discarded if its key is
// seen a second time (an interior face shared by two elements).
type candidateFace struct {
	elemIndex, partID, userID, localOrdinal int
	nodeIndices                             [4]int
	oppositeNode                            int // a hex corner not on this face, for normal orientation
}

// ExtractSolidExteriorFaces implements spec.md §4.6 steps 1-4 over 8-node
// hexahedral solids: enumerate every element's six faces, hash-dedup by
// canonical node-index key, and compute centroid/normal/area for every
// face that survives (appears in exactly one element).
func ExtractSolidExteriorFaces(in SolidInput) []Face {
	pending := make(map[faceKey]candidateFace)
	order := make([]faceKey, 0, len(in.Connectivity)*6)

	for e, conn := range in.Connectivity {
		for f, localNodes := range hexLocalFaces {
			var global [4]int
			for i, li := range localNodes {
				global[i] = conn[li]
			}
			key := canonicalKey(global)
			if _, seen := pending[key]; seen {
				delete(pending, key)
				continue
			}
			pending[key] = candidateFace{
				elemIndex:     e,
				partID:        in.PartIDs[e],
				userID:        in.UserIDs[e],
				localOrdinal:  f,
				nodeIndices:   global,
				oppositeNode:  conn[complementCorner(localNodes)],
			}
			order = append(order, key)
		}
	}

	faces := make([]Face, 0, len(pending))
	for _, key := range order {
		cand, ok := pending[key]
		if !ok {
			continue // deduped away
		}
		faces = append(faces, buildFace(in.NodePositions, in.NodeUserIDs, cand))
		delete(pending, key) // avoid emitting the same surviving face twice if order had dup entries
	}
	return faces
}

// complementCorner returns a hex corner index not among localNodes, used
// as the reference point that the face normal must point away from.
func complementCorner(localNodes [4]int) int {
	in := func(c int) bool {
		for _, n := range localNodes {
			if n == c {
				return true
			}
		}
		return false
	}
	for c := 0; c < 8; c++ {
		if !in(c) {
			return c
		}
	}
	return 0
}

func buildFace(positions []tensor.Vec3, nodeUserIDs []int, cand candidateFace) Face {
	p := [4]tensor.Vec3{
		positions[cand.nodeIndices[0]],
		positions[cand.nodeIndices[1]],
		positions[cand.nodeIndices[2]],
		positions[cand.nodeIndices[3]],
	}
	centroid, normal, area := quadGeometry(p)

	// Orient outward: flip if the normal points toward the element's
	// opposite corner instead of away from it.
	opposite := positions[cand.oppositeNode]
	if normal.Dot(centroid.Sub(opposite)) < 0 {
		normal = normal.Scale(-1)
	}

	return Face{
		OwnerElementIndex:  cand.elemIndex,
		OwnerElementUserID: cand.userID,
		PartID:             cand.partID,
		NodeIndices:        cand.nodeIndices,
		NodeUserIDs:        faceNodeUserIDs(nodeUserIDs, cand.nodeIndices),
		Normal:             normal,
		Centroid:           centroid,
		Area:               area,
		LocalFaceOrdinal:   cand.localOrdinal,
	}
}

// quadGeometry computes a quad face's centroid (arithmetic mean of its
// four vertices), unit outward normal (cross product of the two
// diagonals), and area (sum of two triangle half-cross-product
// magnitudes), per spec.md §4.6 step 4.
func quadGeometry(p [4]tensor.Vec3) (centroid, normal tensor.Vec3, area float64) {
	centroid = p[0].Add(p[1]).Add(p[2]).Add(p[3]).Scale(0.25)

	diag1 := p[2].Sub(p[0])
	diag2 := p[3].Sub(p[1])
	normal = diag1.Cross(diag2).NormalizedSafe()

	tri1 := p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Magnitude() * 0.5
	tri2 := p[2].Sub(p[0]).Cross(p[3].Sub(p[0])).Magnitude() * 0.5
	area = tri1 + tri2

	return centroid, normal, area
}

// ExtractShellFaces builds a boundary face for every shell element's top
// surface (and, when includeBottom is set, its bottom surface too), per
// spec.md §4.6: "shells may contribute top faces (and optionally bottom
// faces, controlled by a parameter) without deduplication because each
// shell is its own boundary." The outward normal of the top face follows
// the element's own node winding (node order 1-2-3-4, right-hand rule);
// the bottom face is the same quad with the normal reversed.
func ExtractShellFaces(in ShellInput, includeBottom bool) []Face {
	faces := make([]Face, 0, len(in.Connectivity))
	for e, conn := range in.Connectivity {
		p := [4]tensor.Vec3{
			in.NodePositions[conn[0]],
			in.NodePositions[conn[1]],
			in.NodePositions[conn[2]],
			in.NodePositions[conn[3]],
		}
		centroid, normal, area := quadGeometry(p)
		nodeUserIDs := faceNodeUserIDs(in.NodeUserIDs, conn)

		faces = append(faces, Face{
			OwnerElementIndex:  e,
			OwnerElementUserID: in.UserIDs[e],
			OwnerElementClass:  ElementClassShell,
			PartID:             in.PartIDs[e],
			NodeIndices:        conn,
			NodeUserIDs:        nodeUserIDs,
			Normal:             normal,
			Centroid:           centroid,
			Area:               area,
			LocalFaceOrdinal:   0,
		})
		if includeBottom {
			faces = append(faces, Face{
				OwnerElementIndex:  e,
				OwnerElementUserID: in.UserIDs[e],
				OwnerElementClass:  ElementClassShell,
				PartID:             in.PartIDs[e],
				NodeIndices:        conn,
				NodeUserIDs:        nodeUserIDs,
				Normal:             normal.Scale(-1),
				Centroid:           centroid,
				Area:               area,
				LocalFaceOrdinal:   1,
			})
		}
	}
	return faces
}

// UpdateForState recomputes every face's centroid, normal, and area using
// deformed node positions (rest position + displacement), per spec.md
// §4.6's "update for state" operation. Connectivity and ownership are
// unchanged; a new slice is returned.
func UpdateForState(faces []Face, deformedPositions []tensor.Vec3) []Face {
	out := make([]Face, len(faces))
	for i, f := range faces {
		p := [4]tensor.Vec3{
			deformedPositions[f.NodeIndices[0]],
			deformedPositions[f.NodeIndices[1]],
			deformedPositions[f.NodeIndices[2]],
			deformedPositions[f.NodeIndices[3]],
		}
		centroid, normal, area := quadGeometry(p)
		updated := f
		updated.Centroid = centroid
		updated.Area = area
		// Preserve the original face's orientation sign rather than
		// re-deriving it from the (no longer available) opposite corner:
		// flip the recomputed normal only if it would reverse direction
		// relative to the rest-state normal.
		if normal.Dot(f.Normal) < 0 {
			normal = normal.Scale(-1)
		}
		updated.Normal = normal
		out[i] = updated
	}
	return out
}
