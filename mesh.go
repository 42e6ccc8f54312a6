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
	"github.com/dynaread/d3plot/d3perr"
)

// Node is one mesh vertex. ID is the user-visible identifier (from ARBS if
// present, otherwise the 1-based internal index).
type Node struct {
	ID      int
	X, Y, Z float64
}

// SolidElement is an 8-node hexahedral element (spec.md §3's Solid variant).
type SolidElement struct {
	UserID            int
	NodeIndices       [8]int // internal, 0-based
	PartID            int
	ExtraNodePresent  bool // true when ControlBlock.ExtraNodePerSolid
}

// ThickShellElement mirrors SolidElement's connectivity shape.
type ThickShellElement struct {
	UserID      int
	NodeIndices [8]int
	PartID      int
}

// BeamElement is a 2-node line element.
type BeamElement struct {
	UserID      int
	NodeIndices [2]int
	PartID      int
}

// ShellElement is a 4-node quadrilateral element.
type ShellElement struct {
	UserID      int
	NodeIndices [4]int
	PartID      int
}

// Mesh owns the full decoded geometry: nodes, the four parallel
// element-class arrays (spec.md §9's tagged-variant-as-parallel-arrays
// design), and the node/solid internal-to-user ID tables. It is immutable
// after ReadMesh returns; every analyzer borrows it read-only.
type Mesh struct {
	Nodes []Node

	Solids      []SolidElement
	ThickShells []ThickShellElement
	Beams       []BeamElement
	Shells      []ShellElement

	// NodeUserIDs and SolidUserIDs are the internal(0-based)->user
	// translation tables spec.md §3 names explicitly. They equal
	// identity+1 when NARBS == 0.
	NodeUserIDs  []int
	SolidUserIDs []int
}

// readGeometry materializes a Mesh immediately following the control
// block, per spec.md §4.3's fixed record order.
func readGeometry(c *BinaryCursor, cb ControlBlock) (*Mesh, error) {
	c.SeekWord(controlBlockWords)

	coords, err := c.ReadFloats(cb.NUMNP * cb.NDIM)
	if err != nil {
		return nil, d3perr.Wrap(d3perr.Truncated, "reading node coordinates", err)
	}
	nodes := make([]Node, cb.NUMNP)
	for i := 0; i < cb.NUMNP; i++ {
		base := i * cb.NDIM
		nodes[i] = Node{ID: i + 1, X: coords[base], Y: coords[base+1], Z: coords[base+2]}
	}

	solids, err := readSolidConnectivity(c, cb)
	if err != nil {
		return nil, err
	}
	tshells, err := readEightNodeConnectivity(c, cb.NELT)
	if err != nil {
		return nil, d3perr.Wrap(d3perr.Truncated, "reading thick-shell connectivity", err)
	}
	beams, err := readBeamConnectivity(c, cb.NEL2)
	if err != nil {
		return nil, err
	}
	shells, err := readShellConnectivity(c, cb.NEL4)
	if err != nil {
		return nil, err
	}

	m := &Mesh{
		Nodes:       nodes,
		Solids:      solids,
		ThickShells: toThickShells(tshells),
		Beams:       beams,
		Shells:      shells,
	}

	if err := validateNodeIndices(m, cb.NUMNP); err != nil {
		return nil, err
	}

	m.NodeUserIDs = identityIDs(cb.NUMNP)
	m.SolidUserIDs = identityIDs(len(solids))

	if cb.NARBS > 0 {
		if err := applyARBS(c, cb, m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func readSolidConnectivity(c *BinaryCursor, cb ControlBlock) ([]SolidElement, error) {
	out := make([]SolidElement, cb.NEL8)
	for i := range out {
		words, err := c.ReadInts(9)
		if err != nil {
			return nil, d3perr.Wrap(d3perr.Truncated, "reading solid connectivity", err)
		}
		var se SolidElement
		for k := 0; k < 8; k++ {
			se.NodeIndices[k] = int(words[k]) - 1
		}
		se.PartID = int(words[8])
		se.UserID = i + 1
		se.ExtraNodePresent = cb.ExtraNodePerSolid
		out[i] = se
	}
	return out, nil
}

// eightNodeRecord is the shared shape of solid/thick-shell connectivity
// records (8 node indices + 1 part number) used while decoding
// thick-shells, which follow the identical on-disk layout.
type eightNodeRecord struct {
	nodeIndices [8]int
	partID      int
}

func readEightNodeConnectivity(c *BinaryCursor, count int) ([]eightNodeRecord, error) {
	out := make([]eightNodeRecord, count)
	for i := range out {
		words, err := c.ReadInts(9)
		if err != nil {
			return nil, err
		}
		var r eightNodeRecord
		for k := 0; k < 8; k++ {
			r.nodeIndices[k] = int(words[k]) - 1
		}
		r.partID = int(words[8])
		out[i] = r
	}
	return out, nil
}

func toThickShells(records []eightNodeRecord) []ThickShellElement {
	out := make([]ThickShellElement, len(records))
	for i, r := range records {
		out[i] = ThickShellElement{UserID: i + 1, NodeIndices: r.nodeIndices, PartID: r.partID}
	}
	return out
}

func readBeamConnectivity(c *BinaryCursor, count int) ([]BeamElement, error) {
	out := make([]BeamElement, count)
	for i := range out {
		words, err := c.ReadInts(5)
		if err != nil {
			return nil, d3perr.Wrap(d3perr.Truncated, "reading beam connectivity", err)
		}
		out[i] = BeamElement{
			UserID:      i + 1,
			NodeIndices: [2]int{int(words[0]) - 1, int(words[1]) - 1},
			PartID:      int(words[4]),
		}
	}
	return out, nil
}

func readShellConnectivity(c *BinaryCursor, count int) ([]ShellElement, error) {
	out := make([]ShellElement, count)
	for i := range out {
		words, err := c.ReadInts(5)
		if err != nil {
			return nil, d3perr.Wrap(d3perr.Truncated, "reading shell connectivity", err)
		}
		var se ShellElement
		for k := 0; k < 4; k++ {
			se.NodeIndices[k] = int(words[k]) - 1
		}
		se.PartID = int(words[4])
		se.UserID = i + 1
		out[i] = se
	}
	return out, nil
}

func validateNodeIndices(m *Mesh, numnp int) error {
	inRange := func(idx int) bool { return idx >= 0 && idx < numnp }
	for _, s := range m.Solids {
		for _, n := range s.NodeIndices {
			if !inRange(n) {
				return d3perr.Newf(d3perr.CorruptedData, "solid element %d references node index %d outside [0,%d)", s.UserID, n, numnp)
			}
		}
	}
	for _, s := range m.ThickShells {
		for _, n := range s.NodeIndices {
			if !inRange(n) {
				return d3perr.Newf(d3perr.CorruptedData, "thick-shell element %d references node index %d outside [0,%d)", s.UserID, n, numnp)
			}
		}
	}
	for _, b := range m.Beams {
		for _, n := range b.NodeIndices {
			if !inRange(n) {
				return d3perr.Newf(d3perr.CorruptedData, "beam element %d references node index %d outside [0,%d)", b.UserID, n, numnp)
			}
		}
	}
	for _, s := range m.Shells {
		for _, n := range s.NodeIndices {
			if !inRange(n) {
				return d3perr.Newf(d3perr.CorruptedData, "shell element %d references node index %d outside [0,%d)", s.UserID, n, numnp)
			}
		}
	}
	return nil
}

func identityIDs(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}

// arbsSubArray describes one user-ID array's location within the
// NARBS-word region, as the region's own self-describing header states.
type arbsSubArray struct {
	offset, length int
}

// applyARBS decodes the self-describing ARBS region (spec.md §6) and
// overwrites Mesh's node/solid user-ID tables. Per DESIGN.md's Open
// Question #3 resolution, any internal inconsistency in the declared
// offsets/lengths is refused rather than guessed at.
func applyARBS(c *BinaryCursor, cb ControlBlock, m *Mesh) error {
	region, err := c.ReadInts(cb.NARBS)
	if err != nil {
		return d3perr.Wrap(d3perr.Truncated, "reading ARBS region", err)
	}

	// The region's own first 10 words are the self-describing header: five
	// (offset, length) pairs in the fixed order node, solid, beam, shell,
	// thick-shell (NSORT, NSRH, NSRB, NSRS, NSRT).
	const headerWords = 10
	if len(region) < headerWords {
		return d3perr.Newf(d3perr.CorruptedData, "ARBS region of %d words too short for its own header", cb.NARBS)
	}
	subs := make([]arbsSubArray, 5)
	for i := range subs {
		subs[i] = arbsSubArray{offset: int(region[2*i]), length: int(region[2*i+1])}
	}

	if err := validateARBSLayout(subs, len(region)); err != nil {
		return err
	}

	node, solid := subs[0], subs[1]
	if node.length > 0 {
		if node.length != len(m.Nodes) {
			return d3perr.Newf(d3perr.CorruptedData, "ARBS node ID array length %d does not match NUMNP %d", node.length, len(m.Nodes))
		}
		ids := make([]int, node.length)
		for i := 0; i < node.length; i++ {
			ids[i] = int(region[node.offset+i])
		}
		m.NodeUserIDs = ids
		for i := range m.Nodes {
			m.Nodes[i].ID = ids[i]
		}
	}
	if solid.length > 0 {
		if solid.length != len(m.Solids) {
			return d3perr.Newf(d3perr.CorruptedData, "ARBS solid ID array length %d does not match NEL8 %d", solid.length, len(m.Solids))
		}
		ids := make([]int, solid.length)
		for i := 0; i < solid.length; i++ {
			ids[i] = int(region[solid.offset+i])
		}
		m.SolidUserIDs = ids
		for i := range m.Solids {
			m.Solids[i].UserID = ids[i]
		}
	}

	return nil
}

// validateARBSLayout rejects any declared sub-array whose offset/length
// falls outside the region or overlaps another sub-array, per spec.md
// §9's "refuse rather than guess" directive.
func validateARBSLayout(subs []arbsSubArray, regionWords int) error {
	type span struct{ lo, hi int } // [lo, hi)
	var spans []span
	for _, s := range subs {
		if s.length == 0 {
			continue
		}
		if s.offset < 0 || s.length < 0 || s.offset+s.length > regionWords {
			return d3perr.Newf(d3perr.CorruptedData, "ARBS sub-array offset=%d length=%d falls outside region of %d words", s.offset, s.length, regionWords)
		}
		spans = append(spans, span{s.offset, s.offset + s.length})
	}
	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			if spans[i].lo < spans[j].hi && spans[j].lo < spans[i].hi {
				return d3perr.New(d3perr.CorruptedData, "ARBS sub-arrays overlap")
			}
		}
	}
	return nil
}
