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

import "sort"

// ElementClass identifies which of the four parallel element arrays an
// ElementRef points into.
type ElementClass int

const (
	ClassSolid ElementClass = iota
	ClassThickShell
	ClassBeam
	ClassShell
)

// ElementRef addresses one element within its class array.
type ElementRef struct {
	Class ElementClass
	Index int // index within the class's array in Mesh
}

// PartIndex maps elements to parts and back, built once after geometry is
// materialized (spec.md §4.7).
type PartIndex struct {
	partOf map[ElementRef]int
	elems  map[int][]ElementRef // part ID -> sorted element refs
	parts  []int                // sorted distinct part IDs
}

// BuildPartIndex constructs the element<->part tables from m's
// connectivity. Part IDs come directly from each element's trailing
// connectivity word, per spec.md §4.7.
func BuildPartIndex(m *Mesh) *PartIndex {
	pi := &PartIndex{
		partOf: make(map[ElementRef]int),
		elems:  make(map[int][]ElementRef),
	}

	add := func(class ElementClass, index, partID int) {
		ref := ElementRef{Class: class, Index: index}
		pi.partOf[ref] = partID
		pi.elems[partID] = append(pi.elems[partID], ref)
	}

	for i, e := range m.Solids {
		add(ClassSolid, i, e.PartID)
	}
	for i, e := range m.ThickShells {
		add(ClassThickShell, i, e.PartID)
	}
	for i, e := range m.Beams {
		add(ClassBeam, i, e.PartID)
	}
	for i, e := range m.Shells {
		add(ClassShell, i, e.PartID)
	}

	for partID, refs := range pi.elems {
		sort.Slice(refs, func(a, b int) bool {
			if refs[a].Class != refs[b].Class {
				return refs[a].Class < refs[b].Class
			}
			return refs[a].Index < refs[b].Index
		})
		pi.elems[partID] = refs
		pi.parts = append(pi.parts, partID)
	}
	sort.Ints(pi.parts)

	return pi
}

// PartOf returns the part ID owning ref.
func (pi *PartIndex) PartOf(ref ElementRef) int { return pi.partOf[ref] }

// ElementsOf returns the sorted element references belonging to partID.
func (pi *PartIndex) ElementsOf(partID int) []ElementRef { return pi.elems[partID] }

// Parts returns every distinct part ID, ascending.
func (pi *PartIndex) Parts() []int { return pi.parts }

// NumElements returns the total number of indexed elements, for the
// invariant that per-part counts sum to the total.
func (pi *PartIndex) NumElements() int { return len(pi.partOf) }
