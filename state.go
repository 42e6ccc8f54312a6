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
	"math"

	"github.com/dynaread/d3plot/d3perr"
	"github.com/dynaread/d3plot/tensor"
)

// StateData is one fully decoded time step (spec.md §3).
type StateData struct {
	Time    float64
	Globals []float64

	// Each is either nil or has length NUMNP*EffectiveNDIM (node-major,
	// component-minor), per the ControlBlock's IU/IV/IA flags.
	NodeDisplacements []float64
	NodeVelocities    []float64
	NodeAccelerations []float64
	// NodeTemperatures is either nil or length NUMNP.
	NodeTemperatures []float64

	// Element-major, per-element word block, one slice per element of
	// the corresponding class array in Mesh, each of fixed width
	// NV3D/NV3DT/NV1D/NV2D.
	SolidData      [][]float64
	ThickShellData [][]float64
	BeamData       [][]float64
	ShellData      [][]float64

	// Deletion lists are always empty: see DESIGN.md's Open Question #4
	// (deletion-flag word count is not named by any documented control
	// block offset).
	DeletedNodeIDs    []int
	DeletedSolidIDs   []int
	DeletedShellIDs   []int
	DeletedBeamIDs    []int
	DeletedTShellIDs  []int
}

// StateDecoder decodes individual state records at a fixed word stride
// (ControlBlock.StateWords), per spec.md §4.4.
type StateDecoder struct {
	cursor *BinaryCursor
	cb     ControlBlock
}

// NewStateDecoder builds a decoder bound to cursor and cb. cursor's
// position is not used until DecodeAt is called.
func NewStateDecoder(cursor *BinaryCursor, cb ControlBlock) *StateDecoder {
	return &StateDecoder{cursor: cursor, cb: cb}
}

// DecodeAt reads the state record starting at word position pos. It
// returns (nil, true, nil) both when the record's time word is the
// negative end-of-stream sentinel and when the stream has no more words
// at all — either way, no partial state is emitted and the caller must
// stop iterating. A NaN time word is a distinct failure, reported as
// CorruptedData.
func (d *StateDecoder) DecodeAt(pos int64) (*StateData, bool, error) {
	d.cursor.SeekWord(pos)

	t, eof, err := d.cursor.TryReadFloat()
	if err != nil {
		return nil, false, d3perr.Wrap(d3perr.Truncated, "reading state time word", err)
	}
	if eof {
		return nil, true, nil
	}
	if math.IsNaN(t) {
		return nil, false, d3perr.New(d3perr.CorruptedData, "state time word is NaN")
	}
	if t < 0 {
		return nil, true, nil
	}

	sd := &StateData{Time: t}

	sd.Globals, err = d.cursor.ReadFloats(d.cb.NGLBV)
	if err != nil {
		return nil, false, d3perr.Wrap(d3perr.Truncated, "reading state globals", err)
	}

	if err := d.decodeNodalBlock(sd); err != nil {
		return nil, false, err
	}
	if err := d.decodeElementBlock(sd); err != nil {
		return nil, false, err
	}

	return sd, false, nil
}

func (d *StateDecoder) decodeNodalBlock(sd *StateData) error {
	cb := d.cb
	if cb.IT == 1 {
		temps, err := d.cursor.ReadFloats(cb.NUMNP)
		if err != nil {
			return d3perr.Wrap(d3perr.Truncated, "reading node temperatures", err)
		}
		sd.NodeTemperatures = temps
	}
	vecLen := cb.NUMNP * cb.EffectiveNDIM
	if cb.IU == 1 {
		v, err := d.cursor.ReadFloats(vecLen)
		if err != nil {
			return d3perr.Wrap(d3perr.Truncated, "reading node displacements", err)
		}
		sd.NodeDisplacements = v
	}
	if cb.IV == 1 {
		v, err := d.cursor.ReadFloats(vecLen)
		if err != nil {
			return d3perr.Wrap(d3perr.Truncated, "reading node velocities", err)
		}
		sd.NodeVelocities = v
	}
	if cb.IA == 1 {
		v, err := d.cursor.ReadFloats(vecLen)
		if err != nil {
			return d3perr.Wrap(d3perr.Truncated, "reading node accelerations", err)
		}
		sd.NodeAccelerations = v
	}
	return nil
}

func (d *StateDecoder) decodeElementBlock(sd *StateData) error {
	cb := d.cb
	var err error
	if sd.SolidData, err = readElementBlock(d.cursor, cb.NEL8, cb.NV3D); err != nil {
		return d3perr.Wrap(d3perr.Truncated, "reading solid element state data", err)
	}
	if sd.ThickShellData, err = readElementBlock(d.cursor, cb.NELT, cb.NV3DT); err != nil {
		return d3perr.Wrap(d3perr.Truncated, "reading thick-shell element state data", err)
	}
	if sd.BeamData, err = readElementBlock(d.cursor, cb.NEL2, cb.NV1D); err != nil {
		return d3perr.Wrap(d3perr.Truncated, "reading beam element state data", err)
	}
	if sd.ShellData, err = readElementBlock(d.cursor, cb.NEL4, cb.NV2D); err != nil {
		return d3perr.Wrap(d3perr.Truncated, "reading shell element state data", err)
	}
	return nil
}

func readElementBlock(c *BinaryCursor, count, width int) ([][]float64, error) {
	if count == 0 || width == 0 {
		return nil, nil
	}
	out := make([][]float64, count)
	for i := 0; i < count; i++ {
		vals, err := c.ReadFloats(width)
		if err != nil {
			return nil, err
		}
		out[i] = vals
	}
	return out, nil
}

// SolidStressTensor extracts element e's stress tensor from this state's
// solid data (words 0..5, per spec.md §4.4's normative solid layout).
func (sd *StateData) SolidStressTensor(e int) tensor.StressTensor {
	v := sd.SolidData[e]
	return tensor.StressTensor{XX: v[0], YY: v[1], ZZ: v[2], XY: v[3], YZ: v[4], ZX: v[5]}
}

// SolidEffectivePlasticStrain extracts element e's word 6, per spec.md
// §4.4.
func (sd *StateData) SolidEffectivePlasticStrain(e int) float64 {
	return sd.SolidData[e][6]
}

// SolidStrainTensor extracts element e's strain tensor (words 7..12),
// valid only when ControlBlock.Istrn != 0.
func (sd *StateData) SolidStrainTensor(e int) tensor.StressTensor {
	v := sd.SolidData[e]
	return tensor.StressTensor{XX: v[7], YY: v[8], ZZ: v[9], XY: v[10], YZ: v[11], ZX: v[12]}
}
