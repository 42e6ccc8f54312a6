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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeControlBlockFillsDerivedFields(t *testing.T) {
	var w testWriter
	w.writeControlBlock(testControlSpec{
		ndim: 3, numnp: 8,
		it: 1, iu: 1, iv: 1, ia: 0,
		nglbv: 4,
		nel8:  2, nv3d: 7,
		nel2: 1, nv1d: 6,
		nel4: 3, nv2d: 5,
	})

	cursor := NewBinaryCursor(bytes.NewReader(w.buf.Bytes()), candidateFormats[0])
	cb, err := decodeControlBlock(cursor)
	require.NoError(t, err)

	assert.Equal(t, 3, cb.NDIM)
	assert.Equal(t, 8, cb.NUMNP)
	assert.Equal(t, 2, cb.NEL8)
	assert.False(t, cb.ExtraNodePerSolid)
	assert.Equal(t, 3, cb.EffectiveNDIM)

	// NND = IT*NUMNP + (IU+IV+IA)*effNDIM*NUMNP = 8 + 2*3*8 = 56.
	assert.Equal(t, 56, cb.NND)
	// ENN = NV3D*NEL8 + NV1D*NEL2 + NV2D*NEL4 = 7*2 + 6*1 + 5*3 = 35.
	assert.Equal(t, 35, cb.ENN)
	// StateWords = 1 (time) + NGLBV + NND + ENN = 1 + 4 + 56 + 35 = 96.
	assert.Equal(t, 96, cb.StateWords)

	assert.NoError(t, cb.validate())
}

func TestDecodeControlBlockNegativeNEL8SetsExtraNode(t *testing.T) {
	var w testWriter
	w.writeControlBlock(testControlSpec{ndim: 3, numnp: 1, nel8: -5})

	cursor := NewBinaryCursor(bytes.NewReader(w.buf.Bytes()), candidateFormats[0])
	cb, err := decodeControlBlock(cursor)
	require.NoError(t, err)

	assert.Equal(t, 5, cb.NEL8)
	assert.True(t, cb.ExtraNodePerSolid)
}

func TestControlBlockValidateRejectsImplausibleNDIM(t *testing.T) {
	cb := ControlBlock{NDIM: 99, NUMNP: 1}
	err := cb.validate()
	require.Error(t, err)
	assert.Equal(t, InvalidFormat, ErrorKind(err))
}

func TestControlBlockValidateRejectsNonBooleanFlags(t *testing.T) {
	cb := ControlBlock{NDIM: 3, NUMNP: 1, IU: 2}
	err := cb.validate()
	require.Error(t, err)
	assert.Equal(t, InvalidFormat, ErrorKind(err))
}

func TestHeaderProbeAcceptsLittleEndianFourByte(t *testing.T) {
	var w testWriter
	w.writeControlBlock(testControlSpec{ndim: 3, numnp: 8, iu: 1, nel8: 1, nv3d: 7})
	w.writeUnitCubeNodes()
	w.writeSolidConnectivity(1)

	format, cb, err := HeaderProbe(bytes.NewReader(w.buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 4, format.WordSize)
	assert.Equal(t, 8, cb.NUMNP)
}

func TestHeaderProbeRejectsGarbage(t *testing.T) {
	garbage := bytes.Repeat([]byte{0xFF}, 512)
	_, _, err := HeaderProbe(bytes.NewReader(garbage))
	require.Error(t, err)
	assert.Equal(t, InvalidFormat, ErrorKind(err))
}
