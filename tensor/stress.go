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

package tensor

import "math"

// hydrostaticEpsilon bounds J2 below which a stress state is treated as
// purely hydrostatic (all three principal stresses equal), per spec.md
// §4.5.
const hydrostaticEpsilon = 1e-20

// StressTensor is a symmetric 3x3 stress (or strain) tensor in LS-DYNA's
// six-component Voigt order: (xx, yy, zz, xy, yz, zx).
type StressTensor struct {
	XX, YY, ZZ float64
	XY, YZ, ZX float64
}

// VonMises returns the Von Mises equivalent stress. Non-negative by
// construction.
func (s StressTensor) VonMises() float64 {
	d1 := s.XX - s.YY
	d2 := s.YY - s.ZZ
	d3 := s.ZZ - s.XX
	shear := s.XY*s.XY + s.YZ*s.YZ + s.ZX*s.ZX
	return math.Sqrt(0.5 * (d1*d1 + d2*d2 + d3*d3 + 6*shear))
}

// MeanStress returns (xx+yy+zz)/3.
func (s StressTensor) MeanStress() float64 { return (s.XX + s.YY + s.ZZ) / 3 }

// HydrostaticPressure returns the negation of MeanStress.
func (s StressTensor) HydrostaticPressure() float64 { return -s.MeanStress() }

// i1 is the first stress invariant.
func (s StressTensor) i1() float64 { return s.XX + s.YY + s.ZZ }

// i3 is the third stress invariant (determinant of the full tensor).
func (s StressTensor) i3() float64 {
	return s.XX*(s.YY*s.ZZ-s.YZ*s.YZ) -
		s.XY*(s.XY*s.ZZ-s.YZ*s.ZX) +
		s.ZX*(s.XY*s.YZ-s.YY*s.ZX)
}

// PrincipalStresses returns (sigma1 >= sigma2 >= sigma3), computed via the
// closed-form Lode-angle formula on the deviatoric tensor. When J2 falls
// below hydrostaticEpsilon all three are equal to the mean stress.
func (s StressTensor) PrincipalStresses() (sigma1, sigma2, sigma3 float64) {
	mean := s.i1() / 3

	sxx := s.XX - mean
	syy := s.YY - mean
	szz := s.ZZ - mean

	j2 := 0.5 * (sxx*sxx + syy*syy + szz*szz + 2*(s.XY*s.XY+s.YZ*s.YZ+s.ZX*s.ZX))
	if j2 < hydrostaticEpsilon {
		return mean, mean, mean
	}

	j3 := sxx*(syy*szz-s.YZ*s.YZ) -
		s.XY*(s.XY*szz-s.YZ*s.ZX) +
		s.ZX*(s.XY*s.YZ-syy*s.ZX)

	r := math.Sqrt(j2 / 3)
	cos3theta := clamp(j3/(2*r*r*r), -1, 1)
	theta := math.Acos(cos3theta) / 3

	twoR := 2 * r
	p := [3]float64{
		mean + twoR*math.Cos(theta),
		mean + twoR*math.Cos(theta-2*math.Pi/3),
		mean + twoR*math.Cos(theta+2*math.Pi/3),
	}
	if p[0] < p[1] {
		p[0], p[1] = p[1], p[0]
	}
	if p[1] < p[2] {
		p[1], p[2] = p[2], p[1]
	}
	if p[0] < p[1] {
		p[0], p[1] = p[1], p[0]
	}
	return p[0], p[1], p[2]
}

// Traction returns t = s . n for a plane with unit normal n.
func (s StressTensor) Traction(n Vec3) Vec3 {
	return Vec3{
		X: s.XX*n.X + s.XY*n.Y + s.ZX*n.Z,
		Y: s.XY*n.X + s.YY*n.Y + s.YZ*n.Z,
		Z: s.ZX*n.X + s.YZ*n.Y + s.ZZ*n.Z,
	}
}

// NormalStress returns the signed normal stress on a plane with unit
// normal n (tension positive).
func (s StressTensor) NormalStress(n Vec3) float64 {
	return s.Traction(n).Dot(n)
}

// ShearStress returns the shear stress magnitude on a plane with unit
// normal n, clamping the radicand to guard against round-off producing a
// negative value.
func (s StressTensor) ShearStress(n Vec3) float64 {
	t := s.Traction(n)
	sigmaN := t.Dot(n)
	diff := t.MagnitudeSquared() - sigmaN*sigmaN
	if diff < 0 {
		diff = 0
	}
	return math.Sqrt(diff)
}
