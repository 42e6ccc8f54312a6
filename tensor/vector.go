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

// Package tensor holds the geometric and stress-tensor primitives shared
// by the surface extractor and the single-pass engine: Vec3 and
// StressTensor (spec.md §4.5's TensorOps).
package tensor

import "math"

// zeroMagnitude is the threshold below which a vector is treated as zero
// for normalization and angle purposes.
const zeroMagnitude = 1e-30

// Vec3 is a value-type 3D vector. Unlike the C++ original it never
// panics: degenerate operations (normalizing a zero vector, dividing by
// zero) return the zero vector rather than throwing.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the scalar dot product v . o.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// MagnitudeSquared returns |v|^2, avoiding a square root.
func (v Vec3) MagnitudeSquared() float64 { return v.Dot(v) }

// Magnitude returns |v|.
func (v Vec3) Magnitude() float64 { return math.Sqrt(v.MagnitudeSquared()) }

// NormalizedSafe returns the unit vector in v's direction, or the zero
// vector when v is (numerically) zero.
func (v Vec3) NormalizedSafe() Vec3 {
	mag := v.Magnitude()
	if mag < zeroMagnitude {
		return Vec3{}
	}
	return v.Scale(1 / mag)
}

// AngleTo returns the angle between v and o in radians, in [0, pi],
// clamping the intermediate cosine to [-1, 1] to guard against rounding
// error, per spec.md §4.5.
func (v Vec3) AngleTo(o Vec3) float64 {
	magProduct := v.Magnitude() * o.Magnitude()
	if magProduct < zeroMagnitude {
		return 0
	}
	cos := v.Dot(o) / magProduct
	return math.Acos(clamp(cos, -1, 1))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
