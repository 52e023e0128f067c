// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vecmat implements the 3/4-D vector and affine-matrix algebra
// shared by every surface primitive: points, direction vectors, and the
// 4x4 (rotation + translation) matrices produced by TR cards.
package vecmat

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Eps is the default tolerance used for membership and root-finding
// comparisons, mirroring the source engine's math::Vector<N>::EPS.
const Eps = 1e-8

// Delta is the minimum forward step accepted for a ray hit, mirroring
// math::Vector<N>::delta(). A fixed value (rather than a multiple of Eps)
// keeps results reproducible across platforms.
const Delta = 1e-6

// MaxExtent bounds what is still considered a finite bounding-box extent;
// beyond it a box is treated as reaching to infinity.
const MaxExtent = 1e36

// Point is a point in 3-space.
type Point struct {
	X, Y, Z float64
}

// Vec is a free (direction) vector in 3-space.
type Vec struct {
	X, Y, Z float64
}

// Invalid is the sentinel returned by intersection queries that found no hit.
// Its coordinates are +Inf, so it compares equal to itself with ==.
var Invalid = Point{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}

// IsValid reports whether p is not the Invalid sentinel.
func (p Point) IsValid() bool {
	return p != Invalid
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// Sub returns p - q as a free vector.
func (p Point) Sub(q Point) Vec {
	return Vec{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Add returns the point obtained by offsetting p by v.
func (p Point) Add(v Vec) Point {
	return Point{p.X + v.X, p.Y + v.Y, p.Z + v.Z}
}

// AddVec is an alias of Add kept for call sites that read better with a
// vector-first verb (e.g. ray marching: p = ray.At(t)).
func (p Point) AddVec(v Vec) Point { return p.Add(v) }

// ToVec reinterprets p as the vector from the origin to p.
func (p Point) ToVec() Vec { return Vec{p.X, p.Y, p.Z} }

// ToPoint reinterprets v as the point it reaches from the origin.
func (v Vec) ToPoint() Point { return Point{v.X, v.Y, v.Z} }

// Add returns v + w.
func (v Vec) Add(w Vec) Vec { return Vec{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// Sub returns v - w.
func (v Vec) Sub(w Vec) Vec { return Vec{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

// Scale returns v scaled by a.
func (v Vec) Scale(a float64) Vec { return Vec{v.X * a, v.Y * a, v.Z * a} }

// Neg returns -v.
func (v Vec) Neg() Vec { return Vec{-v.X, -v.Y, -v.Z} }

// Dot returns the scalar product v.w.
func (v Vec) Dot(w Vec) float64 { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }

// Cross returns v x w.
func (v Vec) Cross(w Vec) Vec {
	return Vec{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Norm returns the Euclidean length of v.
func (v Vec) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Normalized returns v scaled to unit length.
// It returns the zero vector, without panicking, if v is (numerically)
// zero-length; surface constructors reject a zero-length axis with an
// InvalidSurface error before calling Normalized.
func (v Vec) Normalized() Vec {
	n := v.Norm()
	if n < 3*Eps {
		return Vec{}
	}
	return v.Scale(1 / n)
}

func (v Vec) String() string {
	return fmt.Sprintf("<%g, %g, %g>", v.X, v.Y, v.Z)
}

// Ray is a half-line p + t*d, t >= 0.
type Ray struct {
	P Point
	D Vec
}

// At returns the point reached after marching distance t along the ray.
func (r Ray) At(t float64) Point {
	return r.P.Add(r.D.Scale(t))
}

// Mat4 is an affine transform: a 3x3 rotation/scale block R and a
// translation row T, applied as x' = R*x + T -- the layout produced by the
// deck's TR cards (rotation part 3x3 + translation row).
type Mat4 struct {
	R [3][3]float64
	T Vec
}

// Identity returns the identity transform.
func Identity() Mat4 {
	return Mat4{R: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// IsIdentity reports whether m is (numerically) the identity transform.
func (m Mat4) IsIdentity() bool {
	id := Identity()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(m.R[i][j]-id.R[i][j]) > Eps {
				return false
			}
		}
	}
	return m.T.Norm() < Eps
}

// IsZero reports whether m is the identically-zero matrix; transforming by
// it is defined as a no-op.
func (m Mat4) IsZero() bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if m.R[i][j] != 0 {
				return false
			}
		}
	}
	return m.T == Vec{}
}

// ApplyPoint transforms a point: p' = R*p + T.
func (m Mat4) ApplyPoint(p Point) Point {
	v := m.applyLinear(p.ToVec())
	return v.Add(m.T).ToPoint()
}

// ApplyVec transforms a free vector (rotation/scale only, no translation).
func (m Mat4) ApplyVec(v Vec) Vec {
	return m.applyLinear(v)
}

func (m Mat4) applyLinear(v Vec) Vec {
	return Vec{
		m.R[0][0]*v.X + m.R[0][1]*v.Y + m.R[0][2]*v.Z,
		m.R[1][0]*v.X + m.R[1][1]*v.Y + m.R[1][2]*v.Z,
		m.R[2][0]*v.X + m.R[2][1]*v.Y + m.R[2][2]*v.Z,
	}
}

// Compose returns the transform equivalent to applying m first, then n:
// n.Compose(m) applied to p equals n.ApplyPoint(m.ApplyPoint(p)).
func (n Mat4) Compose(m Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += n.R[i][k] * m.R[k][j]
			}
			out.R[i][j] = s
		}
	}
	out.T = n.applyLinear(m.T).Add(n.T)
	return out
}

// Inverse returns the inverse affine transform, solved via gonum's dense
// LU factorisation rather than a hand-rolled 3x3 cofactor expansion.
func (m Mat4) Inverse() (Mat4, error) {
	a := mat.NewDense(3, 3, []float64{
		m.R[0][0], m.R[0][1], m.R[0][2],
		m.R[1][0], m.R[1][1], m.R[1][2],
		m.R[2][0], m.R[2][1], m.R[2][2],
	})
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return Mat4{}, fmt.Errorf("vecmat: non-invertible transform: %w", err)
	}
	var out Mat4
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.R[i][j] = inv.At(i, j)
		}
	}
	negT := Vec{-m.T.X, -m.T.Y, -m.T.Z}
	out.T = out.applyLinear(negT)
	return out, nil
}

// Orthonormalize repairs small numerical drift in the rotation block using
// Gram-Schmidt, so that a transform built from noisy deck input keeps its
// rotation orthonormal.
func (m Mat4) Orthonormalize() Mat4 {
	r0 := Vec{m.R[0][0], m.R[0][1], m.R[0][2]}.Normalized()
	r1raw := Vec{m.R[1][0], m.R[1][1], m.R[1][2]}
	r1 := r1raw.Sub(r0.Scale(r1raw.Dot(r0))).Normalized()
	r2 := r0.Cross(r1)
	out := m
	out.R[0] = [3]float64{r0.X, r0.Y, r0.Z}
	out.R[1] = [3]float64{r1.X, r1.Y, r1.Z}
	out.R[2] = [3]float64{r2.X, r2.Y, r2.Z}
	return out
}

// FromRotationTranslation builds a Mat4 from a row-major 3x3 rotation and a
// translation, the shape parsed off a deck *TRn card (12 numbers: 9
// rotation entries followed by 3 translation entries, or vice versa
// depending on card convention -- the deck layer decides the order).
func FromRotationTranslation(rot [9]float64, t Vec) Mat4 {
	return Mat4{
		R: [3][3]float64{
			{rot[0], rot[1], rot[2]},
			{rot[3], rot[4], rot[5]},
			{rot[6], rot[7], rot[8]},
		},
		T: t,
	}
}

// Solve3x3 solves A*x = b for a 3x3 system, used by the bounding-box
// triple-plane intersection. It returns ok=false for a singular
// (parallel-planes) system instead of an error, since "no intersection"
// is an expected, common outcome there.
func Solve3x3(a [3][3]float64, b Vec) (Point, bool) {
	A := mat.NewDense(3, 3, []float64{
		a[0][0], a[0][1], a[0][2],
		a[1][0], a[1][1], a[1][2],
		a[2][0], a[2][1], a[2][2],
	})
	B := mat.NewVecDense(3, []float64{b.X, b.Y, b.Z})
	var x mat.VecDense
	if err := x.SolveVec(A, B); err != nil {
		return Point{}, false
	}
	return Point{x.AtVec(0), x.AtVec(1), x.AtVec(2)}, true
}
