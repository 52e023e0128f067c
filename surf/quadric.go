// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surf

import (
	"math"

	"github.com/cpmech/csgeom/vecmat"
)

// Quadric is the fully general second-degree surface
// A*x^2 + B*y^2 + C*z^2 + D*xy + E*xz + F*yz + G*x + H*y + J*z + K = 0,
// the catch-all primitive for any conic that the named primitives
// (plane, sphere, cylinder, cone, torus) don't capture directly.
type Quadric struct {
	A, B, C, D, E, F, G, H, J, K float64
	Reversed                     bool
}

// NewQuadric validates that at least one second-order coefficient is
// non-zero (otherwise the locus degenerates to a plane) and returns a
// primary quadric.
func NewQuadric(a, b, c, d, e, f, g, h, j, k float64) (Quadric, error) {
	if a == 0 && b == 0 && c == 0 && d == 0 && e == 0 && f == 0 {
		return Quadric{}, invalidSurface("quadric: at least one second-order coefficient must be non-zero")
	}
	return Quadric{A: a, B: b, C: c, D: d, E: e, F: f, G: g, H: h, J: j, K: k}, nil
}

func (q Quadric) TypeName() string { return "gq" }

func (q Quadric) value(p vecmat.Point) float64 {
	x, y, z := p.X, p.Y, p.Z
	return q.A*x*x + q.B*y*y + q.C*z*z + q.D*x*y + q.E*x*z + q.F*y*z + q.G*x + q.H*y + q.J*z + q.K
}

func (q Quadric) IsForward(p vecmat.Point) bool {
	f := q.value(p) >= 0
	if q.Reversed {
		return !f
	}
	return f
}

// Intersect substitutes the ray's parametric point into the quadratic
// form and solves for t.
func (q Quadric) Intersect(r vecmat.Ray) vecmat.Point {
	d := r.D.Normalized()
	px, py, pz := r.P.X, r.P.Y, r.P.Z
	dx, dy, dz := d.X, d.Y, d.Z

	a2 := q.A*dx*dx + q.B*dy*dy + q.C*dz*dz + q.D*dx*dy + q.E*dx*dz + q.F*dy*dz
	a1 := 2*q.A*px*dx + 2*q.B*py*dy + 2*q.C*pz*dz +
		q.D*(px*dy+py*dx) + q.E*(px*dz+pz*dx) + q.F*(py*dz+pz*dy) +
		q.G*dx + q.H*dy + q.J*dz
	a0 := q.value(r.P)

	if math.Abs(a2) < vecmat.Eps {
		if math.Abs(a1) < vecmat.Eps {
			return vecmat.Invalid
		}
		t := -a0 / a1
		if t <= vecmat.Delta {
			return vecmat.Invalid
		}
		return r.At(t)
	}
	discr := a1*a1 - 4*a2*a0
	if discr < 0 {
		return vecmat.Invalid
	}
	sq := math.Sqrt(discr)
	t1 := (-a1 + sq) / (2 * a2)
	t2 := (-a1 - sq) / (2 * a2)
	return nearestForwardRoot(r.P, d, t1, t2)
}

// Transform applies the affine map to the quadric's coefficients by
// substituting p = R*p' + T into the implicit equation and regrouping.
func (q Quadric) Transform(m vecmat.Mat4) Surface {
	if m.IsZero() {
		return q
	}
	minv, err := m.Inverse()
	if err != nil {
		return q
	}
	r := minv.R
	t := minv.T
	// world point p maps to local p' = Rinv*p + Tinv ... express the
	// quadric's value at Rinv*p+Tinv as a function of p's coordinates.
	// Build the symmetric 3x3 quadratic-form matrix plus linear/constant
	// terms, then substitute the affine map and re-extract coefficients.
	qm := [3][3]float64{
		{q.A, q.D / 2, q.E / 2},
		{q.D / 2, q.B, q.F / 2},
		{q.E / 2, q.F / 2, q.C},
	}
	lin := [3]float64{q.G, q.H, q.J}

	// newQM = R^T * qm * R ; newLin = R^T*(2*qm*T + lin) ; newConst = T.qm.T + lin.T + K
	rt := func(i, j int) float64 { return r[j][i] }
	var mr [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += qm[i][k] * r[k][j]
			}
			mr[i][j] = s
		}
	}
	var newQM [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += rt(i, k) * mr[k][j]
			}
			newQM[i][j] = s
		}
	}
	tv := [3]float64{t.X, t.Y, t.Z}
	qmT := [3]float64{}
	for i := 0; i < 3; i++ {
		var s float64
		for k := 0; k < 3; k++ {
			s += qm[i][k] * tv[k]
		}
		qmT[i] = s
	}
	var newLin [3]float64
	for i := 0; i < 3; i++ {
		var s float64
		for k := 0; k < 3; k++ {
			s += rt(i, k) * (2*qmT[k] + lin[k])
		}
		newLin[i] = s
	}
	var tQmT float64
	for i := 0; i < 3; i++ {
		tQmT += tv[i] * qmT[i]
	}
	var linT float64
	for i := 0; i < 3; i++ {
		linT += lin[i] * tv[i]
	}
	newConst := tQmT + linT + q.K

	q.A, q.B, q.C = newQM[0][0], newQM[1][1], newQM[2][2]
	q.D = newQM[0][1] + newQM[1][0]
	q.E = newQM[0][2] + newQM[2][0]
	q.F = newQM[1][2] + newQM[2][1]
	q.G, q.H, q.J = newLin[0], newLin[1], newLin[2]
	q.K = newConst
	return q
}

// BoundingPlanes has no closed-form general derivation for an arbitrary
// quadric and returns nil; the bbox tiers skip a surface whose planes are
// nil, so a quadric adds no bound.
func (q Quadric) BoundingPlanes() [][]Plane { return nil }

func (q Quadric) InputString(name string) string {
	return formatCard(name, "gq", []float64{q.A, q.B, q.C, q.D, q.E, q.F, q.G, q.H, q.J, q.K})
}

func (q Quadric) DeepClone(string) Surface { return q }
