// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surf

import (
	"math"
	"sort"

	"github.com/cpmech/csgeom/vecmat"
)

// Torus is a torus of revolution about Axis through Center, with major
// radius R and elliptical minor cross-section (A vertical, B horizontal).
// A == B gives a circular minor cross-section.
type Torus struct {
	Center   vecmat.Point
	Axis     vecmat.Vec // unit
	R        float64    // major radius
	A        float64    // minor radius along the revolution-plane-normal direction
	B        float64    // minor radius in the revolution plane
	Reversed bool
}

// NewTorus validates the radii and returns a primary torus.
func NewTorus(center vecmat.Point, axis vecmat.Vec, majorR, minorA, minorB float64) (Torus, error) {
	if axis.Norm() < 3*vecmat.Eps {
		return Torus{}, invalidSurface("torus: axis vector must be non-zero")
	}
	if majorR <= 0 || minorA <= 0 || minorB <= 0 {
		return Torus{}, invalidSurface("torus: R, A, B must all be positive, got R=%g A=%g B=%g", majorR, minorA, minorB)
	}
	return Torus{Center: center, Axis: axis.Normalized(), R: majorR, A: minorA, B: minorB}, nil
}

func (t Torus) TypeName() string { return "tor" }

// frame returns the unit vectors u, v spanning the revolution plane; with
// Axis they form the canonical frame toLocal expresses points in.
func (t Torus) frame() (u, v vecmat.Vec) {
	return orthogonalBasis(t.Axis)
}

func (t Torus) toLocal(p vecmat.Point) (x, y, z float64) {
	u, v := t.frame()
	rel := p.Sub(t.Center)
	return rel.Dot(u), rel.Dot(v), rel.Dot(t.Axis)
}

// implicitValue evaluates the torus's implicit function at a local-frame
// point: (sqrt(x^2+y^2)/B - R/B)^2 + z^2/A^2 - 1. Zero on the surface,
// negative inside the tube, positive outside.
func (t Torus) implicitValue(x, y, z float64) float64 {
	rho := math.Sqrt(x*x + y*y)
	rb := rho/t.B - t.R/t.B
	return rb*rb + (z*z)/(t.A*t.A) - 1
}

func (t Torus) IsForward(p vecmat.Point) bool {
	x, y, z := t.toLocal(p)
	f := t.implicitValue(x, y, z) >= 0
	if t.Reversed {
		return !f
	}
	return f
}

// Intersect transforms the ray into canonical (origin, z-axis, R, A, B)
// coordinates, solves the degree-4 polynomial for the parametric distance
// t along the ray, then picks the nearest forward root. Quartic root
// finders carry roughly 1e-5 relative error, so every candidate is
// refined with a single Newton step on the implicit function before the
// nearest-forward selection.
func (t Torus) Intersect(r vecmat.Ray) vecmat.Point {
	u, v := t.frame()
	d := r.D.Normalized()
	ox, oy, oz := t.toLocal(r.P)
	dx, dy, dz := d.Dot(u), d.Dot(v), d.Dot(t.Axis)

	roots := solveTorusQuartic(ox, oy, oz, dx, dy, dz, t.R, t.A, t.B)
	if len(roots) == 0 {
		return vecmat.Invalid
	}
	for i, root := range roots {
		roots[i] = t.newtonRefine(ox, oy, oz, dx, dy, dz, root)
	}
	sort.Float64s(roots)

	var forward []float64
	for _, root := range roots {
		if root > vecmat.Delta {
			forward = append(forward, root)
		}
	}
	if len(forward) == 0 {
		return vecmat.Invalid
	}
	return r.At(forward[0])
}

// newtonRefine takes one Newton step on f(s) = implicitValue(local ray at
// s) to sharpen a quartic root found by solveTorusQuartic.
func (t Torus) newtonRefine(ox, oy, oz, dx, dy, dz, s float64) float64 {
	f := func(s float64) float64 {
		return t.implicitValue(ox+dx*s, oy+dy*s, oz+dz*s)
	}
	const h = 1e-6
	fs := f(s)
	fprime := (f(s+h) - f(s-h)) / (2 * h)
	if math.Abs(fprime) < vecmat.Eps {
		return s
	}
	return s - fs/fprime
}

// solveTorusQuartic expands ((x^2+y^2)/B^2 - (R/B)^2)... into the
// canonical torus quartic in terms of the ray parameter s and returns its
// real roots. The quartic coefficients follow the standard torus/ray
// intersection expansion: with rho2(s) = (ox+dx*s)^2 + (oy+dy*s)^2 and
// Z(s) = oz+dz*s, the implicit equation (rho(s)/B - R/B)^2 + Z(s)^2/A^2 =
// 1 is squared out to remove the square root, producing a quartic in s.
func solveTorusQuartic(ox, oy, oz, dx, dy, dz, R, A, B float64) []float64 {
	// G(s) = rho2(s) + (R^2 - B^2) + (B^2/A^2)*Z(s)^2, so that the
	// implicit equation becomes G(s)^2 = 4*R^2*rho2(s).
	a2 := dx*dx + dy*dy
	a1 := 2 * (ox*dx + oy*dy)
	a0 := ox*ox + oy*oy

	b2 := dz * dz
	b1 := 2 * oz * dz
	b0 := oz * oz

	k := B * B / (A * A)
	c := R*R - B*B

	// G(s) = a2*s^2 + a1*s + a0 + c + k*(b2*s^2+b1*s+b0)
	g2 := a2 + k*b2
	g1 := a1 + k*b1
	g0 := a0 + c + k*b0

	// G(s)^2 - 4*R^2*rho2(s) = 0, a quartic in s.
	// G(s)^2 coefficients (degree 4..0):
	q4 := g2 * g2
	q3 := 2 * g2 * g1
	q2 := g1*g1 + 2*g2*g0
	q1 := 2 * g1 * g0
	q0 := g0 * g0

	// subtract 4*R^2*(a2*s^2+a1*s+a0)
	q2 -= 4 * R * R * a2
	q1 -= 4 * R * R * a1
	q0 -= 4 * R * R * a0

	return realQuarticRoots(q4, q3, q2, q1, q0)
}

// realQuarticRoots finds the real roots of q4*s^4+q3*s^3+q2*s^2+q1*s+q0
// via Ferrari's method, falling back to a cubic solve when q4 is
// negligible (ray nearly parallel to the torus's degenerate directions).
func realQuarticRoots(q4, q3, q2, q1, q0 float64) []float64 {
	if math.Abs(q4) < 1e-12 {
		if math.Abs(q3) < 1e-12 {
			return realQuadraticRoots(q2, q1, q0)
		}
		return realCubicRoots(q3, q2, q1, q0)
	}
	// normalize to monic form s^4 + b*s^3 + c*s^2 + d*s + e
	b := q3 / q4
	c := q2 / q4
	d := q1 / q4
	e := q0 / q4

	// depressed quartic: substitute s = y - b/4 -> y^4 + p*y^2 + q*y + r
	p := c - 3*b*b/8
	q := b*b*b/8 - b*c/2 + d
	rr := -3*b*b*b*b/256 + b*b*c/16 - b*d/4 + e

	var ys []float64
	if math.Abs(q) < 1e-12 {
		// biquadratic: y^4 + p*y^2 + r = 0
		for _, y2 := range realQuadraticRoots(1, p, rr) {
			if y2 >= 0 {
				sq := math.Sqrt(y2)
				ys = append(ys, sq, -sq)
			} else if y2 == 0 {
				ys = append(ys, 0)
			}
		}
	} else {
		// resolvent cubic: m^3 + (5p/2)m^2 + (2p^2-r)m + (p^3/2 - p*r/2 - q^2/8) = 0
		resolvent := realCubicRoots(1, 5*p/2, 2*p*p-rr, p*p*p/2-p*rr/2-q*q/8)
		if len(resolvent) == 0 {
			return nil
		}
		m := resolvent[0]
		for _, cand := range resolvent {
			if cand > m {
				m = cand
			}
		}
		// w = m + p/2 is the root for which the quartic can be written as
		// (y^2 + p/2 + w)^2 = 2w*(y - q/(4w))^2.
		w := m + p/2
		if 2*w < 0 {
			return nil
		}
		sqrt2w := math.Sqrt(2 * w)
		if sqrt2w < 1e-12 {
			return nil
		}
		for _, sign1 := range []float64{1, -1} {
			inner := -(2*p + 2*w + sign1*2*q/sqrt2w)
			if inner < 0 {
				continue
			}
			sqInner := math.Sqrt(inner)
			ys = append(ys, (sign1*sqrt2w+sqInner)/2, (sign1*sqrt2w-sqInner)/2)
		}
	}
	roots := make([]float64, len(ys))
	for i, y := range ys {
		roots[i] = y - b/4
	}
	return roots
}

func realCubicRoots(a, b, c, d float64) []float64 {
	if math.Abs(a) < 1e-12 {
		return realQuadraticRoots(b, c, d)
	}
	b, c, d = b/a, c/a, d/a
	p := c - b*b/3
	q := 2*b*b*b/27 - b*c/3 + d
	discr := q*q/4 + p*p*p/27
	shift := -b / 3

	switch {
	case discr > 1e-14:
		sq := math.Sqrt(discr)
		u := math.Cbrt(-q/2 + sq)
		v := math.Cbrt(-q/2 - sq)
		return []float64{u + v + shift}
	case discr < -1e-14:
		r := math.Sqrt(-p * p * p / 27)
		phi := math.Acos(clampUnit(-q / (2 * r)))
		t0 := 2 * math.Cbrt(r)
		return []float64{
			t0*math.Cos(phi/3) + shift,
			t0*math.Cos((phi+2*math.Pi)/3) + shift,
			t0*math.Cos((phi+4*math.Pi)/3) + shift,
		}
	default:
		u := math.Cbrt(-q / 2)
		return []float64{2*u + shift, -u + shift}
	}
}

func realQuadraticRoots(a, b, c float64) []float64 {
	if math.Abs(a) < 1e-12 {
		if math.Abs(b) < 1e-12 {
			return nil
		}
		return []float64{-c / b}
	}
	discr := b*b - 4*a*c
	if discr < 0 {
		return nil
	}
	if discr == 0 {
		return []float64{-b / (2 * a)}
	}
	sq := math.Sqrt(discr)
	return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
}

func clampUnit(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

func (t Torus) Transform(m vecmat.Mat4) Surface {
	if m.IsZero() {
		return t
	}
	t.Center = m.ApplyPoint(t.Center)
	t.Axis = m.ApplyVec(t.Axis).Normalized()
	return t
}

// BoundingPlanes approximates the torus's extent by six axis-aligned
// tangent planes at the outer envelope radius (R+B) and half-height A,
// the same circumscribed/inscribed split used for sphere and cylinder.
func (t Torus) BoundingPlanes() [][]Plane {
	u, v := t.frame()
	outer := t.R + t.B
	half := t.A
	if t.Reversed {
		outer *= 0.7
		half *= 0.7
	}
	dirs := []vecmat.Vec{u, u.Neg(), v, v.Neg(), t.Axis, t.Axis.Neg()}
	dist := []float64{outer, outer, outer, outer, half, half}
	planes := make([]Plane, len(dirs))
	for i, dir := range dirs {
		planes[i] = Plane{Normal: dir, Distance: dir.Dot(t.Center.ToVec()) + dist[i]}
	}
	if t.Reversed {
		return [][]Plane{planes}
	}
	out := make([][]Plane, len(planes))
	for i, p := range planes {
		out[i] = []Plane{p}
	}
	return out
}

func (t Torus) InputString(name string) string {
	return formatCard(name, "tor", []float64{t.Center.X, t.Center.Y, t.Center.Z, t.Axis.X, t.Axis.Y, t.Axis.Z, t.R, t.A, t.B})
}

func (t Torus) DeepClone(string) Surface { return t }
