// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surf

import (
	"math"

	"github.com/cpmech/csgeom/vecmat"
)

// Sphere is a primary (outside-is-forward) sphere; its dual flips the sense.
type Sphere struct {
	Center   vecmat.Point
	Radius   float64
	Reversed bool
}

// NewSphere validates radius and returns a primary sphere.
func NewSphere(center vecmat.Point, radius float64) (Sphere, error) {
	if radius <= 0 {
		return Sphere{}, invalidSurface("sphere: radius must be positive, got %g", radius)
	}
	return Sphere{Center: center, Radius: radius}, nil
}

func (s Sphere) TypeName() string { return "s" }

// IsForward: radius - dist(p,center) <= 0 is forward (outside), reversed flips.
func (s Sphere) IsForward(p vecmat.Point) bool {
	f := s.Radius-p.Sub(s.Center).Norm() <= 0
	if s.Reversed {
		return !f
	}
	return f
}

func (s Sphere) Intersect(r vecmat.Ray) vecmat.Point {
	d := r.D.Normalized()
	sv := r.P.Sub(s.Center)
	dDotS := d.Dot(sv)
	discr := dDotS*dDotS - sv.Dot(sv) + s.Radius*s.Radius
	if discr < vecmat.Eps {
		return vecmat.Invalid
	}
	root := math.Sqrt(discr)
	plus := -dDotS + root
	minus := -dDotS - root
	return nearestForwardRoot(r.P, d, plus, minus)
}

// nearestForwardRoot implements the shared root-selection rule used by
// sphere, cylinder and quadric: of the two roots, the nearest one beyond
// Delta wins; when neither lies beyond Delta, a root within Eps of zero
// (the ray starts on the surface) returns that point.
func nearestForwardRoot(p vecmat.Point, d vecmat.Vec, plus, minus float64) vecmat.Point {
	switch {
	case plus > vecmat.Delta && minus > vecmat.Delta:
		if plus < minus {
			return p.Add(d.Scale(plus))
		}
		return p.Add(d.Scale(minus))
	case plus > vecmat.Delta:
		return p.Add(d.Scale(plus))
	case minus > vecmat.Delta:
		return p.Add(d.Scale(minus))
	case math.Abs(plus) < vecmat.Eps:
		return p.Add(d.Scale(plus))
	case math.Abs(minus) < vecmat.Eps:
		return p.Add(d.Scale(minus))
	default:
		return vecmat.Invalid
	}
}

func (s Sphere) Transform(m vecmat.Mat4) Surface {
	if m.IsZero() {
		return s
	}
	s.Center = m.ApplyPoint(s.Center)
	return s
}

// BoundingPlanes: the primary (exterior) side is a union of half-spaces
// through tangent planes on the six axis directions, approximating the
// sphere's exterior as the union of all outward half-spaces; the dual
// (interior) side is the single AND of the same six planes,
// inset to half radius so the box stays inscribed.
func (s Sphere) BoundingPlanes() [][]Plane {
	r := s.Radius
	axes := []vecmat.Vec{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1}}
	if !s.Reversed {
		out := make([][]Plane, len(axes))
		for i, a := range axes {
			out[i] = []Plane{{Normal: a, Distance: a.Dot(s.Center.ToVec()) + r}}
		}
		return out
	}
	inset := r * 0.5
	inner := make([]Plane, len(axes))
	for i, a := range axes {
		inner[i] = Plane{Normal: a, Distance: a.Dot(s.Center.ToVec()) + inset}
	}
	return [][]Plane{inner}
}

func (s Sphere) InputString(name string) string {
	return formatCard(name, "s", []float64{s.Center.X, s.Center.Y, s.Center.Z, s.Radius})
}

func (s Sphere) DeepClone(string) Surface { return s }
