// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surf

import (
	"math"

	"github.com/cpmech/csgeom/vecmat"
)

// Cylinder is an infinite circular cylinder about an axis through
// RefPoint in direction Axis.
type Cylinder struct {
	RefPoint vecmat.Point
	Axis     vecmat.Vec // unit
	Radius   float64
	Reversed bool
}

// NewCylinder validates axis/radius and returns a primary cylinder.
func NewCylinder(refPoint vecmat.Point, axis vecmat.Vec, radius float64) (Cylinder, error) {
	if axis.Norm() < 3*vecmat.Eps {
		return Cylinder{}, invalidSurface("cylinder: axis vector must be non-zero")
	}
	if radius <= 0 {
		return Cylinder{}, invalidSurface("cylinder: radius must be positive, got %g", radius)
	}
	return Cylinder{RefPoint: refPoint, Axis: axis.Normalized(), Radius: radius}, nil
}

func (c Cylinder) TypeName() string { return "c" }

func (c Cylinder) perp(v vecmat.Vec) vecmat.Vec {
	return v.Sub(c.Axis.Scale(v.Dot(c.Axis)))
}

func (c Cylinder) IsForward(p vecmat.Point) bool {
	perpVec := c.perp(p.Sub(c.RefPoint))
	f := perpVec.Norm() >= c.Radius
	if c.Reversed {
		return !f
	}
	return f
}

// Intersect projects the ray into the plane normal to the axis and solves
// the 2-D circle intersection there.
func (c Cylinder) Intersect(r vecmat.Ray) vecmat.Point {
	d := r.D.Normalized()
	dPerp := c.perp(d)
	if dPerp.Norm() < vecmat.Eps {
		// ray parallel to axis
		return vecmat.Invalid
	}
	delta := c.perp(r.P.Sub(c.RefPoint))
	a := dPerp.Dot(dPerp)
	b := 2 * delta.Dot(dPerp)
	cc := delta.Dot(delta) - c.Radius*c.Radius
	discr := b*b - 4*a*cc
	if discr < 0 {
		return vecmat.Invalid
	}
	sq := math.Sqrt(discr)
	t1 := (-b + sq) / (2 * a)
	t2 := (-b - sq) / (2 * a)
	return nearestForwardRoot(r.P, d, t1, t2)
}

func (c Cylinder) Transform(m vecmat.Mat4) Surface {
	if m.IsZero() {
		return c
	}
	c.RefPoint = m.ApplyPoint(c.RefPoint)
	c.Axis = m.ApplyVec(c.Axis).Normalized()
	return c
}

// BoundingPlanes: four side planes perpendicular to two axes spanning the
// cylinder's cross-section, circumscribed on the exterior (primary) side
// and inscribed (half-radius) on the interior (dual) side.
func (c Cylinder) BoundingPlanes() [][]Plane {
	u, v := orthogonalBasis(c.Axis)
	r := c.Radius
	if c.Reversed {
		r *= 0.5
	}
	dirs := []vecmat.Vec{u, u.Neg(), v, v.Neg()}
	planes := make([]Plane, len(dirs))
	for i, dir := range dirs {
		planes[i] = Plane{Normal: dir, Distance: dir.Dot(c.RefPoint.ToVec()) + r}
	}
	if c.Reversed {
		return [][]Plane{planes}
	}
	out := make([][]Plane, len(planes))
	for i, p := range planes {
		out[i] = []Plane{p}
	}
	return out
}

// orthogonalBasis returns two unit vectors spanning the plane perpendicular
// to axis, chosen stably regardless of axis orientation.
func orthogonalBasis(axis vecmat.Vec) (u, v vecmat.Vec) {
	ref := vecmat.Vec{X: 1}
	if math.Abs(axis.Dot(ref)) > 0.9 {
		ref = vecmat.Vec{Y: 1}
	}
	u = axis.Cross(ref).Normalized()
	v = axis.Cross(u).Normalized()
	return u, v
}

func (c Cylinder) InputString(name string) string {
	return formatCard(name, "ca", []float64{c.RefPoint.X, c.RefPoint.Y, c.RefPoint.Z, c.Axis.X, c.Axis.Y, c.Axis.Z, c.Radius})
}

func (c Cylinder) DeepClone(string) Surface { return c }
