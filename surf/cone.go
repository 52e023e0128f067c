// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surf

import (
	"math"

	"github.com/cpmech/csgeom/vecmat"
)

// ConeSheet selects which nappe(s) of the double cone a Cone surface keeps.
type ConeSheet int

const (
	// ConeTwoSheet accepts either nappe.
	ConeTwoSheet ConeSheet = 0
	// ConePlusSheet keeps only the nappe with (x-vertex).axis > 0.
	ConePlusSheet ConeSheet = 1
	// ConeMinusSheet keeps only the nappe with (x-vertex).axis < 0.
	ConeMinusSheet ConeSheet = -1
)

// Cone is a circular cone with apex Vertex, unit Axis, and half-angle
// implied by Radius (the radius of the cone's cross-section one unit of
// axial distance from the vertex).
type Cone struct {
	Vertex   vecmat.Point
	Axis     vecmat.Vec // unit
	Radius   float64    // tan(half-angle)
	Sheet    ConeSheet
	Reversed bool
}

// NewCone validates axis/radius and returns a primary cone.
func NewCone(vertex vecmat.Point, axis vecmat.Vec, radius float64, sheet ConeSheet) (Cone, error) {
	if axis.Norm() < 3*vecmat.Eps {
		return Cone{}, invalidSurface("cone: axis vector must be non-zero")
	}
	if radius*radius <= 0 {
		return Cone{}, invalidSurface("cone: radius^2 must be positive, got %g", radius*radius)
	}
	return Cone{Vertex: vertex, Axis: axis.Normalized(), Radius: radius, Sheet: sheet}, nil
}

// cos2 returns 1/(1+Radius^2), the half-angle cosine squared; quadForm
// computes the bilinear form a . M . b for M = axis*axis^T - cos2 * I,
// without materialising M.
func (c Cone) cos2() float64 {
	return 1.0 / (1.0 + c.Radius*c.Radius)
}

func (c Cone) quadForm(a, b vecmat.Vec) float64 {
	return a.Dot(c.Axis)*b.Dot(c.Axis) - c.cos2()*a.Dot(b)
}

func (c Cone) TypeName() string { return "k" }

func (c Cone) IsForward(p vecmat.Point) bool {
	rel := p.Sub(c.Vertex)
	h := c.Axis.Dot(rel)
	if h == 0 {
		return !c.Reversed
	}
	if float64(c.Sheet)*h < 0 {
		return !c.Reversed
	}
	value := c.quadForm(rel, rel)
	f := value <= 0
	if c.Reversed {
		return !f
	}
	return f
}

// Intersect solves the quadratic t such that (p+td-vertex).M.(p+td-vertex)=0
// with M = axis*axis^T - cos2*I, then filters by sheet policy.
func (c Cone) Intersect(r vecmat.Ray) vecmat.Point {
	d := r.D.Normalized()
	delta := r.P.Sub(c.Vertex)
	c2 := c.quadForm(d, d)
	c1 := c.quadForm(d, delta)
	c0 := c.quadForm(delta, delta)
	discr := c1*c1 - c0*c2
	if discr <= 0 || math.Abs(c2) < vecmat.Eps {
		if isParallel(d, c.Axis) {
			return c.Vertex
		}
		return vecmat.Invalid
	}
	sq := math.Sqrt(discr)
	t1 := (-c1 - sq) / c2
	t2 := (-c1 + sq) / c2
	small, large := t1, t2
	if small > large {
		small, large = large, small
	}
	if large <= 0 {
		return vecmat.Invalid
	}
	if c.Sheet == ConeTwoSheet {
		if small > 0 {
			return r.At(small)
		}
		return r.At(large)
	}
	candidates := []float64{}
	if small > 0 {
		candidates = append(candidates, small)
	}
	candidates = append(candidates, large)
	for _, t := range candidates {
		hit := r.At(t)
		axisProj := hit.Sub(c.Vertex).Dot(c.Axis)
		if math.Abs(axisProj) < vecmat.Eps {
			return vecmat.Invalid
		}
		if float64(c.Sheet)*axisProj > 0 {
			return hit
		}
	}
	return vecmat.Invalid
}

func isParallel(a, b vecmat.Vec) bool {
	cross := a.Cross(b)
	return cross.Norm() < 3*vecmat.Eps
}

func (c Cone) Transform(m vecmat.Mat4) Surface {
	if m.IsZero() {
		return c
	}
	c.Vertex = m.ApplyPoint(c.Vertex)
	c.Axis = m.ApplyVec(c.Axis).Normalized()
	return c
}

// BoundingPlanes approximates the cone's side by four planes tangent to
// the cone at a reference axial distance: the dual (interior, bounded)
// side insets the half-angle so the tangent planes stay inside the cone;
// the primary (exterior) side and every two-sheet cone return nil -- the
// bbox package treats a nil plane set as "no constraint from this
// surface".
func (c Cone) BoundingPlanes() [][]Plane {
	if !c.Reversed || c.Sheet == ConeTwoSheet {
		return nil
	}
	u, v := orthogonalBasis(c.Axis)
	halfAngle := math.Atan(c.Radius)
	insetRadius := math.Tan(halfAngle * 0.8)
	ref := 10.0 // axial reference distance for the tangent-plane construction
	apex := c.Vertex.Add(c.Axis.Scale(ref * float64(sheetSign(c.Sheet))))
	r := insetRadius * ref
	dirs := []vecmat.Vec{u, u.Neg(), v, v.Neg()}
	planes := make([]Plane, len(dirs))
	for i, dir := range dirs {
		planes[i] = Plane{Normal: dir, Distance: dir.Dot(apex.ToVec()) + r}
	}
	return [][]Plane{planes}
}

func sheetSign(s ConeSheet) int {
	if s == ConeMinusSheet {
		return -1
	}
	return 1
}

func (c Cone) InputString(name string) string {
	return formatCard(name, "k", []float64{c.Vertex.X, c.Vertex.Y, c.Vertex.Z, c.Axis.X, c.Axis.Y, c.Axis.Z, c.Radius, float64(c.Sheet)})
}

func (c Cone) DeepClone(string) Surface { return c }
