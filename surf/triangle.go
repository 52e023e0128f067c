// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surf

import (
	"math"

	"github.com/cpmech/csgeom/vecmat"
)

// Triangle is a planar, bounded surface patch with three vertices; Normal
// points to its forward side (see NewTriangle for the winding).
type Triangle struct {
	Vertices [3]vecmat.Point
	Normal   vecmat.Vec // unit, points to the forward side
}

// NewTriangle builds a triangle from three vertices, deriving Normal from
// their winding: by default Normal = (v1-v0) x (v2-v0), so the vertices run
// counter-clockwise seen from the forward side; ccw=true negates Normal,
// so they run clockwise seen from it.
func NewTriangle(v0, v1, v2 vecmat.Point, ccw bool) (Triangle, error) {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	n := e1.Cross(e2)
	if n.Norm() < vecmat.Eps {
		return Triangle{}, invalidSurface("triangle: vertices are collinear or coincident")
	}
	n = n.Normalized()
	if ccw {
		n = n.Neg()
	}
	return Triangle{Vertices: [3]vecmat.Point{v0, v1, v2}, Normal: n}, nil
}

func (t Triangle) TypeName() string { return "tri" }

func (t Triangle) Center() vecmat.Point {
	return t.Vertices[0].Add(t.Vertices[1].ToVec()).Add(t.Vertices[2].ToVec()).Scale(1.0 / 3.0)
}

func (t Triangle) IsForward(p vecmat.Point) bool {
	return t.Normal.Dot(p.Sub(t.Vertices[0])) >= 0
}

// Intersect finds the ray/plane intersection and rejects it unless it
// falls strictly inside the triangle (not on an edge); edge-straddling
// hits are the polyhedron's job to resolve across the two triangles that
// share the edge, via IntersectEdgeAware.
func (t Triangle) Intersect(r vecmat.Ray) vecmat.Point {
	hit, onEdge := t.IntersectEdgeAware(r)
	if onEdge {
		return vecmat.Invalid
	}
	return hit
}

// IntersectEdgeAware implements the Möller-Trumbore ray/triangle test,
// reporting via onEdge whether a valid hit landed on (or within
// tolerance of) one of the triangle's edges.
func (t Triangle) IntersectEdgeAware(r vecmat.Ray) (hit vecmat.Point, onEdge bool) {
	d := r.D.Normalized()
	e1 := t.Vertices[1].Sub(t.Vertices[0])
	e2 := t.Vertices[2].Sub(t.Vertices[0])
	pvec := d.Cross(e2)
	det := e1.Dot(pvec)
	if math.Abs(det) < vecmat.Eps {
		return vecmat.Invalid, false
	}
	invDet := 1.0 / det
	tvec := r.P.Sub(t.Vertices[0])
	u := tvec.Dot(pvec) * invDet
	qvec := tvec.Cross(e1)
	v := d.Dot(qvec) * invDet
	w := 1 - u - v
	const edgeTol = 1e-9
	if u < -edgeTol || v < -edgeTol || w < -edgeTol {
		return vecmat.Invalid, false
	}
	s := e2.Dot(qvec) * invDet
	if s <= vecmat.Delta {
		return vecmat.Invalid, false
	}
	onEdge = u < edgeTol || v < edgeTol || w < edgeTol
	return r.At(s), onEdge
}

func (t Triangle) Transform(m vecmat.Mat4) Surface {
	if m.IsZero() {
		return t
	}
	for i := range t.Vertices {
		t.Vertices[i] = m.ApplyPoint(t.Vertices[i])
	}
	t.Normal = m.ApplyVec(t.Normal).Normalized()
	return t
}

// BoundingPlanes gives the single supporting plane through the triangle;
// a flat patch contributes no volume of its own, only a half-space cut,
// so it appears as a bare AND-singleton like Plane.
func (t Triangle) BoundingPlanes() [][]Plane {
	p := Plane{Normal: t.Normal, Distance: t.Normal.Dot(t.Vertices[0].ToVec())}
	return [][]Plane{{p}}
}

func (t Triangle) InputString(name string) string {
	return formatCard(name, "tri", []float64{
		t.Vertices[0].X, t.Vertices[0].Y, t.Vertices[0].Z,
		t.Vertices[1].X, t.Vertices[1].Y, t.Vertices[1].Z,
		t.Vertices[2].X, t.Vertices[2].Y, t.Vertices[2].Z,
	})
}

func (t Triangle) DeepClone(string) Surface { return t }

// edgeResolutionKey orders two triangles sharing an edge so the
// intersection routine can pick a single deterministic owner for the
// shared boundary: lexicographic on (z, y, x) of the triangle centroid,
// smaller wins.
func edgeResolutionKey(t Triangle) (float64, float64, float64) {
	c := t.Center()
	return c.Z, c.Y, c.X
}

// ownsEdgeHit reports whether t (rather than other) should be the one to
// return the ray hit when the true intersection point lies on the edge
// they share.
func ownsEdgeHit(t, other Triangle) bool {
	tz, ty, tx := edgeResolutionKey(t)
	oz, oy, ox := edgeResolutionKey(other)
	if tz != oz {
		return tz < oz
	}
	if ty != oy {
		return ty < oy
	}
	return tx < ox
}
