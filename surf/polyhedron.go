// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cpmech/csgeom/vecmat"
)

// PolyHedron is a closed triangle mesh treated as a single surface: a
// point is forward (outside) iff a fixed test ray from it crosses the
// facets an even number of times, and a ray
// intersection is the nearest facet hit, with edge-straddling hits
// resolved by a single deterministic owning facet so a ray grazing a
// shared edge is counted exactly once.
type PolyHedron struct {
	Faces    []Triangle
	adjacent [][]int // adjacent[i] = indices of faces sharing an edge with face i
	Reversed bool
}

// NewPolyHedron builds a polyhedron from a slice of triangles already
// wound consistently (all forward-normals outward, or all inward if
// Reversed is later set), deriving edge adjacency from shared vertex
// pairs.
func NewPolyHedron(faces []Triangle) (PolyHedron, error) {
	if len(faces) < 4 {
		return PolyHedron{}, invalidSurface("polyhedron: need at least 4 facets, got %d", len(faces))
	}
	p := PolyHedron{Faces: faces}
	p.adjacent = computeAdjacency(faces)
	return p, nil
}

func computeAdjacency(faces []Triangle) [][]int {
	type edgeKey [2]vecmat.Point
	edgeOwners := map[edgeKey][]int{}
	normEdge := func(a, b vecmat.Point) edgeKey {
		if pointLess(a, b) {
			return edgeKey{a, b}
		}
		return edgeKey{b, a}
	}
	for i, f := range faces {
		edges := [3]edgeKey{
			normEdge(f.Vertices[0], f.Vertices[1]),
			normEdge(f.Vertices[1], f.Vertices[2]),
			normEdge(f.Vertices[2], f.Vertices[0]),
		}
		for _, e := range edges {
			edgeOwners[e] = append(edgeOwners[e], i)
		}
	}
	adj := make([][]int, len(faces))
	for _, owners := range edgeOwners {
		for _, i := range owners {
			for _, j := range owners {
				if i != j {
					adj[i] = appendUnique(adj[i], j)
				}
			}
		}
	}
	return adj
}

func appendUnique(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

func pointLess(a, b vecmat.Point) bool {
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

func (p PolyHedron) TypeName() string { return "poly" }

// testRayDirection is a fixed non-degenerate direction (not axis-aligned,
// not parallel to any likely facet) used to cast the IsForward parity ray.
var testRayDirection = vecmat.Vec{X: 1.1, Y: 0.1, Z: -0.1}

func (p PolyHedron) IsForward(pt vecmat.Point) bool {
	// Cast a fixed test ray from pt and count facet crossings; an even
	// count means pt is outside the closed mesh, odd means inside.
	// Edge-straddling hits are resolved to a single deterministic owner
	// via ownsHit so a ray through a shared edge is counted once.
	ray := vecmat.Ray{P: pt, D: testRayDirection}
	count := 0
	for i, f := range p.Faces {
		hit, onEdge := f.IntersectEdgeAware(ray)
		if hit == vecmat.Invalid {
			continue
		}
		if onEdge && !p.ownsHit(i, hit) {
			continue
		}
		count++
	}
	f := count%2 == 0
	if p.Reversed {
		return !f
	}
	return f
}

// Intersect returns the nearest facet hit along the ray, resolving
// edge-straddling hits via each edge's deterministic owning facet so a
// ray through a shared edge is not double-counted or dropped.
func (p PolyHedron) Intersect(r vecmat.Ray) vecmat.Point {
	bestDist := vecmat.MaxExtent
	best := vecmat.Invalid
	for i, f := range p.Faces {
		hit, onEdge := f.IntersectEdgeAware(r)
		if hit == vecmat.Invalid {
			continue
		}
		if onEdge && !p.ownsHit(i, hit) {
			continue
		}
		d := hit.Sub(r.P).Norm()
		if d < bestDist {
			bestDist = d
			best = hit
		}
	}
	return best
}

// ownsHit decides whether face i is the deterministic owner of an
// edge-straddling hit: it must win the centroid-ordering tie-break against
// every adjacent face whose plane contains the hit (the faces sharing the
// hit edge); adjacent faces across other edges are not consulted.
func (p PolyHedron) ownsHit(i int, hit vecmat.Point) bool {
	for _, j := range p.adjacent[i] {
		fj := p.Faces[j]
		dist := fj.Normal.Dot(hit.Sub(fj.Vertices[0]))
		if dist > 1e-9 || dist < -1e-9 {
			continue
		}
		if !ownsEdgeHit(p.Faces[i], fj) {
			return false
		}
	}
	return true
}

func (p PolyHedron) Transform(m vecmat.Mat4) Surface {
	if m.IsZero() {
		return p
	}
	faces := make([]Triangle, len(p.Faces))
	for i, f := range p.Faces {
		faces[i] = f.Transform(m).(Triangle)
	}
	p.Faces = faces
	p.adjacent = computeAdjacency(faces)
	return p
}

// BoundingPlanes ANDs together every facet's supporting half-space for
// the Reversed (interior) side; a convex hull's exterior is nonsensical to
// express this way, so the primary side returns nil and the bbox tiers
// skip it. Convexity of the mesh is not checked.
func (p PolyHedron) BoundingPlanes() [][]Plane {
	if !p.Reversed {
		return nil
	}
	planes := make([]Plane, len(p.Faces))
	for i, f := range p.Faces {
		planes[i] = Plane{Normal: f.Normal, Distance: f.Normal.Dot(f.Vertices[0].ToVec())}
	}
	return [][]Plane{planes}
}

func (p PolyHedron) InputString(name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s poly %d", name, len(p.Faces))
	for _, f := range p.Faces {
		fmt.Fprintf(&sb, " %s %s %s %s %s %s %s %s %s",
			trimTrailingZeros(f.Vertices[0].X), trimTrailingZeros(f.Vertices[0].Y), trimTrailingZeros(f.Vertices[0].Z),
			trimTrailingZeros(f.Vertices[1].X), trimTrailingZeros(f.Vertices[1].Y), trimTrailingZeros(f.Vertices[1].Z),
			trimTrailingZeros(f.Vertices[2].X), trimTrailingZeros(f.Vertices[2].Y), trimTrailingZeros(f.Vertices[2].Z))
	}
	return sb.String()
}

func (p PolyHedron) DeepClone(string) Surface { return p }

// LoadSTL reads an ASCII STL mesh and builds a PolyHedron from its
// facets. Vertices are used exactly as read: no tolerance-based merging
// is done, so facets are adjacent only where they repeat a vertex's
// coordinates exactly.
func LoadSTL(r io.Reader, ccw bool) (PolyHedron, error) {
	sc := bufio.NewScanner(r)
	var faces []Triangle
	var verts [3]vecmat.Point
	vi := 0
	sawSolid := false
	for sc.Scan() {
		line := strings.TrimSpace(strings.ToLower(sc.Text()))
		switch {
		case strings.HasPrefix(line, "solid"):
			sawSolid = true
		case strings.HasPrefix(line, "vertex"):
			fields := strings.Fields(line)
			if len(fields) != 4 {
				return PolyHedron{}, invalidSurface("stl: malformed vertex line %q", line)
			}
			x, err1 := strconv.ParseFloat(fields[1], 64)
			y, err2 := strconv.ParseFloat(fields[2], 64)
			z, err3 := strconv.ParseFloat(fields[3], 64)
			if err1 != nil || err2 != nil || err3 != nil {
				return PolyHedron{}, invalidSurface("stl: malformed vertex numbers in %q", line)
			}
			if vi < 3 {
				verts[vi] = vecmat.Point{X: x, Y: y, Z: z}
				vi++
			}
		case strings.HasPrefix(line, "endfacet"):
			if vi != 3 {
				return PolyHedron{}, invalidSurface("stl: facet with %d vertices, want 3", vi)
			}
			tri, err := NewTriangle(verts[0], verts[1], verts[2], ccw)
			if err != nil {
				return PolyHedron{}, err
			}
			faces = append(faces, tri)
			vi = 0
		}
	}
	if err := sc.Err(); err != nil {
		return PolyHedron{}, invalidSurface("stl: read error: %v", err)
	}
	if !sawSolid {
		return PolyHedron{}, invalidSurface("stl: missing leading \"solid\" header")
	}
	return NewPolyHedron(faces)
}
