// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lattice

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/cpmech/csgeom/surf"
	"github.com/cpmech/csgeom/vecmat"
	"github.com/cpmech/gosl/chk"
)

// Tetrahedron is one LAT=3 element: four vertices and the four inward-
// facing boundary planes derived from them.
type Tetrahedron struct {
	Vertices [4]vecmat.Point
	Planes   [4]surf.Plane
	Universe string // the filling universe named by the .ele file's attribute column
}

// weldTolerance is the tolerance planeEqual is given when AdjacencyGraph and
// SurroundingVoidEquation match tetrahedron planes (DedupeNodes takes its
// own tol argument).
const weldTolerance = 1e-6

// ParseNodeFile reads a TetGen-style .node file: header "N 3 ..." then
// "<id> x y z" lines, returning nodes indexed by their 1-based file id.
func ParseNodeFile(r io.Reader) (map[int]vecmat.Point, error) {
	sc := bufio.NewScanner(r)
	nodes := map[int]vecmat.Point{}
	headerSeen := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if !headerSeen {
			headerSeen = true
			continue
		}
		if len(fields) < 4 {
			return nil, chk.Err("FileIO: malformed .node line %q", line)
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, chk.Err("FileIO: bad node id %q", fields[0])
		}
		x, errX := strconv.ParseFloat(fields[1], 64)
		y, errY := strconv.ParseFloat(fields[2], 64)
		z, errZ := strconv.ParseFloat(fields[3], 64)
		if errX != nil || errY != nil || errZ != nil {
			return nil, chk.Err("FileIO: bad node coordinates on line %q", line)
		}
		nodes[id] = vecmat.Point{X: x, Y: y, Z: z}
	}
	if err := sc.Err(); err != nil {
		return nil, chk.Err("FileIO: reading .node file: %v", err)
	}
	if !headerSeen {
		return nil, chk.Err("FileIO: .node file missing header")
	}
	return nodes, nil
}

// ParseEleFile reads a TetGen-style .ele file: header "N 4 attrs" then
// "<id> v1 v2 v3 v4 <attr>" lines, where attr names the filling universe,
// resolving vertex ids against nodes.
func ParseEleFile(r io.Reader, nodes map[int]vecmat.Point) ([]Tetrahedron, error) {
	sc := bufio.NewScanner(r)
	var out []Tetrahedron
	headerSeen := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if !headerSeen {
			headerSeen = true
			continue
		}
		if len(fields) < 5 {
			return nil, chk.Err("FileIO: malformed .ele line %q", line)
		}
		var verts [4]vecmat.Point
		for i := 0; i < 4; i++ {
			id, err := strconv.Atoi(fields[1+i])
			if err != nil {
				return nil, chk.Err("FileIO: bad vertex id %q", fields[1+i])
			}
			p, ok := nodes[id]
			if !ok {
				return nil, chk.Err("FileIO: .ele references unknown node id %d", id)
			}
			verts[i] = p
		}
		universe := ""
		if len(fields) >= 6 {
			universe = fields[5]
		}
		tet, err := NewTetrahedron(verts, universe)
		if err != nil {
			return nil, err
		}
		out = append(out, tet)
	}
	if err := sc.Err(); err != nil {
		return nil, chk.Err("FileIO: reading .ele file: %v", err)
	}
	return out, nil
}

// NewTetrahedron builds the four inward-facing boundary planes of the
// tetrahedron verts(0..3): for each face, the plane's normal points toward
// the fourth (opposite) vertex.
func NewTetrahedron(verts [4]vecmat.Point, universe string) (Tetrahedron, error) {
	t := Tetrahedron{Vertices: verts, Universe: universe}
	faceIdx := [4][3]int{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}}
	opposite := [4]int{0, 1, 2, 3}
	for f, idx := range faceIdx {
		a, b, c := verts[idx[0]], verts[idx[1]], verts[idx[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Norm() < vecmat.Eps {
			return t, chk.Err("InvalidSurface: degenerate tetrahedron face")
		}
		n = n.Normalized()
		d := n.Dot(a.ToVec())
		op := verts[opposite[f]]
		if n.Dot(op.ToVec())-d < 0 {
			n = n.Neg()
			d = -d
		}
		t.Planes[f] = surf.Plane{Normal: n, Distance: d}
	}
	return t, nil
}

// DedupeNodes sorts points in z-y-x lexical order (the natural order STL
// and TetGen emit vertices in) and merges points within tol of one
// another, returning a canonical representative for every input index.
func DedupeNodes(points []vecmat.Point, tol float64) []vecmat.Point {
	type indexed struct {
		p   vecmat.Point
		idx int
	}
	in := make([]indexed, len(points))
	for i, p := range points {
		in[i] = indexed{p: p, idx: i}
	}
	sort.Slice(in, func(a, b int) bool {
		pa, pb := in[a].p, in[b].p
		if pa.Z != pb.Z {
			return pa.Z < pb.Z
		}
		if pa.Y != pb.Y {
			return pa.Y < pb.Y
		}
		return pa.X < pb.X
	})
	out := make([]vecmat.Point, len(points))
	if len(in) == 0 {
		return out
	}
	rep := in[0].p
	out[in[0].idx] = rep
	for i := 1; i < len(in); i++ {
		if closeWithin(in[i].p, rep, tol) {
			out[in[i].idx] = rep
			continue
		}
		rep = in[i].p
		out[in[i].idx] = rep
	}
	return out
}

func closeWithin(a, b vecmat.Point, tol float64) bool {
	return a.Sub(b).Norm() <= tol
}

// planeEqual reports whether two planes describe the same surface within
// tolerance, up to sign (an outward face from one tetrahedron is the
// inward face of its neighbour).
func planeEqual(a, b surf.Plane, tol float64) bool {
	same := a.Normal.Sub(b.Normal).Norm() < tol && abs(a.Distance-b.Distance) < tol
	opp := a.Normal.Add(b.Normal).Norm() < tol && abs(a.Distance+b.Distance) < tol
	return same || opp
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// AdjacencyGraph discovers, for each tetrahedron, the set of neighbour
// indices sharing a boundary plane.
func AdjacencyGraph(tets []Tetrahedron) [][]int {
	adj := make([][]int, len(tets))
	for i := range tets {
		for j := i + 1; j < len(tets); j++ {
			if sharesPlane(tets[i], tets[j]) {
				adj[i] = append(adj[i], j)
				adj[j] = append(adj[j], i)
			}
		}
	}
	return adj
}

func sharesPlane(a, b Tetrahedron) bool {
	for _, pa := range a.Planes {
		for _, pb := range b.Planes {
			if planeEqual(pa, pb, weldTolerance) {
				return true
			}
		}
	}
	return false
}

// Cluster is a fused, connected set of adjacent tetrahedra sharing a
// filling universe.
type Cluster struct {
	Members  []int
	Universe string
}

// FuseClusters groups tetrahedra connected via adj into clusters, one
// cluster per connected component restricted to tetrahedra carrying the
// same universe attribute (a shared universe is what makes fusing them
// into one cell meaningful). A cluster is not checked for convexity.
func FuseClusters(tets []Tetrahedron, adj [][]int) []Cluster {
	visited := make([]bool, len(tets))
	var clusters []Cluster
	for i := range tets {
		if visited[i] {
			continue
		}
		universe := tets[i].Universe
		var members []int
		queue := []int{i}
		visited[i] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, cur)
			for _, n := range adj[cur] {
				if visited[n] || tets[n].Universe != universe {
					continue
				}
				visited[n] = true
				queue = append(queue, n)
			}
		}
		clusters = append(clusters, Cluster{Members: members, Universe: universe})
	}
	return clusters
}

// SurroundingVoidEquation builds the OR of the outward-plane complements of
// the cluster's boundary (a plane shared with a same-cluster neighbour is
// interior, not a boundary): each term is the reversed ("-name") side of an
// inward-facing boundary plane, naming each plane's surface by the supplied
// namer so the equation can be parsed against a populated registry.
func SurroundingVoidEquation(tets []Tetrahedron, cluster Cluster, adj [][]int, namer func(tetIdx, faceIdx int) string) string {
	memberSet := map[int]bool{}
	for _, m := range cluster.Members {
		memberSet[m] = true
	}
	var boundaryTerms []string
	for _, m := range cluster.Members {
		for f := range tets[m].Planes {
			interior := false
			for _, n := range adj[m] {
				if !memberSet[n] {
					continue
				}
				for g := range tets[n].Planes {
					if planeEqual(tets[m].Planes[f], tets[n].Planes[g], weldTolerance) {
						interior = true
					}
				}
			}
			if interior {
				continue
			}
			boundaryTerms = append(boundaryTerms, surf.ReversedName(namer(m, f)))
		}
	}
	return strings.Join(boundaryTerms, " : ")
}
