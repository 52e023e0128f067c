// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lattice

import (
	"context"
	"strings"
	"testing"

	"github.com/cpmech/csgeom/surf"
	"github.com/cpmech/csgeom/vecmat"
	"github.com/cpmech/gosl/chk"
	"github.com/isbang/h3go"
	"github.com/stretchr/testify/require"
)

func cubeFaces(half float64) []surf.Plane {
	return []surf.Plane{
		{Normal: vecmat.Vec{X: 1}, Distance: half}, {Normal: vecmat.Vec{X: -1}, Distance: half},
		{Normal: vecmat.Vec{Y: 1}, Distance: half}, {Normal: vecmat.Vec{Y: -1}, Distance: half},
		{Normal: vecmat.Vec{Z: 1}, Distance: half}, {Normal: vecmat.Vec{Z: -1}, Distance: half},
	}
}

func Test_base_unit_element_pairs_faces_and_derives_index_vectors(t *testing.T) {
	chk.PrintTitle("NewBaseUnitElement pairs mirrored faces and derives index vectors")
	base, err := NewBaseUnitElement(cubeFaces(2))
	require.NoError(t, err)
	require.Len(t, base.FacePairs, 3)
	require.Len(t, base.IndexVecs, 3)
	for _, v := range base.IndexVecs {
		require.InDelta(t, 4.0, v.Norm(), 1e-9)
	}
}

func Test_base_unit_element_rejects_unpaired_face(t *testing.T) {
	chk.PrintTitle("NewBaseUnitElement rejects a face with no mirrored opposite")
	faces := []surf.Plane{
		{Normal: vecmat.Vec{X: 1}, Distance: 1}, {Normal: vecmat.Vec{Y: 1}, Distance: 1},
	}
	_, err := NewBaseUnitElement(faces)
	require.Error(t, err)
}

func Test_rectangular_elements_enumerates_full_range(t *testing.T) {
	chk.PrintTitle("RectangularElements enumerates the full i/j/k declarator range")
	base, err := NewBaseUnitElement(cubeFaces(1))
	require.NoError(t, err)
	decl := Declarator{IMin: 0, IMax: 1, JMin: 0, JMax: 1, KMin: 0, KMax: 0}
	els, err := RectangularElements(base, decl)
	require.NoError(t, err)
	require.Len(t, els, 4)
}

func Test_rectangular_element_translation_matches_index(t *testing.T) {
	chk.PrintTitle("translatedElement's TRCL offset matches i*indexVec")
	base, err := NewBaseUnitElement(cubeFaces(1))
	require.NoError(t, err)
	decl := Declarator{IMin: 2, IMax: 2, JMin: 0, JMax: 0, KMin: 0, KMax: 0}
	els, err := RectangularElements(base, decl)
	require.NoError(t, err)
	require.Len(t, els, 1)
	require.Equal(t, [3]int{2, 0, 0}, els[0].Index)
	require.Equal(t, "4 0 0", els[0].TRCL)
}

func Test_hexagonal_elements_sorted_by_radial_distance(t *testing.T) {
	chk.PrintTitle("HexagonalElements visits the central element first")
	base, err := NewBaseUnitElement(cubeFaces(1))
	require.NoError(t, err)
	decl := Declarator{IMin: -1, IMax: 1, JMin: -1, JMax: 1, KMin: 0, KMax: 0}
	els, err := HexagonalElements(base, decl)
	require.NoError(t, err)
	require.Len(t, els, 9)
	require.Equal(t, [3]int{0, 0, 0}, els[0].Index)
}

func Test_hex_neighbor_label_names_six_faces(t *testing.T) {
	chk.PrintTitle("hexNeighborLabel names every lateral h3go direction")
	require.Equal(t, "face1", hexNeighborLabel(h3go.K_AXES_DIGIT))
	require.Equal(t, "face6", hexNeighborLabel(h3go.IJ_AXES_DIGIT))
	require.Equal(t, "unknown", hexNeighborLabel(h3go.CENTER_DIGIT))
}

func Test_tetrahedron_planes_point_inward(t *testing.T) {
	chk.PrintTitle("NewTetrahedron derives four inward-facing planes")
	verts := [4]vecmat.Point{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1},
	}
	tet, err := NewTetrahedron(verts, "u1")
	require.NoError(t, err)
	centroid := vecmat.Point{X: 0.25, Y: 0.25, Z: 0.25}
	for _, p := range tet.Planes {
		require.GreaterOrEqual(t, p.Normal.Dot(centroid.ToVec())-p.Distance, -1e-9)
	}
}

func Test_parse_node_and_ele_files(t *testing.T) {
	chk.PrintTitle("ParseNodeFile/ParseEleFile read TetGen-style files")
	nodeText := "4 3 0 0\n1 0 0 0\n2 1 0 0\n3 0 1 0\n4 0 0 1\n"
	nodes, err := ParseNodeFile(strings.NewReader(nodeText))
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	eleText := "1 4 1\n1 1 2 3 4 u1\n"
	tets, err := ParseEleFile(strings.NewReader(eleText), nodes)
	require.NoError(t, err)
	require.Len(t, tets, 1)
	require.Equal(t, "u1", tets[0].Universe)
}

func Test_adjacency_and_fuse_clusters(t *testing.T) {
	chk.PrintTitle("AdjacencyGraph + FuseClusters group same-universe neighbours")
	a := [4]vecmat.Point{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}}
	b := [4]vecmat.Point{{X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}}
	t1, err := NewTetrahedron(a, "u1")
	require.NoError(t, err)
	t2, err := NewTetrahedron(b, "u1")
	require.NoError(t, err)
	tets := []Tetrahedron{t1, t2}
	adj := AdjacencyGraph(tets)
	require.NotEmpty(t, adj[0])
	clusters := FuseClusters(tets, adj)
	require.Len(t, clusters, 1)
	require.Len(t, clusters[0].Members, 2)
}

func Test_dedupe_nodes_merges_close_points(t *testing.T) {
	chk.PrintTitle("DedupeNodes merges points within tolerance in z-y-x order")
	pts := []vecmat.Point{{X: 0, Y: 0, Z: 0}, {X: 1e-9, Y: 0, Z: 0}, {X: 5, Y: 0, Z: 0}}
	out := DedupeNodes(pts, 1e-6)
	require.Equal(t, out[0], out[1])
	require.NotEqual(t, out[0], out[2])
}

type stubSurrounding struct {
	pos, neg vecmat.Point
}

func (s stubSurrounding) GetFarthestIntersection(p vecmat.Point, d vecmat.Vec) (vecmat.Point, bool) {
	if d.X > 0 || d.Y > 0 || d.Z > 0 {
		return s.pos, true
	}
	return s.neg, true
}

func Test_infer_dimension_declarator_from_surrounding_cell(t *testing.T) {
	chk.PrintTitle("InferDimensionDeclarator walks index vectors with a 1.31 safety factor")
	base, err := NewBaseUnitElement(cubeFaces(1))
	require.NoError(t, err)
	surrounding := stubSurrounding{pos: vecmat.Point{X: 10}, neg: vecmat.Point{X: -10}}
	decl := InferDimensionDeclarator(context.Background(), surrounding, base, vecmat.Point{})
	require.Greater(t, decl.IMax, 0)
	require.Less(t, decl.IMin, 0)
}

func Test_infer_dimension_declarator_fallback_without_surrounding(t *testing.T) {
	chk.PrintTitle("InferDimensionDeclarator falls back to (-10,10) with no surrounding cell")
	base, err := NewBaseUnitElement(cubeFaces(1))
	require.NoError(t, err)
	decl := InferDimensionDeclarator(context.Background(), nil, base, vecmat.Point{})
	require.Equal(t, -10, decl.IMin)
	require.Equal(t, 10, decl.IMax)
}
