// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surf

import (
	"fmt"
	"math"
	"testing"

	"github.com/cpmech/csgeom/vecmat"
	"github.com/cpmech/gosl/chk"
	"github.com/stretchr/testify/require"
)

func Test_sphere_ray_intersection(t *testing.T) {
	chk.PrintTitle("sphere ray intersection")
	s, err := NewSphere(vecmat.Point{}, 5)
	require.NoError(t, err)
	hit := s.Intersect(vecmat.Ray{P: vecmat.Point{X: -10}, D: vecmat.Vec{X: 1}})
	require.InDelta(t, -5.0, hit.X, 1e-9)
	require.InDelta(t, 0.0, hit.Y, 1e-9)
}

func Test_sphere_is_forward(t *testing.T) {
	chk.PrintTitle("sphere forward/reverse sense")
	s, err := NewSphere(vecmat.Point{}, 5)
	require.NoError(t, err)
	require.True(t, s.IsForward(vecmat.Point{X: 10}))
	require.False(t, s.IsForward(vecmat.Point{X: 1}))

	dual := s
	dual.Reversed = true
	require.False(t, dual.IsForward(vecmat.Point{X: 10}))
	require.True(t, dual.IsForward(vecmat.Point{X: 1}))
}

func Test_sphere_invalid_radius(t *testing.T) {
	chk.PrintTitle("sphere rejects non-positive radius")
	_, err := NewSphere(vecmat.Point{}, 0)
	require.Error(t, err)
}

func Test_cylinder_ray_intersection(t *testing.T) {
	chk.PrintTitle("cylinder ray intersection")
	c, err := NewCylinder(vecmat.Point{}, vecmat.Vec{Z: 1}, 2)
	require.NoError(t, err)
	hit := c.Intersect(vecmat.Ray{P: vecmat.Point{X: -10}, D: vecmat.Vec{X: 1}})
	require.InDelta(t, -2.0, hit.X, 1e-9)
}

func Test_cylinder_parallel_ray_misses(t *testing.T) {
	chk.PrintTitle("cylinder misses a ray parallel to its axis")
	c, err := NewCylinder(vecmat.Point{}, vecmat.Vec{Z: 1}, 2)
	require.NoError(t, err)
	hit := c.Intersect(vecmat.Ray{P: vecmat.Point{X: 10}, D: vecmat.Vec{Z: 1}})
	require.Equal(t, vecmat.Invalid, hit)
}

func Test_cone_two_sheet_nearest_root(t *testing.T) {
	chk.PrintTitle("cone two-sheet picks nearest forward root")
	c, err := NewCone(vecmat.Point{}, vecmat.Vec{Z: 1}, 1, ConeTwoSheet)
	require.NoError(t, err)
	hit := c.Intersect(vecmat.Ray{P: vecmat.Point{X: -10, Z: 5}, D: vecmat.Vec{X: 1}})
	require.NotEqual(t, vecmat.Invalid, hit)
	require.InDelta(t, 5.0, hit.Z, 1e-9)
}

func Test_cone_plus_sheet_rejects_other_nappe(t *testing.T) {
	chk.PrintTitle("cone plus-sheet rejects hits on the minus nappe")
	c, err := NewCone(vecmat.Point{}, vecmat.Vec{Z: 1}, 1, ConePlusSheet)
	require.NoError(t, err)
	hit := c.Intersect(vecmat.Ray{P: vecmat.Point{X: -10, Z: -5}, D: vecmat.Vec{X: 1}})
	require.Equal(t, vecmat.Invalid, hit)
}

func Test_torus_axis_aligned_intersection(t *testing.T) {
	chk.PrintTitle("torus circular cross-section ray intersection")
	tor, err := NewTorus(vecmat.Point{}, vecmat.Vec{Z: 1}, 10, 3, 3)
	require.NoError(t, err)
	hit := tor.Intersect(vecmat.Ray{P: vecmat.Point{X: -100}, D: vecmat.Vec{X: 1}})
	require.NotEqual(t, vecmat.Invalid, hit)
	require.InDelta(t, -13.0, hit.X, 1e-3)
}

func Test_torus_implicit_value_on_surface(t *testing.T) {
	chk.PrintTitle("torus implicit value vanishes on the tube surface")
	tor, err := NewTorus(vecmat.Point{}, vecmat.Vec{Z: 1}, 10, 3, 3)
	require.NoError(t, err)
	onSurf := vecmat.Point{X: 13}
	require.InDelta(t, 0.0, tor.implicitValue(onSurf.X, onSurf.Y, onSurf.Z), 1e-9)
}

func Test_torus_elliptical_cross_section_intersections(t *testing.T) {
	chk.PrintTitle("torus elliptical cross-section hit along both an equatorial and a polar ray")
	tor, err := NewTorus(vecmat.Point{}, vecmat.Vec{Z: 1}, 10, 2, 1)
	require.NoError(t, err)

	equatorial := tor.Intersect(vecmat.Ray{P: vecmat.Point{X: -100}, D: vecmat.Vec{X: 1}})
	require.NotEqual(t, vecmat.Invalid, equatorial)
	require.InDelta(t, -11.0, equatorial.X, 1e-5)
	require.InDelta(t, 0.0, equatorial.Y, 1e-5)
	require.InDelta(t, 0.0, equatorial.Z, 1e-5)

	polar := tor.Intersect(vecmat.Ray{P: vecmat.Point{X: 10, Z: 100}, D: vecmat.Vec{Z: -1}})
	require.NotEqual(t, vecmat.Invalid, polar)
	require.InDelta(t, 10.0, polar.X, 1e-5)
	require.InDelta(t, 0.0, polar.Y, 1e-5)
	require.InDelta(t, 2.0, polar.Z, 1e-5)
}

func Test_triangle_intersection(t *testing.T) {
	chk.PrintTitle("triangle ray intersection inside the patch")
	tri, err := NewTriangle(
		vecmat.Point{X: -1, Y: -1},
		vecmat.Point{X: 1, Y: -1},
		vecmat.Point{X: 0, Y: 1},
		false,
	)
	require.NoError(t, err)
	hit := tri.Intersect(vecmat.Ray{P: vecmat.Point{Z: -10}, D: vecmat.Vec{Z: 1}})
	require.NotEqual(t, vecmat.Invalid, hit)
	require.InDelta(t, 0.0, hit.Z, 1e-9)
}

func Test_triangle_collinear_vertices_rejected(t *testing.T) {
	chk.PrintTitle("triangle construction rejects collinear vertices")
	_, err := NewTriangle(vecmat.Point{}, vecmat.Point{X: 1}, vecmat.Point{X: 2}, false)
	require.Error(t, err)
}

func tetrahedronFaces(t *testing.T) []Triangle {
	v0 := vecmat.Point{X: 0, Y: 0, Z: 0}
	v1 := vecmat.Point{X: 1, Y: 0, Z: 0}
	v2 := vecmat.Point{X: 0, Y: 1, Z: 0}
	v3 := vecmat.Point{X: 0, Y: 0, Z: 1}
	mk := func(a, b, c vecmat.Point) Triangle {
		tri, err := NewTriangle(a, b, c, false)
		require.NoError(t, err)
		return tri
	}
	return []Triangle{
		mk(v0, v2, v1),
		mk(v0, v1, v3),
		mk(v0, v3, v2),
		mk(v1, v2, v3),
	}
}

func Test_polyhedron_adjacency_from_shared_edges(t *testing.T) {
	chk.PrintTitle("polyhedron builds edge adjacency from a closed mesh")
	ph, err := NewPolyHedron(tetrahedronFaces(t))
	require.NoError(t, err)
	for i := range ph.Faces {
		require.Len(t, ph.adjacent[i], 3)
	}
}

func Test_polyhedron_rejects_too_few_facets(t *testing.T) {
	chk.PrintTitle("polyhedron construction rejects under-specified meshes")
	_, err := NewPolyHedron(tetrahedronFaces(t)[:2])
	require.Error(t, err)
}

func Test_polyhedron_is_forward_by_ray_parity(t *testing.T) {
	chk.PrintTitle("polyhedron IsForward casts the fixed test ray and takes crossing parity")
	ph, err := NewPolyHedron(tetrahedronFaces(t))
	require.NoError(t, err)
	require.False(t, ph.IsForward(vecmat.Point{X: 0.25, Y: 0.25, Z: 0.25}))
	require.True(t, ph.IsForward(vecmat.Point{X: 100, Y: 100, Z: 100}))

	ph.Reversed = true
	require.True(t, ph.IsForward(vecmat.Point{X: 0.25, Y: 0.25, Z: 0.25}))
	require.False(t, ph.IsForward(vecmat.Point{X: 100, Y: 100, Z: 100}))
}

func Test_quadric_matches_sphere(t *testing.T) {
	chk.PrintTitle("quadric reproduces a sphere's implicit form")
	// x^2+y^2+z^2-25 >= 0 is "outside" for a sphere of radius 5,
	// matching Sphere.IsForward's forward-is-outside convention.
	q, err := NewQuadric(1, 1, 1, 0, 0, 0, 0, 0, 0, -25)
	require.NoError(t, err)
	require.True(t, q.IsForward(vecmat.Point{X: 10}))
	require.False(t, q.IsForward(vecmat.Point{X: 1}))

	hit := q.Intersect(vecmat.Ray{P: vecmat.Point{X: -10}, D: vecmat.Vec{X: 1}})
	require.InDelta(t, -5.0, hit.X, 1e-9)
}

func Test_quadric_rejects_degenerate_coefficients(t *testing.T) {
	chk.PrintTitle("quadric rejects all-zero second-order coefficients")
	_, err := NewQuadric(0, 0, 0, 0, 0, 0, 1, 0, 0, 0)
	require.Error(t, err)
}

func Test_registry_register_installs_both_sides(t *testing.T) {
	chk.PrintTitle("registry registers primary and dual together")
	reg := NewRegistry()
	s, _ := NewSphere(vecmat.Point{}, 5)
	id := reg.Register("s1", s, 0)
	require.Greater(t, id, 0)

	front, fid, err := reg.At("s1")
	require.NoError(t, err)
	require.Equal(t, id, fid)
	require.Equal(t, "s", front.TypeName())

	back, bid, err := reg.At("-s1")
	require.NoError(t, err)
	require.Equal(t, -id, bid)
	require.True(t, back.(Sphere).Reversed)
}

func Test_registry_make_index_equation(t *testing.T) {
	chk.PrintTitle("registry substitutes names with signed ids")
	reg := NewRegistry()
	s1, _ := NewSphere(vecmat.Point{}, 5)
	p1, _ := NewCylinder(vecmat.Point{}, vecmat.Vec{Z: 1}, 2)
	id1 := reg.Register("s1", s1, 0)
	id2 := reg.Register("c1", p1, 0)

	eq, err := reg.MakeIndexEquation("s1 -c1")
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%d -%d", id1, id2), eq)
}

func Test_registry_remove_unused_warns_only_primary_authored(t *testing.T) {
	chk.PrintTitle("registry drops surfaces with no contact cells")
	reg := NewRegistry()
	s1, _ := NewSphere(vecmat.Point{}, 5)
	id := reg.Register("s1", s1, 0)
	derivedName := "s1_cellA"
	reg.byID[id+1000] = derivedName // simulate a TRCL-derived (contains "_") surface
	reg.front[id+1000] = s1
	reg.byName[derivedName] = id + 1000

	var warned []string
	reg.RemoveUnused(func(name string) { warned = append(warned, name) })
	require.Contains(t, warned, "s1")
	require.NotContains(t, warned, derivedName)
}

func Test_registry_erase_removes_both_sides(t *testing.T) {
	chk.PrintTitle("registry erase removes front and back together")
	reg := NewRegistry()
	s1, _ := NewSphere(vecmat.Point{}, 5)
	id := reg.Register("s1", s1, 0)
	reg.Erase(id)
	_, _, err := reg.At("s1")
	require.Error(t, err)
}

func Test_canonical_and_reversed_name(t *testing.T) {
	chk.PrintTitle("canonical/reversed name helpers toggle the leading sign")
	require.Equal(t, "s1", CanonicalName("-s1"))
	require.Equal(t, "-s1", ReversedName("s1"))
	require.Equal(t, "s1", ReversedName("-s1"))
}

func Test_plane_boundary_is_forward(t *testing.T) {
	chk.PrintTitle("plane IsForward resolves exact boundary to forward")
	p := Plane{Normal: vecmat.Vec{X: 1}, Distance: 0}
	require.True(t, p.IsForward(vecmat.Point{}))
}

func Test_nearest_forward_root_grazing(t *testing.T) {
	chk.PrintTitle("nearestForwardRoot returns the touching point of a tangential double root")
	hit := nearestForwardRoot(vecmat.Point{X: -5}, vecmat.Vec{X: 1}, 5, 5+1e-15)
	require.InDelta(t, 0.0, hit.X, 1e-6)
}

func Test_orthogonal_basis_is_unit_and_perpendicular(t *testing.T) {
	chk.PrintTitle("orthogonalBasis returns a unit, mutually perpendicular pair")
	u, v := orthogonalBasis(vecmat.Vec{Z: 1})
	require.InDelta(t, 1.0, u.Norm(), 1e-9)
	require.InDelta(t, 1.0, v.Norm(), 1e-9)
	require.InDelta(t, 0.0, u.Dot(v), 1e-9)
	require.InDelta(t, 0.0, math.Abs(u.Dot(vecmat.Vec{Z: 1})), 1e-9)
}
