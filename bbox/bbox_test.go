// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bbox

import (
	"testing"

	"github.com/cpmech/csgeom/surf"
	"github.com/cpmech/csgeom/vecmat"
	"github.com/cpmech/gosl/chk"
	"github.com/stretchr/testify/require"
)

func cubePlanes(half float64) []surf.Plane {
	return []surf.Plane{
		{Normal: vecmat.Vec{X: 1}, Distance: half}, {Normal: vecmat.Vec{X: -1}, Distance: half},
		{Normal: vecmat.Vec{Y: 1}, Distance: half}, {Normal: vecmat.Vec{Y: -1}, Distance: half},
		{Normal: vecmat.Vec{Z: 1}, Distance: half}, {Normal: vecmat.Vec{Z: -1}, Distance: half},
	}
}

func Test_from_planes_cube(t *testing.T) {
	chk.PrintTitle("FromPlanes recovers a cube's AABB from its six faces")
	b, err := FromPlanes(nil, [][]surf.Plane{cubePlanes(5)})
	require.NoError(t, err)
	require.InDelta(t, -5.0, b.Min.X, 1e-9)
	require.InDelta(t, 5.0, b.Max.X, 1e-9)
	require.InDelta(t, -5.0, b.Min.Y, 1e-9)
	require.InDelta(t, 5.0, b.Max.Y, 1e-9)
}

func Test_and_or_sentinels(t *testing.T) {
	chk.PrintTitle("And/Or respect Universal/Empty absorbing-identity roles")
	finite := Box{Min: vecmat.Point{X: -1}, Max: vecmat.Point{X: 1}}
	require.Equal(t, finite, And(finite, Universal))
	require.True(t, And(finite, Empty).IsEmpty())
	require.True(t, Or(finite, Universal).IsUniversal())
	require.Equal(t, finite, Or(finite, Empty))
}

func Test_and_disjoint_boxes_is_empty(t *testing.T) {
	chk.PrintTitle("And of disjoint boxes is Empty")
	a := Box{Min: vecmat.Point{X: 0}, Max: vecmat.Point{X: 1}}
	b := Box{Min: vecmat.Point{X: 5}, Max: vecmat.Point{X: 6}}
	require.True(t, And(a, b).IsEmpty())
}

func Test_ray_hit_slab_test(t *testing.T) {
	chk.PrintTitle("RayHit detects a ray crossing the box and misses one that doesn't")
	b := Box{Min: vecmat.Point{X: -1, Y: -1, Z: -1}, Max: vecmat.Point{X: 1, Y: 1, Z: 1}}
	require.True(t, b.RayHit(vecmat.Point{X: -10}, vecmat.Vec{X: 1}))
	require.False(t, b.RayHit(vecmat.Point{X: -10, Y: 10}, vecmat.Vec{X: 1}))
}

func Test_merge_plane_vectors_and_distributes(t *testing.T) {
	chk.PrintTitle("MergePlaneVectorsAnd distributes AND over OR")
	a := [][]surf.Plane{{{Normal: vecmat.Vec{X: 1}}}, {{Normal: vecmat.Vec{X: -1}}}}
	b := [][]surf.Plane{{{Normal: vecmat.Vec{Y: 1}}}, {{Normal: vecmat.Vec{Y: -1}}}}
	merged, ok := MergePlaneVectorsAnd(a, b, 64)
	require.True(t, ok)
	require.Len(t, merged, 4)
}

func Test_merge_plane_vectors_and_respects_limit(t *testing.T) {
	chk.PrintTitle("MergePlaneVectorsAnd bails out past the size limit")
	a := [][]surf.Plane{{{}}, {{}}, {{}}}
	b := [][]surf.Plane{{{}}, {{}}, {{}}}
	_, ok := MergePlaneVectorsAnd(a, b, 4)
	require.False(t, ok)
}

func Test_rough_bounding_box_of_sphere(t *testing.T) {
	chk.PrintTitle("Rough tier bounds a sphere's exterior surface")
	s, err := surf.NewSphere(vecmat.Point{}, 5)
	require.NoError(t, err)
	b, err := Rough(nil, []surf.Surface{s})
	require.NoError(t, err)
	require.True(t, b.IsUniversal() || !b.IsEmpty())
}

func Test_medium_no_multipiece_sphere_interior(t *testing.T) {
	chk.PrintTitle("MediumNoMultipiece bounds a sphere's interior (dual)")
	s, err := surf.NewSphere(vecmat.Point{}, 5)
	require.NoError(t, err)
	dual := s
	dual.Reversed = true
	b, err := MediumNoMultipiece(nil, []surf.Surface{dual})
	require.NoError(t, err)
	require.False(t, b.IsEmpty())
}
