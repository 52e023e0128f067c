// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deck

import (
	"context"
	"testing"

	"github.com/cpmech/csgeom/cell"
	"github.com/cpmech/csgeom/surf"
	"github.com/cpmech/csgeom/vecmat"
	"github.com/cpmech/gosl/chk"
	"github.com/stretchr/testify/require"
)

// trackRay walks a straight line from start along dir for maxLen, returning
// the sequence of cell names it passes through and the length spent in
// each, the way a transport code's ray tracker reports a track.
func trackRay(cells map[string]*cell.Cell, start vecmat.Point, dir vecmat.Vec, maxLen float64) (names []string, lengths []float64) {
	pos := start
	traveled := 0.0
	for traveled < maxLen-1e-9 {
		cur := findCell(cells, pos, dir)
		if cur == nil {
			break
		}
		hits := cur.NearestForwardIntersections(pos, dir)
		remaining := maxLen - traveled
		step := remaining
		if len(hits) > 0 && hits[0].Distance < remaining {
			step = hits[0].Distance
		}
		names = append(names, cur.Name)
		lengths = append(lengths, step)
		pos = pos.Add(dir.Scale(step))
		traveled += step
	}
	return names, lengths
}

// findCell probes a point just beyond pos along dir (to dodge sitting
// exactly on a boundary) and returns whichever cell claims it.
func findCell(cells map[string]*cell.Cell, pos vecmat.Point, dir vecmat.Vec) *cell.Cell {
	probe := pos.Add(dir.Scale(1e-6))
	for _, c := range cells {
		if c.IsInside(probe) {
			return c
		}
	}
	return nil
}

func buildAndFill(t *testing.T, text string) *Creator {
	t.Helper()
	c, err := ParseCards("scenario.deck", text)
	require.NoError(t, err)
	c.Registry = surf.NewRegistry()
	require.NoError(t, c.RegisterSurfaces())
	require.NoError(t, c.ResolveDependencies())
	require.NoError(t, <-c.FillAsync(context.Background()))
	return c
}

func Test_scenario_concentric_spheres_track(t *testing.T) {
	chk.PrintTitle("scenario: a ray through two concentric spheres visits C3,C2,C1,C2,C3")
	text := `
s1 s 0 0 0 10
s2 s 0 0 0 20
c1 void 0 -s1 imp=1
c2 void 0 s1 -s2 imp=1
c3 void 0 s2 imp=1
`
	creator := buildAndFill(t, text)
	names, lengths := trackRay(creator.Instantiated, vecmat.Point{X: -30}, vecmat.Vec{X: 1}, 100)
	require.Equal(t, []string{"c3", "c2", "c1", "c2", "c3"}, names)
	require.InDeltaSlice(t, []float64{10, 10, 20, 10, 50}, lengths, 1e-6)
}

func Test_scenario_plane_split_track(t *testing.T) {
	chk.PrintTitle("scenario: a ray crossing a single plane visits CL then CR")
	text := `
px1 px 0
cl void 0 -px1 imp=1
cr void 0 px1 imp=1
`
	creator := buildAndFill(t, text)
	names, lengths := trackRay(creator.Instantiated, vecmat.Point{X: -10}, vecmat.Vec{X: 1}, 20)
	require.Equal(t, []string{"cl", "cr"}, names)
	require.InDeltaSlice(t, []float64{10, 10}, lengths, 1e-6)
}

func Test_scenario_complement_expansion_partitions_sphere(t *testing.T) {
	chk.PrintTitle("scenario: #c1 complement expansion partitions the interior of s2")
	text := `
s1 s 0 0 0 10
s2 s 0 0 0 20
c1 void 0 -s1 imp=1
c2 void 0 #c1 -s2 imp=1
`
	creator := buildAndFill(t, text)
	inner := creator.Instantiated["c1"]
	outer := creator.Instantiated["c2"]
	require.True(t, inner.IsInside(vecmat.Point{}))
	require.False(t, outer.IsInside(vecmat.Point{}))
	mid := vecmat.Point{X: 15}
	require.False(t, inner.IsInside(mid))
	require.True(t, outer.IsInside(mid))
}

func Test_scenario_rectangular_lattice_two_by_two(t *testing.T) {
	chk.PrintTitle("scenario: LAT=1 over a 0:1 0:1 0:0 declarator yields four elements on a 2x2 grid")
	text := `
hiX p 1 0 0 1
loX p -1 0 0 1
hiY p 0 1 0 1
loY p 0 -1 0 1
lat1 void 0 -hiX -loX -hiY -loY lat=1 fill=0:1 0:1 0:0 imp=1
`
	creator := buildAndFill(t, text)
	require.Len(t, creator.Instantiated, 4)

	centres := map[string]vecmat.Point{
		"lat1_0_0_0": {X: 0, Y: 0},
		"lat1_1_0_0": {X: 2, Y: 0},
		"lat1_0_1_0": {X: 0, Y: 2},
		"lat1_1_1_0": {X: 2, Y: 2},
	}
	for name, centre := range centres {
		el, ok := creator.Instantiated[name]
		require.Truef(t, ok, "missing element %s", name)
		require.Truef(t, el.IsInside(centre), "%s should contain its own centre %v", name, centre)
		for otherName, otherCentre := range centres {
			if otherName == name {
				continue
			}
			require.Falsef(t, el.IsInside(otherCentre), "%s should not contain %s's centre %v", name, otherName, otherCentre)
		}
	}
}

func Test_scenario_dependency_cycle_names_members_and_locations(t *testing.T) {
	chk.PrintTitle("scenario: a dependency cycle fails with both cell names and source locations")
	text := "c1 void 0 #c2 imp=1\nc2 void 0 #c1 imp=1\n"
	c, err := ParseCards("cycle.deck", text)
	require.NoError(t, err)
	err = c.ResolveDependencies()
	require.Error(t, err)
	var cde *CircularDependencyError
	require.ErrorAs(t, err, &cde)
	require.ElementsMatch(t, []string{"c1", "c2"}, cde.Members)
	require.Contains(t, err.Error(), "cycle.deck:1")
	require.Contains(t, err.Error(), "cycle.deck:2")
}
