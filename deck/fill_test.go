// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deck

import (
	"context"
	"testing"

	"github.com/cpmech/csgeom/surf"
	"github.com/cpmech/csgeom/vecmat"
	"github.com/cpmech/gosl/chk"
	"github.com/stretchr/testify/require"
)

func Test_apply_trcl_derives_transformed_surface_and_rewrites_equation(t *testing.T) {
	chk.PrintTitle("ApplyTRCL registers a derived surface and rewrites the cell's equation")
	reg := surf.NewRegistry()
	s1, _ := surf.NewSphere(vecmat.Point{}, 5)
	reg.Register("s1", s1, 0)

	creator := NewCreator(reg)
	creator.Transforms["TR1"] = TransformCard{Name: "TR1", Numbers: [12]float64{1, 0, 0, 0, 1, 0, 0, 0, 1, 10, 0, 0}}
	creator.Cells["c1"] = CellCard{Name: "c1", Material: "m", Density: -1, Equation: "-s1", TRCL: "TR1"}

	require.NoError(t, creator.ResolveDependencies())
	require.NoError(t, creator.ApplyTRCL())

	_, _, err := reg.At("s1_c1")
	require.NoError(t, err)
	require.Contains(t, creator.resolvedEq["c1"].String(), "s1_c1")
}

func Test_apply_trcl_derives_one_surface_per_base_and_cell(t *testing.T) {
	chk.PrintTitle("ApplyTRCL derives one surface per (base, cell) pair even with two factors")
	reg := surf.NewRegistry()
	s1, _ := surf.NewSphere(vecmat.Point{}, 5)
	s2, _ := surf.NewSphere(vecmat.Point{}, 10)
	reg.Register("s1", s1, 0)
	reg.Register("s2", s2, 0)

	creator := NewCreator(reg)
	creator.Transforms["TR1"] = TransformCard{Name: "TR1", Numbers: [12]float64{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0}}
	creator.Cells["c1"] = CellCard{Name: "c1", Material: "m", Density: -1, Equation: "-s1 s2", TRCL: "TR1"}

	require.NoError(t, creator.ResolveDependencies())
	require.NoError(t, creator.ApplyTRCL())

	_, _, err := reg.At("s1_c1")
	require.NoError(t, err)
	_, _, err = reg.At("s2_c1")
	require.NoError(t, err)
}

func Test_apply_trcl_rejects_unknown_transform(t *testing.T) {
	chk.PrintTitle("ApplyTRCL reports an error for a trcl= naming an undeclared transform")
	reg := surf.NewRegistry()
	s1, _ := surf.NewSphere(vecmat.Point{}, 5)
	reg.Register("s1", s1, 0)

	creator := NewCreator(reg)
	creator.Cells["c1"] = CellCard{Name: "c1", Material: "m", Density: -1, Equation: "-s1", TRCL: "TR9"}

	require.NoError(t, creator.ResolveDependencies())
	require.Error(t, creator.ApplyTRCL())
}

func Test_expand_lattices_consumes_rectangular_lattice_card(t *testing.T) {
	chk.PrintTitle("ExpandLattices enumerates a LAT=1 cell and drops the original card")
	reg := surf.NewRegistry()
	reg.Register("px1", surf.Plane{Normal: vecmat.Vec{X: 1}, Distance: 1}, 0)
	reg.Register("px2", surf.Plane{Normal: vecmat.Vec{X: -1}, Distance: 1}, 0)
	reg.Register("py1", surf.Plane{Normal: vecmat.Vec{Y: 1}, Distance: 1}, 0)
	reg.Register("py2", surf.Plane{Normal: vecmat.Vec{Y: -1}, Distance: 1}, 0)

	creator := NewCreator(reg)
	creator.Cells["lat1"] = CellCard{
		Name: "lat1", Material: "0", Density: 0,
		Equation: "-px1 px2 -py1 py2",
		Lat:      1, Fill: "0:1 0:1 0:0",
	}

	require.NoError(t, creator.ResolveDependencies())
	require.NoError(t, creator.ApplyTRCL())
	require.NoError(t, creator.ExpandLattices())
	require.NotContains(t, creator.resolvedCards, "lat1")
	require.Contains(t, creator.resolvedCards, "lat1_0_0_0")
	require.Contains(t, creator.resolvedCards, "lat1_1_1_0")
	require.Len(t, creator.resolvedCards, 4)
}

func Test_fill_async_runs_full_pipeline(t *testing.T) {
	chk.PrintTitle("FillAsync drives TRCL, lattice expansion, instantiation, and pruning")
	reg := surf.NewRegistry()
	s1, _ := surf.NewSphere(vecmat.Point{}, 5)
	reg.Register("s1", s1, 0)

	creator := NewCreator(reg)
	creator.Cells["c1"] = CellCard{Name: "c1", Material: "steel", Density: -7.8, Equation: "-s1"}
	require.NoError(t, creator.ResolveDependencies())

	err := <-creator.FillAsync(context.Background())
	require.NoError(t, err)
	require.Contains(t, creator.Instantiated, "c1")
}
