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

func Test_parse_cards_splits_surface_cell_transform(t *testing.T) {
	chk.PrintTitle("ParseCards classifies surface, cell, and transform lines")
	text := `
s1 sph 0 0 0 5
c1 steel -7.8 -s1 imp=1
*TR1 1 0 0 0 1 0 0 0 1 10 0 0
`
	c, err := ParseCards("deck.txt", text)
	require.NoError(t, err)
	require.Contains(t, c.Surfaces, "s1")
	require.Equal(t, "sph", c.Surfaces["s1"].Mnemonic)
	require.Contains(t, c.Cells, "c1")
	require.InDelta(t, -7.8, c.Cells["c1"].Density, 1e-9)
	require.Contains(t, c.Transforms, "TR1")
	require.True(t, c.Transforms["TR1"].Degrees)
}

func Test_parse_cell_card_like_but(t *testing.T) {
	chk.PrintTitle("parseCellCard recognises a like-but clause")
	text := "c2 steel -7.8 like c1 but rho=-8.0\n"
	c, err := ParseCards("deck.txt", text)
	require.NoError(t, err)
	require.Equal(t, "c1", c.Cells["c2"].LikeBase)
	require.Equal(t, "-8.0", c.Cells["c2"].LikeButs["rho"])
}

func Test_resolve_dependencies_substitutes_cell_complement(t *testing.T) {
	chk.PrintTitle("ResolveDependencies promotes a card referencing #name")
	reg := surf.NewRegistry()
	s1, _ := surf.NewSphere(vecmat.Point{}, 5)
	s2, _ := surf.NewSphere(vecmat.Point{}, 10)
	reg.Register("s1", s1, 0)
	reg.Register("s2", s2, 0)

	creator := NewCreator(reg)
	creator.Cells["c1"] = CellCard{Name: "c1", Material: "m", Density: -1, Equation: "-s1"}
	creator.Cells["c2"] = CellCard{Name: "c2", Material: "m", Density: -1, Equation: "#c1 -s2"}

	err := creator.ResolveDependencies()
	require.NoError(t, err)
	require.Contains(t, creator.resolvedEq, "c2")
}

func Test_resolve_dependencies_circular_error(t *testing.T) {
	chk.PrintTitle("ResolveDependencies reports a CircularDependencyError")
	reg := surf.NewRegistry()
	creator := NewCreator(reg)
	creator.Cells["a"] = CellCard{Name: "a", Material: "m", Density: -1, Equation: "#b"}
	creator.Cells["b"] = CellCard{Name: "b", Material: "m", Density: -1, Equation: "#a"}

	err := creator.ResolveDependencies()
	require.Error(t, err)
	var cde *CircularDependencyError
	require.ErrorAs(t, err, &cde)
	require.ElementsMatch(t, []string{"a", "b"}, cde.Members)
}

func Test_instantiate_cells_builds_runtime_cells(t *testing.T) {
	chk.PrintTitle("InstantiateCells builds a runtime Cell per non-universe card")
	reg := surf.NewRegistry()
	s1, _ := surf.NewSphere(vecmat.Point{}, 5)
	reg.Register("s1", s1, 0)

	creator := NewCreator(reg)
	creator.Cells["c1"] = CellCard{Name: "c1", Material: "steel", Density: -7.8, Equation: "-s1"}

	require.NoError(t, creator.ResolveDependencies())
	cells, err := creator.InstantiateCells(context.Background())
	require.NoError(t, err)
	require.Contains(t, cells, "c1")
	require.True(t, cells["c1"].IsInside(vecmat.Point{}))
}

func Test_instantiate_cells_skips_universe_cards(t *testing.T) {
	chk.PrintTitle("InstantiateCells skips cards carrying u=")
	reg := surf.NewRegistry()
	s1, _ := surf.NewSphere(vecmat.Point{}, 5)
	reg.Register("s1", s1, 0)

	creator := NewCreator(reg)
	creator.Cells["leaf"] = CellCard{Name: "leaf", Material: "steel", Density: -7.8, Equation: "-s1", Universe: "1"}

	require.NoError(t, creator.ResolveDependencies())
	cells, err := creator.InstantiateCells(context.Background())
	require.NoError(t, err)
	require.NotContains(t, cells, "leaf")
}

func Test_install_back_references_and_prune(t *testing.T) {
	chk.PrintTitle("InstallBackReferences + Prune drop surfaces with no contact cells")
	reg := surf.NewRegistry()
	s1, _ := surf.NewSphere(vecmat.Point{}, 5)
	s2, _ := surf.NewSphere(vecmat.Point{}, 50) // never referenced by any cell
	reg.Register("s1", s1, 0)
	reg.Register("s2", s2, 0)

	creator := NewCreator(reg)
	creator.Cells["c1"] = CellCard{Name: "c1", Material: "steel", Density: -7.8, Equation: "-s1"}
	require.NoError(t, creator.ResolveDependencies())
	_, err := creator.InstantiateCells(context.Background())
	require.NoError(t, err)

	creator.InstallBackReferences()
	var warned []string
	creator.Prune(func(name string) { warned = append(warned, name) })
	require.Contains(t, warned, "s2")
	require.NotContains(t, warned, "s1")
}
