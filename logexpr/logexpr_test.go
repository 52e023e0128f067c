// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logexpr

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/stretchr/testify/require"
)

func Test_complement_roundtrip(t *testing.T) {
	chk.PrintTitle("complement roundtrip")
	x := NewMono(1)
	require.True(t, Equal(x.Complement().Complement(), x))
}

func Test_parse_complement_nested(t *testing.T) {
	chk.PrintTitle("parse nested surface complement")
	x, err := ParseNamed("1 #(2)")
	require.NoError(t, err)
	want, err := ParseNamed("1 -2")
	require.NoError(t, err)
	require.True(t, Equal(x, want), "got %s want %s", x, want)
}

func Test_parse_complement_doubly_nested(t *testing.T) {
	chk.PrintTitle("parse doubly nested surface complement")
	x, err := ParseNamed("-2:#(1)")
	require.NoError(t, err)
	_, err = ParseNamed("#(-2:#(1))")
	require.NoError(t, err)
	_ = x
}

func Test_parse_implicit_and_insertion(t *testing.T) {
	chk.PrintTitle("implicit AND insertion between adjacent parens")
	a, err := ParseNamed("(1)(2)")
	require.NoError(t, err)
	b, err := ParseNamed("(1) (2)")
	require.NoError(t, err)
	require.True(t, Equal(a, b))
}

func Test_parse_unbalanced_parens(t *testing.T) {
	chk.PrintTitle("unbalanced parens rejected")
	_, err := ParseNamed("(1 2")
	require.Error(t, err)
}

func Test_evaluate_complement_is_negation(t *testing.T) {
	chk.PrintTitle("evaluate(complement(x)) == !evaluate(x)")
	x, err := ParseNamed("1 2:3")
	require.NoError(t, err)
	pred := func(f string, arg map[string]bool) bool { return arg[f] }
	arg := map[string]bool{"1": true, "2": false, "3": true}
	got := Evaluate(x, pred, arg)
	gotC := Evaluate(x.Complement(), pred, arg)
	require.Equal(t, got, !gotC)
}

func Test_parse_roundtrip_orderless(t *testing.T) {
	chk.PrintTitle("from_string(to_string(x)) == x up to orderless equality")
	x, err := ParseNamed("1 2:3 -4")
	require.NoError(t, err)
	y, err := ParseNamed(x.String())
	require.NoError(t, err)
	require.True(t, Equal(x, y), "x=%s y=%s", x, y)
}

func Test_mono_collapses_size_one(t *testing.T) {
	chk.PrintTitle("size-1 AndOf/OrOf chains collapse")
	single := NewAnd(NewMono(1))
	require.Equal(t, Mono, single.Kind)
	singleOr := NewOr(NewMono(1))
	require.Equal(t, Mono, singleOr.Kind)
}

func Test_append_and_or(t *testing.T) {
	chk.PrintTitle("AppendAnd / AppendOr")
	a := NewMono(1)
	b := NewMono(2)
	require.True(t, Equal(a.AppendAnd(b), NewMono(1, 2)))
	or := a.AppendOr(b)
	require.Equal(t, OrOf, or.Kind)
	require.Len(t, or.Children, 2)
}

func Test_unique_factor_set(t *testing.T) {
	chk.PrintTitle("unique factor set")
	x, err := ParseNamed("1 2:1 -3")
	require.NoError(t, err)
	fs := x.UniqueFactorSet()
	require.ElementsMatch(t, []string{"1", "2", "-3"}, fs)
}

func Test_equality_orderless(t *testing.T) {
	chk.PrintTitle("equality is orderless")
	a := NewMono(1, 2, 3)
	b := NewMono(3, 1, 2)
	require.True(t, Equal(a, b))
}

func Test_indexed_resolve(t *testing.T) {
	chk.PrintTitle("ParseIndexed resolves names to ids")
	names := map[string]int{"S1": 1, "S2": 2}
	resolve := func(n string) (int, error) { return names[n], nil }
	x, err := ParseIndexed("S1 -S2", resolve)
	require.NoError(t, err)
	require.True(t, Equal(x, NewMono(1, -2)))
}
