// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deck

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"

	"github.com/cpmech/csgeom/cell"
	"github.com/cpmech/csgeom/logexpr"
	"github.com/cpmech/csgeom/surf"
	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"
)

// Creator runs the cell-creator pipeline over a set of raw cards against
// a shared surface registry, producing the final instantiated cell set.
type Creator struct {
	Registry      *surf.Registry
	Surfaces      map[string]SurfaceCard
	Transforms    map[string]TransformCard
	Cells         map[string]CellCard
	resolvedEq    map[string]logexpr.Expr[string] // name-keyed equation after dependency resolution
	resolvedCards map[string]CellCard
	Instantiated  map[string]*cell.Cell
	Progress      atomic.Int64
	Cancel        atomic.Bool
}

// NewCreator builds an empty pipeline state bound to reg.
func NewCreator(reg *surf.Registry) *Creator {
	return &Creator{
		Registry:      reg,
		Surfaces:      map[string]SurfaceCard{},
		Transforms:    map[string]TransformCard{},
		Cells:         map[string]CellCard{},
		resolvedEq:    map[string]logexpr.Expr[string]{},
		resolvedCards: map[string]CellCard{},
		Instantiated:  map[string]*cell.Cell{},
	}
}

// separate splits c.Cells into the solved (no complement, no like-but)
// and depending maps, per the pipeline's stage 1.
func (c *Creator) separate() (solved, depending map[string]CellCard) {
	solved = map[string]CellCard{}
	depending = map[string]CellCard{}
	for name, card := range c.Cells {
		if card.hasDependency() {
			depending[name] = card
		} else {
			solved[name] = card
		}
	}
	return solved, depending
}

// ResolveDependencies iteratively promotes depending cards into solved
// ones: a card promotes once every cell name it references appears in
// the solved set, substituting the referenced cell's complemented
// equation for each `#name` token. A pass that makes zero progress over
// a non-empty depending set reports every remaining depending card as a
// CircularDependencyError; a directed graph + topological sort over the
// reference edges sets its Confirmed flag when the stall is a genuine
// cycle.
func (c *Creator) ResolveDependencies() error {
	solved, depending := c.separate()
	resolvedExpr := map[string]logexpr.Expr[string]{}
	for name, card := range solved {
		eq, err := logexpr.ParseNamed(card.Equation)
		if err != nil {
			return err
		}
		resolvedExpr[name] = eq
		c.resolvedCards[name] = card
	}

	for len(depending) > 0 {
		progressed := false
		for name, card := range depending {
			refs := card.references()
			ready := true
			for _, r := range refs {
				if _, ok := resolvedExpr[r]; !ok {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}
			eq, err := c.substituteReferences(card, resolvedExpr)
			if err != nil {
				return err
			}
			resolvedExpr[name] = eq
			c.resolvedCards[name] = card
			delete(depending, name)
			progressed = true
		}
		if !progressed {
			return c.circularDependencyError(depending)
		}
	}
	c.resolvedEq = resolvedExpr
	return nil
}

// substituteReferences rewrites card's equation, replacing every bare
// `#name` cell-complement token with the complement of that cell's
// already-resolved equation, and (for a like-but card with no equation
// of its own) starts from the base cell's equation verbatim.
func (c *Creator) substituteReferences(card CellCard, resolved map[string]logexpr.Expr[string]) (logexpr.Expr[string], error) {
	if card.LikeBase != "" && card.Equation == "" {
		base, ok := resolved[card.LikeBase]
		if !ok {
			return logexpr.Expr[string]{}, unresolvedReference("like-but base cell %q not resolved", card.LikeBase)
		}
		return base, nil
	}
	text := card.Equation
	for _, r := range card.references() {
		base, ok := resolved[r]
		if !ok {
			continue
		}
		complemented := base.Complement().String()
		text = replaceToken(text, "#"+r, "("+complemented+")")
	}
	return logexpr.ParseNamed(text)
}

// replaceToken replaces every whole-token occurrence of token in text: a
// match preceded or followed by a name character (alphanumeric, '.' or
// '_') is part of a longer name and is left as it is.
func replaceToken(text, token, replacement string) string {
	isName := func(c byte) bool {
		return c == '.' || c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	}
	out := ""
	start := 0
	for {
		idx := indexOf(text[start:], token)
		if idx < 0 {
			return out + text[start:]
		}
		idx += start
		end := idx + len(token)
		if (idx > 0 && isName(text[idx-1])) || (end < len(text) && isName(text[end])) {
			out += text[start:end]
		} else {
			out += text[start:idx] + replacement
		}
		start = end
	}
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

// circularDependencyError builds a directed graph of the remaining
// depending cards' references and runs a topological sort over it:
// ErrCycleDetected confirms a genuine cycle among the depending cards,
// while a clean sort means the stall came from a reference to a name
// outside the depending set entirely (e.g. a typo) -- either way every
// member of depending is equally stuck and is reported, but Confirmed
// records which case actually happened.
func (c *Creator) circularDependencyError(depending map[string]CellCard) error {
	g := core.NewGraph(core.WithDirected(true))
	names := make([]string, 0, len(depending))
	for name := range depending {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_ = g.AddVertex(name)
	}
	for _, name := range names {
		for _, r := range depending[name].references() {
			if _, ok := depending[r]; ok {
				_, _ = g.AddEdge(r, name, 0)
			}
		}
	}
	_, err := dfs.TopologicalSort(g)
	locs := make([]SourceLoc, len(names))
	for i, name := range names {
		locs[i] = depending[name].Loc
	}
	return &CircularDependencyError{Members: names, Locs: locs, Confirmed: errors.Is(err, dfs.ErrCycleDetected)}
}

// IndexedEquations resolves every name-based equation to a registry-id
// equation via logexpr.ParseIndexed, resolving each surface name with
// Registry.At, the make_index_equation step.
func (c *Creator) IndexedEquations() (map[string]logexpr.Expr[int], error) {
	out := map[string]logexpr.Expr[int]{}
	for name, eq := range c.resolvedEq {
		indexed, err := logexpr.ParseIndexed(eq.String(), func(n string) (int, error) {
			_, id, err := c.Registry.At(n)
			return id, err
		})
		if err != nil {
			return nil, err
		}
		out[name] = indexed
	}
	return out, nil
}

// InstantiateCells builds Cell instances for every resolved, non-universe
// (no `u=`) card -- only universe-leaf cells are instantiated directly;
// fill/lattice expansion (ExpandLattices) must run first and feed its
// synthesised cards back into c.resolvedCards before this stage.
func (c *Creator) InstantiateCells(ctx context.Context) (map[string]*cell.Cell, error) {
	indexed, err := c.IndexedEquations()
	if err != nil {
		return nil, err
	}
	out := map[string]*cell.Cell{}
	for name, card := range c.resolvedCards {
		if c.Cancel.Load() || ctx.Err() != nil {
			return nil, cancelledError()
		}
		if card.Universe != "" {
			continue
		}
		eq, ok := indexed[name]
		if !ok {
			continue
		}
		density := card.Density
		numberDensity := 0.0
		if density < 0 {
			density = -density
		} else {
			numberDensity = density
			density = 0
		}
		out[name] = cell.New(name, card.Material, density, numberDensity, card.Importance, eq, c.Registry)
		c.Progress.Add(1)
	}
	c.Instantiated = out
	return out, nil
}

// InstallBackReferences walks the finished cell map and marks every
// contacted surface (front and back) as touched by that cell, feeding
// Registry.RemoveUnused's liveness check.
func (c *Creator) InstallBackReferences() {
	for name, cl := range c.Instantiated {
		factors := cl.Equation.UniqueFactorSet()
		for _, f := range factors {
			c.Registry.MarkContact(f, name)
		}
	}
}

// Prune removes surfaces with no contact cells, warning for user-authored
// primary surfaces only.
func (c *Creator) Prune(warn func(name string)) {
	c.Registry.RemoveUnused(warn)
}
