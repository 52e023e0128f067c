// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deck

import (
	"context"
	"fmt"
	"strings"

	"github.com/cpmech/csgeom/lattice"
	"github.com/cpmech/csgeom/logexpr"
	"github.com/cpmech/csgeom/surf"
	"github.com/cpmech/csgeom/vecmat"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// trclTuple queues one surface/cell/transform triple discovered while
// scanning TRCL-bearing cells; the registry materialises every queued
// derivation once, after the scan, per the pipeline's TRCL stage.
type trclTuple struct {
	baseSurface    string
	declaringCell  string
	transformToken string
}

// ApplyTRCL rewrites every resolved cell equation carrying a non-empty
// TRCL clause so its surface factors reference a derived, transformed
// surface instead of the original: each distinct (surface, cell,
// transform) triple is queued, then materialised once via
// Registry.RegisterWithTransform, and the cell's equation is rewritten to
// name the derived surfaces.
func (c *Creator) ApplyTRCL() error {
	var queue []trclTuple
	for name, card := range c.resolvedCards {
		if card.TRCL == "" {
			continue
		}
		eq, ok := c.resolvedEq[name]
		if !ok {
			continue
		}
		for _, f := range eq.UniqueFactorSet() {
			queue = append(queue, trclTuple{
				baseSurface:    surf.CanonicalName(f),
				declaringCell:  name,
				transformToken: card.TRCL,
			})
		}
	}
	derivedNames := map[trclTuple]string{}
	for _, tup := range queue {
		if _, done := derivedNames[tup]; done {
			continue
		}
		mat, err := c.resolveTransformToken(tup.transformToken)
		if err != nil {
			return err
		}
		if _, err := c.Registry.RegisterWithTransform(tup.baseSurface, tup.declaringCell, func(s surf.Surface) surf.Surface {
			return s.Transform(mat)
		}); err != nil {
			return err
		}
		derivedNames[tup] = fmt.Sprintf("%s_%s", tup.baseSurface, tup.declaringCell)
	}
	for name, card := range c.resolvedCards {
		if card.TRCL == "" {
			continue
		}
		eq := c.resolvedEq[name]
		rewritten := eq.String()
		for tup, derived := range derivedNames {
			if tup.declaringCell != name {
				continue
			}
			rewritten = replaceToken(rewritten, tup.baseSurface, derived)
			rewritten = replaceToken(rewritten, "-"+tup.baseSurface, "-"+derived)
		}
		newEq, err := logexpr.ParseNamed(rewritten)
		if err != nil {
			return err
		}
		c.resolvedEq[name] = newEq
	}
	return nil
}

func (c *Creator) resolveTransformToken(token string) (vecmat.Mat4, error) {
	token = strings.TrimPrefix(strings.TrimSpace(token), "*")
	tc, ok := c.Transforms[token]
	if !ok {
		return vecmat.Mat4{}, chk.Err("InvalidTransform: unresolved TRCL transform %q", token)
	}
	return tc.ToMat4(), nil
}

// ExpandLattices dispatches every resolved LAT=1/2/3 cell into its
// enumerated element cards, replacing the original lattice card with the
// synthesised per-element cards: one concrete cell per index triple, every
// surface of the lattice cell's equation translated by the element's
// offset and the equation rewritten to reference them. Each element card
// keeps the lattice card's material, density, u= universe and importance;
// no fill= is carried over.
func (c *Creator) ExpandLattices() error {
	for name, card := range c.resolvedCards {
		if card.Lat == 0 {
			continue
		}
		faces, err := c.latticeFaces(card)
		if err != nil {
			return err
		}
		base, err := lattice.NewBaseUnitElement(faces)
		if err != nil {
			return err
		}
		decl, err := parseDeclarator(card)
		if err != nil {
			return err
		}
		var elements []lattice.Element
		switch card.Lat {
		case 1:
			elements, err = lattice.RectangularElements(base, decl)
		case 2:
			elements, err = lattice.HexagonalElements(base, decl)
		default:
			return chk.Err("LatticeSpec: cell %q: lat=3 (tetrahedral) lattices are not expanded by ExpandLattices", name)
		}
		if err != nil {
			return err
		}
		if err := c.materializeLatticeElements(name, card, elements); err != nil {
			return err
		}
		delete(c.resolvedCards, name)
		delete(c.resolvedEq, name)
		io.Pforan("lattice %q: expanded %d elements\n", name, len(elements))
	}
	return nil
}

// materializeLatticeElements installs one concrete cell card per enumerated
// element, translating the lattice cell's own boundary surfaces by the
// element's offset and rewriting the equation to reference the derived
// surfaces, exactly as ApplyTRCL does for an explicit trcl= clause.
func (c *Creator) materializeLatticeElements(latticeName string, card CellCard, elements []lattice.Element) error {
	baseEq, ok := c.resolvedEq[latticeName]
	if !ok {
		return chk.Err("LatticeSpec: cell %q has no resolved equation to expand", latticeName)
	}
	for _, el := range elements {
		elName := fmt.Sprintf("%s_%d_%d_%d", latticeName, el.Index[0], el.Index[1], el.Index[2])
		t, err := parseTRCLVec(el.TRCL)
		if err != nil {
			return err
		}
		mat := vecmat.FromRotationTranslation([9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, t)

		rewritten := baseEq.String()
		for _, f := range baseEq.UniqueFactorSet() {
			base := surf.CanonicalName(f)
			if _, err := c.Registry.RegisterWithTransform(base, elName, func(s surf.Surface) surf.Surface {
				return s.Transform(mat)
			}); err != nil {
				return err
			}
			derived := fmt.Sprintf("%s_%s", base, elName)
			rewritten = replaceToken(rewritten, base, derived)
			rewritten = replaceToken(rewritten, "-"+base, "-"+derived)
		}
		eq, err := logexpr.ParseNamed(rewritten)
		if err != nil {
			return err
		}

		elCard := CellCard{
			Name:       elName,
			Material:   card.Material,
			Density:    card.Density,
			Equation:   rewritten,
			Universe:   card.Universe,
			Importance: card.Importance,
			Loc:        card.Loc,
		}
		c.resolvedCards[elName] = elCard
		c.resolvedEq[elName] = eq
	}
	return nil
}

// parseTRCLVec parses the "x y z" translation description an Element
// carries back into a vecmat.Vec.
func parseTRCLVec(s string) (vecmat.Vec, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return vecmat.Vec{}, chk.Err("LatticeSpec: malformed element translation %q", s)
	}
	var v vecmat.Vec
	if _, err := fmt.Sscanf(fields[0], "%g", &v.X); err != nil {
		return v, chk.Err("LatticeSpec: bad translation x component %q", fields[0])
	}
	if _, err := fmt.Sscanf(fields[1], "%g", &v.Y); err != nil {
		return v, chk.Err("LatticeSpec: bad translation y component %q", fields[1])
	}
	if _, err := fmt.Sscanf(fields[2], "%g", &v.Z); err != nil {
		return v, chk.Err("LatticeSpec: bad translation z component %q", fields[2])
	}
	return v, nil
}

// latticeFaces resolves a lattice cell's face-plane surfaces from the
// registry, requiring every referenced surface to already be a Plane.
func (c *Creator) latticeFaces(card CellCard) ([]surf.Plane, error) {
	var faces []surf.Plane
	for _, tok := range strings.Fields(card.Equation) {
		name := strings.TrimPrefix(strings.TrimLeft(tok, "()"), "-")
		s, _, err := c.Registry.At(name)
		if err != nil {
			continue
		}
		if p, ok := s.(surf.Plane); ok {
			faces = append(faces, p)
		}
	}
	if len(faces) == 0 {
		return nil, chk.Err("LatticeSpec: cell %q: no face planes resolved for lattice expansion", card.Name)
	}
	return faces, nil
}

func parseDeclarator(card CellCard) (lattice.Declarator, error) {
	if card.Fill == "" {
		return lattice.Declarator{}, chk.Err("FillMissing: lattice cell %q has no fill= declarator", card.Name)
	}
	fields := strings.Fields(card.Fill)
	var d lattice.Declarator
	if len(fields) >= 3 {
		if r, err := parseRange(fields[0]); err == nil {
			d.IMin, d.IMax = r[0], r[1]
		}
		if r, err := parseRange(fields[1]); err == nil {
			d.JMin, d.JMax = r[0], r[1]
		}
		if r, err := parseRange(fields[2]); err == nil {
			d.KMin, d.KMax = r[0], r[1]
		}
	}
	return d, nil
}

func parseRange(tok string) ([2]int, error) {
	parts := strings.SplitN(tok, ":", 2)
	if len(parts) != 2 {
		return [2]int{}, chk.Err("LatticeSpec: malformed dimension-declarator range %q", tok)
	}
	var lo, hi int
	if _, err := fmt.Sscanf(parts[0], "%d", &lo); err != nil {
		return [2]int{}, chk.Err("LatticeSpec: malformed range bound %q", parts[0])
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &hi); err != nil {
		return [2]int{}, chk.Err("LatticeSpec: malformed range bound %q", parts[1])
	}
	return [2]int{lo, hi}, nil
}

// FillAsync runs the full remaining pipeline (TRCL, lattice expansion,
// instantiation, back-references, pruning) on a worker goroutine,
// cancellable via ctx, reporting progress through c.Progress and delivering
// the terminal result on the returned channel.
func (c *Creator) FillAsync(ctx context.Context) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		if err := c.ApplyTRCL(); err != nil {
			out <- err
			return
		}
		if err := c.ExpandLattices(); err != nil {
			out <- err
			return
		}
		if _, err := c.InstantiateCells(ctx); err != nil {
			out <- err
			return
		}
		c.InstallBackReferences()
		c.Prune(func(name string) { io.Pfyel("warning: surface %q is never referenced by any cell\n", name) })
		out <- nil
	}()
	return out
}
