// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cell implements the runtime cell entity: point-in-cell
// membership, ray/cell intersection, and the bounding-box-strategy
// selection between the rough/medium/detailed tiers in package bbox.
package cell

import (
	"context"
	"sort"

	"github.com/cpmech/csgeom/bbox"
	"github.com/cpmech/csgeom/logexpr"
	"github.com/cpmech/csgeom/surf"
	"github.com/cpmech/csgeom/vecmat"
	"github.com/cpmech/gosl/io"
)

// voidDensityThreshold and voidNumberDensityThreshold mark the boundary
// between a "drawn" (visually/physically substantial) cell and a
// void/air cell for bounding-box strategy ordering purposes.
const (
	voidDensityThreshold       = 0.0015  // g/cc
	voidNumberDensityThreshold = 2.686e-4
)

// Cell is an instantiated region of space: a logical combination of
// signed surface ids, plus the material/importance metadata a deck
// carries on a cell card.
type Cell struct {
	Name         string
	MaterialName string
	Density      float64 // g/cc; 0 means void
	NumberDensity float64
	Importance   float64
	Equation     logexpr.Expr[int]
	registry     *surf.Registry
	contactFront []int // positive ids this cell's equation (or its factors' duals) touches
	contactBack  []int // corresponding negative ids
	explicitBB   *bbox.Box
}

// Undefined is the process-scope singleton returned for ray queries that
// fall outside every real cell; membership is always false, so a caller
// that walks cells looking for "which cell is this point in" naturally
// stops without special-casing the no-match outcome.
var Undefined = &Cell{Name: "UNDEFINED_CELL"}

// New constructs a cell, deriving its contact-surface view from the
// equation's factor set and each factor's dual.
func New(name, material string, density, numberDensity, importance float64, eq logexpr.Expr[int], reg *surf.Registry) *Cell {
	c := &Cell{
		Name: name, MaterialName: material, Density: density,
		NumberDensity: numberDensity, Importance: importance,
		Equation: eq, registry: reg,
	}
	factors := eq.UniqueFactorSet()
	seen := map[int]bool{}
	for _, f := range factors {
		if seen[f] {
			continue
		}
		seen[f] = true
		if f > 0 {
			c.contactFront = append(c.contactFront, f)
			c.contactBack = append(c.contactBack, -f)
		} else {
			c.contactFront = append(c.contactFront, -f)
			c.contactBack = append(c.contactBack, f)
		}
	}
	sort.Ints(c.contactFront)
	sort.Ints(c.contactBack)
	return c
}

// SetExplicitBB records a deck-supplied `bb=` box, later intersected
// with the computed rough box as a safety net.
func (c *Cell) SetExplicitBB(b bbox.Box) { c.explicitBB = &b }

// IsVoid reports whether the cell carries no material (both Density and
// NumberDensity are 0).
func (c *Cell) IsVoid() bool { return c.Density == 0 && c.NumberDensity == 0 }

// IsHeavierThanAir reports whether the cell's density exceeds the
// void/air thresholds used to pick a bounding-box strategy order.
func (c *Cell) IsHeavierThanAir() bool {
	return c.Density > voidDensityThreshold || c.NumberDensity > voidNumberDensityThreshold
}

func (c *Cell) isDrawn() bool {
	return !c.IsVoid() && c.IsHeavierThanAir()
}

// IsInside evaluates the logical expression against the per-surface
// membership predicate; Undefined always reports false. The walk
// short-circuits AND/OR per logexpr.Evaluate and allocates nothing
// beyond the closure.
func (c *Cell) IsInside(p vecmat.Point) bool {
	if c == Undefined || c.registry == nil {
		return false
	}
	pred := func(id int, pt vecmat.Point) bool {
		s := c.surfaceForSignedID(id)
		if s == nil {
			return false
		}
		return s.IsForward(pt)
	}
	return logexpr.Evaluate(c.Equation, pred, p)
}

func (c *Cell) surfaceForSignedID(id int) surf.Surface {
	if id >= 0 {
		return c.registry.FrontSurfaces()[id]
	}
	return c.registry.BackSurfaces()[id]
}

// Hit is a single candidate ray/surface intersection.
type Hit struct {
	SurfaceID int
	Point     vecmat.Point
	Distance  float64
}

// NearestForwardIntersections returns every contact-front surface's
// intersection with (p, d), keeping only hits strictly beyond Delta,
// sorted by distance, and including every hit tied within half a Delta
// of the nearest one so the caller can pick whichever side it enters.
func (c *Cell) NearestForwardIntersections(p vecmat.Point, d vecmat.Vec) []Hit {
	var hits []Hit
	for _, id := range c.contactFront {
		s := c.registry.FrontSurfaces()[id]
		if s == nil {
			continue
		}
		hp := s.Intersect(vecmat.Ray{P: p, D: d})
		if hp == vecmat.Invalid {
			continue
		}
		dist := hp.Sub(p).Norm()
		if dist <= vecmat.Delta {
			continue
		}
		hits = append(hits, Hit{SurfaceID: id, Point: hp, Distance: dist})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) == 0 {
		return hits
	}
	nearest := hits[0].Distance
	cut := len(hits)
	for i, h := range hits {
		if h.Distance >= nearest+0.5*vecmat.Delta {
			cut = i
			break
		}
	}
	return hits[:cut]
}

// GetFarthestIntersection iterates every contact-front surface, keeps
// candidates whose point, stepped back by a small margin, is still
// inside the cell, and returns the maximum-distance survivor. Used only
// during dimension-declarator inference (walking outward from a lattice
// element to find where it leaves the surrounding cell).
func (c *Cell) GetFarthestIntersection(p vecmat.Point, d vecmat.Vec) (vecmat.Point, bool) {
	best := vecmat.Invalid
	bestDist := -1.0
	for _, id := range c.contactFront {
		s := c.registry.FrontSurfaces()[id]
		if s == nil {
			continue
		}
		hp := s.Intersect(vecmat.Ray{P: p, D: d})
		if hp == vecmat.Invalid {
			continue
		}
		dist := hp.Sub(p).Norm()
		back := hp.Sub(d.Normalized().Scale(2 * vecmat.Delta))
		if !c.IsInside(back) {
			continue
		}
		if dist > bestDist {
			bestDist = dist
			best = hp
		}
	}
	return best, best != vecmat.Invalid
}

// MacroTotalXS delegates to the material collaborator for the
// macroscopic total cross-section at the given particle/energy; the
// material model itself is outside this engine's scope, so this is a
// thin hook a transport-physics layer supplies.
type MaterialXS interface {
	MacroTotalXS(particle string, energyMeV float64) float64
}

// MacroTotalXS forwards to mat, or returns 0 for a void cell / nil
// collaborator.
func (c *Cell) MacroTotalXS(mat MaterialXS, particle string, energyMeV float64) float64 {
	if mat == nil || c.IsVoid() {
		return 0
	}
	return mat.MacroTotalXS(particle, energyMeV)
}

// frontSurfaces resolves the cell's contact-front ids to surfaces, for
// the bounding-box tiers in package bbox.
func (c *Cell) frontSurfaces() []surf.Surface {
	out := make([]surf.Surface, 0, len(c.contactFront))
	for _, id := range c.contactFront {
		if s := c.registry.FrontSurfaces()[id]; s != nil {
			out = append(out, s)
		}
	}
	return out
}

// BoundingBox computes the cell's bounding box within the time budget
// implied by ctx's deadline, trying tiers in the order the "drawn" vs
// "void/air" classification prescribes, intersecting each successful
// tier's result into the running box; an explicit bb= is intersected in
// as a final safety net.
func (c *Cell) BoundingBox(ctx context.Context) bbox.Box {
	deadline := bbox.NewDeadline(ctx)
	surfaces := c.frontSurfaces()

	type tier func(*bbox.Deadline, []surf.Surface) (bbox.Box, error)
	var order []tier
	if c.isDrawn() {
		order = []tier{bbox.Detailed, bbox.MediumAcceptMultipiece, bbox.MediumNoMultipiece, bbox.Rough}
	} else {
		order = []tier{bbox.Rough, bbox.MediumNoMultipiece, bbox.MediumAcceptMultipiece, bbox.Detailed}
	}

	result := bbox.Universal
	for _, t := range order {
		b, err := t(deadline, surfaces)
		if err != nil {
			continue
		}
		result = bbox.And(result, b)
	}
	if deadline.Tripped() {
		io.Pfyel("csgeom: bounding-box computation for cell %q timed out; tiers cut short add no bound\n", c.Name)
	}
	if c.explicitBB != nil {
		result = bbox.And(result, *c.explicitBB)
	}
	return result
}
