// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package surf implements the polymorphic implicit-surface primitives
// (plane, sphere, cylinder, cone, torus, triangle, polyhedron, quadric)
// and the signed-id surface registry that keeps their reversed duals.
package surf

import (
	"strings"
	"sync/atomic"

	"github.com/cpmech/csgeom/vecmat"
)

// Surface is the small trait interface every primitive implements -- the
// four hot methods DESIGN NOTES 9 calls out for a tagged-variant model:
// IsForward, Intersect, Transform, BoundingPlanes. InputString and
// DeepClone live here too since the closed primitive set is small enough
// that a single interface costs nothing, unlike the open "rare use"
// extension trait the source sketches for a plugin architecture.
type Surface interface {
	// TypeName returns the mnemonic family, e.g. "s", "p".
	TypeName() string
	// IsForward reports whether p lies on the "forward" (outside) side.
	// Equality (p exactly on the surface) resolves to true.
	IsForward(p vecmat.Point) bool
	// Intersect returns the nearest point along the ray beyond Delta, or
	// the Invalid sentinel if there is none. Sphere, cylinder and quadric
	// return the ray's start point when it lies on the surface and no
	// root lies beyond Delta.
	Intersect(r vecmat.Ray) vecmat.Point
	// Transform returns a new surface with m applied to its canonical
	// parameters. Transforming by the identically-zero matrix is a no-op.
	Transform(m vecmat.Mat4) Surface
	// BoundingPlanes returns the plane-conjunction/disjunction description
	// used to derive a bounding box: outer slice is OR, inner slice is AND.
	BoundingPlanes() [][]Plane
	// InputString renders the surface back to deck card syntax.
	InputString(name string) string
	// DeepClone returns an independent copy carrying a new name.
	DeepClone(newName string) Surface
}

// Plane is both a first-class surface primitive and the common currency of
// BoundingPlanes -- a bounding plane never has a registry id of its own;
// its name stays empty when used in that role.
type Plane struct {
	Normal   vecmat.Vec
	Distance float64 // the plane is the locus Normal·x == Distance
	Reversed bool
}

// TypeName implements Surface.
func (p Plane) TypeName() string { return "p" }

// IsForward implements Surface: sign(n.x - d) >= 0 is forward, equality
// included; Reversed flips the sense, same as every other primitive's dual.
func (p Plane) IsForward(pt vecmat.Point) bool {
	f := p.signedDistance(pt) >= -smallZero
	if p.Reversed {
		return !f
	}
	return f
}

// smallZero absorbs floating noise around the "on the surface" boundary so
// that IsForward's equality-breaks-to-forward rule is robust.
const smallZero = 1e-12

func (p Plane) signedDistance(pt vecmat.Point) float64 {
	return p.Normal.Dot(pt.ToVec()) - p.Distance
}

// Intersect implements Surface: solve n.(p+td) = d for t.
func (p Plane) Intersect(r vecmat.Ray) vecmat.Point {
	denom := p.Normal.Dot(r.D)
	if denom == 0 {
		return vecmat.Invalid
	}
	t := (p.Distance - p.Normal.Dot(r.P.ToVec())) / denom
	if t <= vecmat.Delta {
		return vecmat.Invalid
	}
	return r.At(t)
}

// Transform implements Surface.
func (p Plane) Transform(m vecmat.Mat4) Surface {
	if m.IsZero() {
		return p
	}
	n2 := m.ApplyVec(p.Normal)
	onPlane := p.Normal.Scale(p.Distance).ToPoint()
	onPlane2 := m.ApplyPoint(onPlane)
	nn := n2.Normalized()
	return Plane{Normal: nn, Distance: nn.Dot(onPlane2.ToVec()), Reversed: p.Reversed}
}

// BoundingPlanes implements Surface: a plane's own bounding region is
// itself, a single AND-conjunction of one plane, OR'd with nothing else;
// the dual's forward half-space is the negated plane, same convention
// IsForward uses.
func (p Plane) BoundingPlanes() [][]Plane {
	if p.Reversed {
		return [][]Plane{{Plane{Normal: p.Normal.Scale(-1), Distance: -p.Distance}}}
	}
	return [][]Plane{{p}}
}

// InputString implements Surface.
func (p Plane) InputString(name string) string {
	return formatCard(name, "p", []float64{p.Normal.X, p.Normal.Y, p.Normal.Z, p.Distance})
}

// DeepClone implements Surface.
func (p Plane) DeepClone(string) Surface { return p }

func formatCard(name, mnemonic string, params []float64) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString(" ")
	b.WriteString(mnemonic)
	for _, v := range params {
		b.WriteString(" ")
		b.WriteString(formatFloat(v))
	}
	return b.String()
}

func formatFloat(v float64) string {
	return trimTrailingZeros(v)
}

// IDCounter is a per-registry monotonic counter for surface ids, guarded
// by an atomic rather than a mutex-protected global (DESIGN NOTES 9: "an
// atomic counter behind a registry handle; tests obtain a fresh handle
// rather than resetting a global").
type IDCounter struct {
	next atomic.Int64
}

// NewIDCounter returns a fresh counter starting at 1, the initID() test
// hook reborn as an independent value instead of mutable global state.
func NewIDCounter() *IDCounter {
	c := &IDCounter{}
	c.next.Store(1)
	return c
}

// Next returns the next positive id and advances the counter.
func (c *IDCounter) Next() int {
	return int(c.next.Add(1)) - 1
}
