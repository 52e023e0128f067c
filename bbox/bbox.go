// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bbox derives axis-aligned bounding boxes from a surface's
// plane-conjunction/disjunction description, at three escalating levels
// of fidelity (rough, medium, detailed), and combines boxes across
// cells with AND (intersect) and OR (union-hull) operators.
package bbox

import (
	"context"
	"sync/atomic"

	"github.com/cpmech/csgeom/surf"
	"github.com/cpmech/csgeom/vecmat"
	"github.com/cpmech/gosl/chk"
)

// Box is an axis-aligned bounding box, or one of the sentinel states
// Universal (unbounded, matches everything) / Empty (matches nothing).
type Box struct {
	Min, Max vecmat.Point
	kind     boxKind
}

type boxKind int

const (
	finite boxKind = iota
	universal
	empty
)

// Universal is the box that bounds nothing specific -- the safe fallback
// returned by a timed-out or otherwise failed computation.
var Universal = Box{kind: universal}

// Empty is the box containing no points.
var Empty = Box{kind: empty}

// IsUniversal reports whether b is the Universal sentinel.
func (b Box) IsUniversal() bool { return b.kind == universal }

// IsEmpty reports whether b is the Empty sentinel.
func (b Box) IsEmpty() bool { return b.kind == empty }

func fromPoints(pts []vecmat.Point) Box {
	if len(pts) == 0 {
		return Empty
	}
	min, max := pts[0], pts[0]
	for _, p := range pts[1:] {
		min.X, max.X = minF(min.X, p.X), maxF(max.X, p.X)
		min.Y, max.Y = minF(min.Y, p.Y), maxF(max.Y, p.Y)
		min.Z, max.Z = minF(min.Z, p.Z), maxF(max.Z, p.Z)
	}
	return Box{Min: min, Max: max}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// And intersects two boxes: the component-wise overlap, or Empty if they
// do not overlap. Universal is the identity; Empty is absorbing.
func And(a, b Box) Box {
	if a.kind == empty || b.kind == empty {
		return Empty
	}
	if a.kind == universal {
		return b
	}
	if b.kind == universal {
		return a
	}
	min := vecmat.Point{X: maxF(a.Min.X, b.Min.X), Y: maxF(a.Min.Y, b.Min.Y), Z: maxF(a.Min.Z, b.Min.Z)}
	max := vecmat.Point{X: minF(a.Max.X, b.Max.X), Y: minF(a.Max.Y, b.Max.Y), Z: minF(a.Max.Z, b.Max.Z)}
	if min.X > max.X || min.Y > max.Y || min.Z > max.Z {
		return Empty
	}
	return Box{Min: min, Max: max}
}

// Or unions two boxes into their enclosing hull. Universal is absorbing;
// Empty is the identity.
func Or(a, b Box) Box {
	if a.kind == universal || b.kind == universal {
		return Universal
	}
	if a.kind == empty {
		return b
	}
	if b.kind == empty {
		return a
	}
	min := vecmat.Point{X: minF(a.Min.X, b.Min.X), Y: minF(a.Min.Y, b.Min.Y), Z: minF(a.Min.Z, b.Min.Z)}
	max := vecmat.Point{X: maxF(a.Max.X, b.Max.X), Y: maxF(a.Max.Y, b.Max.Y), Z: maxF(a.Max.Z, b.Max.Z)}
	return Box{Min: min, Max: max}
}

// Transform applies m to both corners of a finite box, re-deriving the
// axis-aligned hull of the eight transformed corners so the result stays
// axis-aligned even under rotation.
func (b Box) Transform(m vecmat.Mat4) Box {
	if b.kind != finite {
		return b
	}
	corners := []vecmat.Point{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z}, {X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z}, {X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z}, {X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z}, {X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
	for i, c := range corners {
		corners[i] = m.ApplyPoint(c)
	}
	return fromPoints(corners)
}

// RayHit reports whether the ray (p,d) intersects b (a standard
// slab test), for quick culling before a surface's exact Intersect.
func (b Box) RayHit(p vecmat.Point, d vecmat.Vec) bool {
	switch b.kind {
	case universal:
		return true
	case empty:
		return false
	}
	tmin, tmax := -vecmat.MaxExtent, vecmat.MaxExtent
	axes := [3]struct{ o, dd, lo, hi float64 }{
		{p.X, d.X, b.Min.X, b.Max.X},
		{p.Y, d.Y, b.Min.Y, b.Max.Y},
		{p.Z, d.Z, b.Min.Z, b.Max.Z},
	}
	for _, a := range axes {
		if a.dd == 0 {
			if a.o < a.lo || a.o > a.hi {
				return false
			}
			continue
		}
		t1 := (a.lo - a.o) / a.dd
		t2 := (a.hi - a.o) / a.dd
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin, tmax = maxF(tmin, t1), minF(tmax, t2)
		if tmin > tmax {
			return false
		}
	}
	return tmax >= 0
}

// Deadline is the shared trip-flag a timer goroutine sets when a
// per-cell bounding-box computation's time budget expires; every
// recursive step and plane-merge fan-out checks it and unwinds to
// Universal rather than continuing unbounded work.
type Deadline struct {
	tripped atomic.Bool
}

// NewDeadline starts a goroutine that trips d after the context's
// deadline (or when ctx is cancelled).
func NewDeadline(ctx context.Context) *Deadline {
	d := &Deadline{}
	go func() {
		<-ctx.Done()
		d.tripped.Store(true)
	}()
	return d
}

func (d *Deadline) isTripped() bool {
	if d == nil {
		return false
	}
	return d.tripped.Load()
}

// Tripped reports whether d's context deadline fired at any point during
// the computation it guards, for a caller that wants to warn once the
// computation completes rather than query mid-flight.
func (d *Deadline) Tripped() bool {
	return d.isTripped()
}

const maxPlaneProduct = 1000

// FromPlanes computes the AABB of the region described by planeVectors
// (outer slice OR, inner slice AND -- Surface.BoundingPlanes' contract):
// for each inner AND-group it solves every triple-plane intersection,
// keeps points that satisfy every plane in the group, and takes the
// bounding hull of survivors; the per-group boxes are then OR'd. It
// fails with "too many bounding planes" if any AND-group's planes (after
// merge_plane_vectors_and distribution, see MergePlaneVectorsAnd) exceed
// maxPlaneProduct, and returns Universal with no error when the deadline
// trips.
func FromPlanes(deadline *Deadline, planeVectors [][]surf.Plane) (Box, error) {
	result := Empty
	for _, group := range planeVectors {
		if deadline.isTripped() {
			return Universal, nil
		}
		if len(group) > maxPlaneProduct {
			return Box{}, chk.Err("TooManyBoundingPlanes: group has %d planes, limit %d", len(group), maxPlaneProduct)
		}
		if len(group) == 0 {
			return Universal, nil
		}
		groupBox, err := boxFromPlaneGroup(deadline, group)
		if err != nil {
			return Box{}, err
		}
		result = Or(result, groupBox)
	}
	return result, nil
}

// boxFromPlaneGroup solves every triple-plane intersection within group,
// keeps the points that lie inside (or on) every other plane in the
// group, and returns their bounding hull. A group whose planes meet in no
// such vertex (an unbounded half-space or slab) gives Universal.
func boxFromPlaneGroup(deadline *Deadline, group []surf.Plane) (Box, error) {
	var candidates []vecmat.Point
	n := len(group)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				if deadline.isTripped() {
					return Universal, nil
				}
				a := [3][3]float64{
					{group[i].Normal.X, group[i].Normal.Y, group[i].Normal.Z},
					{group[j].Normal.X, group[j].Normal.Y, group[j].Normal.Z},
					{group[k].Normal.X, group[k].Normal.Y, group[k].Normal.Z},
				}
				b := vecmat.Vec{X: group[i].Distance, Y: group[j].Distance, Z: group[k].Distance}
				p, ok := vecmat.Solve3x3(a, b)
				if !ok {
					continue
				}
				if pointSatisfiesAll(p, group) {
					candidates = append(candidates, p)
				}
			}
		}
	}
	if len(candidates) == 0 {
		return Universal, nil
	}
	return fromPoints(candidates), nil
}

func pointSatisfiesAll(p vecmat.Point, planes []surf.Plane) bool {
	for _, pl := range planes {
		if pl.Normal.Dot(p.ToVec())-pl.Distance > vecmat.Eps {
			return false
		}
	}
	return true
}

// MergePlaneVectorsAnd distributes AND across OR -- (A v B) ^ (C v D) =
// (A^C) v (A^D) v (B^C) v (B^D) -- combining two surfaces' OR-of-AND
// plane descriptions into one. limit bounds the output size;
// when the cartesian product would exceed the limit it returns ok=false
// instead of building it, the signal medium-BB mode uses to skip
// expansion and fall back to cached per-surface boxes.
func MergePlaneVectorsAnd(a, b [][]surf.Plane, limit int) (merged [][]surf.Plane, ok bool) {
	if len(a)*len(b) > limit {
		return nil, false
	}
	merged = make([][]surf.Plane, 0, len(a)*len(b))
	for _, ga := range a {
		for _, gb := range b {
			combo := make([]surf.Plane, 0, len(ga)+len(gb))
			combo = append(combo, ga...)
			combo = append(combo, gb...)
			merged = append(merged, combo)
		}
	}
	return merged, true
}

// Rough computes the per-surface-independent AABB: the intersection (And)
// of every surface's BoundingPlanes box taken in isolation, without attempting
// any cross-surface AND distribution. Cheapest and loosest tier.
func Rough(deadline *Deadline, surfaces []surf.Surface) (Box, error) {
	result := Universal
	for _, s := range surfaces {
		planes := s.BoundingPlanes()
		if planes == nil {
			continue
		}
		b, err := FromPlanes(deadline, planes)
		if err != nil {
			return Box{}, err
		}
		result = And(result, b)
	}
	return result, nil
}

const mediumMergeLimit = 64

// MediumNoMultipiece ANDs every surface's plane description pairwise via
// MergePlaneVectorsAnd, but bails out (falling back to Universal for
// that surface's contribution) the moment a merge would multiply-piece
// beyond mediumMergeLimit; merged results of up to mediumMergeLimit
// pieces are kept.
func MediumNoMultipiece(deadline *Deadline, surfaces []surf.Surface) (Box, error) {
	return mediumMerge(deadline, surfaces, mediumMergeLimit, false)
}

// MediumAcceptMultipiece is the same pairwise AND-merge but permits the
// OR-exploded multi-piece result rather than discarding it, trading cost
// for tightness.
func MediumAcceptMultipiece(deadline *Deadline, surfaces []surf.Surface) (Box, error) {
	return mediumMerge(deadline, surfaces, maxPlaneProduct, true)
}

func mediumMerge(deadline *Deadline, surfaces []surf.Surface, limit int, acceptExplosion bool) (Box, error) {
	var merged [][]surf.Plane
	for _, s := range surfaces {
		if deadline.isTripped() {
			return Universal, nil
		}
		planes := s.BoundingPlanes()
		if planes == nil {
			continue
		}
		if merged == nil {
			merged = planes
			continue
		}
		next, ok := MergePlaneVectorsAnd(merged, planes, limit)
		if !ok {
			if acceptExplosion {
				next, ok = MergePlaneVectorsAnd(merged, planes, maxPlaneProduct)
				if !ok {
					continue
				}
			} else {
				continue
			}
		}
		merged = next
	}
	if merged == nil {
		return Universal, nil
	}
	return FromPlanes(deadline, merged)
}

// Detailed fully distributes AND across every surface's OR-of-AND
// description (MergePlaneVectorsAnd with no cap beyond the absolute
// maxPlaneProduct ceiling), giving the tightest box at the highest risk
// of size explosion / timeout.
func Detailed(deadline *Deadline, surfaces []surf.Surface) (Box, error) {
	return mediumMerge(deadline, surfaces, maxPlaneProduct, true)
}
