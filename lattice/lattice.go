// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lattice expands LAT=1/2/3 cell cards into element cards: a base
// unit element derived from the listed face planes, enumerated over an
// explicit or inferred dimension declarator, each element carrying its
// index, bounding box, and trcl= translation. Element equations are not
// built here; the deck package builds them from the translated surfaces.
package lattice

import (
	"context"
	"fmt"

	"github.com/cpmech/csgeom/bbox"
	"github.com/cpmech/csgeom/surf"
	"github.com/cpmech/csgeom/vecmat"
	"github.com/cpmech/gosl/chk"
)

// Declarator is a dimension declarator: inclusive index ranges along the
// three lattice directions.
type Declarator struct {
	IMin, IMax int
	JMin, JMax int
	KMin, KMax int
}

func (d Declarator) count() int {
	return (d.IMax - d.IMin + 1) * (d.JMax - d.JMin + 1) * (d.KMax - d.KMin + 1)
}

// BaseUnitElement is the [0,0,0] lattice cell: its bounding planes (in
// mirrored pairs, one pair per lattice direction) and the per-direction
// index vector (the displacement between the positive and negative face of
// a pair), used to translate the unit element to any other index.
type BaseUnitElement struct {
	FacePairs  [][2]surf.Plane // one pair per direction, in order (i, j, [k])
	IndexVecs  []vecmat.Vec    // displacement from negative to positive face, per direction
	UnitBB     bbox.Box
}

// NewBaseUnitElement derives the base unit element from a lattice cell's
// listed face surfaces: faces must come in 2, 4, 6, or 8 planes (1 to 4
// mirrored pairs), each plane paired with its geometric opposite by
// matching (anti-parallel) normals.
func NewBaseUnitElement(faces []surf.Plane) (BaseUnitElement, error) {
	if len(faces) < 2 || len(faces)%2 != 0 || len(faces) > 8 {
		return BaseUnitElement{}, chk.Err("LatticeSpec: lattice cell needs 2, 4, 6, or 8 face planes, got %d", len(faces))
	}
	pairs, err := pairFaces(faces)
	if err != nil {
		return BaseUnitElement{}, err
	}
	base := BaseUnitElement{FacePairs: pairs}
	for _, pair := range pairs {
		base.IndexVecs = append(base.IndexVecs, indexVector(pair))
	}
	planeGroup := make([]surf.Plane, 0, len(faces))
	for _, p := range pairs {
		planeGroup = append(planeGroup, p[0], p[1])
	}
	box, err := bbox.FromPlanes(nil, [][]surf.Plane{planeGroup})
	if err != nil {
		return BaseUnitElement{}, err
	}
	base.UnitBB = box
	return base, nil
}

// pairFaces matches each plane with its anti-parallel opposite: the pair
// whose normals are negatives of one another (within tolerance).
func pairFaces(faces []surf.Plane) ([][2]surf.Plane, error) {
	used := make([]bool, len(faces))
	var pairs [][2]surf.Plane
	for i := range faces {
		if used[i] {
			continue
		}
		matched := -1
		for j := i + 1; j < len(faces); j++ {
			if used[j] {
				continue
			}
			if isAntiParallel(faces[i].Normal, faces[j].Normal) {
				matched = j
				break
			}
		}
		if matched < 0 {
			return nil, chk.Err("LatticeSpec: face %d has no mirrored opposite among the lattice's listed planes", i)
		}
		used[i] = true
		used[matched] = true
		pairs = append(pairs, [2]surf.Plane{faces[i], faces[matched]})
	}
	return pairs, nil
}

func isAntiParallel(a, b vecmat.Vec) bool {
	dot := a.X*b.X + a.Y*b.Y + a.Z*b.Z
	na := a.Norm()
	nb := b.Norm()
	if na < vecmat.Eps || nb < vecmat.Eps {
		return false
	}
	return dot/(na*nb) < -1+1e-6
}

// indexVector returns the displacement from the negative face to the
// positive face along the pair's shared normal direction, its length
// equal to the unit element's extent in that direction.
func indexVector(pair [2]surf.Plane) vecmat.Vec {
	n := pair[0].Normal.Normalized()
	extent := pair[0].Distance + pair[1].Distance
	return n.Scale(extent)
}

// Element is one enumerated lattice element: its integer index, its
// translation, and its own bounding box. Equation is left empty by this
// package's enumerators.
type Element struct {
	Index    [3]int
	Equation string // not set by RectangularElements or HexagonalElements
	TRCL     string // composed translation description for RegisterWithTransform
	BB       bbox.Box
}

// RectangularElements enumerates a LAT=1 base unit element over decl,
// translating the unit BB by i*v0 + j*v1 + k*v2 for each index triple.
func RectangularElements(base BaseUnitElement, decl Declarator) ([]Element, error) {
	if len(base.IndexVecs) == 0 {
		return nil, chk.Err("LatticeSpec: base unit element has no index vectors")
	}
	var out []Element
	for i := decl.IMin; i <= decl.IMax; i++ {
		for j := decl.JMin; j <= decl.JMax; j++ {
			kMax := decl.KMax
			kMin := decl.KMin
			if len(base.IndexVecs) < 3 {
				kMax, kMin = 0, 0
			}
			for k := kMin; k <= kMax; k++ {
				out = append(out, translatedElement(base, i, j, k))
			}
		}
	}
	return out, nil
}

func translatedElement(base BaseUnitElement, i, j, k int) Element {
	t := base.IndexVecs[0].Scale(float64(i))
	if len(base.IndexVecs) > 1 {
		t = t.Add(base.IndexVecs[1].Scale(float64(j)))
	}
	if len(base.IndexVecs) > 2 {
		t = t.Add(base.IndexVecs[2].Scale(float64(k)))
	}
	identityRot := [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	mat := vecmat.FromRotationTranslation(identityRot, t)
	return Element{
		Index: [3]int{i, j, k},
		TRCL:  fmt.Sprintf("%g %g %g", t.X, t.Y, t.Z),
		BB:    base.UnitBB.Transform(mat),
	}
}

// InferDimensionDeclarator takes, for each of the base unit's index vectors
// v, the surrounding cell's farthest intersection from origin along +v and
// along -v and turns the distances into an index range, applying a 1.31
// safety margin; absolute (-10,10) fallbacks are used only when the
// surrounding cell is nil or either farthest intersection is not found.
func InferDimensionDeclarator(ctx context.Context, surrounding interface {
	GetFarthestIntersection(vecmat.Point, vecmat.Vec) (vecmat.Point, bool)
}, base BaseUnitElement, origin vecmat.Point) Declarator {
	const safety = 1.31
	const fallback = 10

	infer := func(v vecmat.Vec) (int, int) {
		if surrounding == nil || v.Norm() < vecmat.Eps {
			return -fallback, fallback
		}
		hitPos, okPos := surrounding.GetFarthestIntersection(origin, v)
		hitNeg, okNeg := surrounding.GetFarthestIntersection(origin, v.Scale(-1))
		if !okPos || !okNeg {
			return -fallback, fallback
		}
		distPos := hitPos.Sub(origin).Norm()
		distNeg := hitNeg.Sub(origin).Norm()
		step := v.Norm()
		if step < vecmat.Eps {
			return -fallback, fallback
		}
		pos := int(distPos/step*safety) + 1
		neg := int(distNeg/step*safety) + 1
		return -neg, pos
	}

	var decl Declarator
	if len(base.IndexVecs) > 0 {
		decl.IMin, decl.IMax = infer(base.IndexVecs[0])
	}
	if len(base.IndexVecs) > 1 {
		decl.JMin, decl.JMax = infer(base.IndexVecs[1])
	}
	if len(base.IndexVecs) > 2 {
		decl.KMin, decl.KMax = infer(base.IndexVecs[2])
	}
	return decl
}
