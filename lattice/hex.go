// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lattice

import (
	"fmt"
	"sort"

	"github.com/isbang/h3go"
)

// hexLateralDigits lists the six lateral neighbour directions of a
// hexagonal prism element, in the cube/axial-coordinate order h3go uses
// for its unit vectors; the prism's two axial (top/bottom) faces are
// handled separately since h3go's IJK system is purely planar.
var hexLateralDigits = []h3go.Direction{
	h3go.K_AXES_DIGIT, h3go.J_AXES_DIGIT, h3go.JK_AXES_DIGIT,
	h3go.I_AXES_DIGIT, h3go.IK_AXES_DIGIT, h3go.IJ_AXES_DIGIT,
}

// newHexCoord builds the canonical h3go coordinate for an (i,j) lattice
// index, used only for its ToHex2d().Magnitude() radial-distance metric.
func newHexCoord(i, j, k int) h3go.CoordIJK {
	var c h3go.CoordIJK
	c.SetIJK(i, j, k)
	c.Normalize()
	return c
}

// HexagonalElements enumerates a LAT=2 base unit element (prism faces:
// six lateral faces (three mirrored pairs) or a reduced 2-face "single-layer" form, plus
// optionally a top/bottom axial pair) over decl's i/j ranges (k is the
// prism's axial direction and uses plain translation like the rectangular
// case). Elements are returned sorted by their h3go radial distance from
// the origin index so a renderer walking the slice sees rings expand
// outward, the natural visiting order for a hex-packed lattice.
func HexagonalElements(base BaseUnitElement, decl Declarator) ([]Element, error) {
	type ranked struct {
		el     Element
		radius float64
	}
	var items []ranked
	for i := decl.IMin; i <= decl.IMax; i++ {
		for j := decl.JMin; j <= decl.JMax; j++ {
			kMax, kMin := decl.KMax, decl.KMin
			if len(base.IndexVecs) < 3 {
				kMax, kMin = 0, 0
			}
			for k := kMin; k <= kMax; k++ {
				coord := newHexCoord(i, j, 0)
				el := translatedElement(base, i, j, k)
				items = append(items, ranked{el: el, radius: coord.ToHex2d().Magnitude()})
			}
		}
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].radius < items[b].radius })
	out := make([]Element, len(items))
	for idx, r := range items {
		out[idx] = r.el
	}
	return out, nil
}

// hexNeighborLabel names a lateral neighbour direction the way a
// lattice-adjacency diagnostic would report it, exercising h3go's Direction
// enum as the canonical naming for the six hex faces.
func hexNeighborLabel(digit h3go.Direction) string {
	for idx, d := range hexLateralDigits {
		if d == digit {
			return fmt.Sprintf("face%d", idx+1)
		}
	}
	return "unknown"
}
