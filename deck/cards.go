// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package deck implements the cell-creator pipeline: parsing free-format
// surface/cell/transform cards, resolving complement and like-but
// dependencies, applying TRCL transforms, expanding lattices, filling
// universes, and instantiating the final cell set against a shared
// surface registry.
package deck

import (
	"strings"

	"github.com/cpmech/csgeom/vecmat"
)

// SourceLoc attaches a file/line origin to a parse or construction error,
// the way every deck-layer error is expected to carry one.
type SourceLoc struct {
	File string
	Line int
}

// SurfaceCard is a raw parsed surface card: name, mnemonic, numeric
// parameters, and optional transform/stl clauses.
type SurfaceCard struct {
	Name      string
	Mnemonic  string
	Params    []float64
	Transform string // a *TRn reference or inline transform clause, empty if none
	STLPath   string // set from an stl= clause, empty if none
	Loc       SourceLoc
}

// CellCard is a raw parsed cell card prior to dependency resolution.
type CellCard struct {
	Name       string
	Material   string
	Density    float64
	Equation   string // raw, name-based logical expression text
	LikeBase   string // non-empty for "like N but ..." cards
	LikeButs   map[string]string
	Universe   string // u=
	TRCL       string // trcl=
	Fill       string // fill=
	Lat        int    // lat=1/2/3, 0 = not a lattice cell
	BB         *[6]float64
	Importance float64
	Extra      map[string]string // imp, vol, nonu, pwt, particle-suffixed forms, passed through opaquely
	Loc        SourceLoc
}

// TransformCard is a *TRn card: 12 numbers, 9 rotation + 3 translation
// (order per card convention) plus whether angles are in degrees.
type TransformCard struct {
	Name    string
	Numbers [12]float64
	Degrees bool
}

// ToMat4 builds the affine transform this card describes: the first nine
// numbers are the row-major rotation block, the last three the
// translation -- the layout this engine's cards always use, leaving
// degree/radian handling to the caller since TR cards carry raw matrix
// entries, not angles, despite the Degrees flag existing for
// angle-bearing cards elsewhere in the deck grammar.
func (c TransformCard) ToMat4() vecmat.Mat4 {
	var rot [9]float64
	copy(rot[:], c.Numbers[:9])
	t := vecmat.Vec{X: c.Numbers[9], Y: c.Numbers[10], Z: c.Numbers[11]}
	return vecmat.FromRotationTranslation(rot, t)
}

// references returns the set of cell names this card's equation or
// like-but clause depends on: `#name` complement tokens and the like-but
// base cell.
func (c CellCard) references() []string {
	var refs []string
	if c.LikeBase != "" {
		refs = append(refs, c.LikeBase)
	}
	fields := strings.Fields(c.Equation)
	for _, f := range fields {
		f = strings.Trim(f, "()")
		if strings.HasPrefix(f, "#") && !strings.HasPrefix(f, "#(") {
			// bare #name is a cell complement; #(...) is a surface-complement
			// expression handled entirely within logexpr, not a cell reference.
			refs = append(refs, strings.TrimPrefix(f, "#"))
		}
	}
	return refs
}

func (c CellCard) hasDependency() bool {
	return c.LikeBase != "" || len(c.references()) > 0
}
