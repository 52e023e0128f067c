// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deck

import (
	"strings"

	"github.com/cpmech/csgeom/surf"
	"github.com/cpmech/csgeom/vecmat"
	"github.com/cpmech/gosl/chk"
)

// RegisterSurfaces builds the primitive for each surface card and installs
// it in the registry, applying the card's referenced transform (if any)
// before registration.
func (c *Creator) RegisterSurfaces() error {
	for name, sc := range c.Surfaces {
		s, err := buildSurface(sc)
		if err != nil {
			return err
		}
		if sc.Transform != "" {
			tc, ok := c.Transforms[strings.TrimPrefix(sc.Transform, "*")]
			if !ok {
				return chk.Err("InvalidTransform: %s:%d: surface %q references unknown transform %q", sc.Loc.File, sc.Loc.Line, name, sc.Transform)
			}
			s = s.Transform(tc.ToMat4())
		}
		c.Registry.Register(name, s, 0)
	}
	return nil
}

// buildSurface constructs the primitive named by sc.Mnemonic from sc.Params,
// one branch per supported mnemonic family.
func buildSurface(sc SurfaceCard) (surf.Surface, error) {
	p := sc.Params
	need := func(n int) error {
		if len(p) < n {
			return chk.Err("InvalidSurface: %s:%d: surface %q (%s) needs %d parameters, got %d", sc.Loc.File, sc.Loc.Line, sc.Name, sc.Mnemonic, n, len(p))
		}
		return nil
	}
	switch sc.Mnemonic {
	case "p":
		if err := need(4); err != nil {
			return nil, err
		}
		n := vecmat.Vec{X: p[0], Y: p[1], Z: p[2]}
		return surf.Plane{Normal: n.Normalized(), Distance: p[3] / n.Norm()}, nil
	case "px":
		if err := need(1); err != nil {
			return nil, err
		}
		return surf.Plane{Normal: vecmat.Vec{X: 1}, Distance: p[0]}, nil
	case "py":
		if err := need(1); err != nil {
			return nil, err
		}
		return surf.Plane{Normal: vecmat.Vec{Y: 1}, Distance: p[0]}, nil
	case "pz":
		if err := need(1); err != nil {
			return nil, err
		}
		return surf.Plane{Normal: vecmat.Vec{Z: 1}, Distance: p[0]}, nil
	case "s", "sph":
		if err := need(4); err != nil {
			return nil, err
		}
		return surf.NewSphere(vecmat.Point{X: p[0], Y: p[1], Z: p[2]}, p[3])
	case "cx":
		if err := need(1); err != nil {
			return nil, err
		}
		return surf.NewCylinder(vecmat.Point{}, vecmat.Vec{X: 1}, p[0])
	case "cy":
		if err := need(1); err != nil {
			return nil, err
		}
		return surf.NewCylinder(vecmat.Point{}, vecmat.Vec{Y: 1}, p[0])
	case "cz":
		if err := need(1); err != nil {
			return nil, err
		}
		return surf.NewCylinder(vecmat.Point{}, vecmat.Vec{Z: 1}, p[0])
	case "c/x":
		if err := need(3); err != nil {
			return nil, err
		}
		return surf.NewCylinder(vecmat.Point{Y: p[0], Z: p[1]}, vecmat.Vec{X: 1}, p[2])
	case "c/y":
		if err := need(3); err != nil {
			return nil, err
		}
		return surf.NewCylinder(vecmat.Point{X: p[0], Z: p[1]}, vecmat.Vec{Y: 1}, p[2])
	case "c/z":
		if err := need(3); err != nil {
			return nil, err
		}
		return surf.NewCylinder(vecmat.Point{X: p[0], Y: p[1]}, vecmat.Vec{Z: 1}, p[2])
	case "kx":
		if err := need(2); err != nil {
			return nil, err
		}
		return surf.NewCone(vecmat.Point{X: p[0]}, vecmat.Vec{X: 1}, p[1], surf.ConeTwoSheet)
	case "ky":
		if err := need(2); err != nil {
			return nil, err
		}
		return surf.NewCone(vecmat.Point{Y: p[0]}, vecmat.Vec{Y: 1}, p[1], surf.ConeTwoSheet)
	case "kz":
		if err := need(2); err != nil {
			return nil, err
		}
		return surf.NewCone(vecmat.Point{Z: p[0]}, vecmat.Vec{Z: 1}, p[1], surf.ConeTwoSheet)
	case "tx":
		if err := need(6); err != nil {
			return nil, err
		}
		return surf.NewTorus(vecmat.Point{X: p[0], Y: p[1], Z: p[2]}, vecmat.Vec{X: 1}, p[3], p[4], p[5])
	case "ty":
		if err := need(6); err != nil {
			return nil, err
		}
		return surf.NewTorus(vecmat.Point{X: p[0], Y: p[1], Z: p[2]}, vecmat.Vec{Y: 1}, p[3], p[4], p[5])
	case "tz", "tor":
		if err := need(6); err != nil {
			return nil, err
		}
		return surf.NewTorus(vecmat.Point{X: p[0], Y: p[1], Z: p[2]}, vecmat.Vec{Z: 1}, p[3], p[4], p[5])
	case "gq", "sq":
		if err := need(10); err != nil {
			return nil, err
		}
		return surf.NewQuadric(p[0], p[1], p[2], p[3], p[4], p[5], p[6], p[7], p[8], p[9])
	default:
		return nil, chk.Err("InvalidSurface: %s:%d: unrecognised surface mnemonic %q on %q", sc.Loc.File, sc.Loc.Line, sc.Mnemonic, sc.Name)
	}
}
