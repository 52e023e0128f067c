// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cpmech/gosl/chk"
)

// CanonicalName strips a leading "-" sign from a surface name, returning
// the unsigned form.
func CanonicalName(name string) string {
	return strings.TrimPrefix(name, "-")
}

// ReversedName returns the dual's name for a surface name: toggling the
// leading "-" sign.
func ReversedName(name string) string {
	if strings.HasPrefix(name, "-") {
		return name[1:]
	}
	return "-" + name
}

// Registry maps signed surface ids to their owning surfaces, split into
// a front (positive id) view and a back (negative id, dual) view, plus a
// name<->id lookup table. Registering a surface always installs both
// the primary and its dual so front/back stay in lockstep.
type Registry struct {
	front map[int]Surface
	back  map[int]Surface
	byID  map[int]string
	byName map[string]int
	contactCells map[int]map[string]bool // surface id -> set of cell names touching it
	ids   *IDCounter
}

// NewRegistry returns an empty registry with its own id counter.
func NewRegistry() *Registry {
	return &Registry{
		front:        map[int]Surface{},
		back:         map[int]Surface{},
		byID:         map[int]string{},
		byName:       map[string]int{},
		contactCells: map[int]map[string]bool{},
		ids:          NewIDCounter(),
	}
}

// dualOf returns s's dual (the surface with Reversed toggled): every
// primitive except Triangle stores a Reversed bool that its IsForward/
// BoundingPlanes consult, so the dual is a shallow copy with that bit
// flipped; a Triangle has no such field and is returned unchanged.
func dualOf(s Surface) Surface {
	switch v := s.(type) {
	case Plane:
		v.Reversed = !v.Reversed
		return v
	case Sphere:
		v.Reversed = !v.Reversed
		return v
	case Cylinder:
		v.Reversed = !v.Reversed
		return v
	case Cone:
		v.Reversed = !v.Reversed
		return v
	case Torus:
		v.Reversed = !v.Reversed
		return v
	case Quadric:
		v.Reversed = !v.Reversed
		return v
	case PolyHedron:
		v.Reversed = !v.Reversed
		return v
	default:
		return s
	}
}

// Register installs surface under name, assigning it a fresh positive id
// (or id if >0 is supplied explicitly) and populating both the front
// (positive) and back (negative, dual) tables plus the name<->id map.
func (r *Registry) Register(name string, s Surface, explicitID int) int {
	id := explicitID
	if id == 0 {
		id = r.ids.Next()
	}
	r.front[id] = s
	r.back[-id] = dualOf(s)
	r.byID[id] = name
	r.byName[name] = id
	r.byName[ReversedName(name)] = -id
	return id
}

// RegisterWithTransform looks up baseName, applies transform, and
// installs the result under the derived name "<base>_<cellName>" with
// fresh ids on both sides -- the TRCL-surface derivation step.
func (r *Registry) RegisterWithTransform(baseName, cellName string, transform func(Surface) Surface) (int, error) {
	id, ok := r.byName[baseName]
	if !ok {
		return 0, chk.Err("UnresolvedReference: unknown surface name %q", baseName)
	}
	base, ok := r.front[absInt(id)]
	if !ok {
		return 0, chk.Err("UnresolvedReference: surface id %d has no front entry", id)
	}
	derived := transform(base)
	derivedName := fmt.Sprintf("%s_%s", CanonicalName(baseName), cellName)
	return r.Register(derivedName, derived, 0), nil
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Erase removes both the front and back entries for id (and its
// negation), along with their name-table entries.
func (r *Registry) Erase(id int) {
	pos, neg := absInt(id), -absInt(id)
	if name, ok := r.byID[pos]; ok {
		delete(r.byName, name)
		delete(r.byName, ReversedName(name))
	}
	delete(r.front, pos)
	delete(r.back, neg)
	delete(r.byID, pos)
	delete(r.contactCells, pos)
}

// At resolves a token that is either a bare signed integer id or a
// surface name (optionally signed) to its surface and signed id.
func (r *Registry) At(idOrName string) (Surface, int, error) {
	if id, err := strconv.Atoi(idOrName); err == nil {
		return r.surfaceForID(id), id, r.existsOrErr(id, idOrName)
	}
	id, ok := r.byName[idOrName]
	if !ok {
		return nil, 0, chk.Err("UnresolvedReference: unknown surface %q", idOrName)
	}
	return r.surfaceForID(id), id, nil
}

func (r *Registry) existsOrErr(id int, token string) error {
	if r.surfaceForID(id) == nil {
		return chk.Err("UnresolvedReference: unknown surface id %q", token)
	}
	return nil
}

func (r *Registry) surfaceForID(id int) Surface {
	if id >= 0 {
		return r.front[id]
	}
	return r.back[id]
}

// FrontSurfaces returns the positive-id (primary) view, keyed by id.
func (r *Registry) FrontSurfaces() map[int]Surface { return r.front }

// BackSurfaces returns the negative-id (dual) view, keyed by id.
func (r *Registry) BackSurfaces() map[int]Surface { return r.back }

// MakeIndexEquation substitutes every name token in text with its signed
// id, so a parsed cell equation over names can be turned into one over
// ids for fast membership tests. Numeric tokens already present in text
// pass straight through; where a user-supplied numeric name collides
// with an auto-assigned id, the name table takes precedence.
func (r *Registry) MakeIndexEquation(text string) (string, error) {
	fields := strings.Fields(text)
	for i, f := range fields {
		if f == "(" || f == ")" || f == ":" {
			continue
		}
		trimmed := strings.Trim(f, "()")
		if id, ok := r.byName[trimmed]; ok {
			fields[i] = strings.ReplaceAll(f, trimmed, strconv.Itoa(id))
		} else if _, err := strconv.Atoi(trimmed); err != nil {
			return "", chk.Err("UnresolvedReference: unknown surface name %q", trimmed)
		}
	}
	return strings.Join(fields, " "), nil
}

// MarkContact records that cellName's equation refers to surface id,
// feeding RemoveUnused's liveness check.
func (r *Registry) MarkContact(id int, cellName string) {
	pos := absInt(id)
	if r.contactCells[pos] == nil {
		r.contactCells[pos] = map[string]bool{}
	}
	r.contactCells[pos][cellName] = true
}

// RemoveUnused drops every surface whose contact-cell set is empty after
// cell construction. warn, when non-nil, is called once per dropped
// surface whose name contains no '_' (TRCL-derived names contain '_', so
// they never warn; a user-authored name containing '_' does not warn
// either).
func (r *Registry) RemoveUnused(warn func(name string)) {
	for id, name := range r.byID {
		if len(r.contactCells[id]) > 0 {
			continue
		}
		if warn != nil && !strings.Contains(name, "_") {
			warn(name)
		}
		r.Erase(id)
	}
}
