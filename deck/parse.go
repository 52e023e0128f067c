// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deck

import (
	"strconv"
	"strings"

	"github.com/cpmech/csgeom/cell"
	"github.com/cpmech/csgeom/logexpr"
	"github.com/cpmech/gosl/chk"
)

// knownMnemonics lists the surface-card type tags this parser recognises
// in the first non-name field of a surface card.
var knownMnemonics = map[string]bool{
	"p": true, "px": true, "py": true, "pz": true,
	"s": true, "sph": true,
	"c/x": true, "c/y": true, "c/z": true, "cx": true, "cy": true, "cz": true,
	"k/x": true, "k/y": true, "k/z": true, "kx": true, "ky": true, "kz": true,
	"tor": true, "tx": true, "ty": true, "tz": true,
	"gq": true, "sq": true,
	"tri": true, "poly": true,
}

// ParseCards splits raw deck text into lines, classifies each non-blank,
// non-comment line as a surface, cell, or transform card, and populates
// the creator's raw card maps. Lines are free-format: leading/trailing
// whitespace and blank lines are ignored, "c " or "$" starts a
// line/trailing comment (MCNP convention), and a line ending in "&"
// continues onto the next physical line.
func ParseCards(file, text string) (*Creator, error) {
	c := &Creator{
		Surfaces:      map[string]SurfaceCard{},
		Transforms:    map[string]TransformCard{},
		Cells:         map[string]CellCard{},
		resolvedEq:    map[string]logexpr.Expr[string]{},
		resolvedCards: map[string]CellCard{},
		Instantiated:  map[string]*cell.Cell{},
	}
	lines := joinContinuations(stripComments(strings.Split(text, "\n")))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		loc := SourceLoc{File: file, Line: i + 1}
		fields := strings.Fields(line)
		switch {
		case strings.HasPrefix(strings.ToUpper(fields[0]), "*TR"), strings.HasPrefix(strings.ToUpper(fields[0]), "TR"):
			tc, err := parseTransformCard(fields, loc)
			if err != nil {
				return nil, err
			}
			c.Transforms[tc.Name] = tc
		case len(fields) >= 2 && knownMnemonics[strings.ToLower(fields[1])]:
			sc, err := parseSurfaceCard(fields, loc)
			if err != nil {
				return nil, err
			}
			c.Surfaces[sc.Name] = sc
		default:
			cc, err := parseCellCard(fields, loc)
			if err != nil {
				return nil, err
			}
			c.Cells[cc.Name] = cc
		}
	}
	return c, nil
}

// stripComments drops a trailing "$"-introduced comment from each line and
// discards lines whose first non-space character starts a full-line
// comment ("c " / "C ").
func stripComments(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			out = append(out, "")
			continue
		}
		if len(trimmed) >= 2 && (trimmed[0] == 'c' || trimmed[0] == 'C') && trimmed[1] == ' ' {
			out = append(out, "")
			continue
		}
		if idx := strings.Index(l, "$"); idx >= 0 {
			l = l[:idx]
		}
		out = append(out, l)
	}
	return out
}

// joinContinuations merges a line ending in "&" with the line that follows.
func joinContinuations(lines []string) []string {
	out := make([]string, 0, len(lines))
	acc := ""
	for _, l := range lines {
		trimmed := strings.TrimRight(l, " \t")
		if strings.HasSuffix(trimmed, "&") {
			acc += strings.TrimSuffix(trimmed, "&") + " "
			continue
		}
		out = append(out, acc+l)
		acc = ""
	}
	if acc != "" {
		out = append(out, acc)
	}
	return out
}

func parseTransformCard(fields []string, loc SourceLoc) (TransformCard, error) {
	name := fields[0]
	degrees := strings.HasPrefix(name, "*")
	name = strings.TrimPrefix(name, "*")
	var tc TransformCard
	tc.Name = name
	tc.Degrees = degrees
	nums := fields[1:]
	if len(nums) < 12 {
		return tc, chk.Err("InvalidTransform: %s:%d: transform card %q needs 12 numbers, got %d", loc.File, loc.Line, name, len(nums))
	}
	for i := 0; i < 12; i++ {
		v, err := strconv.ParseFloat(nums[i], 64)
		if err != nil {
			return tc, chk.Err("InvalidTransform: %s:%d: bad number %q in transform card %q", loc.File, loc.Line, nums[i], name)
		}
		tc.Numbers[i] = v
	}
	return tc, nil
}

func parseSurfaceCard(fields []string, loc SourceLoc) (SurfaceCard, error) {
	sc := SurfaceCard{Name: fields[0], Mnemonic: strings.ToLower(fields[1]), Loc: loc}
	for _, f := range fields[2:] {
		if key, val, ok := splitKeyValue(f); ok {
			switch key {
			case "trsf", "trcl":
				sc.Transform = val
			case "stl":
				sc.STLPath = val
			}
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return sc, chk.Err("InvalidSurface: %s:%d: bad parameter %q on surface %q", loc.File, loc.Line, f, sc.Name)
		}
		sc.Params = append(sc.Params, v)
	}
	return sc, nil
}

// splitKeyValue recognises "key=value" and the optional-"=" form
// "keyvalue" only for the fixed prefixes trsf, trcl and stl; it is used
// only where that key vocabulary applies (surface cards' trsf/trcl/stl
// clauses).
func splitKeyValue(f string) (key, val string, ok bool) {
	if idx := strings.IndexByte(f, '='); idx >= 0 {
		return strings.ToLower(f[:idx]), f[idx+1:], true
	}
	for _, k := range []string{"trsf", "trcl", "stl"} {
		if strings.HasPrefix(strings.ToLower(f), k) && len(f) > len(k) {
			return k, f[len(k):], true
		}
	}
	return "", "", false
}

// cellKeys are the recognised per-cell key tokens (§3a), each optionally
// followed by "=" before its value, or immediately by it.
var cellKeys = []string{
	"u", "trcl", "fill", "lat", "tsfac", "tfile", "bb", "mat", "rho",
	"imp", "vol", "nonu", "pwt",
}

// parseCellCard parses "<name> <material> <density> <equation...> [like
// <base> but k=v ...] [key=value ...]", where the equation runs from the
// third field up to the first recognised key token or a "like" clause.
func parseCellCard(fields []string, loc SourceLoc) (CellCard, error) {
	if len(fields) < 3 {
		return CellCard{}, chk.Err("InvalidCell: %s:%d: cell card needs at least name, material, density", loc.File, loc.Line)
	}
	cc := CellCard{Name: fields[0], Material: fields[1], Loc: loc, Extra: map[string]string{}, LikeButs: map[string]string{}}
	density, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return cc, chk.Err("InvalidCell: %s:%d: bad density %q on cell %q", loc.File, loc.Line, fields[2], cc.Name)
	}
	cc.Density = density
	cc.Importance = 1

	rest := fields[3:]
	if likeIdx := findLike(rest); likeIdx >= 0 {
		if likeIdx+2 >= len(rest) || strings.ToLower(rest[likeIdx+2]) != "but" {
			return cc, chk.Err("InvalidCell: %s:%d: malformed \"like N but\" clause on cell %q", loc.File, loc.Line, cc.Name)
		}
		cc.LikeBase = rest[likeIdx+1]
		for _, kv := range rest[likeIdx+3:] {
			key, val, ok := splitCellKeyValue(kv)
			if !ok {
				continue
			}
			cc.LikeButs[key] = val
		}
		return cc, nil
	}

	eqEnd := len(rest)
	for i, f := range rest {
		if key, _, ok := splitCellKeyValue(f); ok && isCellKey(key) {
			eqEnd = i
			break
		}
	}
	cc.Equation = strings.Join(rest[:eqEnd], " ")
	if err := applyCellKeys(&cc, rest[eqEnd:], loc); err != nil {
		return cc, err
	}
	return cc, nil
}

func findLike(fields []string) int {
	for i, f := range fields {
		if strings.ToLower(f) == "like" {
			return i
		}
	}
	return -1
}

func isCellKey(key string) bool {
	base := strings.SplitN(key, ":", 2)[0]
	for _, k := range cellKeys {
		if k == base {
			return true
		}
	}
	return false
}

func splitCellKeyValue(f string) (key, val string, ok bool) {
	if idx := strings.IndexByte(f, '='); idx >= 0 {
		return strings.ToLower(f[:idx]), f[idx+1:], true
	}
	for _, k := range cellKeys {
		lower := strings.ToLower(f)
		if strings.HasPrefix(lower, k) && len(f) > len(k) {
			return k, f[len(k):], true
		}
	}
	return "", "", false
}

func applyCellKeys(cc *CellCard, fields []string, loc SourceLoc) error {
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		key, val, ok := splitCellKeyValue(f)
		if !ok {
			continue
		}
		base := strings.SplitN(key, ":", 2)[0]
		switch base {
		case "u":
			cc.Universe = val
		case "trcl":
			cc.TRCL = val
		case "fill":
			// a fill value may span several fields (a dimension declarator
			// followed by universe names); it runs up to the next cell key
			for i+1 < len(fields) {
				if k, _, ok := splitCellKeyValue(fields[i+1]); ok && isCellKey(k) {
					break
				}
				i++
				val += " " + fields[i]
			}
			cc.Fill = val
		case "lat":
			n, err := strconv.Atoi(val)
			if err != nil {
				return chk.Err("InvalidCell: %s:%d: bad lat= value %q on cell %q", loc.File, loc.Line, val, cc.Name)
			}
			cc.Lat = n
		case "bb":
			bb, err := parseBB(val, loc, cc.Name)
			if err != nil {
				return err
			}
			cc.BB = bb
		case "imp":
			v, err := strconv.ParseFloat(val, 64)
			if err == nil {
				cc.Importance = v
			}
			cc.Extra[key] = val
		default:
			cc.Extra[key] = val
		}
	}
	return nil
}

func parseBB(val string, loc SourceLoc, name string) (*[6]float64, error) {
	parts := strings.Split(val, ",")
	if len(parts) != 6 {
		return nil, chk.Err("InvalidCell: %s:%d: bb= needs 6 comma-separated numbers on cell %q", loc.File, loc.Line, name)
	}
	var bb [6]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, chk.Err("InvalidCell: %s:%d: bad bb= component %q on cell %q", loc.File, loc.Line, p, name)
		}
		bb[i] = v
	}
	return &bb, nil
}
