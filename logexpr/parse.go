// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logexpr

import (
	"strconv"
	"strings"

	"github.com/cpmech/gosl/chk"
)

// Resolver maps a surface-name token to its signed id, for the
// string -> int resolution pass that happens once names are known.
type Resolver func(name string) (int, error)

// ParseNamed parses deck logical-expression syntax into an Expr[string],
// i.e. before surface names have been resolved to ids.
//
// Grammar: AND is whitespace/juxtaposition, OR is ':', grouping is '()',
// surface-complement is '#(...)'. A '#name' cell-complement token is not
// accepted: '#' is not a valid name character. Quoted strings protect
// names with otherwise-invalid characters.
func ParseNamed(text string) (Expr[string], error) {
	s, err := prepare(text)
	if err != nil {
		return Expr[string]{}, err
	}
	return parseOr(s)
}

// ParseIndexed parses text the same way as ParseNamed, then resolves every
// surface-name factor to its signed id via resolve -- the step a surface
// registry uses to turn a named cell equation into an indexed one.
func ParseIndexed(text string, resolve Resolver) (Expr[int], error) {
	named, err := ParseNamed(text)
	if err != nil {
		return Expr[int]{}, err
	}
	return resolveExpr(named, resolve)
}

func resolveExpr(x Expr[string], resolve Resolver) (Expr[int], error) {
	switch x.Kind {
	case Mono:
		ids := make([]int, len(x.Factors))
		for i, name := range x.Factors {
			sign := 1
			n := name
			if strings.HasPrefix(n, "-") {
				sign = -1
				n = n[1:]
			}
			id, err := resolve(n)
			if err != nil {
				return Expr[int]{}, err
			}
			ids[i] = sign * id
		}
		return NewMono(ids...), nil
	default:
		children := make([]Expr[int], len(x.Children))
		for i, c := range x.Children {
			ce, err := resolveExpr(c, resolve)
			if err != nil {
				return Expr[int]{}, err
			}
			children[i] = ce
		}
		if x.Kind == AndOf {
			return NewAnd(children...), nil
		}
		return NewOr(children...), nil
	}
}

// prepare strips redundant outer parens/whitespace, inserts implicit AND
// at operator-adjacency gaps, validates balance, and expands every
// #(...) surface-complement from the inside out.
func prepare(text string) (string, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return "", chk.Err("InvalidEquation: empty equation")
	}
	s = stripRedundantOuterParens(s)
	s, err := insertImplicitAnd(s)
	if err != nil {
		return "", err
	}
	if err := validateBalance(s); err != nil {
		return "", err
	}
	return expandComplements(s)
}

func stripRedundantOuterParens(s string) string {
	for {
		s = strings.TrimSpace(s)
		if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
			return s
		}
		depth := 0
		for i, r := range s {
			switch r {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 && i != len(s)-1 {
					return s
				}
			}
		}
		s = s[1 : len(s)-1]
	}
}

// insertImplicitAnd inserts a space (AND) wherever a ')' is immediately
// followed by something other than an operator/')'/EOF, or a '(' is
// immediately preceded by something other than an operator/'('/'#'/BOF.
func insertImplicitAnd(s string) (string, error) {
	var b strings.Builder
	isOperatorOrOpen := func(r byte) bool { return r == ':' || r == '(' || r == '#' }
	isOperatorOrClose := func(r byte) bool { return r == ':' || r == ')' }
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' {
			b.WriteByte(' ')
			continue
		}
		if c == '(' {
			// look left (in already-written output) for the previous non-space rune
			if prev := lastNonSpace(b.String()); prev != 0 && !isOperatorOrOpen(prev) {
				b.WriteByte(' ')
			}
		}
		b.WriteByte(c)
		if c == ')' {
			// look right for the next non-space rune
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
				j++
			}
			if j < len(s) && !isOperatorOrClose(s[j]) {
				b.WriteByte(' ')
			}
		}
	}
	return b.String(), nil
}

func lastNonSpace(s string) byte {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != ' ' && s[i] != '\t' {
			return s[i]
		}
	}
	return 0
}

func validateBalance(s string) error {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return chk.Err("InvalidEquation: unbalanced parentheses in %q", s)
			}
		}
	}
	if depth != 0 {
		return chk.Err("InvalidEquation: unbalanced parentheses in %q (forget braces?)", s)
	}
	return nil
}

// expandComplements repeatedly finds the innermost "#(...)" occurrence,
// recursively parses its argument, complements it, serialises the result,
// and textually substitutes -- so nested complements like "#(-2:#(1))"
// resolve from the inside out.
func expandComplements(s string) (string, error) {
	for strings.Contains(s, "#(") {
		// find innermost by scanning for the last "#(" that opens before
		// its matching ")" -- re-scanning after each substitution keeps
		// this simple and correct for the expected deck-sized equations.
		start, end, err := findInnermostComplement(s)
		if err != nil {
			return "", err
		}
		inner := s[start+2 : end]
		parsed, err := parseOr(inner)
		if err != nil {
			return "", err
		}
		complemented := parsed.Complement()
		replacement := "(" + complemented.String() + ")"
		s = s[:start] + replacement + s[end+1:]
	}
	return s, nil
}

func findInnermostComplement(s string) (start, end int, err error) {
	best := -1
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '#' && s[i+1] == '(' {
			best = i
		}
	}
	if best < 0 {
		return 0, 0, chk.Err("InvalidEquation: malformed #(...) in %q", s)
	}
	depth := 0
	for j := best + 1; j < len(s); j++ {
		switch s[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return best, j, nil
			}
		}
	}
	return 0, 0, chk.Err("InvalidEquation: runaway surface-complement with no closing paren in %q", s)
}

// parseOr splits s on OR (':') at the outermost parenthesis level.
func parseOr(s string) (Expr[string], error) {
	s = strings.TrimSpace(s)
	parts, err := splitOutermost(s, ':')
	if err != nil {
		return Expr[string]{}, err
	}
	if len(parts) == 1 {
		return parseAnd(parts[0])
	}
	children := make([]Expr[string], len(parts))
	for i, p := range parts {
		e, err := parseAnd(p)
		if err != nil {
			return Expr[string]{}, err
		}
		children[i] = e
	}
	return NewOr(children...), nil
}

// parseAnd splits s on AND (whitespace) at the outermost parenthesis
// level. A fragment with no OR anywhere becomes a plain factor list; a
// fragment containing an OR becomes a recursively-parsed sub-polynomial.
func parseAnd(s string) (Expr[string], error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Expr[string]{}, chk.Err("InvalidEquation: empty term")
	}
	fragments, err := splitOutermost(s, ' ')
	if err != nil {
		return Expr[string]{}, err
	}
	var children []Expr[string]
	var factors []string
	flush := func() error {
		if len(factors) == 0 {
			return nil
		}
		children = append(children, NewMono(factors...))
		factors = nil
		return nil
	}
	for _, frag := range fragments {
		if frag == "" {
			continue
		}
		if strings.HasPrefix(frag, "(") && strings.HasSuffix(frag, ")") {
			sub, err := parseOr(unwrapOnce(frag))
			if err != nil {
				return Expr[string]{}, err
			}
			if sub.Kind == Mono {
				factors = append(factors, sub.Factors...)
				continue
			}
			if err := flush(); err != nil {
				return Expr[string]{}, err
			}
			children = append(children, sub)
			continue
		}
		name, err := parseFactorName(frag)
		if err != nil {
			return Expr[string]{}, err
		}
		factors = append(factors, name)
	}
	if err := flush(); err != nil {
		return Expr[string]{}, err
	}
	switch len(children) {
	case 0:
		return Expr[string]{}, chk.Err("InvalidEquation: empty term in %q", s)
	case 1:
		return children[0], nil
	default:
		return NewAnd(children...), nil
	}
}

func unwrapOnce(s string) string {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		depth := 0
		for i, r := range s {
			switch r {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 && i != len(s)-1 {
					return s
				}
			}
		}
		return s[1 : len(s)-1]
	}
	return s
}

// splitOutermost splits s on sep wherever sep occurs at parenthesis depth
// zero, respecting quoted strings.
func splitOutermost(s string, sep byte) ([]string, error) {
	var parts []string
	depth := 0
	inQuote := false
	last := 0
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
			// skip
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth < 0 {
				return nil, chk.Err("InvalidEquation: unbalanced parentheses in %q", s)
			}
		case c == sep && depth == 0:
			if sep == ' ' {
				// collapse consecutive separators
				parts = append(parts, strings.TrimSpace(s[last:i]))
				for i+1 < len(s) && s[i+1] == ' ' {
					i++
				}
				last = i + 1
			} else {
				parts = append(parts, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
		i++
	}
	parts = append(parts, strings.TrimSpace(s[last:]))
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, chk.Err("InvalidEquation: empty equation after split on %q", string(sep))
	}
	return out, nil
}

// parseFactorName validates and returns a single surface-name factor,
// stripping protective quotes.
func parseFactorName(tok string) (string, error) {
	tok = strings.TrimSpace(tok)
	if strings.HasPrefix(tok, "\"") && strings.HasSuffix(tok, "\"") && len(tok) >= 2 {
		return tok[1 : len(tok)-1], nil
	}
	if tok == "" {
		return "", chk.Err("InvalidEquation: empty factor token")
	}
	sign := ""
	body := tok
	if strings.HasPrefix(body, "-") || strings.HasPrefix(body, "+") {
		if body[0] == '-' {
			sign = "-"
		}
		body = body[1:]
	}
	if body == "" {
		return "", chk.Err("InvalidEquation: malformed factor token %q", tok)
	}
	for _, r := range body {
		if !(r == '.' || r == '_' || isAlnum(r)) {
			return "", chk.Err("InvalidEquation: invalid character %q in factor %q", r, tok)
		}
	}
	return sign + body, nil
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// MustAtoi is a small helper used by callers that have already validated a
// numeric factor token (e.g. reading a pre-resolved Expr[string] of pure
// digit ids back into Expr[int] without a registry).
func MustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		chk.Panic("logexpr: %q is not a valid integer factor: %v", s, err)
	}
	return n
}
