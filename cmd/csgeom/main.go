// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/cpmech/csgeom/cell"
	"github.com/cpmech/csgeom/deck"
	"github.com/cpmech/csgeom/surf"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			chk.Verbose = true
			for i := 8; i > 3; i-- {
				chk.CallerInfo(i)
			}
			io.Pfred("ERROR: %v\n", err)
			os.Exit(1)
		}
	}()

	io.Pf("csgeom -- CSG geometry engine for Monte-Carlo radiation-transport decks\n")
	defer utl.DoProf(false)()

	flag.Parse()
	if len(flag.Args()) == 0 {
		chk.Panic("please provide a deck filename. Ex.: model.deck")
	}
	fname := flag.Arg(0)

	buf, err := io.ReadFile(fname)
	if err != nil {
		chk.Panic("cannot read deck file %q: %v", fname, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cells, err := run(ctx, fname, string(buf))
	if err != nil {
		chk.Panic("%v", err)
	}
	io.Pfgreen("instantiated %d cells\n", len(cells))
}

// run drives the full cell-creator pipeline over a deck's raw text:
// parse, register surfaces, resolve dependencies, then fill (TRCL,
// lattice expansion, instantiation, back-references, pruning).
func run(ctx context.Context, fname, text string) (map[string]*cell.Cell, error) {
	c, err := deck.ParseCards(fname, text)
	if err != nil {
		return nil, err
	}
	c.Registry = surf.NewRegistry()
	if err := c.RegisterSurfaces(); err != nil {
		return nil, err
	}
	if err := c.ResolveDependencies(); err != nil {
		return nil, err
	}
	if err := <-c.FillAsync(ctx); err != nil {
		return nil, err
	}
	return c.Instantiated, nil
}
