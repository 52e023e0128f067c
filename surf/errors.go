// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surf

import "github.com/cpmech/gosl/chk"

// invalidSurface builds an InvalidSurface-kind error: bad parameter counts
// or geometric impossibilities at construction time.
func invalidSurface(format string, args ...interface{}) error {
	return chk.Err("InvalidSurface: "+format, args...)
}
