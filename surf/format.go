// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surf

import "strconv"

// trimTrailingZeros renders v the way deck cards read best: as an integer
// when exact, otherwise with the shortest round-tripping decimal form.
func trimTrailingZeros(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
