// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package invariants exposes assertions that are only checked in builds with
// the "invariants" or "race" build tags.
package invariants

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// SafeSub returns a - b. If a < b, it panics in invariant builds and returns 0
// in non-invariant builds.
func SafeSub[T ~uint | ~uint32 | ~uint64](a, b T) T {
	if a < b {
		if Enabled {
			panic(errors.AssertionFailedf("underflow: %d - %d", a, b))
		}
		return 0
	}
	return a - b
}

// CheckLen panics in invariant builds if a buffer changed length. Redaction
// rewrites bytes in place and must never resize its output.
func CheckLen(what string, got, want int) {
	if Enabled && got != want {
		panic(fmt.Sprintf("%s: length changed from %d to %d", what, want, got))
	}
}
