// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scrub

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// PointerWidth is the size in bytes of a native pointer in the dumped
// process: 4 or 8.
type PointerWidth int

const (
	// PointerWidth32 is the pointer width of 32-bit targets.
	PointerWidth32 PointerWidth = 4
	// PointerWidth64 is the pointer width of 64-bit targets.
	PointerWidth64 PointerWidth = 8
)

// Valid returns true if w is 4 or 8.
func (w PointerWidth) Valid() bool {
	return w == PointerWidth32 || w == PointerWidth64
}

// Load decodes the little-endian value of the window b, which must be at
// least w bytes long.
func (w PointerWidth) Load(b []byte) uint64 {
	if w == PointerWidth64 {
		return binary.LittleEndian.Uint64(b)
	}
	return uint64(binary.LittleEndian.Uint32(b))
}

// RedactRegion zeroes every aligned pointer-width window of the region r of
// out whose value is not inside a module known to idx, and returns the
// number of bytes zeroed. Windows are aligned relative to r.RVA. If r.Size is
// not a multiple of w, the trailing bytes are left untouched: a partial
// window cannot hold a pointer.
//
// The region must lie within out (see VerifyRegions). Only bytes inside the
// region are read or written.
func RedactRegion(out []byte, r Region, w PointerWidth, idx *AddressIndex) uint64 {
	if !w.Valid() {
		panic(errors.AssertionFailedf("invalid pointer width %d", redact.Safe(int(w))))
	}
	data := out[r.RVA:r.End()]
	stride := int(w)
	n := len(data) - len(data)%stride
	var zeroed uint64
	for i := 0; i < n; i += stride {
		window := data[i : i+stride]
		if !idx.Contains(w.Load(window)) {
			clear(window)
			zeroed += uint64(stride)
		}
	}
	return zeroed
}
