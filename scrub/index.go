// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scrub

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"github.com/cockroachdb/ptrscrub/internal/invariants"
	"github.com/cockroachdb/redact"
)

// ModuleRecord is a loaded module: its path and its mapped address range
// [Base, Base+Size).
type ModuleRecord struct {
	Name string
	Base uint64
	Size uint64
}

// End returns Base+Size. It returns false if the sum wraps around the
// address space.
func (m ModuleRecord) End() (uint64, bool) {
	end := m.Base + m.Size
	return end, end >= m.Base
}

// Contains returns true if addr is inside the module's range.
func (m ModuleRecord) Contains(addr uint64) bool {
	return addr >= m.Base && addr-m.Base < m.Size
}

// SafeFormat implements redact.SafeFormatter. The module name is not safe.
func (m ModuleRecord) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%s [%#x, +%#x)", m.Name, redact.Safe(m.Base), redact.Safe(m.Size))
}

func (m ModuleRecord) String() string {
	return redact.StringWithoutMarkers(m)
}

// span is a half-open address range [start, end).
type span struct {
	start, end uint64
}

// AddressIndex answers whether an address falls inside any module. It is
// built once and is immutable afterwards; Contains may be called
// concurrently.
type AddressIndex struct {
	// spans are sorted, non-empty, and neither overlap nor touch.
	spans []span
	// modules are sorted by base address.
	modules []ModuleRecord
}

// BuildIndex constructs an AddressIndex from a module list. Overlapping or
// adjacent module ranges are merged. Modules of size zero cover nothing. A
// module whose range wraps around the address space fails the build with an
// error marked ErrMalformedModuleData.
func BuildIndex(mods []ModuleRecord) (*AddressIndex, error) {
	x := &AddressIndex{
		modules: slices.Clone(mods),
	}
	for _, m := range mods {
		if _, ok := m.End(); !ok {
			return nil, malformed(m)
		}
	}
	slices.SortStableFunc(x.modules, func(a, b ModuleRecord) int {
		return cmp.Compare(a.Base, b.Base)
	})

	x.spans = make([]span, 0, len(x.modules))
	for _, m := range x.modules {
		if m.Size == 0 {
			continue
		}
		end, _ := m.End()
		if n := len(x.spans); n > 0 && m.Base <= x.spans[n-1].end {
			x.spans[n-1].end = max(x.spans[n-1].end, end)
			continue
		}
		x.spans = append(x.spans, span{start: m.Base, end: end})
	}

	if invariants.Enabled {
		for i := range x.spans {
			if x.spans[i].start >= x.spans[i].end {
				panic(fmt.Sprintf("empty span %d: %#x-%#x", i, x.spans[i].start, x.spans[i].end))
			}
			if i > 0 && x.spans[i-1].end >= x.spans[i].start {
				panic(fmt.Sprintf("spans %d and %d are not disjoint", i-1, i))
			}
		}
	}
	return x, nil
}

// Contains returns true if addr falls inside the range of at least one
// module.
func (x *AddressIndex) Contains(addr uint64) bool {
	i := sort.Search(len(x.spans), func(i int) bool {
		return x.spans[i].end > addr
	})
	return i < len(x.spans) && x.spans[i].start <= addr
}

// Lookup returns the module with the lowest base address whose range
// contains addr. It is intended for diagnostics; Contains is faster.
func (x *AddressIndex) Lookup(addr uint64) (ModuleRecord, bool) {
	n := sort.Search(len(x.modules), func(i int) bool {
		return x.modules[i].Base > addr
	})
	for _, m := range x.modules[:n] {
		if m.Contains(addr) {
			return m, true
		}
	}
	return ModuleRecord{}, false
}

// Len returns the number of modules in the index.
func (x *AddressIndex) Len() int {
	return len(x.modules)
}

// Spans returns the number of disjoint address ranges after merging.
func (x *AddressIndex) Spans() int {
	return len(x.spans)
}
