// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scrub

import (
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/swiss"
)

// Region describes a captured memory region by its location in the dump
// file: Size bytes starting at offset RVA.
type Region struct {
	RVA  uint32
	Size uint32
}

// End returns the file offset one past the end of the region.
func (r Region) End() uint64 {
	return uint64(r.RVA) + uint64(r.Size)
}

// SafeFormat implements redact.SafeFormatter.
func (r Region) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("(rva=%d, size=%d)", redact.Safe(r.RVA), redact.Safe(r.Size))
}

func (r Region) String() string {
	return redact.StringWithoutMarkers(r)
}

// ThreadStack is the stack region declared by a thread.
type ThreadStack struct {
	ThreadID uint32
	Stack    Region
}

// VerifyStacks checks that every thread's stack is exactly (by RVA and size)
// one of the captured regions. A stack that is not a captured region means
// the scan could miss stack memory, so the dump must not be scrubbed; the
// returned error is marked ErrInconsistentDump.
func VerifyStacks(threads []ThreadStack, regions []Region) error {
	var set swiss.Map[Region, struct{}]
	set.Init(len(regions))
	for _, r := range regions {
		set.Put(r, struct{}{})
	}
	for _, t := range threads {
		if _, ok := set.Get(t.Stack); !ok {
			return inconsistent(&InconsistentDumpError{
				ThreadID:  t.ThreadID,
				HasThread: true,
				Region:    t.Stack,
				Reason:    "stack is not in the memory list",
			})
		}
	}
	return nil
}

// VerifyRegions checks that every region lies within a buffer of length n.
// The returned error is marked ErrInconsistentDump.
func VerifyRegions(regions []Region, n int) error {
	for _, r := range regions {
		if r.End() > uint64(n) {
			return inconsistent(&InconsistentDumpError{
				Region: r,
				Reason: "region extends past the end of the dump",
			})
		}
	}
	return nil
}
