// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scrub

import (
	"fmt"

	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/ptrscrub/internal/invariants"
	"github.com/cockroachdb/redact"
)

// RegionResult is the outcome of scanning one region.
type RegionResult struct {
	Region Region
	// Considered is the number of bytes in the region.
	Considered uint64
	// Zeroed is the number of bytes overwritten with zeros.
	Zeroed uint64
}

// Stats summarizes a scrub run.
type Stats struct {
	// Regions is the number of regions scanned.
	Regions int
	// BytesConsidered is the total size of all regions.
	BytesConsidered uint64
	// BytesZeroed is the number of bytes overwritten with zeros.
	BytesZeroed uint64
	// TotalOutputLen is the length of the output, which is also the length of
	// the input.
	TotalOutputLen uint64
}

// Summarize aggregates per-region results.
func Summarize(results []RegionResult, outputLen uint64) Stats {
	s := Stats{
		Regions:        len(results),
		TotalOutputLen: outputLen,
	}
	for _, r := range results {
		s.BytesConsidered += r.Considered
		s.BytesZeroed += r.Zeroed
	}
	return s
}

// BytesKept returns the number of considered bytes that were not zeroed.
func (s Stats) BytesKept() uint64 {
	return invariants.SafeSub(s.BytesConsidered, s.BytesZeroed)
}

func (s Stats) percentOfOutput(n uint64) float64 {
	if s.TotalOutputLen == 0 {
		return 0
	}
	return float64(n) * 100 / float64(s.TotalOutputLen)
}

// ConsideredPercent returns BytesConsidered as a percentage of the output
// length.
func (s Stats) ConsideredPercent() float64 {
	return s.percentOfOutput(s.BytesConsidered)
}

// KeptPercent returns BytesKept as a percentage of the output length.
func (s Stats) KeptPercent() float64 {
	return s.percentOfOutput(s.BytesKept())
}

// SafeFormat implements redact.SafeFormatter.
func (s Stats) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%d (%s%%) bytes considered, %s%% bytes kept",
		redact.Safe(s.BytesConsidered),
		redact.Safe(fmt.Sprintf("%.1f", s.ConsideredPercent())),
		redact.Safe(fmt.Sprintf("%.1f", s.KeptPercent())))
}

func (s Stats) String() string {
	return redact.StringWithoutMarkers(s)
}

// Humanized returns a short description using human-readable sizes.
func (s Stats) Humanized() string {
	return fmt.Sprintf("%d regions, %s considered of %s, %s zeroed (%s of considered)",
		s.Regions,
		crhumanize.Bytes(s.BytesConsidered, crhumanize.Compact, crhumanize.OmitI),
		crhumanize.Bytes(s.TotalOutputLen, crhumanize.Compact, crhumanize.OmitI),
		crhumanize.Bytes(s.BytesZeroed, crhumanize.Compact, crhumanize.OmitI),
		crhumanize.Percent(s.BytesZeroed, s.BytesConsidered))
}
