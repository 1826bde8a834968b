// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scrub

import (
	"cmp"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/ptrscrub/internal/base"
	"github.com/cockroachdb/ptrscrub/internal/invariants"
	"github.com/cockroachdb/ptrscrub/minidump"
	"github.com/cockroachdb/redact"
	"golang.org/x/sync/errgroup"
)

// Input is the decoded content of a dump that a scrub run needs.
type Input struct {
	PointerWidth PointerWidth
	Modules      []ModuleRecord
	Threads      []ThreadStack
	// Regions are the captured memory regions, in memory list order.
	Regions []Region
}

// InputFromDump extracts the Input of a scrub run from a parsed minidump.
// A missing SystemInfo, ModuleList, ThreadList or MemoryList stream yields an
// error marked ErrMissingStream.
func InputFromDump(d *minidump.Dump) (Input, error) {
	var in Input
	si, err := d.SystemInfo()
	if err != nil {
		return Input{}, streamErr(err)
	}
	w, ok := si.Arch.PointerWidth()
	if !ok {
		return Input{}, errors.Mark(
			errors.Newf("ptrscrub: cpu architecture %s", redact.Safe(si.Arch.String())), ErrUnknownArch)
	}
	in.PointerWidth = PointerWidth(w)

	mods, err := d.Modules()
	if err != nil {
		return Input{}, streamErr(err)
	}
	in.Modules = make([]ModuleRecord, len(mods))
	for i, m := range mods {
		in.Modules[i] = ModuleRecord{Name: m.Name, Base: m.Base, Size: uint64(m.Size)}
	}

	threads, err := d.Threads()
	if err != nil {
		return Input{}, streamErr(err)
	}
	in.Threads = make([]ThreadStack, len(threads))
	for i, t := range threads {
		in.Threads[i] = ThreadStack{
			ThreadID: t.ID,
			Stack:    Region{RVA: t.Stack.Memory.RVA, Size: t.Stack.Memory.DataSize},
		}
	}

	mem, err := d.MemoryList()
	if err != nil {
		return Input{}, streamErr(err)
	}
	in.Regions = make([]Region, len(mem))
	for i, m := range mem {
		in.Regions[i] = Region{RVA: m.Memory.RVA, Size: m.Memory.DataSize}
	}
	return in, nil
}

func streamErr(err error) error {
	if errors.Is(err, minidump.ErrStreamNotFound) {
		return errors.Mark(err, ErrMissingStream)
	}
	return err
}

// Options configures a scrub run.
type Options struct {
	// Policy decides which modules are trusted. Defaults to
	// DefaultTrustPolicy().
	Policy *TrustPolicy

	// Concurrency is the maximum number of regions scanned in parallel.
	// Regions are only scanned in parallel if no two of them overlap. Values
	// below 2 scan sequentially.
	Concurrency int

	// Logger receives progress messages. Defaults to base.DefaultLogger.
	Logger base.Logger

	// Metrics, if set, is updated at the end of each run.
	Metrics *Metrics
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified. Returns the new options.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.Policy == nil {
		o.Policy = DefaultTrustPolicy()
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.Logger == nil {
		o.Logger = base.DefaultLogger{}
	}
	return o
}

// Run scrubs src, the raw bytes of the dump described by in, and returns the
// scrubbed copy. src is not modified.
//
// Run fails, returning no output, if a module is untrusted
// (ErrUntrustedModule), if a thread stack is not a captured region or a
// region lies outside src (ErrInconsistentDump), or if a module's range wraps
// (ErrMalformedModuleData). These checks all happen before the output buffer
// is allocated.
func Run(in Input, src []byte, opts *Options) (_ []byte, _ Stats, err error) {
	opts = opts.EnsureDefaults()
	defer func() { opts.Metrics.recordOutcome(err) }()

	if !in.PointerWidth.Valid() {
		return nil, Stats{}, errors.Mark(
			errors.Newf("ptrscrub: pointer width %d", redact.Safe(int(in.PointerWidth))), ErrUnknownArch)
	}
	if err := opts.Policy.Check(in.Modules); err != nil {
		return nil, Stats{}, err
	}
	if err := VerifyStacks(in.Threads, in.Regions); err != nil {
		return nil, Stats{}, err
	}
	if err := VerifyRegions(in.Regions, len(src)); err != nil {
		return nil, Stats{}, err
	}
	idx, err := BuildIndex(in.Modules)
	if err != nil {
		return nil, Stats{}, err
	}

	sw := base.StartStopwatch()
	out := slices.Clone(src)
	if out == nil {
		out = []byte{}
	}
	results := redactRegions(out, in, idx, opts)
	invariants.CheckLen("scrub output", len(out), len(src))

	stats := Summarize(results, uint64(len(out)))
	opts.Metrics.recordRegions(results)
	opts.Logger.Infof("%s in %s", stats, sw.Elapsed())
	return out, stats, nil
}

func redactRegions(out []byte, in Input, idx *AddressIndex, opts *Options) []RegionResult {
	results := make([]RegionResult, len(in.Regions))
	for i, r := range in.Regions {
		results[i] = RegionResult{Region: r, Considered: uint64(r.Size)}
	}
	if opts.Concurrency > 1 && len(in.Regions) > 1 {
		if disjoint(in.Regions) {
			// Each goroutine writes only to its own region of out.
			var g errgroup.Group
			g.SetLimit(opts.Concurrency)
			for i := range in.Regions {
				g.Go(func() error {
					results[i].Zeroed = RedactRegion(out, in.Regions[i], in.PointerWidth, idx)
					return nil
				})
			}
			_ = g.Wait()
			return results
		}
		opts.Logger.Infof("memory regions overlap; scanning %d regions sequentially", redact.Safe(len(in.Regions)))
	}
	for i, r := range in.Regions {
		results[i].Zeroed = RedactRegion(out, r, in.PointerWidth, idx)
	}
	return results
}

// disjoint returns true if no two regions share a byte.
func disjoint(regions []Region) bool {
	sorted := slices.Clone(regions)
	slices.SortFunc(sorted, func(a, b Region) int {
		return cmp.Compare(a.RVA, b.RVA)
	})
	var end uint64
	for _, r := range sorted {
		if r.Size == 0 {
			continue
		}
		if uint64(r.RVA) < end {
			return false
		}
		end = r.End()
	}
	return true
}
