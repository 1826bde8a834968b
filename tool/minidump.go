// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/ptrscrub/internal/base"
	"github.com/cockroachdb/ptrscrub/internal/binfmt"
	"github.com/cockroachdb/ptrscrub/minidump"
	"github.com/cockroachdb/ptrscrub/scrub"
	"github.com/cockroachdb/ptrscrub/vfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

// minidumpT implements minidump-level tools, including both configuration
// state and the commands themselves.
type minidumpT struct {
	Root    *cobra.Command
	Streams *cobra.Command
	Modules *cobra.Command
	Threads *cobra.Command
	Regions *cobra.Command
	Check   *cobra.Command
	Scrub   *cobra.Command

	opts *options

	// Trust policy flags.
	policyPath          string
	allow               []string
	caseInsensitive     bool
	normalizeSeparators bool
	dirBoundary         bool

	verbose     bool
	explain     bool
	hex         bool
	output      string
	concurrency int
	metricsFile string
}

func newMinidump(opts *options) *minidumpT {
	m := &minidumpT{
		opts: opts,
	}

	m.Root = &cobra.Command{
		Use:   "minidump",
		Short: "minidump introspection and scrubbing tools",
	}
	m.Streams = &cobra.Command{
		Use:   "streams <dump>",
		Short: "print the stream directory",
		Long: `
Print the header and every entry of the stream directory of a minidump.
`,
		Args: cobra.ExactArgs(1),
		Run:  m.runStreams,
	}
	m.Modules = &cobra.Command{
		Use:   "modules <dump>",
		Short: "print the module list",
		Long: `
Print the loaded modules of a minidump, and whether the trust policy covers
each of them.
`,
		Args: cobra.ExactArgs(1),
		Run:  m.runModules,
	}
	m.Threads = &cobra.Command{
		Use:   "threads <dump>",
		Short: "print the thread list",
		Long: `
Print the threads of a minidump, and whether each stack is one of the
captured memory regions.
`,
		Args: cobra.ExactArgs(1),
		Run:  m.runThreads,
	}
	m.Regions = &cobra.Command{
		Use:   "regions <dump>",
		Short: "print the memory list",
		Long: `
Print the captured memory regions of a minidump and the distribution of their
sizes. With --explain, print every pointer-sized window of every region along
with whether scrubbing would keep or zero it.
`,
		Args: cobra.ExactArgs(1),
		Run:  m.runRegions,
	}
	m.Check = &cobra.Command{
		Use:   "check <dump>",
		Short: "check that a minidump can be scrubbed",
		Long: `
Run the trust policy and consistency checks that precede scrubbing, without
writing any output.
`,
		Args: cobra.ExactArgs(1),
		Run:  m.runCheck,
	}
	m.Scrub = &cobra.Command{
		Use:   "scrub <dump>",
		Short: "zero pointers that do not point into a trusted module",
		Long: `
Write a copy of a minidump in which every pointer-sized window of every
captured memory region that does not hold an address inside a loaded module
is zeroed. Nothing is written if a module is not covered by the trust policy
or if a thread stack is not one of the captured regions.
`,
		Args: cobra.ExactArgs(1),
		Run:  m.runScrub,
	}

	m.Root.AddCommand(m.Streams, m.Modules, m.Threads, m.Regions, m.Check, m.Scrub)
	m.Root.PersistentFlags().BoolVarP(&m.verbose, "verbose", "v", false, "verbose output")

	for _, cmd := range []*cobra.Command{m.Modules, m.Regions, m.Check, m.Scrub} {
		cmd.Flags().StringVar(
			&m.policyPath, "policy", "", "YAML trust policy file")
		cmd.Flags().StringArrayVar(
			&m.allow, "allow", nil, "trusted module path prefix (repeatable; replaces the defaults)")
		cmd.Flags().BoolVar(
			&m.caseInsensitive, "case-insensitive", false, "match module paths without regard to case")
		cmd.Flags().BoolVar(
			&m.normalizeSeparators, "normalize-separators", false, "treat '/' and '\\' as equivalent")
		cmd.Flags().BoolVar(
			&m.dirBoundary, "dir-boundary", false, "require prefixes to end at a path separator")
	}
	m.Regions.Flags().BoolVar(
		&m.explain, "explain", false, "print the verdict for every pointer-sized window")
	m.Regions.Flags().BoolVar(
		&m.hex, "hex", false, "print a hex dump of every region")
	m.Scrub.Flags().StringVarP(
		&m.output, "output", "o", "filtered.dmp", "path of the scrubbed dump")
	m.Scrub.Flags().IntVarP(
		&m.concurrency, "concurrency", "c", 1, "number of regions scanned in parallel")
	m.Scrub.Flags().StringVar(
		&m.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")
	return m
}

// trustPolicy assembles the trust policy from the policy file and flags.
func (m *minidumpT) trustPolicy() (*scrub.TrustPolicy, error) {
	var p *scrub.TrustPolicy
	switch {
	case m.policyPath != "":
		var err error
		if p, err = scrub.LoadTrustPolicy(m.opts.fs, m.policyPath); err != nil {
			return nil, err
		}
		p.Allow = append(p.Allow, m.allow...)
	case len(m.allow) > 0:
		p = &scrub.TrustPolicy{Allow: m.allow}
	default:
		p = scrub.DefaultTrustPolicy()
	}
	p.CaseInsensitive = p.CaseInsensitive || m.caseInsensitive
	p.NormalizeSeparators = p.NormalizeSeparators || m.normalizeSeparators
	p.DirBoundary = p.DirBoundary || m.dirBoundary
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// openDump maps and parses a minidump. The caller must close the returned
// mapping once it is done with the dump.
func (m *minidumpT) openDump(path string) (*minidump.Dump, *vfs.Mapping, error) {
	f, err := m.opts.fs.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	mapping, err := vfs.MapFile(f)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s", path)
	}
	d, err := minidump.Parse(mapping.Data())
	if err != nil {
		_ = mapping.Close()
		return nil, nil, errors.Wrapf(err, "%s", path)
	}
	return d, mapping, nil
}

func (m *minidumpT) runStreams(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	d, mapping, err := m.openDump(args[0])
	if err != nil {
		fatalf(stderr, "%s", err)
		return
	}
	defer mapping.Close()
	printStreams(stdout, d)
}

func printStreams(w io.Writer, d *minidump.Dump) {
	h := d.Header()
	fmt.Fprintf(w, "version=%#x streams=%d directory-rva=%d size=%d\n",
		h.Version, h.NumberOfStreams, h.StreamDirectoryRVA, d.Len())
	tbl := newTable(w, "#", "TYPE", "ID", "RVA", "SIZE")
	for i, s := range d.Streams() {
		tbl.Append([]string{
			fmt.Sprint(i),
			s.Type.String(),
			fmt.Sprintf("%#x", uint32(s.Type)),
			fmt.Sprint(s.Location.RVA),
			fmt.Sprint(s.Location.DataSize),
		})
	}
	tbl.Render()
}

func (m *minidumpT) runModules(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	policy, err := m.trustPolicy()
	if err != nil {
		fatalf(stderr, "%s", err)
		return
	}
	d, mapping, err := m.openDump(args[0])
	if err != nil {
		fatalf(stderr, "%s", err)
		return
	}
	defer mapping.Close()
	mods, err := d.Modules()
	if err != nil {
		fatalf(stderr, "%s", err)
		return
	}
	tbl := newTable(stdout, "BASE", "SIZE", "TRUSTED", "NAME")
	for _, mod := range mods {
		tbl.Append([]string{
			fmt.Sprintf("%#x", mod.Base),
			fmt.Sprintf("%#x", mod.Size),
			yesNo(policy.Trusted(mod.Name)),
			mod.Name,
		})
	}
	tbl.Render()
}

func (m *minidumpT) runThreads(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	d, mapping, err := m.openDump(args[0])
	if err != nil {
		fatalf(stderr, "%s", err)
		return
	}
	defer mapping.Close()
	in, err := scrub.InputFromDump(d)
	if err != nil {
		fatalf(stderr, "%s", err)
		return
	}
	threads, err := d.Threads()
	if err != nil {
		fatalf(stderr, "%s", err)
		return
	}
	tbl := newTable(stdout, "ID", "STACK START", "RVA", "SIZE", "CAPTURED")
	for i, t := range threads {
		captured := scrub.VerifyStacks(in.Threads[i:i+1], in.Regions) == nil
		tbl.Append([]string{
			fmt.Sprint(t.ID),
			fmt.Sprintf("%#x", t.Stack.StartOfMemoryRange),
			fmt.Sprint(t.Stack.Memory.RVA),
			fmt.Sprint(t.Stack.Memory.DataSize),
			yesNo(captured),
		})
	}
	tbl.Render()
}

func (m *minidumpT) runRegions(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	d, mapping, err := m.openDump(args[0])
	if err != nil {
		fatalf(stderr, "%s", err)
		return
	}
	defer mapping.Close()
	mem, err := d.MemoryList()
	if err != nil {
		fatalf(stderr, "%s", err)
		return
	}

	hist := hdrhistogram.New(1, math.MaxUint32, 2)
	var total uint64
	tbl := newTable(stdout, "#", "START", "RVA", "SIZE")
	for i, r := range mem {
		tbl.Append([]string{
			fmt.Sprint(i),
			fmt.Sprintf("%#x", r.StartOfMemoryRange),
			fmt.Sprint(r.Memory.RVA),
			fmt.Sprint(r.Memory.DataSize),
		})
		total += uint64(r.Memory.DataSize)
		if r.Memory.DataSize > 0 {
			_ = hist.RecordValue(int64(r.Memory.DataSize))
		}
	}
	tbl.Render()
	fmt.Fprintf(stdout, "%d regions, %s of %s\n", len(mem),
		crhumanize.Bytes(total, crhumanize.Compact, crhumanize.OmitI),
		crhumanize.Bytes(uint64(d.Len()), crhumanize.Compact, crhumanize.OmitI))
	if hist.TotalCount() > 0 {
		fmt.Fprintf(stdout, "region size: mean: %.0f p50: %d p90: %d max: %d\n",
			hist.Mean(), hist.ValueAtPercentile(50), hist.ValueAtPercentile(90), hist.Max())
	}

	if m.hex {
		for i, r := range mem {
			data, err := d.Bytes(r.Memory)
			if err != nil {
				fatalf(stderr, "region %d: %s", i, err)
				return
			}
			fmt.Fprintf(stdout, "region %d (%#x):\n", i, r.StartOfMemoryRange)
			binfmt.FHexDump(stdout, data, int(r.Memory.RVA), 16)
		}
	}
	if m.explain {
		if err := m.explainRegions(stdout, d); err != nil {
			fatalf(stderr, "%s", err)
			return
		}
	}
}

// explainRegions prints every pointer-sized window of every region along with
// the scrubbing verdict.
func (m *minidumpT) explainRegions(w io.Writer, d *minidump.Dump) error {
	in, err := scrub.InputFromDump(d)
	if err != nil {
		return err
	}
	idx, err := scrub.BuildIndex(in.Modules)
	if err != nil {
		return err
	}
	if err := scrub.VerifyRegions(in.Regions, d.Len()); err != nil {
		return err
	}
	pw := int(in.PointerWidth)
	for i, r := range in.Regions {
		data, err := d.Bytes(minidump.Location{RVA: r.RVA, DataSize: r.Size})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "region %d %s:\n", i, r)
		f := binfmt.New(data, int(r.RVA))
		f.SetLinePrefix("  ")
		for f.Remaining() >= pw {
			v := f.PeekUint(pw)
			if mod, ok := idx.Lookup(v); ok {
				f.HexBytesln(pw, "keep %#x %s+%#x", v, baseName(mod.Name), v-mod.Base)
			} else {
				f.HexBytesln(pw, "zero %#x", v)
			}
		}
		if f.More() {
			f.HexBytesln(f.Remaining(), "tail")
		}
		fmt.Fprint(w, f.String())
	}
	return nil
}

func (m *minidumpT) runCheck(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	policy, err := m.trustPolicy()
	if err != nil {
		fatalf(stderr, "%s", err)
		return
	}
	d, mapping, err := m.openDump(args[0])
	if err != nil {
		fatalf(stderr, "%s", err)
		return
	}
	defer mapping.Close()
	in, err := scrub.InputFromDump(d)
	if err == nil {
		err = policy.Check(in.Modules)
	}
	if err == nil {
		err = scrub.VerifyStacks(in.Threads, in.Regions)
	}
	if err == nil {
		err = scrub.VerifyRegions(in.Regions, d.Len())
	}
	var idx *scrub.AddressIndex
	if err == nil {
		idx, err = scrub.BuildIndex(in.Modules)
	}
	if err != nil {
		fatalf(stderr, "%s: %s (%s)", args[0], err, scrub.Outcome(err))
		return
	}
	fmt.Fprintf(stdout, "%s: ok: %d modules (%d ranges), %d threads, %d regions, pointer width %d\n",
		args[0], idx.Len(), idx.Spans(), len(in.Threads), len(in.Regions), in.PointerWidth)
	fmt.Fprintf(stdout, "xxhash64: %016x\n", xxhash.Sum64(mapping.Data()))
}

func (m *minidumpT) runScrub(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	policy, err := m.trustPolicy()
	if err != nil {
		fatalf(stderr, "%s", err)
		return
	}

	var metrics *scrub.Metrics
	var registry *prometheus.Registry
	if m.metricsFile != "" {
		registry = prometheus.NewRegistry()
		metrics = scrub.NewMetrics()
		if err := metrics.Register(registry); err != nil {
			fatalf(stderr, "%s", err)
			return
		}
	}

	err = m.scrub(stdout, args[0], policy, metrics)
	if registry != nil {
		if werr := m.writeMetrics(registry); werr != nil {
			fmt.Fprintf(stderr, "%s\n", werr)
		}
	}
	if err != nil {
		fatalf(stderr, "%s: %s", args[0], err)
		return
	}
}

func (m *minidumpT) scrub(
	w io.Writer, path string, policy *scrub.TrustPolicy, metrics *scrub.Metrics,
) error {
	d, mapping, err := m.openDump(path)
	if err != nil {
		return err
	}
	defer mapping.Close()
	if m.verbose {
		printStreams(w, d)
	}
	in, err := scrub.InputFromDump(d)
	if err != nil {
		return err
	}

	var logger base.Logger = base.NoopLogger{}
	if m.verbose {
		logger = m.opts.logger
	}
	out, stats, err := scrub.Run(in, mapping.Data(), &scrub.Options{
		Policy:      policy,
		Concurrency: m.concurrency,
		Logger:      logger,
		Metrics:     metrics,
	})
	if err != nil {
		return err
	}
	if err := vfs.WriteFileAtomic(m.opts.fs, m.output, out); err != nil {
		return errors.Wrapf(err, "writing %s", m.output)
	}
	fmt.Fprintf(w, "%s\n", stats)
	if m.verbose {
		fmt.Fprintf(w, "%s\n", stats.Humanized())
		fmt.Fprintf(w, "wrote %s (xxhash64: %016x)\n", m.output, xxhash.Sum64(out))
	}
	return nil
}

func (m *minidumpT) writeMetrics(g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return err
		}
	}
	return vfs.WriteFileAtomic(m.opts.fs, m.metricsFile, buf.Bytes())
}
