// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scrub

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for Metrics.Runs.
const (
	OutcomeOK               = "ok"
	OutcomeUntrustedModule  = "untrusted_module"
	OutcomeInconsistentDump = "inconsistent_dump"
	OutcomeMalformedModule  = "malformed_module"
	OutcomeMissingStream    = "missing_stream"
	OutcomeUnknownArch      = "unknown_arch"
	OutcomeError            = "error"
)

// Metrics holds Prometheus collectors updated by Run. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Runs counts scrub runs by outcome.
	Runs *prometheus.CounterVec
	// BytesConsidered counts bytes inside scanned regions.
	BytesConsidered prometheus.Counter
	// BytesZeroed counts bytes overwritten with zeros.
	BytesZeroed prometheus.Counter
	// Regions counts scanned regions.
	Regions prometheus.Counter
	// RegionBytes is the distribution of region sizes.
	RegionBytes prometheus.Histogram
}

// NewMetrics constructs unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ptrscrub",
			Name:      "runs_total",
			Help:      "Scrub runs by outcome.",
		}, []string{"outcome"}),
		BytesConsidered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ptrscrub",
			Name:      "bytes_considered_total",
			Help:      "Bytes inside scanned memory regions.",
		}),
		BytesZeroed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ptrscrub",
			Name:      "bytes_zeroed_total",
			Help:      "Bytes overwritten with zeros.",
		}),
		Regions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ptrscrub",
			Name:      "regions_total",
			Help:      "Memory regions scanned.",
		}),
		RegionBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ptrscrub",
			Name:      "region_bytes",
			Help:      "Size of scanned memory regions.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
		}),
	}
}

// Register registers all collectors with r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Runs, m.BytesConsidered, m.BytesZeroed, m.Regions, m.RegionBytes} {
		if err := r.Register(c); err != nil {
			return errors.Wrap(err, "ptrscrub: registering metrics")
		}
	}
	return nil
}

// Outcome classifies the error returned by Run.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrUntrustedModule):
		return OutcomeUntrustedModule
	case errors.Is(err, ErrInconsistentDump):
		return OutcomeInconsistentDump
	case errors.Is(err, ErrMalformedModuleData):
		return OutcomeMalformedModule
	case errors.Is(err, ErrMissingStream):
		return OutcomeMissingStream
	case errors.Is(err, ErrUnknownArch):
		return OutcomeUnknownArch
	default:
		return OutcomeError
	}
}

func (m *Metrics) recordOutcome(err error) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(Outcome(err)).Inc()
}

func (m *Metrics) recordRegions(results []RegionResult) {
	if m == nil {
		return
	}
	for _, r := range results {
		m.BytesConsidered.Add(float64(r.Considered))
		m.BytesZeroed.Add(float64(r.Zeroed))
		m.Regions.Inc()
		m.RegionBytes.Observe(float64(r.Considered))
	}
}
