// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"time"

	"github.com/cockroachdb/crlib/crtime"
)

// DeterministicDurationForTesting makes every Stopwatch report
// FixedDurationForTesting. The return value is a function that must be called
// before the test exits.
func DeterministicDurationForTesting() func() {
	prev := deterministicDurationForTesting
	deterministicDurationForTesting = true
	return func() {
		deterministicDurationForTesting = prev
	}
}

var deterministicDurationForTesting = false

// FixedDurationForTesting is the duration reported by stopwatches under
// DeterministicDurationForTesting.
const FixedDurationForTesting = 5 * time.Millisecond

// Stopwatch measures elapsed time on the monotonic clock.
type Stopwatch struct {
	startTime crtime.Mono
}

// StartStopwatch returns a running stopwatch.
func StartStopwatch() Stopwatch {
	return Stopwatch{startTime: crtime.NowMono()}
}

// Elapsed returns the time since the stopwatch was started.
func (w Stopwatch) Elapsed() time.Duration {
	if deterministicDurationForTesting {
		return FixedDurationForTesting
	}
	return w.startTime.Elapsed()
}
