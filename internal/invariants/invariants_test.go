// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package invariants

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeSub(t *testing.T) {
	require.Equal(t, uint64(3), SafeSub(uint64(5), uint64(2)))
	require.Equal(t, uint32(0), SafeSub(uint32(2), uint32(2)))
	if Enabled {
		require.Panics(t, func() { SafeSub(uint64(1), uint64(2)) })
	} else {
		require.Equal(t, uint64(0), SafeSub(uint64(1), uint64(2)))
	}
}

func TestCheckLen(t *testing.T) {
	require.NotPanics(t, func() { CheckLen("buf", 4, 4) })
	if Enabled {
		require.Panics(t, func() { CheckLen("buf", 3, 4) })
	}
}
