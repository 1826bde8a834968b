// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scrub

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestAddressIndex(t *testing.T) {
	idx, err := BuildIndex([]ModuleRecord{
		{Name: "c", Base: 0x5000, Size: 0x100},
		{Name: "a", Base: 0x1000, Size: 0x100},
		{Name: "b", Base: 0x1080, Size: 0x200},
		{Name: "d", Base: 0x5100, Size: 0x10},
		{Name: "empty", Base: 0x9000, Size: 0},
	})
	require.NoError(t, err)
	require.Equal(t, 5, idx.Len())
	// a+b overlap and c+d touch.
	require.Equal(t, 2, idx.Spans())

	for _, tc := range []struct {
		addr uint64
		want bool
	}{
		{0, false},
		{0xfff, false},
		{0x1000, true},
		{0x10ff, true},
		{0x1100, true},
		{0x127f, true},
		{0x1280, false},
		{0x5000, true},
		{0x510f, true},
		{0x5110, false},
		{0x9000, false},
		{math.MaxUint64, false},
	} {
		require.Equalf(t, tc.want, idx.Contains(tc.addr), "addr %#x", tc.addr)
	}

	m, ok := idx.Lookup(0x1090)
	require.True(t, ok)
	require.Equal(t, "a", m.Name)
	m, ok = idx.Lookup(0x1200)
	require.True(t, ok)
	require.Equal(t, "b", m.Name)
	_, ok = idx.Lookup(0x9000)
	require.False(t, ok)
}

func TestAddressIndexEmpty(t *testing.T) {
	idx, err := BuildIndex(nil)
	require.NoError(t, err)
	require.False(t, idx.Contains(0))
	require.False(t, idx.Contains(0x1000))
}

func TestAddressIndexOverflow(t *testing.T) {
	// A range ending exactly at 2^64 is not representable and is rejected.
	for _, m := range []ModuleRecord{
		{Name: `C:\bad.dll`, Base: math.MaxUint64, Size: 1},
		{Name: `C:\bad.dll`, Base: 1 << 63, Size: 1 << 63},
		{Name: `C:\bad.dll`, Base: math.MaxUint64 - 4, Size: 0x100},
	} {
		_, err := BuildIndex([]ModuleRecord{{Name: "ok", Base: 0x1000, Size: 0x10}, m})
		require.True(t, errors.Is(err, ErrMalformedModuleData), "%v", err)
		var merr *MalformedModuleError
		require.True(t, errors.As(err, &merr))
		require.Equal(t, m, merr.Module)
		require.Contains(t, err.Error(), `C:\bad.dll`)
	}

	// The last addressable byte is fine.
	idx, err := BuildIndex([]ModuleRecord{{Name: "top", Base: math.MaxUint64 - 1, Size: 1}})
	require.NoError(t, err)
	require.True(t, idx.Contains(math.MaxUint64-1))
	require.False(t, idx.Contains(math.MaxUint64))
}

func TestAddressIndexRandomized(t *testing.T) {
	seed := rand.Uint64()
	t.Logf("seed: %d", seed)
	rng := rand.New(rand.NewPCG(seed, seed))
	for iter := 0; iter < 100; iter++ {
		mods := make([]ModuleRecord, rng.IntN(20))
		for i := range mods {
			mods[i] = ModuleRecord{Base: rng.Uint64N(1 << 12), Size: rng.Uint64N(1 << 8)}
		}
		idx, err := BuildIndex(mods)
		require.NoError(t, err)
		for addr := uint64(0); addr < 1<<12+1<<8; addr++ {
			want := false
			for _, m := range mods {
				want = want || m.Contains(addr)
			}
			require.Equalf(t, want, idx.Contains(addr), "addr %#x mods %v", addr, mods)
		}
	}
}
