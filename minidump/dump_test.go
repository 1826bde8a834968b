// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package minidump_test

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/ptrscrub/internal/base"
	"github.com/cockroachdb/ptrscrub/internal/dumptest"
	"github.com/cockroachdb/ptrscrub/minidump"
	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"
)

func buildSample(padLists bool) ([]byte, dumptest.Layout) {
	b := dumptest.New(minidump.ArchAMD64)
	if padLists {
		b.PadLists()
	}
	b.AddModule(`C:\Program Files\Mozilla Firefox\firefox.exe`, 0x7ff600000000, 0x10000)
	b.AddModule(`C:\Windows\System32\ntdll.dll`, 0x7ffa00000000, 0x200000)
	stack := b.AddMemory(0x1000, make([]byte, 64))
	b.AddMemory(0x9000, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	b.AddThread(42, stack)
	b.AddStream(minidump.MiscInfoStream, make([]byte, 24))
	return b.Build()
}

func TestParse(t *testing.T) {
	for _, pad := range []bool{false, true} {
		data, layout := buildSample(pad)
		d, err := minidump.Parse(data)
		require.NoError(t, err)
		require.Equal(t, len(data), d.Len())
		require.Equal(t, layout.Streams, d.Streams())

		si, err := d.SystemInfo()
		require.NoError(t, err)
		require.Equal(t, minidump.ArchAMD64, si.Arch)
		w, ok := si.Arch.PointerWidth()
		require.True(t, ok)
		require.Equal(t, 8, w)

		mods, err := d.Modules()
		require.NoError(t, err)
		got := []string{mods[0].Name, mods[1].Name}
		want := []string{`C:\Program Files\Mozilla Firefox\firefox.exe`, `C:\Windows\System32\ntdll.dll`}
		if diff := pretty.Diff(want, got); len(diff) > 0 {
			t.Fatalf("module names differ:\n%s", strings.Join(diff, "\n"))
		}
		require.Equal(t, uint64(0x7ffa00000000), mods[1].Base)
		require.Equal(t, uint32(0x200000), mods[1].Size)

		threads, err := d.Threads()
		require.NoError(t, err)
		require.Len(t, threads, 1)
		require.Equal(t, uint32(42), threads[0].ID)
		require.Equal(t, layout.Memory[0], threads[0].Stack.Memory)
		require.Equal(t, uint64(0x1000), threads[0].Stack.StartOfMemoryRange)

		mem, err := d.MemoryList()
		require.NoError(t, err)
		require.Len(t, mem, 2)
		require.Equal(t, layout.Memory[1], mem[1].Memory)
		b, err := d.Bytes(mem[1].Memory)
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, b)
	}
}

func TestMissingStream(t *testing.T) {
	data, _ := dumptest.New(minidump.ArchX86).Omit(minidump.ThreadListStream).Build()
	d, err := minidump.Parse(data)
	require.NoError(t, err)
	_, err = d.Threads()
	require.True(t, errors.Is(err, minidump.ErrStreamNotFound), "%v", err)
	require.Contains(t, err.Error(), "ThreadListStream")

	_, err = d.MemoryList()
	require.NoError(t, err)
}

func TestParseCorruption(t *testing.T) {
	data, _ := buildSample(false)

	testCases := []struct {
		name   string
		mutate func([]byte) []byte
		errStr string
	}{
		{
			name:   "short",
			mutate: func(b []byte) []byte { return b[:16] },
			errStr: "too short for header",
		},
		{
			name: "signature",
			mutate: func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[0:], 0x12345678)
				return b
			},
			errStr: "bad signature",
		},
		{
			name: "version",
			mutate: func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[4:], 0x1234)
				return b
			},
			errStr: "unsupported version",
		},
		{
			name: "directory-past-eof",
			mutate: func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[12:], uint32(len(b)-4))
				return b
			},
			errStr: "stream directory",
		},
		{
			name: "too-many-streams",
			mutate: func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[8:], 1<<30)
				return b
			},
			errStr: "cannot fit",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.mutate(append([]byte(nil), data...))
			_, err := minidump.Parse(b)
			require.Error(t, err)
			require.True(t, errors.Is(err, base.ErrCorruption), "%v", err)
			require.Contains(t, err.Error(), tc.errStr)
		})
	}
}

func TestListTooShort(t *testing.T) {
	data, layout := buildSample(false)
	d, err := minidump.Parse(data)
	require.NoError(t, err)
	var memList minidump.Directory
	for _, s := range layout.Streams {
		if s.Type == minidump.MemoryListStream {
			memList = s
		}
	}
	// Claim more descriptors than the stream holds.
	binary.LittleEndian.PutUint32(data[memList.Location.RVA:], 1000)
	_, err = d.MemoryList()
	require.True(t, errors.Is(err, base.ErrCorruption), "%v", err)
}

func TestStreamTypeString(t *testing.T) {
	require.Equal(t, "ModuleListStream", minidump.ModuleListStream.String())
	require.Equal(t, "LinuxMaps", minidump.LinuxMapsStream.String())
	require.Equal(t, "Unknown(0x12345)", minidump.StreamType(0x12345).String())
}

func TestArchPointerWidth(t *testing.T) {
	for arch, want := range map[minidump.Arch]int{
		minidump.ArchX86:     4,
		minidump.ArchARM:     4,
		minidump.ArchAMD64:   8,
		minidump.ArchARM64:   8,
		minidump.ArchPPC64:   8,
		minidump.ArchUnknown: 0,
		minidump.ArchMSIL:    0,
	} {
		got, ok := arch.PointerWidth()
		require.Equal(t, want != 0, ok, "%s", arch)
		require.Equal(t, want, got, "%s", arch)
	}
}
