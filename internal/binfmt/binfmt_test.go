// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binfmt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatter(t *testing.T) {
	data := []byte{
		0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xad, 0xde, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xaa, 0xbb,
	}
	f := New(data, 0x100)
	f.SetLinePrefix("  ")
	f.Comment("region")
	for f.Remaining() >= 8 {
		v := f.PeekUint(8)
		f.HexBytesln(8, "%#x", v)
	}
	require.True(t, f.More())
	require.Equal(t, 16, f.Offset())
	f.HexBytesln(f.Remaining(), "tail")
	require.False(t, f.More())

	require.Equal(t, `  # region
  100-108: x 0010000000000000 # 0x1000
  108-110: x adde000000000000 # 0xdead
  110-112: x aabb             # tail
`, f.String())
}

func TestFormatterContinued(t *testing.T) {
	f := New([]byte{1, 2, 3, 4, 5, 6}, 0).LineWidth(8)
	require.Equal(t, 6, f.HexBytesln(6, "six bytes"))
	require.Equal(t, `00-04: x 01020304 # six bytes
04-06: x 0506     # (continued...)
`, f.String())
}

func TestHexDump(t *testing.T) {
	require.Equal(t,
		"1000:  41424344 00010203 | ABCD....\n"+
			"1008:  7a"+strings.Repeat(" ", 15)+" | z\n",
		HexDump([]byte{'A', 'B', 'C', 'D', 0, 1, 2, 3, 'z'}, 0x1000, 8))
}
