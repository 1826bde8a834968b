// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binfmt

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// HexDump returns a string representation of the data in a hex dump format.
// The width is the number of bytes per line; offsets start at base.
func HexDump(data []byte, base, width int) string {
	var buf bytes.Buffer
	FHexDump(&buf, data, base, width)
	return buf.String()
}

// FHexDump writes a hex dump of the data to w.
func FHexDump(w io.Writer, data []byte, base, width int) {
	offsetFormatWidth := max(2, len(strconv.FormatInt(int64(base+len(data)), 16)))
	offsetFormatStr := "%0" + strconv.Itoa(offsetFormatWidth) + "x"
	for i := 0; i < len(data); i += width {
		fmt.Fprintf(w, offsetFormatStr+": ", base+i)
		for j := 0; j < width; j++ {
			if j%4 == 0 {
				fmt.Fprint(w, " ")
			}
			if i+j >= len(data) {
				fmt.Fprintf(w, "  ")
			} else {
				fmt.Fprintf(w, "%02x", data[i+j])
			}
		}

		fmt.Fprint(w, " | ")
		for j := 0; j < width && i+j < len(data); j++ {
			if data[i+j] < 32 || data[i+j] > 126 {
				fmt.Fprint(w, ".")
			} else {
				fmt.Fprintf(w, "%c", data[i+j])
			}
		}
		fmt.Fprintln(w)
	}
}
