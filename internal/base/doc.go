// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base contains the small set of definitions shared by the minidump
// reader, the scrubber and the command-line tools: logging and the corruption
// error marker.
package base
