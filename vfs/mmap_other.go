// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build !unix

package vfs

func mmapFile(f File) (*Mapping, bool, error) {
	return nil, false, nil
}
