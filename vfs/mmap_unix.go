// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build unix

package vfs

import (
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

func mmapFile(f File) (*Mapping, bool, error) {
	osFile, ok := f.(*os.File)
	if !ok {
		return nil, false, nil
	}
	info, err := osFile.Stat()
	if err != nil {
		return nil, true, err
	}
	size := info.Size()
	if size == 0 {
		// mmap(2) rejects zero-length mappings.
		return &Mapping{data: []byte{}}, true, nil
	}
	if int64(int(size)) != size {
		return nil, true, errors.Newf("ptrscrub/vfs: %s too large to map (%d bytes)", osFile.Name(), size)
	}
	data, err := unix.Mmap(int(osFile.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, true, errors.Wrapf(err, "mmap %s", osFile.Name())
	}
	return &Mapping{
		data:    data,
		release: func() error { return unix.Munmap(data) },
	}, true, nil
}
