// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"io"

	"github.com/cockroachdb/errors"
)

// Mapping is a read-only view of a whole file. The bytes returned by Data
// must not be modified and must not be used after Close.
type Mapping struct {
	data    []byte
	release func() error
}

// Data returns the contents of the file.
func (m *Mapping) Data() []byte {
	return m.data
}

// Close releases the mapping. It is safe to call Close more than once.
func (m *Mapping) Close() error {
	release := m.release
	m.data, m.release = nil, nil
	if release == nil {
		return nil
	}
	return release()
}

// MapFile returns a read-only view of f. Files backed by the operating system
// are memory-mapped where the platform supports it; everything else is read
// into memory. The caller keeps ownership of f and may close it once MapFile
// returns.
func MapFile(f File) (*Mapping, error) {
	if m, ok, err := mmapFile(f); ok || err != nil {
		return m, err
	}
	return readFile(f)
}

func readFile(f File) (*Mapping, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	data := make([]byte, info.Size())
	if n, err := f.ReadAt(data, 0); err != nil && !(err == io.EOF && n == len(data)) {
		return nil, errors.Wrapf(err, "reading %s", errors.Safe(info.Name()))
	}
	return &Mapping{data: data}, nil
}
