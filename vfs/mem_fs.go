// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"io"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
)

// NewMem returns a new memory-backed FS implementation. The namespace is
// flat: names are cleaned and used as keys, and directories do not exist.
func NewMem() *MemFS {
	return &MemFS{files: make(map[string]*memNode)}
}

// MemFS implements FS.
type MemFS struct {
	mu    sync.Mutex
	files map[string]*memNode
}

var _ FS = (*MemFS)(nil)

type memNode struct {
	mu struct {
		sync.Mutex
		data    []byte
		modTime time.Time
	}
}

func memKey(name string) string {
	return path.Clean(strings.ReplaceAll(name, "\\", "/"))
}

// Create implements FS.Create.
func (y *MemFS) Create(name string) (File, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	n := &memNode{}
	n.mu.modTime = time.Now()
	y.files[memKey(name)] = n
	return &memFile{name: name, n: n, read: true, write: true}, nil
}

// Open implements FS.Open.
func (y *MemFS) Open(name string) (File, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	n, ok := y.files[memKey(name)]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: oserror.ErrNotExist}
	}
	return &memFile{name: name, n: n, read: true}, nil
}

// Remove implements FS.Remove.
func (y *MemFS) Remove(name string) error {
	y.mu.Lock()
	defer y.mu.Unlock()
	k := memKey(name)
	if _, ok := y.files[k]; !ok {
		return &os.PathError{Op: "remove", Path: name, Err: oserror.ErrNotExist}
	}
	delete(y.files, k)
	return nil
}

// Rename implements FS.Rename.
func (y *MemFS) Rename(oldname, newname string) error {
	y.mu.Lock()
	defer y.mu.Unlock()
	k := memKey(oldname)
	n, ok := y.files[k]
	if !ok {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: oserror.ErrNotExist}
	}
	delete(y.files, k)
	y.files[memKey(newname)] = n
	return nil
}

// Stat implements FS.Stat.
func (y *MemFS) Stat(name string) (os.FileInfo, error) {
	y.mu.Lock()
	n, ok := y.files[memKey(name)]
	y.mu.Unlock()
	if !ok {
		return nil, &os.PathError{Op: "stat", Path: name, Err: oserror.ErrNotExist}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return &memFileInfo{
		name:    path.Base(memKey(name)),
		size:    int64(len(n.mu.data)),
		modTime: n.mu.modTime,
	}, nil
}

// PathBase implements FS.PathBase.
func (*MemFS) PathBase(p string) string {
	return path.Base(memKey(p))
}

// List returns the sorted names of all files.
func (y *MemFS) List() []string {
	y.mu.Lock()
	defer y.mu.Unlock()
	names := make([]string, 0, len(y.files))
	for k := range y.files {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// memFile is a reader or writer of a node's data. Implements File.
type memFile struct {
	name        string
	n           *memNode
	pos         int
	read, write bool
}

var _ File = (*memFile)(nil)

func (f *memFile) Close() error {
	if f.n == nil {
		return errors.New("ptrscrub/vfs: close of closed file")
	}
	f.n = nil
	return nil
}

func (f *memFile) Read(p []byte) (int, error) {
	if !f.read {
		return 0, errors.New("ptrscrub/vfs: file was not opened for reading")
	}
	f.n.mu.Lock()
	defer f.n.mu.Unlock()
	if f.pos >= len(f.n.mu.data) {
		return 0, io.EOF
	}
	n := copy(p, f.n.mu.data[f.pos:])
	f.pos += n
	return n, nil
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	if !f.read {
		return 0, errors.New("ptrscrub/vfs: file was not opened for reading")
	}
	f.n.mu.Lock()
	defer f.n.mu.Unlock()
	if off >= int64(len(f.n.mu.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.n.mu.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	if !f.write {
		return 0, errors.New("ptrscrub/vfs: file was not created for writing")
	}
	f.n.mu.Lock()
	defer f.n.mu.Unlock()
	f.n.mu.modTime = time.Now()
	if f.pos+len(p) <= len(f.n.mu.data) {
		copy(f.n.mu.data[f.pos:f.pos+len(p)], p)
	} else {
		f.n.mu.data = append(f.n.mu.data[:f.pos], p...)
	}
	f.pos += len(p)
	return len(p), nil
}

func (f *memFile) Stat() (os.FileInfo, error) {
	f.n.mu.Lock()
	defer f.n.mu.Unlock()
	return &memFileInfo{
		name:    path.Base(memKey(f.name)),
		size:    int64(len(f.n.mu.data)),
		modTime: f.n.mu.modTime,
	}, nil
}

func (f *memFile) Sync() error {
	return nil
}

// memFileInfo implements os.FileInfo for a memFile.
type memFileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

var _ os.FileInfo = (*memFileInfo)(nil)

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return f.size }
func (f *memFileInfo) Mode() os.FileMode  { return 0755 }
func (f *memFileInfo) ModTime() time.Time { return f.modTime }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() interface{}   { return nil }
