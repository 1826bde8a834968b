// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/stretchr/testify/require"
)

func TestMemFS(t *testing.T) {
	fs := NewMem()
	f, err := fs.Create("a/b.dmp")
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := ReadFile(fs, "a/b.dmp")
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	info, err := fs.Stat("a/b.dmp")
	require.NoError(t, err)
	require.Equal(t, int64(5), info.Size())
	require.Equal(t, "b.dmp", info.Name())

	require.NoError(t, fs.Rename("a/b.dmp", "c.dmp"))
	_, err = fs.Open("a/b.dmp")
	require.True(t, oserror.IsNotExist(err))
	require.Equal(t, []string{"c.dmp"}, fs.List())

	require.NoError(t, fs.Remove("c.dmp"))
	require.True(t, oserror.IsNotExist(fs.Remove("c.dmp")))
	require.Empty(t, fs.List())
}

func TestMemFileReadAt(t *testing.T) {
	fs := NewMem()
	require.NoError(t, WriteFileAtomic(fs, "x", []byte("0123456789")))
	f, err := fs.Open("x")
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 4)
	n, err := f.ReadAt(buf, 3)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "3456", string(buf))

	n, err = f.ReadAt(buf, 8)
	require.Error(t, err)
	require.Equal(t, 2, n)

	_, err = f.Write([]byte("nope"))
	require.Error(t, err)
}

type failingRenameFS struct {
	FS
}

func (failingRenameFS) Rename(oldname, newname string) error {
	return errors.New("injected rename failure")
}

func TestWriteFileAtomic(t *testing.T) {
	fs := NewMem()
	require.NoError(t, WriteFileAtomic(fs, "out.dmp", []byte("abc")))
	require.Equal(t, []string{"out.dmp"}, fs.List())

	// A failed rename must not leave the temporary file behind.
	err := WriteFileAtomic(failingRenameFS{fs}, "other.dmp", []byte("abc"))
	require.Error(t, err)
	require.Equal(t, []string{"out.dmp"}, fs.List())
}

func TestMapFile(t *testing.T) {
	t.Run("mem", func(t *testing.T) {
		fs := NewMem()
		require.NoError(t, WriteFileAtomic(fs, "in", []byte("minidump")))
		f, err := fs.Open("in")
		require.NoError(t, err)
		m, err := MapFile(f)
		require.NoError(t, err)
		require.NoError(t, f.Close())
		require.Equal(t, "minidump", string(m.Data()))
		require.NoError(t, m.Close())
		require.NoError(t, m.Close())
	})

	t.Run("os", func(t *testing.T) {
		dir := t.TempDir()
		for _, contents := range []string{"", "some bytes on disk"} {
			name := filepath.Join(dir, "in")
			require.NoError(t, os.WriteFile(name, []byte(contents), 0644))
			f, err := Default.Open(name)
			require.NoError(t, err)
			m, err := MapFile(f)
			require.NoError(t, err)
			require.NoError(t, f.Close())
			require.Equal(t, contents, string(m.Data()))
			require.NoError(t, m.Close())
		}
	})
}
