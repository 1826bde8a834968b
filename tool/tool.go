// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package tool implements the ptrscrub command line tools.
package tool

import (
	"github.com/cockroachdb/ptrscrub/internal/base"
	"github.com/cockroachdb/ptrscrub/vfs"
	"github.com/spf13/cobra"
)

// T is the container for all of the tools.
type T struct {
	Commands []*cobra.Command
	minidump *minidumpT
	opts     options
}

type options struct {
	fs     vfs.FS
	logger base.Logger
}

// Option configures the tools.
type Option func(*options)

// FS sets the filesystem that dumps, policies and outputs are read from and
// written to. Defaults to vfs.Default.
func FS(fs vfs.FS) Option {
	return func(o *options) { o.fs = fs }
}

// Logger sets the logger used for progress messages in verbose mode. Defaults
// to base.DefaultLogger.
func Logger(l base.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a new set of tools.
func New(opts ...Option) *T {
	t := &T{
		opts: options{
			fs:     vfs.Default,
			logger: base.DefaultLogger{},
		},
	}
	for _, o := range opts {
		o(&t.opts)
	}
	t.minidump = newMinidump(&t.opts)
	t.Commands = []*cobra.Command{
		t.minidump.Root,
	}
	return t
}
