// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package dumptest builds synthetic minidumps for tests.
package dumptest

import (
	"encoding/binary"

	"github.com/cockroachdb/ptrscrub/minidump"
	"golang.org/x/text/encoding/unicode"
)

// Builder accumulates the contents of a minidump. The zero value is not
// usable; use New.
type Builder struct {
	arch     minidump.Arch
	modules  []module
	memory   []memory
	threads  []thread
	extra    []extraStream
	omit     map[minidump.StreamType]bool
	padLists bool
}

type module struct {
	name string
	base uint64
	size uint32
}

type memory struct {
	start uint64
	data  []byte
}

type thread struct {
	id       uint32
	memIndex int
	stack    minidump.Location
}

type extraStream struct {
	typ  minidump.StreamType
	data []byte
}

// Layout records where the builder placed things in the file.
type Layout struct {
	// Memory holds the file location of each region added with AddMemory, in
	// order.
	Memory []minidump.Location
	// Streams holds the directory in file order.
	Streams []minidump.Directory
}

// New returns a builder for a dump of the given architecture.
func New(arch minidump.Arch) *Builder {
	return &Builder{arch: arch, omit: make(map[minidump.StreamType]bool)}
}

// AddModule adds a module to the ModuleList stream.
func (b *Builder) AddModule(name string, base uint64, size uint32) *Builder {
	b.modules = append(b.modules, module{name: name, base: base, size: size})
	return b
}

// AddMemory adds a captured region to the MemoryList stream and returns its
// index.
func (b *Builder) AddMemory(start uint64, data []byte) int {
	b.memory = append(b.memory, memory{start: start, data: data})
	return len(b.memory) - 1
}

// AddThread adds a thread whose stack is the memory region with the given
// index.
func (b *Builder) AddThread(id uint32, memIndex int) *Builder {
	b.threads = append(b.threads, thread{id: id, memIndex: memIndex})
	return b
}

// AddThreadWithStack adds a thread with an explicit stack location that need
// not match any memory region.
func (b *Builder) AddThreadWithStack(id uint32, stack minidump.Location) *Builder {
	b.threads = append(b.threads, thread{id: id, memIndex: -1, stack: stack})
	return b
}

// AddStream adds an opaque stream.
func (b *Builder) AddStream(t minidump.StreamType, data []byte) *Builder {
	b.extra = append(b.extra, extraStream{typ: t, data: data})
	return b
}

// Omit leaves one of the four standard streams out of the dump.
func (b *Builder) Omit(t minidump.StreamType) *Builder {
	b.omit[t] = true
	return b
}

// PadLists inserts 4 bytes of padding after the count of every list stream,
// as some minidump writers do.
func (b *Builder) PadLists() *Builder {
	b.padLists = true
	return b
}

type writer struct {
	buf []byte
}

func (w *writer) rva() uint32 { return uint32(len(w.buf)) }

func (w *writer) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *writer) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *writer) zeros(n int)  { w.buf = append(w.buf, make([]byte, n)...) }

func (w *writer) loc(l minidump.Location) {
	w.u32(l.DataSize)
	w.u32(l.RVA)
}

// Build serializes the dump.
func (b *Builder) Build() ([]byte, Layout) {
	type pending struct {
		typ   minidump.StreamType
		write func(w *writer)
	}
	var streams []pending
	add := func(t minidump.StreamType, fn func(w *writer)) {
		if !b.omit[t] {
			streams = append(streams, pending{typ: t, write: fn})
		}
	}

	var layout Layout
	w := &writer{}
	w.zeros(32)
	numStreams := 4 + len(b.extra)
	for t := range b.omit {
		switch t {
		case minidump.SystemInfoStream, minidump.ModuleListStream,
			minidump.ThreadListStream, minidump.MemoryListStream:
			numStreams--
		}
	}
	dirRVA := w.rva()
	w.zeros(numStreams * 12)

	for _, m := range b.memory {
		layout.Memory = append(layout.Memory, minidump.Location{
			DataSize: uint32(len(m.data)),
			RVA:      w.rva(),
		})
		w.buf = append(w.buf, m.data...)
	}
	nameRVAs := make([]uint32, len(b.modules))
	for i, m := range b.modules {
		nameRVAs[i] = w.rva()
		enc, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(m.name))
		if err != nil {
			panic(err)
		}
		w.u32(uint32(len(enc)))
		w.buf = append(w.buf, enc...)
		w.u16(0)
	}

	count := func(w *writer, n int) {
		w.u32(uint32(n))
		if b.padLists {
			w.u32(0)
		}
	}
	add(minidump.SystemInfoStream, func(w *writer) {
		w.u16(uint16(b.arch))
		w.u16(6)
		w.u16(0)
		w.buf = append(w.buf, 4, 1)
		w.u32(10)
		w.u32(0)
		w.u32(19045)
		w.u32(2)
		w.u32(0)
		w.u16(0)
		w.u16(0)
		w.zeros(24)
	})
	add(minidump.ModuleListStream, func(w *writer) {
		count(w, len(b.modules))
		for i, m := range b.modules {
			w.u64(m.base)
			w.u32(m.size)
			w.u32(0)
			w.u32(0)
			w.u32(nameRVAs[i])
			w.zeros(52)
			w.loc(minidump.Location{})
			w.loc(minidump.Location{})
			w.u64(0)
			w.u64(0)
		}
	})
	add(minidump.ThreadListStream, func(w *writer) {
		count(w, len(b.threads))
		for _, t := range b.threads {
			stack := t.stack
			var start uint64
			if t.memIndex >= 0 {
				stack = layout.Memory[t.memIndex]
				start = b.memory[t.memIndex].start
			}
			w.u32(t.id)
			w.u32(0)
			w.u32(0)
			w.u32(0)
			w.u64(0)
			w.u64(start)
			w.loc(stack)
			w.loc(minidump.Location{})
		}
	})
	add(minidump.MemoryListStream, func(w *writer) {
		count(w, len(b.memory))
		for i, m := range b.memory {
			w.u64(m.start)
			w.loc(layout.Memory[i])
		}
	})
	for _, e := range b.extra {
		data := e.data
		streams = append(streams, pending{typ: e.typ, write: func(w *writer) {
			w.buf = append(w.buf, data...)
		}})
	}

	for i, s := range streams {
		start := w.rva()
		s.write(w)
		d := minidump.Directory{
			Type:     s.typ,
			Location: minidump.Location{DataSize: w.rva() - start, RVA: start},
		}
		layout.Streams = append(layout.Streams, d)
		e := w.buf[int(dirRVA)+i*12:]
		binary.LittleEndian.PutUint32(e[0:], uint32(d.Type))
		binary.LittleEndian.PutUint32(e[4:], d.Location.DataSize)
		binary.LittleEndian.PutUint32(e[8:], d.Location.RVA)
	}

	h := w.buf[:32]
	binary.LittleEndian.PutUint32(h[0:], minidump.Signature)
	binary.LittleEndian.PutUint32(h[4:], minidump.Version)
	binary.LittleEndian.PutUint32(h[8:], uint32(len(streams)))
	binary.LittleEndian.PutUint32(h[12:], dirRVA)
	return w.buf, layout
}
