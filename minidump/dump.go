// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package minidump decodes the parts of a Windows/Breakpad minidump that are
// needed to scrub it: the stream directory and the SystemInfo, ModuleList,
// ThreadList and MemoryList streams.
//
// A Dump is a read-only view over the raw bytes of the file; it does not copy
// them, and decoding is lazy. All offsets (RVAs) are relative to the start of
// the file.
package minidump

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/ptrscrub/internal/base"
	"github.com/cockroachdb/redact"
	"golang.org/x/text/encoding/unicode"
)

// ErrStreamNotFound is returned when a requested stream is not present in the
// stream directory.
var ErrStreamNotFound = errors.New("minidump: stream not found")

// Location describes a range of bytes in the file.
type Location struct {
	DataSize uint32
	RVA      uint32
}

// End returns the offset one past the last byte of the location.
func (l Location) End() uint64 {
	return uint64(l.RVA) + uint64(l.DataSize)
}

// SafeFormat implements redact.SafeFormatter.
func (l Location) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("rva=%d size=%d", redact.Safe(l.RVA), redact.Safe(l.DataSize))
}

func (l Location) String() string {
	return redact.StringWithoutMarkers(l)
}

// Directory is an entry of the stream directory.
type Directory struct {
	Type     StreamType
	Location Location
}

// Header is the fixed-size header at the start of every minidump.
type Header struct {
	Signature          uint32
	Version            uint32
	NumberOfStreams    uint32
	StreamDirectoryRVA uint32
	Checksum           uint32
	TimeDateStamp      uint32
	Flags              uint64
}

// SystemInfo is the decoded SystemInfo stream.
type SystemInfo struct {
	Arch          Arch
	Level         uint16
	Revision      uint16
	NumProcessors uint8
	ProductType   uint8
	MajorVersion  uint32
	MinorVersion  uint32
	BuildNumber   uint32
	PlatformID    uint32
}

// Module is an entry of the ModuleList stream.
type Module struct {
	Base          uint64
	Size          uint32
	Checksum      uint32
	TimeDateStamp uint32
	NameRVA       uint32
	Name          string
}

// MemoryDescriptor describes a captured range of process memory: its virtual
// address and where its bytes live in the file.
type MemoryDescriptor struct {
	StartOfMemoryRange uint64
	Memory             Location
}

// Thread is an entry of the ThreadList stream.
type Thread struct {
	ID            uint32
	SuspendCount  uint32
	PriorityClass uint32
	Priority      uint32
	TEB           uint64
	Stack         MemoryDescriptor
	Context       Location
}

// Dump is a parsed minidump.
type Dump struct {
	data      []byte
	header    Header
	directory []Directory
}

// Parse validates the header and stream directory of a minidump. data is
// retained, not copied.
func Parse(data []byte) (*Dump, error) {
	if len(data) < headerSize {
		return nil, base.CorruptionErrorf("minidump: file too short for header (%d bytes)", redact.Safe(len(data)))
	}
	d := &Dump{data: data}
	h := &d.header
	h.Signature = binary.LittleEndian.Uint32(data[0:])
	h.Version = binary.LittleEndian.Uint32(data[4:])
	h.NumberOfStreams = binary.LittleEndian.Uint32(data[8:])
	h.StreamDirectoryRVA = binary.LittleEndian.Uint32(data[12:])
	h.Checksum = binary.LittleEndian.Uint32(data[16:])
	h.TimeDateStamp = binary.LittleEndian.Uint32(data[20:])
	h.Flags = binary.LittleEndian.Uint64(data[24:])
	if h.Signature != Signature {
		return nil, base.CorruptionErrorf("minidump: bad signature %#x", redact.Safe(h.Signature))
	}
	if h.Version&0xffff != Version {
		return nil, base.CorruptionErrorf("minidump: unsupported version %#x", redact.Safe(h.Version))
	}

	if uint64(h.NumberOfStreams)*directorySize > uint64(len(data)) {
		return nil, base.CorruptionErrorf("minidump: %d streams cannot fit in %d bytes",
			redact.Safe(h.NumberOfStreams), redact.Safe(len(data)))
	}
	dirLoc := Location{
		DataSize: h.NumberOfStreams * directorySize,
		RVA:      h.StreamDirectoryRVA,
	}
	raw, err := d.slice(dirLoc)
	if err != nil {
		return nil, errors.Wrap(err, "minidump: stream directory")
	}
	d.directory = make([]Directory, h.NumberOfStreams)
	for i := range d.directory {
		e := raw[i*directorySize:]
		d.directory[i] = Directory{
			Type: StreamType(binary.LittleEndian.Uint32(e[0:])),
			Location: Location{
				DataSize: binary.LittleEndian.Uint32(e[4:]),
				RVA:      binary.LittleEndian.Uint32(e[8:]),
			},
		}
	}
	return d, nil
}

// Len returns the size of the underlying file.
func (d *Dump) Len() int {
	return len(d.data)
}

// Header returns the file header.
func (d *Dump) Header() Header {
	return d.header
}

// Streams returns the stream directory in file order.
func (d *Dump) Streams() []Directory {
	return d.directory
}

// Stream returns the first directory entry of the given type.
func (d *Dump) Stream(t StreamType) (Directory, bool) {
	for _, e := range d.directory {
		if e.Type == t {
			return e, true
		}
	}
	return Directory{}, false
}

// Bytes returns the raw bytes at loc, or an error if loc is not contained in
// the file.
func (d *Dump) Bytes(loc Location) ([]byte, error) {
	return d.slice(loc)
}

func (d *Dump) slice(loc Location) ([]byte, error) {
	if loc.End() > uint64(len(d.data)) {
		return nil, base.CorruptionErrorf("minidump: %s extends past end of file (%d bytes)",
			loc, redact.Safe(len(d.data)))
	}
	return d.data[loc.RVA:loc.End()], nil
}

func (d *Dump) stream(t StreamType) ([]byte, error) {
	e, ok := d.Stream(t)
	if !ok {
		return nil, errors.Wrapf(ErrStreamNotFound, "%s", t)
	}
	b, err := d.slice(e.Location)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", t)
	}
	return b, nil
}

// list returns the entries of a count-prefixed list stream. Some writers pad
// the 4-byte count to 8 bytes; that layout is detected from the stream size.
func (d *Dump) list(t StreamType, entrySize int) (count int, entries []byte, _ error) {
	b, err := d.stream(t)
	if err != nil {
		return 0, nil, err
	}
	if len(b) < 4 {
		return 0, nil, base.CorruptionErrorf("minidump: %s too short (%d bytes)", t, redact.Safe(len(b)))
	}
	n := uint64(binary.LittleEndian.Uint32(b))
	want := 4 + n*uint64(entrySize)
	switch {
	case uint64(len(b)) == want+4:
		b = b[8:]
	case uint64(len(b)) >= want:
		b = b[4:]
	default:
		return 0, nil, base.CorruptionErrorf("minidump: %s holds %d entries but is only %d bytes",
			t, redact.Safe(n), redact.Safe(len(b)))
	}
	return int(n), b[:n*uint64(entrySize)], nil
}

// SystemInfo decodes the SystemInfo stream.
func (d *Dump) SystemInfo() (SystemInfo, error) {
	b, err := d.stream(SystemInfoStream)
	if err != nil {
		return SystemInfo{}, err
	}
	if len(b) < systemInfoSize {
		return SystemInfo{}, base.CorruptionErrorf("minidump: %s too short (%d bytes)",
			SystemInfoStream, redact.Safe(len(b)))
	}
	return SystemInfo{
		Arch:          Arch(binary.LittleEndian.Uint16(b[0:])),
		Level:         binary.LittleEndian.Uint16(b[2:]),
		Revision:      binary.LittleEndian.Uint16(b[4:]),
		NumProcessors: b[6],
		ProductType:   b[7],
		MajorVersion:  binary.LittleEndian.Uint32(b[8:]),
		MinorVersion:  binary.LittleEndian.Uint32(b[12:]),
		BuildNumber:   binary.LittleEndian.Uint32(b[16:]),
		PlatformID:    binary.LittleEndian.Uint32(b[20:]),
	}, nil
}

// Modules decodes the ModuleList stream, including module names.
func (d *Dump) Modules() ([]Module, error) {
	n, b, err := d.list(ModuleListStream, moduleSize)
	if err != nil {
		return nil, err
	}
	mods := make([]Module, n)
	for i := range mods {
		e := b[i*moduleSize:]
		m := &mods[i]
		m.Base = binary.LittleEndian.Uint64(e[0:])
		m.Size = binary.LittleEndian.Uint32(e[8:])
		m.Checksum = binary.LittleEndian.Uint32(e[12:])
		m.TimeDateStamp = binary.LittleEndian.Uint32(e[16:])
		m.NameRVA = binary.LittleEndian.Uint32(e[20:])
		if m.Name, err = d.ReadString(m.NameRVA); err != nil {
			return nil, errors.Wrapf(err, "module %d", redact.Safe(i))
		}
	}
	return mods, nil
}

// Threads decodes the ThreadList stream.
func (d *Dump) Threads() ([]Thread, error) {
	n, b, err := d.list(ThreadListStream, threadSize)
	if err != nil {
		return nil, err
	}
	threads := make([]Thread, n)
	for i := range threads {
		e := b[i*threadSize:]
		threads[i] = Thread{
			ID:            binary.LittleEndian.Uint32(e[0:]),
			SuspendCount:  binary.LittleEndian.Uint32(e[4:]),
			PriorityClass: binary.LittleEndian.Uint32(e[8:]),
			Priority:      binary.LittleEndian.Uint32(e[12:]),
			TEB:           binary.LittleEndian.Uint64(e[16:]),
			Stack:         decodeMemoryDescriptor(e[24:]),
			Context: Location{
				DataSize: binary.LittleEndian.Uint32(e[40:]),
				RVA:      binary.LittleEndian.Uint32(e[44:]),
			},
		}
	}
	return threads, nil
}

// MemoryList decodes the MemoryList stream. The descriptors are returned in
// file order; their Memory locations are not checked against the file size.
func (d *Dump) MemoryList() ([]MemoryDescriptor, error) {
	n, b, err := d.list(MemoryListStream, memoryDescriptorSize)
	if err != nil {
		return nil, err
	}
	descs := make([]MemoryDescriptor, n)
	for i := range descs {
		descs[i] = decodeMemoryDescriptor(b[i*memoryDescriptorSize:])
	}
	return descs, nil
}

func decodeMemoryDescriptor(b []byte) MemoryDescriptor {
	return MemoryDescriptor{
		StartOfMemoryRange: binary.LittleEndian.Uint64(b[0:]),
		Memory: Location{
			DataSize: binary.LittleEndian.Uint32(b[8:]),
			RVA:      binary.LittleEndian.Uint32(b[12:]),
		},
	}
}

// ReadString decodes the MINIDUMP_STRING at rva: a byte length followed by that
// many bytes of UTF-16LE text.
func (d *Dump) ReadString(rva uint32) (string, error) {
	lb, err := d.slice(Location{DataSize: 4, RVA: rva})
	if err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint32(lb)
	if n%2 != 0 {
		return "", base.CorruptionErrorf("minidump: odd UTF-16 string length %d at rva %d",
			redact.Safe(n), redact.Safe(rva))
	}
	raw, err := d.slice(Location{DataSize: n, RVA: rva + 4})
	if err != nil {
		return "", err
	}
	s, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	if err != nil {
		return "", base.MarkCorruptionError(errors.Wrapf(err, "minidump: string at rva %d", redact.Safe(rva)))
	}
	return string(s), nil
}
