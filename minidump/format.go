// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package minidump

import (
	"fmt"

	"github.com/cockroachdb/redact"
)

const (
	// Signature is "MDMP" read as a little-endian uint32.
	Signature = 0x504d444d
	// Version is the low word of the header version field.
	Version = 0xa793

	headerSize           = 32
	directorySize        = 12
	systemInfoSize       = 56
	moduleSize           = 108
	threadSize           = 48
	memoryDescriptorSize = 16
)

// StreamType identifies the contents of a stream in the stream directory.
type StreamType uint32

// Stream types. Only SystemInfo, ModuleList, ThreadList and MemoryList are
// decoded; the rest are named for diagnostics.
const (
	UnusedStream              StreamType = 0
	ThreadListStream          StreamType = 3
	ModuleListStream          StreamType = 4
	MemoryListStream          StreamType = 5
	ExceptionStream           StreamType = 6
	SystemInfoStream          StreamType = 7
	ThreadExListStream        StreamType = 8
	Memory64ListStream        StreamType = 9
	CommentStreamA            StreamType = 10
	CommentStreamW            StreamType = 11
	HandleDataStream          StreamType = 12
	FunctionTableStream       StreamType = 13
	UnloadedModuleListStream  StreamType = 14
	MiscInfoStream            StreamType = 15
	MemoryInfoListStream      StreamType = 16
	ThreadInfoListStream      StreamType = 17
	HandleOperationListStream StreamType = 18
	TokenStream               StreamType = 19
	JavaScriptDataStream      StreamType = 20
	SystemMemoryInfoStream    StreamType = 21
	ProcessVMCountersStream   StreamType = 22
	IptTraceStream            StreamType = 23
	ThreadNamesStream         StreamType = 24

	BreakpadInfoStream     StreamType = 0x47670001
	AssertionInfoStream    StreamType = 0x47670002
	LinuxCPUInfoStream     StreamType = 0x47670003
	LinuxProcStatusStream  StreamType = 0x47670004
	LinuxLSBReleaseStream  StreamType = 0x47670005
	LinuxCmdLineStream     StreamType = 0x47670006
	LinuxEnvironStream     StreamType = 0x47670007
	LinuxAuxvStream        StreamType = 0x47670008
	LinuxMapsStream        StreamType = 0x47670009
	LinuxDSODebugStream    StreamType = 0x4767000a
	CrashpadInfoStream     StreamType = 0x43500001
	MozMacosCrashInfo      StreamType = 0x4d7a0001
	MozLinuxLimitsStream   StreamType = 0x4d7a0003
	MozSoftErrorsStream    StreamType = 0x4d7a0004
	MozMacosBootargsStream StreamType = 0x4d7a0005
)

var streamTypeNames = map[StreamType]string{
	UnusedStream:              "UnusedStream",
	ThreadListStream:          "ThreadListStream",
	ModuleListStream:          "ModuleListStream",
	MemoryListStream:          "MemoryListStream",
	ExceptionStream:           "ExceptionStream",
	SystemInfoStream:          "SystemInfoStream",
	ThreadExListStream:        "ThreadExListStream",
	Memory64ListStream:        "Memory64ListStream",
	CommentStreamA:            "CommentStreamA",
	CommentStreamW:            "CommentStreamW",
	HandleDataStream:          "HandleDataStream",
	FunctionTableStream:       "FunctionTableStream",
	UnloadedModuleListStream:  "UnloadedModuleListStream",
	MiscInfoStream:            "MiscInfoStream",
	MemoryInfoListStream:      "MemoryInfoListStream",
	ThreadInfoListStream:      "ThreadInfoListStream",
	HandleOperationListStream: "HandleOperationListStream",
	TokenStream:               "TokenStream",
	JavaScriptDataStream:      "JavaScriptDataStream",
	SystemMemoryInfoStream:    "SystemMemoryInfoStream",
	ProcessVMCountersStream:   "ProcessVmCountersStream",
	IptTraceStream:            "IptTraceStream",
	ThreadNamesStream:         "ThreadNamesStream",
	BreakpadInfoStream:        "BreakpadInfoStream",
	AssertionInfoStream:       "AssertionInfoStream",
	LinuxCPUInfoStream:        "LinuxCpuInfo",
	LinuxProcStatusStream:     "LinuxProcStatus",
	LinuxLSBReleaseStream:     "LinuxLsbRelease",
	LinuxCmdLineStream:        "LinuxCmdLine",
	LinuxEnvironStream:        "LinuxEnviron",
	LinuxAuxvStream:           "LinuxAuxv",
	LinuxMapsStream:           "LinuxMaps",
	LinuxDSODebugStream:       "LinuxDsoDebug",
	CrashpadInfoStream:        "CrashpadInfoStream",
	MozMacosCrashInfo:         "MozMacosCrashInfoStream",
	MozLinuxLimitsStream:      "MozLinuxLimits",
	MozSoftErrorsStream:       "MozSoftErrors",
	MozMacosBootargsStream:    "MozMacosBootargsStream",
}

// String implements fmt.Stringer.
func (t StreamType) String() string {
	if s, ok := streamTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(%#x)", uint32(t))
}

// SafeFormat implements redact.SafeFormatter.
func (t StreamType) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(t.String()))
}

// Arch is the processor architecture recorded in the SystemInfo stream.
type Arch uint16

// Processor architectures, as written by Windows and by Breakpad/Crashpad.
const (
	ArchX86      Arch = 0
	ArchMIPS     Arch = 1
	ArchAlpha    Arch = 2
	ArchPPC      Arch = 3
	ArchSHX      Arch = 4
	ArchARM      Arch = 5
	ArchIA64     Arch = 6
	ArchAlpha64  Arch = 7
	ArchMSIL     Arch = 8
	ArchAMD64    Arch = 9
	ArchX86Win64 Arch = 10
	ArchARM64    Arch = 12
	ArchSPARC    Arch = 0x8001
	ArchPPC64    Arch = 0x8002
	ArchARM64Old Arch = 0x8003
	ArchMIPS64   Arch = 0x8004
	ArchRISCV    Arch = 0x8005
	ArchRISCV64  Arch = 0x8006
	ArchUnknown  Arch = 0xffff
)

var archNames = map[Arch]string{
	ArchX86:      "x86",
	ArchMIPS:     "mips",
	ArchAlpha:    "alpha",
	ArchPPC:      "ppc",
	ArchSHX:      "shx",
	ArchARM:      "arm",
	ArchIA64:     "ia64",
	ArchAlpha64:  "alpha64",
	ArchMSIL:     "msil",
	ArchAMD64:    "amd64",
	ArchX86Win64: "x86-win64",
	ArchARM64:    "arm64",
	ArchSPARC:    "sparc",
	ArchPPC64:    "ppc64",
	ArchARM64Old: "arm64-old",
	ArchMIPS64:   "mips64",
	ArchRISCV:    "riscv",
	ArchRISCV64:  "riscv64",
	ArchUnknown:  "unknown",
}

// String implements fmt.Stringer.
func (a Arch) String() string {
	if s, ok := archNames[a]; ok {
		return s
	}
	return fmt.Sprintf("arch(%#x)", uint16(a))
}

// PointerWidth returns the size in bytes of a native pointer on a. It
// returns false for architectures whose pointer width is not known.
func (a Arch) PointerWidth() (int, bool) {
	switch a {
	case ArchX86, ArchMIPS, ArchPPC, ArchARM, ArchSPARC, ArchRISCV:
		return 4, true
	case ArchAMD64, ArchIA64, ArchARM64, ArchARM64Old, ArchPPC64, ArchMIPS64, ArchRISCV64:
		return 8, true
	default:
		return 0, false
	}
}
