// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"encoding/binary"
	"os"
	"strconv"
	"testing"

	"github.com/cockroachdb/ptrscrub/internal/base"
	"github.com/cockroachdb/ptrscrub/internal/dumptest"
	"github.com/cockroachdb/ptrscrub/minidump"
	"github.com/cockroachdb/ptrscrub/vfs"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const (
	firefoxExe = `C:\Program Files\Mozilla Firefox\firefox.exe`
	ntdll      = `C:\Windows\System32\ntdll.dll`
	injected   = `C:\Users\me\AppData\Local\Temp\inject.dll`
)

// writeDump builds a dump with a single thread whose 20-byte stack holds a
// pointer into firefox.exe, a heap pointer and a 4-byte tail.
func writeDump(t *testing.T, fs *vfs.MemFS, name string, modules ...string) (src []byte, stackRVA uint32) {
	b := dumptest.New(minidump.ArchAMD64)
	for i, m := range modules {
		b.AddModule(m, 0x7ff600000000+uint64(i)<<32, 0x10000)
	}
	var stack []byte
	stack = binary.LittleEndian.AppendUint64(stack, 0x7ff600000040)
	stack = binary.LittleEndian.AppendUint64(stack, 0x00000219deadbeef)
	stack = append(stack, 1, 2, 3, 4)
	b.AddThread(7, b.AddMemory(0x5000, stack))
	b.AddStream(minidump.MiscInfoStream, make([]byte, 24))
	src, layout := b.Build()
	require.NoError(t, vfs.WriteFileAtomic(fs, name, src))
	return src, layout.Memory[0].RVA
}

func runTool(t *testing.T, fs vfs.FS, args ...string) (output string, exitCode int) {
	var buf bytes.Buffer
	osExit = func(code int) { exitCode = code }
	defer func() { osExit = os.Exit }()

	c := &cobra.Command{Use: "ptrscrub"}
	c.AddCommand(New(FS(fs), Logger(base.NoopLogger{})).Commands...)
	c.SetArgs(args)
	c.SetOut(&buf)
	c.SetErr(&buf)
	require.NoError(t, c.Execute())
	return buf.String(), exitCode
}

func TestStreams(t *testing.T) {
	fs := vfs.NewMem()
	writeDump(t, fs, "crash.dmp", firefoxExe)
	out, code := runTool(t, fs, "minidump", "streams", "crash.dmp")
	require.Zero(t, code, out)
	require.Contains(t, out, "version=0xa793 streams=5")
	for _, s := range []string{"SystemInfoStream", "ModuleListStream", "ThreadListStream", "MemoryListStream", "MiscInfoStream"} {
		require.Contains(t, out, s)
	}

	out, code = runTool(t, fs, "minidump", "streams", "missing.dmp")
	require.Equal(t, 1, code)
	require.Contains(t, out, "missing.dmp")
}

func TestStreamsCorrupt(t *testing.T) {
	fs := vfs.NewMem()
	require.NoError(t, vfs.WriteFileAtomic(fs, "junk.dmp", []byte("MDMPjunk")))
	out, code := runTool(t, fs, "minidump", "streams", "junk.dmp")
	require.Equal(t, 1, code)
	require.Contains(t, out, "junk.dmp")
}

func TestModules(t *testing.T) {
	fs := vfs.NewMem()
	writeDump(t, fs, "crash.dmp", firefoxExe, injected)
	out, code := runTool(t, fs, "minidump", "modules", "crash.dmp")
	require.Zero(t, code, out)
	require.Regexp(t, `0x7ff600000000\s+0x10000\s+yes\s+C:\\Program Files\\Mozilla Firefox\\firefox.exe`, out)
	require.Regexp(t, `0x7ff700000000\s+0x10000\s+no\s+C:\\Users`, out)

	out, code = runTool(t, fs, "minidump", "modules", "--allow", `C:\Users\me`, "crash.dmp")
	require.Zero(t, code, out)
	require.Regexp(t, `0x7ff600000000\s+0x10000\s+no`, out)
	require.Regexp(t, `0x7ff700000000\s+0x10000\s+yes`, out)
}

func TestThreads(t *testing.T) {
	fs := vfs.NewMem()
	_, rva := writeDump(t, fs, "crash.dmp", firefoxExe)
	out, code := runTool(t, fs, "minidump", "threads", "crash.dmp")
	require.Zero(t, code, out)
	require.Regexp(t, `7\s+0x5000\s+`+strconv.Itoa(int(rva))+`\s+20\s+yes`, out)
}

func TestRegions(t *testing.T) {
	fs := vfs.NewMem()
	writeDump(t, fs, "crash.dmp", firefoxExe)
	out, code := runTool(t, fs, "minidump", "regions", "--explain", "--hex", "crash.dmp")
	require.Zero(t, code, out)
	require.Contains(t, out, "1 regions, ")
	require.Contains(t, out, "region size: mean: 20 p50: 20 p90: 20 max: 20")
	require.Contains(t, out, "| @.....")
	require.Contains(t, out, "x 40000000f67f0000 # keep 0x7ff600000040 firefox.exe+0x40")
	require.Contains(t, out, "x efbeadde19020000 # zero 0x219deadbeef")
	require.Contains(t, out, "x 01020304         # tail")
}

func TestCheck(t *testing.T) {
	fs := vfs.NewMem()
	writeDump(t, fs, "good.dmp", firefoxExe, ntdll)
	out, code := runTool(t, fs, "minidump", "check", "good.dmp")
	require.Zero(t, code, out)
	require.Contains(t, out, "good.dmp: ok: 2 modules (2 ranges), 1 threads, 1 regions, pointer width 8")
	require.Contains(t, out, "xxhash64: ")

	writeDump(t, fs, "bad.dmp", firefoxExe, injected)
	out, code = runTool(t, fs, "minidump", "check", "bad.dmp")
	require.Equal(t, 1, code)
	require.Contains(t, out, injected)
	require.Contains(t, out, "(untrusted_module)")
	require.Equal(t, []string{"bad.dmp", "good.dmp"}, fs.List())
}

func TestScrub(t *testing.T) {
	fs := vfs.NewMem()
	src, rva := writeDump(t, fs, "crash.dmp", firefoxExe, ntdll)
	out, code := runTool(t, fs, "minidump", "scrub", "--metrics-file", "scrub.prom", "crash.dmp")
	require.Zero(t, code, out)
	require.Contains(t, out, "20 (")
	require.Contains(t, out, "bytes considered,")

	got, err := vfs.ReadFile(fs, "filtered.dmp")
	require.NoError(t, err)
	require.Len(t, got, len(src))
	want := bytes.Clone(src)
	clear(want[rva+8 : rva+16])
	require.Equal(t, want, got)

	metrics, err := vfs.ReadFile(fs, "scrub.prom")
	require.NoError(t, err)
	require.Contains(t, string(metrics), `ptrscrub_runs_total{outcome="ok"} 1`)
	require.Contains(t, string(metrics), "ptrscrub_bytes_zeroed_total 8")
	require.Contains(t, string(metrics), "ptrscrub_bytes_considered_total 20")

	// Scrubbing the scrubbed dump changes nothing.
	out, code = runTool(t, fs, "minidump", "scrub", "-o", "twice.dmp", "-c", "4", "filtered.dmp")
	require.Zero(t, code, out)
	twice, err := vfs.ReadFile(fs, "twice.dmp")
	require.NoError(t, err)
	require.Equal(t, got, twice)
}

func TestScrubUntrustedModule(t *testing.T) {
	fs := vfs.NewMem()
	writeDump(t, fs, "crash.dmp", firefoxExe, injected)
	out, code := runTool(t, fs, "minidump", "scrub", "--metrics-file", "scrub.prom", "crash.dmp")
	require.Equal(t, 1, code)
	require.Contains(t, out, injected)
	// No output, not even a temporary file.
	require.Equal(t, []string{"crash.dmp", "scrub.prom"}, fs.List())

	metrics, err := vfs.ReadFile(fs, "scrub.prom")
	require.NoError(t, err)
	require.Contains(t, string(metrics), `ptrscrub_runs_total{outcome="untrusted_module"} 1`)
}

func TestScrubInconsistentStack(t *testing.T) {
	fs := vfs.NewMem()
	b := dumptest.New(minidump.ArchX86)
	b.AddModule(ntdll, 0x77000000, 0x100000)
	b.AddMemory(0x1000, make([]byte, 16))
	b.AddThreadWithStack(3, minidump.Location{RVA: 100, DataSize: 200})
	src, _ := b.Build()
	require.NoError(t, vfs.WriteFileAtomic(fs, "crash.dmp", src))

	out, code := runTool(t, fs, "minidump", "scrub", "crash.dmp")
	require.Equal(t, 1, code)
	require.Contains(t, out, "thread 3: region (rva=100, size=200): stack is not in the memory list")
	require.Equal(t, []string{"crash.dmp"}, fs.List())
}

func TestScrubPolicyFile(t *testing.T) {
	fs := vfs.NewMem()
	writeDump(t, fs, "crash.dmp", firefoxExe, `c:/users/me/appdata/local/temp/inject.dll`)
	require.NoError(t, vfs.WriteFileAtomic(fs, "policy.yaml", []byte(`
allow:
  - 'C:\Program Files\Mozilla Firefox'
  - 'C:\Users\me\AppData'
case_insensitive: true
`)))

	// Separators differ, so the policy alone is not enough.
	out, code := runTool(t, fs, "minidump", "scrub", "--policy", "policy.yaml", "crash.dmp")
	require.Equal(t, 1, code, out)

	out, code = runTool(t, fs, "minidump", "scrub", "--policy", "policy.yaml",
		"--normalize-separators", "--dir-boundary", "-v", "crash.dmp")
	require.Zero(t, code, out)
	require.Contains(t, out, "MemoryListStream")
	require.Contains(t, out, "wrote filtered.dmp")

	out, code = runTool(t, fs, "minidump", "scrub", "--policy", "nope.yaml", "crash.dmp")
	require.Equal(t, 1, code)
	require.Contains(t, out, "nope.yaml")
}
