// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scrub

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

var (
	// ErrUntrustedModule marks errors reporting a module that is not covered
	// by the trust policy. The dump is not eligible for scrubbing.
	ErrUntrustedModule = errors.New("ptrscrub: untrusted module")

	// ErrInconsistentDump marks errors reporting a dump whose structure cannot
	// be scrubbed safely, e.g. a thread stack that is not a captured region.
	ErrInconsistentDump = errors.New("ptrscrub: inconsistent dump")

	// ErrMalformedModuleData marks errors reporting a module whose address
	// range wraps around the address space.
	ErrMalformedModuleData = errors.New("ptrscrub: malformed module data")

	// ErrMissingStream marks errors reporting that one of the streams needed
	// to scrub a dump is absent.
	ErrMissingStream = errors.New("ptrscrub: missing required stream")

	// ErrUnknownArch marks errors reporting a CPU architecture whose pointer
	// width is not known.
	ErrUnknownArch = errors.New("ptrscrub: unknown pointer width")
)

// UntrustedModuleError identifies the first module rejected by a
// TrustPolicy. The module path is treated as sensitive when the error is
// printed with redaction markers.
type UntrustedModuleError struct {
	Name string
}

func (e *UntrustedModuleError) Error() string {
	return fmt.Sprint(e)
}

// Format implements fmt.Formatter.
func (e *UntrustedModuleError) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

// SafeFormatError implements errors.SafeFormatter.
func (e *UntrustedModuleError) SafeFormatError(p errors.Printer) (next error) {
	p.Printf("module %s is not covered by the trust policy", e.Name)
	return nil
}

// InconsistentDumpError reports a thread whose stack is not one of the
// captured memory regions, or a region that lies outside the dump.
type InconsistentDumpError struct {
	// ThreadID is set when the error concerns a thread stack.
	ThreadID  uint32
	HasThread bool
	Region    Region
	// Reason describes the violation.
	Reason redact.SafeString
}

func (e *InconsistentDumpError) Error() string {
	return fmt.Sprint(e)
}

// Format implements fmt.Formatter.
func (e *InconsistentDumpError) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

// SafeFormatError implements errors.SafeFormatter.
func (e *InconsistentDumpError) SafeFormatError(p errors.Printer) (next error) {
	if e.HasThread {
		p.Printf("thread %d: ", redact.Safe(e.ThreadID))
	}
	p.Printf("region %s: %s", e.Region, e.Reason)
	return nil
}

// MalformedModuleError reports a module whose range wraps past the end of
// the address space.
type MalformedModuleError struct {
	Module ModuleRecord
}

func (e *MalformedModuleError) Error() string {
	return fmt.Sprint(e)
}

// Format implements fmt.Formatter.
func (e *MalformedModuleError) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

// SafeFormatError implements errors.SafeFormatter.
func (e *MalformedModuleError) SafeFormatError(p errors.Printer) (next error) {
	p.Printf("module %s: base %#x + size %#x overflows the address space",
		e.Module.Name, redact.Safe(e.Module.Base), redact.Safe(e.Module.Size))
	return nil
}

func untrusted(name string) error {
	return errors.Mark(&UntrustedModuleError{Name: name}, ErrUntrustedModule)
}

func inconsistent(e *InconsistentDumpError) error {
	return errors.Mark(e, ErrInconsistentDump)
}

func malformed(m ModuleRecord) error {
	return errors.Mark(&MalformedModuleError{Module: m}, ErrMalformedModuleData)
}
