// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scrub

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/ptrscrub/vfs"
	"github.com/cockroachdb/redact"
	"gopkg.in/yaml.v3"
)

// DefaultAllow is the allow-list used when none is configured: the Firefox
// install directory and the Windows system library directory.
var DefaultAllow = []string{
	`C:\Program Files\Mozilla Firefox`,
	`C:\Windows\System32`,
}

// TrustPolicy decides whether the modules loaded in a dump are trusted. A
// module is trusted if its path starts with one of the Allow prefixes. The
// check is all-or-nothing: a dump with any untrusted module is not scrubbed.
//
// With all options off, matching is a plain byte-wise prefix test.
type TrustPolicy struct {
	// Allow is the list of trusted path prefixes.
	Allow []string `yaml:"allow"`
	// CaseInsensitive compares paths without regard to case.
	CaseInsensitive bool `yaml:"case_insensitive"`
	// NormalizeSeparators treats '/' and '\' as the same character.
	NormalizeSeparators bool `yaml:"normalize_separators"`
	// DirBoundary requires the prefix to end at a path separator, so that
	// `C:\Windows\System32` does not trust `C:\Windows\System32evil\x.dll`.
	DirBoundary bool `yaml:"dir_boundary"`
}

// DefaultTrustPolicy returns a policy that allows DefaultAllow with plain
// prefix matching.
func DefaultTrustPolicy() *TrustPolicy {
	return &TrustPolicy{Allow: append([]string(nil), DefaultAllow...)}
}

// ParseTrustPolicy parses a YAML trust policy. Unknown fields are rejected.
func ParseTrustPolicy(data []byte) (*TrustPolicy, error) {
	p := &TrustPolicy{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, errors.Wrap(err, "ptrscrub: parsing trust policy")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadTrustPolicy reads and parses a YAML trust policy file.
func LoadTrustPolicy(fs vfs.FS, path string) (*TrustPolicy, error) {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "ptrscrub: reading trust policy %s", path)
	}
	return ParseTrustPolicy(data)
}

// Validate returns an error if the policy is unusable.
func (p *TrustPolicy) Validate() error {
	for i, prefix := range p.Allow {
		if prefix == "" {
			return errors.Newf("ptrscrub: trust policy entry %d is empty", redact.Safe(i))
		}
	}
	return nil
}

func isSeparator(c byte) bool {
	return c == '\\' || c == '/'
}

func (p *TrustPolicy) canonical(s string) string {
	if p.NormalizeSeparators {
		s = strings.ReplaceAll(s, "/", `\`)
	}
	if p.CaseInsensitive {
		s = strings.ToLower(s)
	}
	return s
}

// Trusted returns true if name is covered by one of the allowed prefixes.
func (p *TrustPolicy) Trusted(name string) bool {
	name = p.canonical(name)
	for _, prefix := range p.Allow {
		prefix = p.canonical(prefix)
		if prefix == "" || !strings.HasPrefix(name, prefix) {
			continue
		}
		if !p.DirBoundary || len(name) == len(prefix) ||
			isSeparator(prefix[len(prefix)-1]) || isSeparator(name[len(prefix)]) {
			return true
		}
	}
	return false
}

// Check returns an error marked ErrUntrustedModule naming the first module
// that is not trusted, or nil if all modules are trusted.
func (p *TrustPolicy) Check(mods []ModuleRecord) error {
	for _, m := range mods {
		if !p.Trusted(m.Name) {
			return untrusted(m.Name)
		}
	}
	return nil
}

// SafeFormat implements redact.SafeFormatter.
func (p *TrustPolicy) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("allow=%v", p.Allow)
	if p.CaseInsensitive {
		w.SafeString(" case-insensitive")
	}
	if p.NormalizeSeparators {
		w.SafeString(" normalize-separators")
	}
	if p.DirBoundary {
		w.SafeString(" dir-boundary")
	}
}

func (p *TrustPolicy) String() string {
	return redact.StringWithoutMarkers(p)
}
