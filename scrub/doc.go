// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package scrub removes pointer-like values from crash dumps.
//
// A scrub run is a one-shot batch transformation of the bytes of a minidump:
//
//  1. The TrustPolicy checks that every loaded module lives under an allowed
//     path. A single untrusted module aborts the run.
//  2. VerifyStacks checks that every thread's stack is one of the captured
//     memory regions, and VerifyRegions checks that every region lies inside
//     the file.
//  3. An AddressIndex is built from the module list.
//  4. A copy of the input is made and every captured memory region is walked
//     in pointer-width strides. Each aligned window whose little-endian value
//     does not fall inside a module's mapped range is overwritten with zeros.
//
// Bytes outside the captured memory regions are never modified and the output
// always has the same length as the input. If any step fails, no output is
// produced.
package scrub
