// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

// Package testutil provides shared test helpers.
//
// [WriteTree] and [ReadFile] materialize and inspect file trees in
// test temporary directories, since nearly every test in this module
// stages into or harvests from a directory.
//
// [SequentialEntropy] replaces the random disambiguation suffix source
// with a deterministic counter so filename-collision tests can assert
// exact staged names.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
