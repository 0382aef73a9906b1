// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

// Package codec provides the standard CBOR encoding configuration for
// persisted state: job records and completion records written by the
// runner. JSON remains the format for CLI output; CBOR with Core
// Deterministic Encoding is used on disk so that the same logical
// record always produces identical bytes.
//
// fxamacker/cbor reads `json` struct tags as fallback when `cbor` tags
// are absent, so a single `json` tag controls field naming for both
// formats. Types that are only ever written as CBOR use `cbor` tags.
package codec
