// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

// Package artifact defines the typed data units a shell job consumes
// and produces.
//
// An [Artifact] is one of four closed variants: [Scalar] (an opaque
// value rendered to a string for argument interpolation), [File] (byte
// content with an optional intrinsic filename), [Folder] (a recursive
// tree of named byte blobs), and [Remote] (a reference to a path on a
// remote host, handled via copy or symlink instructions instead of
// local materialization).
//
// The package also provides BLAKE3 content hashing with domain
// separation ([HashFile], [HashFolder]) for provenance records, and
// zstd-compressed tar archiving ([WriteArchive], [ReadArchive]) for
// persisting folder artifacts.
package artifact
