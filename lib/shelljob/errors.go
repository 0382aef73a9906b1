// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package shelljob

import "errors"

// Configuration errors. These are raised synchronously by [New] or
// [Descriptor.Prepare], before any external execution, and abort the
// invocation immediately. Execution outcomes after the command has run
// are never Go errors - see [Outcome].
var (
	// ErrMalformedArgument indicates an argument token containing more
	// than one placeholder. A token is either a pure literal or a
	// single substitution site.
	ErrMalformedArgument = errors.New("malformed argument")

	// ErrUnboundPlaceholder indicates a placeholder whose key has no
	// entry in the nodes mapping.
	ErrUnboundPlaceholder = errors.New("unbound placeholder")

	// ErrReservedOverlap indicates a collision with one of the
	// reserved filenames (status, stderr, stdout) that cannot be
	// repaired by renaming: an explicit filenames entry, an output
	// pattern, or a folder artifact's first-level content.
	ErrReservedOverlap = errors.New("reserved filename overlap")

	// ErrFilenameCollision indicates two distinct node keys finalizing
	// to the same staged filename.
	ErrFilenameCollision = errors.New("filename collision")

	// ErrUnsupportedArtifact indicates a node value that is not one of
	// the four artifact variants, or a scalar whose value cannot be
	// rendered to a string.
	ErrUnsupportedArtifact = errors.New("unsupported artifact type")

	// ErrInvalidHook indicates a parser hook that is empty, has an
	// unregistered name, or does not match an accepted call shape.
	ErrInvalidHook = errors.New("invalid parser hook")
)
