// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package artifact

import (
	"fmt"
	"strconv"
)

// DefaultFilename is the intrinsic filename a File carries when it was
// constructed from raw content without a name. The filename negotiator
// treats it as "no intrinsic filename" and falls back to the artifact's
// key instead.
const DefaultFilename = "file.txt"

// Artifact is a typed unit of data passed into or produced by a shell
// job. The set of implementations is closed: Scalar, File, Folder, and
// Remote. Each variant has different staging semantics - see the
// shelljob package.
type Artifact interface {
	// Kind returns the variant tag for this artifact.
	Kind() Kind
}

// Kind identifies an artifact variant.
type Kind int

const (
	// KindScalar is an opaque value rendered to a string for argument
	// interpolation. Never written to disk.
	KindScalar Kind = iota
	// KindFile is byte content with an optional intrinsic filename.
	KindFile
	// KindFolder is a recursive collection of named byte blobs forming
	// a directory tree.
	KindFolder
	// KindRemote is a reference to a path on a remote host. Handled via
	// copy or symlink instructions, never materialized locally.
	KindRemote
)

// String returns the variant name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	case KindRemote:
		return "remote"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Scalar is an opaque value artifact. Its rendered string form is
// substituted directly into the argument vector; it is never written to
// the working directory.
type Scalar struct {
	Value any
}

// Kind implements Artifact.
func (s *Scalar) Kind() Kind { return KindScalar }

// Render returns the string form of the scalar value. Only values with
// an unambiguous textual representation are supported: strings,
// booleans, integers, floats, and types implementing fmt.Stringer.
// Anything else is a configuration error, caught during descriptor
// validation before staging begins.
func (s *Scalar) Render() (string, error) {
	switch value := s.Value.(type) {
	case string:
		return value, nil
	case bool:
		return strconv.FormatBool(value), nil
	case int:
		return strconv.Itoa(value), nil
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", value), nil
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", value), nil
	case float32:
		return strconv.FormatFloat(float64(value), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64), nil
	case fmt.Stringer:
		return value.String(), nil
	case nil:
		return "", fmt.Errorf("scalar value is nil")
	}
	return "", fmt.Errorf("scalar value of type %T cannot be rendered to a string", s.Value)
}

// File is a single-file artifact: byte content plus an optional
// intrinsic filename. When Filename is empty or equal to
// [DefaultFilename], the filename negotiator uses the artifact's key as
// the staged filename instead.
type File struct {
	Content  []byte
	Filename string
}

// Kind implements Artifact.
func (f *File) Kind() Kind { return KindFile }

// NewFile constructs a File from raw content with no intrinsic
// filename.
func NewFile(content []byte) *File {
	return &File{Content: content, Filename: DefaultFilename}
}

// Folder is a directory-tree artifact: an ordered collection of
// slash-separated relative paths and their byte content. Order is
// preserved through staging and archiving.
type Folder struct {
	Files []FolderFile
}

// FolderFile is one regular file inside a Folder. Path is
// slash-separated and relative to the folder root.
type FolderFile struct {
	Path    string
	Content []byte
}

// Kind implements Artifact.
func (f *Folder) Kind() Kind { return KindFolder }

// TopLevelNames returns the distinct first path segments of the
// folder's entries, in first-appearance order. The filename negotiator
// checks these against reserved names: folder contents are copied
// verbatim by the host engine, so a collision cannot be repaired by
// renaming.
func (f *Folder) TopLevelNames() []string {
	seen := make(map[string]bool, len(f.Files))
	var names []string
	for _, file := range f.Files {
		name := file.Path
		for i := 0; i < len(name); i++ {
			if name[i] == '/' {
				name = name[:i]
				break
			}
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Remote references a path on a specific remote host. The content is
// not resident locally; staging produces a copy or symlink instruction
// instead of writing bytes.
type Remote struct {
	// HostIdentity identifies the computer holding the path, in
	// whatever form the host engine's transport layer understands
	// (a UUID, a hostname, a label).
	HostIdentity string

	// Path is the absolute remote directory whose contents are to be
	// made available in the working directory.
	Path string
}

// Kind implements Artifact.
func (r *Remote) Kind() Kind { return KindRemote }
