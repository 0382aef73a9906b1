// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package artifact

import (
	"bytes"
	"testing"
)

func TestArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	folder := &Folder{Files: []FolderFile{
		{Path: "data/input.txt", Content: []byte("input")},
		{Path: "run.sh", Content: []byte("#!/bin/sh\necho hi\n")},
		{Path: "empty.txt", Content: nil},
	}}

	var buffer bytes.Buffer
	if err := WriteArchive(&buffer, folder); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	restored, err := ReadArchive(&buffer)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}

	if len(restored.Files) != len(folder.Files) {
		t.Fatalf("restored %d entries, want %d", len(restored.Files), len(folder.Files))
	}
	for i, file := range folder.Files {
		if restored.Files[i].Path != file.Path {
			t.Fatalf("entry %d path = %q, want %q", i, restored.Files[i].Path, file.Path)
		}
		if !bytes.Equal(restored.Files[i].Content, file.Content) {
			t.Fatalf("entry %d content mismatch", i)
		}
	}

	// The archive preserves the content hash.
	if HashFolder(restored) != HashFolder(folder) {
		t.Fatal("archive round trip changed the folder hash")
	}
}

func TestArchiveDeterministic(t *testing.T) {
	t.Parallel()

	folder := &Folder{Files: []FolderFile{
		{Path: "a.txt", Content: []byte("a")},
		{Path: "b.txt", Content: []byte("b")},
	}}

	var first, second bytes.Buffer
	if err := WriteArchive(&first, folder); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	if err := WriteArchive(&second, folder); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Fatal("same folder produced different archive bytes")
	}
}

func TestArchiveEmptyFolder(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	if err := WriteArchive(&buffer, &Folder{}); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	restored, err := ReadArchive(&buffer)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(restored.Files) != 0 {
		t.Fatalf("restored %d entries, want 0", len(restored.Files))
	}
}
