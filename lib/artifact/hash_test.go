// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package artifact

import (
	"testing"
)

func TestHashFileDeterministic(t *testing.T) {
	t.Parallel()

	first := HashFile([]byte("content"))
	second := HashFile([]byte("content"))
	if first != second {
		t.Fatal("same content produced different hashes")
	}

	if HashFile([]byte("content")) == HashFile([]byte("Content")) {
		t.Fatal("different content produced the same hash")
	}
}

func TestHashDomainSeparation(t *testing.T) {
	t.Parallel()

	content := []byte("same bytes")
	fileHash := HashFile(content)

	folder := &Folder{}
	folderHash := HashFolder(folder)

	if fileHash == folderHash {
		t.Fatal("file and folder domains collide")
	}

	// An empty folder still has a well-defined hash.
	if HashFolder(&Folder{}) != folderHash {
		t.Fatal("empty folder hash not deterministic")
	}
}

func TestHashFolder(t *testing.T) {
	t.Parallel()

	folder := &Folder{Files: []FolderFile{
		{Path: "a.txt", Content: []byte("a")},
		{Path: "b/c.txt", Content: []byte("c")},
	}}

	first := HashFolder(folder)
	second := HashFolder(folder)
	if first != second {
		t.Fatal("same folder produced different hashes")
	}

	// Moving content between path and bytes must change the hash: the
	// entry encoding separates them with a NUL byte.
	shifted := &Folder{Files: []FolderFile{
		{Path: "a.txta", Content: nil},
		{Path: "b/c.txt", Content: []byte("c")},
	}}
	if HashFolder(shifted) == first {
		t.Fatal("path/content boundary not authenticated")
	}

	// Entry order is significant.
	reordered := &Folder{Files: []FolderFile{
		{Path: "b/c.txt", Content: []byte("c")},
		{Path: "a.txt", Content: []byte("a")},
	}}
	if HashFolder(reordered) == first {
		t.Fatal("entry order not reflected in the hash")
	}
}

func TestMerkleRootOddPromotion(t *testing.T) {
	t.Parallel()

	a := HashFile([]byte("a"))
	b := HashFile([]byte("b"))
	c := HashFile([]byte("c"))

	// The promoted odd node must not behave like a duplicated one:
	// [a, b, c] and [a, b, c, c] give different roots.
	three := MerkleRoot(folderDomainKey, []Hash{a, b, c})
	four := MerkleRoot(folderDomainKey, []Hash{a, b, c, c})
	if three == four {
		t.Fatal("odd-node promotion indistinguishable from duplication")
	}

	if MerkleRoot(folderDomainKey, []Hash{a}) != a {
		t.Fatal("single-node tree must return the node itself")
	}
}

func TestFormatParseHash(t *testing.T) {
	t.Parallel()

	hash := HashFile([]byte("round trip"))
	formatted := FormatHash(hash)
	if len(formatted) != 64 {
		t.Fatalf("formatted hash has length %d, want 64", len(formatted))
	}

	parsed, err := ParseHash(formatted)
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if parsed != hash {
		t.Fatal("parse did not invert format")
	}

	if _, err := ParseHash("abcd"); err == nil {
		t.Fatal("short hash accepted")
	}
	if _, err := ParseHash("zz"); err == nil {
		t.Fatal("non-hex hash accepted")
	}
}
