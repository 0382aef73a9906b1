// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTree materializes a file tree under dir. Keys are
// slash-separated relative paths; parent directories are created as
// needed. A key ending in "/" creates an empty directory.
//
//	testutil.WriteTree(t, dir, map[string]string{
//		"stdout":        "hello\n",
//		"nested/out.txt": "data",
//		"empty/":        "",
//	})
func WriteTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		target := filepath.Join(dir, filepath.FromSlash(path))
		if len(path) > 0 && path[len(path)-1] == '/' {
			if err := os.MkdirAll(target, 0o755); err != nil {
				t.Fatalf("creating directory %s: %v", path, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			t.Fatalf("creating parent of %s: %v", path, err)
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}
}

// ReadFile reads a file relative to dir, or fails the test.
func ReadFile(t *testing.T, dir, path string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(content)
}

// Exists reports whether path exists relative to dir. Fails the test on
// stat errors other than non-existence.
func Exists(t *testing.T, dir, path string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(path)))
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	t.Fatalf("stat %s: %v", path, err)
	panic("unreachable")
}
