// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package artifact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FileFromPath reads a local file into a File artifact. The intrinsic
// filename is the path's base name.
func FileFromPath(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &File{Content: content, Filename: filepath.Base(path)}, nil
}

// FolderFromDir reads a directory tree on disk into a Folder artifact.
// Entries are collected in sorted path order so the same tree always
// produces the same Folder (and therefore the same content hash).
// Symlinks and other non-regular files are skipped.
func FolderFromDir(dir string) (*Folder, error) {
	var paths []string

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		relative, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(relative))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	sort.Strings(paths)

	folder := &Folder{Files: make([]FolderFile, 0, len(paths))}
	for _, relative := range paths {
		content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(relative)))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", relative, err)
		}
		folder.Files = append(folder.Files, FolderFile{Path: relative, Content: content})
	}

	return folder, nil
}

// WriteTo materializes the folder tree under dir, creating parent
// directories as needed. Existing files are overwritten.
func (f *Folder) WriteTo(dir string) error {
	for _, file := range f.Files {
		target := filepath.Join(dir, filepath.FromSlash(file.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", file.Path, err)
		}
		if err := os.WriteFile(target, file.Content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", file.Path, err)
		}
	}
	return nil
}
