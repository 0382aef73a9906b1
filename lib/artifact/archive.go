// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package artifact

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// WriteArchive serializes a folder tree as a zstd-compressed tar
// stream. Entries are written in the folder's own order, with fixed
// metadata (mode 0644, zero timestamps) so the same folder always
// produces identical bytes.
func WriteArchive(w io.Writer, folder *Folder) error {
	compressor, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("initializing zstd writer: %w", err)
	}

	archive := tar.NewWriter(compressor)

	for _, file := range folder.Files {
		header := &tar.Header{
			Name: file.Path,
			Mode: 0o644,
			Size: int64(len(file.Content)),
		}
		if err := archive.WriteHeader(header); err != nil {
			return fmt.Errorf("writing tar header for %s: %w", file.Path, err)
		}
		if _, err := archive.Write(file.Content); err != nil {
			return fmt.Errorf("writing tar entry %s: %w", file.Path, err)
		}
	}

	if err := archive.Close(); err != nil {
		return fmt.Errorf("finalizing tar archive: %w", err)
	}
	return compressor.Close()
}

// ReadArchive reads a zstd-compressed tar stream produced by
// [WriteArchive] back into a Folder. Non-regular entries are skipped.
func ReadArchive(r io.Reader) (*Folder, error) {
	decompressor, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("initializing zstd reader: %w", err)
	}
	defer decompressor.Close()

	archive := tar.NewReader(decompressor)
	folder := &Folder{}

	for {
		header, err := archive.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		content, err := io.ReadAll(archive)
		if err != nil {
			return nil, fmt.Errorf("reading tar entry %s: %w", header.Name, err)
		}
		folder.Files = append(folder.Files, FolderFile{Path: header.Name, Content: content})
	}

	return folder, nil
}
