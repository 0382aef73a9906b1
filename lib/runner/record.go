// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sphuber/aiida-shell/lib/artifact"
	"github.com/sphuber/aiida-shell/lib/codec"
	"github.com/sphuber/aiida-shell/lib/shelljob"
)

// recordFilename is the CBOR record file inside a provenance directory.
const recordFilename = "record.cbor"

// StoredRecord is the persisted form of one submission's completion
// record: the outcome, the execution plan that produced it, and a
// manifest of the captured result artifacts. Result content lives in
// sibling files; the record holds their checksums so a reader can
// verify integrity without trusting the directory.
type StoredRecord struct {
	ID          string                  `json:"id"`
	Submission  *shelljob.Submission    `json:"submission"`
	Outcome     shelljob.Outcome        `json:"outcome"`
	ExitStatus  int                     `json:"exit_status"`
	Missing     []string                `json:"missing,omitempty"`
	StdoutBytes int64                   `json:"stdout_bytes"`
	StderrBytes int64                   `json:"stderr_bytes"`
	Results     map[string]StoredResult `json:"results,omitempty"`
}

// StoredResult is the manifest entry for one captured artifact.
type StoredResult struct {
	// Kind is the artifact variant name: "scalar", "file", "folder" or
	// "remote".
	Kind string `json:"kind"`

	// Filename is the content file inside the provenance directory, for
	// file and folder artifacts. Folders are stored as zstd-compressed
	// tar archives.
	Filename string `json:"filename,omitempty"`

	// Checksum is the hex BLAKE3 digest of the stored content, in the
	// file or folder domain according to Kind.
	Checksum string `json:"checksum,omitempty"`

	// Value is the rendered form of a scalar artifact.
	Value string `json:"value,omitempty"`

	// Host and Path locate a remote artifact.
	Host string `json:"host,omitempty"`
	Path string `json:"path,omitempty"`
}

// RecordProvenance persists the completion record of a submission into
// a directory next to its working directory: <id>.record/ holding the
// CBOR record plus one content file per file or folder result. The
// directory is created fresh; recording the same handle twice
// overwrites the previous record.
func (l *Local) RecordProvenance(_ context.Context, handle *Handle, record *shelljob.CompletionRecord) error {
	dir := filepath.Join(l.Root, handle.ID+".record")
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing provenance directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating provenance directory: %w", err)
	}

	stored := &StoredRecord{
		ID:          handle.ID,
		Submission:  handle.Submission,
		Outcome:     record.Outcome,
		ExitStatus:  record.ExitStatus,
		Missing:     record.Missing,
		StdoutBytes: record.StdoutBytes,
		StderrBytes: record.StderrBytes,
	}

	if len(record.Results) > 0 {
		stored.Results = make(map[string]StoredResult, len(record.Results))
		for label, result := range record.Results {
			entry, err := storeResult(dir, label, result)
			if err != nil {
				return fmt.Errorf("storing result %q: %w", label, err)
			}
			stored.Results[label] = entry
		}
	}

	encoded, err := codec.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, recordFilename), encoded, 0o644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}

	l.logger().Info("recorded provenance", "id", handle.ID, "dir", dir, "results", len(record.Results))
	return nil
}

// storeResult writes one artifact's content into the provenance
// directory and returns its manifest entry.
func storeResult(dir, label string, result artifact.Artifact) (StoredResult, error) {
	switch typed := result.(type) {
	case *artifact.Scalar:
		rendered, err := typed.Render()
		if err != nil {
			return StoredResult{}, err
		}
		return StoredResult{Kind: typed.Kind().String(), Value: rendered}, nil

	case *artifact.File:
		filename := label
		path := filepath.Join(dir, filename)
		if err := os.WriteFile(path, typed.Content, 0o644); err != nil {
			return StoredResult{}, err
		}
		return StoredResult{
			Kind:     typed.Kind().String(),
			Filename: filename,
			Checksum: artifact.FormatHash(artifact.HashFile(typed.Content)),
		}, nil

	case *artifact.Folder:
		filename := label + ".tar.zst"
		archive, err := os.Create(filepath.Join(dir, filename))
		if err != nil {
			return StoredResult{}, err
		}
		if err := artifact.WriteArchive(archive, typed); err != nil {
			archive.Close()
			return StoredResult{}, err
		}
		if err := archive.Close(); err != nil {
			return StoredResult{}, err
		}
		return StoredResult{
			Kind:     typed.Kind().String(),
			Filename: filename,
			Checksum: artifact.FormatHash(artifact.HashFolder(typed)),
		}, nil

	case *artifact.Remote:
		return StoredResult{
			Kind: typed.Kind().String(),
			Host: typed.HostIdentity,
			Path: typed.Path,
		}, nil
	}

	return StoredResult{}, fmt.Errorf("unsupported artifact kind %s", result.Kind())
}

// LoadRecord reads a stored record back from a provenance directory.
// Content files are not loaded; use [LoadResultFolder] or read the
// manifest entry's file directly.
func LoadRecord(dir string) (*StoredRecord, error) {
	encoded, err := os.ReadFile(filepath.Join(dir, recordFilename))
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	var record StoredRecord
	if err := codec.Unmarshal(encoded, &record); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return &record, nil
}

// LoadResultFolder reads a folder result's archive back from a
// provenance directory and verifies its checksum against the manifest
// entry.
func LoadResultFolder(dir string, entry StoredResult) (*artifact.Folder, error) {
	archive, err := os.Open(filepath.Join(dir, entry.Filename))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer archive.Close()

	folder, err := artifact.ReadArchive(archive)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	checksum := artifact.FormatHash(artifact.HashFolder(folder))
	if checksum != entry.Checksum {
		return nil, fmt.Errorf("archive checksum mismatch: stored %s, computed %s", entry.Checksum, checksum)
	}
	return folder, nil
}
