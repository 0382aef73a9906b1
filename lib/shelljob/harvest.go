// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package shelljob

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sphuber/aiida-shell/lib/artifact"
)

// CompletionRecord is the result of harvesting one execution: the
// terminal outcome, the command's own exit status, every result
// artifact captured along the way, and the list of requested outputs
// that were missing. Produced exactly once per invocation.
//
// Partial results are the point of this type: a non-zero exit status
// or a missing output does not discard the artifacts already captured.
type CompletionRecord struct {
	Outcome Outcome

	// ExitStatus is the integer from the status file, or -1 when the
	// file was absent or unparseable.
	ExitStatus int

	// Results maps link-safe labels to captured artifacts.
	Results map[string]artifact.Artifact

	// Missing lists requested outputs that were not found.
	Missing []string

	// StdoutBytes and StderrBytes are the captured stream sizes; -1
	// means the file was absent.
	StdoutBytes int64
	StderrBytes int64
}

// Harvester reads back the retrieved directory of one execution. Hooks
// receive it to emit results incrementally via [Harvester.Emit].
type Harvester struct {
	descriptor *Descriptor
	results    map[string]artifact.Artifact
}

// Emit records a result artifact under the given label, overwriting
// any previous artifact with the same label.
func (h *Harvester) Emit(label string, a artifact.Artifact) {
	h.results[label] = a
}

// Harvest parses the retrieved directory into a completion record. It
// runs three phases, all attempted even when an earlier one fails so
// that every available diagnostic surfaces together:
//
//   - Phase A reads the fixed stderr/stdout/status files and derives
//     the command outcome.
//   - Phase B locates each requested output pattern (globs permitted),
//     capturing files and directories as artifacts and recording
//     misses.
//   - Phase C invokes the parser hook, when configured.
//
// Missing requested outputs dominate the final outcome; otherwise the
// Phase A outcome stands, and a hook failure is reported only when
// both earlier phases were clean. Returns a Go error only for
// filesystem failures that are not part of the outcome taxonomy (an
// unreadable directory, not an absent file).
func (d *Descriptor) Harvest(retrievedDir string) (*CompletionRecord, error) {
	harvester := &Harvester{
		descriptor: d,
		results:    make(map[string]artifact.Artifact),
	}

	record := &CompletionRecord{
		ExitStatus:  -1,
		StdoutBytes: -1,
		StderrBytes: -1,
	}

	phaseA, err := harvester.parseDefaultOutputs(retrievedDir, record)
	if err != nil {
		return nil, err
	}

	missing, err := harvester.parseCustomOutputs(retrievedDir)
	if err != nil {
		return nil, err
	}
	record.Missing = missing

	var hookErr error
	if d.parser != nil {
		hookResults, invokeErr := d.parser.invoke(retrievedDir, harvester)
		if invokeErr != nil {
			hookErr = invokeErr
		} else {
			for label, result := range hookResults {
				harvester.Emit(label, result)
			}
		}
	}

	switch {
	case len(missing) > 0:
		record.Outcome = outcomePathsMissing(missing)
	case !phaseA.OK():
		record.Outcome = phaseA
	case hookErr != nil:
		record.Outcome = outcomeParserHookExcepted(hookErr)
	default:
		record.Outcome = phaseA
	}

	record.Results = harvester.results
	return record, nil
}

// parseDefaultOutputs is Phase A: stderr is optional, stdout and a
// valid integer status file are required, a non-zero status or a
// non-empty stderr on success is a failure outcome.
func (h *Harvester) parseDefaultOutputs(dir string, record *CompletionRecord) (Outcome, error) {
	var stderr string

	stderrContent, err := os.ReadFile(filepath.Join(dir, FilenameStderr))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No stderr produced; not an error.
	case err != nil:
		return Outcome{}, fmt.Errorf("reading stderr file: %w", err)
	default:
		stderr = string(stderrContent)
		record.StderrBytes = int64(len(stderrContent))
		h.Emit(FilenameStderr, &artifact.File{Content: stderrContent, Filename: FilenameStderr})
	}

	stdoutName := h.descriptor.StdoutFilename()
	stdoutContent, err := os.ReadFile(filepath.Join(dir, stdoutName))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return outcomeStdoutMissing(), nil
	case err != nil:
		return Outcome{}, fmt.Errorf("reading stdout file: %w", err)
	}
	record.StdoutBytes = int64(len(stdoutContent))
	h.Emit(LinkLabel(stdoutName), &artifact.File{Content: stdoutContent, Filename: stdoutName})

	statusContent, err := os.ReadFile(filepath.Join(dir, FilenameStatus))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return outcomeStatusMissing(), nil
	case err != nil:
		return Outcome{}, fmt.Errorf("reading status file: %w", err)
	}

	status, err := strconv.Atoi(strings.TrimSpace(string(statusContent)))
	if err != nil {
		return outcomeStatusInvalid(), nil
	}
	record.ExitStatus = status

	if status != 0 {
		return outcomeCommandFailed(status, stderr), nil
	}
	if stderr != "" {
		return outcomeStderrNotEmpty(), nil
	}
	return Outcome{}, nil
}

// parseCustomOutputs is Phase B: resolve each requested output pattern
// and capture what exists. Regular files become single-file artifacts,
// directories become folder artifacts. A literal path that does not
// exist is recorded under its base name; a glob pattern with no
// matches is recorded under the pattern itself.
func (h *Harvester) parseCustomOutputs(dir string) ([]string, error) {
	var missing []string

	for _, pattern := range h.descriptor.outputs {
		if strings.ContainsAny(pattern, "*?[") {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, fmt.Errorf("expanding output pattern %q: %w", pattern, err)
			}
			if len(matches) == 0 {
				missing = append(missing, pattern)
				continue
			}
			for _, match := range matches {
				if err := h.captureOutput(match); err != nil {
					return nil, err
				}
			}
			continue
		}

		path := filepath.Join(dir, pattern)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, filepath.Base(pattern))
			continue
		} else if err != nil {
			return nil, fmt.Errorf("checking output %q: %w", pattern, err)
		}
		if err := h.captureOutput(path); err != nil {
			return nil, err
		}
	}

	return missing, nil
}

// captureOutput captures one resolved output path as a result
// artifact, keyed by the link-safe label of its final path segment.
func (h *Harvester) captureOutput(path string) error {
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat output %q: %w", name, err)
	}

	if info.IsDir() {
		folder, err := artifact.FolderFromDir(path)
		if err != nil {
			return fmt.Errorf("capturing output directory %q: %w", name, err)
		}
		h.Emit(LinkLabel(name), folder)
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("capturing output file %q: %w", name, err)
	}
	h.Emit(LinkLabel(name), &artifact.File{Content: content, Filename: name})
	return nil
}
