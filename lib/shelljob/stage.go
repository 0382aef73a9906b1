// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package shelljob

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sphuber/aiida-shell/lib/artifact"
)

// stager materializes file and folder artifacts into the working
// directory. It tracks which keys have been staged so that an artifact
// referenced both by a placeholder and by the trailing
// stage-everything pass is written exactly once.
type stager struct {
	workdir string
	staged  map[string]bool
}

func newStager(workdir string) *stager {
	return &stager{workdir: workdir, staged: make(map[string]bool)}
}

// stageFile writes a single-file artifact to workdir under its
// finalized relative filename, creating parent directories as needed -
// nested names like "sub/dir/name" are supported.
func (s *stager) stageFile(key string, file *artifact.File, finalized string) error {
	if s.staged[key] {
		return nil
	}

	target := filepath.Join(s.workdir, filepath.FromSlash(finalized))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", finalized, err)
	}
	if err := os.WriteFile(target, file.Content, 0o644); err != nil {
		return fmt.Errorf("staging file node %q as %s: %w", key, finalized, err)
	}

	s.staged[key] = true
	return nil
}

// stageFolder copies a folder artifact's tree to workdir under its
// finalized filename, or into workdir itself when no filename was
// assigned.
func (s *stager) stageFolder(key string, folder *artifact.Folder, finalized string) error {
	if s.staged[key] {
		return nil
	}

	target := s.workdir
	if finalized != "" {
		target = filepath.Join(s.workdir, filepath.FromSlash(finalized))
	}
	if err := folder.WriteTo(target); err != nil {
		return fmt.Errorf("staging folder node %q: %w", key, err)
	}

	s.staged[key] = true
	return nil
}
