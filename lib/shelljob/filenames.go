// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package shelljob

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sphuber/aiida-shell/lib/artifact"
)

// EntropySource produces a short random string used to disambiguate a
// staged filename that implicitly collides with a reserved name. The
// default draws four hex characters from a UUID; tests inject a
// deterministic source.
type EntropySource func() string

func defaultEntropy() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
}

// disambiguate returns name with a random suffix appended, retrying
// until the result is outside the reserved set. Pure given its entropy
// source.
func disambiguate(name string, reserved map[string]bool, entropy EntropySource) string {
	candidate := name
	for reserved[candidate] {
		candidate = name + "_" + entropy()
	}
	return candidate
}

// negotiator decides the relative filename each file or folder
// artifact occupies in the working directory. Scalars and remote
// references are not filesystem-resident and never pass through it.
//
// One negotiator serves one staging pass: it remembers finalized names
// so that a key always resolves to the same filename, and so that two
// distinct keys landing on the same filename fail fast instead of
// silently overwriting each other.
type negotiator struct {
	filenames map[string]string // explicit overrides, key → relative path
	reserved  map[string]bool
	entropy   EntropySource
	logger    *slog.Logger

	finalized map[string]string // key → finalized filename
	taken     map[string]string // finalized filename → key
}

func newNegotiator(filenames map[string]string, reserved []string, entropy EntropySource, logger *slog.Logger) *negotiator {
	reservedSet := make(map[string]bool, len(reserved))
	for _, name := range reserved {
		reservedSet[name] = true
	}
	return &negotiator{
		filenames: filenames,
		reserved:  reservedSet,
		entropy:   entropy,
		logger:    logger,
		finalized: make(map[string]string),
		taken:     make(map[string]string),
	}
}

// fileFilename finalizes the staged filename for a single-file
// artifact. The default is the artifact's intrinsic filename unless
// that is absent or the type-default placeholder name, in which case
// the key is used; an explicit filenames entry overrides either.
//
// An implicit collision with a reserved name is repaired by appending
// a short random suffix (with a warning); an explicit collision is
// fatal, since the caller asked for a name the job itself owns.
func (n *negotiator) fileFilename(key string, file *artifact.File) (string, error) {
	if name, done := n.finalized[key]; done {
		return name, nil
	}

	defaultName := key
	if file.Filename != "" && file.Filename != artifact.DefaultFilename {
		defaultName = file.Filename
	}

	name, explicit := n.filenames[key]
	if !explicit {
		name = defaultName
	}

	if n.reserved[name] {
		if explicit {
			return "", fmt.Errorf(
				"%w: explicit filename %q for node %q is a reserved filename",
				ErrReservedOverlap, name, key,
			)
		}
		renamed := disambiguate(name, n.reserved, n.entropy)
		n.logger.Warn("implicit filename collides with a reserved name, renaming",
			"key", key, "filename", name, "renamed", renamed)
		name = renamed
	}

	return n.accept(key, name)
}

// folderFilename finalizes the staged filename for a folder artifact.
// Without an explicit filenames entry the folder's contents go
// directly into the working directory root, signalled by an empty
// string. The folder's first-level entries are checked against the
// reserved names first: the host engine copies folder trees verbatim,
// so a collision there cannot be repaired by renaming.
func (n *negotiator) folderFilename(key string, folder *artifact.Folder) (string, error) {
	if name, done := n.finalized[key]; done {
		return name, nil
	}

	for _, entry := range folder.TopLevelNames() {
		if n.reserved[entry] {
			return "", fmt.Errorf(
				"%w: folder node %q contains entry %q which is a reserved filename",
				ErrReservedOverlap, key, entry,
			)
		}
	}

	name, explicit := n.filenames[key]
	if !explicit {
		// Stage into the working directory root.
		n.finalized[key] = ""
		return "", nil
	}

	if n.reserved[name] {
		return "", fmt.Errorf(
			"%w: explicit filename %q for node %q is a reserved filename",
			ErrReservedOverlap, name, key,
		)
	}

	return n.accept(key, name)
}

// accept records a finalized filename, failing if another key already
// claimed it.
func (n *negotiator) accept(key, name string) (string, error) {
	if other, exists := n.taken[name]; exists && other != key {
		return "", fmt.Errorf(
			"%w: nodes %q and %q both resolve to filename %q",
			ErrFilenameCollision, other, key, name,
		)
	}
	n.taken[name] = key
	n.finalized[key] = name
	return name, nil
}
