// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package runner

import (
	"context"

	"github.com/sphuber/aiida-shell/lib/shelljob"
)

// Host is the collaborator surface the core needs from an
// orchestration engine: executable resolution, submission of a
// validated descriptor, and provenance recording. The core never
// touches engine state directly - callers pass a Host capability
// instead of relying on ambient globals.
type Host interface {
	// ResolveExecutable resolves a bare command name to an absolute
	// path on the computer that will execute it.
	ResolveExecutable(ctx context.Context, command string) (string, error)

	// Submit stages the descriptor into a fresh working directory,
	// executes the command, and returns a handle to the completed
	// submission. Synchronous from the caller's perspective; any
	// asynchrony is the host's own affair.
	Submit(ctx context.Context, descriptor *shelljob.Descriptor) (*Handle, error)

	// RecordProvenance persists the completion record of a submission.
	RecordProvenance(ctx context.Context, handle *Handle, record *shelljob.CompletionRecord) error
}

// Handle identifies one submission: its working directory doubles as
// the retrieved directory for harvesting once execution has finished.
type Handle struct {
	// ID is the unique identifier of the submission.
	ID string

	// Workdir is the working directory the inputs were staged into and
	// the command ran in.
	Workdir string

	// Submission is the prepared execution plan.
	Submission *shelljob.Submission
}
