// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

// Package runner defines the collaborator surface between the shelljob
// core and an orchestration engine - executable resolution, submission
// execution, provenance recording - and provides Local, a synchronous
// implementation that runs submissions on the local machine.
//
// Local gives each submission a fresh working directory under its
// root, applies the redirection plan (stdin from file, stdout and
// stderr to their capture files, merged when requested), runs the
// command in its own process group so a timeout kills the whole tree,
// and writes the exit code to the status file. Completion records are
// persisted as deterministic CBOR next to the working directory, with
// result content checksummed and folder results archived.
package runner
