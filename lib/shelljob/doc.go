// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

// Package shelljob turns a declarative description of a shell command
// invocation into a concrete filesystem layout and command line, and
// parses the command's declared outputs back into typed artifacts
// afterwards.
//
// The lifecycle has three stages:
//
//  1. [New] validates the declarative inputs (argument template, named
//     artifacts, requested outputs, parser hook, execution options)
//     and returns an immutable [Descriptor]. Every configuration error
//     surfaces here, before any filesystem mutation.
//  2. [Descriptor.Prepare] stages the input artifacts into a working
//     directory - writing files and folder trees, resolving filename
//     collisions against the reserved status/stdout/stderr names, and
//     interpolating {name} placeholders - and produces a [Submission]:
//     the argument vector, the redirection plan, remote copy/symlink
//     instructions, and the retrieve and provenance-exclusion lists
//     the host engine needs.
//  3. After the host engine has executed the command and retrieved the
//     temporary output set, [Descriptor.Harvest] reads the retrieved
//     directory back into a [CompletionRecord]: the terminal
//     [Outcome], the exit status, and the captured result artifacts.
//
// Execution outcomes are values, never Go errors - a failed command
// still carries partial results worth inspecting. Go errors from this
// package signal configuration mistakes or genuine filesystem
// failures.
//
// Staging, assembly, and harvesting are sequential and confined to the
// single working directory of one invocation; nothing here is shared
// across invocations. Actual process execution, scheduling, and remote
// transport belong to the host - see the runner package for the
// collaborator surface and a synchronous local implementation.
package shelljob
