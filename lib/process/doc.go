// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

// Package process provides binary entrypoint helpers. [Fatal]
// centralizes the one legitimate raw-stderr pattern that exists before
// the structured logger is initialized: reporting an unrecoverable
// error from main() and exiting.
package process
