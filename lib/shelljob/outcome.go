// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package shelljob

import (
	"fmt"
	"strings"
)

// Execution-outcome status codes. These are returned as values, never
// raised as errors: a failed command still carries partial results
// worth inspecting. Codes in the 3xx range indicate the retrieved
// output set was incomplete or unparseable; 4xx indicate the command
// itself misbehaved.
const (
	StatusOK                  = 0
	StatusOutputStatusMissing = 300
	StatusOutputStatusInvalid = 301
	StatusOutputStdoutMissing = 302
	StatusOutputPathsMissing  = 303
	StatusParserHookExcepted  = 310
	StatusCommandFailed       = 400
	StatusStderrNotEmpty      = 410
)

// Outcome is the terminal result of harvesting one job execution.
// The zero value is success.
type Outcome struct {
	Status  int    `json:"status"`
	Label   string `json:"label,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the outcome is success.
func (o Outcome) OK() bool { return o.Status == StatusOK }

// String renders the outcome for logs and CLI output.
func (o Outcome) String() string {
	if o.OK() {
		return "success"
	}
	return fmt.Sprintf("%s (%d): %s", o.Label, o.Status, o.Message)
}

func outcomeStatusMissing() Outcome {
	return Outcome{
		Status:  StatusOutputStatusMissing,
		Label:   "ERROR_OUTPUT_STATUS_MISSING",
		Message: "Exit status could not be determined: exit status file was not retrieved.",
	}
}

func outcomeStatusInvalid() Outcome {
	return Outcome{
		Status:  StatusOutputStatusInvalid,
		Label:   "ERROR_OUTPUT_STATUS_INVALID",
		Message: "Exit status could not be determined: exit status file does not contain a valid integer.",
	}
}

func outcomeStdoutMissing() Outcome {
	return Outcome{
		Status:  StatusOutputStdoutMissing,
		Label:   "ERROR_OUTPUT_STDOUT_MISSING",
		Message: "The stdout file was not retrieved.",
	}
}

func outcomePathsMissing(missing []string) Outcome {
	return Outcome{
		Status:  StatusOutputPathsMissing,
		Label:   "ERROR_OUTPUT_FILEPATHS_MISSING",
		Message: fmt.Sprintf("One or more output files defined in the outputs input were not retrieved: %s.", strings.Join(missing, ", ")),
	}
}

func outcomeParserHookExcepted(err error) Outcome {
	return Outcome{
		Status:  StatusParserHookExcepted,
		Label:   "ERROR_PARSER_HOOK_EXCEPTED",
		Message: fmt.Sprintf("Callable specified in the parser input excepted: %v.", err),
	}
}

func outcomeCommandFailed(status int, stderr string) Outcome {
	return Outcome{
		Status:  StatusCommandFailed,
		Label:   "ERROR_COMMAND_FAILED",
		Message: fmt.Sprintf("The command exited with a non-zero status: %d %s.", status, stderr),
	}
}

func outcomeStderrNotEmpty() Outcome {
	return Outcome{
		Status:  StatusStderrNotEmpty,
		Label:   "ERROR_STDERR_NOT_EMPTY",
		Message: "The command exited with a zero status but the stderr was not empty.",
	}
}
