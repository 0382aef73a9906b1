// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package shelljob

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/sphuber/aiida-shell/lib/artifact"
	"github.com/sphuber/aiida-shell/lib/testutil"
)

// newTestDescriptor builds a descriptor with a deterministic entropy
// source and a discarded logger, failing the test on validation errors.
func newTestDescriptor(t *testing.T, inputs Inputs) *Descriptor {
	t.Helper()
	inputs.Logger = discardLogger()
	if inputs.Entropy == nil {
		inputs.Entropy = testutil.SequentialEntropy()
	}
	descriptor, err := New(inputs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return descriptor
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		inputs      Inputs
		wantErr     error
		wantMessage string
	}{
		{
			name:        "command required",
			inputs:      Inputs{},
			wantMessage: "command is required",
		},
		{
			name: "stdin redirection token forbidden",
			inputs: Inputs{
				Command:   "cat",
				Arguments: []string{"<", "input.txt"},
			},
			wantMessage: "`<` cannot be specified in the arguments",
		},
		{
			name: "stdout redirection token forbidden",
			inputs: Inputs{
				Command:   "date",
				Arguments: []string{">", "output.txt"},
			},
			wantMessage: "the symbol `>` cannot be specified in the arguments",
		},
		{
			name: "two placeholders in one token",
			inputs: Inputs{
				Command:   "cat",
				Arguments: []string{"{a}{b}"},
				Nodes: map[string]artifact.Artifact{
					"a": artifact.NewFile(nil),
					"b": artifact.NewFile(nil),
				},
			},
			wantErr: ErrMalformedArgument,
		},
		{
			name: "unbound placeholder",
			inputs: Inputs{
				Command:   "cat",
				Arguments: []string{"{missing}"},
			},
			wantErr: ErrUnboundPlaceholder,
		},
		{
			name: "reserved output pattern",
			inputs: Inputs{
				Command: "date",
				Outputs: []string{"stdout"},
			},
			wantErr: ErrReservedOverlap,
		},
		{
			name: "overridden stdout reserved in outputs",
			inputs: Inputs{
				Command: "date",
				Outputs: []string{"captured"},
				Options: Options{OutputFilename: "captured"},
			},
			wantErr: ErrReservedOverlap,
		},
		{
			name: "stdout override cannot be status",
			inputs: Inputs{
				Command: "date",
				Options: Options{OutputFilename: "status"},
			},
			wantErr: ErrReservedOverlap,
		},
		{
			name: "reserved explicit filename",
			inputs: Inputs{
				Command:   "cat",
				Nodes:     map[string]artifact.Artifact{"input": artifact.NewFile(nil)},
				Filenames: map[string]string{"input": "stderr"},
			},
			wantErr: ErrReservedOverlap,
		},
		{
			name: "nil node",
			inputs: Inputs{
				Command: "cat",
				Nodes:   map[string]artifact.Artifact{"input": nil},
			},
			wantErr: ErrUnsupportedArtifact,
		},
		{
			name: "unrenderable scalar",
			inputs: Inputs{
				Command: "echo",
				Nodes: map[string]artifact.Artifact{
					"value": &artifact.Scalar{Value: []int{1, 2}},
				},
			},
			wantErr: ErrUnsupportedArtifact,
		},
		{
			name: "empty hook",
			inputs: Inputs{
				Command: "date",
				Parser:  &Hook{},
			},
			wantErr: ErrInvalidHook,
		},
		{
			name: "unregistered named hook",
			inputs: Inputs{
				Command: "date",
				Parser:  NamedHook("never-registered"),
			},
			wantErr: ErrInvalidHook,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			test.inputs.Logger = discardLogger()
			_, err := New(test.inputs)
			if err == nil {
				t.Fatalf("New succeeded, want error")
			}
			if test.wantErr != nil && !errors.Is(err, test.wantErr) {
				t.Fatalf("New error = %v, want %v", err, test.wantErr)
			}
			if test.wantMessage != "" && !strings.Contains(err.Error(), test.wantMessage) {
				t.Fatalf("New error = %q, want it to contain %q", err, test.wantMessage)
			}
		})
	}
}

func TestPrepareStagesAndSubstitutes(t *testing.T) {
	t.Parallel()

	descriptor := newTestDescriptor(t, Inputs{
		Command:   "cat",
		Arguments: []string{"{left}", "{right}", "--count={n}"},
		Nodes: map[string]artifact.Artifact{
			"left":  &artifact.File{Content: []byte("a"), Filename: "left.txt"},
			"right": artifact.NewFile([]byte("b")),
			"n":     &artifact.Scalar{Value: 3},
		},
		Outputs: []string{"result.txt"},
	})

	workdir := t.TempDir()
	submission, err := descriptor.Prepare(workdir)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	wantArgv := []string{"left.txt", "right", "--count=3"}
	if !slices.Equal(submission.Argv, wantArgv) {
		t.Fatalf("Argv = %v, want %v", submission.Argv, wantArgv)
	}

	if got := testutil.ReadFile(t, workdir, "left.txt"); got != "a" {
		t.Fatalf("staged left.txt = %q, want %q", got, "a")
	}
	if got := testutil.ReadFile(t, workdir, "right"); got != "b" {
		t.Fatalf("staged right = %q, want %q", got, "b")
	}

	wantRetrieve := []string{"result.txt", FilenameStatus, FilenameStderr, FilenameStdout}
	if !slices.Equal(submission.RetrieveList, wantRetrieve) {
		t.Fatalf("RetrieveList = %v, want %v", submission.RetrieveList, wantRetrieve)
	}

	wantExclude := []string{"left.txt", "right"}
	if !slices.Equal(submission.ProvenanceExclude, wantExclude) {
		t.Fatalf("ProvenanceExclude = %v, want %v", submission.ProvenanceExclude, wantExclude)
	}

	if submission.AppendText != "echo $? > status" {
		t.Fatalf("AppendText = %q", submission.AppendText)
	}
	if submission.StdoutFilename != FilenameStdout {
		t.Fatalf("StdoutFilename = %q", submission.StdoutFilename)
	}
	if submission.StderrFilename != FilenameStderr {
		t.Fatalf("StderrFilename = %q", submission.StderrFilename)
	}
}

func TestPrepareUnreferencedNodesAreStaged(t *testing.T) {
	t.Parallel()

	descriptor := newTestDescriptor(t, Inputs{
		Command: "sh",
		Nodes: map[string]artifact.Artifact{
			"script": &artifact.File{Content: []byte("echo hi"), Filename: "run.sh"},
			"tree": &artifact.Folder{Files: []artifact.FolderFile{
				{Path: "data/a.txt", Content: []byte("a")},
			}},
		},
	})

	workdir := t.TempDir()
	submission, err := descriptor.Prepare(workdir)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	if len(submission.Argv) != 0 {
		t.Fatalf("Argv = %v, want empty", submission.Argv)
	}
	if got := testutil.ReadFile(t, workdir, "run.sh"); got != "echo hi" {
		t.Fatalf("staged run.sh = %q", got)
	}
	// The folder stages into the working directory root.
	if got := testutil.ReadFile(t, workdir, "data/a.txt"); got != "a" {
		t.Fatalf("staged data/a.txt = %q", got)
	}

	wantExclude := []string{"data", "run.sh"}
	if !slices.Equal(submission.ProvenanceExclude, wantExclude) {
		t.Fatalf("ProvenanceExclude = %v, want %v", submission.ProvenanceExclude, wantExclude)
	}
}

func TestPrepareFolderPlaceholder(t *testing.T) {
	t.Parallel()

	folder := &artifact.Folder{Files: []artifact.FolderFile{
		{Path: "a.txt", Content: []byte("a")},
	}}

	t.Run("root staging substitutes the key", func(t *testing.T) {
		t.Parallel()
		descriptor := newTestDescriptor(t, Inputs{
			Command:   "ls",
			Arguments: []string{"{tree}"},
			Nodes:     map[string]artifact.Artifact{"tree": folder},
		})
		submission, err := descriptor.Prepare(t.TempDir())
		if err != nil {
			t.Fatalf("Prepare: %v", err)
		}
		if !slices.Equal(submission.Argv, []string{"tree"}) {
			t.Fatalf("Argv = %v, want [tree]", submission.Argv)
		}
	})

	t.Run("explicit filename substitutes the directory", func(t *testing.T) {
		t.Parallel()
		descriptor := newTestDescriptor(t, Inputs{
			Command:   "ls",
			Arguments: []string{"{tree}"},
			Nodes:     map[string]artifact.Artifact{"tree": folder},
			Filenames: map[string]string{"tree": "sub"},
		})
		workdir := t.TempDir()
		submission, err := descriptor.Prepare(workdir)
		if err != nil {
			t.Fatalf("Prepare: %v", err)
		}
		if !slices.Equal(submission.Argv, []string{"sub"}) {
			t.Fatalf("Argv = %v, want [sub]", submission.Argv)
		}
		if got := testutil.ReadFile(t, workdir, "sub/a.txt"); got != "a" {
			t.Fatalf("staged sub/a.txt = %q", got)
		}
	})
}

func TestPrepareRemoteNodes(t *testing.T) {
	t.Parallel()

	inputs := Inputs{
		Command:   "process",
		Arguments: []string{"--flag", "{data}"},
		Nodes: map[string]artifact.Artifact{
			"data": &artifact.Remote{HostIdentity: "cluster-a", Path: "/scratch/run1"},
		},
	}

	t.Run("copy instructions by default", func(t *testing.T) {
		t.Parallel()
		descriptor := newTestDescriptor(t, inputs)
		submission, err := descriptor.Prepare(t.TempDir())
		if err != nil {
			t.Fatalf("Prepare: %v", err)
		}

		// The remote placeholder token is dropped from the vector.
		if !slices.Equal(submission.Argv, []string{"--flag"}) {
			t.Fatalf("Argv = %v, want [--flag]", submission.Argv)
		}

		want := RemoteInstruction{HostIdentity: "cluster-a", SourceGlob: "/scratch/run1/*", Destination: "."}
		if len(submission.RemoteCopy) != 1 || submission.RemoteCopy[0] != want {
			t.Fatalf("RemoteCopy = %v, want [%v]", submission.RemoteCopy, want)
		}
		if len(submission.RemoteSymlink) != 0 {
			t.Fatalf("RemoteSymlink = %v, want empty", submission.RemoteSymlink)
		}
	})

	t.Run("symlink instructions when requested", func(t *testing.T) {
		t.Parallel()
		withSymlinks := inputs
		withSymlinks.Options.UseSymlinks = true
		descriptor := newTestDescriptor(t, withSymlinks)
		submission, err := descriptor.Prepare(t.TempDir())
		if err != nil {
			t.Fatalf("Prepare: %v", err)
		}
		if len(submission.RemoteCopy) != 0 {
			t.Fatalf("RemoteCopy = %v, want empty", submission.RemoteCopy)
		}
		if len(submission.RemoteSymlink) != 1 {
			t.Fatalf("RemoteSymlink = %v, want one instruction", submission.RemoteSymlink)
		}
	})
}

func TestPrepareStdinHandling(t *testing.T) {
	t.Parallel()

	descriptor := newTestDescriptor(t, Inputs{
		Command:   "cat",
		Arguments: []string{"{input}"},
		Nodes: map[string]artifact.Artifact{
			"input": &artifact.File{Content: []byte("data"), Filename: "input.txt"},
		},
		Options: Options{FilenameStdin: "input.txt"},
	})

	submission, err := descriptor.Prepare(t.TempDir())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	// The stdin filename is removed from the vector: the execution
	// layer applies the redirection instead.
	if len(submission.Argv) != 0 {
		t.Fatalf("Argv = %v, want empty", submission.Argv)
	}
	if submission.StdinFilename != "input.txt" {
		t.Fatalf("StdinFilename = %q", submission.StdinFilename)
	}
}

func TestPrepareRedirectStderr(t *testing.T) {
	t.Parallel()

	descriptor := newTestDescriptor(t, Inputs{
		Command: "date",
		Options: Options{RedirectStderr: true},
	})

	submission, err := descriptor.Prepare(t.TempDir())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !submission.RedirectStderr {
		t.Fatal("RedirectStderr not set")
	}
	if submission.StderrFilename != "" {
		t.Fatalf("StderrFilename = %q, want empty when merged", submission.StderrFilename)
	}
}

func TestPrepareStdoutOverride(t *testing.T) {
	t.Parallel()

	descriptor := newTestDescriptor(t, Inputs{
		Command: "date",
		Options: Options{OutputFilename: "captured.txt", AdditionalRetrieve: []string{"extra.log"}},
	})

	submission, err := descriptor.Prepare(t.TempDir())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if submission.StdoutFilename != "captured.txt" {
		t.Fatalf("StdoutFilename = %q", submission.StdoutFilename)
	}

	wantRetrieve := []string{FilenameStatus, FilenameStderr, "captured.txt", "extra.log"}
	if !slices.Equal(submission.RetrieveList, wantRetrieve) {
		t.Fatalf("RetrieveList = %v, want %v", submission.RetrieveList, wantRetrieve)
	}
}

func TestPrepareFilenameCollision(t *testing.T) {
	t.Parallel()

	descriptor := newTestDescriptor(t, Inputs{
		Command: "cat",
		Nodes: map[string]artifact.Artifact{
			"a": &artifact.File{Content: []byte("1"), Filename: "same.txt"},
			"b": &artifact.File{Content: []byte("2"), Filename: "same.txt"},
		},
	})

	_, err := descriptor.Prepare(t.TempDir())
	if !errors.Is(err, ErrFilenameCollision) {
		t.Fatalf("Prepare error = %v, want ErrFilenameCollision", err)
	}
}

func TestPrepareImplicitReservedCollision(t *testing.T) {
	t.Parallel()

	descriptor := newTestDescriptor(t, Inputs{
		Command:   "cat",
		Arguments: []string{"{stdout}"},
		Nodes: map[string]artifact.Artifact{
			"stdout": &artifact.File{Content: []byte("x")},
		},
	})

	workdir := t.TempDir()
	submission, err := descriptor.Prepare(workdir)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	// Deterministic entropy appends "_0".
	if !slices.Equal(submission.Argv, []string{"stdout_0"}) {
		t.Fatalf("Argv = %v, want [stdout_0]", submission.Argv)
	}
	if got := testutil.ReadFile(t, workdir, "stdout_0"); got != "x" {
		t.Fatalf("staged stdout_0 = %q", got)
	}
}
