// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sphuber/aiida-shell/lib/shelljob"
)

// defaultTimeout bounds one command execution when the Local host was
// not given an explicit timeout.
const defaultTimeout = 5 * time.Minute

// Local executes submissions synchronously on the local machine. It
// implements the redirection contract the harvester depends on: stdout
// and stderr are captured to their working-directory files (merged
// when the submission says so), stdin is fed from the configured file,
// and the command's exit code is written to the status file - the
// local equivalent of the submission's append line.
type Local struct {
	// Root is the directory working directories are created under.
	Root string

	// Timeout bounds one execution; defaultTimeout when zero.
	Timeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewLocal returns a Local host rooted at root.
func NewLocal(root string) *Local {
	return &Local{Root: root}
}

func (l *Local) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// ResolveExecutable resolves a command name against PATH.
func (l *Local) ResolveExecutable(_ context.Context, command string) (string, error) {
	path, err := exec.LookPath(command)
	if err != nil {
		return "", fmt.Errorf("failed to determine the absolute path of the command: %w", err)
	}
	return path, nil
}

// Submit stages the descriptor into a fresh working directory under
// Root, applies any remote copy or symlink instructions (interpreted
// against the local filesystem), and executes the command. The
// returned handle's working directory is the retrieved directory for
// harvesting.
func (l *Local) Submit(ctx context.Context, descriptor *shelljob.Descriptor) (*Handle, error) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	workdir := filepath.Join(l.Root, id)
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return nil, fmt.Errorf("creating working directory: %w", err)
	}

	submission, err := descriptor.Prepare(workdir)
	if err != nil {
		return nil, err
	}

	if err := l.applyRemoteInstructions(workdir, submission); err != nil {
		return nil, err
	}

	timeout := l.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	executionContext, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	l.logger().Info("executing command",
		"id", id, "command", submission.Command, "argv", submission.Argv)

	if err := l.execute(executionContext, workdir, submission); err != nil {
		return nil, err
	}

	return &Handle{ID: id, Workdir: workdir, Submission: submission}, nil
}

// execute runs the command with the submission's redirection plan and
// writes the status file.
//
// The command runs in its own process group so that context
// cancellation (timeout) kills the command and all its children.
// Without Setpgid, only the direct child receives the signal - its
// children survive and hold open the redirected file descriptors.
func (l *Local) execute(ctx context.Context, workdir string, submission *shelljob.Submission) error {
	cmd := exec.CommandContext(ctx, submission.Command, submission.Argv...)
	cmd.Dir = workdir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	if submission.StdinFilename != "" {
		stdin, err := os.Open(filepath.Join(workdir, submission.StdinFilename))
		if err != nil {
			return fmt.Errorf("opening stdin file: %w", err)
		}
		defer stdin.Close()
		cmd.Stdin = stdin
	}

	stdout, err := os.Create(filepath.Join(workdir, submission.StdoutFilename))
	if err != nil {
		return fmt.Errorf("creating stdout file: %w", err)
	}
	defer stdout.Close()
	cmd.Stdout = stdout

	if submission.RedirectStderr {
		cmd.Stderr = stdout
	} else {
		stderr, err := os.Create(filepath.Join(workdir, submission.StderrFilename))
		if err != nil {
			return fmt.Errorf("creating stderr file: %w", err)
		}
		defer stderr.Close()
		cmd.Stderr = stderr
	}

	exitCode := 0
	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if !errors.As(err, &exitError) {
			// Context cancellation, signal, executable not found -
			// there is no exit status to record.
			return fmt.Errorf("running command: %w", err)
		}
		exitCode = exitError.ExitCode()
	}

	statusPath := filepath.Join(workdir, shelljob.FilenameStatus)
	if err := os.WriteFile(statusPath, []byte(strconv.Itoa(exitCode)+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing status file: %w", err)
	}

	return nil
}

// applyRemoteInstructions interprets the submission's remote copy and
// symlink instructions against the local filesystem. The host identity
// is informational here - a local host serves exactly one computer.
func (l *Local) applyRemoteInstructions(workdir string, submission *shelljob.Submission) error {
	for _, instruction := range submission.RemoteCopy {
		matches, err := filepath.Glob(instruction.SourceGlob)
		if err != nil {
			return fmt.Errorf("expanding remote copy glob %q: %w", instruction.SourceGlob, err)
		}
		for _, source := range matches {
			target := filepath.Join(workdir, instruction.Destination, filepath.Base(source))
			if err := copyPath(source, target); err != nil {
				return fmt.Errorf("copying %s: %w", source, err)
			}
		}
	}

	for _, instruction := range submission.RemoteSymlink {
		matches, err := filepath.Glob(instruction.SourceGlob)
		if err != nil {
			return fmt.Errorf("expanding remote symlink glob %q: %w", instruction.SourceGlob, err)
		}
		for _, source := range matches {
			target := filepath.Join(workdir, instruction.Destination, filepath.Base(source))
			if err := os.Symlink(source, target); err != nil {
				return fmt.Errorf("symlinking %s: %w", source, err)
			}
		}
	}

	return nil
}

// copyPath copies a file or directory tree from source to target.
func copyPath(source, target string) error {
	info, err := os.Stat(source)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return copyFile(source, target, info.Mode())
	}

	return filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		destination := filepath.Join(target, relative)
		if entry.IsDir() {
			return os.MkdirAll(destination, 0o755)
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		fileInfo, err := entry.Info()
		if err != nil {
			return err
		}
		return copyFile(path, destination, fileInfo.Mode())
	})
}

func copyFile(source, target string, mode fs.FileMode) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
