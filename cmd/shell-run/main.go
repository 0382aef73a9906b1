// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

// shell-run executes one shell command as a tracked job: it stages the
// declared input artifacts into a fresh working directory, runs the
// command with file-based redirection, harvests the declared outputs,
// records provenance, and prints the completion record as JSON.
//
// Usage:
//
//	shell-run [flags] -- COMMAND [TOKEN...]
//
// Tokens may contain {name} placeholders bound to artifacts declared
// with --file, --folder, --scalar, or --remote:
//
//	shell-run --file left=a.txt --file right=b.txt -- cat '{left}' '{right}'
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/sphuber/aiida-shell/lib/artifact"
	"github.com/sphuber/aiida-shell/lib/config"
	"github.com/sphuber/aiida-shell/lib/process"
	"github.com/sphuber/aiida-shell/lib/runner"
	"github.com/sphuber/aiida-shell/lib/shelljob"
)

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}

// commandFailed signals that the job itself failed: the record was
// printed, the process exit code carries the failure.
type commandFailed struct{}

func (commandFailed) Error() string { return "command failed" }

func (commandFailed) ExitCode() int { return 1 }

// result is the JSON document printed on completion.
type result struct {
	ID         string           `json:"id"`
	Workdir    string           `json:"workdir"`
	Outcome    shelljob.Outcome `json:"outcome"`
	ExitStatus int              `json:"exit_status"`
	Missing    []string         `json:"missing,omitempty"`
	Results    []resultEntry    `json:"results,omitempty"`
}

type resultEntry struct {
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Bytes int    `json:"bytes,omitempty"`
}

func run() error {
	var (
		configPath     string
		rootOverride   string
		files          []string
		folders        []string
		scalars        []string
		remotes        []string
		filenames      []string
		outputs        []string
		retrieve       []string
		argsString     string
		stdinFilename  string
		stdoutFilename string
		redirectStderr bool
		useSymlinks    bool
		timeoutFlag    time.Duration
	)

	flagSet := pflag.NewFlagSet("shell-run", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $AIIDA_SHELL_CONFIG)")
	flagSet.StringVar(&rootOverride, "root", "", "override the working directory root")
	flagSet.StringArrayVar(&files, "file", nil, "file artifact as key=path (repeatable)")
	flagSet.StringArrayVar(&folders, "folder", nil, "folder artifact as key=path (repeatable)")
	flagSet.StringArrayVar(&scalars, "scalar", nil, "scalar artifact as key=value (repeatable)")
	flagSet.StringArrayVar(&remotes, "remote", nil, "remote artifact as key=host:path (repeatable)")
	flagSet.StringArrayVar(&filenames, "filename", nil, "staged filename override as key=name (repeatable)")
	flagSet.StringArrayVarP(&outputs, "output", "o", nil, "output file or glob to capture (repeatable)")
	flagSet.StringArrayVar(&retrieve, "retrieve", nil, "extra path to retrieve without parsing (repeatable)")
	flagSet.StringVar(&argsString, "args", "", "argument template as one shell-quoted string (alternative to positional tokens)")
	flagSet.StringVar(&stdinFilename, "stdin", "", "staged filename to connect to the command's stdin")
	flagSet.StringVar(&stdoutFilename, "stdout", "", "capture filename for stdout (default: stdout)")
	flagSet.BoolVar(&redirectStderr, "redirect-stderr", false, "merge stderr into the stdout capture file")
	flagSet.BoolVar(&useSymlinks, "use-symlinks", false, "symlink remote artifacts instead of copying")
	flagSet.DurationVar(&timeoutFlag, "timeout", 0, "override the execution timeout")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	args := flagSet.Args()
	if len(args) == 0 {
		return fmt.Errorf("no command given; usage: shell-run [flags] -- COMMAND [TOKEN...]")
	}

	arguments := args[1:]
	if argsString != "" {
		tokens, err := shelljob.SplitTokens(argsString)
		if err != nil {
			return err
		}
		arguments = append(arguments, tokens...)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if rootOverride != "" {
		cfg.Paths.Root = rootOverride
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger := newLogger(cfg.Logging.Level)

	nodes, err := collectNodes(files, folders, scalars, remotes)
	if err != nil {
		return err
	}

	filenameOverrides, err := parsePairs(filenames, "--filename")
	if err != nil {
		return err
	}

	descriptor, err := shelljob.New(shelljob.Inputs{
		Command:   args[0],
		Arguments: arguments,
		Nodes:     nodes,
		Filenames: filenameOverrides,
		Outputs:   outputs,
		Options: shelljob.Options{
			RedirectStderr:     redirectStderr,
			FilenameStdin:      stdinFilename,
			AdditionalRetrieve: retrieve,
			UseSymlinks:        useSymlinks,
			OutputFilename:     stdoutFilename,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	timeout := cfg.ExecutionTimeout()
	if timeoutFlag != 0 {
		timeout = timeoutFlag
	}
	host := &runner.Local{Root: cfg.Paths.Root, Timeout: timeout, Logger: logger}

	ctx := context.Background()
	if _, err := host.ResolveExecutable(ctx, args[0]); err != nil {
		return err
	}

	handle, err := host.Submit(ctx, descriptor)
	if err != nil {
		return err
	}

	record, err := descriptor.Harvest(handle.Workdir)
	if err != nil {
		return err
	}

	if err := host.RecordProvenance(ctx, handle, record); err != nil {
		return err
	}

	if err := printResult(handle, record); err != nil {
		return err
	}

	if !record.Outcome.OK() {
		return commandFailed{}
	}
	return nil
}

// loadConfig resolves the configuration: explicit --config path first,
// then the AIIDA_SHELL_CONFIG environment variable, then built-in
// defaults. A one-shot CLI works out of the box; a config file is only
// required to change the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("AIIDA_SHELL_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel}))
}

// collectNodes builds the artifact map from the repeated key=value
// flags. Keys must be unique across all four artifact flags.
func collectNodes(files, folders, scalars, remotes []string) (map[string]artifact.Artifact, error) {
	nodes := make(map[string]artifact.Artifact)

	add := func(key string, node artifact.Artifact) error {
		if _, exists := nodes[key]; exists {
			return fmt.Errorf("duplicate artifact key %q", key)
		}
		nodes[key] = node
		return nil
	}

	filePairs, err := parsePairs(files, "--file")
	if err != nil {
		return nil, err
	}
	for key, path := range filePairs {
		node, err := artifact.FileFromPath(path)
		if err != nil {
			return nil, fmt.Errorf("reading --file %s: %w", key, err)
		}
		if err := add(key, node); err != nil {
			return nil, err
		}
	}

	folderPairs, err := parsePairs(folders, "--folder")
	if err != nil {
		return nil, err
	}
	for key, path := range folderPairs {
		node, err := artifact.FolderFromDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading --folder %s: %w", key, err)
		}
		if err := add(key, node); err != nil {
			return nil, err
		}
	}

	scalarPairs, err := parsePairs(scalars, "--scalar")
	if err != nil {
		return nil, err
	}
	for key, value := range scalarPairs {
		if err := add(key, &artifact.Scalar{Value: value}); err != nil {
			return nil, err
		}
	}

	remotePairs, err := parsePairs(remotes, "--remote")
	if err != nil {
		return nil, err
	}
	for key, location := range remotePairs {
		host, path, found := strings.Cut(location, ":")
		if !found || host == "" || path == "" {
			return nil, fmt.Errorf("--remote %s: want key=host:path, got %q", key, location)
		}
		if err := add(key, &artifact.Remote{HostIdentity: host, Path: path}); err != nil {
			return nil, err
		}
	}

	return nodes, nil
}

// parsePairs splits repeated key=value flag occurrences into a map.
func parsePairs(pairs []string, flagName string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	parsed := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%s: want key=value, got %q", flagName, pair)
		}
		if _, exists := parsed[key]; exists {
			return nil, fmt.Errorf("%s: duplicate key %q", flagName, key)
		}
		parsed[key] = value
	}
	return parsed, nil
}

func printResult(handle *runner.Handle, record *shelljob.CompletionRecord) error {
	document := result{
		ID:         handle.ID,
		Workdir:    handle.Workdir,
		Outcome:    record.Outcome,
		ExitStatus: record.ExitStatus,
		Missing:    record.Missing,
	}

	labels := make([]string, 0, len(record.Results))
	for label := range record.Results {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		entry := resultEntry{Label: label, Kind: record.Results[label].Kind().String()}
		if file, ok := record.Results[label].(*artifact.File); ok {
			entry.Bytes = len(file.Content)
		}
		document.Results = append(document.Results, entry)
	}

	encoded, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `shell-run - execute a shell command as a tracked job.

Input artifacts are staged into a fresh working directory before the
command runs. Tokens may reference artifacts with {key} placeholders;
file and folder placeholders resolve to the staged filename, scalar
placeholders to the rendered value.

After execution the declared outputs, the captured stdout/stderr, and
the command exit status are harvested into a completion record, which
is persisted and printed as JSON. The process exits non-zero when the
job failed.

Usage:
  shell-run [flags] -- COMMAND [TOKEN...]

Flags:
%s`, flagSet.FlagUsages())
}
