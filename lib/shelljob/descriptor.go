// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package shelljob

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/sphuber/aiida-shell/lib/artifact"
)

// Reserved filenames. The job itself owns these in the working
// directory: the wrapper line writes the command's exit code to the
// status file, and the execution layer redirects the standard streams
// to the stdout and stderr files. User-specified names must not
// collide with them.
const (
	FilenameStatus = "status"
	FilenameStderr = "stderr"
	FilenameStdout = "stdout"
)

// Options are the execution options of a job.
type Options struct {
	// RedirectStderr merges the stderr stream into the stdout file
	// instead of capturing it separately.
	RedirectStderr bool

	// FilenameStdin names a staged file to redirect to the command's
	// standard input. Expressing stdin redirection with a literal "<"
	// argument is a validation error.
	FilenameStdin string

	// AdditionalRetrieve lists paths to retrieve beyond the defaults
	// and the declared outputs, for consumption by a custom parser
	// hook.
	AdditionalRetrieve []string

	// UseSymlinks makes remote artifacts produce symlink instructions
	// instead of copy instructions.
	UseSymlinks bool

	// OutputFilename overrides the default stdout filename.
	OutputFilename string
}

// Inputs is the declarative description of a shell job invocation,
// validated by [New].
type Inputs struct {
	// Command is the executable to run: a bare name or a path already
	// resolved by the host.
	Command string

	// Arguments is the ordered argument template. A token is either a
	// pure literal or contains a single {name} placeholder.
	Arguments []string

	// Nodes maps names to input artifacts. The name binds placeholders
	// and doubles as the default staged filename.
	Nodes map[string]artifact.Artifact

	// Filenames overrides the staged filename for individual nodes.
	Filenames map[string]string

	// Outputs lists relative path patterns (globs permitted) the
	// harvester must locate after execution.
	Outputs []string

	// Parser optionally post-processes the retrieved directory into
	// additional result artifacts.
	Parser *Hook

	// Options are the execution options.
	Options Options

	// Logger receives staging warnings. Defaults to slog.Default().
	Logger *slog.Logger

	// Entropy is the randomness source for filename disambiguation.
	// Defaults to a UUID-based source; tests inject a deterministic
	// one.
	Entropy EntropySource
}

// Descriptor is a fully validated shell job: constructed once per
// invocation by [New], immutable thereafter. [Descriptor.Prepare]
// consumes it to build a submission, and [Descriptor.Harvest] reads it
// back to recover the validated options after execution.
type Descriptor struct {
	command   string
	arguments []string
	nodes     map[string]artifact.Artifact
	filenames map[string]string
	outputs   []string
	parser    *Hook
	options   Options
	logger    *slog.Logger
	entropy   EntropySource
}

// RemoteInstruction instructs the host transport to copy or symlink
// the contents of a remote path into the working directory before
// execution.
type RemoteInstruction struct {
	HostIdentity string `json:"host_identity"`
	SourceGlob   string `json:"source_glob"`
	Destination  string `json:"destination"`
}

// Submission is the concrete execution plan produced by
// [Descriptor.Prepare]: the argument vector, the redirection plan, the
// remote transfer instructions, and the bookkeeping lists the host
// engine needs.
type Submission struct {
	// Command is the executable reference, unchanged from the inputs.
	Command string `json:"command"`

	// Argv is the finalized argument vector, without the executable.
	Argv []string `json:"argv"`

	// StdinFilename, when non-empty, names the working-directory file
	// to redirect to standard input.
	StdinFilename string `json:"stdin_filename,omitempty"`

	// StdoutFilename is the file capturing standard output.
	StdoutFilename string `json:"stdout_filename"`

	// StderrFilename is the file capturing standard error; empty when
	// stderr is merged into stdout.
	StderrFilename string `json:"stderr_filename,omitempty"`

	// RedirectStderr mirrors the option: stderr merges into stdout.
	RedirectStderr bool `json:"redirect_stderr,omitempty"`

	// AppendText is the wrapper line the execution layer runs after
	// the command to persist its exit code.
	AppendText string `json:"append_text"`

	// RemoteCopy and RemoteSymlink are the transfer instructions for
	// remote artifacts; at most one of the two is populated.
	RemoteCopy    []RemoteInstruction `json:"remote_copy,omitempty"`
	RemoteSymlink []RemoteInstruction `json:"remote_symlink,omitempty"`

	// RetrieveList is the merged set of paths to retrieve after
	// execution: declared outputs, the reserved trio, and any
	// additional retrieve paths.
	RetrieveList []string `json:"retrieve_list"`

	// ProvenanceExclude lists the top-level working-directory names
	// written during staging. Staged inputs must not be recorded as
	// content produced by the job.
	ProvenanceExclude []string `json:"provenance_exclude"`
}

// New validates the declarative inputs and returns an immutable
// descriptor. All configuration errors surface here, before any
// filesystem mutation: reserved-name collisions in outputs or
// filenames, forbidden redirection tokens, malformed or unbound
// placeholders, unrenderable scalars, and invalid parser hooks.
func New(inputs Inputs) (*Descriptor, error) {
	if inputs.Command == "" {
		return nil, fmt.Errorf("command is required")
	}

	logger := inputs.Logger
	if logger == nil {
		logger = slog.Default()
	}
	entropy := inputs.Entropy
	if entropy == nil {
		entropy = defaultEntropy
	}

	descriptor := &Descriptor{
		command:   inputs.Command,
		arguments: append([]string(nil), inputs.Arguments...),
		nodes:     make(map[string]artifact.Artifact, len(inputs.Nodes)),
		filenames: make(map[string]string, len(inputs.Filenames)),
		outputs:   append([]string(nil), inputs.Outputs...),
		parser:    inputs.Parser,
		options:   inputs.Options,
		logger:    logger,
		entropy:   entropy,
	}
	for key, node := range inputs.Nodes {
		descriptor.nodes[key] = node
	}
	for key, name := range inputs.Filenames {
		descriptor.filenames[key] = name
	}
	descriptor.options.AdditionalRetrieve = append([]string(nil), inputs.Options.AdditionalRetrieve...)

	if err := descriptor.validate(); err != nil {
		return nil, err
	}

	return descriptor, nil
}

// validate runs every pre-staging check. Order matters only for error
// message stability.
func (d *Descriptor) validate() error {
	reserved := d.reservedSet()

	if d.options.OutputFilename == FilenameStatus || d.options.OutputFilename == FilenameStderr {
		return fmt.Errorf(
			"%w: stdout filename override %q is a reserved filename",
			ErrReservedOverlap, d.options.OutputFilename,
		)
	}

	for _, token := range d.arguments {
		if token == "<" {
			return fmt.Errorf(
				"`<` cannot be specified in the arguments; to redirect a file to stdin, use the FilenameStdin option",
			)
		}
		if token == ">" {
			return fmt.Errorf("the symbol `>` cannot be specified in the arguments; stdout is automatically redirected")
		}

		names, err := ParsePlaceholders(token)
		if err != nil {
			return err
		}
		for _, name := range names {
			if _, exists := d.nodes[name]; !exists {
				return fmt.Errorf(
					"%w: argument placeholder {%s} not specified in nodes", ErrUnboundPlaceholder, name,
				)
			}
		}
	}

	for _, pattern := range d.outputs {
		if reserved[pattern] {
			return fmt.Errorf(
				"%w: %q is a reserved output filename and cannot be used in outputs",
				ErrReservedOverlap, pattern,
			)
		}
	}

	for key, name := range d.filenames {
		if reserved[name] {
			return fmt.Errorf(
				"%w: explicit filename %q for node %q is a reserved filename",
				ErrReservedOverlap, name, key,
			)
		}
	}

	for key, node := range d.nodes {
		if node == nil {
			return fmt.Errorf("%w: node %q is nil", ErrUnsupportedArtifact, key)
		}
		scalar, isScalar := node.(*artifact.Scalar)
		if !isScalar {
			switch node.(type) {
			case *artifact.File, *artifact.Folder, *artifact.Remote:
			default:
				return fmt.Errorf("%w: node %q has type %T", ErrUnsupportedArtifact, key, node)
			}
			continue
		}
		if _, err := scalar.Render(); err != nil {
			return fmt.Errorf("%w: casting value to string for node %q: %v", ErrUnsupportedArtifact, key, err)
		}
	}

	if d.parser != nil {
		if err := d.parser.validate(); err != nil {
			return err
		}
	}

	return nil
}

// StdoutFilename returns the effective stdout filename, honoring the
// override option.
func (d *Descriptor) StdoutFilename() string {
	if d.options.OutputFilename != "" {
		return d.options.OutputFilename
	}
	return FilenameStdout
}

// ReservedNames returns the filenames the job owns in the working
// directory: the status file, the stderr file, and the effective
// stdout file.
func (d *Descriptor) ReservedNames() []string {
	return []string{FilenameStatus, FilenameStderr, d.StdoutFilename()}
}

func (d *Descriptor) reservedSet() map[string]bool {
	set := make(map[string]bool, 3)
	for _, name := range d.ReservedNames() {
		set[name] = true
	}
	return set
}

// Prepare stages every input artifact into workdir and returns the
// submission plan. The working directory must exist and be dedicated
// to this invocation. Prepare is idempotent for an unmodified
// descriptor: re-running it over the same working directory yields the
// same file set and the same plan.
func (d *Descriptor) Prepare(workdir string) (*Submission, error) {
	negotiate := newNegotiator(d.filenames, d.ReservedNames(), d.entropy, d.logger)
	stage := newStager(workdir)

	assembled, err := d.assemble(negotiate, stage)
	if err != nil {
		return nil, err
	}

	// Everything staged so far is input content: the host must not
	// record it as produced by the job.
	entries, err := os.ReadDir(workdir)
	if err != nil {
		return nil, fmt.Errorf("listing working directory: %w", err)
	}
	exclude := make([]string, 0, len(entries))
	for _, entry := range entries {
		exclude = append(exclude, entry.Name())
	}
	sort.Strings(exclude)

	retrieve := make([]string, 0, len(d.outputs)+3+len(d.options.AdditionalRetrieve))
	retrieve = append(retrieve, d.outputs...)
	retrieve = append(retrieve, FilenameStatus, FilenameStderr, d.StdoutFilename())
	retrieve = append(retrieve, d.options.AdditionalRetrieve...)

	submission := &Submission{
		Command:           d.command,
		Argv:              assembled.argv,
		StdinFilename:     d.options.FilenameStdin,
		StdoutFilename:    d.StdoutFilename(),
		RedirectStderr:    d.options.RedirectStderr,
		AppendText:        fmt.Sprintf("echo $? > %s", FilenameStatus),
		RemoteCopy:        assembled.copies,
		RemoteSymlink:     assembled.symlinks,
		RetrieveList:      retrieve,
		ProvenanceExclude: exclude,
	}
	if !d.options.RedirectStderr {
		submission.StderrFilename = FilenameStderr
	}

	return submission, nil
}
