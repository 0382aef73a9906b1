// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package shelljob

import (
	"fmt"
	"sort"

	"github.com/sphuber/aiida-shell/lib/artifact"
)

// assembly is the result of processing the argument template against
// the node set: the final argument vector plus the remote copy or
// symlink instructions for remote artifacts.
type assembly struct {
	argv     []string
	copies   []RemoteInstruction
	symlinks []RemoteInstruction
}

// assemble walks the argument template in order, staging each
// referenced file or folder artifact on first use and substituting its
// finalized relative filename for the placeholder. Scalars substitute
// their rendered value. Remote artifacts never produce an argument:
// the token is dropped from the vector and the artifact is routed to
// the remote instruction lists instead.
//
// After the template is exhausted, file and folder artifacts that were
// never referenced by a placeholder are still staged under the same
// filename rules, so files the command discovers by convention are
// present. Finally, a configured stdin filename appearing verbatim in
// the vector is removed - the redirection is applied by the execution
// layer, not as a literal argument.
func (d *Descriptor) assemble(negotiate *negotiator, stage *stager) (*assembly, error) {
	result := &assembly{}
	referenced := make(map[string]bool)

	for _, token := range d.arguments {
		names, err := ParsePlaceholders(token)
		if err != nil {
			return nil, err
		}

		if len(names) == 0 {
			result.argv = append(result.argv, token)
			continue
		}

		key := names[0]
		node, exists := d.nodes[key]
		if !exists {
			return nil, fmt.Errorf("%w: argument placeholder {%s} not specified in nodes", ErrUnboundPlaceholder, key)
		}
		referenced[key] = true

		switch typed := node.(type) {
		case *artifact.File:
			finalized, err := negotiate.fileFilename(key, typed)
			if err != nil {
				return nil, err
			}
			if err := stage.stageFile(key, typed, finalized); err != nil {
				return nil, err
			}
			result.argv = append(result.argv, substitutePlaceholder(token, finalized))

		case *artifact.Folder:
			finalized, err := negotiate.folderFilename(key, typed)
			if err != nil {
				return nil, err
			}
			if err := stage.stageFolder(key, typed, finalized); err != nil {
				return nil, err
			}
			// A folder staged into the working directory root has no
			// filename of its own; the key stands in as the label.
			substituted := finalized
			if substituted == "" {
				substituted = key
			}
			result.argv = append(result.argv, substitutePlaceholder(token, substituted))

		case *artifact.Remote:
			// Remote content is not an in-place filename: the token is
			// dropped and the artifact handled below with the rest of
			// the remote nodes.

		case *artifact.Scalar:
			rendered, err := typed.Render()
			if err != nil {
				return nil, fmt.Errorf("%w: node %q: %v", ErrUnsupportedArtifact, key, err)
			}
			result.argv = append(result.argv, substitutePlaceholder(token, rendered))

		default:
			return nil, fmt.Errorf("%w: node %q has type %T", ErrUnsupportedArtifact, key, node)
		}
	}

	// Stage the file and folder artifacts no placeholder referenced.
	// Sorted key order keeps collision errors deterministic.
	keys := make([]string, 0, len(d.nodes))
	for key := range d.nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if referenced[key] {
			continue
		}
		switch typed := d.nodes[key].(type) {
		case *artifact.File:
			finalized, err := negotiate.fileFilename(key, typed)
			if err != nil {
				return nil, err
			}
			if err := stage.stageFile(key, typed, finalized); err != nil {
				return nil, err
			}
		case *artifact.Folder:
			finalized, err := negotiate.folderFilename(key, typed)
			if err != nil {
				return nil, err
			}
			if err := stage.stageFolder(key, typed, finalized); err != nil {
				return nil, err
			}
		}
	}

	// Remote artifacts produce one instruction each, copy or symlink
	// uniformly for the whole job per the use-symlinks option, whether
	// or not a placeholder referenced them.
	for _, key := range keys {
		remote, isRemote := d.nodes[key].(*artifact.Remote)
		if !isRemote {
			continue
		}
		instruction := RemoteInstruction{
			HostIdentity: remote.HostIdentity,
			SourceGlob:   remote.Path + "/*",
			Destination:  ".",
		}
		if d.options.UseSymlinks {
			result.symlinks = append(result.symlinks, instruction)
		} else {
			result.copies = append(result.copies, instruction)
		}
	}

	// The stdin redirection is applied by the execution layer; a
	// matching literal argument would be passed to the command twice.
	if d.options.FilenameStdin != "" {
		filtered := result.argv[:0]
		for _, token := range result.argv {
			if token != d.options.FilenameStdin {
				filtered = append(filtered, token)
			}
		}
		result.argv = filtered
	}

	return result, nil
}
