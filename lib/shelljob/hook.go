// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package shelljob

import (
	"fmt"
	"sync"

	"github.com/sphuber/aiida-shell/lib/artifact"
)

// HookFunc is the plain parser-hook shape: it receives the retrieved
// directory and returns additional result artifacts keyed by label.
type HookFunc func(dirpath string) (map[string]artifact.Artifact, error)

// HarvesterHookFunc is the extended shape for hooks that want to emit
// results incrementally through the active harvester instead of (or in
// addition to) returning them.
type HarvesterHookFunc func(dirpath string, harvester *Harvester) (map[string]artifact.Artifact, error)

// Hook is a parser hook in one of three forms: an inline plain
// function, an inline harvester-aware function, or a symbolic
// reference to a function registered with [RegisterHook] or
// [RegisterHarvesterHook]. The symbolic form is the serializable one -
// it survives a round trip through a persisted descriptor record.
type Hook struct {
	name          string
	plain         HookFunc
	withHarvester HarvesterHookFunc
}

// InlineHook wraps a plain parser function.
func InlineHook(fn HookFunc) *Hook {
	return &Hook{plain: fn}
}

// InlineHarvesterHook wraps a harvester-aware parser function.
func InlineHarvesterHook(fn HarvesterHookFunc) *Hook {
	return &Hook{withHarvester: fn}
}

// NamedHook references a registered parser function by name. The name
// must be registered before the descriptor is validated.
func NamedHook(name string) *Hook {
	return &Hook{name: name}
}

// Name returns the registered name, or empty for inline hooks.
func (h *Hook) Name() string { return h.name }

var hookRegistry = struct {
	sync.RWMutex
	entries map[string]*Hook
}{entries: make(map[string]*Hook)}

// RegisterHook registers a plain parser function under a name, making
// it addressable through [NamedHook]. Registering the same name twice
// is an error - silent replacement would make persisted descriptors
// ambiguous.
func RegisterHook(name string, fn HookFunc) error {
	return registerHook(name, &Hook{name: name, plain: fn})
}

// RegisterHarvesterHook registers a harvester-aware parser function
// under a name.
func RegisterHarvesterHook(name string, fn HarvesterHookFunc) error {
	return registerHook(name, &Hook{name: name, withHarvester: fn})
}

func registerHook(name string, hook *Hook) error {
	if name == "" {
		return fmt.Errorf("%w: hook name is empty", ErrInvalidHook)
	}
	hookRegistry.Lock()
	defer hookRegistry.Unlock()
	if _, exists := hookRegistry.entries[name]; exists {
		return fmt.Errorf("%w: hook %q is already registered", ErrInvalidHook, name)
	}
	hookRegistry.entries[name] = hook
	return nil
}

// validate checks the hook resolves to exactly one accepted call
// shape. Runs during descriptor validation, before execution.
func (h *Hook) validate() error {
	if h.plain != nil && h.withHarvester != nil {
		return fmt.Errorf("%w: both call shapes set", ErrInvalidHook)
	}
	if h.plain != nil || h.withHarvester != nil {
		return nil
	}
	if h.name == "" {
		return fmt.Errorf("%w: hook has neither a function nor a name", ErrInvalidHook)
	}

	hookRegistry.RLock()
	defer hookRegistry.RUnlock()
	if _, exists := hookRegistry.entries[h.name]; !exists {
		return fmt.Errorf("%w: no hook registered under %q", ErrInvalidHook, h.name)
	}
	return nil
}

// invoke runs the hook against the retrieved directory. A panic inside
// the hook is recovered and reported as an error so that the harvester
// can convert it to the parser-hook outcome instead of crashing the
// invocation.
func (h *Hook) invoke(dirpath string, harvester *Harvester) (results map[string]artifact.Artifact, err error) {
	target := h
	if h.plain == nil && h.withHarvester == nil {
		hookRegistry.RLock()
		registered, exists := hookRegistry.entries[h.name]
		hookRegistry.RUnlock()
		if !exists {
			return nil, fmt.Errorf("%w: no hook registered under %q", ErrInvalidHook, h.name)
		}
		target = registered
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			results = nil
			err = fmt.Errorf("parser hook panicked: %v", recovered)
		}
	}()

	if target.withHarvester != nil {
		return target.withHarvester(dirpath, harvester)
	}
	return target.plain(dirpath)
}
