// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer. Use this instead of time.Now()
// when tests need distinguishable identifiers.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}

// SequentialEntropy returns an entropy source yielding "0", "1", "2",
// ... in order. Inject it into descriptor inputs so that filename
// disambiguation is deterministic in tests.
func SequentialEntropy() func() string {
	var counter atomic.Uint64
	return func() string {
		return fmt.Sprintf("%d", counter.Add(1)-1)
	}
}
