package main

import (
	"bytes"
	"testing"
)

// captureOutput runs fn with command output redirected to a buffer.
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	orig := stdout
	stdout = &buf
	defer func() { stdout = orig }()

	err := fn()
	return buf.String(), err
}

// resetFlags restores global flags to their defaults for a guest heap.
func resetFlags(t *testing.T) {
	t.Helper()
	verbose, quiet, jsonOut = false, false, false
	backend = "guest"
	reserve = 64 << 20
}
