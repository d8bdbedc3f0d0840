package main

import (
	"bytes"
	"strings"

	diffpatch "github.com/sourcegraph/go-diff-patch"
)

// diffError carries the unified diff between a baseline and the current
// table.
type diffError struct {
	patch string
}

func (e *diffError) Error() string {
	return "table differs from baseline"
}

// compare diffs two CSV renderings, ignoring line ending differences.
func compare(path string, baseline, current []byte) error {
	before := normalizeNewlines(baseline)
	after := normalizeNewlines(current)
	if before == after {
		return nil
	}
	return &diffError{patch: diffpatch.GeneratePatch(path, before, after)}
}

func normalizeNewlines(b []byte) string {
	b = bytes.TrimPrefix(b, []byte("\ufeff"))
	return strings.ReplaceAll(string(b), "\r\n", "\n")
}
