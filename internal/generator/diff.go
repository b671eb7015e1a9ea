package generator

import (
	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff returns a unified diff between the current and rendered
// content of path, or "" when they are identical.
func UnifiedDiff(path, before, after string) (string, error) {
	if before == after {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path,
		ToFile:   path + " (regenerated)",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}
