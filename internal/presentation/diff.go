package presentation

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/templar/internal/document"
)

// DocumentDiff renders a unified-style line diff between a document's state
// before and after migration: deletions prefixed "- ", additions "+ ",
// unchanged lines "  ". Identical documents produce an empty string.
func DocumentDiff(before, after document.Document) (string, error) {
	oldText, err := document.MarshalJSON(before)
	if err != nil {
		return "", err
	}
	newText, err := document.MarshalJSON(after)
	if err != nil {
		return "", err
	}
	if string(oldText) == string(newText) {
		return "", nil
	}

	dmp := diffmatchpatch.New()
	oldChars, newChars, lines := dmp.DiffLinesToChars(string(oldText), string(newText))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lines)

	var b strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
