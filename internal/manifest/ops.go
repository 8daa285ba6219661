package manifest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zjrosen/templar/internal/document"
	"github.com/zjrosen/templar/internal/migration"
)

// Op kinds understood by the declarative migration compiler.
const (
	opSet    = "set"
	opRename = "rename"
	opDelete = "delete"
)

// ErrUnknownOp is returned for op kinds outside the set/rename/delete
// vocabulary.
var ErrUnknownOp = errors.New("unknown op")

// Op is one declarative document transformation. Paths are dot-separated key
// chains into nested mappings; set creates intermediate mappings as needed,
// delete of an absent path is a no-op, rename of an absent path is a step
// failure.
type Op struct {
	Op    string `yaml:"op"`
	Path  string `yaml:"path"`  // set, delete
	Value any    `yaml:"value"` // set
	From  string `yaml:"from"`  // rename
	To    string `yaml:"to"`    // rename
}

func (o Op) validate() error {
	switch o.Op {
	case opSet:
		if o.Path == "" {
			return errors.New("set requires a path")
		}
	case opRename:
		if o.From == "" || o.To == "" {
			return errors.New("rename requires from and to")
		}
	case opDelete:
		if o.Path == "" {
			return errors.New("delete requires a path")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, o.Op)
	}
	return nil
}

// compileOps builds the step's migrate function. Ops apply in order to a copy
// of the incoming document; the first failing op fails the step with the
// original document left untouched.
func compileOps(ops []Op) migration.MigrateFunc {
	return func(_ context.Context, doc document.Document) (migration.StepResult, error) {
		out := doc.Clone()
		for i, op := range ops {
			if err := op.apply(out); err != nil {
				return migration.StepResult{
					Errors: []string{fmt.Sprintf("op %d (%s): %v", i, op.Op, err)},
				}, nil
			}
		}
		return migration.StepResult{Success: true, Doc: out}, nil
	}
}

func (o Op) apply(doc document.Document) error {
	switch o.Op {
	case opSet:
		return setPath(doc, o.Path, o.Value)
	case opRename:
		value, ok := getPath(doc, o.From)
		if !ok {
			return fmt.Errorf("rename source %q not present", o.From)
		}
		if err := deletePath(doc, o.From); err != nil {
			return err
		}
		return setPath(doc, o.To, value)
	case opDelete:
		return deletePath(doc, o.Path)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, o.Op)
	}
}

// getPath walks a dotted path through nested mappings.
func getPath(doc document.Document, path string) (any, bool) {
	keys := strings.Split(path, ".")
	current := map[string]any(doc)
	for i, key := range keys {
		value, ok := current[key]
		if !ok {
			return nil, false
		}
		if i == len(keys)-1 {
			return value, true
		}
		current, ok = value.(map[string]any)
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

// setPath writes value at a dotted path, creating intermediate mappings.
// A non-mapping intermediate value is an error rather than silently replaced.
func setPath(doc document.Document, path string, value any) error {
	keys := strings.Split(path, ".")
	current := map[string]any(doc)
	for _, key := range keys[:len(keys)-1] {
		next, ok := current[key]
		if !ok {
			child := make(map[string]any)
			current[key] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("path %q blocked by non-mapping value at %q", path, key)
		}
		current = child
	}
	current[keys[len(keys)-1]] = value
	return nil
}

// deletePath removes the value at a dotted path. Absent paths are a no-op;
// a non-mapping intermediate is an error.
func deletePath(doc document.Document, path string) error {
	keys := strings.Split(path, ".")
	current := map[string]any(doc)
	for _, key := range keys[:len(keys)-1] {
		next, ok := current[key]
		if !ok {
			return nil
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("path %q blocked by non-mapping value at %q", path, key)
		}
		current = child
	}
	delete(current, keys[len(keys)-1])
	return nil
}
