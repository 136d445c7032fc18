// Package manifest reads and validates the Batch Manifest and Plan JSON
// formats external callers use to drive apply_batch and the plan
// orchestrator (spec.md §6).
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	splice "github.com/oldnordic/splice"
)

// rawBatchFile is the on-disk Batch Manifest shape.
type rawBatchFile struct {
	Batches []rawBatch `json:"batches"`
}

type rawBatch struct {
	Replacements []rawReplacement `json:"replacements"`
}

type rawReplacement struct {
	File    string  `json:"file"`
	Start   *int    `json:"start"`
	End     *int    `json:"end"`
	Content *string `json:"content"`
	With    *string `json:"with"`
}

// LoadBatches parses a Batch Manifest file at path and resolves every
// "file"/"with" path relative to the manifest's own parent directory, per
// spec.md §6. Each top-level batch becomes one splice.Batch.
func LoadBatches(path string) ([]splice.Batch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &splice.InvalidBatchSchemaError{Path: path, Message: err.Error()}
	}

	var file rawBatchFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, &splice.InvalidBatchSchemaError{Path: path, Message: err.Error()}
	}

	dir := filepath.Dir(path)
	batches := make([]splice.Batch, 0, len(file.Batches))
	for bi, rb := range file.Batches {
		batch := splice.Batch{Replacements: make([]splice.SpanReplacement, 0, len(rb.Replacements))}
		for ri, rr := range rb.Replacements {
			repl, err := resolveReplacement(dir, rr)
			if err != nil {
				return nil, &splice.InvalidBatchSchemaError{
					Path:    path,
					Message: fmt.Sprintf("batch %d, replacement %d: %s", bi, ri, err),
				}
			}
			batch.Replacements = append(batch.Replacements, repl)
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

func resolveReplacement(dir string, rr rawReplacement) (splice.SpanReplacement, error) {
	if rr.File == "" {
		return splice.SpanReplacement{}, fmt.Errorf("missing required field \"file\"")
	}
	if rr.Start == nil || rr.End == nil {
		return splice.SpanReplacement{}, fmt.Errorf("missing required field \"start\" or \"end\"")
	}
	if *rr.Start < 0 || *rr.End < *rr.Start {
		return splice.SpanReplacement{}, fmt.Errorf("invalid span [%d,%d)", *rr.Start, *rr.End)
	}
	if rr.Content != nil && rr.With != nil {
		return splice.SpanReplacement{}, fmt.Errorf("\"content\" and \"with\" are mutually exclusive")
	}
	if rr.Content == nil && rr.With == nil {
		return splice.SpanReplacement{}, fmt.Errorf("exactly one of \"content\" or \"with\" is required")
	}

	var content []byte
	if rr.Content != nil {
		content = []byte(*rr.Content)
	} else {
		withPath := resolvePath(dir, *rr.With)
		data, err := os.ReadFile(withPath)
		if err != nil {
			return splice.SpanReplacement{}, fmt.Errorf("reading \"with\" file %s: %w", withPath, err)
		}
		content = data
	}

	return splice.SpanReplacement{
		File:       resolvePath(dir, rr.File),
		ByteStart:  *rr.Start,
		ByteEnd:    *rr.End,
		NewContent: content,
	}, nil
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// PlanStep is one step of a Plan file: replace (or delete, when With is
// empty) the span of a single named symbol.
type PlanStep struct {
	File   string
	Symbol string
	Kind   string
	With   string // replacement content path, joined with the plan file's directory unless absolute; empty means delete
}

type rawPlanFile struct {
	Steps []rawPlanStep `json:"steps"`
}

type rawPlanStep struct {
	File   string `json:"file"`
	Symbol string `json:"symbol"`
	Kind   string `json:"kind,omitempty"`
	With   string `json:"with,omitempty"`
}

// LoadPlan parses a Plan file at path, resolving "with" paths relative to
// the plan's own parent directory.
func LoadPlan(path string) ([]PlanStep, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &splice.InvalidBatchSchemaError{Path: path, Message: err.Error()}
	}

	var file rawPlanFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, &splice.InvalidBatchSchemaError{Path: path, Message: err.Error()}
	}

	dir := filepath.Dir(path)
	steps := make([]PlanStep, 0, len(file.Steps))
	for i, rs := range file.Steps {
		if rs.File == "" || rs.Symbol == "" {
			return nil, &splice.InvalidBatchSchemaError{
				Path:    path,
				Message: fmt.Sprintf("step %d: missing required field \"file\" or \"symbol\"", i),
			}
		}
		step := PlanStep{File: rs.File, Symbol: rs.Symbol, Kind: rs.Kind}
		if rs.With != "" {
			step.With = resolvePath(dir, rs.With)
		}
		steps = append(steps, step)
	}
	return steps, nil
}
