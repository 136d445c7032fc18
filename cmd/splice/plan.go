package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	splice "github.com/oldnordic/splice"
	"github.com/oldnordic/splice/internal/manifest"
	"github.com/oldnordic/splice/internal/resolve"
)

var planCmd = &cobra.Command{
	Use:   "plan <plan-path>",
	Short: "Run a sequence of patch/delete steps from a Plan file",
	Long:  "Runs each step of a Plan file in order; a step with no \"with\" field deletes its symbol, otherwise it replaces the symbol's span with the named file's contents. Step i's failure halts execution with steps 1..i-1 already committed.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func init() {
	registerCommonFlags(planCmd)
}

// planExecutionFailedError reports which step of a Plan failed and why.
// It is intentionally not part of the root splice package's closed error
// taxonomy: it belongs to this out-of-core plan orchestrator, per
// SPEC_FULL.md §7.
type planExecutionFailedError struct {
	Step  int
	Total int
	Cause error
}

func (e *planExecutionFailedError) Error() string {
	return fmt.Sprintf("plan: step %d/%d failed: %v", e.Step+1, e.Total, e.Cause)
}

func (e *planExecutionFailedError) Unwrap() error {
	return e.Cause
}

func runPlan(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return emitError(err)
	}
	defer engine.Close()

	opts, err := buildBatchOptions()
	if err != nil {
		return emitError(err)
	}

	steps, err := manifest.LoadPlan(args[0])
	if err != nil {
		return emitError(err)
	}

	ctx := context.Background()
	var last *splice.ApplyResult
	for i, step := range steps {
		req := resolve.Request{Name: step.Symbol, File: step.File, Kind: splice.SymbolKind(step.Kind)}
		stepOpts := opts

		var result *splice.ApplyResult
		if step.With == "" {
			result, err = engine.Delete(ctx, req, stepOpts)
		} else {
			content, rerr := os.ReadFile(step.With)
			if rerr != nil {
				return emitError(&planExecutionFailedError{Step: i, Total: len(steps), Cause: rerr})
			}
			result, err = engine.Patch(ctx, req, content, stepOpts)
		}
		if err != nil {
			return emitError(&planExecutionFailedError{Step: i, Total: len(steps), Cause: err})
		}
		last = result
	}

	fmt.Fprintf(os.Stderr, "Plan %s: %d step(s) committed\n", args[0], len(steps))
	if last == nil {
		return emitSuccess(fmt.Sprintf("plan %s had no steps", args[0]), &splice.ApplyResult{Files: []splice.FileResult{}})
	}
	return emitSuccess(fmt.Sprintf("plan %s completed", args[0]), last)
}
