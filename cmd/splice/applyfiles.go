package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	applyFilesFind       string
	applyFilesReplace    string
	applyFilesNoValidate bool
)

var applyFilesCmd = &cobra.Command{
	Use:   "apply-files <path...>",
	Short: "AST-anchored textual find/replace across files",
	Long:  "Replaces every textual occurrence of --find with --replace in each given file (or every file discovered under a given directory), skipping matches that fall inside a comment or string token unless --find itself starts with that token's prefix.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runApplyFiles,
}

func init() {
	applyFilesCmd.Flags().StringVar(&applyFilesFind, "find", "", "search text (required)")
	applyFilesCmd.Flags().StringVar(&applyFilesReplace, "replace", "", "replacement text (required)")
	applyFilesCmd.Flags().BoolVar(&applyFilesNoValidate, "no-validate", false, "skip the syntax/semantic/analyzer gates")
	registerCommonFlags(applyFilesCmd)
}

func runApplyFiles(cmd *cobra.Command, args []string) error {
	if applyFilesFind == "" {
		return emitError(fmt.Errorf("apply-files requires --find"))
	}

	engine, err := openEngine()
	if err != nil {
		return emitError(err)
	}
	defer engine.Close()

	opts, err := buildBatchOptions()
	if err != nil {
		return emitError(err)
	}
	opts.SkipValidation = applyFilesNoValidate
	if opts.Language == "" {
		return emitError(fmt.Errorf("apply-files requires --language"))
	}

	files, err := discoverFiles(engine.Root, args)
	if err != nil {
		return emitError(err)
	}

	result, err := engine.ApplyFiles(context.Background(), files, applyFilesFind, applyFilesReplace, opts.Language, opts)
	if err != nil {
		return emitError(err)
	}
	return emitSuccess(fmt.Sprintf("rewrote %d of %d file(s)", len(result.Result.Files), len(result.Processed)), result.Result)
}
