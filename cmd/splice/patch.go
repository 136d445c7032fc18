package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	splice "github.com/oldnordic/splice"
	"github.com/oldnordic/splice/internal/resolve"
)

var (
	patchFile     string
	patchSymbol   string
	patchKind     string
	patchWith     string
	patchManifest string
)

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Replace a symbol's span, or apply a Batch Manifest",
	Long:  "Single-span mode resolves --file/--symbol (restricted by --kind/--language) and replaces its definition with --with's contents. Batch mode (--manifest) applies every replacement in a Batch Manifest file as one transaction.",
	RunE:  runPatch,
}

func init() {
	patchCmd.Flags().StringVar(&patchFile, "file", "", "file containing the symbol (single-span mode)")
	patchCmd.Flags().StringVar(&patchSymbol, "symbol", "", "symbol name to resolve (single-span mode)")
	patchCmd.Flags().StringVar(&patchKind, "kind", "", "restrict resolution to this symbol kind")
	patchCmd.Flags().StringVar(&patchWith, "with", "", "path to the replacement content (single-span mode)")
	patchCmd.Flags().StringVar(&patchManifest, "manifest", "", "Batch Manifest path (batch mode, requires --language)")
	registerCommonFlags(patchCmd)
}

func runPatch(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return emitError(err)
	}
	defer engine.Close()

	opts, err := buildBatchOptions()
	if err != nil {
		return emitError(err)
	}

	ctx := context.Background()

	if patchManifest != "" {
		if opts.Language == "" {
			return emitError(fmt.Errorf("--language is required with --manifest"))
		}
		result, err := engine.ApplyBatchFile(ctx, patchManifest, opts)
		if err != nil {
			return emitError(err)
		}
		return emitSuccess(fmt.Sprintf("applied batch manifest %s", patchManifest), result)
	}

	if patchFile == "" || patchSymbol == "" || patchWith == "" {
		return emitError(fmt.Errorf("single-span mode requires --file, --symbol, and --with (or use --manifest)"))
	}

	content, err := os.ReadFile(patchWith)
	if err != nil {
		return emitError(fmt.Errorf("reading --with %s: %w", patchWith, err))
	}

	req := resolve.Request{Name: patchSymbol, File: patchFile, Kind: splice.SymbolKind(patchKind)}
	result, err := engine.Patch(ctx, req, content, opts)
	if err != nil {
		return emitError(err)
	}
	return emitSuccess(fmt.Sprintf("patched %s in %s", patchSymbol, patchFile), result)
}
