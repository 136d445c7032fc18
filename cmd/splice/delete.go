package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	splice "github.com/oldnordic/splice"
	"github.com/oldnordic/splice/internal/resolve"
)

var (
	deleteFile   string
	deleteSymbol string
	deleteKind   string
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove a symbol's definition span",
	Long:  "Resolves --file/--symbol (restricted by --kind/--language) and removes its definition span. For Rust, also discovers and removes every reference to it across the indexed workspace.",
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().StringVar(&deleteFile, "file", "", "file containing the symbol")
	deleteCmd.Flags().StringVar(&deleteSymbol, "symbol", "", "symbol name to resolve")
	deleteCmd.Flags().StringVar(&deleteKind, "kind", "", "restrict resolution to this symbol kind")
	registerCommonFlags(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if deleteFile == "" || deleteSymbol == "" {
		return emitError(fmt.Errorf("delete requires --file and --symbol"))
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

	req := resolve.Request{Name: deleteSymbol, File: deleteFile, Kind: splice.SymbolKind(deleteKind)}
	result, err := engine.Delete(context.Background(), req, opts)
	if err != nil {
		return emitError(err)
	}
	return emitSuccess(fmt.Sprintf("deleted %s in %s", deleteSymbol, deleteFile), result)
}
