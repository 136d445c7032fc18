package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	splice "github.com/oldnordic/splice"
)

var undoUnconditional bool

var undoCmd = &cobra.Command{
	Use:   "undo <backup-manifest-path>",
	Short: "Restore files from a BackupManifest",
	Long:  "Reads a BackupManifest written by --create-backup and restores each file to its pre-batch bytes, refusing a file whose current hash no longer matches its post-batch hash unless --unconditional is given.",
	Args:  cobra.ExactArgs(1),
	RunE:  runUndo,
}

func init() {
	undoCmd.Flags().BoolVar(&undoUnconditional, "unconditional", false, "restore even if the file has changed since the backed-up operation")
}

func runUndo(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return emitError(err)
	}
	defer engine.Close()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return emitError(fmt.Errorf("reading backup manifest %s: %w", args[0], err))
	}
	var manifest splice.BackupManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return emitError(fmt.Errorf("parsing backup manifest %s: %w", args[0], err))
	}

	if err := engine.Undo(&manifest, undoUnconditional); err != nil {
		return emitError(err)
	}

	files := make([]splice.FileResult, 0, len(manifest.Files))
	for _, entry := range manifest.Files {
		files = append(files, splice.FileResult{Path: entry.Path, BeforeHash: entry.AfterHash, AfterHash: entry.OriginalHash})
	}
	return emitSuccess(fmt.Sprintf("restored %d file(s) from %s", len(manifest.Files), args[0]), &splice.ApplyResult{
		OperationID: manifest.OperationID,
		Files:       files,
	})
}
