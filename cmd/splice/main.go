package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	splice "github.com/oldnordic/splice"
)

var (
	flagRoot string
	flagDB   string
)

// Common options shared by patch/delete/apply-files, per spec.md §6.
var (
	commonLanguage     string
	commonPreview      bool
	commonCreateBackup bool
	commonOperationID  string
	commonMetadata     []string
	commonAnalyzerPath string
	commonAnalyzerAuto bool
)

func registerCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&commonLanguage, "language", "", "language (inferred from --file when omitted)")
	cmd.Flags().BoolVar(&commonPreview, "preview", false, "compute the edit but do not write or gate it")
	cmd.Flags().BoolVar(&commonCreateBackup, "create-backup", false, "back up touched files before writing")
	cmd.Flags().StringVar(&commonOperationID, "operation-id", "", "caller-supplied operation id (default: derived)")
	cmd.Flags().StringArrayVar(&commonMetadata, "metadata", nil, "key=value metadata, repeatable")
	cmd.Flags().StringVar(&commonAnalyzerPath, "analyzer-path", "", "explicit rust-analyzer path (implies analyzer gate)")
	cmd.Flags().BoolVar(&commonAnalyzerAuto, "analyzer-auto", false, "run rust-analyzer if found on PATH, skip otherwise")
}

// buildBatchOptions assembles BatchOptions from the common flags shared by
// patch/delete/apply-files.
func buildBatchOptions() (splice.BatchOptions, error) {
	metadata, err := parseMetadata(commonMetadata)
	if err != nil {
		return splice.BatchOptions{}, err
	}

	opts := splice.BatchOptions{
		Preview:      commonPreview,
		CreateBackup: commonCreateBackup,
		OperationID:  commonOperationID,
		Metadata:     metadata,
		AnalyzerMode: analyzerModeFromFlag(commonAnalyzerPath, commonAnalyzerAuto),
		AnalyzerPath: commonAnalyzerPath,
	}
	if commonLanguage != "" {
		l, ok := parseLanguage(commonLanguage)
		if !ok {
			return splice.BatchOptions{}, fmt.Errorf("unrecognized --language %q", commonLanguage)
		}
		opts.Language = l
	}
	return opts, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "splice",
	Short:         "Span-safe, multi-language source refactoring kernel",
	Long:          "Splice resolves named symbols to byte spans across Rust, Python, C, C++, Java, JavaScript, and TypeScript, and rewrites them under a gated commit/rollback pipeline.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "workspace root")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "symbol store database path (default: <root>/.splice/index.db)")
	viper.SetEnvPrefix("splice")
	viper.AutomaticEnv()

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(applyFilesCmd)
	rootCmd.AddCommand(planCmd)
}

// bindFlags lets SPLICE_ROOT / SPLICE_DB override unset flags, following
// viper's bind-then-override-from-env convention.
func bindFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlag("root", cmd.Flags().Lookup("root")); err != nil {
		return err
	}
	if err := viper.BindPFlag("db", cmd.Flags().Lookup("db")); err != nil {
		return err
	}
	return nil
}

// resolveRoot returns the absolute workspace root.
func resolveRoot() (string, error) {
	root := viper.GetString("root")
	if root == "" {
		root = "."
	}
	return filepath.Abs(root)
}

// resolveDBPath returns the symbol store path, defaulting to
// <root>/.splice/index.db.
func resolveDBPath(root string) string {
	db := viper.GetString("db")
	if db == "" {
		return filepath.Join(root, ".splice", "index.db")
	}
	if filepath.IsAbs(db) {
		return db
	}
	return filepath.Join(root, db)
}

// openEngine resolves --root/--db, ensures the store's parent directory
// exists, and opens the Engine.
func openEngine() (*splice.Engine, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	dbPath := resolveDBPath(root)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	return splice.Open(root, dbPath)
}

// parseLanguage maps a --language flag value to a splice.Language,
// returning ok=false for an empty or unrecognized value.
func parseLanguage(s string) (splice.Language, bool) {
	switch strings.ToLower(s) {
	case "rust":
		return splice.Rust, true
	case "python":
		return splice.Python, true
	case "c":
		return splice.C, true
	case "cpp", "c++":
		return splice.Cpp, true
	case "java":
		return splice.Java, true
	case "javascript", "js":
		return splice.JavaScript, true
	case "typescript", "ts":
		return splice.TypeScript, true
	default:
		return "", false
	}
}

// parseMetadata turns a repeated "key=value" flag into a map.
func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --metadata %q: expected key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

func analyzerModeFromFlag(explicit string, auto bool) splice.AnalyzerMode {
	if explicit != "" {
		return splice.AnalyzerExplicit
	}
	if auto {
		return splice.AnalyzerAuto
	}
	return splice.AnalyzerOff
}
