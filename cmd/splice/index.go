package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oldnordic/splice/internal/lang"
)

var indexCmd = &cobra.Command{
	Use:   "index [paths...]",
	Short: "Parse source files and populate the symbol store",
	Long:  "Parses every recognized source file under the given paths (or the whole workspace root if none are given) and records its symbols, Rust imports, and Rust scopes in the symbol store.",
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return emitError(err)
	}
	defer engine.Close()

	files, err := discoverFiles(engine.Root, args)
	if err != nil {
		return emitError(err)
	}

	if err := engine.IndexWorkspace(context.Background(), files); err != nil {
		return emitError(err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %d file(s) under %s\n", len(files), engine.Root)
	return nil
}

// discoverFiles resolves paths (relative to root, or absolute) into a flat
// list of root-relative file paths with a recognized language. An empty
// paths list walks the whole root.
func discoverFiles(root string, paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{root}
	}

	var out []string
	for _, p := range paths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, p)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", abs, err)
		}
		if !info.IsDir() {
			if _, ok := lang.LanguageForFile(abs); ok {
				out = append(out, relTo(root, abs))
			}
			continue
		}
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == ".git" || d.Name() == ".splice-backup" || d.Name() == ".splice" {
					return filepath.SkipDir
				}
				return nil
			}
			if _, ok := lang.LanguageForFile(path); ok {
				out = append(out, relTo(root, path))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
