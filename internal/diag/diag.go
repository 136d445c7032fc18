// Package diag is the Diagnostic Pipeline: per-language external compiler
// invocation and stdout/stderr normalization into the shared
// DiagnosticRecord schema (spec.md §4.7).
package diag

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	splice "github.com/oldnordic/splice"
)

// invocation describes how to run and parse one language's checker.
type invocation struct {
	tool    string
	args    func(file string) []string
	cwd     func(file, root string) string
	perFile bool
	parse   func(tool, stdout, stderr string) []splice.DiagnosticRecord
}

var invocations = map[splice.Language]invocation{
	splice.Rust: {
		tool:    "cargo",
		args:    func(string) []string { return []string{"check"} },
		cwd:     func(_, root string) string { return root },
		perFile: false,
		parse:   parseCargo,
	},
	splice.Python: {
		tool:    "python3",
		args:    func(file string) []string { return []string{"-m", "py_compile", file} },
		cwd:     func(file, _ string) string { return filepath.Dir(file) },
		perFile: true,
		parse:   parseGeneric,
	},
	splice.C: {
		tool:    "clang",
		args:    func(file string) []string { return []string{"-fsyntax-only", file} },
		cwd:     func(file, _ string) string { return filepath.Dir(file) },
		perFile: true,
		parse:   parseClang,
	},
	splice.Cpp: {
		tool:    "clang++",
		args:    func(file string) []string { return []string{"-fsyntax-only", "-std=c++17", file} },
		cwd:     func(file, _ string) string { return filepath.Dir(file) },
		perFile: true,
		parse:   parseClang,
	},
	splice.Java: {
		tool: "javac",
		args: func(file string) []string {
			return []string{"-d", os.TempDir(), file}
		},
		cwd:     func(file, _ string) string { return filepath.Dir(file) },
		perFile: true,
		parse:   parseJavac,
	},
	splice.JavaScript: {
		tool:    "node",
		args:    func(file string) []string { return []string{"--check", file} },
		cwd:     func(file, _ string) string { return filepath.Dir(file) },
		perFile: true,
		parse:   parseGeneric,
	},
	splice.TypeScript: {
		tool: "tsc",
		args: func(file string) []string { return []string{"--noEmit", file} },
		cwd: func(file, _ string) string {
			if root := nearestTSConfigRoot(file); root != "" {
				return root
			}
			return filepath.Dir(file)
		},
		perFile: true,
		parse:   parseTSC,
	},
}

// nearestTSConfigRoot walks up from file's directory looking for a
// tsconfig.json, returning the directory that contains one, or "" if none
// is found short of the filesystem root.
func nearestTSConfigRoot(file string) string {
	dir := filepath.Dir(file)
	for {
		if _, err := os.Stat(filepath.Join(dir, "tsconfig.json")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Pipeline runs and normalizes compiler checks for the apply_batch calls of
// one patch.Engine. The tool-version cache is scoped to the Pipeline instance,
// never global, per spec.md §9.
type Pipeline struct {
	mu       sync.Mutex
	versions map[string]string
	log      *logrus.Entry
}

// New returns a Pipeline with an empty tool-version cache of its own.
func New(log *logrus.Entry) *Pipeline {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pipeline{versions: make(map[string]string), log: log}
}

// Check runs the semantic gate for one language against the given files
// (relative or absolute) rooted at root. Rust runs a single workspace-level
// check regardless of how many files are in the batch; every other
// language runs one check per file, fanned out concurrently and joined
// before diagnostics are interpreted (SPEC_FULL.md §5).
func (p *Pipeline) Check(ctx context.Context, language splice.Language, files []string, root string) ([]splice.DiagnosticRecord, error) {
	inv, ok := invocations[language]
	if !ok {
		return nil, fmt.Errorf("diag: unsupported language %q", language)
	}

	if !inv.perFile {
		return p.run(ctx, inv, root, root)
	}

	const maxParallel = 8
	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var all []splice.DiagnosticRecord
	var firstErr error

	for _, f := range files {
		f := f
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			records, err := p.run(ctx, inv, f, root)
			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
			}
			all = append(all, records...)
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return all, firstErr
	}
	return all, nil
}

func (p *Pipeline) run(ctx context.Context, inv invocation, file, root string) ([]splice.DiagnosticRecord, error) {
	toolPath, version, err := p.resolveTool(inv.tool)
	if err != nil {
		p.log.WithField("tool", inv.tool).Warn("diagnostic tool not available, skipping check")
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, inv.tool, inv.args(file)...)
	cmd.Dir = inv.cwd(file, root)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	_ = cmd.Run() // non-zero exit is expected for files with errors; parse output either way

	records := inv.parse(inv.tool, stdout.String(), stderr.String())
	for i := range records {
		records[i].ToolPath = toolPath
		records[i].ToolVersion = version
		if records[i].File == "" {
			records[i].File = file
		}
	}
	return records, nil
}

func (p *Pipeline) resolveTool(name string) (path, version string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	path, err = exec.LookPath(name)
	if err != nil {
		return "", "", fmt.Errorf("diag: tool %q not found: %w", name, err)
	}
	if v, ok := p.versions[name]; ok {
		return path, v, nil
	}

	cmd := exec.Command(name, "--version")
	out, _ := cmd.Output()
	version = firstLine(string(out))
	p.versions[name] = version
	return path, version, nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

// HasErrors reports whether any record is error-level, which the Patch
// Engine treats as a failed semantic gate.
func HasErrors(records []splice.DiagnosticRecord) bool {
	for _, r := range records {
		if r.Level == splice.LevelError {
			return true
		}
	}
	return false
}
