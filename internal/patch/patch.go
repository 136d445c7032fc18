// Package patch is the Patch Engine: staged, gated, atomically
// committed-or-rolled-back multi-file edits (spec.md §4.6).
package patch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	splice "github.com/oldnordic/splice"
	"github.com/oldnordic/splice/internal/diag"
	"github.com/oldnordic/splice/internal/lang"
	"github.com/oldnordic/splice/internal/span"
)

// Engine applies batches of SpanReplacements under the gated commit/rollback
// protocol spec.md §4.6 describes. An Engine is scoped to one workspace
// root; callers must not share one Engine across concurrent ApplyBatch
// calls touching overlapping files (spec.md §5).
type Engine struct {
	Root string
	Diag *diag.Pipeline
	log  *logrus.Entry
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger; the zero value logs nowhere
// useful beyond the standard logger's default output.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) { e.log = log }
}

// New returns an Engine rooted at root.
func New(root string, opts ...Option) *Engine {
	e := &Engine{Root: root, Diag: diag.New(nil), log: logrus.NewEntry(logrus.StandardLogger())}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// stagedFile is one file's staged edit: its pre- and post-edit bytes, its
// path as it appeared in the batch, and the absolute path used for I/O.
type stagedFile struct {
	path    string
	absPath string
	repls   []splice.SpanReplacement // sorted ascending by ByteStart
	before  []byte
	after   []byte
}

// ApplyBatch runs the full stage → compute → backup → write → syntax-gate →
// semantic-gate → analyzer-gate → commit pipeline, rolling back to
// pre-batch bytes on any gate failure.
func (e *Engine) ApplyBatch(ctx context.Context, batch splice.Batch, opts splice.BatchOptions) (*splice.ApplyResult, error) {
	if len(batch.Replacements) == 0 {
		return &splice.ApplyResult{OperationID: opts.OperationID, Files: []splice.FileResult{}}, nil
	}

	staged, order, err := e.stage(batch)
	if err != nil {
		return nil, err
	}

	if err := compute(staged); err != nil {
		return nil, err
	}

	if opts.Preview {
		return previewResult(opts, staged, order), nil
	}

	operationID := opts.OperationID
	if operationID == "" {
		operationID = newOperationID(order)
	}

	var manifest *splice.BackupManifest
	if opts.CreateBackup {
		manifest, err = e.stageBackup(operationID, staged, order)
		if err != nil {
			return nil, err
		}
	}

	written, err := e.write(staged, order)
	if err != nil {
		return nil, e.rollback(staged, written, manifest, err)
	}

	if !opts.SkipValidation {
		if err := e.syntaxGate(ctx, opts.Language, staged, order); err != nil {
			return nil, e.rollback(staged, order, manifest, err)
		}

		if err := e.semanticGate(ctx, opts.Language, staged, order); err != nil {
			return nil, e.rollback(staged, order, manifest, err)
		}

		if opts.Language == splice.Rust && opts.AnalyzerMode != splice.AnalyzerOff {
			if err := e.analyzerGate(ctx, opts); err != nil {
				return nil, e.rollback(staged, order, manifest, err)
			}
		}
	}

	files := make([]splice.FileResult, 0, len(order))
	for _, path := range order {
		f := staged[path]
		files = append(files, splice.FileResult{
			Path:       f.path,
			BeforeHash: span.SHA256(f.before),
			AfterHash:  span.SHA256(f.after),
		})
	}
	return &splice.ApplyResult{OperationID: operationID, Files: files}, nil
}

// stage groups replacements by file, rejects overlaps and unaligned
// endpoints, and captures each file's pre-edit bytes. order preserves first
// appearance of each file in the batch, for deterministic reporting.
func (e *Engine) stage(batch splice.Batch) (map[string]*stagedFile, []string, error) {
	staged := map[string]*stagedFile{}
	var order []string

	for _, r := range batch.Replacements {
		f, ok := staged[r.File]
		if !ok {
			absPath := r.File
			if !filepath.IsAbs(absPath) {
				absPath = filepath.Join(e.Root, r.File)
			}
			before, err := os.ReadFile(absPath)
			if err != nil {
				return nil, nil, fmt.Errorf("patch: reading %s: %w", r.File, err)
			}
			f = &stagedFile{path: r.File, absPath: absPath, before: before}
			staged[r.File] = f
			order = append(order, r.File)
		}
		f.repls = append(f.repls, r)
	}

	for _, f := range staged {
		sort.Slice(f.repls, func(i, j int) bool { return f.repls[i].ByteStart < f.repls[j].ByteStart })
		for i, r := range f.repls {
			if !span.IsUTF8Boundary(f.before, r.ByteStart) || !span.IsUTF8Boundary(f.before, r.ByteEnd) {
				return nil, nil, &splice.UnalignedSpanError{File: f.path, Offset: r.ByteStart}
			}
			if i > 0 {
				prev := f.repls[i-1]
				a := span.Span{Start: prev.ByteStart, End: prev.ByteEnd}
				b := span.Span{Start: r.ByteStart, End: r.ByteEnd}
				if a.Overlaps(b) {
					return nil, nil, &splice.UnalignedSpanError{File: f.path, Offset: r.ByteStart}
				}
			}
		}
	}
	return staged, order, nil
}

// compute applies each file's replacements in descending byte_start order,
// per spec.md §4.6 step 2, so earlier offsets stay valid as later ones are
// consumed.
func compute(staged map[string]*stagedFile) error {
	for _, f := range staged {
		buf := f.before
		for i := len(f.repls) - 1; i >= 0; i-- {
			r := f.repls[i]
			next, err := span.ReplaceRange(buf, r.ByteStart, r.ByteEnd, r.NewContent)
			if err != nil {
				return &splice.UnalignedSpanError{File: f.path, Offset: r.ByteStart}
			}
			buf = next
		}
		f.after = buf
	}
	return nil
}

// write commits each staged file's new bytes via write-temp-then-rename,
// fsyncing before the rename so the rename is the linearization point.
// Returns the list of files successfully written, in case a later file
// fails and the caller must roll back only what actually changed on disk.
func (e *Engine) write(staged map[string]*stagedFile, order []string) ([]string, error) {
	var done []string
	for _, path := range order {
		f := staged[path]
		dir := filepath.Dir(f.absPath)
		tmp, err := os.CreateTemp(dir, ".splice-tmp-*")
		if err != nil {
			return done, fmt.Errorf("patch: creating temp file for %s: %w", path, err)
		}
		if _, err := tmp.Write(f.after); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return done, fmt.Errorf("patch: writing %s: %w", path, err)
		}
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return done, fmt.Errorf("patch: fsyncing %s: %w", path, err)
		}
		tmp.Close()
		if err := os.Rename(tmp.Name(), f.absPath); err != nil {
			os.Remove(tmp.Name())
			return done, fmt.Errorf("patch: renaming into place for %s: %w", path, err)
		}
		done = append(done, path)
	}
	return done, nil
}

// syntaxGate re-parses every touched file and fails on the first parse
// error, per spec.md §4.6 step 5.
func (e *Engine) syntaxGate(ctx context.Context, language splice.Language, staged map[string]*stagedFile, order []string) error {
	for _, path := range order {
		f := staged[path]
		if err := lang.Reparse(ctx, path, f.after, language); err != nil {
			return err
		}
	}
	return nil
}

// semanticGate invokes the Diagnostic Pipeline once per spec.md §4.6 step
// 6: a single workspace-level check for Rust, one per-file check (fanned
// out) for every other language.
func (e *Engine) semanticGate(ctx context.Context, language splice.Language, staged map[string]*stagedFile, order []string) error {
	files := make([]string, len(order))
	for i, path := range order {
		files[i] = staged[path].absPath
	}

	records, err := e.Diag.Check(ctx, language, files, e.Root)
	if err != nil {
		e.log.WithError(err).Warn("diagnostic pipeline invocation error")
	}
	if !diag.HasErrors(records) {
		return nil
	}
	if language == splice.Rust {
		return &splice.CargoCheckFailedError{Diagnostics: records}
	}
	return &splice.CompilerValidationFailedError{Language: language, Diagnostics: records}
}

// rollback restores every file named in touched to its pre-batch bytes,
// returning cause unchanged on success. touched is either the subset
// actually written (on a write failure) or the full order (on a gate
// failure, since all files were written before any gate runs).
func (e *Engine) rollback(staged map[string]*stagedFile, touched []string, manifest *splice.BackupManifest, cause error) error {
	for _, path := range touched {
		f := staged[path]
		if err := e.restoreFile(f.absPath, f.before); err != nil {
			e.log.WithError(err).WithField("file", path).Error("rollback failed to restore file")
			return &splice.RollbackFailedError{Cause: cause, RollbackCause: err, BackupManifest: manifest}
		}
	}
	return cause
}

// restoreFile writes data to absPath via the same temp-then-rename protocol
// as write, so a rollback's own I/O failure modes match the forward path's.
func (e *Engine) restoreFile(absPath string, data []byte) error {
	dir := filepath.Dir(absPath)
	tmp, err := os.CreateTemp(dir, ".splice-rollback-*")
	if err != nil {
		return fmt.Errorf("patch: rollback: creating temp file for %s: %w", absPath, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("patch: rollback: writing %s: %w", absPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("patch: rollback: fsyncing %s: %w", absPath, err)
	}
	tmp.Close()
	if err := os.Rename(tmp.Name(), absPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("patch: rollback: renaming into place for %s: %w", absPath, err)
	}
	return nil
}

// stageBackup copies each staged file's pre-edit bytes under
// .splice-backup/<operationID>/ and returns the manifest describing them,
// per spec.md §4.6 step 3 and §6's backup layout.
func (e *Engine) stageBackup(operationID string, staged map[string]*stagedFile, order []string) (*splice.BackupManifest, error) {
	backupDir := filepath.Join(e.Root, ".splice-backup", operationID)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("patch: creating backup directory: %w", err)
	}

	manifest := &splice.BackupManifest{OperationID: operationID, CreatedAt: time.Now()}
	for i, path := range order {
		f := staged[path]
		backupPath := filepath.Join(backupDir, fmt.Sprintf("%d-%s", i, filepath.Base(path)))
		if err := os.WriteFile(backupPath, f.before, 0o644); err != nil {
			return nil, fmt.Errorf("patch: backing up %s: %w", path, err)
		}
		manifest.Files = append(manifest.Files, splice.BackupEntry{
			Path:         path,
			OriginalHash: span.SHA256(f.before),
			AfterHash:    span.SHA256(f.after),
			BackupPath:   backupPath,
		})
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("patch: encoding backup manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(backupDir, "manifest.json"), data, 0o644); err != nil {
		return nil, fmt.Errorf("patch: writing backup manifest: %w", err)
	}
	return manifest, nil
}

// previewResult computes the effect of a staged-and-computed batch without
// writing anything to disk, per spec.md §4.6's preview mode.
func previewResult(opts splice.BatchOptions, staged map[string]*stagedFile, order []string) *splice.ApplyResult {
	files := make([]splice.FileResult, 0, len(order))
	for _, path := range order {
		f := staged[path]
		files = append(files, splice.FileResult{
			Path:       f.path,
			BeforeHash: span.SHA256(f.before),
			AfterHash:  span.SHA256(f.after),
		})
	}

	// A single combined report across every touched file; per-file detail
	// lives in the Files list above via before/after hashes.
	var linesAdded, linesRemoved, bytesAdded, bytesRemoved int
	for _, path := range order {
		f := staged[path]
		ba, br := lineDelta(f.before, f.after)
		linesAdded += ba
		linesRemoved += br
		if d := len(f.after) - len(f.before); d > 0 {
			bytesAdded += d
		} else {
			bytesRemoved += -d
		}
	}

	return &splice.ApplyResult{
		OperationID: opts.OperationID,
		Files:       files,
		PreviewReport: &splice.PreviewReport{
			LinesAdded:   linesAdded,
			LinesRemoved: linesRemoved,
			BytesAdded:   bytesAdded,
			BytesRemoved: bytesRemoved,
		},
	}
}

// lineDelta estimates lines added/removed between before and after by
// comparing newline counts; Splice's preview report is a summary, not a
// line-oriented diff.
func lineDelta(before, after []byte) (added, removed int) {
	b := countLines(before)
	a := countLines(after)
	if a > b {
		return a - b, 0
	}
	return 0, b - a
}

func countLines(buf []byte) int {
	n := 0
	for _, c := range buf {
		if c == '\n' {
			n++
		}
	}
	return n
}

// analyzerGate runs the optional rust-analyzer check after the syntax and
// semantic gates pass, per spec.md §4.6 step 7. Any output at all is
// treated as at least one actionable finding and fails the gate.
func (e *Engine) analyzerGate(ctx context.Context, opts splice.BatchOptions) error {
	path := opts.AnalyzerPath
	if opts.AnalyzerMode == splice.AnalyzerAuto || path == "" {
		found, err := exec.LookPath("rust-analyzer")
		if err != nil {
			if opts.AnalyzerMode == splice.AnalyzerExplicit {
				return &splice.AnalyzerNotAvailableError{Path: opts.AnalyzerPath}
			}
			e.log.Warn("rust-analyzer not found on PATH, skipping optional gate")
			return nil
		}
		path = found
	} else if _, err := os.Stat(path); err != nil {
		return &splice.AnalyzerNotAvailableError{Path: path}
	}

	cmd := exec.CommandContext(ctx, path, "diagnostics", e.Root)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	_ = cmd.Run()

	output := strings.TrimSpace(stdout.String() + stderr.String())
	if output == "" {
		return nil
	}
	return &splice.AnalyzerFailedError{Output: output}
}

func newOperationID(order []string) string {
	joined := ""
	for _, p := range order {
		joined += p + "\x00"
	}
	return span.SHA256([]byte(joined))[:16]
}
