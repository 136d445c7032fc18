package splice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/oldnordic/splice/internal/lang"
	"github.com/oldnordic/splice/internal/manifest"
	"github.com/oldnordic/splice/internal/patch"
	"github.com/oldnordic/splice/internal/refs"
	"github.com/oldnordic/splice/internal/resolve"
	"github.com/oldnordic/splice/internal/span"
	"github.com/oldnordic/splice/internal/store"
)

// Engine wires every component together for one workspace root: the
// persistent Symbol Store, the Patch Engine, and the Parser Registry
// operations that feed them. It is the concrete implementation behind the
// public API this package's doc comment describes.
type Engine struct {
	Root        string
	Store       *store.Store
	PatchEngine *patch.Engine
	log         *logrus.Entry
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) { e.log = log }
}

// Open creates an Engine rooted at root, backed by a SQLite database at
// dbPath (created and migrated if it doesn't already exist).
func Open(root, dbPath string, opts ...Option) (*Engine, error) {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("splice: opening store: %w", err)
	}
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, fmt.Errorf("splice: migrating store: %w", err)
	}

	log := logrus.NewEntry(logrus.StandardLogger())
	e := &Engine{
		Root:        root,
		Store:       st,
		log:         log,
		PatchEngine: patch.New(root, patch.WithLogger(log)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Close releases the Engine's Symbol Store connection.
func (e *Engine) Close() error {
	return e.Store.Close()
}

// IndexWorkspace parses every file in files (paths relative to e.Root or
// absolute), replacing each file's prior indexed data, and populates the
// Symbol Store with its Symbols and — for Rust — Imports and Scopes. This
// is what gives the Resolver and Reference Finder workspace-wide reach
// without re-parsing on every patch/delete call.
func (e *Engine) IndexWorkspace(ctx context.Context, files []string) error {
	for _, rel := range files {
		language, ok := lang.LanguageForFile(rel)
		if !ok {
			continue
		}

		absPath := rel
		if !filepath.IsAbs(absPath) {
			absPath = filepath.Join(e.Root, rel)
		}
		src, err := os.ReadFile(absPath)
		if err != nil {
			return fmt.Errorf("splice: indexing %s: %w", rel, err)
		}

		if err := e.indexFile(ctx, rel, src, language); err != nil {
			return fmt.Errorf("splice: indexing %s: %w", rel, err)
		}
	}
	return nil
}

func (e *Engine) indexFile(ctx context.Context, rel string, src []byte, language Language) error {
	tree, err := lang.Parse(ctx, src, language)
	if err != nil {
		return err
	}
	defer tree.Close()

	existing, err := e.Store.FileByPath(rel)
	if err != nil {
		return err
	}
	if existing != nil {
		if err := e.Store.DeleteFileData(existing.ID); err != nil {
			return err
		}
		if _, err := e.Store.DB().Exec("DELETE FROM files WHERE id = ?", existing.ID); err != nil {
			return err
		}
	}

	fileID, err := e.Store.InsertFile(&store.File{
		Path:     rel,
		Language: string(language),
		Hash:     span.SHA256(src),
		Size:     int64(len(src)),
	})
	if err != nil {
		return err
	}

	// Buffer this file's symbols/imports/scopes/bindings in memory and commit
	// them as one transaction, instead of one round trip per row.
	batch := store.NewBatchedStore(e.Store)

	for _, sym := range lang.ExtractSymbols(rel, tree) {
		if _, err := batch.InsertSymbol(&store.Symbol{
			FileID:    fileID,
			Name:      sym.Name,
			Kind:      string(sym.Kind),
			ByteStart: sym.ByteStart,
			ByteEnd:   sym.ByteEnd,
			LineStart: sym.LineStart,
			LineEnd:   sym.LineEnd,
			ColStart:  sym.ColStart,
		}); err != nil {
			return err
		}
	}

	if language == Rust {
		for _, imp := range lang.ExtractRustImports(rel, tree) {
			if _, err := batch.InsertImport(&store.Import{
				FileID:       fileID,
				ModulePath:   imp.ModulePath,
				ImportedName: imp.ImportedName,
				Alias:        imp.Alias,
				IsReexport:   imp.IsReexport,
			}); err != nil {
				return err
			}
		}

		if err := e.indexScopes(batch, fileID, lang.ExtractRustScopes(tree)); err != nil {
			return err
		}
	}

	return e.Store.CommitBatch(batch)
}

// indexScopes persists a file's in-memory Scope chain, remapping each
// Scope's pointer-based Parent link into its row's parent_scope_id. Every
// persisted scope carries Kind "block": the distinction between a block,
// match-arm, and let-suffix scope only matters for the shadow-detection
// walk internal/refs already does in memory, not for anything the store
// schema's Kind column is queried on today.
func (e *Engine) indexScopes(batch *store.BatchedStore, fileID int64, scopes []*Scope) error {
	ids := make(map[*Scope]int64, len(scopes))
	for _, sc := range scopes {
		var parentID *int64
		if sc.Parent != nil {
			if id, ok := ids[sc.Parent]; ok {
				parentID = &id
			}
		}
		id, err := batch.InsertScope(&store.Scope{
			FileID:        fileID,
			Kind:          "block",
			ByteStart:     sc.ByteStart,
			ByteEnd:       sc.ByteEnd,
			ParentScopeID: parentID,
		})
		if err != nil {
			return err
		}
		ids[sc] = id

		for name := range sc.Bindings {
			if _, err := batch.InsertScopeBinding(&store.ScopeBinding{ScopeID: id, Name: name}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Patch resolves name (restricted by file/kind if given) to a unique
// Symbol and replaces its definition span with newContent, through the
// full gated Patch Engine pipeline.
func (e *Engine) Patch(ctx context.Context, req resolve.Request, newContent []byte, opts BatchOptions) (*ApplyResult, error) {
	sym, err := resolve.Resolve(e.Store, req)
	if err != nil {
		return nil, err
	}

	opts.Language = languageOf(sym, opts, req)
	batch := Batch{Replacements: []SpanReplacement{
		{File: sym.File, ByteStart: sym.ByteStart, ByteEnd: sym.ByteEnd, NewContent: newContent},
	}}
	return e.PatchEngine.ApplyBatch(ctx, batch, opts)
}

// ApplyBatch runs an arbitrary ordered set of SpanReplacements as one
// atomic transaction, delegating directly to the Patch Engine.
func (e *Engine) ApplyBatch(ctx context.Context, batch Batch, opts BatchOptions) (*ApplyResult, error) {
	return e.PatchEngine.ApplyBatch(ctx, batch, opts)
}

// ApplyBatchFile loads a Batch Manifest file and applies every batch it
// contains, in order, returning the last batch's result (or the first
// error encountered, which halts remaining batches).
func (e *Engine) ApplyBatchFile(ctx context.Context, manifestPath string, opts BatchOptions) (*ApplyResult, error) {
	batches, err := manifest.LoadBatches(manifestPath)
	if err != nil {
		return nil, err
	}

	var last *ApplyResult
	for _, batch := range batches {
		result, err := e.PatchEngine.ApplyBatch(ctx, batch, opts)
		if err != nil {
			return nil, err
		}
		last = result
	}
	return last, nil
}

// Delete removes a symbol's definition span. For Rust, it also discovers
// and removes every reference to that symbol across the indexed workspace
// via the Reference Finder; for every other language, only the definition
// span itself is removed, per spec.md's Non-goal of guaranteeing reference
// completeness outside Rust.
func (e *Engine) Delete(ctx context.Context, req resolve.Request, opts BatchOptions) (*ApplyResult, error) {
	sym, err := resolve.Resolve(e.Store, req)
	if err != nil {
		return nil, err
	}
	opts.Language = languageOf(sym, opts, req)

	batch := Batch{Replacements: []SpanReplacement{
		{File: sym.File, ByteStart: sym.ByteStart, ByteEnd: sym.ByteEnd, NewContent: nil},
	}}

	if opts.Language == Rust {
		trees, err := e.parseIndexedFiles(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range trees {
			defer t.Close()
		}
		modulePath := refs.ModulePathForFile(e.Root, sym.File)
		batch.Replacements = append(batch.Replacements, refs.FindReferences(e.Root, *sym, modulePath, trees)...)
	}

	return e.PatchEngine.ApplyBatch(ctx, batch, opts)
}

// parseIndexedFiles re-parses every file the Symbol Store knows about for
// the current Root, as internal/refs.FindReferences needs a live tree per
// file rather than the store's flattened symbol/import rows.
func (e *Engine) parseIndexedFiles(ctx context.Context) (map[string]*lang.Tree, error) {
	files, err := e.Store.FilesByLanguage(string(Rust))
	if err != nil {
		return nil, err
	}

	trees := make(map[string]*lang.Tree, len(files))
	for _, f := range files {
		absPath := f.Path
		if !filepath.IsAbs(absPath) {
			absPath = filepath.Join(e.Root, f.Path)
		}
		src, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("splice: reading %s: %w", f.Path, err)
		}
		tree, err := lang.Parse(ctx, src, Rust)
		if err != nil {
			return nil, fmt.Errorf("splice: parsing %s: %w", f.Path, err)
		}
		trees[f.Path] = tree
	}
	return trees, nil
}

// Undo restores every file named in a BackupManifest to its backed-up
// (pre-batch) bytes. Unless unconditional is true, it first checks that the
// file's current on-disk hash still matches AfterHash — the hash recorded
// right after the batch that created this manifest was applied — and
// refuses to restore a file something else has since modified.
func (e *Engine) Undo(manifest *BackupManifest, unconditional bool) error {
	for _, entry := range manifest.Files {
		absPath := entry.Path
		if !filepath.IsAbs(absPath) {
			absPath = filepath.Join(e.Root, entry.Path)
		}

		if !unconditional {
			current, err := os.ReadFile(absPath)
			if err != nil {
				return fmt.Errorf("splice: undo: reading %s: %w", entry.Path, err)
			}
			if span.SHA256(current) != entry.AfterHash {
				return fmt.Errorf("splice: undo: %s has changed since the backed-up operation, refusing restore", entry.Path)
			}
		}

		data, err := os.ReadFile(entry.BackupPath)
		if err != nil {
			return fmt.Errorf("splice: undo: reading backup %s: %w", entry.BackupPath, err)
		}
		if err := os.WriteFile(absPath, data, 0o644); err != nil {
			return fmt.Errorf("splice: undo: restoring %s: %w", entry.Path, err)
		}
	}
	return nil
}

// ApplyFiles performs an AST-anchored textual pattern replace across
// files, per SPEC_FULL.md §4.6.1.
func (e *Engine) ApplyFiles(ctx context.Context, files []string, search, replace string, language Language, opts BatchOptions) (*patch.PatternResult, error) {
	opts.Language = language
	return e.PatchEngine.PatternReplace(ctx, files, search, replace, language, opts)
}

// languageOf picks the language to run the Patch Engine's gates with:
// opts.Language if the caller set one explicitly, otherwise whatever the
// resolved Symbol's file implies, falling back to req.Kind's absence never
// mattering since a Symbol always carries a File.
func languageOf(sym *Symbol, opts BatchOptions, req resolve.Request) Language {
	if opts.Language != "" {
		return opts.Language
	}
	if l, ok := lang.LanguageForFile(sym.File); ok {
		return l
	}
	return ""
}
