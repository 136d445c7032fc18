// Package splice is a span-safe, multi-language source refactoring kernel.
//
// Given a source file, a symbol identifier, and a replacement (or deletion)
// instruction, Splice performs a byte-accurate edit, re-parses the file to
// confirm the edit preserves syntactic validity, invokes the language's
// native compiler or checker to confirm semantic validity, and either
// commits the edit atomically or rolls the workspace back to its pre-edit
// bytes. Seven languages are supported: Rust, Python, C, C++, Java,
// JavaScript, and TypeScript.
//
// The engine is built from seven components, leaves first: the Span Codec
// (internal/span) does byte-accurate buffer edits; the Parser Registry
// (internal/lang) walks tree-sitter grammars into Symbols, and for Rust
// also Imports and Scopes; the Symbol Store (internal/store) indexes those
// in memory and, optionally, in a persisted SQLite database; the Resolver
// (internal/resolve) turns a name/file/kind request into a unique Symbol;
// the Reference Finder (internal/refs, Rust only) discovers every textual
// reference to a definition across the workspace; the Patch Engine
// (internal/patch) stages, validates, and atomically commits or rolls back
// a batch of edits; the Diagnostic Pipeline (internal/diag) normalizes each
// language's compiler output into a shared DiagnosticRecord schema.
//
// Public API:
//   - Patch applies a single named-symbol replacement.
//   - ApplyBatch applies an arbitrary ordered set of SpanReplacements as one
//     atomic transaction.
//   - Delete removes a symbol's definition, and for Rust also every
//     reference to it.
//   - Undo restores files from a BackupManifest.
//   - ApplyFiles performs an AST-anchored pattern replace across files.
//   - IndexWorkspace populates the persistent Symbol Store for a workspace
//     root, enabling cross-file Resolver and Reference Finder queries
//     without re-parsing the whole tree on every call.
package splice
