// Package store is the Symbol Store: the in-memory multi-index populated by
// the Parser Registry for a single operation, plus an optional SQLite-backed
// persistent layer used by workspace indexing, the Resolver's workspace-wide
// ambiguity checks, and the Rust Reference Finder.
package store

// File is a source file known to the store.
type File struct {
	ID        int64
	Path      string
	Language  string
	Hash      string
	Size      int64
	IndexedAt int64 // unix seconds
}

// Symbol is a named, kinded span within a File. Kind is drawn from the
// closed set: function, method, class, struct, interface, enum, trait,
// impl, module, variable, constructor, type-alias.
type Symbol struct {
	ID        int64
	FileID    int64
	Name      string
	Kind      string
	ByteStart int
	ByteEnd   int
	LineStart int // 1-indexed
	LineEnd   int
	ColStart  int // 0-indexed byte offset within the line
}

// Import is a Rust `use` / `pub use` declaration.
type Import struct {
	ID           int64
	FileID       int64
	ModulePath   string
	ImportedName string
	Alias        string
	IsReexport   bool
}

// Scope is a nested lexical region used for Rust shadow detection. Scopes
// nest; an inner scope's ByteStart/ByteEnd lies within its parent's.
type Scope struct {
	ID            int64
	FileID        int64
	Kind          string
	ByteStart     int
	ByteEnd       int
	ParentScopeID *int64
}

// ScopeBinding records a name locally bound within a Scope (items declared
// in a block, let-bindings, match-arm bindings).
type ScopeBinding struct {
	ID      int64
	ScopeID int64
	Name    string
}
