package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, language, hash, size, indexed_at) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.Size, f.IndexedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT id, path, language, hash, size, indexed_at FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.Size, &f.IndexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) FileByID(id int64) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT id, path, language, hash, size, indexed_at FROM files WHERE id = ?", id,
	).Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.Size, &f.IndexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by id: %w", err)
	}
	return f, nil
}

func (s *Store) FilesByLanguage(language string) ([]*File, error) {
	rows, err := s.db.Query(
		"SELECT id, path, language, hash, size, indexed_at FROM files WHERE language = ?", language,
	)
	if err != nil {
		return nil, fmt.Errorf("files by language: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.Size, &f.IndexedAt); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Symbol operations ---

// SymbolCols is the column list shared by every symbol query.
const SymbolCols = `id, file_id, name, kind, byte_start, byte_end, line_start, line_end, col_start`

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO symbols (file_id, name, kind, byte_start, byte_end, line_start, line_end, col_start)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.FileID, sym.Name, sym.Kind, sym.ByteStart, sym.ByteEnd, sym.LineStart, sym.LineEnd, sym.ColStart,
	)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	sym.ID = id
	return id, nil
}

func (s *Store) scanSymbol(scanner interface{ Scan(...any) error }) (*Symbol, error) {
	sym := &Symbol{}
	err := scanner.Scan(
		&sym.ID, &sym.FileID, &sym.Name, &sym.Kind,
		&sym.ByteStart, &sym.ByteEnd, &sym.LineStart, &sym.LineEnd, &sym.ColStart,
	)
	if err != nil {
		return nil, err
	}
	return sym, nil
}

// ScanSymbolRow scans a single row into a Symbol. Exported for internal/resolve.
func (s *Store) ScanSymbolRow(scanner interface{ Scan(...any) error }) (*Symbol, error) {
	return s.scanSymbol(scanner)
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var symbols []*Symbol
	for rows.Next() {
		sym, err := s.scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE file_id = ?", fileID)
}

// SymbolsByName returns every symbol with the given name across the whole
// indexed workspace. Used by the Resolver for name-only lookups.
func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE name = ?", name)
}

func (s *Store) SymbolsByFileAndName(fileID int64, name string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE file_id = ? AND name = ?", fileID, name)
}

func (s *Store) SymbolsByKind(kind string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE kind = ?", kind)
}

// --- Import operations ---

const importCols = `id, file_id, module_path, imported_name, alias, is_reexport`

func (s *Store) InsertImport(imp *Import) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO imports (file_id, module_path, imported_name, alias, is_reexport)
		 VALUES (?, ?, ?, ?, ?)`,
		imp.FileID, imp.ModulePath, imp.ImportedName, nullIfEmpty(imp.Alias), imp.IsReexport,
	)
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	imp.ID = id
	return id, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Store) scanImport(scanner interface{ Scan(...any) error }) (*Import, error) {
	imp := &Import{}
	var alias sql.NullString
	if err := scanner.Scan(&imp.ID, &imp.FileID, &imp.ModulePath, &imp.ImportedName, &alias, &imp.IsReexport); err != nil {
		return nil, err
	}
	imp.Alias = alias.String
	return imp, nil
}

func (s *Store) ImportsByFile(fileID int64) ([]*Import, error) {
	rows, err := s.db.Query("SELECT "+importCols+" FROM imports WHERE file_id = ?", fileID)
	if err != nil {
		return nil, fmt.Errorf("imports by file: %w", err)
	}
	defer rows.Close()
	var imports []*Import
	for rows.Next() {
		imp, err := s.scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// ImportsOfSymbol returns every import (in any file) whose module path and
// imported name together name the given fully-qualified symbol, including
// re-exports (IsReexport set). The Rust Reference Finder does not call it;
// it reads imports from freshly parsed trees.
func (s *Store) ImportsOfSymbol(modulePath, importedName string) ([]*Import, error) {
	rows, err := s.db.Query(
		"SELECT "+importCols+" FROM imports WHERE module_path = ? AND imported_name = ?",
		modulePath, importedName,
	)
	if err != nil {
		return nil, fmt.Errorf("imports of symbol: %w", err)
	}
	defer rows.Close()
	var imports []*Import
	for rows.Next() {
		imp, err := s.scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// --- Scope operations ---

const scopeCols = `id, file_id, kind, byte_start, byte_end, parent_scope_id`

func (s *Store) InsertScope(scope *Scope) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO scopes (file_id, kind, byte_start, byte_end, parent_scope_id)
		 VALUES (?, ?, ?, ?, ?)`,
		scope.FileID, scope.Kind, scope.ByteStart, scope.ByteEnd, scope.ParentScopeID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert scope: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	scope.ID = id
	return id, nil
}

func (s *Store) scanScope(scanner interface{ Scan(...any) error }) (*Scope, error) {
	sc := &Scope{}
	return sc, scanner.Scan(&sc.ID, &sc.FileID, &sc.Kind, &sc.ByteStart, &sc.ByteEnd, &sc.ParentScopeID)
}

// ScopesByFile returns every scope in a file ordered by ByteStart, so a
// caller can walk outer-to-inner: a scope always starts no later than any
// scope nested within it.
func (s *Store) ScopesByFile(fileID int64) ([]*Scope, error) {
	rows, err := s.db.Query("SELECT "+scopeCols+" FROM scopes WHERE file_id = ? ORDER BY byte_start ASC", fileID)
	if err != nil {
		return nil, fmt.Errorf("scopes by file: %w", err)
	}
	defer rows.Close()
	var scopes []*Scope
	for rows.Next() {
		sc, err := s.scanScope(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		scopes = append(scopes, sc)
	}
	return scopes, rows.Err()
}

// ScopeChain walks up the parent_scope_id chain from scopeID to the root
// (file-level) scope, innermost first. The Rust Reference Finder's shadow
// filter does not call it; it works from scopes extracted from freshly
// parsed trees.
func (s *Store) ScopeChain(scopeID int64) ([]*Scope, error) {
	var chain []*Scope
	currentID := &scopeID
	for currentID != nil {
		sc := &Scope{}
		err := s.db.QueryRow("SELECT "+scopeCols+" FROM scopes WHERE id = ?", *currentID).Scan(
			&sc.ID, &sc.FileID, &sc.Kind, &sc.ByteStart, &sc.ByteEnd, &sc.ParentScopeID,
		)
		if err == sql.ErrNoRows {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scope chain: %w", err)
		}
		chain = append(chain, sc)
		currentID = sc.ParentScopeID
	}
	return chain, nil
}

// --- Scope binding operations ---

func (s *Store) InsertScopeBinding(b *ScopeBinding) (int64, error) {
	res, err := s.db.Exec("INSERT INTO scope_bindings (scope_id, name) VALUES (?, ?)", b.ScopeID, b.Name)
	if err != nil {
		return 0, fmt.Errorf("insert scope binding: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	b.ID = id
	return id, nil
}

func (s *Store) BindingsByScope(scopeID int64) ([]*ScopeBinding, error) {
	rows, err := s.db.Query("SELECT id, scope_id, name FROM scope_bindings WHERE scope_id = ?", scopeID)
	if err != nil {
		return nil, fmt.Errorf("bindings by scope: %w", err)
	}
	defer rows.Close()
	var bindings []*ScopeBinding
	for rows.Next() {
		b := &ScopeBinding{}
		if err := rows.Scan(&b.ID, &b.ScopeID, &b.Name); err != nil {
			return nil, fmt.Errorf("scan scope binding: %w", err)
		}
		bindings = append(bindings, b)
	}
	return bindings, rows.Err()
}

// HasBinding reports whether name is bound directly in scopeID (not its
// ancestors).
func (s *Store) HasBinding(scopeID int64, name string) (bool, error) {
	bindings, err := s.BindingsByScope(scopeID)
	if err != nil {
		return false, err
	}
	for _, b := range bindings {
		if b.Name == name {
			return true, nil
		}
	}
	return false, nil
}
