package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// (positive, AUTOINCREMENT) IDs, and all FK references within the batch are
// rewritten using the fakeToReal mapping.
//
// Insert order respects FK dependencies:
//  1. Symbols (depend on file_id only, which is already real)
//  2. Scopes (depend on file_id, parent_scope_id)
//  3. ScopeBindings (depend on scope_id)
//  4. Imports (depend on file_id only)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64)

	for _, sym := range batch.Symbols {
		realID, err := insertSymbolTx(tx, &sym)
		if err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.Name, err)
		}
		fakeToReal[sym.ID] = realID
	}

	for _, scope := range batch.Scopes {
		if scope.ParentScopeID != nil && *scope.ParentScopeID < 0 {
			realID, ok := fakeToReal[*scope.ParentScopeID]
			if !ok {
				return fmt.Errorf("commit batch: scope has parent_scope_id=%d not in fakeToReal map", *scope.ParentScopeID)
			}
			scope.ParentScopeID = &realID
		}
		realID, err := insertScopeTx(tx, &scope)
		if err != nil {
			return fmt.Errorf("commit batch: scope: %w", err)
		}
		fakeToReal[scope.ID] = realID
	}

	for _, b := range batch.ScopeBindings {
		if b.ScopeID < 0 {
			realID, ok := fakeToReal[b.ScopeID]
			if !ok {
				return fmt.Errorf("commit batch: scope binding %q has scope_id=%d not in fakeToReal map", b.Name, b.ScopeID)
			}
			b.ScopeID = realID
		}
		if _, err := insertScopeBindingTx(tx, &b); err != nil {
			return fmt.Errorf("commit batch: scope binding %q: %w", b.Name, err)
		}
	}

	for _, imp := range batch.Imports {
		if imp.FileID < 0 {
			realID, ok := fakeToReal[imp.FileID]
			if !ok {
				return fmt.Errorf("commit batch: import %q has file_id=%d not in fakeToReal map", imp.ModulePath, imp.FileID)
			}
			imp.FileID = realID
		}
		if _, err := insertImportTx(tx, &imp); err != nil {
			return fmt.Errorf("commit batch: import %q: %w", imp.ModulePath, err)
		}
	}

	return tx.Commit()
}

// --- Transaction-scoped insert helpers ---
// These mirror the Store insert methods but accept *sql.Tx instead of using s.db.

func insertSymbolTx(tx *sql.Tx, sym *Symbol) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO symbols (file_id, name, kind, byte_start, byte_end, line_start, line_end, col_start)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.FileID, sym.Name, sym.Kind, sym.ByteStart, sym.ByteEnd, sym.LineStart, sym.LineEnd, sym.ColStart,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertScopeTx(tx *sql.Tx, scope *Scope) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO scopes (file_id, kind, byte_start, byte_end, parent_scope_id)
		 VALUES (?, ?, ?, ?, ?)`,
		scope.FileID, scope.Kind, scope.ByteStart, scope.ByteEnd, scope.ParentScopeID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertScopeBindingTx(tx *sql.Tx, b *ScopeBinding) (int64, error) {
	res, err := tx.Exec("INSERT INTO scope_bindings (scope_id, name) VALUES (?, ?)", b.ScopeID, b.Name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertImportTx(tx *sql.Tx, imp *Import) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO imports (file_id, module_path, imported_name, alias, is_reexport)
		 VALUES (?, ?, ?, ?, ?)`,
		imp.FileID, imp.ModulePath, imp.ImportedName, nullIfEmpty(imp.Alias), imp.IsReexport,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
