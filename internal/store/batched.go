package store

import "sync"

// BatchedStore buffers extraction inserts in memory using fake (negative)
// IDs, so a Parser Registry pass over a single file's symbols, imports,
// scopes, and scope bindings can be built up without a live SQLite
// transaction open for the whole extraction. CommitBatch later remaps the
// fake IDs to real ones and writes everything in one transaction.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
// Read queries (SymbolsByName, SymbolsByFile) pass through to the
// underlying Store, which is safe for concurrent reads.
type BatchedStore struct {
	store *Store // for read passthrough
	mu    sync.Mutex

	Symbols       []Symbol
	Imports       []Import
	Scopes        []Scope
	ScopeBindings []ScopeBinding

	nextFakeID int64 // starts at -1, decrements
}

// NewBatchedStore creates a BatchedStore backed by the given Store for read
// queries. s may be nil when the batch is never read back before commit.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{
		store:      s,
		nextFakeID: -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertSymbol(sym *Symbol) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	sym.ID = fakeID
	b.Symbols = append(b.Symbols, *sym)
	return fakeID, nil
}

func (b *BatchedStore) InsertImport(imp *Import) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	imp.ID = fakeID
	b.Imports = append(b.Imports, *imp)
	return fakeID, nil
}

func (b *BatchedStore) InsertScope(scope *Scope) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	scope.ID = fakeID
	b.Scopes = append(b.Scopes, *scope)
	return fakeID, nil
}

func (b *BatchedStore) InsertScopeBinding(bind *ScopeBinding) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	bind.ID = fakeID
	b.ScopeBindings = append(b.ScopeBindings, *bind)
	return fakeID, nil
}

// SymbolsByName passes through to the underlying Store for cross-file lookups.
func (b *BatchedStore) SymbolsByName(name string) ([]*Symbol, error) {
	if b.store == nil {
		return nil, nil
	}
	return b.store.SymbolsByName(name)
}

// SymbolsByFile returns symbols for a file, merging any buffered (not yet
// committed) symbols with those already in the database.
func (b *BatchedStore) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	var dbSyms []*Symbol
	if b.store != nil {
		var err error
		dbSyms, err = b.store.SymbolsByFile(fileID)
		if err != nil {
			return nil, err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Symbols {
		if b.Symbols[i].FileID == fileID {
			dbSyms = append(dbSyms, &b.Symbols[i])
		}
	}
	return dbSyms, nil
}
