package resolve

import (
	splice "github.com/oldnordic/splice"
	"github.com/oldnordic/splice/internal/store"
)

// InMemorySource satisfies Source without a persistent workspace index
// behind it: it wraps the Symbols one Parser
// Registry pass just extracted for one file, under a single synthetic
// FileID, so Resolve can run its normal disambiguation policy unchanged.
type InMemorySource struct {
	file    *store.File
	symbols []*store.Symbol
}

// NewInMemorySource builds a Source over one file's freshly-extracted
// Symbols.
func NewInMemorySource(path string, language splice.Language, symbols []splice.Symbol) *InMemorySource {
	f := &store.File{ID: 1, Path: path, Language: string(language)}
	syms := make([]*store.Symbol, len(symbols))
	for i, s := range symbols {
		syms[i] = &store.Symbol{
			ID:        int64(i + 1),
			FileID:    1,
			Name:      s.Name,
			Kind:      string(s.Kind),
			ByteStart: s.ByteStart,
			ByteEnd:   s.ByteEnd,
			LineStart: s.LineStart,
			LineEnd:   s.LineEnd,
			ColStart:  s.ColStart,
		}
	}
	return &InMemorySource{file: f, symbols: syms}
}

func (m *InMemorySource) SymbolsByName(name string) ([]*store.Symbol, error) {
	var out []*store.Symbol
	for _, s := range m.symbols {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *InMemorySource) SymbolsByFileAndName(fileID int64, name string) ([]*store.Symbol, error) {
	if fileID != m.file.ID {
		return nil, nil
	}
	return m.SymbolsByName(name)
}

func (m *InMemorySource) FileByPath(path string) (*store.File, error) {
	if path == m.file.Path {
		return m.file, nil
	}
	return nil, nil
}

func (m *InMemorySource) FileByID(id int64) (*store.File, error) {
	if id == m.file.ID {
		return m.file, nil
	}
	return nil, nil
}
