// Package resolve is the Resolver: it turns a {name, file?, kind?} request
// into exactly one Symbol, or a typed error explaining why it could not.
package resolve

import (
	"fmt"

	splice "github.com/oldnordic/splice"
	"github.com/oldnordic/splice/internal/store"
)

// Request is the Resolver's input, per spec.md §4.4. File and Kind are
// optional restrictions; the zero value of each ("" and "") means
// unrestricted.
type Request struct {
	Name string
	File string
	Kind splice.SymbolKind
}

// Source supplies the candidate symbols a Request draws from. *store.Store
// satisfies it directly; callers resolving against a single file's
// in-memory extraction (no persistent store) can wrap a plain slice with
// InMemorySource instead.
type Source interface {
	SymbolsByName(name string) ([]*store.Symbol, error)
	SymbolsByFileAndName(fileID int64, name string) ([]*store.Symbol, error)
	FileByPath(path string) (*store.File, error)
	FileByID(id int64) (*store.File, error)
}

// Resolve applies spec.md §4.4's disambiguation policy: restrict by file
// and kind if given, then require exactly one remaining candidate.
func Resolve(src Source, req Request) (*splice.Symbol, error) {
	var candidates []*store.Symbol
	var err error

	if req.File != "" {
		f, ferr := src.FileByPath(req.File)
		if ferr != nil {
			return nil, fmt.Errorf("resolve: %w", ferr)
		}
		if f == nil {
			return nil, &splice.SymbolNotFoundError{
				Name: req.Name,
				File: req.File,
				Hint: "no indexed file matches this path",
			}
		}
		candidates, err = src.SymbolsByFileAndName(f.ID, req.Name)
	} else {
		candidates, err = src.SymbolsByName(req.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	if req.Kind != "" {
		filtered := candidates[:0]
		for _, c := range candidates {
			if c.Kind == string(req.Kind) {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}

	switch len(candidates) {
	case 0:
		return nil, &splice.SymbolNotFoundError{
			Name: req.Name,
			File: req.File,
			Hint: hintForEmpty(req),
		}
	case 1:
		return toSymbol(src, candidates[0])
	default:
		return nil, &splice.AmbiguousSymbolError{
			Name:       req.Name,
			Candidates: toCandidates(src, candidates),
		}
	}
}

func hintForEmpty(req Request) string {
	switch {
	case req.File != "" && req.Kind != "":
		return "no symbol named this way matches both the given file and kind; try omitting one"
	case req.File != "":
		return "no symbol named this way exists in the given file; try omitting file to search the whole workspace"
	case req.Kind != "":
		return "no symbol named this way matches the given kind; try omitting kind"
	default:
		return "no symbol with this name is indexed anywhere in the workspace"
	}
}

func toSymbol(src Source, s *store.Symbol) (*splice.Symbol, error) {
	f, err := src.FileByID(s.FileID)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	path := ""
	if f != nil {
		path = f.Path
	}
	return &splice.Symbol{
		File:      path,
		Name:      s.Name,
		Kind:      splice.SymbolKind(s.Kind),
		ByteStart: s.ByteStart,
		ByteEnd:   s.ByteEnd,
		LineStart: s.LineStart,
		LineEnd:   s.LineEnd,
		ColStart:  s.ColStart,
	}, nil
}

func toCandidates(src Source, syms []*store.Symbol) []splice.AmbiguousCandidate {
	out := make([]splice.AmbiguousCandidate, 0, len(syms))
	for _, s := range syms {
		path := ""
		if f, err := src.FileByID(s.FileID); err == nil && f != nil {
			path = f.Path
		}
		out = append(out, splice.AmbiguousCandidate{File: path, Kind: splice.SymbolKind(s.Kind)})
	}
	return out
}
