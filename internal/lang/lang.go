// Package lang is the Parser Registry: language detection, tree-sitter
// grammar dispatch, and symbol/import/scope extraction for the seven
// languages Splice supports.
package lang

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"

	splice "github.com/oldnordic/splice"
)

// extToLanguage maps recognized file extensions to a Language.
var extToLanguage = map[string]splice.Language{
	".rs":  splice.Rust,
	".py":  splice.Python,
	".c":   splice.C,
	".h":   splice.C,
	".cc":  splice.Cpp,
	".cpp": splice.Cpp,
	".cxx": splice.Cpp,
	".hpp": splice.Cpp,
	".hh":  splice.Cpp,
	".java": splice.Java,
	".js":   splice.JavaScript,
	".jsx":  splice.JavaScript,
	".mjs":  splice.JavaScript,
	".ts":   splice.TypeScript,
	".tsx":  splice.TypeScript,
}

var (
	grammars     map[splice.Language]*sitter.Language
	grammarsOnce sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		grammars = map[splice.Language]*sitter.Language{
			splice.Rust:       rust.GetLanguage(),
			splice.Python:     python.GetLanguage(),
			splice.C:          c.GetLanguage(),
			splice.Cpp:        cpp.GetLanguage(),
			splice.Java:       java.GetLanguage(),
			splice.JavaScript: javascript.GetLanguage(),
			splice.TypeScript: ts.GetLanguage(),
		}
	})
}

// LanguageForFile returns the Language implied by a file path's extension.
// The caller may always override this with an explicit Language.
func LanguageForFile(path string) (splice.Language, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := extToLanguage[ext]
	return l, ok
}

// GrammarFor returns the tree-sitter grammar for a Language.
func GrammarFor(l splice.Language) (*sitter.Language, bool) {
	initGrammars()
	g, ok := grammars[l]
	return g, ok
}

// Tree is a parsed file: its tree-sitter tree, source bytes, and language,
// bundled together because smacker/go-tree-sitter nodes carry neither.
type Tree struct {
	Root     *sitter.Node
	Source   []byte
	Language splice.Language
	tree     *sitter.Tree
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
	}
}

// Parse parses src as the given language. Parse errors are tolerated: the
// resulting Tree may contain ERROR nodes, and the caller gets whatever
// structure tree-sitter could recover (best-effort ingest, per spec).
func Parse(ctx context.Context, src []byte, language splice.Language) (*Tree, error) {
	grammar, ok := GrammarFor(language)
	if !ok {
		return nil, fmt.Errorf("lang: unsupported language %q", language)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("lang: parse failed: %w", err)
	}

	return &Tree{
		Root:     tree.RootNode(),
		Source:   src,
		Language: language,
		tree:     tree,
	}, nil
}

// Reparse is the Patch Engine's syntax gate: it re-parses post-edit bytes
// and reports ParseValidationFailed if the result still contains an error
// node. Unlike Parse (used for first ingest), a second parse is expected to
// be clean.
func Reparse(ctx context.Context, file string, src []byte, language splice.Language) error {
	tree, err := Parse(ctx, src, language)
	if err != nil {
		return &splice.ParseValidationFailedError{File: file, Message: err.Error()}
	}
	defer tree.Close()

	if hasErrorNode(tree.Root) {
		return &splice.ParseValidationFailedError{File: file, Message: "parse tree contains an error node"}
	}
	return nil
}

func hasErrorNode(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	if n.IsError() || n.IsMissing() {
		return true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if hasErrorNode(n.Child(i)) {
			return true
		}
	}
	return false
}

// NodeAtByte returns the smallest named node in t whose byte range contains
// offset, or nil if offset falls outside the tree entirely.
func NodeAtByte(t *Tree, offset int) *sitter.Node {
	n := t.Root
	if n == nil || offset < int(n.StartByte()) || offset > int(n.EndByte()) {
		return nil
	}
	for {
		found := false
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if offset >= int(c.StartByte()) && offset < int(c.EndByte()) {
				n = c
				found = true
				break
			}
		}
		if !found {
			return n
		}
	}
}

// IsInsideCommentOrString reports whether the node at offset, or any of its
// ancestors, is a comment or string-literal node. Node-kind names vary by
// grammar, so this matches on substring rather than a closed per-language
// table.
func IsInsideCommentOrString(t *Tree, offset int) bool {
	n := NodeAtByte(t, offset)
	for n != nil {
		kind := n.Type()
		if strings.Contains(kind, "comment") || strings.Contains(kind, "string") || strings.Contains(kind, "char_literal") {
			return true
		}
		n = n.Parent()
	}
	return false
}
