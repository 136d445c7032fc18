// Package refs is the Reference Finder: Rust-only, cross-file discovery of
// every textual reference to a deleted definition, per spec.md §4.5.
package refs

import (
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	splice "github.com/oldnordic/splice"
	"github.com/oldnordic/splice/internal/lang"
)

// declarationKinds are the Rust node kinds whose "name" field introduces a
// new item; an identifier serving as that field is the declaration itself,
// never a reference to it.
var declarationKinds = map[string]bool{
	"function_item": true,
	"struct_item":   true,
	"enum_item":     true,
	"trait_item":    true,
	"mod_item":      true,
	"const_item":    true,
	"static_item":   true,
}

// referenceNodeKinds are the tree-sitter-rust node kinds that can carry a
// bare-name occurrence worth matching against T.name: plain identifiers,
// method/field names, and type names (qualified paths and method/type
// forms all bottom out in one of these).
var referenceNodeKinds = map[string]bool{
	"identifier":       true,
	"field_identifier": true,
	"type_identifier":  true,
}

// ModulePathForFile derives the Rust module path of a file relative to a
// workspace root: "src/widget.rs" → "widget", "src/foo/bar.rs" → "foo::bar".
// mod.rs/lib.rs/main.rs name the enclosing directory's module instead of
// introducing one of their own.
func ModulePathForFile(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimPrefix(rel, "src/")
	rel = strings.TrimSuffix(rel, ".rs")

	parts := strings.Split(rel, "/")
	if len(parts) > 0 {
		switch parts[len(parts)-1] {
		case "mod", "lib", "main":
			parts = parts[:len(parts)-1]
		}
	}
	return strings.Join(parts, "::")
}

// FindReferences scans every parsed Rust file in trees for references to
// target (declared in trees[target.File] at targetModulePath), applying the
// cross-file import/re-export resolution and shadow filter of spec.md §4.5.
// trees must include every Rust file in the workspace; root is used only to
// derive each file's module path.
func FindReferences(root string, target splice.Symbol, targetModulePath string, trees map[string]*lang.Tree) []splice.SpanReplacement {
	importsByFile := make(map[string][]splice.Import, len(trees))
	for path, tree := range trees {
		importsByFile[path] = lang.ExtractRustImports(path, tree)
	}

	// ModulePathForFile is crate-relative ("a" for src/a.rs, "" for the
	// crate root), while `use crate::a::x` records module path "crate::a";
	// module paths are compared in the crate-relative form.
	crateRel := func(p string) string {
		if p == "crate" {
			return ""
		}
		return strings.TrimPrefix(p, "crate::")
	}

	// Reexport targets: files that `pub use <targetModulePath>::<target.Name> [as A]`.
	// Importers of that file's own module, under the re-exported name, also
	// count as importing target (depth-1 chain only, per spec).
	type reexport struct {
		modulePath   string
		exportedName string
	}
	var reexports []reexport
	for path, imports := range importsByFile {
		for _, imp := range imports {
			if imp.IsReexport && crateRel(imp.ModulePath) == crateRel(targetModulePath) && imp.ImportedName == target.Name {
				name := imp.ImportedName
				if imp.Alias != "" {
					name = imp.Alias
				}
				reexports = append(reexports, reexport{
					modulePath:   ModulePathForFile(root, path),
					exportedName: name,
				})
			}
		}
	}

	// localName: per file, the identifier text that refers to target in
	// that file ("" means the file does not reference target at all).
	localName := map[string]string{target.File: target.Name}
	for path, imports := range importsByFile {
		if path == target.File {
			continue
		}
		for _, imp := range imports {
			direct := crateRel(imp.ModulePath) == crateRel(targetModulePath) && imp.ImportedName == target.Name
			viaReexport := false
			for _, re := range reexports {
				if crateRel(imp.ModulePath) == re.modulePath && imp.ImportedName == re.exportedName {
					viaReexport = true
					break
				}
			}
			if direct || viaReexport {
				name := imp.ImportedName
				if imp.Alias != "" {
					name = imp.Alias
				}
				localName[path] = name
			}
		}
	}

	var out []splice.SpanReplacement
	for path, name := range localName {
		tree, ok := trees[path]
		if !ok {
			continue
		}
		scopes := lang.ExtractRustScopes(tree)
		refsInFile := findInFile(path, tree, name, target, path == target.File, scopes)
		out = append(out, refsInFile...)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].ByteStart > out[j].ByteStart
	})
	return dedupe(out)
}

func findInFile(path string, tree *lang.Tree, name string, target splice.Symbol, isDeclFile bool, scopes []*splice.Scope) []splice.SpanReplacement {
	var out []splice.SpanReplacement
	seen := map[[2]int]bool{}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if referenceNodeKinds[n.Type()] && n.Content(tree.Source) == name {
			start, end := int(n.StartByte()), int(n.EndByte())
			if isDeclFile && start >= target.ByteStart && end <= target.ByteEnd {
				// inside the declaration's own span
			} else if !isDeclarationName(n) && !shadowed(scopes, name, start) {
				if !seen[[2]int{start, end}] {
					seen[[2]int{start, end}] = true
					out = append(out, buildReplacement(path, n, start, end))
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.Root)
	return out
}

func isDeclarationName(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	if p.Type() == "let_declaration" && p.ChildByFieldName("pattern") == n {
		return true
	}
	for a := p; a != nil; a = a.Parent() {
		if a.Type() == "use_declaration" {
			return true
		}
	}
	if !declarationKinds[p.Type()] {
		return false
	}
	return p.ChildByFieldName("name") == n
}

// shadowed reports whether, among scopes containing byte offset b, any
// scope binds name (the re-binding that shadows the outer definition).
func shadowed(scopes []*splice.Scope, name string, b int) bool {
	for _, s := range scopes {
		if b >= s.ByteStart && b < s.ByteEnd && s.Binds(name) {
			return true
		}
	}
	return false
}

// buildReplacement expands a bare identifier reference up through any
// enclosing call/field/path chain it is the head of, then classifies the
// result as a statement (sentinel: delete entirely) or an expression
// (sentinel: "()", since a required value cannot simply vanish).
func buildReplacement(path string, ident *sitter.Node, start, end int) splice.SpanReplacement {
	_, _ = start, end
	n := ident
	for {
		p := n.Parent()
		if p == nil {
			break
		}
		switch p.Type() {
		case "call_expression":
			if p.ChildByFieldName("function") == n {
				n = p
				continue
			}
		case "field_expression":
			if p.ChildByFieldName("field") == n {
				n = p
				continue
			}
		case "scoped_identifier":
			n = p
			continue
		}
		break
	}

	content := []byte("()")
	if parent := n.Parent(); parent != nil && parent.Type() == "expression_statement" {
		content = []byte{}
	}

	return splice.SpanReplacement{
		File:       path,
		ByteStart:  int(n.StartByte()),
		ByteEnd:    int(n.EndByte()),
		NewContent: content,
	}
}

func dedupe(refs []splice.SpanReplacement) []splice.SpanReplacement {
	out := refs[:0]
	var lastFile string
	var lastStart, lastEnd int = -1, -1
	for _, r := range refs {
		if r.File == lastFile && r.ByteStart == lastStart && r.ByteEnd == lastEnd {
			continue
		}
		out = append(out, r)
		lastFile, lastStart, lastEnd = r.File, r.ByteStart, r.ByteEnd
	}
	return out
}
