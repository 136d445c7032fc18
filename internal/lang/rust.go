package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	splice "github.com/oldnordic/splice"
)

// ExtractRustImports walks a Rust Tree's use_declaration nodes into Imports,
// per spec.md §4.2: every `use P::N` and `pub use P::N as A`, the latter
// with IsReexport set.
func ExtractRustImports(file string, t *Tree) []splice.Import {
	var out []splice.Import
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "use_declaration" {
			isReexport := false
			for i := 0; i < int(n.ChildCount()); i++ {
				if n.Child(i).Type() == "visibility_modifier" {
					isReexport = true
					break
				}
			}
			arg := n.ChildByFieldName("argument")
			for _, leaf := range expandUseArgument(arg, "", t.Source) {
				modulePath, name := splitPath(leaf.path)
				out = append(out, splice.Import{
					ImportingFile: file,
					ImportedName:  name,
					ModulePath:    modulePath,
					Alias:         leaf.alias,
					IsReexport:    isReexport,
				})
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(t.Root)
	return out
}

type useLeaf struct {
	path  string
	alias string
}

// expandUseArgument flattens a use_declaration's argument subtree (which may
// be a plain path, an aliased path, a wildcard, or a brace-grouped list of
// any of those, arbitrarily nested) into one useLeaf per imported name.
func expandUseArgument(n *sitter.Node, prefix string, src []byte) []useLeaf {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier", "scoped_identifier", "crate", "self", "super":
		return []useLeaf{{path: joinPath(prefix, n.Content(src))}}
	case "use_as_clause":
		pathNode := n.ChildByFieldName("path")
		aliasNode := n.ChildByFieldName("alias")
		alias := ""
		if aliasNode != nil {
			alias = aliasNode.Content(src)
		}
		path := ""
		if pathNode != nil {
			path = pathNode.Content(src)
		}
		return []useLeaf{{path: joinPath(prefix, path), alias: alias}}
	case "use_wildcard":
		pathNode := n.ChildByFieldName("path")
		path := "*"
		if pathNode != nil {
			path = pathNode.Content(src) + "::*"
		}
		return []useLeaf{{path: joinPath(prefix, path)}}
	case "scoped_use_list":
		pathNode := n.ChildByFieldName("path")
		listNode := n.ChildByFieldName("list")
		newPrefix := prefix
		if pathNode != nil {
			newPrefix = joinPath(prefix, pathNode.Content(src))
		}
		return expandUseArgument(listNode, newPrefix, src)
	case "use_list":
		var out []useLeaf
		for i := 0; i < int(n.NamedChildCount()); i++ {
			out = append(out, expandUseArgument(n.NamedChild(i), prefix, src)...)
		}
		return out
	default:
		return []useLeaf{{path: joinPath(prefix, n.Content(src))}}
	}
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "::" + segment
}

// splitPath splits "a::b::c" into module path "a::b" and final name "c".
func splitPath(path string) (modulePath, name string) {
	idx := strings.LastIndex(path, "::")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+2:]
}

// ExtractRustScopes walks a Rust Tree into the nested Scope chain spec.md
// §4.2 requires: one scope per function body (a block), block, match arm,
// and let declaration, with let-bound names visible only to statements
// after the let within the same enclosing block.
func ExtractRustScopes(t *Tree) []*splice.Scope {
	var out []*splice.Scope
	walkScopes(t.Root, nil, t.Source, &out)
	return out
}

// itemDeclKinds are the Rust item kinds that, declared inside a block, are
// hoisted for the whole enclosing block rather than scoped from their
// declaration point onward the way a let-binding is.
var itemDeclKinds = map[string]bool{
	"function_item": true,
	"struct_item":   true,
	"enum_item":     true,
	"trait_item":    true,
	"mod_item":      true,
	"const_item":    true,
	"static_item":   true,
}

func walkScopes(n *sitter.Node, parent *splice.Scope, src []byte, out *[]*splice.Scope) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "block":
		blockScope := &splice.Scope{
			ByteStart: int(n.StartByte()),
			ByteEnd:   int(n.EndByte()),
			Bindings:  map[string]bool{},
			Parent:    parent,
		}
		*out = append(*out, blockScope)

		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if !itemDeclKinds[child.Type()] {
				continue
			}
			nameNode := child.ChildByFieldName("name")
			if nameNode != nil {
				blockScope.Bindings[nameNode.Content(src)] = true
			}
		}

		cur := blockScope
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "let_declaration" {
				walkScopes(child, cur, src, out)
				bindings := collectIdentifiers(child.ChildByFieldName("pattern"), src)
				letScope := &splice.Scope{
					ByteStart: int(child.EndByte()),
					ByteEnd:   int(n.EndByte()),
					Bindings:  bindings,
					Parent:    cur,
				}
				*out = append(*out, letScope)
				cur = letScope
				continue
			}
			walkScopes(child, cur, src, out)
		}
		return

	case "match_arm":
		bindings := collectIdentifiers(n.ChildByFieldName("pattern"), src)
		armScope := &splice.Scope{
			ByteStart: int(n.StartByte()),
			ByteEnd:   int(n.EndByte()),
			Bindings:  bindings,
			Parent:    parent,
		}
		*out = append(*out, armScope)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walkScopes(n.NamedChild(i), armScope, src, out)
		}
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		walkScopes(n.NamedChild(i), parent, src, out)
	}
}

// collectIdentifiers gathers every identifier leaf under a pattern node,
// covering plain bindings, tuple patterns, and struct patterns alike.
func collectIdentifiers(n *sitter.Node, src []byte) map[string]bool {
	out := map[string]bool{}
	if n == nil {
		return out
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "identifier" {
			out[n.Content(src)] = true
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(n)
	return out
}
