package lang

import (
	sitter "github.com/smacker/go-tree-sitter"

	splice "github.com/oldnordic/splice"
)

// symbolRule maps one tree-sitter node kind to the SymbolKind it produces
// and the field holding its name. Rust's impl_item is the odd one out: its
// name comes from the "type" field, not "name" (spec.md §4.2).
type symbolRule struct {
	kind      splice.SymbolKind
	nameField string
}

// symbolTables is the closed per-language node-kind → SymbolKind table the
// Parser Registry walks. Languages not listed here are unsupported.
var symbolTables = map[splice.Language]map[string]symbolRule{
	splice.Rust: {
		"function_item": {splice.KindFunction, "name"},
		"struct_item":   {splice.KindStruct, "name"},
		"enum_item":     {splice.KindEnum, "name"},
		"trait_item":    {splice.KindTrait, "name"},
		"impl_item":     {splice.KindImpl, "type"},
		"mod_item":      {splice.KindModule, "name"},
		"const_item":    {splice.KindVariable, "name"},
		"static_item":   {splice.KindVariable, "name"},
	},
	splice.Python: {
		"function_definition": {splice.KindFunction, "name"},
		"class_definition":    {splice.KindClass, "name"},
	},
	splice.C: {
		"function_definition": {splice.KindFunction, "declarator"},
		"struct_specifier":    {splice.KindStruct, "name"},
		"enum_specifier":      {splice.KindEnum, "name"},
	},
	splice.Cpp: {
		"function_definition":  {splice.KindFunction, "declarator"},
		"class_specifier":      {splice.KindClass, "name"},
		"struct_specifier":     {splice.KindStruct, "name"},
		"enum_specifier":       {splice.KindEnum, "name"},
		"namespace_definition": {splice.KindModule, "name"},
	},
	splice.Java: {
		"class_declaration":       {splice.KindClass, "name"},
		"interface_declaration":   {splice.KindInterface, "name"},
		"enum_declaration":        {splice.KindEnum, "name"},
		"method_declaration":      {splice.KindMethod, "name"},
		"constructor_declaration": {splice.KindConstructor, "name"},
	},
	splice.JavaScript: {
		"function_declaration": {splice.KindFunction, "name"},
		"class_declaration":    {splice.KindClass, "name"},
		"method_definition":    {splice.KindMethod, "name"},
	},
	splice.TypeScript: {
		"function_declaration":  {splice.KindFunction, "name"},
		"class_declaration":     {splice.KindClass, "name"},
		"interface_declaration": {splice.KindInterface, "name"},
		"type_alias_declaration": {splice.KindTypeAlias, "name"},
		"method_definition":      {splice.KindMethod, "name"},
	},
}

// methodContainerKinds marks node kinds beneath which function/method nodes
// (at any depth) are reported as KindMethod instead of KindFunction, for languages
// whose grammar doesn't already distinguish the two (Python, JS/TS class
// bodies reuse function_definition/function_declaration node kinds).
var methodContainerKinds = map[splice.Language]map[string]bool{
	splice.Python:     {"class_definition": true},
	splice.JavaScript:  {"class_body": true},
	splice.TypeScript:  {"class_body": true},
}

// ExtractSymbols walks t's tree and returns every Symbol the closed
// node-kind table for t.Language recognizes.
func ExtractSymbols(file string, t *Tree) []splice.Symbol {
	table, ok := symbolTables[t.Language]
	if !ok {
		return nil
	}
	containers := methodContainerKinds[t.Language]

	var out []splice.Symbol
	var walk func(n *sitter.Node, insideContainer bool)
	walk = func(n *sitter.Node, insideContainer bool) {
		if n == nil {
			return
		}

		rule, matched := table[n.Type()]
		if matched {
			nameNode := n.ChildByFieldName(rule.nameField)
			if nameNode != nil {
				kind := rule.kind
				if insideContainer && kind == splice.KindFunction {
					kind = splice.KindMethod
				}
				start := n.StartPoint()
				end := n.EndPoint()
				out = append(out, splice.Symbol{
					File:      file,
					Name:      nameNode.Content(t.Source),
					Kind:      kind,
					ByteStart: int(n.StartByte()),
					ByteEnd:   int(n.EndByte()),
					LineStart: int(start.Row) + 1,
					LineEnd:   int(end.Row) + 1,
					ColStart:  int(start.Column),
				})
			}
		}

		childIsContainer := containers[n.Type()]
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i), insideContainer || childIsContainer)
		}
	}
	walk(t.Root, false)
	return out
}
