package treesitter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Default selectors for serializable fields.
var (
	DefaultAccessibility       = []string{"public"}
	DefaultSerializeAttributes = []string{"SerializeField"}
)

// nonInstanceModifiers mark fields that are never serialized per instance.
var nonInstanceModifiers = map[string]bool{
	"const":  true,
	"static": true,
}

// nonSerializedAttributes opt a field out of serialization whatever its
// accessibility or other attributes. Names are normalized.
var nonSerializedAttributes = map[string]bool{
	"NonSerialized": true,
}

// ExtractOptions selects which field declarations count as serializable.
type ExtractOptions struct {
	// Accessibility lists modifiers that make a field serializable on their own.
	Accessibility []string
	// SerializeAttributes lists attribute names that make a field serializable
	// regardless of accessibility. Matched after normalization, so
	// "SerializeField" covers [UnityEngine.SerializeFieldAttribute].
	SerializeAttributes []string
}

// DefaultExtractOptions returns the Unity serialization rules.
func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		Accessibility:       DefaultAccessibility,
		SerializeAttributes: DefaultSerializeAttributes,
	}
}

// FieldExtractor extracts serializable fields from C# source.
type FieldExtractor struct {
	opts ExtractOptions
}

// NewFieldExtractor creates an extractor. Empty option lists fall back to
// the defaults.
func NewFieldExtractor(opts ExtractOptions) *FieldExtractor {
	if len(opts.Accessibility) == 0 {
		opts.Accessibility = DefaultAccessibility
	}
	if len(opts.SerializeAttributes) == 0 {
		opts.SerializeAttributes = DefaultSerializeAttributes
	}
	return &FieldExtractor{opts: opts}
}

// Extract implements the declaration cache's extractor contract.
func (e *FieldExtractor) Extract(ctx context.Context, path string, src []byte) (FieldSet, error) {
	return ExtractSerializableFields(ctx, path, src, e.opts)
}

// ExtractSerializableFields returns the names of fields that serialization
// can assign: fields carrying a qualifying accessibility modifier, or a
// serialization attribute whatever their accessibility. const and static
// fields and fields marked [NonSerialized] are skipped.
//
// When the file declares a type named after the file stem only that type's
// fields are returned; otherwise fields of every type are.
func ExtractSerializableFields(ctx context.Context, path string, src []byte, opts ExtractOptions) (FieldSet, error) {
	decls, err := ExtractFieldDeclarations(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	scoped := false
	for _, d := range decls {
		if d.TypeName == stem {
			scoped = true
			break
		}
	}

	access := toSet(opts.Accessibility)
	markers := make(map[string]bool, len(opts.SerializeAttributes))
	for _, a := range opts.SerializeAttributes {
		markers[normalizeAttribute(a)] = true
	}

	fields := make(FieldSet)
	for _, d := range decls {
		if scoped && d.TypeName != stem {
			continue
		}
		if isSerializable(d, access, markers) {
			fields[d.Name] = struct{}{}
		}
	}
	return fields, nil
}

func isSerializable(d FieldDeclaration, access, markers map[string]bool) bool {
	qualifies := false
	for _, m := range d.Modifiers {
		if nonInstanceModifiers[m] {
			return false
		}
		if access[m] {
			qualifies = true
		}
	}
	marked := false
	for _, a := range d.Attributes {
		if nonSerializedAttributes[a] {
			return false
		}
		if markers[a] {
			marked = true
		}
	}
	return qualifies || marked
}

// ExtractFieldDeclarations parses C# source and returns every field
// declarator in source order.
func ExtractFieldDeclarations(ctx context.Context, src []byte) ([]FieldDeclaration, error) {
	lp, err := NewLanguageParser("csharp")
	if err != nil {
		return nil, err
	}
	defer lp.Close()

	tree, err := lp.Parse(ctx, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, ErrUnparsable
	}
	if root.HasError() {
		return nil, fmt.Errorf("%w at %s", ErrUnparsable, firstErrorPosition(root))
	}

	var decls []FieldDeclaration
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if node.Type() == "field_declaration" {
			decls = append(decls, extractFieldDeclaration(node, src)...)
			return
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			walk(node.NamedChild(i))
		}
	}
	walk(root)

	return decls, nil
}

func extractFieldDeclaration(node *sitter.Node, code []byte) []FieldDeclaration {
	var (
		modifiers  []string
		attributes []string
		names      []string
	)

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "modifier":
			modifiers = append(modifiers, strings.TrimSpace(getNodeText(child, code)))

		case "attribute_list":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				attr := child.NamedChild(j)
				if attr.Type() == "attribute" {
					attributes = append(attributes, attributeName(attr, code))
				}
			}

		case "variable_declaration":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				decl := child.NamedChild(j)
				if decl.Type() != "variable_declarator" {
					continue
				}
				if name := declaratorName(decl, code); name != "" {
					names = append(names, name)
				}
			}
		}
	}

	typeName := findParentTypeName(node, code)
	line := int(node.StartPoint().Row) + 1

	out := make([]FieldDeclaration, 0, len(names))
	for _, name := range names {
		out = append(out, FieldDeclaration{
			Name:       name,
			TypeName:   typeName,
			Modifiers:  modifiers,
			Attributes: attributes,
			Line:       line,
		})
	}
	return out
}

// firstErrorPosition locates the first ERROR or missing node for messages.
func firstErrorPosition(root *sitter.Node) string {
	var found *sitter.Node
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || found != nil {
			return
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	if found == nil {
		return "unknown position"
	}
	p := found.StartPoint()
	return fmt.Sprintf("line %d, column %d", p.Row+1, p.Column+1)
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}
