package treesitter

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// typeDeclarationKinds are the C# nodes that can own field declarations.
var typeDeclarationKinds = map[string]bool{
	"class_declaration":  true,
	"struct_declaration": true,
	"record_declaration": true,
}

// getNodeText extracts text from a node using byte offsets
func getNodeText(node *sitter.Node, code []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if int(end) > len(code) {
		end = uint32(len(code))
	}
	if start > end {
		return ""
	}
	return string(code[start:end])
}

// findParentTypeName traverses up to find the nearest enclosing class,
// struct or record name
func findParentTypeName(node *sitter.Node, code []byte) string {
	current := node.Parent()
	for current != nil {
		if typeDeclarationKinds[current.Type()] {
			nameNode := current.ChildByFieldName("name")
			if nameNode != nil {
				return getNodeText(nameNode, code)
			}
		}
		current = current.Parent()
	}
	return ""
}

// declaratorName returns the identifier a variable_declarator introduces.
// Older grammar revisions do not tag it with a "name" field.
func declaratorName(node *sitter.Node, code []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return getNodeText(nameNode, code)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "identifier" {
			return getNodeText(child, code)
		}
	}
	return ""
}

// attributeName returns an attribute's name without namespace qualifiers
// or the "Attribute" suffix: [UnityEngine.SerializeFieldAttribute] and
// [SerializeField] both yield "SerializeField".
func attributeName(node *sitter.Node, code []byte) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil && node.NamedChildCount() > 0 {
		nameNode = node.NamedChild(0)
	}
	return normalizeAttribute(getNodeText(nameNode, code))
}

func normalizeAttribute(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	if trimmed := strings.TrimSuffix(name, "Attribute"); trimmed != "" {
		name = trimmed
	}
	return name
}
