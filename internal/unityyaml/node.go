package unityyaml

import (
	"gopkg.in/yaml.v3"
)

// nullFileID is the anchor value Unity writes for an unset reference.
const nullFileID = "0"

// refValueIndex is the position of the anchor inside a reference wrapper
// such as {fileID: 100}.
const refValueIndex = 0

// Lookup returns the value stored under key in a mapping node, or nil.
func Lookup(n *yaml.Node, key string) *yaml.Node {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// ValueAt returns the i-th value of a mapping node by position, or nil.
func ValueAt(n *yaml.Node, i int) *yaml.Node {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode || i < 0 {
		return nil
	}
	idx := 2*i + 1
	if idx >= len(n.Content) {
		return nil
	}
	return n.Content[idx]
}

// ItemAt returns the i-th element of a sequence node, or nil.
func ItemAt(n *yaml.Node, i int) *yaml.Node {
	n = resolve(n)
	if n == nil || n.Kind != yaml.SequenceNode || i < 0 || i >= len(n.Content) {
		return nil
	}
	return n.Content[i]
}

// Keys returns the keys of a mapping node in document order.
func Keys(n *yaml.Node) []string {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keys = append(keys, n.Content[i].Value)
	}
	return keys
}

// Scalar returns the value of a scalar node, or "" for anything else.
func Scalar(n *yaml.Node) string {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

// Ref returns the anchor held by a reference wrapper like {fileID: 100}.
// Null references ({fileID: 0}) and anything malformed yield "".
func Ref(n *yaml.Node) string {
	id := Scalar(ValueAt(n, refValueIndex))
	if id == nullFileID {
		return ""
	}
	return id
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && (n.Kind == yaml.AliasNode || n.Kind == yaml.DocumentNode) {
		if n.Kind == yaml.AliasNode {
			n = n.Alias
			continue
		}
		if len(n.Content) == 0 {
			return nil
		}
		n = n.Content[0]
	}
	return n
}
