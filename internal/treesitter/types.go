package treesitter

import (
	"sort"
)

// FieldSet is the set of field names a script exposes to serialization.
type FieldSet map[string]struct{}

// NewFieldSet builds a set from names.
func NewFieldSet(names ...string) FieldSet {
	fs := make(FieldSet, len(names))
	for _, n := range names {
		fs[n] = struct{}{}
	}
	return fs
}

// Has reports whether name is in the set.
func (fs FieldSet) Has(name string) bool {
	_, ok := fs[name]
	return ok
}

// Names returns the field names sorted.
func (fs FieldSet) Names() []string {
	out := make([]string, 0, len(fs))
	for n := range fs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// FieldDeclaration is one declarator of a C# field declaration.
type FieldDeclaration struct {
	Name       string
	TypeName   string // Enclosing class or struct
	Modifiers  []string
	Attributes []string // Normalized attribute names
	Line       int      // 1-based
}

// ParseResult contains the serializable fields extracted from one script.
type ParseResult struct {
	FilePath string
	Language string
	Fields   FieldSet
	Error    error
}
