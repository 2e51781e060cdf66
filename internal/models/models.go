package models

import (
	"sort"
)

// Script is one entry of the script registry: a content identifier and the
// source file it names.
type Script struct {
	GUID         string `json:"guid"`
	Path         string `json:"path"`          // Absolute path to the source file
	RelativePath string `json:"relative_path"` // Path relative to the project root
}

// ScriptRegistry maps content identifiers to script sources. It is built once
// before scenes are processed and is read-only afterwards.
type ScriptRegistry map[string]Script

// Lookup returns the script registered under guid.
func (r ScriptRegistry) Lookup(guid string) (Script, bool) {
	s, ok := r[guid]
	return s, ok
}

// Has reports whether guid is registered.
func (r ScriptRegistry) Has(guid string) bool {
	_, ok := r[guid]
	return ok
}

// Scripts returns every registered script ordered by relative path, then GUID.
func (r ScriptRegistry) Scripts() []Script {
	out := make([]Script, 0, len(r))
	for _, s := range r {
		out = append(out, s)
	}
	SortScripts(out)
	return out
}

// SortScripts orders scripts by relative path, then GUID.
func SortScripts(scripts []Script) {
	sort.Slice(scripts, func(i, j int) bool {
		if scripts[i].RelativePath != scripts[j].RelativePath {
			return scripts[i].RelativePath < scripts[j].RelativePath
		}
		return scripts[i].GUID < scripts[j].GUID
	})
}
