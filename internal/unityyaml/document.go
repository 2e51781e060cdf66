// Package unityyaml decodes the flat, anchor-labelled YAML streams Unity
// writes for scenes and prefabs.
//
// A stream looks like:
//
//	%YAML 1.1
//	%TAG !u! tag:unity3d.com,2011:
//	--- !u!1 &100
//	GameObject:
//	  m_Name: Player
//	--- !u!4 &200
//	Transform:
//	  m_GameObject: {fileID: 100}
//
// Each "---" header carries a class id and an anchor; the body is a mapping
// with a single key naming the document type.
package unityyaml

import (
	"gopkg.in/yaml.v3"
)

// Document is one tagged document of a stream.
type Document struct {
	ClassID  int
	Anchor   string // Empty when the header carries no "&" label
	Stripped bool   // Prefab-instance placeholder with a truncated body
	Type     string // Single top-level key of the body, e.g. "GameObject"
	Body     *yaml.Node
	Err      error // Set when the body could not be decoded
}

// HasAnchor reports whether other documents can reference this one.
func (d *Document) HasAnchor() bool {
	return d.Anchor != ""
}

// Field returns the payload value stored under key, or nil.
func (d *Document) Field(key string) *yaml.Node {
	return Lookup(d.Body, key)
}

// Keys returns the payload's top-level keys in document order.
func (d *Document) Keys() []string {
	return Keys(d.Body)
}
