package scene

// EntityRecord is a classified scene entity (GameObject).
type EntityRecord struct {
	AnchorID         string
	DisplayName      string
	OwnedTransformID string // Anchor of the entity's transform, not dereferenced
}

// TransformRecord is a classified Transform or RectTransform.
type TransformRecord struct {
	AnchorID          string
	OwningEntityID    string
	ParentTransformID string // Empty for a root transform
}

// BehaviorReference is a serialized behavior-script instance.
type BehaviorReference struct {
	AnchorID   string
	ScriptGUID string
	Properties []string // Non-reserved top-level keys, in document order
}

// Classification is the output of Classify. Every slice keeps stream order.
type Classification struct {
	Entities   []EntityRecord
	Transforms []TransformRecord
	Behaviors  []BehaviorReference

	// Skipped counts documents ignored for lacking an anchor or a body.
	Skipped int
	// Unregistered counts behavior references dropped because their script
	// GUID was missing or unknown.
	Unregistered int
}

// Node is a resolved scene entity in the forest, keyed by entity anchor.
type Node struct {
	ID       string
	Name     string
	ParentID string   // Empty for roots
	Children []string // First-encountered order
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == ""
}
