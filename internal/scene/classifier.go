package scene

import (
	"strings"

	"github.com/rohankatakam/sceneaudit/internal/unityyaml"
)

// Document type discriminators read by the classifier.
const (
	TypeEntity        = "GameObject"
	TypeTransform     = "Transform"
	TypeRectTransform = "RectTransform"
	TypeBehavior      = "MonoBehaviour"
)

// Payload keys read by the classifier.
const (
	keyName       = "m_Name"
	keyComponents = "m_Component"
	keyGameObject = "m_GameObject"
	keyFather     = "m_Father"
	keyScript     = "m_Script"
)

// Positional offsets fixed by the serialized format.
const (
	// componentTransformIndex is the m_Component entry holding the transform.
	componentTransformIndex = 0
	// componentValueIndex is the position of the component reference inside
	// a single-key m_Component entry such as {component: {fileID: 4}}.
	componentValueIndex = 0
	// scriptGUIDIndex is the position of the content identifier inside the
	// m_Script record {fileID, guid, type}.
	scriptGUIDIndex = 1
)

// DefaultReservedPrefix marks engine-internal payload keys.
const DefaultReservedPrefix = "m_"

// ScriptLookup reports whether a content identifier names a known script.
type ScriptLookup interface {
	Has(guid string) bool
}

// Classifier partitions a document stream into the records the hierarchy
// builder and usage evaluator consume. It holds no mutable state.
type Classifier struct {
	scripts        ScriptLookup
	reservedPrefix string
}

// NewClassifier creates a classifier. An empty reservedPrefix selects
// DefaultReservedPrefix.
func NewClassifier(scripts ScriptLookup, reservedPrefix string) *Classifier {
	if reservedPrefix == "" {
		reservedPrefix = DefaultReservedPrefix
	}
	return &Classifier{
		scripts:        scripts,
		reservedPrefix: reservedPrefix,
	}
}

// Classify walks docs in order. Missing nested fields produce empty values
// on the affected record; they never stop the walk.
func (c *Classifier) Classify(docs []unityyaml.Document) *Classification {
	out := &Classification{}

	for i := range docs {
		doc := &docs[i]
		if !doc.HasAnchor() || doc.Body == nil {
			out.Skipped++
			continue
		}

		switch doc.Type {
		case TypeEntity:
			out.Entities = append(out.Entities, classifyEntity(doc))

		case TypeTransform, TypeRectTransform:
			out.Transforms = append(out.Transforms, classifyTransform(doc))

		case TypeBehavior:
			ref, ok := c.classifyBehavior(doc)
			if !ok {
				out.Unregistered++
				continue
			}
			out.Behaviors = append(out.Behaviors, ref)
		}
	}

	return out
}

func classifyEntity(doc *unityyaml.Document) EntityRecord {
	first := unityyaml.ItemAt(doc.Field(keyComponents), componentTransformIndex)
	return EntityRecord{
		AnchorID:         doc.Anchor,
		DisplayName:      unityyaml.Scalar(doc.Field(keyName)),
		OwnedTransformID: unityyaml.Ref(unityyaml.ValueAt(first, componentValueIndex)),
	}
}

func classifyTransform(doc *unityyaml.Document) TransformRecord {
	return TransformRecord{
		AnchorID:          doc.Anchor,
		OwningEntityID:    unityyaml.Ref(doc.Field(keyGameObject)),
		ParentTransformID: unityyaml.Ref(doc.Field(keyFather)),
	}
}

func (c *Classifier) classifyBehavior(doc *unityyaml.Document) (BehaviorReference, bool) {
	guid := unityyaml.Scalar(unityyaml.ValueAt(doc.Field(keyScript), scriptGUIDIndex))
	if guid == "" || c.scripts == nil || !c.scripts.Has(guid) {
		return BehaviorReference{}, false
	}

	var props []string
	for _, key := range doc.Keys() {
		if c.IsReserved(key) {
			continue
		}
		props = append(props, key)
	}

	return BehaviorReference{
		AnchorID:   doc.Anchor,
		ScriptGUID: guid,
		Properties: props,
	}, true
}

// IsReserved reports whether key is engine-internal.
func (c *Classifier) IsReserved(key string) bool {
	return strings.HasPrefix(key, c.reservedPrefix)
}
