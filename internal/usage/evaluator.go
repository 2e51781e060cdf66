package usage

import (
	"context"
	"strings"

	"github.com/rohankatakam/sceneaudit/internal/models"
	"github.com/rohankatakam/sceneaudit/internal/scene"
	"github.com/rohankatakam/sceneaudit/internal/treesitter"
)

// Declarations returns the serializable fields of a script source.
type Declarations interface {
	Get(ctx context.Context, path string) (treesitter.FieldSet, error)
}

// Verdict explains one evaluation.
type Verdict struct {
	GUID       string
	Valid      bool
	Undeclared []string // Properties missing from the script's declarations
	Err        error    // Set when the script's declarations were unavailable
}

// Evaluator checks behavior references against script declarations and
// records valid ones in a Registry.
type Evaluator struct {
	scripts        models.ScriptRegistry
	declarations   Declarations
	used           *Registry
	reservedPrefix string
}

// NewEvaluator wires an evaluator. An empty reservedPrefix selects
// scene.DefaultReservedPrefix.
func NewEvaluator(scripts models.ScriptRegistry, declarations Declarations, used *Registry, reservedPrefix string) *Evaluator {
	if reservedPrefix == "" {
		reservedPrefix = scene.DefaultReservedPrefix
	}
	return &Evaluator{
		scripts:        scripts,
		declarations:   declarations,
		used:           used,
		reservedPrefix: reservedPrefix,
	}
}

// Evaluate marks the reference's script as used when every non-reserved
// property is a declared field. A single undeclared property invalidates
// the whole reference. An invalid reference never unmarks a script that
// another reference already validated.
func (e *Evaluator) Evaluate(ctx context.Context, ref scene.BehaviorReference) Verdict {
	v := Verdict{GUID: ref.ScriptGUID}

	script, ok := e.scripts.Lookup(ref.ScriptGUID)
	if !ok {
		return v
	}

	fields, err := e.declarations.Get(ctx, script.Path)
	if err != nil {
		v.Err = err
		return v
	}

	for _, prop := range ref.Properties {
		if strings.HasPrefix(prop, e.reservedPrefix) {
			continue
		}
		if !fields.Has(prop) {
			v.Undeclared = append(v.Undeclared, prop)
		}
	}
	if len(v.Undeclared) > 0 {
		return v
	}

	v.Valid = true
	e.used.Mark(ref.ScriptGUID)
	return v
}
