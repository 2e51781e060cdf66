package usage

import (
	"github.com/rohankatakam/sceneaudit/internal/models"
)

// Unused returns every registered script whose GUID was never marked,
// ordered by relative path then GUID. Call it only after all scenes have
// been processed.
func Unused(scripts models.ScriptRegistry, used *Registry) []models.Script {
	var out []models.Script
	for guid, s := range scripts {
		if used.Has(guid) {
			continue
		}
		if s.GUID == "" {
			s.GUID = guid
		}
		out = append(out, s)
	}
	models.SortScripts(out)
	return out
}
