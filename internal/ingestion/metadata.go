package ingestion

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/sceneaudit/internal/errors"
	"github.com/rohankatakam/sceneaudit/internal/models"
)

const guidKey = "guid:"

// ReadGUID returns the content identifier recorded in a sidecar metadata
// file, or "" when the file has no guid line.
func ReadGUID(metaPath string) (string, error) {
	f, err := os.Open(metaPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, guidKey) {
			return strings.TrimSpace(line[len(guidKey):]), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", metaPath, err)
	}
	return "", nil
}

// LoadScriptRegistry maps the GUID of every script under assetRoot to its
// source file. Scripts whose sidecar is missing or has no guid are skipped
// with a warning; a GUID claimed twice keeps the first path in walk order.
func LoadScriptRegistry(projectRoot, assetRoot, scriptExt, metaExt string, logger *logrus.Logger) (models.ScriptRegistry, error) {
	registry := make(models.ScriptRegistry)
	suffix := scriptExt + metaExt

	err := walkFiles(assetRoot, func(path string) {
		if !strings.HasSuffix(strings.ToLower(path), strings.ToLower(suffix)) {
			return
		}
		scriptPath := path[:len(path)-len(metaExt)]
		log := logger.WithField("meta", path)

		guid, err := ReadGUID(path)
		if err != nil {
			log.WithError(err).Warn("Failed to read script metadata")
			return
		}
		if guid == "" {
			log.Warn("Script metadata has no guid")
			return
		}
		if _, err := os.Stat(scriptPath); err != nil {
			log.Debug("Metadata without a script source, skipping")
			return
		}
		if existing, dup := registry[guid]; dup {
			log.WithFields(logrus.Fields{
				"guid":     guid,
				"existing": existing.RelativePath,
			}).Warn("Duplicate script guid, keeping the first")
			return
		}

		abs, err := filepath.Abs(scriptPath)
		if err != nil {
			abs = scriptPath
		}
		rel, err := filepath.Rel(projectRoot, scriptPath)
		if err != nil {
			rel = scriptPath
		}

		registry[guid] = models.Script{
			GUID:         guid,
			Path:         abs,
			RelativePath: filepath.ToSlash(rel),
		}
	})
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to walk %s", assetRoot)
	}

	return registry, nil
}
