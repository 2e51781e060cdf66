package ingestion

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rohankatakam/sceneaudit/internal/errors"
)

// ValidateLayout checks that projectRoot contains assetDir and returns the
// asset root. A missing asset root is fatal: nothing else can be scanned.
func ValidateLayout(projectRoot, assetDir string) (string, error) {
	info, err := os.Stat(projectRoot)
	if err != nil || !info.IsDir() {
		return "", errors.LayoutErrorf("project root %s is not a directory", projectRoot).
			WithContext("project_root", projectRoot)
	}

	assetRoot := filepath.Join(projectRoot, assetDir)
	info, err = os.Stat(assetRoot)
	if err != nil || !info.IsDir() {
		return "", errors.LayoutErrorf("%s does not contain an %s directory", projectRoot, assetDir).
			WithContext("asset_root", assetRoot)
	}

	return assetRoot, nil
}

// WalkScenes returns every scene file under assetRoot, sorted.
func WalkScenes(assetRoot string, extensions []string) ([]string, error) {
	var scenes []string
	err := walkFiles(assetRoot, func(path string) {
		if hasExtension(path, extensions) {
			scenes = append(scenes, path)
		}
	})
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to walk %s", assetRoot)
	}
	sort.Strings(scenes)
	return scenes, nil
}

// walkFiles calls visit for every regular file under root, skipping
// excluded directories.
func walkFiles(root string, visit func(path string)) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip excluded directories
		if d.IsDir() && path != root && shouldSkipDir(d.Name()) {
			return filepath.SkipDir
		}

		if d.Type().IsRegular() {
			visit(path)
		}
		return nil
	})
}

// shouldSkipDir returns true if directory should be excluded from scanning.
// Hidden folders and folders ending in "~" are ignored by the editor too.
func shouldSkipDir(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return true
	}

	excludeDirs := []string{
		"Library",
		"Temp",
		"Logs",
		"obj",
		"node_modules",
	}
	for _, exclude := range excludeDirs {
		if name == exclude {
			return true
		}
	}
	return false
}

func hasExtension(path string, extensions []string) bool {
	ext := filepath.Ext(path)
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
