package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Slug normalizes a project name to its on-disk directory name:
// spaces become underscores and the result is lowercased.
func Slug(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

// Materialize writes a manifest under root/<slug>, creating intermediate
// directories as needed and overwriting files in place. Repeated builds of
// the same name reuse the directory so iterative refinement keeps working.
// Returns the project directory path.
func Materialize(root, projectName string, m Manifest) (string, error) {
	projectPath := filepath.Join(root, Slug(projectName))
	if err := os.MkdirAll(projectPath, 0o755); err != nil {
		return "", fmt.Errorf("builder: create project dir: %w", err)
	}

	// Deterministic write order; Go maps do not preserve generation order.
	paths := make([]string, 0, len(m.Files))
	for p := range m.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, rel := range paths {
		target, err := resolveWithin(projectPath, rel)
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", fmt.Errorf("builder: create dir for %s: %w", rel, err)
		}
		if err := os.WriteFile(target, []byte(m.Files[rel]), 0o644); err != nil {
			return "", fmt.Errorf("builder: write %s: %w", rel, err)
		}
	}

	if m.PlatformioINI != "" {
		cfg := filepath.Join(projectPath, BuildConfigFile)
		if err := os.WriteFile(cfg, []byte(m.PlatformioINI), 0o644); err != nil {
			return "", fmt.Errorf("builder: write %s: %w", BuildConfigFile, err)
		}
	}

	return projectPath, nil
}

// resolveWithin joins rel under dir and rejects paths that would land
// outside it. Manifest paths come from an external service and are not
// trusted.
func resolveWithin(dir, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("builder: absolute manifest path %q", rel)
	}
	clean := filepath.Clean(filepath.Join(dir, filepath.FromSlash(rel)))
	if clean != dir && !strings.HasPrefix(clean, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("builder: manifest path %q escapes project dir", rel)
	}
	return clean, nil
}
