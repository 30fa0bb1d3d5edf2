package builder

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMaterializeWritesTree(t *testing.T) {
	root := t.TempDir()
	m := Manifest{
		Files: map[string]string{
			"src/main.cpp":     "void setup() {}",
			"include/config.h": "#pragma once",
		},
		PlatformioINI: "[env:esp32dev]",
	}

	path, err := Materialize(root, "My Lamp", m)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if path != filepath.Join(root, "my_lamp") {
		t.Fatalf("unexpected project path %q", path)
	}
	assertFile(t, filepath.Join(path, "src", "main.cpp"), "void setup() {}")
	assertFile(t, filepath.Join(path, "include", "config.h"), "#pragma once")
	assertFile(t, filepath.Join(path, BuildConfigFile), "[env:esp32dev]")
}

func TestMaterializeOverwritesInPlace(t *testing.T) {
	root := t.TempDir()

	first := Manifest{Files: map[string]string{"src/main.cpp": "old"}}
	second := Manifest{Files: map[string]string{"src/main.cpp": "new"}}

	p1, err := Materialize(root, "Lamp", first)
	if err != nil {
		t.Fatalf("first materialize: %v", err)
	}
	p2, err := Materialize(root, "Lamp", second)
	if err != nil {
		t.Fatalf("second materialize: %v", err)
	}
	if p1 != p2 {
		t.Fatalf("project dir duplicated: %q vs %q", p1, p2)
	}
	assertFile(t, filepath.Join(p2, "src", "main.cpp"), "new")

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one project dir, got %d", len(entries))
	}
}

func TestMaterializeSkipsEmptyBuildConfig(t *testing.T) {
	root := t.TempDir()
	path, err := Materialize(root, "lamp", Manifest{Files: map[string]string{"a.txt": "x"}})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if _, err := os.Stat(filepath.Join(path, BuildConfigFile)); !os.IsNotExist(err) {
		t.Fatal("platformio.ini should not exist for an empty build config")
	}
}

func TestMaterializeRejectsEscapingPaths(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"../evil.txt", "/etc/evil.txt"} {
		_, err := Materialize(root, "lamp", Manifest{Files: map[string]string{rel: "x"}})
		if err == nil {
			t.Fatalf("expected error for path %q", rel)
		}
	}
}

func TestSlug(t *testing.T) {
	if got := Slug("My Cool Lamp"); got != "my_cool_lamp" {
		t.Fatalf("Slug: got %q", got)
	}
}

func assertFile(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if string(data) != want {
		t.Fatalf("%s: got %q want %q", path, data, want)
	}
}
