package config

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeYAML(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func quietResolver(t *testing.T, globalPath, localPath string) *Resolver {
	t.Helper()
	return NewResolver(t.TempDir(),
		WithPaths(globalPath, localPath), WithErrWriter(io.Discard))
}

func TestResolve(t *testing.T) {
	t.Run("defaults only", func(t *testing.T) {
		cfg := quietResolver(t, "", "").Resolve()

		if got := cfg.Get(KeyCount); got != "3" {
			t.Errorf("count = %q, want 3", got)
		}
		if got := cfg.Get(KeyStyle); got != "general" {
			t.Errorf("style = %q, want general", got)
		}
		if _, source := cfg.GetWithSource(KeyRemote); source != SourceDefault {
			t.Errorf("source = %q, want default", source)
		}
	})

	t.Run("local overrides global overrides defaults", func(t *testing.T) {
		dir := t.TempDir()
		globalPath := filepath.Join(dir, "global.yaml")
		localPath := filepath.Join(dir, "local.yaml")
		writeYAML(t, globalPath, "commit_style: conventional\ngenerate_count: 5\n")
		writeYAML(t, localPath, "generate_count: 2\n")

		cfg := quietResolver(t, globalPath, localPath).Resolve()

		value, source := cfg.GetWithSource(KeyStyle)
		if value != "conventional" || source != SourceGlobal {
			t.Errorf("style = %q from %q", value, source)
		}
		value, source = cfg.GetWithSource(KeyCount)
		if value != "2" || source != SourceLocal {
			t.Errorf("count = %q from %q", value, source)
		}
	})

	t.Run("environment beats files", func(t *testing.T) {
		dir := t.TempDir()
		localPath := filepath.Join(dir, "local.yaml")
		writeYAML(t, localPath, "commit_style: conventional\n")
		t.Setenv("COMMITFLOW_COMMIT_STYLE", "general")

		cfg := quietResolver(t, "", localPath).Resolve()

		value, source := cfg.GetWithSource(KeyStyle)
		if value != "general" || source != SourceEnv {
			t.Errorf("style = %q from %q", value, source)
		}
	})

	t.Run("NO_COLOR honored", func(t *testing.T) {
		t.Setenv("NO_COLOR", "")

		cfg := quietResolver(t, "", "").Resolve()
		if !cfg.Bool(KeyNoColor) {
			t.Error("no_color = false, want true")
		}
	})

	t.Run("unknown keys warn and are skipped", func(t *testing.T) {
		dir := t.TempDir()
		localPath := filepath.Join(dir, "local.yaml")
		writeYAML(t, localPath, "typo_key: oops\npush: true\n")

		r := quietResolver(t, "", localPath)
		cfg := r.Resolve()

		if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0], "typo_key") {
			t.Errorf("warnings = %v", r.Warnings)
		}
		if !cfg.Bool(KeyPush) {
			t.Error("push = false, want true")
		}
	})

	t.Run("unparsable file warns", func(t *testing.T) {
		dir := t.TempDir()
		localPath := filepath.Join(dir, "local.yaml")
		writeYAML(t, localPath, "commit_style: [unclosed\n")

		r := quietResolver(t, "", localPath)
		r.Resolve()
		if len(r.Warnings) == 0 {
			t.Error("expected a parse warning")
		}
	})
}

func TestResolveWithFlags(t *testing.T) {
	dir := t.TempDir()
	localPath := filepath.Join(dir, "local.yaml")
	writeYAML(t, localPath, "generate_count: 5\n")

	cfg := quietResolver(t, "", localPath).ResolveWithFlags(map[string]string{
		KeyCount: "7",
		KeyStyle: "", // empty flags are ignored
	})

	value, source := cfg.GetWithSource(KeyCount)
	if value != "7" || source != SourceFlag {
		t.Errorf("count = %q from %q", value, source)
	}
	if got := cfg.Get(KeyStyle); got != "general" {
		t.Errorf("style = %q, want default", got)
	}
}

func TestResolvedAccessors(t *testing.T) {
	dir := t.TempDir()
	localPath := filepath.Join(dir, "local.yaml")
	writeYAML(t, localPath,
		"generate_count: 4\npush: yes\nexclude_files: \"vendor/*, *.lock , \"\n")

	cfg := quietResolver(t, "", localPath).Resolve()

	t.Run("Int", func(t *testing.T) {
		if got := cfg.Int(KeyCount, 3); got != 4 {
			t.Errorf("Int = %d, want 4", got)
		}
		if got := cfg.Int(KeyModel, 9); got != 9 {
			t.Errorf("Int fallback = %d, want 9", got)
		}
	})

	t.Run("Bool", func(t *testing.T) {
		if !cfg.Bool(KeyPush) {
			t.Error("push = false, want true")
		}
		if cfg.Bool(KeyChangelog) {
			t.Error("changelog = true, want false")
		}
	})

	t.Run("List", func(t *testing.T) {
		want := []string{"vendor/*", "*.lock"}
		if got := cfg.List(KeyExclude); !reflect.DeepEqual(got, want) {
			t.Errorf("List = %v, want %v", got, want)
		}
		if got := cfg.List(KeyModel); got != nil {
			t.Errorf("empty List = %v, want nil", got)
		}
	})

	t.Run("All returns a copy", func(t *testing.T) {
		all := cfg.All()
		all[KeyCount] = "mutated"
		if cfg.Get(KeyCount) == "mutated" {
			t.Error("All leaked internal map")
		}
	})
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := WriteTemplate(path); err != nil {
		t.Fatalf("WriteTemplate failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), KeyStyle) {
		t.Error("template missing commit_style")
	}

	if err := WriteTemplate(path); err == nil {
		t.Error("expected error for existing file")
	}
}
