package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/bloc/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if cfg.Inspector.Addr != DefaultInspectorAddr {
		t.Errorf("Inspector.Addr = %q, want %q", cfg.Inspector.Addr, DefaultInspectorAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "json",
			file:    "bloc.json",
			content: `{"name": "todo", "dev": true, "metrics": {"enabled": true, "namespace": "todo"}}`,
		},
		{
			name:    "yaml",
			file:    "bloc.yaml",
			content: "name: todo\ndev: true\nmetrics:\n  enabled: true\n  namespace: todo\n",
		},
		{
			name:    "toml",
			file:    "bloc.toml",
			content: "name = \"todo\"\ndev = true\n\n[metrics]\nenabled = true\nnamespace = \"todo\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)

			cfg, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if cfg.Name != "todo" {
				t.Errorf("Name = %q, want todo", cfg.Name)
			}
			if !cfg.Dev {
				t.Error("Dev = false, want true")
			}
			if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != "todo" {
				t.Errorf("Metrics = %+v", cfg.Metrics)
			}
			// Untouched sections keep their defaults.
			if cfg.Tracing.TracerName != DefaultTracerName {
				t.Errorf("Tracing.TracerName = %q, want %q", cfg.Tracing.TracerName, DefaultTracerName)
			}
			if cfg.Path() != path {
				t.Errorf("Path() = %q, want %q", cfg.Path(), path)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "bloc.json"))
	if errors.CodeOf(err) != "B300" {
		t.Errorf("missing file: code = %q, want B300", errors.CodeOf(err))
	}

	bad := writeFile(t, dir, "bad.json", `{"name": `)
	_, err = LoadFile(bad)
	if errors.CodeOf(err) != "B301" {
		t.Errorf("bad json: code = %q, want B301", errors.CodeOf(err))
	}

	unknown := writeFile(t, dir, "unknown.toml", "colour = \"red\"\n")
	_, err = LoadFile(unknown)
	if errors.CodeOf(err) != "B301" {
		t.Errorf("unknown toml key: code = %q, want B301", errors.CodeOf(err))
	}

	ini := writeFile(t, dir, "bloc.ini", "name=todo")
	_, err = LoadFile(ini)
	if errors.CodeOf(err) != "B302" {
		t.Errorf("ini: code = %q, want B302", errors.CodeOf(err))
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bloc.yaml", "name: walked\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Find(nested)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if cfg.Name != "walked" {
		t.Errorf("Name = %q, want walked", cfg.Name)
	}
}

func TestValidate(t *testing.T) {
	cfg := New()
	cfg.LogLevel = "loud"
	if errors.CodeOf(cfg.Validate()) != "B303" {
		t.Errorf("bad level: Validate() = %v", cfg.Validate())
	}

	cfg = New()
	cfg.Inspector.Path = "inspect"
	if errors.CodeOf(cfg.Validate()) != "B303" {
		t.Errorf("bad path: Validate() = %v", cfg.Validate())
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := New()
	cfg.Name = "todo"
	cfg.Dev = true

	logger := cfg.Logger(&buf)
	logger.Debug("hello")

	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "app=todo") {
		t.Errorf("log output = %q", out)
	}
}
