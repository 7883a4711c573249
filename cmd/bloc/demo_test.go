package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/vango-dev/bloc/internal/config"
	"github.com/vango-dev/bloc/internal/errors"
)

func TestRunDemo(t *testing.T) {
	color.NoColor = true
	cfg := config.New()
	cfg.LogLevel = "error"

	var out bytes.Buffer
	if err := runDemo(&out, cfg, []string{"alpha", "beta", "gamma"}, 0, true, 5*time.Second); err != nil {
		t.Fatalf("runDemo: %v", err)
	}
	got := out.String()

	for _, want := range []string{
		"✓ mount",
		"<main><h1>bloc</h1><button>ticks: 0</button><ul><li>alpha</li><li>beta</li><li>gamma</li></ul></main>",
		"✓ remove alpha",
		`<main><h1>bloc</h1><button class="odd">ticks: 1</button><ul><li>delta</li><li>gamma</li><li>beta</li></ul></main>`,
		"✓ destroy",
		"bloc_commits_total",
		"bloc_renders_total",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bloc.yaml")
		if err := os.WriteFile(path, []byte("name: board\nlogLevel: debug\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := loadConfig(path)
		if err != nil {
			t.Fatalf("loadConfig: %v", err)
		}
		if cfg.Name != "board" || cfg.LogLevel != "debug" {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "nope.json"))
		if code := errors.CodeOf(err); code != "B300" {
			t.Errorf("code = %q, want B300", code)
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bloc.toml")
		if err := os.WriteFile(path, []byte("logLevel = \"loud\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := loadConfig(path)
		if code := errors.CodeOf(err); code != "B303" {
			t.Errorf("code = %q, want B303", code)
		}
	})
}
