package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	pkgconfig "github.com/starford/marquee/pkg/config"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.App.HTTP.Address() != ":3000" {
		t.Errorf("address = %q", cfg.App.HTTP.Address())
	}
}

func TestConfig_InvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := NewDefaultConfig()
		cfg.App.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d should fail validation", port)
		}
	}
}

func TestConfig_EmptyStorageRoot(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Root = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty storage root should fail validation")
	}
}

func TestConfig_EmptyJournalPath(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Journal.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty journal path should fail validation")
	}
}

func TestConfig_LoadYAMLWithEnv(t *testing.T) {
	t.Setenv("MARQUEE_TEST_ROOT", "/srv/signage")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `app:
  log_level: debug
  http:
    port: 8081
storage:
  root: ${MARQUEE_TEST_ROOT}
journal:
  path: ${MARQUEE_TEST_ROOT}/journal.db
display:
  public_dir: ./public
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadOrDefault(path, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}
	if cfg.App.HTTP.Port != 8081 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
	if cfg.Storage.Root != "/srv/signage" || cfg.Journal.Path != "/srv/signage/journal.db" {
		t.Errorf("paths = %q, %q", cfg.Storage.Root, cfg.Journal.Path)
	}
	if cfg.Display.PublicDir != "./public" {
		t.Errorf("public dir = %q", cfg.Display.PublicDir)
	}
}

func TestConfig_MissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"), cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.App.HTTP.Port != 3000 || cfg.Storage.Root != "./data" {
		t.Errorf("defaults changed: %+v", cfg)
	}
}

func TestConfig_LoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  root: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := pkgconfig.LoadOrDefault(path, NewDefaultConfig()); err == nil {
		t.Fatal("expected validation error")
	}
}
