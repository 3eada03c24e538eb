package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func assertEqual(t *testing.T, field string, got, want interface{}) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s = %v, want %v", field, got, want)
	}
}

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assertEqual(t, "Extensions", cfg.Extensions, []string{".fil"})
	assertEqual(t, "Manifest", cfg.Manifest, "")
	assertEqual(t, "MaxDepth", cfg.MaxDepth, 0)
	assertEqual(t, "Workers", cfg.Workers, 1)
	assertEqual(t, "ChunkSize", cfg.ChunkSize, 8192)
	assertEqual(t, "HashAlgorithm", cfg.HashAlgorithm, "md5")
	assertEqual(t, "StrictManifest", cfg.StrictManifest, false)
	assertEqual(t, "LogLevel", cfg.LogLevel, "info")
	assertEqual(t, "LogDir", cfg.LogDir, filepath.Join(".tvscan", "logs"))
	assertEqual(t, "History.Enabled", cfg.History.Enabled, true)
	assertEqual(t, "History.DBPath", cfg.History.DBPath, filepath.Join(".tvscan", "history.db"))

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

// TestLoadConfig_FullMatrixCoversAllFields ensures that every configuration field
// can be overridden via YAML and that nested sections are respected.
func TestLoadConfig_FullMatrixCoversAllFields(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata", "full-config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	assertEqual(t, "Extensions", cfg.Extensions, []string{".fil", ".h5"})
	assertEqual(t, "Manifest", cfg.Manifest, "/srv/vectors/manifest.csv")
	assertEqual(t, "ExcludeDirs", cfg.ExcludeDirs, []string{"scratch", "tmp"})
	assertEqual(t, "MaxDepth", cfg.MaxDepth, 3)
	assertEqual(t, "Workers", cfg.Workers, 6)
	assertEqual(t, "ChunkSize", cfg.ChunkSize, 65536)
	assertEqual(t, "HashAlgorithm", cfg.HashAlgorithm, "sha256")
	assertEqual(t, "StrictManifest", cfg.StrictManifest, true)
	assertEqual(t, "LogLevel", cfg.LogLevel, "debug")
	assertEqual(t, "LogDir", cfg.LogDir, "/tmp/tvscan/logs")

	t.Run("History", func(t *testing.T) {
		assertEqual(t, "Enabled", cfg.History.Enabled, false)
		assertEqual(t, "DBPath", cfg.History.DBPath, "/tmp/tvscan/history.db")
	})
}

// TestLoadConfigFileNotExists tests fallback to defaults when file doesn't exist
func TestLoadConfigFileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() should not error on missing file, got: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("LoadConfig() = %+v, want defaults", cfg)
	}
}

// TestLoadConfigPartialFile tests that unset keys keep their defaults
func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "workers: 4\nhistory:\n  db_path: runs.db\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	assertEqual(t, "Workers", cfg.Workers, 4)
	assertEqual(t, "Extensions", cfg.Extensions, []string{".fil"})
	assertEqual(t, "HashAlgorithm", cfg.HashAlgorithm, "md5")
	assertEqual(t, "History.Enabled", cfg.History.Enabled, true)
	assertEqual(t, "History.DBPath", cfg.History.DBPath, "runs.db")
}

// TestLoadConfigInvalidYAML tests error handling for malformed files
func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("workers: [1, 2\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() expected error for invalid YAML")
	}
}

// TestLoadConfigFromDir tests the .tvscan/config.yaml convention
func TestLoadConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".tvscan"), 0755); err != nil {
		t.Fatal(err)
	}
	content := "manifest: vectors.csv\n"
	if err := os.WriteFile(filepath.Join(dir, ".tvscan", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFromDir(dir)
	if err != nil {
		t.Fatalf("LoadConfigFromDir() error = %v", err)
	}
	assertEqual(t, "Manifest", cfg.Manifest, "vectors.csv")
}

// TestMergeWithFlags tests that flags take precedence over config values
func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 3
	cfg.LogDir = "/var/log/tvscan"

	workers := 8
	depth := 2
	hash := "sha256"
	strict := true
	noHistory := false
	manifest := "out.csv"

	cfg.MergeWithFlags(Flags{
		Extensions:     []string{".h5"},
		Manifest:       &manifest,
		MaxDepth:       &depth,
		Workers:        &workers,
		HashAlgorithm:  &hash,
		StrictManifest: &strict,
		HistoryEnabled: &noHistory,
	})

	assertEqual(t, "Extensions", cfg.Extensions, []string{".h5"})
	assertEqual(t, "Manifest", cfg.Manifest, "out.csv")
	assertEqual(t, "MaxDepth", cfg.MaxDepth, 2)
	assertEqual(t, "Workers", cfg.Workers, 8)
	assertEqual(t, "HashAlgorithm", cfg.HashAlgorithm, "sha256")
	assertEqual(t, "StrictManifest", cfg.StrictManifest, true)
	assertEqual(t, "History.Enabled", cfg.History.Enabled, false)
	// Untouched by flags
	assertEqual(t, "LogDir", cfg.LogDir, "/var/log/tvscan")
	assertEqual(t, "ChunkSize", cfg.ChunkSize, 8192)
}

// TestValidate tests configuration validation
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"no extensions", func(c *Config) { c.Extensions = []string{" "} }, "extensions"},
		{"negative max depth", func(c *Config) { c.MaxDepth = -1 }, "max_depth"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"negative chunk size", func(c *Config) { c.ChunkSize = -1 }, "chunk_size"},
		{"unknown hash", func(c *Config) { c.HashAlgorithm = "crc32" }, "hash_algorithm"},
		{"sha256", func(c *Config) { c.HashAlgorithm = "SHA256" }, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
		{"history without db", func(c *Config) { c.History.DBPath = "" }, "history.db_path"},
		{"history disabled without db", func(c *Config) {
			c.History.Enabled = false
			c.History.DBPath = ""
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

// TestWriteDefaultRoundTrip tests that the rendered defaults load back unchanged
func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".tvscan", "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("round trip = %+v, want %+v", cfg, DefaultConfig())
	}

	if _, err := os.Stat(path + ".lock"); err != nil {
		t.Errorf("expected lock file next to config: %v", err)
	}
}

// TestHomeDir tests state directory resolution
func TestHomeDir(t *testing.T) {
	t.Run("under base", func(t *testing.T) {
		t.Setenv(HomeEnv, "")
		base := t.TempDir()

		home, err := HomeDir(base)
		if err != nil {
			t.Fatalf("HomeDir() error = %v", err)
		}
		assertEqual(t, "HomeDir", home, filepath.Join(base, ".tvscan"))
		if info, err := os.Stat(home); err != nil || !info.IsDir() {
			t.Errorf("expected %s to be created", home)
		}
	})

	t.Run("env override", func(t *testing.T) {
		custom := filepath.Join(t.TempDir(), "state")
		t.Setenv(HomeEnv, custom)

		home, err := HomeDir(t.TempDir())
		if err != nil {
			t.Fatalf("HomeDir() error = %v", err)
		}
		assertEqual(t, "HomeDir", home, custom)
	})
}

func TestResolvePath(t *testing.T) {
	assertEqual(t, "relative", ResolvePath("/data", "m.csv"), filepath.Join("/data", "m.csv"))
	assertEqual(t, "absolute", ResolvePath("/data", "/srv/m.csv"), "/srv/m.csv")
	assertEqual(t, "empty", ResolvePath("/data", ""), "")
}

func TestResolveState(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResolveState("/srv/state")

	assertEqual(t, "LogDir", cfg.LogDir, filepath.Join("/srv/state", "logs"))
	assertEqual(t, "DBPath", cfg.History.DBPath, filepath.Join("/srv/state", "history.db"))

	cfg.LogDir = "custom/logs"
	cfg.History.DBPath = "/abs/history.db"
	cfg.ResolveState("/srv/state")

	assertEqual(t, "relative LogDir", cfg.LogDir, filepath.Join("/srv/state", "custom", "logs"))
	assertEqual(t, "absolute DBPath", cfg.History.DBPath, "/abs/history.db")
}
