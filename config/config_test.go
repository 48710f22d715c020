package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	liberrors "github.com/wippyai/libstate/errors"
)

func TestParse(t *testing.T) {
	data := []byte(`
library: lib/msquic.wasm
next: lib/msquic-next.wasm
version: "2.3.1"
build_id: 0a1b2c
shutdown_export: MsQuicClose
log_level: debug
memory_limit_pages: 256
table_capacity: 4
enable_threads: true
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Library != "lib/msquic.wasm" || cfg.Next != "lib/msquic-next.wasm" {
		t.Errorf("paths = %q, %q", cfg.Library, cfg.Next)
	}
	if cfg.Version != "2.3.1" || cfg.BuildID != "0a1b2c" {
		t.Errorf("version = %q, build = %q", cfg.Version, cfg.BuildID)
	}
	if cfg.TableCapacity != 4 {
		t.Errorf("TableCapacity = %d", cfg.TableCapacity)
	}

	lvl, err := cfg.Level()
	if err != nil || lvl != zapcore.DebugLevel {
		t.Errorf("Level = %v, %v", lvl, err)
	}

	ec := cfg.Engine()
	if ec.ShutdownExport != "MsQuicClose" || ec.MemoryLimitPages != 256 || !ec.EnableThreads {
		t.Errorf("Engine() = %+v", ec)
	}
}

func TestParse_EmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) failed: %v", err)
	}
	def := Default()
	if *cfg != *def {
		t.Errorf("Parse(nil) = %+v, want %+v", cfg, def)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		kind liberrors.Kind
	}{
		{"unknown key", "libary: x.wasm\n", liberrors.KindInvalidData},
		{"bad yaml", "version: [\n", liberrors.KindInvalidData},
		{"long version", "version: " + strings.Repeat("1", 65) + "\n", liberrors.KindInvalidInput},
		{"long build id", "build_id: " + strings.Repeat("f", 65) + "\n", liberrors.KindInvalidInput},
		{"negative capacity", "table_capacity: -1\n", liberrors.KindInvalidInput},
		{"bad level", "log_level: loud\n", liberrors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			var e *liberrors.Error
			if !errors.As(err, &e) || e.Kind != tt.kind {
				t.Errorf("err = %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libstate.yaml")
	if err := os.WriteFile(path, []byte("version: 1.2.3\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Version != "1.2.3" {
		t.Errorf("Version = %q", cfg.Version)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, liberrors.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}
