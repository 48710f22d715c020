package engine

import (
	"context"
	"errors"
	"testing"

	liberrors "github.com/wippyai/libstate/errors"
)

type libOpts struct {
	export  string
	buildID string
	params  int
	trap    bool
}

// libraryWasm assembles a core module exporting one no-op (or trapping)
// function, optionally carrying a build-id custom section.
func libraryWasm(opts libOpts) []byte {
	section := func(id byte, payload []byte) []byte {
		return append([]byte{id, byte(len(payload))}, payload...)
	}
	name := func(s string) []byte {
		return append([]byte{byte(len(s))}, s...)
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	typ := []byte{0x01, 0x60, byte(opts.params)}
	for i := 0; i < opts.params; i++ {
		typ = append(typ, 0x7f)
	}
	typ = append(typ, 0x00)
	out = append(out, section(1, typ)...)
	out = append(out, section(3, []byte{0x01, 0x00})...)

	exp := append([]byte{0x01}, name(opts.export)...)
	exp = append(exp, 0x00, 0x00)
	out = append(out, section(7, exp)...)

	body := []byte{0x00, 0x0b}
	if opts.trap {
		body = []byte{0x00, 0x00, 0x0b}
	}
	code := append([]byte{0x01, byte(len(body))}, body...)
	out = append(out, section(10, code)...)

	if opts.buildID != "" {
		out = append(out, section(0, append(name(BuildIDSection), opts.buildID...))...)
	}
	return out
}

func newEngine(t *testing.T, cfg *Config) *WazeroEngine {
	t.Helper()
	ctx := context.Background()
	eng, err := NewWazeroEngineWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("NewWazeroEngineWithConfig failed: %v", err)
	}
	t.Cleanup(func() { eng.Close(ctx) })
	return eng
}

func TestNewWazeroEngineWithConfig(t *testing.T) {
	tests := []struct {
		cfg      *Config
		name     string
		shutdown string
	}{
		{nil, "nil config", DefaultShutdownExport},
		{&Config{}, "default config", DefaultShutdownExport},
		{&Config{MemoryLimitPages: 256}, "16MB limit", DefaultShutdownExport},
		{&Config{ShutdownExport: "MsQuicClose"}, "custom shutdown", "MsQuicClose"},
		{&Config{EnableThreads: true}, "threads", DefaultShutdownExport},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng := newEngine(t, tc.cfg)
			if eng.Runtime() == nil {
				t.Error("engine runtime should not be nil")
			}
			if eng.ShutdownExport() != tc.shutdown {
				t.Errorf("ShutdownExport() = %q, want %q", eng.ShutdownExport(), tc.shutdown)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t, nil)

	lib, err := eng.Open(ctx, libraryWasm(libOpts{export: "shutdown", buildID: "abc123"}))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if lib.BuildID() != "abc123" {
		t.Errorf("BuildID() = %q, want abc123", lib.BuildID())
	}
	if exports := lib.Exports(); len(exports) != 1 || exports[0] != "shutdown" {
		t.Errorf("Exports() = %v", exports)
	}
	if lib.Module() == nil {
		t.Error("Module() should not be nil")
	}
	if eng.Opened() != 1 {
		t.Errorf("Opened() = %d, want 1", eng.Opened())
	}

	if err := lib.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !lib.Module().IsClosed() {
		t.Error("module should be closed after Close")
	}
	if err := lib.Close(ctx); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestOpen_ThreadsEnabled(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t, &Config{EnableThreads: true})

	lib, err := eng.Open(ctx, libraryWasm(libOpts{export: "shutdown", buildID: "mt"}))
	if err != nil {
		t.Fatalf("Open with threads enabled failed: %v", err)
	}
	if lib.BuildID() != "mt" {
		t.Errorf("BuildID() = %q, want mt", lib.BuildID())
	}
	if err := lib.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestOpen_TwoVersionsLive(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t, nil)

	a, err := eng.Open(ctx, libraryWasm(libOpts{export: "shutdown", buildID: "a"}))
	if err != nil {
		t.Fatal(err)
	}
	b, err := eng.Open(ctx, libraryWasm(libOpts{export: "shutdown", buildID: "b"}))
	if err != nil {
		t.Fatalf("second library should coexist: %v", err)
	}
	defer b.Close(ctx)

	if err := a.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if b.Module().IsClosed() {
		t.Error("closing one library must not close the other")
	}
}

func TestOpen_NoBuildID(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t, nil)

	lib, err := eng.Open(ctx, libraryWasm(libOpts{export: "shutdown"}))
	if err != nil {
		t.Fatal(err)
	}
	defer lib.Close(ctx)

	if lib.BuildID() != "" {
		t.Errorf("BuildID() = %q, want empty", lib.BuildID())
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		cfg  *Config
		name string
		kind liberrors.Kind
		wasm []byte
	}{
		{nil, "garbage", liberrors.KindInvalidData, []byte("not wasm")},
		{nil, "missing shutdown", liberrors.KindNotFound, libraryWasm(libOpts{export: "start"})},
		{nil, "shutdown with params", liberrors.KindInvalidInput, libraryWasm(libOpts{export: "shutdown", params: 1})},
		{&Config{ShutdownExport: "close"}, "custom export missing", liberrors.KindNotFound, libraryWasm(libOpts{export: "shutdown"})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng := newEngine(t, tc.cfg)
			lib, err := eng.Open(ctx, tc.wasm)
			if lib != nil {
				t.Error("no library should be returned on failure")
			}
			var e *liberrors.Error
			if !errors.As(err, &e) || e.Kind != tc.kind {
				t.Errorf("err = %v, want kind %s", err, tc.kind)
			}
			if eng.Opened() != 0 {
				t.Error("failed Open should not count")
			}
		})
	}
}

func TestClose_ShutdownTrap(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t, nil)

	lib, err := eng.Open(ctx, libraryWasm(libOpts{export: "shutdown", trap: true}))
	if err != nil {
		t.Fatal(err)
	}

	err = lib.Close(ctx)
	if !errors.Is(err, liberrors.ErrShutdown) {
		t.Fatalf("err = %v, want shutdown error", err)
	}
	if !lib.Module().IsClosed() {
		t.Error("module should be released even when shutdown traps")
	}
	if again := lib.Close(ctx); again != err {
		t.Errorf("second Close = %v, want first result", again)
	}
}

func TestWrap_HostModule(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t, nil)

	calls := 0
	mod, err := eng.Runtime().NewHostModuleBuilder("fake-lib").
		NewFunctionBuilder().WithFunc(func(context.Context) { calls++ }).Export("shutdown").
		NewFunctionBuilder().WithFunc(func(context.Context) uint32 { return 7 }).Export("version").
		Instantiate(ctx)
	if err != nil {
		t.Fatal(err)
	}

	lib, err := Wrap(mod, "")
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	if exports := lib.Exports(); len(exports) != 2 || exports[0] != "shutdown" || exports[1] != "version" {
		t.Errorf("Exports() = %v", exports)
	}

	if err := lib.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := lib.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("shutdown called %d times, want 1", calls)
	}
}

func TestWrap_MissingExport(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t, nil)

	mod, err := eng.Runtime().NewHostModuleBuilder("no-shutdown").
		NewFunctionBuilder().WithFunc(func(context.Context) {}).Export("init").
		Instantiate(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Wrap(mod, "shutdown"); !errors.Is(err, liberrors.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}
