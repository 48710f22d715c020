package engine

import (
	"context"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"go.uber.org/zap"

	"github.com/wippyai/libstate/errors"
)

// DefaultShutdownExport is the export called when a library is closed.
const DefaultShutdownExport = "shutdown"

// BuildIDSection is the custom section a library's build identifier is
// read from.
const BuildIDSection = "build-id"

// WazeroEngine compiles and instantiates foreign libraries with wazero.
type WazeroEngine struct {
	runtime  wazero.Runtime
	shutdown string
	opened   atomic.Int64
}

// Config holds configuration for engine creation
type Config struct {
	// ShutdownExport names the export every library must provide and that
	// Library.Close calls. Empty means DefaultShutdownExport.
	ShutdownExport string

	// MemoryLimitPages sets the maximum memory per library in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// EnableThreads enables the WebAssembly threads proposal (experimental).
	EnableThreads bool
}

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCustomSections(true)
	shutdown := DefaultShutdownExport

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.EnableThreads {
			runtimeCfg = runtimeCfg.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
		}
		if cfg.ShutdownExport != "" {
			shutdown = cfg.ShutdownExport
		}
	}

	return &WazeroEngine{
		runtime:  wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		shutdown: shutdown,
	}, nil
}

// Runtime exposes the underlying wazero runtime, e.g. for building host
// modules that stand in for a library.
func (e *WazeroEngine) Runtime() wazero.Runtime {
	return e.runtime
}

// ShutdownExport returns the export name libraries are closed through.
func (e *WazeroEngine) ShutdownExport() string {
	return e.shutdown
}

// Opened returns how many libraries this engine has opened.
func (e *WazeroEngine) Opened() int64 {
	return e.opened.Load()
}

// Open compiles and instantiates a library. The module must export the
// engine's shutdown function taking no parameters.
func (e *WazeroEngine) Open(ctx context.Context, wasm []byte) (*Library, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile library", err)
	}

	mod, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		if cerr := compiled.Close(ctx); cerr != nil {
			Logger().Warn("failed to close compiled module during cleanup", zap.Error(cerr))
		}
		return nil, errors.Load("instantiate library", err)
	}

	lib, err := wrap(mod, e.shutdown)
	if err != nil {
		if cerr := mod.Close(ctx); cerr != nil {
			Logger().Warn("failed to close module during cleanup", zap.Error(cerr))
		}
		if cerr := compiled.Close(ctx); cerr != nil {
			Logger().Warn("failed to close compiled module during cleanup", zap.Error(cerr))
		}
		return nil, err
	}
	lib.compiled = compiled
	lib.buildID = buildID(compiled)

	n := e.opened.Add(1)
	Logger().Debug("opened library",
		zap.Int64("seq", n),
		zap.String("build_id", lib.buildID),
		zap.Strings("exports", lib.exports))

	return lib, nil
}

// Close releases the runtime and every module still instantiated in it.
// Libraries closed this way do not run their shutdown export.
func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

func buildID(compiled wazero.CompiledModule) string {
	for _, s := range compiled.CustomSections() {
		if s.Name() == BuildIDSection {
			return string(s.Data())
		}
	}
	return ""
}
