package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/libstate/errors"
)

// Library is an instantiated foreign library. It implements
// libstate.APITable and libstate.BuildIdentifier.
type Library struct {
	closeErr     error
	module       api.Module
	compiled     wazero.CompiledModule
	shutdown     api.Function
	shutdownName string
	buildID      string
	exports      []string
	closeOnce    sync.Once
}

// Wrap binds an already instantiated module, such as a host module, as a
// library closed through the named shutdown export.
func Wrap(mod api.Module, shutdown string) (*Library, error) {
	if shutdown == "" {
		shutdown = DefaultShutdownExport
	}
	return wrap(mod, shutdown)
}

func wrap(mod api.Module, shutdown string) (*Library, error) {
	defs := mod.ExportedFunctionDefinitions()

	def, ok := defs[shutdown]
	if !ok {
		return nil, errors.NotFound(errors.PhaseEngine, "export", shutdown)
	}
	if n := len(def.ParamTypes()); n != 0 {
		return nil, errors.New(errors.PhaseEngine, errors.KindInvalidInput).
			Value(shutdown).
			Detail("export %q takes %d parameters, want 0", shutdown, n).
			Build()
	}

	exports := make([]string, 0, len(defs))
	for name := range defs {
		exports = append(exports, name)
	}
	sort.Strings(exports)

	return &Library{
		module:       mod,
		shutdown:     mod.ExportedFunction(shutdown),
		shutdownName: shutdown,
		exports:      exports,
	}, nil
}

// BuildID returns the library's build-id custom section, empty if absent.
func (l *Library) BuildID() string {
	return l.buildID
}

// Exports returns the sorted names of the library's exported functions.
func (l *Library) Exports() []string {
	out := make([]string, len(l.exports))
	copy(out, l.exports)
	return out
}

// Module returns the instantiated module.
func (l *Library) Module() api.Module {
	return l.module
}

// Close calls the shutdown export, then releases the module. Only the first
// call has any effect; later calls return its result.
func (l *Library) Close(ctx context.Context) error {
	l.closeOnce.Do(func() {
		if _, err := l.shutdown.Call(ctx); err != nil {
			l.closeErr = errors.Shutdown(l.shutdownName, err)
		}

		if err := l.module.Close(ctx); err != nil {
			Logger().Warn("failed to close library module", zap.Error(err))
			if l.closeErr == nil {
				l.closeErr = errors.New(errors.PhaseClose, errors.KindInvalidData).
					Detail("close module").
					Cause(err).
					Build()
			}
		}

		if l.compiled != nil {
			if err := l.compiled.Close(ctx); err != nil {
				Logger().Warn("failed to close compiled library", zap.Error(err))
			}
		}
	})
	return l.closeErr
}
