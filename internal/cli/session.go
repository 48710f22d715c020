package cli

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/libstate/config"
	"github.com/wippyai/libstate/engine"
	"github.com/wippyai/libstate/host"
	"github.com/wippyai/libstate/resource"
	"github.com/wippyai/libstate/state"
)

// LoadFlags are the per-command overrides of the configuration file.
type LoadFlags struct {
	Library string
	Next    string
	Version string
	BuildID string
}

// session is one engine, one host and the record loaded into it.
type session struct {
	cfg    *config.Config
	log    *zap.Logger
	engine *engine.WazeroEngine
	host   *host.Host
	libs   []*engine.Library
	ref    resource.Handle
}

func resolveConfig(opts *RootOptions, flags LoadFlags) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return nil, err
		}
	}

	if flags.Library != "" {
		cfg.Library = flags.Library
	}
	if flags.Next != "" {
		cfg.Next = flags.Next
	}
	if flags.Version != "" {
		cfg.Version = flags.Version
	}
	if flags.BuildID != "" {
		cfg.BuildID = flags.BuildID
	}

	if cfg.Library == "" {
		return nil, fmt.Errorf("no library: set --lib or library in the config file")
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func openSession(ctx context.Context, opts *RootOptions, flags LoadFlags) (*session, error) {
	cfg, err := resolveConfig(opts, flags)
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg, opts.Verbose)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	state.SetLogger(log.Named("state"))
	engine.SetLogger(log.Named("engine"))

	eng, err := engine.NewWazeroEngineWithConfig(ctx, cfg.Engine())
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	s := &session{cfg: cfg, log: log, engine: eng}

	lib, err := s.openLibrary(ctx, cfg.Library)
	if err != nil {
		s.close(ctx)
		return nil, err
	}

	s.host = host.New(
		host.WithSlot(state.NewSlot(lib)),
		host.WithLogger(log),
		host.WithBuildID(cfg.BuildID),
		host.WithTableCapacity(cfg.TableCapacity),
	)

	s.ref, err = s.host.Load(cfg.Version)
	if err != nil {
		s.close(ctx)
		return nil, fmt.Errorf("load binding: %w", err)
	}
	return s, nil
}

func (s *session) openLibrary(ctx context.Context, path string) (*engine.Library, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library: %w", err)
	}
	lib, err := s.engine.Open(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s.libs = append(s.libs, lib)
	return lib, nil
}

// info snapshots the loaded record.
func (s *session) info() (*RecordInfo, error) {
	rec, err := s.host.Record(s.ref)
	if err != nil {
		return nil, err
	}

	info := &RecordInfo{
		Ref:            uint32(s.ref),
		Record:         rec.ID().String(),
		Tag:            rec.Tag().String(),
		LibVersion:     rec.LibVersion(),
		BuildID:        rec.BuildID(),
		BindingVersion: rec.BindingVersion(),
	}
	if v := rec.LibSemver(); v != nil {
		info.Semver = v.String()
	}
	if lib, ok := rec.APIHandle().(*engine.Library); ok {
		info.Bound = true
		info.LibraryBuildID = lib.BuildID()
		info.Exports = lib.Exports()
	}
	return info, nil
}

// close shuts down every library the session opened, then the host and
// the engine. Libraries already closed through the record are skipped.
func (s *session) close(ctx context.Context) {
	for _, lib := range s.libs {
		if lib.Module().IsClosed() {
			continue
		}
		if err := lib.Close(ctx); err != nil {
			s.log.Warn("library shutdown failed", zap.Error(err))
		}
	}

	if s.host != nil {
		if err := s.host.Close(); err != nil {
			s.log.Warn("host close failed", zap.Error(err))
		}
	}

	if err := s.engine.Close(ctx); err != nil {
		s.log.Warn("engine close failed", zap.Error(err))
	}
	_ = s.log.Sync()
}
