package host

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/libstate"
	"github.com/wippyai/libstate/errors"
	"github.com/wippyai/libstate/resource"
	"github.com/wippyai/libstate/state"
)

// Host is the boundary between a host runtime and the binding. Each Load
// publishes one record under an opaque reference; the host threads that
// reference through every later call.
type Host struct {
	records resource.Typed[*state.Record]
	slot    *state.Slot
	log     *zap.Logger
	unsub   func()
	buildID string
}

// Option configures a Host.
type Option func(*options)

type options struct {
	slot     *state.Slot
	log      *zap.Logger
	buildID  string
	capacity int
}

// WithSlot sets the slot new records are bound from. Default state.Canonical.
func WithSlot(s *state.Slot) Option {
	return func(o *options) { o.slot = s }
}

// WithTableCapacity bounds how many records can be loaded at once.
func WithTableCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithBuildID overrides the build identifier reported by the library.
func WithBuildID(id string) Option {
	return func(o *options) { o.buildID = id }
}

// New creates a host boundary.
func New(opts ...Option) *Host {
	o := options{
		slot: state.Canonical,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	h := &Host{
		records: resource.NewTyped[*state.Record](resource.WithCapacity(o.capacity)),
		slot:    o.slot,
		log:     o.log,
		buildID: o.buildID,
	}
	h.unsub = h.records.Subscribe(resource.ObserverFunc(h.onEvent))
	return h
}

func (h *Host) onEvent(e resource.Event) {
	rec, _ := e.Value.(*state.Record)
	if rec == nil {
		return
	}
	h.log.Debug("record "+e.Type.String(),
		zap.Uint32("ref", uint32(e.Handle)),
		zap.Stringer("record", rec.ID()))
}

// Slot returns the slot records are bound from.
func (h *Host) Slot() *state.Slot {
	return h.slot
}

// Load initializes a record from the host's load argument and returns its
// opaque reference.
func (h *Host) Load(arg any) (resource.Handle, error) {
	rec, err := state.Initialize(arg, state.Env{Slot: h.slot, BuildID: h.buildID})
	if err != nil {
		h.log.Warn("load failed", zap.Error(err))
		return 0, err
	}

	ref, err := h.records.Insert(rec)
	if err != nil {
		rec.Destroy()
		h.log.Warn("load failed", zap.Error(err))
		return 0, err
	}

	h.log.Info("binding loaded",
		zap.Uint32("ref", uint32(ref)),
		zap.String("lib_version", rec.LibVersion()),
		zap.String("build_id", rec.BuildID()),
		zap.Uint16("binding_version", rec.BindingVersion()))

	return ref, nil
}

// Unload destroys the record behind ref. Callers must ensure no other
// goroutine still uses ref.
func (h *Host) Unload(ref resource.Handle) error {
	rec, ok := h.records.Remove(ref)
	if !ok {
		return errors.NotFound(errors.PhaseAccess, "reference", ref)
	}
	rec.Destroy()
	h.log.Info("binding unloaded", zap.Uint32("ref", uint32(ref)))
	return nil
}

// Record resolves ref.
func (h *Host) Record(ref resource.Handle) (*state.Record, error) {
	rec, ok := h.records.Get(ref)
	if !ok {
		return nil, errors.NotFound(errors.PhaseAccess, "reference", ref)
	}
	return rec, nil
}

// Len returns the number of loaded records.
func (h *Host) Len() int {
	return h.records.Len()
}

// LibVersion returns the library version text of ref.
func (h *Host) LibVersion(ref resource.Handle) (string, error) {
	rec, err := h.Record(ref)
	if err != nil {
		return "", err
	}
	return rec.LibVersion(), nil
}

// BindingVersion returns the binding revision of ref.
func (h *Host) BindingVersion(ref resource.Handle) (uint16, error) {
	rec, err := h.Record(ref)
	if err != nil {
		return 0, err
	}
	return rec.BindingVersion(), nil
}

// APIHandle returns the table bound to ref, or nil when unbound.
func (h *Host) APIHandle(ref resource.Handle) (libstate.APITable, error) {
	rec, err := h.Record(ref)
	if err != nil {
		return nil, err
	}
	return rec.APIHandle(), nil
}

// SetAPIHandle binds t to ref.
func (h *Host) SetAPIHandle(ref resource.Handle, t libstate.APITable) error {
	rec, err := h.Record(ref)
	if err != nil {
		return err
	}
	rec.SetAPIHandle(t)
	return nil
}

// CloseAPIHandle shuts down the table bound to ref. ref must be bound.
func (h *Host) CloseAPIHandle(ctx context.Context, ref resource.Handle) error {
	rec, err := h.Record(ref)
	if err != nil {
		return err
	}
	return rec.CloseAPIHandle(ctx)
}

// Reload swaps the library bound to ref for next. The current table, if
// any, is shut down, then next is stored in the record's slot and bound to
// the record, all under the record's lock. A shutdown failure is logged and
// does not stop the reload.
func (h *Host) Reload(ctx context.Context, ref resource.Handle, next libstate.APITable) error {
	if next == nil {
		return errors.InvalidInput(errors.PhaseReload, "nil library table")
	}

	rec, err := h.Record(ref)
	if err != nil {
		return err
	}

	if err := rec.Rebind(ctx, next); err != nil {
		h.log.Warn("previous library shutdown failed",
			zap.Uint32("ref", uint32(ref)),
			zap.Error(err))
	}

	h.log.Info("library reloaded", zap.Uint32("ref", uint32(ref)))
	return nil
}

// Close unloads every remaining record. Bound tables are left to their
// owner; Close does not shut them down.
func (h *Host) Close() error {
	for _, ref := range h.records.Handles() {
		if err := h.Unload(ref); err != nil {
			return err
		}
	}
	h.unsub()
	return h.records.Close()
}
