package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/coreos/go-semver/semver"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/libstate"
)

const (
	// MaxLibVersionLen bounds the library version text in bytes.
	MaxLibVersionLen = 64

	// MaxBuildIDLen bounds the build identifier in bytes.
	MaxBuildIDLen = 64
)

// BindingVersion is the revision of this binding layer.
const BindingVersion uint16 = 1

// layout is the sealed set of record shapes, one type per VersionTag.
type layout interface {
	layoutTag() VersionTag
}

type layoutV0 struct {
	api            libstate.APITable
	slot           *Slot
	semver         *semver.Version
	libVersion     string
	buildID        string
	mu             sync.Mutex
	bindingVersion uint16
}

func (*layoutV0) layoutTag() VersionTag { return TagV0 }

// Record is the binding's private state for one load of the module.
//
// The tag, version text, build identifier and binding version are fixed
// before the record is published and are read without locking. The API
// handle and its slot are guarded by a per-record mutex.
type Record struct {
	layout layout
	id     uuid.UUID
	tag    VersionTag
}

// Construct allocates a zeroed record for tag. A tag this build does not
// know is given the latest known layout; the requested tag is still
// reported by Tag.
func Construct(tag VersionTag) *Record {
	r := &Record{
		id:     uuid.New(),
		tag:    tag,
		layout: newLayout(tag),
	}

	if !tag.Known() {
		Logger().Warn("unknown record tag, using latest layout",
			zap.Stringer("tag", tag),
			zap.Stringer("layout", r.layout.layoutTag()),
			zap.Stringer("record", r.id))
	}

	return r
}

func newLayout(tag VersionTag) layout {
	switch tag {
	case TagV0:
		return &layoutV0{bindingVersion: BindingVersion}
	default:
		return newLayout(LatestTag)
	}
}

// Destroy releases the record. It must not race with any accessor; once
// destroyed, every further call on the record panics except Tag and ID,
// which stay readable for logging.
func (r *Record) Destroy() {
	Logger().Debug("destroy record", zap.Stringer("record", r.id))
	r.layout = nil
}

// live returns the record's layout, panicking once the record is destroyed.
func (r *Record) live() layout {
	if r.layout == nil {
		panic(fmt.Sprintf("state: record %s used after Destroy", r.id))
	}
	return r.layout
}

// v0 returns the V0 view of the record. Every tag known today shares it.
func (r *Record) v0() *layoutV0 {
	switch l := r.live().(type) {
	case *layoutV0:
		return l
	default:
		panic(fmt.Sprintf("state: record %s has unhandled layout %T", r.id, l))
	}
}

// Tag returns the tag the record was constructed with.
func (r *Record) Tag() VersionTag {
	return r.tag
}

// Layout returns the tag of the layout actually used for dispatch.
func (r *Record) Layout() VersionTag {
	return r.live().layoutTag()
}

// ID identifies the record in logs.
func (r *Record) ID() uuid.UUID {
	return r.id
}

// LibVersion returns the library version text set at load time.
func (r *Record) LibVersion() string {
	return r.v0().libVersion
}

// LibSemver returns the library version parsed as a semantic version, or
// nil when the version text is not one.
func (r *Record) LibSemver() *semver.Version {
	v := r.v0().semver
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

// BuildID returns the library build identifier, empty when unknown.
func (r *Record) BuildID() string {
	return r.v0().buildID
}

// BindingVersion returns the binding revision the record was built by.
func (r *Record) BindingVersion() uint16 {
	return r.v0().bindingVersion
}

// APIHandle returns the bound table, or nil when unbound. The result is only
// valid until the next SetAPIHandle or CloseAPIHandle on this record;
// callers holding it across a blocking call must fetch it again.
func (r *Record) APIHandle() libstate.APITable {
	l := r.v0()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.api
}

// APIHandleSlot returns the slot holding the canonical table reference.
func (r *Record) APIHandleSlot() *Slot {
	l := r.v0()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slot
}

// Bound reports whether a table is currently bound.
func (r *Record) Bound() bool {
	return r.APIHandle() != nil
}

// SetAPIHandle replaces the bound table. The table is not validated.
func (r *Record) SetAPIHandle(t libstate.APITable) {
	l := r.v0()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.api = t
}

// CloseAPIHandle runs the bound library's shutdown and unbinds it.
// The record must be bound. The handle is cleared even when shutdown
// fails; the shutdown error is returned.
func (r *Record) CloseAPIHandle(ctx context.Context) error {
	l := r.v0()
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.api.Close(ctx)
	l.api = nil
	if err != nil {
		Logger().Warn("library shutdown failed",
			zap.Stringer("record", r.id),
			zap.Error(err))
	}
	return err
}

// Rebind shuts down the bound table, if any, stores next in the record's
// slot and binds it, all under one hold of the record's lock. Concurrent
// Rebind calls on the same record are serialized, so each table is shut
// down at most once. The handle is replaced even when shutdown fails; the
// shutdown error is returned.
func (r *Record) Rebind(ctx context.Context, next libstate.APITable) error {
	l := r.v0()
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	if l.api != nil {
		if err = l.api.Close(ctx); err != nil {
			Logger().Warn("library shutdown failed",
				zap.Stringer("record", r.id),
				zap.Error(err))
		}
	}

	if l.slot != nil {
		l.slot.Store(next)
	}
	l.api = next
	return err
}
