package state

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/coreos/go-semver/semver"
	"go.uber.org/zap"

	"github.com/wippyai/libstate"
	"github.com/wippyai/libstate/errors"
)

// Env is what the loading environment supplies besides the load argument.
type Env struct {
	// Slot holds the currently known library table. Nil means Canonical.
	Slot *Slot

	// BuildID overrides the build identifier reported by the table.
	BuildID string
}

// Initialize builds the record for one module load. arg is the host's load
// argument and must be bounded text: a string, []byte or []rune of valid
// UTF-8 without NUL bytes, at most MaxLibVersionLen bytes long.
//
// On success the record is bound to the slot's current table, which may be
// nil. On failure no record is returned.
func Initialize(arg any, env Env) (*Record, error) {
	r := Construct(LatestTag)

	version, err := boundedText(arg, MaxLibVersionLen)
	if err != nil {
		r.Destroy()
		return nil, err
	}

	slot := env.Slot
	if slot == nil {
		slot = Canonical
	}
	table := slot.Load()

	buildID := env.BuildID
	if buildID == "" {
		if bi, ok := table.(libstate.BuildIdentifier); ok {
			buildID = bi.BuildID()
		}
	}
	if len(buildID) > MaxBuildIDLen {
		r.Destroy()
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Value(buildID).
			Detail("build id length %d exceeds %d", len(buildID), MaxBuildIDLen).
			Build()
	}

	switch l := r.layout.(type) {
	case *layoutV0:
		l.libVersion = version
		l.buildID = buildID
		if v, err := semver.NewVersion(version); err == nil {
			l.semver = v
		}
		l.api = table
		l.slot = slot
	}

	Logger().Debug("initialized record",
		zap.Stringer("record", r.id),
		zap.Stringer("tag", r.tag),
		zap.String("lib_version", version),
		zap.String("build_id", buildID),
		zap.Bool("bound", table != nil))

	return r, nil
}

func boundedText(arg any, maxLen int) (string, error) {
	var s string
	switch v := arg.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case []rune:
		var b strings.Builder
		for _, c := range v {
			if !utf8.ValidRune(c) {
				return "", errors.VersionStringInvalid(arg, fmt.Sprintf("invalid character %U", c))
			}
			b.WriteRune(c)
			if b.Len() > maxLen {
				return "", errors.VersionStringInvalid(arg, fmt.Sprintf("length exceeds %d", maxLen))
			}
		}
		s = b.String()
	default:
		return "", errors.VersionStringInvalid(arg, fmt.Sprintf("unsupported argument type %T", arg))
	}

	if len(s) > maxLen {
		return "", errors.VersionStringInvalid(arg, fmt.Sprintf("length %d exceeds %d", len(s), maxLen))
	}
	if !utf8.ValidString(s) {
		return "", errors.VersionStringInvalid(arg, "invalid UTF-8")
	}
	if strings.IndexByte(s, 0) >= 0 {
		return "", errors.VersionStringInvalid(arg, "contains NUL")
	}
	return s, nil
}
