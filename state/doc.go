// Package state implements the binding's versioned private state.
//
// A Record is built once per load of the binding by Initialize, published to
// the host through an opaque reference, and destroyed once at unload. Its
// shape is selected by a VersionTag so that newer binding revisions can add
// layouts while still reading records built by older ones. A tag this build
// does not know is read with the latest known layout.
//
// # Lifecycle
//
//	Unbound --SetAPIHandle--> Bound --CloseAPIHandle--> Unbound --> ... --> Destroyed
//
// The API handle is the only mutable part of a record. Every read and write
// of it takes the record's mutex, so racing SetAPIHandle calls resolve as
// last writer wins and readers never observe a partial value. Version text,
// build identifier and binding version are written before publication and
// are read without locking.
//
// # Reload
//
// Each record remembers the Slot it was bound from. Rebind shuts down the
// current table, stores the new one in that slot and binds it to the record,
// all under the record's lock:
//
//	if err := rec.Rebind(ctx, next); err != nil {
//	    log.Warn("previous library shutdown failed", zap.Error(err))
//	}
//
// # Preconditions
//
// CloseAPIHandle on an unbound record and any call after Destroy are caller
// bugs and panic. Destroy must not race with accessors.
package state
