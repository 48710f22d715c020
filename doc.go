// Package libstate holds process-wide state for a binding to a foreign
// library function table, and keeps that state consistent across hot
// reloads of the library.
//
// # Architecture Overview
//
//	libstate/            Root package with the APITable contract
//	├── state/           Versioned state record, load-time init, accessors
//	├── resource/        Opaque reference table handed to the host
//	├── host/            Host boundary: load, unload, reload
//	├── engine/          wazero-backed foreign libraries
//	├── config/          YAML configuration
//	└── errors/          Structured error types
//
// # Quick Start
//
//	eng, err := engine.NewWazeroEngine(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close(ctx)
//
//	lib, err := eng.Open(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	state.Canonical.Store(lib)
//
//	h := host.New()
//	ref, err := h.Load("1.2.3")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Unload(ref)
//
//	v, _ := h.LibVersion(ref) // "1.2.3"
//
// # Thread Safety
//
// Record accessors, Slot, the resource table and Host are safe for
// concurrent use. Record.Destroy and Host.Unload must be sequenced by the
// caller after every other user of the record has stopped.
package libstate
