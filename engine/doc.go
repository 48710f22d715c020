// Package engine loads foreign libraries as WebAssembly modules with wazero.
//
// A Library is the binding's function table: an instantiated module plus
// the export that shuts it down. It satisfies libstate.APITable, so it can
// be stored in a state.Slot and bound to records.
//
//	eng, err := engine.NewWazeroEngine(ctx)
//	if err != nil {
//	    return err
//	}
//	defer eng.Close(ctx)
//
//	lib, err := eng.Open(ctx, wasmBytes)
//	if err != nil {
//	    return err
//	}
//	defer lib.Close(ctx) // calls the "shutdown" export once
//
// # Library Contract
//
// A library module must export a function named by Config.ShutdownExport
// ("shutdown" by default) that takes no parameters. Open fails otherwise.
// An optional "build-id" custom section is reported by Library.BuildID.
//
// Libraries are instantiated anonymously, so several versions of the same
// library can be live at once during a hot reload.
//
// # Host Modules
//
// Wrap binds a module that is already instantiated, which lets a Go host
// module built with Runtime().NewHostModuleBuilder stand in for a library:
//
//	mod, _ := eng.Runtime().NewHostModuleBuilder("lib").
//	    NewFunctionBuilder().WithFunc(func(context.Context) {}).Export("shutdown").
//	    Instantiate(ctx)
//	lib, err := engine.Wrap(mod, "shutdown")
//
// # Thread Safety
//
// WazeroEngine and Library are safe for concurrent use. Library.Close runs
// the shutdown export at most once.
package engine
