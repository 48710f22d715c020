// Package host is the boundary a host runtime drives the binding through.
//
// Load runs load-time initialization and returns an opaque reference;
// Unload tears it down. Everything in between (version reads, handle swaps,
// hot reloads) addresses the record by that reference:
//
//	h := host.New(host.WithLogger(log))
//	defer h.Close()
//
//	ref, err := h.Load("1.2.3")
//	if err != nil {
//	    return err
//	}
//
//	next, err := eng.Open(ctx, newWasm)
//	if err != nil {
//	    return err
//	}
//	if err := h.Reload(ctx, ref, next); err != nil {
//	    return err
//	}
//
// Load is invoked once per module load and Unload once per unload; the host
// must not Unload a reference other goroutines still use.
package host
