// Package resource provides the opaque reference table the binding hands to
// its host.
//
// A Handle is a small integer naming one value; its identity is all the host
// ever sees. Handle 0 is never issued, so it can stand for "no reference".
//
//	table := resource.NewTable(resource.WithCapacity(8))
//
//	h, err := table.Insert(rec)
//	if err != nil {
//	    // table full or closed
//	}
//
//	v, ok := table.Get(h)
//	v, ok = table.Remove(h)
//
// Freed handles are reused, most recently freed first. Typed wraps a table
// with type-safe accessors.
//
// # Observers
//
//	unsubscribe := table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("handle %d %s", e.Handle, e.Type)
//	}))
//	defer unsubscribe()
//
// Observers run synchronously and must not call back into the table.
package resource
