// Package switcher provides the per-device switch-state cache used by every
// switching and midpoint control adapter.
//
// The Cache records, per single connection-type flag:
//
//   - which inputs currently detect a source signal
//   - which input feeds each output (the routing assignment)
//   - which outputs each input feeds (derived reverse index)
//   - which outputs are actively transmitting (derived)
//
// Compound types passed to setters are decomposed into single flags before
// storage, so ganged and breakaway routing (audio and video switched
// independently) are handled the same way.
//
// # Notifications
//
// Every state change raises an Event to subscribed handlers. Unchanged
// writes raise nothing. Handlers run after all cache locks are released, so
// a handler may safely query or update the cache it was called from:
//
//	cache := switcher.NewCache()
//	unsubscribe := cache.Subscribe(func(ev switcher.Event) {
//	    if ev.Kind == switcher.EventRouteChanged {
//	        outputs := cache.GetOutputsForInput(ev.Input.Address(), ev.Type)
//	        _ = outputs
//	    }
//	})
//	defer unsubscribe()
//
//	cache.SetInputForOutput(5, switcher.SomeInput(3), connections.Video)
//
// # Thread Safety
//
// Each logical map has its own lock. SetInputForOutput runs three short
// critical sections in sequence (routes, transmission, reverse index) rather
// than one cache-wide transaction, so unrelated outputs never contend on a
// single lock.
package switcher
