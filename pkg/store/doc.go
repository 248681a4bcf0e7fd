// Package store provides global and space-scoped signal definitions.
//
// Global signals are ordinary signals declared at package level and shared
// by everything in the process. Scoped signals are definitions: each Space
// resolves a definition to its own independent signal, so several ownership
// trees can run the same code against separate state.
//
// Usage:
//
//	var (
//		ServerStatus = store.GlobalSignal("online")
//		Cart         = store.ScopedSignal([]Item(nil))
//	)
//
//	ripple.CreateRoot(func(dispose func()) any {
//		store.NewSpace().Bind()
//		ripple.CreateEffect(func() {
//			render(Cart.Get(), ServerStatus.Get())
//		})
//		return nil
//	})
//
// Each root that binds its own Space sees its own Cart. ServerStatus is the
// same signal everywhere.
package store
