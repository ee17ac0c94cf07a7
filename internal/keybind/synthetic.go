package keybind

import "time"

// HeldSnapshot builds a snapshot reporting exactly the given keys as held.
// Native hook/tap adapters derive the same shape from OS notifications.
func HeldSnapshot(observer ObserverID, at time.Time, keys ...Key) Snapshot {
	held := make(map[Key]bool, len(keys))
	for _, key := range keys {
		held[key] = true
	}
	return Snapshot{Observer: observer, Held: held, At: at}
}

// SyntheticPress reports the full combo held from both observers. Used by the
// control socket in environments without native hooks and by scripted tests.
func (r *Reconciler) SyntheticPress(at time.Time) {
	r.Observe(HeldSnapshot(ObserverHook, at, r.combo.Keys...))
	r.Observe(HeldSnapshot(ObserverTap, at, r.combo.Keys...))
}

// SyntheticRelease reports all combo keys up from both observers.
func (r *Reconciler) SyntheticRelease(at time.Time) {
	r.Observe(Snapshot{Observer: ObserverHook, Held: map[Key]bool{}, At: at})
	r.Observe(Snapshot{Observer: ObserverTap, Held: map[Key]bool{}, At: at})
}
