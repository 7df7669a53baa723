package work

// Work is the unit every long-running loop consumes: Information carrying a
// value, or Stop. Stop travels on the same channel as Information so it keeps
// FIFO order with the items queued before it.
type Work[T any] struct {
	info T
	stop bool
}

// Information returns a Work carrying v
func Information[T any](v T) Work[T] {
	return Work[T]{info: v}
}

// Stop returns a Work that terminates the consuming loop
func Stop[T any]() Work[T] {
	return Work[T]{stop: true}
}

// IsStop returns it is a Stop or not
func (w Work[T]) IsStop() bool {
	return w.stop
}

// Info returns the carried value, false for Stop
func (w Work[T]) Info() (T, bool) {
	if w.stop {
		var zero T
		return zero, false
	}
	return w.info, true
}

// StopSignal is a bare shutdown request with no payload
type StopSignal struct{}

// FromStop converts a StopSignal into a Stop of any work type
func FromStop[T any](StopSignal) Work[T] {
	return Stop[T]()
}

// Map converts the value of an Information with fn and keeps Stop as Stop
func Map[T, U any](w Work[T], fn func(T) U) Work[U] {
	if w.stop {
		return Stop[U]()
	}
	return Information(fn(w.info))
}

// Recv receives the next Work. A closed channel is an implicit Stop.
func Recv[T any](ch <-chan Work[T]) Work[T] {
	w, ok := <-ch
	if !ok {
		return Stop[T]()
	}
	return w
}

// TryRecv receives a Work if one is ready without blocking
func TryRecv[T any](ch <-chan Work[T]) (Work[T], bool) {
	select {
	case w, ok := <-ch:
		if !ok {
			return Stop[T](), true
		}
		return w, true
	default:
		return Work[T]{}, false
	}
}

// Loop calls fn for every Information received from ch and returns at the first Stop
func Loop[T any](ch <-chan Work[T], fn func(T)) {
	for {
		w := Recv(ch)
		v, ok := w.Info()
		if !ok {
			return
		}
		fn(v)
	}
}
