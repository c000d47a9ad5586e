package observable

import "errors"

// listenerList is an ordered set of callbacks keyed by registration id.
// It is not synchronised; owners guard it with their own mutex.
type listenerList[F any] struct {
	nextID  uint64
	entries []listenerEntry[F]
}

type listenerEntry[F any] struct {
	id uint64
	fn F
}

func (l *listenerList[F]) add(fn F) uint64 {
	l.nextID++
	l.entries = append(l.entries, listenerEntry[F]{id: l.nextID, fn: fn})
	return l.nextID
}

func (l *listenerList[F]) remove(id uint64) {
	for i, e := range l.entries {
		if e.id == id {
			// Copy on removal so snapshots taken earlier stay intact.
			entries := make([]listenerEntry[F], 0, len(l.entries)-1)
			entries = append(entries, l.entries[:i]...)
			l.entries = append(entries, l.entries[i+1:]...)
			return
		}
	}
}

// snapshot returns the current entries. The returned slice must not be
// mutated; add only appends and remove copies, so it stays valid after the
// owner's mutex is released.
func (l *listenerList[F]) snapshot() []listenerEntry[F] {
	return l.entries[:len(l.entries):len(l.entries)]
}

func (l *listenerList[F]) len() int {
	return len(l.entries)
}

// notifyAll calls each listener and joins the errors they return.
func notifyAll[F any](entries []listenerEntry[F], call func(F) error) error {
	var errs []error
	for _, e := range entries {
		if err := call(e.fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
