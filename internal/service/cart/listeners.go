package cart

import "sync"

type listener struct {
	fn func()
}

type listeners struct {
	mu   sync.RWMutex
	list []*listener
}

func (l *listeners) add(fn func()) func() {
	entry := &listener{fn: fn}
	l.mu.Lock()
	l.list = append(l.list, entry)
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			for i, e := range l.list {
				if e == entry {
					l.list = append(l.list[:i:i], l.list[i+1:]...)
					return
				}
			}
		})
	}
}

// notify calls a snapshot of the registered listeners, so a listener may
// subscribe or unsubscribe without deadlocking.
func (l *listeners) notify() {
	l.mu.RLock()
	snapshot := make([]*listener, len(l.list))
	copy(snapshot, l.list)
	l.mu.RUnlock()

	for _, e := range snapshot {
		e.fn()
	}
}

func (l *listeners) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.list)
}
