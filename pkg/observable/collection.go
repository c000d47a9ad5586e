package observable

import (
	"fmt"
	"slices"
	"sync"
)

// ListAction describes an item-level edit of a List.
type ListAction int

const (
	ListAdd ListAction = iota
	ListRemove
	ListReplace
	ListReset
)

func (a ListAction) String() string {
	switch a {
	case ListAdd:
		return "add"
	case ListRemove:
		return "remove"
	case ListReplace:
		return "replace"
	case ListReset:
		return "reset"
	default:
		return "unknown"
	}
}

// ListChange describes one edit. Index is the position of the first affected
// item, Items the added, removed or replacing items.
type ListChange[T any] struct {
	Action ListAction
	Index  int
	Items  []T
}

// List is a thread-safe ordered sequence that reports item-level edits.
type List[T any] struct {
	mu        sync.Mutex
	items     []T
	listeners listenerList[func(ListChange[T]) error]
}

// NewList creates a list holding a copy of items.
func NewList[T any](items ...T) *List[T] {
	return &List[T]{items: slices.Clone(items)}
}

// Items returns a copy of the current items.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Append adds items at the end.
func (l *List[T]) Append(items ...T) error {
	if len(items) == 0 {
		return nil
	}
	l.mu.Lock()
	index := len(l.items)
	l.items = append(l.items, items...)
	return l.unlockAndNotify(ListChange[T]{Action: ListAdd, Index: index, Items: slices.Clone(items)})
}

// RemoveAt removes the item at index.
func (l *List[T]) RemoveAt(index int) error {
	l.mu.Lock()
	if index < 0 || index >= len(l.items) {
		n := len(l.items)
		l.mu.Unlock()
		return fmt.Errorf("observable: index %d out of range [0,%d)", index, n)
	}
	removed := l.items[index]
	l.items = slices.Delete(l.items, index, index+1)
	return l.unlockAndNotify(ListChange[T]{Action: ListRemove, Index: index, Items: []T{removed}})
}

// Replace overwrites the item at index.
func (l *List[T]) Replace(index int, item T) error {
	l.mu.Lock()
	if index < 0 || index >= len(l.items) {
		n := len(l.items)
		l.mu.Unlock()
		return fmt.Errorf("observable: index %d out of range [0,%d)", index, n)
	}
	l.items[index] = item
	return l.unlockAndNotify(ListChange[T]{Action: ListReplace, Index: index, Items: []T{item}})
}

// Clear removes every item.
func (l *List[T]) Clear() error {
	l.mu.Lock()
	l.items = nil
	return l.unlockAndNotify(ListChange[T]{Action: ListReset})
}

// AddListener registers fn for item-level edits.
func (l *List[T]) AddListener(fn func(ListChange[T]) error) func() {
	if fn == nil {
		return func() {}
	}
	l.mu.Lock()
	id := l.listeners.add(fn)
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.listeners.remove(id)
			l.mu.Unlock()
		})
	}
}

// unlockAndNotify must be called with l.mu held.
func (l *List[T]) unlockAndNotify(change ListChange[T]) error {
	entries := l.listeners.snapshot()
	l.mu.Unlock()
	return notifyAll(entries, func(fn func(ListChange[T]) error) error { return fn(change) })
}

// Collection is a bindable property whose value is a *List. The stored list
// is never nil: assigning nil installs a fresh empty list. Replacing the list
// compares by reference. Item edits on the current list are forwarded to
// item listeners; edits on a list that has been replaced are not.
type Collection[T any] struct {
	mu            sync.Mutex
	list          *List[T]
	unhook        func()
	listeners     listenerList[func(*List[T]) error]
	itemListeners listenerList[func(ListChange[T]) error]
}

// NewCollection creates a Collection holding an empty list.
func NewCollection[T any]() *Collection[T] {
	c := &Collection[T]{}
	c.mu.Lock()
	c.hookLocked(NewList[T]())
	c.mu.Unlock()
	return c
}

// Value returns the current list. It is never nil.
func (c *Collection[T]) Value() *List[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list
}

// Set replaces the list and notifies listeners if the reference changed.
func (c *Collection[T]) Set(list *List[T]) error {
	_, err := c.SetValue(list, true)
	return err
}

// SetValue replaces the list if list is a different reference. A nil list
// becomes a new empty list.
func (c *Collection[T]) SetValue(list *List[T], emit bool) (bool, error) {
	c.mu.Lock()
	if list != nil && list == c.list {
		c.mu.Unlock()
		return false, nil
	}
	if list == nil {
		list = NewList[T]()
	}
	c.hookLocked(list)
	var entries []listenerEntry[func(*List[T]) error]
	if emit {
		entries = c.listeners.snapshot()
	}
	c.mu.Unlock()

	return true, notifyAll(entries, func(fn func(*List[T]) error) error { return fn(list) })
}

// InvokeChange notifies value listeners with the current list.
func (c *Collection[T]) InvokeChange() error {
	c.mu.Lock()
	list := c.list
	entries := c.listeners.snapshot()
	c.mu.Unlock()
	return notifyAll(entries, func(fn func(*List[T]) error) error { return fn(list) })
}

// AddListener registers fn for whole-list replacement.
func (c *Collection[T]) AddListener(fn func(*List[T]) error) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.listeners.add(fn)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.listeners.remove(id)
			c.mu.Unlock()
		})
	}
}

// AddItemListener registers fn for item edits on whichever list is current.
func (c *Collection[T]) AddItemListener(fn func(ListChange[T]) error) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.itemListeners.add(fn)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.itemListeners.remove(id)
			c.mu.Unlock()
		})
	}
}

// hookLocked must be called with c.mu held.
func (c *Collection[T]) hookLocked(list *List[T]) {
	if c.unhook != nil {
		c.unhook()
	}
	c.list = list
	c.unhook = list.AddListener(func(change ListChange[T]) error {
		c.mu.Lock()
		if c.list != list {
			c.mu.Unlock()
			return nil
		}
		entries := c.itemListeners.snapshot()
		c.mu.Unlock()
		return notifyAll(entries, func(fn func(ListChange[T]) error) error { return fn(change) })
	})
}
