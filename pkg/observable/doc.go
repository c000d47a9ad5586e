// Package observable provides the change-notifying building blocks that
// bindings connect.
//
// Value is a single typed cell. Writes are equality gated: listeners run only
// when the stored value actually changes, unless the caller forces a
// notification with InvokeChange.
//
//	name := observable.NewValue("")
//	remove := name.AddListener(func(v string) error {
//	    fmt.Println("name is now", v)
//	    return nil
//	})
//	defer remove()
//	name.Set("Ada")
//
// Notifier is the model-side counterpart: embed it in a view-model and
// announce member changes by name. SetField combines the compare, store and
// announce steps:
//
//	type person struct {
//	    observable.Notifier
//	    name string
//	}
//
//	func (p *person) SetName(v string) error {
//	    _, err := observable.SetField(&p.Notifier, &p.name, v, "Name")
//	    return err
//	}
//
// Collection is a Value specialised for ordered sequences; its slice is
// never nil and item-level edits are reported separately from replacing the
// whole collection.
//
// # Concurrency
//
// Value, Notifier and Collection guard their state with a per-instance mutex.
// Listeners are always invoked after the mutex is released, so a listener may
// read or write the value that notified it.
//
// # Errors
//
// Listeners return an error. Every listener runs; the errors they return are
// joined and handed back to the caller of the mutating method. This is how a
// failed binding update reaches the code that triggered it.
package observable
