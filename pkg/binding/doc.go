// Package binding keeps a view-side property and a model-side member
// synchronized.
//
// A binding connects a Property[T] (usually an *observable.Value[T]) to one
// member of a source object that implements observable.ChangeNotifier. The
// member is described by a typed accessor rather than looked up by
// reflection:
//
//	type Person struct {
//	    observable.Notifier
//	    name observable.Field[string]
//	}
//
//	var personName = binding.Member[*Person, string]{
//	    Name: "Name",
//	    Get:  func(p *Person) string { return p.name.Get() },
//	    Set: func(p *Person, v string) error {
//	        _, err := p.name.Set(&p.Notifier, v, "Name")
//	        return err
//	    },
//	}
//
//	text := observable.NewValue("")
//	b, err := binding.New(text, person, personName, binding.Options[string, string]{})
//	if err != nil {
//	    return err
//	}
//	err = b.Bind()
//
// # Modes
//
// TwoWay (the zero value) propagates in both directions. OneWay copies
// source changes to the property, OneWayToSource copies property changes to
// the source, and OneTime copies the source to the property once at Bind.
//
// # Conversion
//
// When the property and member types differ, Options.Converter maps between
// them; see package convert for the primitive string converters. Without a
// converter the types must be assignable in at least one direction.
//
// # Threading
//
// Updates run on the goroutine that changed the origin unless a
// dispatch.Dispatcher is configured, in which case every update is posted
// to it. Use a dispatch.Serial when several goroutines write to either
// endpoint.
//
// # Lifetime
//
// A Manager tracks bindings created through Bind and disposes them
// together.
package binding
