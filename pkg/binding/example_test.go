package binding_test

import (
	"fmt"

	"github.com/go-drift/bind/pkg/binding"
	"github.com/go-drift/bind/pkg/convert"
	"github.com/go-drift/bind/pkg/observable"
)

type Account struct {
	observable.Notifier
	owner   observable.Field[string]
	balance observable.Field[int]
}

var (
	accountOwner = binding.Member[*Account, string]{
		Name: "Owner",
		Get:  func(a *Account) string { return a.owner.Get() },
		Set: func(a *Account, v string) error {
			_, err := a.owner.Set(&a.Notifier, v, "Owner")
			return err
		},
	}
	accountBalance = binding.Member[*Account, int]{
		Name: "Balance",
		Get:  func(a *Account) int { return a.balance.Get() },
		Set: func(a *Account, v int) error {
			_, err := a.balance.Set(&a.Notifier, v, "Balance")
			return err
		},
	}
)

// This example binds a text property to a model member in both directions.
func ExampleNew() {
	account := &Account{}
	account.owner.Set(&account.Notifier, "Alice", "Owner")

	text := observable.NewValue("")
	b, err := binding.New(text, account, accountOwner, binding.Options[string, string]{})
	if err != nil {
		panic(err)
	}
	defer b.Dispose()

	if err := b.Bind(); err != nil {
		panic(err)
	}
	fmt.Println("text:", text.Value())

	text.Set("Bob")
	fmt.Println("owner:", account.owner.Get())

	// Output:
	// text: Alice
	// owner: Bob
}

// This example uses a converter to edit an int member through a string
// property, and a Manager to dispose the bindings together.
func ExampleManager() {
	m := binding.NewManager()
	defer m.Dispose()

	account := &Account{}
	balance := observable.NewValue("")
	_, err := binding.Bind(m, balance, account, accountBalance, binding.Options[string, int]{
		Converter: convert.Int(),
	})
	if err != nil {
		panic(err)
	}

	if err := balance.Set("250"); err != nil {
		panic(err)
	}
	fmt.Println("balance:", account.balance.Get())

	if err := balance.Set("lots"); err != nil {
		fmt.Println("error:", err)
	}

	account.balance.Set(&account.Notifier, 100, "Balance")
	fmt.Println("text:", balance.Value())

	// Output:
	// balance: 250
	// error: binding.updateSource [update] member=Balance: cannot convert "lots" to int
	// text: 100
}
