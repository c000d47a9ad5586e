package observable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_NeverNil(t *testing.T) {
	c := NewCollection[string]()
	require.NotNil(t, c.Value())

	changed, err := c.SetValue(nil, true)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, c.Value())
	assert.Zero(t, c.Value().Len())
}

func TestCollection_ReferenceEquality(t *testing.T) {
	c := NewCollection[int]()
	calls := 0
	c.AddListener(func(*List[int]) error {
		calls++
		return nil
	})

	list := NewList(1, 2)
	require.NoError(t, c.Set(list))
	require.NoError(t, c.Set(list))
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Set(NewList(1, 2)))
	assert.Equal(t, 2, calls, "same contents, different reference")
}

func TestCollection_ForwardsItemChangesOfCurrentList(t *testing.T) {
	c := NewCollection[string]()
	var changes []ListChange[string]
	c.AddItemListener(func(ch ListChange[string]) error {
		changes = append(changes, ch)
		return nil
	})

	old := c.Value()
	require.NoError(t, old.Append("a", "b"))

	next := NewList("x")
	require.NoError(t, c.Set(next))
	require.NoError(t, old.Append("ignored"))
	require.NoError(t, next.RemoveAt(0))

	require.Len(t, changes, 2)
	assert.Equal(t, ListAdd, changes[0].Action)
	assert.Equal(t, []string{"a", "b"}, changes[0].Items)
	assert.Equal(t, ListRemove, changes[1].Action)
	assert.Equal(t, []string{"x"}, changes[1].Items)
}

func TestList_Edits(t *testing.T) {
	l := NewList(1, 2, 3)
	var actions []ListAction
	l.AddListener(func(ch ListChange[int]) error {
		actions = append(actions, ch.Action)
		return nil
	})

	require.NoError(t, l.Replace(1, 20))
	require.NoError(t, l.RemoveAt(0))
	assert.Error(t, l.RemoveAt(5))
	assert.Error(t, l.Replace(-1, 0))
	assert.Equal(t, []int{20, 3}, l.Items())
	require.NoError(t, l.Clear())
	require.NoError(t, l.Append())

	assert.Equal(t, []ListAction{ListReplace, ListRemove, ListReset}, actions)
	assert.Zero(t, l.Len())
	assert.Equal(t, "reset", ListReset.String())
}
