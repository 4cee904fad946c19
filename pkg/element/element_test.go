package element_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/element"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ExtractsKeyAndRef(t *testing.T) {
	config := map[string]any{
		"key":   42,
		"ref":   "input",
		"class": "big",
	}
	el := element.New(element.Tag("div"), config)

	require.True(t, el.Key.IsSet())
	assert.Equal(t, "42", el.Key.String())
	assert.Equal(t, "input", el.Ref)
	assert.Equal(t, element.Props{"class": "big"}, el.Props)

	// The element owns its props.
	config["class"] = "small"
	assert.Equal(t, "big", el.Props["class"])
}

func TestNew_NilKeyIsPositional(t *testing.T) {
	el := element.New(element.Tag("p"), map[string]any{"key": nil})
	assert.False(t, el.Key.IsSet())
	assert.NotContains(t, el.Props, "key")
}

func TestH_Children(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		el := element.H("br", nil)
		assert.Nil(t, el.Children())
	})

	t.Run("single child kept as-is", func(t *testing.T) {
		el := element.H("p", nil, "hello")
		assert.Equal(t, "hello", el.Children())
	})

	t.Run("several children become a list", func(t *testing.T) {
		el := element.H("ul", nil, element.H("li", nil), "x")
		list, ok := el.Children().([]any)
		require.True(t, ok)
		assert.Len(t, list, 2)
	})
}

func TestProps_Attributes(t *testing.T) {
	p := element.Props{"id": "a", element.ChildrenProp: "x"}
	attrs := p.Attributes()
	assert.Equal(t, map[string]any{"id": "a"}, attrs)
	assert.Contains(t, p, element.ChildrenProp, "source props untouched")
}

func TestKeyEquality(t *testing.T) {
	assert.Equal(t, element.NoKey, element.Key{})
	assert.NotEqual(t, element.NoKey, element.KeyOf(""))
	assert.Equal(t, element.KeyOf("a"), element.KeyOf("a"))
}

func TestComponentIdentity(t *testing.T) {
	render := func(element.Props) any { return nil }
	a := element.NewComponent("A", render)
	b := element.NewComponent("A", render)

	var ta, tb element.Type = a, b
	assert.True(t, ta == element.Type(a))
	assert.False(t, ta == tb, "components compare by pointer")
	assert.Equal(t, "A", element.TypeName(ta))
	assert.Equal(t, "div", element.TypeName(element.Tag("div")))
}

func TestFragment(t *testing.T) {
	out := element.Fragment.Render(element.Props{element.ChildrenProp: []any{"a", "b"}})
	assert.Equal(t, []any{"a", "b"}, out)
}
