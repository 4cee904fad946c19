package dsl

import (
	"testing"

	"github.com/aretw0/arbor/pkg/element"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Element(t *testing.T) {
	el := El("ul").Attr("class", "todo").Key("list").Ref("r").Child(
		El("li").Key("a").Text("write"),
		El("li").Key("b").Text("test"),
	).Build()

	assert.Equal(t, element.Tag("ul"), el.Type)
	assert.Equal(t, element.KeyOf("list"), el.Key)
	assert.Equal(t, "r", el.Ref)
	assert.Equal(t, map[string]any{"class": "todo"}, el.Props.Attributes())

	children, ok := el.Children().([]any)
	require.True(t, ok)
	require.Len(t, children, 2)
	first := children[0].(element.Element)
	assert.Equal(t, element.KeyOf("a"), first.Key)
	assert.Equal(t, "write", first.Children())
}

func TestBuilder_SingleChildIsNotWrapped(t *testing.T) {
	el := El("p").Text("only").Build()
	assert.Equal(t, "only", el.Children())
}

func TestBuilder_NoKeyByDefault(t *testing.T) {
	el := El("p").Build()
	assert.False(t, el.Key.IsSet())
	assert.Nil(t, el.Children())
}

func TestBuilder_Component(t *testing.T) {
	card := element.NewComponent("Card", func(props element.Props) any { return props["title"] })
	el := Comp(card).Attrs(map[string]any{"title": "hi"}).Build()

	assert.Same(t, card, el.Type)
	assert.Equal(t, "hi", el.Props["title"])
}

func TestBuilder_On(t *testing.T) {
	clicked := false
	el := El("button").On("Click", func() { clicked = true }).Build()

	handler, ok := el.Props["onClick"].(func())
	require.True(t, ok)
	handler()
	assert.True(t, clicked)
}
