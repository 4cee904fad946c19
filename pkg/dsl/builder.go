package dsl

import (
	"github.com/aretw0/arbor/pkg/element"
)

// Builder provides a fluent API for constructing one element descriptor.
// Builders are single-use: Build snapshots the current state.
type Builder struct {
	typ      element.Type
	key      *string
	ref      string
	props    map[string]any
	children []any
}

// El starts a host element.
func El(tag string) *Builder {
	return &Builder{typ: element.Tag(tag), props: map[string]any{}}
}

// Comp starts a component element.
func Comp(c *element.Component) *Builder {
	return &Builder{typ: c, props: map[string]any{}}
}

// Key sets the identity of the element among its siblings.
func (b *Builder) Key(key string) *Builder {
	b.key = &key
	return b
}

// Ref sets the ref string carried by the descriptor.
func (b *Builder) Ref(ref string) *Builder {
	b.ref = ref
	return b
}

// Attr sets one attribute (or component prop).
func (b *Builder) Attr(name string, value any) *Builder {
	b.props[name] = value
	return b
}

// Attrs merges several attributes.
func (b *Builder) Attrs(attrs map[string]any) *Builder {
	for k, v := range attrs {
		b.props[k] = v
	}
	return b
}

// On attaches an event handler attribute such as "onClick".
// Handlers are compared by code pointer between renders.
func (b *Builder) On(event string, handler func()) *Builder {
	b.props["on"+event] = handler
	return b
}

// Child appends children. Nested builders are built on the spot.
func (b *Builder) Child(children ...any) *Builder {
	for _, c := range children {
		if nested, ok := c.(*Builder); ok {
			c = nested.Build()
		}
		b.children = append(b.children, c)
	}
	return b
}

// Text appends a text child.
func (b *Builder) Text(content string) *Builder {
	b.children = append(b.children, content)
	return b
}

// Build returns the element descriptor.
func (b *Builder) Build() element.Element {
	config := make(map[string]any, len(b.props)+3)
	for k, v := range b.props {
		config[k] = v
	}
	if b.key != nil {
		config["key"] = *b.key
	}
	if b.ref != "" {
		config["ref"] = b.ref
	}
	switch len(b.children) {
	case 0:
	case 1:
		config[element.ChildrenProp] = b.children[0]
	default:
		config[element.ChildrenProp] = append([]any(nil), b.children...)
	}
	return element.New(b.typ, config)
}
