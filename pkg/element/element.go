package element

import "fmt"

const (
	// ChildrenProp is the reserved attribute holding nested descriptors.
	ChildrenProp = "children"
	// ContentProp holds the text of a text node.
	ContentProp = "content"
)

// Props maps attribute names to values.
type Props map[string]any

// Children returns the reserved children entry, or nil.
func (p Props) Children() any {
	if p == nil {
		return nil
	}
	return p[ChildrenProp]
}

// Content returns the text carried by a text node's props.
func (p Props) Content() string {
	if p == nil {
		return ""
	}
	s, _ := p[ContentProp].(string)
	return s
}

// Attributes returns a copy of p without the reserved children entry.
// This is what a host sees when it materializes an element.
func (p Props) Attributes() map[string]any {
	attrs := make(map[string]any, len(p))
	for k, v := range p {
		if k == ChildrenProp {
			continue
		}
		attrs[k] = v
	}
	return attrs
}

// Type identifies what an element renders into.
// It is either a Tag (host element) or a *Component.
type Type interface {
	typeName() string
}

// Tag is a host element tag such as "div".
type Tag string

func (t Tag) typeName() string { return string(t) }

// RenderFunc computes the children of a component from its props.
type RenderFunc func(props Props) any

// Component is a user-defined computation. Its pointer is its identity:
// two elements share a type only if they point to the same Component.
type Component struct {
	Name   string
	Render RenderFunc
}

// NewComponent declares a component. Declare components once (package level
// or registry) and reuse the pointer; a fresh pointer per render remounts.
func NewComponent(name string, render RenderFunc) *Component {
	return &Component{Name: name, Render: render}
}

func (c *Component) typeName() string {
	if c == nil {
		return "<nil>"
	}
	return c.Name
}

// TypeName returns a printable name for t.
func TypeName(t Type) string {
	if t == nil {
		return ""
	}
	return t.typeName()
}

// Key is an optional identity hint. The zero value is "no key".
type Key struct {
	value string
	set   bool
}

// NoKey is the positional identity.
var NoKey = Key{}

// KeyOf returns a set key.
func KeyOf(s string) Key {
	return Key{value: s, set: true}
}

// IsSet reports whether the key carries an explicit identity.
func (k Key) IsSet() bool { return k.set }

// String returns the key value, or "" when unset.
func (k Key) String() string { return k.value }

// Element is an immutable description of a desired node.
type Element struct {
	Type  Type
	Key   Key
	Ref   string
	Props Props
}

// Children is a shorthand for e.Props.Children().
func (e Element) Children() any {
	return e.Props.Children()
}

func (e Element) String() string {
	if e.Key.IsSet() {
		return fmt.Sprintf("<%s key=%q>", TypeName(e.Type), e.Key.String())
	}
	return fmt.Sprintf("<%s>", TypeName(e.Type))
}
