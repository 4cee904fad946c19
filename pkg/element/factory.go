package element

import "fmt"

// New builds an element from a type and a config map.
// "key" and "ref" entries are extracted, stringified and excluded from the
// resulting props. Every other entry is copied, so later changes to config
// do not leak into the element.
func New(t Type, config map[string]any) Element {
	el := Element{Type: t, Props: make(Props, len(config))}
	for name, val := range config {
		switch name {
		case "key":
			if val != nil {
				el.Key = KeyOf(fmt.Sprint(val))
			}
			continue
		case "ref":
			if val != nil {
				el.Ref = fmt.Sprint(val)
			}
			continue
		}
		el.Props[name] = val
	}
	return el
}

// H builds a host element. A single child is stored as-is, several children
// are stored as a []any list.
func H(tag string, props map[string]any, children ...any) Element {
	return New(Tag(tag), withChildren(props, children))
}

// C builds a component element.
func C(c *Component, props map[string]any, children ...any) Element {
	return New(c, withChildren(props, children))
}

func withChildren(props map[string]any, children []any) map[string]any {
	config := make(map[string]any, len(props)+1)
	for k, v := range props {
		config[k] = v
	}
	switch len(children) {
	case 0:
	case 1:
		config[ChildrenProp] = children[0]
	default:
		list := make([]any, len(children))
		copy(list, children)
		config[ChildrenProp] = list
	}
	return config
}

// Fragment renders its children without a host element of its own.
var Fragment = NewComponent("Fragment", func(props Props) any {
	return props.Children()
})
