/*
Package element defines the immutable descriptors the reconciler consumes.

An Element names what should exist (a host Tag or a *Component), an optional
Key for identity across renders, and its Props. Nested descriptors live in
the reserved "children" prop and may be an Element, a string or number (a
text node), or a list of those.

	view := element.H("ul", nil,
		element.H("li", map[string]any{"key": "a"}, "first"),
		element.H("li", map[string]any{"key": "b"}, "second"),
	)

Descriptors are produced fresh on every render and never mutated.
*/
package element
