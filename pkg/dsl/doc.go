/*
Package dsl builds element descriptors, either in Go with a fluent builder
or from declarative YAML/JSON documents.

Builder:

	tree := dsl.El("ul").Attr("class", "todo").Child(
		dsl.El("li").Key("a").Text("write"),
		dsl.El("li").Key("b").Text("test"),
	).Build()

Documents name host tags in lowercase and registered components in
UpperCase:

	type: ul
	props: {class: todo}
	children:
	  - {type: li, key: a, text: write}
	  - {type: Fragment, children: [tail, {type: hr}]}

	tree, err := dsl.Load(data, dsl.FormatYAML, registry.NewDefault())
*/
package dsl
