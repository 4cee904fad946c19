package memory

import (
	"fmt"
	"html"
	"reflect"
	"sort"
	"strings"
)

// void elements never get a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// HTML serializes the children of a container, or the node itself for any
// other node. Function attributes (event handlers) are not serialized;
// boolean attributes are rendered bare when true and omitted when false.
func (h *Host) HTML(n *Node) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var b strings.Builder
	if n.tag == "#root" {
		for _, c := range n.children {
			writeHTML(&b, c)
		}
		return b.String()
	}
	writeHTML(&b, n)
	return b.String()
}

func writeHTML(b *strings.Builder, n *Node) {
	if n.IsText() {
		b.WriteString(html.EscapeString(n.text))
		return
	}

	b.WriteByte('<')
	b.WriteString(n.tag)
	names := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		writeAttr(b, k, n.attrs[k])
	}
	b.WriteByte('>')

	if voidElements[n.tag] {
		return
	}
	for _, c := range n.children {
		writeHTML(b, c)
	}
	b.WriteString("</")
	b.WriteString(n.tag)
	b.WriteByte('>')
}

func writeAttr(b *strings.Builder, name string, v any) {
	if v == nil || reflect.ValueOf(v).Kind() == reflect.Func {
		return
	}
	if flag, ok := v.(bool); ok {
		if flag {
			b.WriteByte(' ')
			b.WriteString(html.EscapeString(name))
		}
		return
	}
	fmt.Fprintf(b, ` %s="%s"`, html.EscapeString(name), html.EscapeString(fmt.Sprint(v)))
}
