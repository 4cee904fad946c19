package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Host primitive names, as recorded in the operation log.
const (
	OpCreateElement    = "createElement"
	OpCreateText       = "createText"
	OpAppendChild      = "appendChild"
	OpInsertBefore     = "insertBefore"
	OpRemoveChild      = "removeChild"
	OpSetTextContent   = "setTextContent"
	OpUpdateAttributes = "updateAttributes"
)

var (
	// ErrForeignNode is returned when a node does not belong to this host.
	ErrForeignNode = errors.New("node does not belong to this host")
	// ErrNotChild is returned when an anchor or removed node is not a child of the given parent.
	ErrNotChild = errors.New("node is not a child of parent")
	// ErrNotText is returned when text content is written to an element.
	ErrNotText = errors.New("node is not a text node")
)

// Node is a retained host node. Text nodes have an empty tag.
type Node struct {
	id       int
	tag      string
	text     string
	attrs    map[string]any
	parent   *Node
	children []*Node
}

// ID is the creation order of the node, unique per host.
func (n *Node) ID() int { return n.id }

// Tag returns the element tag, or "" for text nodes.
func (n *Node) Tag() string { return n.tag }

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.tag == "" }

// Text returns the content of a text node.
func (n *Node) Text() string { return n.text }

// Attr returns one attribute.
func (n *Node) Attr(name string) (any, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// Attrs returns a copy of the attributes.
func (n *Node) Attrs() map[string]any {
	out := make(map[string]any, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

func (n *Node) String() string {
	if n.IsText() {
		return fmt.Sprintf("#text(%q)", n.text)
	}
	return fmt.Sprintf("<%s#%d>", n.tag, n.id)
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *Node) detach() {
	if n.parent == nil {
		return
	}
	p := n.parent
	if i := p.indexOf(n); i >= 0 {
		p.children = append(p.children[:i], p.children[i+1:]...)
	}
	n.parent = nil
}

// Op is one recorded host call.
type Op struct {
	Name   string
	Target string
	Child  string
	Anchor string
}

func (o Op) String() string {
	switch {
	case o.Anchor != "":
		return fmt.Sprintf("%s(%s, %s, %s)", o.Name, o.Target, o.Child, o.Anchor)
	case o.Child != "":
		return fmt.Sprintf("%s(%s, %s)", o.Name, o.Target, o.Child)
	default:
		return fmt.Sprintf("%s(%s)", o.Name, o.Target)
	}
}

// Host is an in-memory host environment with DOM-like move semantics.
// It records every primitive call, which makes it the instrumented host of
// the reconciler tests. Safe for concurrent use.
type Host struct {
	mu     sync.Mutex
	nextID int
	ops    []Op
	calls  map[string]int
	failOn map[string]error
}

// NewHost creates an empty host.
func NewHost() *Host {
	return &Host{
		calls:  make(map[string]int),
		failOn: make(map[string]error),
	}
}

// NewContainer creates a detached container element.
// Container creation is not recorded.
func (h *Host) NewContainer() *Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.newNode("#root", "")
}

func (h *Host) newNode(tag, text string) *Node {
	h.nextID++
	return &Node{id: h.nextID, tag: tag, text: text, attrs: map[string]any{}}
}

// FailOn makes every later call of op return err. A nil err clears it.
func (h *Host) FailOn(op string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		delete(h.failOn, op)
		return
	}
	h.failOn[op] = err
}

// Calls returns how many times op was called since the last reset.
func (h *Host) Calls(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[op]
}

// TotalCalls returns the number of recorded calls of every primitive.
func (h *Host) TotalCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	total := 0
	for _, n := range h.calls {
		total += n
	}
	return total
}

// Ops returns the recorded calls in order.
func (h *Host) Ops() []Op {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Op(nil), h.ops...)
}

// Reset clears the operation log and the counters.
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = nil
	h.calls = make(map[string]int)
}

func (h *Host) record(op Op) error {
	h.calls[op.Name]++
	h.ops = append(h.ops, op)
	return h.failOn[op.Name]
}

func asNode(n ports.HostNode) (*Node, error) {
	node, ok := n.(*Node)
	if !ok || node == nil {
		return nil, fmt.Errorf("%w: %T", ErrForeignNode, n)
	}
	return node, nil
}

func label(n *Node) string {
	if n == nil {
		return ""
	}
	return n.String()
}

// CreateElement implements ports.Host.
func (h *Host) CreateElement(tag string, attrs map[string]any) (ports.HostNode, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record(Op{Name: OpCreateElement, Target: tag}); err != nil {
		return nil, err
	}
	n := h.newNode(tag, "")
	for k, v := range attrs {
		n.attrs[k] = v
	}
	return n, nil
}

// CreateText implements ports.Host.
func (h *Host) CreateText(content string) (ports.HostNode, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record(Op{Name: OpCreateText, Target: fmt.Sprintf("%q", content)}); err != nil {
		return nil, err
	}
	return h.newNode("", content), nil
}

// AppendChild implements ports.Host. An attached child is moved.
func (h *Host) AppendChild(parent, child ports.HostNode) error {
	p, err := asNode(parent)
	if err != nil {
		return err
	}
	c, err := asNode(child)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record(Op{Name: OpAppendChild, Target: label(p), Child: label(c)}); err != nil {
		return err
	}
	c.detach()
	p.children = append(p.children, c)
	c.parent = p
	return nil
}

// InsertBefore implements ports.Host.
func (h *Host) InsertBefore(parent, child, anchor ports.HostNode) error {
	p, err := asNode(parent)
	if err != nil {
		return err
	}
	c, err := asNode(child)
	if err != nil {
		return err
	}
	a, err := asNode(anchor)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record(Op{Name: OpInsertBefore, Target: label(p), Child: label(c), Anchor: label(a)}); err != nil {
		return err
	}
	if a.parent != p {
		return fmt.Errorf("insert before %s: %w", a, ErrNotChild)
	}
	if c == a {
		return nil
	}
	c.detach()
	i := p.indexOf(a)
	p.children = append(p.children, nil)
	copy(p.children[i+1:], p.children[i:])
	p.children[i] = c
	c.parent = p
	return nil
}

// RemoveChild implements ports.Host.
func (h *Host) RemoveChild(parent, child ports.HostNode) error {
	p, err := asNode(parent)
	if err != nil {
		return err
	}
	c, err := asNode(child)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record(Op{Name: OpRemoveChild, Target: label(p), Child: label(c)}); err != nil {
		return err
	}
	if c.parent != p {
		return fmt.Errorf("remove %s: %w", c, ErrNotChild)
	}
	c.detach()
	return nil
}

// SetTextContent implements ports.Host.
func (h *Host) SetTextContent(node ports.HostNode, content string) error {
	n, err := asNode(node)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record(Op{Name: OpSetTextContent, Target: label(n), Child: fmt.Sprintf("%q", content)}); err != nil {
		return err
	}
	if !n.IsText() {
		return fmt.Errorf("set text on %s: %w", n, ErrNotText)
	}
	n.text = content
	return nil
}

// UpdateAttributes implements ports.AttributeUpdater.
func (h *Host) UpdateAttributes(node ports.HostNode, patch domain.AttrPatch) error {
	n, err := asNode(node)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record(Op{Name: OpUpdateAttributes, Target: label(n)}); err != nil {
		return err
	}
	for k, v := range patch.Set {
		n.attrs[k] = v
	}
	for _, k := range patch.Removed {
		delete(n.attrs, k)
	}
	return nil
}

// Children implements ports.HostInspector.
func (h *Host) Children(node ports.HostNode) []ports.HostNode {
	n, err := asNode(node)
	if err != nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ports.HostNode, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// TextContent implements ports.HostInspector. For elements it concatenates
// the text of every descendant.
func (h *Host) TextContent(node ports.HostNode) string {
	n, err := asNode(node)
	if err != nil {
		return ""
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return textContent(n)
}

func textContent(n *Node) string {
	if n.IsText() {
		return n.text
	}
	var s string
	for _, c := range n.children {
		s += textContent(c)
	}
	return s
}

var (
	_ ports.Host             = (*Host)(nil)
	_ ports.AttributeUpdater = (*Host)(nil)
	_ ports.HostInspector    = (*Host)(nil)
)
