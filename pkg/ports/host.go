package ports

import "github.com/aretw0/arbor/pkg/domain"

// HostNode is an opaque handle to a node of the host environment
// (a DOM element, a text node, a terminal cell group...).
type HostNode any

// Host is the entire surface the reconciler needs from a host environment.
// Implementations are driven from a single goroutine per root.
type Host interface {
	// CreateElement materializes a detached element. attrs never contains children.
	CreateElement(tag string, attrs map[string]any) (HostNode, error)

	// CreateText materializes a detached text node.
	CreateText(content string) (HostNode, error)

	// AppendChild moves child to the end of parent's children.
	AppendChild(parent, child HostNode) error

	// InsertBefore moves child right before anchor, which must be a child of parent.
	InsertBefore(parent, child, anchor HostNode) error

	// RemoveChild detaches child (and implicitly its descendants) from parent.
	RemoveChild(parent, child HostNode) error

	// SetTextContent replaces the content of a text node.
	SetTextContent(node HostNode, content string) error
}

// AttributeUpdater is implemented by hosts that can patch the attributes of a
// live element. Hosts without it only receive attributes at creation time.
type AttributeUpdater interface {
	UpdateAttributes(node HostNode, patch domain.AttrPatch) error
}

// HostInspector reads back a host tree. It is only needed by the contract suite.
type HostInspector interface {
	Children(node HostNode) []HostNode
	TextContent(node HostNode) string
}
