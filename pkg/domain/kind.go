package domain

// Kind discriminates the structural role of a work node.
type Kind uint8

const (
	// KindRoot is the node bound to the host container.
	KindRoot Kind = iota
	// KindHostElement materializes a host element such as <div>.
	KindHostElement
	// KindHostText materializes a host text node.
	KindHostText
	// KindComputation is a user component; it owns no host node.
	KindComputation

	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindHostElement:
		return "element"
	case KindHostText:
		return "text"
	case KindComputation:
		return "component"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return k < kindCount }

// IsHost reports whether nodes of this kind own a host node of their own.
func (k Kind) IsHost() bool {
	return k == KindHostElement || k == KindHostText
}
