package domain

import "time"

// WorkNodeInfo is a read-only view of one work node of a committed tree.
type WorkNodeInfo struct {
	ID     uint32 `json:"id"`
	Parent uint32 `json:"parent,omitempty"`
	Depth  int    `json:"depth"`
	Kind   Kind   `json:"kind"`
	Type   string `json:"type,omitempty"`
	Key    string `json:"key,omitempty"`
	Keyed  bool   `json:"keyed,omitempty"`
	Index  int    `json:"index"`
	Text   string `json:"text,omitempty"`
	Flags  Flags  `json:"flags,omitempty"` // pending effects; empty on a committed tree
}

// Snapshot is the persisted outcome of the last committed render of a session.
type Snapshot struct {
	SessionID string    `json:"session_id"`
	Revision  uint64    `json:"revision"`
	Document  []byte    `json:"document"` // descriptor document that produced HTML
	HTML      string    `json:"html"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Document = append([]byte(nil), s.Document...)
	return &c
}
