package model

// Relationship connects two nodes. Type is kept exactly as extracted, it is
// never case-normalized.
type Relationship struct {
	Source     Node       `json:"source"`
	Target     Node       `json:"target"`
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
}

func (Relationship) isItem() {}

// Key identifies a relationship for merging: source id, type, target id.
func (r Relationship) Key() RelationshipKey {
	return RelationshipKey{Source: r.Source.ID, Type: r.Type, Target: r.Target.ID}
}

type RelationshipKey struct {
	Source string
	Type   string
	Target string
}

// Item is either a Node or a Relationship. Bulk imports take an ordered
// slice of items; nodes should precede the relationships that use them.
type Item interface {
	isItem()
}
