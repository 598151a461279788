package model

// Source is the chunk of text a fragment was extracted from, together with
// the metadata of its originating document.
type Source struct {
	ID       string                 `json:"id"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Fragment holds the nodes and relationships extracted from one chunk.
type Fragment struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
	Source        Source         `json:"source"`
}

// Items returns the fragment's nodes followed by its relationships, the
// order a bulk import expects.
func (f Fragment) Items() []Item {
	return items(f.Nodes, f.Relationships)
}

type Graph struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

func (g Graph) Items() []Item {
	return items(g.Nodes, g.Relationships)
}

// Node looks up a node by id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NormalizeNumbers fixes up every property map after a UseNumber decode.
func (g Graph) NormalizeNumbers() {
	for _, n := range g.Nodes {
		n.Properties.NormalizeNumbers()
	}
	for _, r := range g.Relationships {
		r.Properties.NormalizeNumbers()
		r.Source.Properties.NormalizeNumbers()
		r.Target.Properties.NormalizeNumbers()
	}
}

func (g Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

// Merge returns the union of g and other. A node of other with an id already
// in g updates it in place: properties are merged shallowly and the type is
// overwritten. Relationships collapse on (source, type, target) the same way.
// Relationship endpoints are re-resolved against the merged node set.
func (g Graph) Merge(other Graph) Graph {
	b := newGraphBuilder()
	b.add(g)
	b.add(other)
	return b.graph()
}

// MergeFragments folds fragments into one graph in order.
func MergeFragments(fragments ...Fragment) Graph {
	b := newGraphBuilder()
	for _, f := range fragments {
		b.add(Graph{Nodes: f.Nodes, Relationships: f.Relationships})
	}
	return b.graph()
}

type graphBuilder struct {
	nodeOrder []string
	nodes     map[string]Node
	relOrder  []RelationshipKey
	rels      map[RelationshipKey]Relationship
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{
		nodes: make(map[string]Node),
		rels:  make(map[RelationshipKey]Relationship),
	}
}

func (b *graphBuilder) add(g Graph) {
	for _, n := range g.Nodes {
		existing, ok := b.nodes[n.ID]
		if !ok {
			b.nodeOrder = append(b.nodeOrder, n.ID)
			b.nodes[n.ID] = Node{ID: n.ID, Type: n.Type, Properties: n.Properties.Clone()}
			continue
		}
		existing.Type = n.Type
		existing.Properties.Merge(n.Properties)
		b.nodes[n.ID] = existing
	}
	for _, r := range g.Relationships {
		key := r.Key()
		existing, ok := b.rels[key]
		if !ok {
			b.relOrder = append(b.relOrder, key)
			b.rels[key] = Relationship{
				Source:     r.Source,
				Target:     r.Target,
				Type:       r.Type,
				Properties: r.Properties.Clone(),
			}
			continue
		}
		existing.Properties.Merge(r.Properties)
		b.rels[key] = existing
	}
}

func (b *graphBuilder) graph() Graph {
	out := Graph{
		Nodes:         make([]Node, 0, len(b.nodeOrder)),
		Relationships: make([]Relationship, 0, len(b.relOrder)),
	}
	for _, id := range b.nodeOrder {
		out.Nodes = append(out.Nodes, b.nodes[id])
	}
	for _, key := range b.relOrder {
		r := b.rels[key]
		if n, ok := b.nodes[r.Source.ID]; ok {
			r.Source = n
		}
		if n, ok := b.nodes[r.Target.ID]; ok {
			r.Target = n
		}
		out.Relationships = append(out.Relationships, r)
	}
	return out
}

func items(nodes []Node, rels []Relationship) []Item {
	out := make([]Item, 0, len(nodes)+len(rels))
	for _, n := range nodes {
		out = append(out, n)
	}
	for _, r := range rels {
		out = append(out, r)
	}
	return out
}
