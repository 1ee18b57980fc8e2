package jsonapi

// Graph indexes resources by kind and id. It is filled once and then only
// read, so any number of goroutines may assemble documents from it.
type Graph struct {
	index map[Kind]map[string]*Resource
	order map[Kind][]string
}

func NewGraph() *Graph {
	return &Graph{
		index: make(map[Kind]map[string]*Resource),
		order: make(map[Kind][]string),
	}
}

// Add registers r after checking its relationships against Schema. Linked
// targets need not exist yet; they are resolved during assembly.
func (g *Graph) Add(r *Resource) error {
	rels, ok := Schema[r.Type]
	if !ok {
		return graphErr(r.Type, r.ID, "", ErrUnknownKind)
	}
	for name, rel := range r.Relationships {
		edge, ok := rels[name]
		if !ok {
			return graphErr(r.Type, r.ID, name, ErrUnknownRelationship)
		}
		if rel == nil || rel.Data == nil {
			continue
		}
		if rel.Data.Many() != edge.Many {
			return graphErrf(r.Type, r.ID, name, ErrLinkage, "to-many=%t, want %t", rel.Data.Many(), edge.Many)
		}
		for _, id := range rel.Data.Identifiers() {
			if id.Type != edge.Target {
				return graphErrf(r.Type, r.ID, name, ErrLinkage, "links %s, want %s", id, edge.Target)
			}
		}
	}

	byID, ok := g.index[r.Type]
	if !ok {
		byID = make(map[string]*Resource)
		g.index[r.Type] = byID
	}
	if _, dup := byID[r.ID]; dup {
		return graphErr(r.Type, r.ID, "", ErrDuplicate)
	}
	byID[r.ID] = r
	g.order[r.Type] = append(g.order[r.Type], r.ID)
	return nil
}

// Get looks up a resource.
func (g *Graph) Get(id Identifier) (*Resource, bool) {
	r, ok := g.index[id.Type][id.ID]
	return r, ok
}

// IDs returns the ids registered for kind, in insertion order.
func (g *Graph) IDs(kind Kind) []string {
	return append([]string(nil), g.order[kind]...)
}

// Len returns the number of resources of kind.
func (g *Graph) Len(kind Kind) int { return len(g.index[kind]) }
