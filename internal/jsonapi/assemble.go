package jsonapi

import (
	"strings"
)

// Coverage records, per kind, which relationships an inclusion set follows.
type Coverage map[Kind]map[Relation]bool

// ParseInclude resolves dotted inclusion paths rooted at kind. Every segment
// is checked against Schema; the result is flattened per kind, so a kind
// reached along several paths follows the union of their relationships.
func ParseInclude(root Kind, paths []string) (Coverage, error) {
	if _, ok := Schema[root]; !ok {
		return nil, graphErr(root, "", "", ErrUnknownKind)
	}
	cov := make(Coverage)
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			return nil, graphErr(root, "", "", ErrEmptyPath)
		}
		kind := root
		for _, seg := range strings.Split(path, ".") {
			rel := Relation(seg)
			edge, ok := Lookup(kind, rel)
			if !ok {
				return nil, graphErrf(kind, "", rel, ErrUnknownRelationship, "in path %q", path)
			}
			if cov[kind] == nil {
				cov[kind] = make(map[Relation]bool)
			}
			cov[kind][rel] = true
			kind = edge.Target
		}
	}
	return cov, nil
}

// AssembleOne builds a document whose primary data is a single resource.
func (g *Graph) AssembleOne(kind Kind, id string, include []string) (*Document, error) {
	data, included, err := g.assemble(kind, []string{id}, include)
	if err != nil {
		return nil, err
	}
	return &Document{Data: data[0], Included: included}, nil
}

// AssembleMany builds a document whose primary data is a list, in the
// order of ids. An empty ids list yields "data": [].
func (g *Graph) AssembleMany(kind Kind, ids []string, include []string) (*Document, error) {
	data, included, err := g.assemble(kind, ids, include)
	if err != nil {
		return nil, err
	}
	return &Document{Data: data, Included: included}, nil
}

// assemble walks outward from the primary resources, following covered
// relationships breadth first. The graph is never modified: every resource
// in the result is a pruned copy whose uncovered relationships keep only
// their links, or disappear when they have none.
func (g *Graph) assemble(kind Kind, ids []string, include []string) ([]*Resource, []*Resource, error) {
	cov, err := ParseInclude(kind, include)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[Identifier]bool, len(ids))
	primary := make([]*Resource, 0, len(ids))
	for _, id := range ids {
		ident := Identifier{Type: kind, ID: id}
		r, ok := g.Get(ident)
		if !ok {
			return nil, nil, graphErr(kind, id, "", ErrNotFound)
		}
		if seen[ident] {
			return nil, nil, graphErr(kind, id, "", ErrDuplicate)
		}
		seen[ident] = true
		primary = append(primary, r)
	}

	var included []*Resource
	queue := append([]*Resource(nil), primary...)
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		covered := cov[r.Type]
		for _, name := range r.relationNames() {
			rel := r.Relationships[name]
			if !covered[name] || rel == nil || rel.Data == nil {
				continue
			}
			for _, target := range rel.Data.Identifiers() {
				if seen[target] {
					continue
				}
				next, ok := g.Get(target)
				if !ok {
					return nil, nil, graphErrf(r.Type, r.ID, name, ErrNotFound, "%s", target)
				}
				seen[target] = true
				included = append(included, next)
				queue = append(queue, next)
			}
		}
	}

	for i, r := range primary {
		primary[i] = prune(r, cov[r.Type])
	}
	for i, r := range included {
		included[i] = prune(r, cov[r.Type])
	}
	return primary, included, nil
}

func prune(r *Resource, covered map[Relation]bool) *Resource {
	out := &Resource{Type: r.Type, ID: r.ID, Attributes: r.Attributes}
	for name, rel := range r.Relationships {
		if rel == nil {
			continue
		}
		kept := &Relationship{Links: rel.Links}
		if covered[name] {
			kept.Data = rel.Data
		}
		if kept.Data == nil && len(kept.Links) == 0 {
			continue
		}
		if out.Relationships == nil {
			out.Relationships = make(map[Relation]*Relationship)
		}
		out.Relationships[name] = kept
	}
	return out
}
