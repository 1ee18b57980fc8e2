package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Identifier names one resource.
type Identifier struct {
	Type Kind   `json:"type"`
	ID   string `json:"id"`
}

func (i Identifier) String() string { return fmt.Sprintf("%s:%s", i.Type, i.ID) }

// Linkage is relationship data: either a single identifier (possibly null)
// or a list of them.
type Linkage struct {
	many bool
	ids  []Identifier
}

// ToOne links to a single resource.
func ToOne(id Identifier) *Linkage { return &Linkage{ids: []Identifier{id}} }

// ToMany links to a list of resources. An empty list still serializes as [].
func ToMany(ids ...Identifier) *Linkage {
	return &Linkage{many: true, ids: append([]Identifier{}, ids...)}
}

// Many reports whether the linkage is a list.
func (l *Linkage) Many() bool { return l.many }

// Identifiers returns the linked identifiers in order.
func (l *Linkage) Identifiers() []Identifier { return l.ids }

func (l *Linkage) MarshalJSON() ([]byte, error) {
	if l.many {
		return json.Marshal(l.ids)
	}
	if len(l.ids) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(l.ids[0])
}

// UnmarshalJSON lets tests and clients read documents back.
func (l *Linkage) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '[' {
		var many []Identifier
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return err
		}
		l.many, l.ids = true, many
		return nil
	}
	var one *Identifier
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	l.many, l.ids = false, nil
	if one != nil {
		l.ids = []Identifier{*one}
	}
	return nil
}

// Relationship carries linkage data, links, or both.
type Relationship struct {
	Data  *Linkage          `json:"data,omitempty"`
	Links map[string]string `json:"links,omitempty"`
}

// Resource is one typed record in the graph.
type Resource struct {
	Type          Kind                       `json:"type"`
	ID            string                     `json:"id"`
	Attributes    any                        `json:"attributes"`
	Relationships map[Relation]*Relationship `json:"relationships,omitempty"`
}

// Identifier returns the resource's identity.
func (r *Resource) Identifier() Identifier { return Identifier{Type: r.Type, ID: r.ID} }

// relationNames returns r's relationship names in sorted order so that
// traversal does not depend on map iteration.
func (r *Resource) relationNames() []Relation {
	names := make([]Relation, 0, len(r.Relationships))
	for name := range r.Relationships {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Document is a compound document.
type Document struct {
	Data     any         `json:"data"`
	Included []*Resource `json:"included,omitempty"`
}
