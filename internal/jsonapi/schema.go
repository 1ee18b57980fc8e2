// Package jsonapi holds the relational resource graph and assembles
// compound documents from it.
package jsonapi

// Kind is a resource type name as it appears on the wire.
type Kind string

const (
	KindOrganization Kind = "organization"
	KindUser         Kind = "user"
	KindLocation     Kind = "location"
	KindRun          Kind = "trail-run"
	KindOccurrence   Kind = "realized-event-date"
	KindWeek         Kind = "week"
	KindMonth        Kind = "month"
)

// Relation is a relationship name.
type Relation string

const (
	RelContacts    Relation = "contacts"
	RelRuns        Relation = "runs"
	RelLocation    Relation = "location"
	RelHosts       Relation = "hosts"
	RelOrganizers  Relation = "organizers"
	RelOwner       Relation = "owner"
	RelOccurrences Relation = "occurrences"
	RelEvent       Relation = "event"
	RelEvents      Relation = "events"
)

// Edge describes where a relationship points.
type Edge struct {
	Target Kind
	Many   bool
}

// Schema is the closed set of relationships each kind may carry.
var Schema = map[Kind]map[Relation]Edge{
	KindOrganization: {
		RelContacts: {Target: KindUser, Many: true},
		RelRuns:     {Target: KindRun, Many: true},
	},
	KindUser:     {},
	KindLocation: {},
	KindRun: {
		RelLocation:    {Target: KindLocation},
		RelHosts:       {Target: KindOrganization, Many: true},
		RelOrganizers:  {Target: KindUser, Many: true},
		RelOwner:       {Target: KindOrganization},
		RelOccurrences: {Target: KindOccurrence, Many: true},
	},
	KindOccurrence: {
		RelEvent: {Target: KindRun},
	},
	KindWeek: {
		RelEvents: {Target: KindOccurrence, Many: true},
	},
	KindMonth: {
		RelEvents: {Target: KindOccurrence, Many: true},
	},
}

// Lookup returns the edge for rel on kind.
func Lookup(kind Kind, rel Relation) (Edge, bool) {
	rels, ok := Schema[kind]
	if !ok {
		return Edge{}, false
	}
	e, ok := rels[rel]
	return e, ok
}
