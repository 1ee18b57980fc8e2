package jsonapi

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var weekInclude = []string{
	"events",
	"events.event",
	"events.event.hosts",
	"events.event.organizers",
	"events.event.owner",
	"events.event.occurrences",
	"events.event.location",
	"events.event.owner.contacts",
}

var runInclude = []string{"hosts", "organizers", "owner", "occurrences", "location", "owner.contacts"}

func id(kind Kind, s string) Identifier { return Identifier{Type: kind, ID: s} }

func newFixtureGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	add := func(r *Resource) {
		require.NoError(t, g.Add(r))
	}

	for _, u := range []string{"5", "6", "7"} {
		add(&Resource{Type: KindUser, ID: u, Attributes: map[string]string{"firstName": "u" + u}})
	}
	add(&Resource{Type: KindLocation, ID: "2", Attributes: map[string]string{"name": "Serpentine"}})
	add(&Resource{
		Type: KindOrganization, ID: "1",
		Relationships: map[Relation]*Relationship{
			RelContacts: {Data: ToMany(id(KindUser, "5"))},
			RelRuns:     {Links: map[string]string{"related": "/api/organization/1/runs.json"}},
		},
	})
	add(&Resource{
		Type: KindOrganization, ID: "2",
		Relationships: map[Relation]*Relationship{
			RelContacts: {Data: ToMany(id(KindUser, "6"))},
			RelRuns:     {Links: map[string]string{"related": "/api/organization/2/runs.json"}},
		},
	})
	add(&Resource{
		Type: KindRun, ID: "1-runrise",
		Relationships: map[Relation]*Relationship{
			RelLocation:    {Data: ToOne(id(KindLocation, "2"))},
			RelHosts:       {Data: ToMany(id(KindOrganization, "1"), id(KindOrganization, "2"))},
			RelOrganizers:  {Data: ToMany(id(KindUser, "7"))},
			RelOwner:       {Data: ToOne(id(KindOrganization, "1"))},
			RelOccurrences: {Data: ToMany(id(KindOccurrence, "1-runrise-2026-01-08"))},
		},
	})
	add(&Resource{
		Type: KindOccurrence, ID: "1-runrise-2026-01-08",
		Relationships: map[Relation]*Relationship{
			RelEvent: {
				Data:  ToOne(id(KindRun, "1-runrise")),
				Links: map[string]string{"related": "/api/organization/1/runs/1-runrise.json"},
			},
		},
	})
	add(&Resource{
		Type: KindWeek, ID: "2026-02-sunday",
		Relationships: map[Relation]*Relationship{
			RelEvents: {Data: ToMany(id(KindOccurrence, "1-runrise-2026-01-08"))},
		},
	})
	return g
}

func identifiers(rs []*Resource) []Identifier {
	out := make([]Identifier, len(rs))
	for i, r := range rs {
		out[i] = r.Identifier()
	}
	return out
}

func findIncluded(t *testing.T, doc *Document, ident Identifier) *Resource {
	t.Helper()
	for _, r := range doc.Included {
		if r.Identifier() == ident {
			return r
		}
	}
	t.Fatalf("%s not included", ident)
	return nil
}

func TestAssemble_WeekOwnerOnly(t *testing.T) {
	g := newFixtureGraph(t)

	doc, err := g.AssembleOne(KindWeek, "2026-02-sunday", []string{"events.event.owner"})
	require.NoError(t, err)

	assert.Equal(t, []Identifier{
		id(KindOccurrence, "1-runrise-2026-01-08"),
		id(KindRun, "1-runrise"),
		id(KindOrganization, "1"),
	}, identifiers(doc.Included))

	run := findIncluded(t, doc, id(KindRun, "1-runrise"))
	assert.Len(t, run.Relationships, 1)
	require.Contains(t, run.Relationships, RelOwner)
	assert.Equal(t, []Identifier{id(KindOrganization, "1")}, run.Relationships[RelOwner].Data.Identifiers())
	for _, rel := range []Relation{RelHosts, RelOrganizers, RelOccurrences, RelLocation} {
		assert.NotContains(t, run.Relationships, rel)
	}

	org := findIncluded(t, doc, id(KindOrganization, "1"))
	assert.NotContains(t, org.Relationships, RelContacts)
	require.Contains(t, org.Relationships, RelRuns)
	assert.Nil(t, org.Relationships[RelRuns].Data)
	assert.Equal(t, "/api/organization/1/runs.json", org.Relationships[RelRuns].Links["related"])
}

func TestAssemble_WeekFullInclude(t *testing.T) {
	g := newFixtureGraph(t)

	doc, err := g.AssembleOne(KindWeek, "2026-02-sunday", weekInclude)
	require.NoError(t, err)

	assert.Equal(t, []Identifier{
		id(KindOccurrence, "1-runrise-2026-01-08"),
		id(KindRun, "1-runrise"),
		id(KindOrganization, "1"),
		id(KindOrganization, "2"),
		id(KindLocation, "2"),
		id(KindUser, "7"),
		id(KindUser, "5"),
		id(KindUser, "6"),
	}, identifiers(doc.Included))

	run := findIncluded(t, doc, id(KindRun, "1-runrise"))
	assert.Len(t, run.Relationships, 5)

	week, ok := doc.Data.(*Resource)
	require.True(t, ok)
	assert.Equal(t, KindWeek, week.Type)
}

func TestAssemble_IncludedNeverRepeatsOrContainsPrimary(t *testing.T) {
	g := newFixtureGraph(t)

	cases := []struct {
		kind    Kind
		ids     []string
		include []string
	}{
		{KindWeek, []string{"2026-02-sunday"}, weekInclude},
		{KindRun, []string{"1-runrise"}, runInclude},
		{KindOccurrence, []string{"1-runrise-2026-01-08"}, []string{"event", "event.occurrences", "event.occurrences.event"}},
		{KindOrganization, []string{"1", "2"}, []string{"contacts"}},
		{KindUser, []string{"5", "6", "7"}, nil},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			doc, err := g.AssembleMany(tc.kind, tc.ids, tc.include)
			require.NoError(t, err)

			primary := map[Identifier]bool{}
			for _, r := range doc.Data.([]*Resource) {
				primary[r.Identifier()] = true
			}
			seen := map[Identifier]bool{}
			for _, r := range doc.Included {
				assert.False(t, primary[r.Identifier()], "primary %s also included", r.Identifier())
				assert.False(t, seen[r.Identifier()], "%s included twice", r.Identifier())
				seen[r.Identifier()] = true
			}
		})
	}
}

func TestAssemble_RunDocument(t *testing.T) {
	g := newFixtureGraph(t)

	doc, err := g.AssembleMany(KindRun, []string{"1-runrise"}, runInclude)
	require.NoError(t, err)

	assert.Equal(t, []Identifier{
		id(KindOrganization, "1"),
		id(KindOrganization, "2"),
		id(KindLocation, "2"),
		id(KindOccurrence, "1-runrise-2026-01-08"),
		id(KindUser, "7"),
		id(KindUser, "5"),
		id(KindUser, "6"),
	}, identifiers(doc.Included))

	// The occurrence's event is not covered, so only its link survives.
	occ := findIncluded(t, doc, id(KindOccurrence, "1-runrise-2026-01-08"))
	require.Contains(t, occ.Relationships, RelEvent)
	assert.Nil(t, occ.Relationships[RelEvent].Data)
	assert.NotEmpty(t, occ.Relationships[RelEvent].Links["related"])
}

func TestAssemble_DoesNotModifyGraph(t *testing.T) {
	g := newFixtureGraph(t)

	_, err := g.AssembleOne(KindWeek, "2026-02-sunday", []string{"events.event.owner"})
	require.NoError(t, err)

	run, ok := g.Get(id(KindRun, "1-runrise"))
	require.True(t, ok)
	assert.Len(t, run.Relationships, 5)
	assert.NotNil(t, run.Relationships[RelHosts].Data)

	again, err := g.AssembleOne(KindWeek, "2026-02-sunday", weekInclude)
	require.NoError(t, err)
	assert.Len(t, again.Included, 8)
}

func TestAssemble_Deterministic(t *testing.T) {
	g := newFixtureGraph(t)

	first, err := g.AssembleOne(KindWeek, "2026-02-sunday", weekInclude)
	require.NoError(t, err)
	a, err := json.Marshal(first)
	require.NoError(t, err)

	for range 5 {
		next, err := g.AssembleOne(KindWeek, "2026-02-sunday", weekInclude)
		require.NoError(t, err)
		b, err := json.Marshal(next)
		require.NoError(t, err)
		assert.JSONEq(t, string(a), string(b))
		assert.Equal(t, identifiers(first.Included), identifiers(next.Included))
	}
}

func TestAssemble_Errors(t *testing.T) {
	g := newFixtureGraph(t)

	t.Run("unknown relationship in path", func(t *testing.T) {
		_, err := g.AssembleOne(KindWeek, "2026-02-sunday", []string{"events.event.sponsors"})
		var ge *GraphError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, KindRun, ge.Type)
		assert.Equal(t, Relation("sponsors"), ge.Relationship)
		assert.ErrorIs(t, err, ErrUnknownRelationship)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := g.AssembleOne(KindWeek, "2026-02-sunday", []string{""})
		assert.ErrorIs(t, err, ErrEmptyPath)
	})

	t.Run("missing primary", func(t *testing.T) {
		_, err := g.AssembleOne(KindRun, "9-nope", nil)
		assert.True(t, IsGraphError(err))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("dangling reference", func(t *testing.T) {
		require.NoError(t, g.Add(&Resource{
			Type: KindRun, ID: "1-lost",
			Relationships: map[Relation]*Relationship{
				RelLocation: {Data: ToOne(id(KindLocation, "99"))},
			},
		}))
		_, err := g.AssembleOne(KindRun, "1-lost", []string{"location"})
		var ge *GraphError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, "1-lost", ge.ID)
		assert.Equal(t, RelLocation, ge.Relationship)
		assert.ErrorIs(t, err, ErrNotFound)

		// Not following the relationship leaves the dangling id unresolved.
		_, err = g.AssembleOne(KindRun, "1-lost", nil)
		assert.NoError(t, err)
	})
}

func TestGraphAdd_Validation(t *testing.T) {
	g := newFixtureGraph(t)

	err := g.Add(&Resource{Type: Kind("sponsor"), ID: "1"})
	assert.ErrorIs(t, err, ErrUnknownKind)

	err = g.Add(&Resource{Type: KindUser, ID: "5"})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = g.Add(&Resource{Type: KindUser, ID: "8", Relationships: map[Relation]*Relationship{
		RelContacts: {Data: ToMany()},
	}})
	assert.ErrorIs(t, err, ErrUnknownRelationship)

	err = g.Add(&Resource{Type: KindRun, ID: "1-x", Relationships: map[Relation]*Relationship{
		RelOwner: {Data: ToMany(id(KindOrganization, "1"))},
	}})
	assert.ErrorIs(t, err, ErrLinkage)

	err = g.Add(&Resource{Type: KindRun, ID: "1-y", Relationships: map[Relation]*Relationship{
		RelOwner: {Data: ToOne(id(KindUser, "5"))},
	}})
	assert.ErrorIs(t, err, ErrLinkage)
	assert.True(t, errors.Is(err, ErrLinkage))

	assert.Equal(t, []string{"5", "6", "7"}, g.IDs(KindUser))
	assert.Equal(t, 2, g.Len(KindOrganization))
}

func TestDocumentJSON(t *testing.T) {
	g := newFixtureGraph(t)

	empty, err := g.AssembleMany(KindRun, nil, runInclude)
	require.NoError(t, err)
	b, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, string(b))

	doc, err := g.AssembleOne(KindOrganization, "1", []string{"contacts"})
	require.NoError(t, err)
	b, err = json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"data": {
			"type": "organization",
			"id": "1",
			"attributes": null,
			"relationships": {
				"contacts": {"data": [{"type": "user", "id": "5"}]},
				"runs": {"links": {"related": "/api/organization/1/runs.json"}}
			}
		},
		"included": [
			{"type": "user", "id": "5", "attributes": {"firstName": "u5"}}
		]
	}`, string(b))

	var back struct {
		Data Resource `json:"data"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	contacts := back.Data.Relationships[RelContacts].Data
	assert.True(t, contacts.Many())
	assert.Equal(t, []Identifier{id(KindUser, "5")}, contacts.Identifiers())

	var one Linkage
	require.NoError(t, json.Unmarshal([]byte(`{"type":"location","id":"2"}`), &one))
	assert.False(t, one.Many())
	assert.Equal(t, []Identifier{id(KindLocation, "2")}, one.Identifiers())
}
