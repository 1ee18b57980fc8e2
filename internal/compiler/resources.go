package compiler

import (
	"fmt"
	"sort"
	"strconv"

	"trailcal/internal/calendar"
	"trailcal/internal/catalog"
	"trailcal/internal/jsonapi"
	"trailcal/internal/model"
)

type organizationAttributes struct {
	Name            string  `json:"name"`
	Website         *string `json:"website"`
	StravaID        *string `json:"stravaId"`
	StravaHandle    *string `json:"stravaHandle"`
	MeetupID        *string `json:"meetupId"`
	InstagramHandle *string `json:"instagramHandle"`
	Email           *string `json:"email"`
	PhoneNumber     *string `json:"phoneNumber"`
	Description     *string `json:"description"`
	DescriptionHTML *string `json:"descriptionHtml"`
}

type userAttributes struct {
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Email           *string `json:"email"`
	PhoneNumber     *string `json:"phoneNumber"`
	HasWhatsApp     *bool   `json:"hasWhatsApp"`
	StravaID        *string `json:"stravaId"`
	InstagramHandle *string `json:"instagramHandle"`
	DescriptionHTML *string `json:"descriptionHtml"`
}

type locationAttributes struct {
	Name            string         `json:"name"`
	Lat             *float64       `json:"lat"`
	Lng             *float64       `json:"lng"`
	Region          *string        `json:"region"`
	Address         *model.Address `json:"address"`
	GoogleMapsLink  *string        `json:"googleMapsLink"`
	DescriptionHTML *string        `json:"descriptionHtml"`
}

type runAttributes struct {
	Title           string            `json:"title"`
	Description     *string           `json:"description"`
	DescriptionHTML *string           `json:"descriptionHtml"`
	Recurrence      model.Recurrence  `json:"recurrence"`
	EventLink       *string           `json:"eventLink"`
	StravaEventLink *string           `json:"stravaEventLink"`
	MeetupEventLink *string           `json:"meetupEventLink"`
	Runs            []model.RunOption `json:"runs"`
}

type occurrenceAttributes struct {
	Date             string `json:"date"`
	WeekNumberMonday int    `json:"weekNumberMonday"`
	WeekNumberSunday int    `json:"weekNumberSunday"`
}

type weekAttributes struct {
	Year       int                `json:"year"`
	WeekNumber int                `json:"weekNumber"`
	StartDay   calendar.WeekStart `json:"startDay"`
	StartDate  string             `json:"startDate"`
	EndDate    string             `json:"endDate"`
}

type monthAttributes struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// links builds URLs under the configured API prefix.
type links struct {
	prefix string
}

func (l links) organizationRuns(orgID string) string {
	return fmt.Sprintf("%s/organization/%s/runs.json", l.prefix, orgID)
}

func (l links) run(orgID, runID string) string {
	return fmt.Sprintf("%s/organization/%s/runs/%s.json", l.prefix, orgID, runID)
}

func identifiers(kind jsonapi.Kind, ids []string) []jsonapi.Identifier {
	out := make([]jsonapi.Identifier, len(ids))
	for i, id := range ids {
		out[i] = jsonapi.Identifier{Type: kind, ID: id}
	}
	return out
}

// buckets are the week and month groupings of one catalog.
type buckets struct {
	weeks  []*catalog.Week
	months []*catalog.Month
}

// buildGraph registers every resource of the compile into one graph. Only
// runs present in runs are included; failed runs have already been removed.
func buildGraph(ds *model.Dataset, runs map[string]model.Run, cat *catalog.Catalog, b buckets, l links) (*jsonapi.Graph, error) {
	g := jsonapi.NewGraph()

	for _, id := range sortedKeys(ds.Users) {
		u := ds.Users[id]
		err := g.Add(&jsonapi.Resource{
			Type: jsonapi.KindUser,
			ID:   id,
			Attributes: userAttributes{
				FirstName:       u.FirstName,
				LastName:        u.LastName,
				Email:           u.Email,
				PhoneNumber:     u.PhoneNumber,
				HasWhatsApp:     u.HasWhatsApp,
				StravaID:        u.StravaID,
				InstagramHandle: u.InstagramHandle,
				DescriptionHTML: u.DescriptionHTML,
			},
		})
		if err != nil {
			return nil, err
		}
	}

	for _, id := range sortedKeys(ds.Locations) {
		loc := ds.Locations[id]
		err := g.Add(&jsonapi.Resource{
			Type: jsonapi.KindLocation,
			ID:   id,
			Attributes: locationAttributes{
				Name:            loc.Name,
				Lat:             loc.Lat,
				Lng:             loc.Lng,
				Region:          loc.Region,
				Address:         loc.Address,
				GoogleMapsLink:  loc.GoogleMapsLink,
				DescriptionHTML: loc.DescriptionHTML,
			},
		})
		if err != nil {
			return nil, err
		}
	}

	for _, id := range sortedKeys(ds.Organizations) {
		org := ds.Organizations[id]
		err := g.Add(&jsonapi.Resource{
			Type: jsonapi.KindOrganization,
			ID:   id,
			Attributes: organizationAttributes{
				Name:            org.Name,
				Website:         org.Website,
				StravaID:        org.StravaID,
				StravaHandle:    org.StravaHandle,
				MeetupID:        org.MeetupID,
				InstagramHandle: org.InstagramHandle,
				Email:           org.Email,
				PhoneNumber:     org.PhoneNumber,
				Description:     org.Description,
				DescriptionHTML: org.DescriptionHTML,
			},
			Relationships: map[jsonapi.Relation]*jsonapi.Relationship{
				jsonapi.RelContacts: {Data: jsonapi.ToMany(identifiers(jsonapi.KindUser, org.Contacts)...)},
				jsonapi.RelRuns:     {Links: map[string]string{"related": l.organizationRuns(id)}},
			},
		})
		if err != nil {
			return nil, err
		}
	}

	for _, id := range sortedKeys(runs) {
		run := runs[id]
		occs := cat.ForRun(id)
		occIDs := make([]string, len(occs))
		for i, occ := range occs {
			occIDs[i] = occ.ID
		}
		err := g.Add(&jsonapi.Resource{
			Type: jsonapi.KindRun,
			ID:   id,
			Attributes: runAttributes{
				Title:           run.Title,
				Description:     run.Description,
				DescriptionHTML: run.DescriptionHTML,
				Recurrence:      run.Recurrence,
				EventLink:       run.EventLink,
				StravaEventLink: run.StravaEventLink,
				MeetupEventLink: run.MeetupEventLink,
				Runs:            run.Options,
			},
			Relationships: map[jsonapi.Relation]*jsonapi.Relationship{
				jsonapi.RelLocation:    {Data: jsonapi.ToOne(jsonapi.Identifier{Type: jsonapi.KindLocation, ID: run.Location})},
				jsonapi.RelHosts:       {Data: jsonapi.ToMany(identifiers(jsonapi.KindOrganization, run.Hosts)...)},
				jsonapi.RelOrganizers:  {Data: jsonapi.ToMany(identifiers(jsonapi.KindUser, run.Organizers)...)},
				jsonapi.RelOwner:       {Data: jsonapi.ToOne(jsonapi.Identifier{Type: jsonapi.KindOrganization, ID: run.OrganizationID})},
				jsonapi.RelOccurrences: {Data: jsonapi.ToMany(identifiers(jsonapi.KindOccurrence, occIDs)...)},
			},
		})
		if err != nil {
			return nil, err
		}

		for _, occ := range occs {
			err := g.Add(&jsonapi.Resource{
				Type: jsonapi.KindOccurrence,
				ID:   occ.ID,
				Attributes: occurrenceAttributes{
					Date:             calendar.Format(occ.Date),
					WeekNumberMonday: occ.WeekNumberMonday,
					WeekNumberSunday: occ.WeekNumberSunday,
				},
				Relationships: map[jsonapi.Relation]*jsonapi.Relationship{
					jsonapi.RelEvent: {
						Data:  jsonapi.ToOne(jsonapi.Identifier{Type: jsonapi.KindRun, ID: id}),
						Links: map[string]string{"related": l.run(run.OrganizationID, id)},
					},
				},
			})
			if err != nil {
				return nil, err
			}
		}
	}

	for _, wk := range b.weeks {
		err := g.Add(&jsonapi.Resource{
			Type: jsonapi.KindWeek,
			ID:   wk.ID,
			Attributes: weekAttributes{
				Year:       wk.Year,
				WeekNumber: wk.Number,
				StartDay:   wk.StartDay,
				StartDate:  calendar.Format(wk.StartDate),
				EndDate:    calendar.Format(wk.EndDate),
			},
			Relationships: map[jsonapi.Relation]*jsonapi.Relationship{
				jsonapi.RelEvents: {Data: jsonapi.ToMany(identifiers(jsonapi.KindOccurrence, wk.Events)...)},
			},
		})
		if err != nil {
			return nil, err
		}
	}

	for _, m := range b.months {
		err := g.Add(&jsonapi.Resource{
			Type:       jsonapi.KindMonth,
			ID:         m.ID,
			Attributes: monthAttributes{Year: m.Year, Month: int(m.Month)},
			Relationships: map[jsonapi.Relation]*jsonapi.Relationship{
				jsonapi.RelEvents: {Data: jsonapi.ToMany(identifiers(jsonapi.KindOccurrence, m.Events)...)},
			},
		})
		if err != nil {
			return nil, err
		}
	}

	return g, nil
}

// sortedKeys orders ids numerically when both sides are integers and
// lexically otherwise, so "2" sorts before "10".
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortIDs(keys)
	return keys
}

func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, aerr := strconv.Atoi(ids[i])
		b, berr := strconv.Atoi(ids[j])
		if aerr == nil && berr == nil && a != b {
			return a < b
		}
		return ids[i] < ids[j]
	})
}
