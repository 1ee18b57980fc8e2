package compiler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"trailcal/internal/catalog"
	"trailcal/internal/ics"
	"trailcal/internal/jsonapi"
	"trailcal/internal/model"
)

// Inclusion paths per document family.
var (
	OrganizationInclude = []string{"contacts"}

	RunInclude = []string{"hosts", "organizers", "owner", "occurrences", "location", "owner.contacts"}

	CalendarInclude = []string{
		"events",
		"events.event",
		"events.event.hosts",
		"events.event.organizers",
		"events.event.owner",
		"events.event.occurrences",
		"events.event.location",
		"events.event.owner.contacts",
	}
)

const uidDomain = "trailcal"

// plan holds the read-only state shared by every output job.
type plan struct {
	graph   *jsonapi.Graph
	dataset *model.Dataset
	runs    map[string]model.Run
	catalog *catalog.Catalog
	buckets buckets
	opts    Options
	stamp   time.Time
}

// job builds exactly one output file: a document or a feed.
type job struct {
	path string
	doc  func() (*jsonapi.Document, error)
	feed func() ([]byte, error)
}

type result struct {
	doc  *jsonapi.Document
	feed []byte
}

func (j job) build() (result, error) {
	if j.doc != nil {
		d, err := j.doc()
		return result{doc: d}, err
	}
	f, err := j.feed()
	return result{feed: f}, err
}

func (p *plan) one(kind jsonapi.Kind, id string, include []string) func() (*jsonapi.Document, error) {
	return func() (*jsonapi.Document, error) { return p.graph.AssembleOne(kind, id, include) }
}

func (p *plan) many(kind jsonapi.Kind, ids []string, include []string) func() (*jsonapi.Document, error) {
	return func() (*jsonapi.Document, error) { return p.graph.AssembleMany(kind, ids, include) }
}

// jobs lists every output path in a stable order.
func (p *plan) jobs() []job {
	var jobs []job

	orgIDs := p.graph.IDs(jsonapi.KindOrganization)
	jobs = append(jobs, job{path: "organization.json", doc: p.many(jsonapi.KindOrganization, orgIDs, OrganizationInclude)})

	for _, orgID := range orgIDs {
		runIDs := p.runsOf(orgID)
		jobs = append(jobs,
			job{path: fmt.Sprintf("organization/%s.json", orgID), doc: p.one(jsonapi.KindOrganization, orgID, OrganizationInclude)},
			job{path: fmt.Sprintf("organization/%s/runs.json", orgID), doc: p.many(jsonapi.KindRun, runIDs, RunInclude)},
		)
		for _, runID := range runIDs {
			jobs = append(jobs, job{
				path: fmt.Sprintf("organization/%s/runs/%s.json", orgID, runID),
				doc:  p.one(jsonapi.KindRun, runID, RunInclude),
			})
		}
		if p.opts.ICS {
			name := p.dataset.Organizations[orgID].Name
			jobs = append(jobs, job{
				path: fmt.Sprintf("organization/%s/calendar.ics", orgID),
				feed: func() ([]byte, error) { return p.feed(name, runIDs) },
			})
		}
	}

	for _, locID := range p.graph.IDs(jsonapi.KindLocation) {
		jobs = append(jobs, job{path: fmt.Sprintf("location/%s.json", locID), doc: p.one(jsonapi.KindLocation, locID, nil)})
	}

	for _, wk := range p.buckets.weeks {
		jobs = append(jobs, job{path: fmt.Sprintf("weeks/%s.json", wk.ID), doc: p.one(jsonapi.KindWeek, wk.ID, CalendarInclude)})
	}
	for _, m := range p.buckets.months {
		jobs = append(jobs, job{path: fmt.Sprintf("months/%s.json", m.ID), doc: p.one(jsonapi.KindMonth, m.ID, CalendarInclude)})
	}

	if p.opts.ICS {
		for _, runID := range sortedKeys(p.runs) {
			name := p.runs[runID].Title
			ids := []string{runID}
			jobs = append(jobs, job{
				path: fmt.Sprintf("calendar/%s.ics", runID),
				feed: func() ([]byte, error) { return p.feed(name, ids) },
			})
		}
	}

	return jobs
}

// runsOf returns the ids of the compiled runs owned by orgID.
func (p *plan) runsOf(orgID string) []string {
	ids := []string{}
	for id, run := range p.runs {
		if run.OrganizationID == orgID {
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	return ids
}

// feed renders the occurrences of runIDs as one calendar, ordered by date,
// then start time, then uid.
func (p *plan) feed(name string, runIDs []string) ([]byte, error) {
	var events []ics.Event
	for _, id := range runIDs {
		run := p.runs[id]
		for _, occ := range p.catalog.ForRun(id) {
			events = append(events, p.event(run, occ))
		}
	}
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.UID < b.UID
	})

	f := ics.Feed{
		Name:     name,
		Location: p.opts.Location,
		Duration: p.opts.EventDuration,
		Stamp:    p.stamp,
	}
	return f.Render(events)
}

func (p *plan) event(run model.Run, occ model.Occurrence) ics.Event {
	ev := ics.Event{
		UID:       occ.ID + "@" + uidDomain,
		Summary:   run.Title,
		Date:      occ.Date,
		StartTime: run.EarliestStartTime(),
	}
	if run.Description != nil {
		ev.Description = *run.Description
	}
	if run.EventLink != nil {
		ev.URL = *run.EventLink
	}
	if loc, ok := p.dataset.Locations[run.Location]; ok {
		ev.Location = place(loc)
		ev.Lat, ev.Lng = loc.Lat, loc.Lng
	}
	return ev
}

func place(loc model.Location) string {
	parts := []string{loc.Name}
	if a := loc.Address; a != nil {
		for _, s := range []string{a.Street, a.City, strings.TrimSpace(a.State + " " + a.Zip)} {
			if s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, ", ")
}

// execute runs jobs with at most workers in flight. Per-path failures are
// collected in the returned map; with failFast the first failure also
// cancels the remaining jobs and is returned as the error.
func execute(ctx context.Context, jobs []job, workers int, failFast bool) ([]result, map[string]error, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]result, len(jobs))
	errs := make(map[string]error)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(workers))

	for i, j := range jobs {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := j.build()
			if err != nil {
				mu.Lock()
				errs[j.path] = err
				mu.Unlock()
				if failFast {
					return fmt.Errorf("%s: %w", j.path, err)
				}
				return nil
			}
			results[i] = res
			return nil
		})
	}

	err := g.Wait()
	return results, errs, err
}
