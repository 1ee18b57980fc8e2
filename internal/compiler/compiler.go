// Package compiler turns the authored dataset into the full set of
// compound documents and calendar feeds for one rolling window.
package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trailcal/internal/calendar"
	"trailcal/internal/catalog"
	"trailcal/internal/config"
	"trailcal/internal/jsonapi"
	appLog "trailcal/internal/log"
	"trailcal/internal/model"
	"trailcal/internal/recurrence"
)

// Options control one compile.
type Options struct {
	// APIPrefix prefixes every relationship link, e.g. "/api".
	APIPrefix string
	// Location decides the civil date of now.
	Location *time.Location
	// Workers bounds concurrent document assembly. Zero means one.
	Workers int
	// Strict fails the compile on any malformed run or broken document.
	// Otherwise those are dropped and reported in Output.
	Strict bool
	// ICS enables calendar feed output.
	ICS bool
	// EventDuration is the length of timed ICS events.
	EventDuration time.Duration
}

// OptionsFromConfig maps the application config onto compile options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		APIPrefix:     cfg.APIPrefix,
		Location:      cfg.Location(),
		Workers:       cfg.Workers,
		Strict:        cfg.StrictMode(),
		ICS:           cfg.ICSEnabled(),
		EventDuration: cfg.EventDuration(),
	}
}

// Output is everything one compile produced, keyed by output path.
type Output struct {
	Window recurrence.Window

	Documents map[string]*jsonapi.Document
	Feeds     map[string][]byte

	// Skipped lists single-year occurrences that could not be resolved.
	Skipped []error
	// Failed holds runs dropped for a malformed recurrence (non-strict only).
	Failed map[string]error
	// Dropped holds output paths that could not be built (non-strict only).
	Dropped map[string]error
}

// Files serializes every document and feed, keyed by relative path.
func (o *Output) Files() (map[string][]byte, error) {
	files := make(map[string][]byte, len(o.Documents)+len(o.Feeds))
	for path, doc := range o.Documents {
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", path, err)
		}
		files[path] = b
	}
	for path, feed := range o.Feeds {
		files[path] = feed
	}
	return files, nil
}

// Compile expands every run inside the window anchored on now and builds
// all output documents. The dataset is not modified.
func Compile(ctx context.Context, ds *model.Dataset, now time.Time, opts Options) (*Output, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	w := recurrence.NewWindow(now.In(opts.Location))
	appLog.Info("compile started",
		"window_start", calendar.Format(w.Start),
		"window_end", calendar.Format(w.End),
		"runs", len(ds.Runs),
	)

	cat, err := catalog.Build(ds.Runs, w)
	if err != nil && opts.Strict {
		return nil, fmt.Errorf("compile: %w", err)
	}

	out := &Output{
		Window:  w,
		Skipped: cat.Skipped,
		Failed:  cat.Failed,
		Dropped: make(map[string]error),
	}
	for _, skipped := range cat.Skipped {
		appLog.Info("occurrence skipped", "reason", skipped.Error())
	}

	runs := make(map[string]model.Run, len(ds.Runs))
	for id, r := range ds.Runs {
		if ferr, failed := cat.Failed[id]; failed {
			appLog.Error("run dropped", ferr, "run", id)
			continue
		}
		runs[id] = r
	}

	var b buckets
	for _, start := range calendar.WeekStarts {
		weeks, err := cat.Weeks(start, runs)
		if err != nil {
			return nil, fmt.Errorf("compile: %w", err)
		}
		b.weeks = append(b.weeks, weeks...)
	}
	if b.months, err = cat.Months(runs); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	l := links{prefix: opts.APIPrefix}
	g, err := buildGraph(ds, runs, cat, b, l)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	appLog.Debug("graph built",
		"organizations", g.Len(jsonapi.KindOrganization),
		"users", g.Len(jsonapi.KindUser),
		"locations", g.Len(jsonapi.KindLocation),
		"runs", g.Len(jsonapi.KindRun),
		"occurrences", g.Len(jsonapi.KindOccurrence),
	)

	p := &plan{
		graph:   g,
		dataset: ds,
		runs:    runs,
		catalog: cat,
		buckets: b,
		opts:    opts,
		stamp:   now.UTC(),
	}
	jobs := p.jobs()

	results, errs, err := execute(ctx, jobs, opts.Workers, opts.Strict)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out.Documents = make(map[string]*jsonapi.Document)
	out.Feeds = make(map[string][]byte)
	for i, j := range jobs {
		if err, failed := errs[j.path]; failed {
			appLog.Error("output dropped", err, "path", j.path)
			out.Dropped[j.path] = err
			continue
		}
		res := results[i]
		if res.doc != nil {
			out.Documents[j.path] = res.doc
		}
		if res.feed != nil {
			out.Feeds[j.path] = res.feed
		}
	}

	appLog.Info("compile finished",
		"documents", len(out.Documents),
		"feeds", len(out.Feeds),
		"skipped", len(out.Skipped),
		"failed_runs", len(out.Failed),
		"dropped", len(out.Dropped),
	)
	return out, nil
}
