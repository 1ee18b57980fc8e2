package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"trailcal/internal/compiler"
	"trailcal/internal/config"
	"trailcal/internal/seeds"
	"trailcal/internal/store"
	"trailcal/internal/web"
)

// build loads the seed tree, compiles it against now and persists the
// result to c.OutputDir.
func build(ctx context.Context, c *config.Config, now time.Time) (*web.Snapshot, error) {
	ds, err := seeds.Load(c.SeedsDir)
	if err != nil {
		return nil, fmt.Errorf("load seeds: %w", err)
	}
	out, err := compiler.Compile(ctx, ds, now, compiler.OptionsFromConfig(c))
	if err != nil {
		return nil, err
	}
	files, err := out.Files()
	if err != nil {
		return nil, err
	}
	if err := store.Write(c.OutputDir, files); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}

	dropped := make([]string, 0, len(out.Dropped))
	for path := range out.Dropped {
		dropped = append(dropped, path)
	}
	sort.Strings(dropped)

	return &web.Snapshot{
		Files:       files,
		CompiledAt:  now,
		WindowStart: out.Window.Start.Format(time.DateOnly),
		WindowEnd:   out.Window.End.Format(time.DateOnly),
		Dropped:     dropped,
	}, nil
}

// parseNow accepts an RFC 3339 timestamp or a bare date, the latter read as
// midnight in loc.
func parseNow(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}
