package seeds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailcal/internal/model"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func seedTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, root, "organizations/001_bay-bandits.yaml", `
name: Bay Bandits
contacts: ["5"]
website: https://baybandits.example
`)
	writeFile(t, root, "organizations/001_bay-bandits.md", "# About\n\nWe run *early*.\n")
	writeFile(t, root, "organizations/010_late.yml", "name: Late\ncontacts: []\n")
	writeFile(t, root, "organizations/README.txt", "ignored")

	writeFile(t, root, "users/005_ada.yaml", "firstName: Ada\nlastName: L\nhasWhatsApp: true\n")
	writeFile(t, root, "locations/002_serpentine.yaml", `
name: Serpentine Prairie
lat: 37.79
lng: -122.16
address:
  street: Skyline Blvd
  city: Oakland
  state: CA
  zip: "94619"
`)

	writeFile(t, root, "runs/001_bay-bandits/runrise.yaml", `
title: RUNRISE
hosts: ["1"]
organizers: ["5"]
location: "2"
runs:
  - distance: 6-8 Mi
    vert: 1100-1600ft
    category: no-drop
    meetTime: "05:55"
    startTime: "06:00"
recurrence:
  frequency: weekly
  day: 4
  interval: 1
  weekNumber: null
  date: null
`)
	writeFile(t, root, "runs/001_bay-bandits/runrise.md", "Bring a **headlamp**.\n")
	writeFile(t, root, "runs/001_bay-bandits/002_solstice.yaml", `
title: Solstice
hosts: ["1"]
organizers: []
location: "2"
runs: []
recurrence:
  frequency: annually
  holiday: Winter Solstice
`)
	return root
}

func TestLoad(t *testing.T) {
	ds, err := Load(seedTree(t))
	require.NoError(t, err)

	require.Len(t, ds.Organizations, 2)
	org := ds.Organizations["1"]
	assert.Equal(t, "1", org.ID)
	assert.Equal(t, "Bay Bandits", org.Name)
	assert.Equal(t, []string{"5"}, org.Contacts)
	require.NotNil(t, org.DescriptionHTML)
	assert.Contains(t, *org.DescriptionHTML, `<h1 id="about">About</h1>`)
	assert.Contains(t, *org.DescriptionHTML, "<em>early</em>")
	assert.Contains(t, ds.Organizations, "10")
	assert.Nil(t, ds.Organizations["10"].DescriptionHTML)

	user := ds.Users["5"]
	assert.Equal(t, "Ada", user.FirstName)
	require.NotNil(t, user.HasWhatsApp)
	assert.True(t, *user.HasWhatsApp)

	loc := ds.Locations["2"]
	require.NotNil(t, loc.Lat)
	assert.InDelta(t, 37.79, *loc.Lat, 1e-9)
	assert.Equal(t, "94619", loc.Address.Zip)

	require.Len(t, ds.Runs, 2)
	run := ds.Runs["1-runrise"]
	assert.Equal(t, "1-runrise", run.ID)
	assert.Equal(t, "1", run.OrganizationID)
	assert.Equal(t, model.FrequencyWeekly, run.Recurrence.Frequency)
	require.NotNil(t, run.Recurrence.Day)
	assert.Equal(t, 4, *run.Recurrence.Day)
	assert.Nil(t, run.Recurrence.WeekNumber)
	assert.Nil(t, run.Recurrence.Date)
	require.Len(t, run.Options, 1)
	assert.Equal(t, "06:00", run.Options[0].StartTime)
	require.NotNil(t, run.DescriptionHTML)
	assert.Contains(t, *run.DescriptionHTML, "<strong>headlamp</strong>")

	solstice := ds.Runs["1-solstice"]
	require.NotNil(t, solstice.Recurrence.Holiday)
	assert.Equal(t, model.HolidayWinterSolstice, *solstice.Recurrence.Holiday)
}

func TestLoad_MissingDirectoriesAreEmpty(t *testing.T) {
	ds, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, ds.Organizations)
	assert.Empty(t, ds.Users)
	assert.Empty(t, ds.Locations)
	assert.Empty(t, ds.Runs)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("unnumbered record", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "users/ada.yaml", "firstName: Ada\n")
		_, err := Load(root)
		assert.ErrorIs(t, err, ErrFileName)
	})

	t.Run("duplicate id", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "users/005_ada.yaml", "firstName: Ada\n")
		writeFile(t, root, "users/05_bo.yaml", "firstName: Bo\n")
		_, err := Load(root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already used")
	})

	t.Run("unknown field", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "users/005_ada.yaml", "firstName: Ada\nfavouriteTrail: Dipsea\n")
		_, err := Load(root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "favouriteTrail")
	})

	t.Run("unnumbered organization directory", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "runs/bay-bandits/runrise.yaml", "title: x\n")
		_, err := Load(root)
		assert.ErrorIs(t, err, ErrFileName)
	})
}

func TestSplitName(t *testing.T) {
	id, slug, err := splitName("001_bay-bandits")
	require.NoError(t, err)
	assert.Equal(t, "1", id)
	assert.Equal(t, "bay-bandits", slug)

	_, _, err = splitName("bay-bandits")
	assert.ErrorIs(t, err, ErrFileName)
}
