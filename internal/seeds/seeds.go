// Package seeds loads the authored dataset from its file tree:
//
//	organizations/NNN_slug.yaml   (+ optional NNN_slug.md)
//	users/NNN_slug.yaml
//	locations/NNN_slug.yaml
//	runs/NNN_org-slug/slug.yaml
//
// The numeric prefix becomes the record id ("001_bay-bandits" -> "1"). A
// run's id is "{organizationId}-{slug}". An optional markdown file next to
// a record is rendered to HTML and attached as its descriptionHtml.
package seeds

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"

	appLog "trailcal/internal/log"
	"trailcal/internal/model"
)

const (
	dirOrganizations = "organizations"
	dirUsers         = "users"
	dirLocations     = "locations"
	dirRuns          = "runs"
)

var (
	numbered = regexp.MustCompile(`^(\d+)_(.+)$`)

	// ErrFileName is returned for a seed whose name lacks the NNN_ prefix.
	ErrFileName = errors.New("invalid seed file name")
)

// Loader reads seed trees. It is safe for concurrent use.
type Loader struct {
	md goldmark.Markdown
}

// NewLoader returns a Loader whose markdown renderer allows raw HTML, adds
// heading ids, and enables the GitHub extensions and typographic quotes.
func NewLoader() *Loader {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
		goldmark.WithParserOptions(parser.WithAutoHeadingID(), parser.WithAttribute()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Loader{md: md}
}

// Load is NewLoader().Load(dir).
func Load(dir string) (*model.Dataset, error) {
	return NewLoader().Load(dir)
}

// Load reads the whole tree rooted at dir. A missing top-level directory
// yields an empty collection; any unreadable or malformed file fails.
func (l *Loader) Load(dir string) (*model.Dataset, error) {
	ds := &model.Dataset{
		Organizations: make(map[string]model.Organization),
		Users:         make(map[string]model.User),
		Locations:     make(map[string]model.Location),
		Runs:          make(map[string]model.Run),
	}

	err := loadRecords(l, filepath.Join(dir, dirOrganizations), func(id string, org model.Organization, desc *string) {
		org.ID, org.DescriptionHTML = id, desc
		ds.Organizations[id] = org
	})
	if err != nil {
		return nil, err
	}
	err = loadRecords(l, filepath.Join(dir, dirUsers), func(id string, u model.User, desc *string) {
		u.ID, u.DescriptionHTML = id, desc
		ds.Users[id] = u
	})
	if err != nil {
		return nil, err
	}
	err = loadRecords(l, filepath.Join(dir, dirLocations), func(id string, loc model.Location, desc *string) {
		loc.ID, loc.DescriptionHTML = id, desc
		ds.Locations[id] = loc
	})
	if err != nil {
		return nil, err
	}
	if err := l.loadRuns(filepath.Join(dir, dirRuns), ds.Runs); err != nil {
		return nil, err
	}

	appLog.Info("seeds loaded",
		"dir", dir,
		"organizations", len(ds.Organizations),
		"users", len(ds.Users),
		"locations", len(ds.Locations),
		"runs", len(ds.Runs),
	)
	return ds, nil
}

// loadRecords decodes every YAML file in dir and hands it to set with the
// id taken from its numeric prefix.
func loadRecords[T any](l *Loader, dir string, set func(id string, v T, desc *string)) error {
	entries, err := readDir(dir)
	if err != nil {
		return err
	}
	seen := make(map[string]string)
	for _, e := range entries {
		base, ok := yamlBase(e)
		if !ok {
			continue
		}
		id, _, err := splitName(base)
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Join(dir, e.Name()), err)
		}
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("%s: id %s already used by %s", filepath.Join(dir, e.Name()), id, prev)
		}
		seen[id] = e.Name()

		var v T
		if err := decodeFile(filepath.Join(dir, e.Name()), &v); err != nil {
			return err
		}
		desc, err := l.markdown(dir, base)
		if err != nil {
			return err
		}
		set(id, v, desc)
	}
	return nil
}

func (l *Loader) loadRuns(dir string, runs map[string]model.Run) error {
	orgDirs, err := readDir(dir)
	if err != nil {
		return err
	}
	for _, od := range orgDirs {
		if !od.IsDir() {
			continue
		}
		orgID, _, err := splitName(od.Name())
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Join(dir, od.Name()), err)
		}
		orgPath := filepath.Join(dir, od.Name())
		entries, err := readDir(orgPath)
		if err != nil {
			return err
		}
		for _, e := range entries {
			base, ok := yamlBase(e)
			if !ok {
				continue
			}
			slug := base
			if m := numbered.FindStringSubmatch(base); m != nil {
				slug = m[2]
			}
			id := orgID + "-" + slug
			if _, dup := runs[id]; dup {
				return fmt.Errorf("%s: run id %s already used", filepath.Join(orgPath, e.Name()), id)
			}

			var run model.Run
			if err := decodeFile(filepath.Join(orgPath, e.Name()), &run); err != nil {
				return err
			}
			desc, err := l.markdown(orgPath, base)
			if err != nil {
				return err
			}
			run.ID, run.OrganizationID, run.DescriptionHTML = id, orgID, desc
			runs[id] = run
		}
	}
	return nil
}

// readDir lists dir, treating a missing directory as empty.
func readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("seed directory not found", "dir", dir)
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}

func yamlBase(e os.DirEntry) (string, bool) {
	if e.IsDir() {
		return "", false
	}
	name := e.Name()
	for _, ext := range []string{".yaml", ".yml"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext), true
		}
	}
	return "", false
}

// splitName parses "001_bay-bandits" into ("1", "bay-bandits").
func splitName(base string) (string, string, error) {
	m := numbered.FindStringSubmatch(base)
	if m == nil {
		return "", "", fmt.Errorf("%w: %q", ErrFileName, base)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrFileName, base)
	}
	return strconv.Itoa(n), m[2], nil
}

// decodeFile decodes one YAML record. Unknown keys are an error.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// markdown renders dir/base.md when it exists.
func (l *Loader) markdown(dir, base string) (*string, error) {
	path := filepath.Join(dir, base+".md")
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var buf bytes.Buffer
	if err := l.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out := buf.String()
	return &out, nil
}
