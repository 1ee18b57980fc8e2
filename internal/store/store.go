// Package store persists a compiled output tree to disk.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	appLog "trailcal/internal/log"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// ErrUnsafePath is returned for a file path that is absolute or escapes the
// output directory.
var ErrUnsafePath = errors.New("unsafe output path")

// Write replaces dir with exactly files, keyed by slash-separated relative
// path.
//
// Implementation details:
//   - Files are written into a staging directory next to dir.
//   - The previous dir (if any) is renamed aside, the staging directory is
//     renamed into place, and the old tree is removed.
//   - If the final rename fails, the previous tree is restored.
func Write(dir string, files map[string][]byte) error {
	if dir == "" {
		return errors.New("output dir is empty")
	}
	dir = filepath.Clean(dir)
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, dirPerm); err != nil {
		return err
	}

	staging, err := os.MkdirTemp(parent, ".trailcal-stage-*")
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(staging)
		}
	}()
	if err := os.Chmod(staging, dirPerm); err != nil {
		return err
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := writeFile(staging, p, files[p]); err != nil {
			return err
		}
	}

	backup := ""
	if _, err := os.Stat(dir); err == nil {
		backup = staging + ".old"
		if err := os.Rename(dir, backup); err != nil {
			return fmt.Errorf("move previous output aside: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := os.Rename(staging, dir); err != nil {
		if backup != "" {
			if rerr := os.Rename(backup, dir); rerr != nil {
				appLog.Error("restore previous output failed", rerr, "dir", dir, "backup", backup)
			}
		}
		return fmt.Errorf("install output: %w", err)
	}
	committed = true

	if backup != "" {
		if err := os.RemoveAll(backup); err != nil {
			appLog.Error("remove previous output failed", err, "backup", backup)
		}
	}

	appLog.Info("output written", "dir", dir, "files", len(files))
	return nil
}

func writeFile(root, rel string, data []byte) error {
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return fmt.Errorf("%w: %q", ErrUnsafePath, rel)
	}
	path := filepath.Join(root, local)
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return err
	}
	return os.WriteFile(path, data, filePerm)
}

// Read loads every regular file under dir, keyed by slash-separated
// relative path. It is the inverse of Write.
func Read(dir string) (map[string][]byte, error) {
	files := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
