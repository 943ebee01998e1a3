package filestore

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rpggio/workefforts/internal/domain/record"
)

const (
	// Ext is the extension of record files.
	Ext = ".md"
	// StateDir holds counter state and lock files under a root.
	StateDir = ".workefforts"
	// DefaultMarkerDir is the directory name that roots status directories
	// inside larger projects.
	DefaultMarkerDir = "work_efforts"
)

const maxSlugLen = 50

// Slugify converts a title into a filesystem-safe slug.
// Example: "Fix login bug" → "fix-login-bug"
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))

	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevHyphen = false
		case r == ' ' || r == '_' || r == '-' || r == '.' || r == '/':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "untitled"
	}
	if len(slug) <= maxSlugLen {
		return slug
	}

	truncated := slug[:maxSlugLen]
	if lastHyphen := strings.LastIndex(truncated, "-"); lastHyphen > maxSlugLen/2 {
		truncated = truncated[:lastHyphen]
	}
	return strings.TrimRight(truncated, "-")
}

// RecordStem is the shared name of a record's folder and file, without extension.
func RecordStem(id, title string) string {
	return id + "_" + Slugify(title)
}

// StatusDir returns the directory holding records of the given status.
func StatusDir(root string, status record.Status) string {
	return filepath.Join(root, string(status))
}

// FolderPath returns the folder-form path of a record file.
func FolderPath(root string, status record.Status, id, title string) string {
	stem := RecordStem(id, title)
	return filepath.Join(StatusDir(root, status), stem, stem+Ext)
}

// StatePath returns a path inside the root's state directory.
func StatePath(root string, elem ...string) string {
	return filepath.Join(append([]string{root, StateDir}, elem...)...)
}

// namePattern matches `0001_slug` and `20250317_0001_slug`.
var namePattern = regexp.MustCompile(`^(\d{8}_\d+|\d+)_(.*)$`)

// ParseName splits a record file or folder name into id and slug.
func ParseName(name string) (id, slug string, ok bool) {
	name = strings.TrimSuffix(name, Ext)
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Locate finds a record by id under root, checking every status directory.
// Folder form is preferred; a flat file is returned only when no folder form
// exists anywhere.
func Locate(root, id string) (record.Location, error) {
	var flat *record.Location
	for _, status := range record.Statuses {
		dir := StatusDir(root, status)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return record.Location{}, record.NewError(record.ErrRead, "locate", id, dir, err)
		}

		for _, entry := range entries {
			name := entry.Name()
			if !matchesID(name, id) {
				continue
			}
			if entry.IsDir() {
				file := filepath.Join(dir, name, name+Ext)
				if info, err := os.Stat(file); err == nil && info.Mode().IsRegular() {
					return record.Location{Path: file, Dir: filepath.Join(dir, name), Status: status}, nil
				}
				continue
			}
			if flat == nil && strings.HasSuffix(name, Ext) {
				flat = &record.Location{Path: filepath.Join(dir, name), Dir: dir, Status: status, Flat: true}
			}
		}
	}

	if flat != nil {
		return *flat, nil
	}
	return record.Location{}, record.NewError(record.ErrNotFound, "locate", id, root, nil)
}

func matchesID(name, id string) bool {
	if parsed, _, ok := ParseName(name); ok {
		return parsed == id
	}
	return strings.TrimSuffix(name, Ext) == id
}
