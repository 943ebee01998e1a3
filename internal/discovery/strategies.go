package discovery

import (
	"path/filepath"
	"strings"

	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/filestore"
)

// Matching strategies reported on each descriptor.
const (
	StrategyFilename  = "filename"
	StrategyDirectory = "directory"
	StrategyContent   = "content"
)

// matchFilename reports whether a file or its record folder carries an id prefix.
func matchFilename(path string) (string, bool) {
	id, _, ok := filestore.ParseName(filepath.Base(path))
	return id, ok
}

// matchDirectory infers placement from the directory holding a record: the
// file's parent, or its grandparent when the file sits in a same-named record
// folder. A status-named holder yields that status; a holder named like the
// marker directory matches without one.
func matchDirectory(path, marker string) (record.Status, bool) {
	holder := filepath.Dir(path)
	stem := strings.TrimSuffix(filepath.Base(path), filestore.Ext)
	if filepath.Base(holder) == stem {
		holder = filepath.Dir(holder)
	}
	name := filepath.Base(holder)
	if status := record.Status(name); status.Valid() {
		return status, true
	}
	return "", marker != "" && name == marker
}
