package record

import "time"

// DiscoveryMode selects how far discovery looks for records.
type DiscoveryMode string

const (
	// ModeStandard checks only the well-known root/status directory shapes.
	ModeStandard DiscoveryMode = "standard"
	// ModeThorough walks every directory below each root and applies all strategies.
	ModeThorough DiscoveryMode = "thorough"
)

// ParseDiscoveryMode accepts "standard" or "thorough"; empty means standard.
func ParseDiscoveryMode(v string) (DiscoveryMode, error) {
	switch DiscoveryMode(v) {
	case "", ModeStandard:
		return ModeStandard, nil
	case ModeThorough:
		return ModeThorough, nil
	default:
		return "", ErrInvalidInput
	}
}

// DiscoverOptions configures a discovery run.
type DiscoverOptions struct {
	Roots     []string
	Mode      DiscoveryMode
	MarkerDir string
}

// FileError is a per-file discovery failure.
type FileError struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

func (e FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

// Location is where a record file was found on disk.
type Location struct {
	Path   string
	Dir    string
	Status Status
	Flat   bool
}

// TransitionResult describes the outcome of a status transition.
type TransitionResult struct {
	Record  *Record `json:"record"`
	From    Status  `json:"from"`
	To      Status  `json:"to"`
	Path    string  `json:"path"`
	Changed bool    `json:"changed"`
}

// RelatedSet is the resolved neighbourhood of a record.
type RelatedSet struct {
	IDs      []string `json:"ids"`
	Dangling []string `json:"dangling"`
}

// Edge is a directed relation between two records.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the transitive relation graph reachable from Root.
type Graph struct {
	Root     string   `json:"root"`
	Nodes    []string `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Dangling []Edge   `json:"dangling"`
}

// CreateRequest describes a record creation request.
type CreateRequest struct {
	Title      string
	Priority   Priority
	Assignee   string
	DueDate    *time.Time
	Tags       []string
	RelatedIDs []string
	Body       string
}

// TransitionRequest describes a status transition request. With Strict set a
// transition to the current status fails with ErrAlreadyInState.
type TransitionRequest struct {
	ID     string
	To     Status
	Strict bool
}
