package history

import "time"

// SchemaVersion is the latest migration version this build understands.
const SchemaVersion = 3

// Run records one completed scan.
type Run struct {
	ID              string
	ProjectKey      string
	Timestamp       time.Time
	RuntimeVersion  string
	FilesScanned    int
	UnreadableCount int
	DiscoveredCount int
	Additions       []string
	DryRun          bool
	DurationMillis  int64
	// CommitHash is the project's git HEAD at scan time, empty outside a repository.
	CommitHash string
}

// AddedCount is the number of entries the run appended (or would have).
func (r Run) AddedCount() int {
	return len(r.Additions)
}
