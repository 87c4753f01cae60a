package ports

import (
	"context"
	"time"

	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/data/history"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/engine/manifest"
)

// EnvironmentSpec describes an environment to build from a manifest file.
type EnvironmentSpec struct {
	Name         string
	ManifestPath string
}

// EnvironmentHandle identifies an environment created by an EnvironmentManager.
type EnvironmentHandle struct {
	Name string
}

// EnvironmentManager abstracts the external package/environment manager.
type EnvironmentManager interface {
	CreateEnvironment(ctx context.Context, spec EnvironmentSpec) (EnvironmentHandle, error)
	ExportEnvironment(ctx context.Context, handle EnvironmentHandle) (manifest.Document, []byte, error)
	RemoveEnvironment(ctx context.Context, handle EnvironmentHandle) error
}

// HistoryStore abstracts scan-run persistence.
type HistoryStore interface {
	SaveRun(run history.Run) error
	LoadRuns(projectKey string, since time.Time) ([]history.Run, error)
}

// ScanRequest defines a scan operation request for driving adapters.
type ScanRequest struct {
	Roots          []string
	RuntimeVersion string
	ManifestPath   string
	DryRun         bool
}
