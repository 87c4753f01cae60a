package app

import (
	"context"
	"os"
)

// Health backs the /health endpoint: "up" when the runtime version resolves
// and the manifest exists, "degraded" otherwise.
func (a *App) Health(_ context.Context) string {
	if err := a.Scanner.CheckVersion(a.Config.RuntimeVersion); err != nil {
		return "degraded"
	}
	if _, err := os.Stat(a.Paths.Manifest); err != nil {
		return "degraded"
	}
	return "up"
}
