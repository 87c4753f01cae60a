package cli

import (
	"log/slog"

	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/ports"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/ui/report"
	"github.com/spf13/cobra"
)

type scanOptions struct {
	runtime  string
	manifest string
	dryRun   bool
	ui       bool
	json     bool
	readme   string
	marker   string
}

func newScanCmd(root *rootOptions) *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "Scan Python sources and append third-party imports to the manifest",
		Long: `Walks the project (or the given paths), extracts the top-level package of
every import/from line, removes standard-library modules for the runtime
version and envscan's own tooling packages, and appends what is left,
sorted, to the manifest in a single write.

Running scan twice appends the same packages twice; use --dry-run to preview.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, root, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.runtime, "runtime", "", "Python version to classify against, e.g. 3.11 (default from config)")
	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "manifest to append to (default from config)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report additions without touching the manifest")
	cmd.Flags().BoolVar(&opts.ui, "ui", false, "browse the result in an interactive list")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")
	cmd.Flags().StringVar(&opts.readme, "readme", "", "markdown file whose envscan marker block receives the package table")
	cmd.Flags().StringVar(&opts.marker, "marker", "dependencies", "marker name used with --readme")
	cmd.MarkFlagsMutuallyExclusive("ui", "json")
	return cmd
}

func runScan(cmd *cobra.Command, root *rootOptions, opts *scanOptions, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := loadRuntime(ctx, root)
	if err != nil {
		return err
	}
	defer rt.Close()

	req := ports.ScanRequest{
		Roots:          args,
		RuntimeVersion: opts.runtime,
		ManifestPath:   opts.manifest,
		DryRun:         opts.dryRun,
	}
	if req.ManifestPath == "" {
		req.ManifestPath = rt.app.Paths.Manifest
	}

	// Checked before Run: an appended manifest cannot be rolled back.
	if opts.readme != "" {
		if err := report.CheckMarkers(opts.readme, opts.marker); err != nil {
			return err
		}
	}

	result, err := rt.app.Run(ctx, req)
	if err != nil {
		return err
	}
	if opts.readme != "" {
		if err := report.InjectBlock(opts.readme, opts.marker, report.PackagesTable(result)); err != nil {
			return err
		}
		slog.Info("package table updated", "path", opts.readme, "marker", opts.marker)
	}

	switch {
	case opts.json:
		return writeJSON(cmd.OutOrStdout(), newScanReport(result))
	case opts.ui:
		return runReview(result, req.ManifestPath, opts.dryRun)
	default:
		writeSummary(cmd.OutOrStdout(), cmd.ErrOrStderr(), result, req.ManifestPath, opts.dryRun)
		return nil
	}
}
