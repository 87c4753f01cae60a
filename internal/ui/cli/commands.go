package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	coreapp "github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/app"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/engine/manifest"
	"github.com/spf13/cobra"
)

func newInitCmd(root *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a fresh manifest header (name, channels, python, pip)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()
			rt, err := loadRuntime(ctx, root)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.app.InitManifest(force); err != nil {
				return err
			}
			cmd.Printf("Wrote %s\n", rt.app.Paths.Manifest)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing manifest")
	return cmd
}

func newShowCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the packages listed in the manifest",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()
			rt, err := loadRuntime(ctx, root)
			if err != nil {
				return err
			}
			defer rt.Close()

			doc, err := rt.app.ShowManifest()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), doc)
			}
			writeDocument(cmd, doc)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the manifest as JSON")
	return cmd
}

func writeDocument(cmd *cobra.Command, doc manifest.Document) {
	cmd.Println(titleStyle.Render(fmt.Sprintf("%s (%s)", doc.Name, strings.Join(doc.Channels, ", "))))
	for _, dep := range doc.Dependencies {
		cmd.Printf("  %s\n", dep)
	}
	if len(doc.Pip) == 0 {
		cmd.Println(statusStyle.Render("  no pip packages"))
		return
	}
	cmd.Println("  pip:")
	for _, pkg := range doc.Pip {
		cmd.Printf("    %s\n", pkg)
	}
}

func newProvisionCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "provision [path...]",
		Short: "Rebuild the conda environment from a fresh scan and export it",
		Long: `Removes the configured environment if it exists, rewrites the manifest
header, scans and appends imports, creates the environment with conda (or
mamba) and exports the solved environment to environment.export_path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			rt, err := loadRuntime(ctx, root)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.app.Provision(ctx, args)
			if err != nil {
				return err
			}
			writeSummary(cmd.OutOrStdout(), cmd.ErrOrStderr(), res.Scan, rt.app.Paths.Manifest, false)
			cmd.Println(addedStyle.Render(fmt.Sprintf("Environment %s ready with %d pip packages", res.Handle.Name, len(res.Exported.Pip))))
			if rt.app.Paths.ExportPath != "" {
				cmd.Printf("Exported to %s\n", rt.app.Paths.ExportPath)
			}
			return nil
		},
	}
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [path...]",
		Short: "Rescan on every change and report the packages a scan would add",
		Long: `Watches the project for source changes and reruns a dry-run scan after
each debounced batch. The manifest is never modified. Serves /metrics and
/health when observability.metrics_addr is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			rt, err := loadRuntime(ctx, root)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.serveMetrics(); err != nil {
				return err
			}

			var last []string
			return rt.app.Watch(ctx, args, func(r coreapp.Result, err error) {
				if err != nil {
					cmd.PrintErrln(warnStyle.Render("rescan failed: " + err.Error()))
					return
				}
				if last != nil && equalStrings(last, r.Additions) {
					return
				}
				last = nonNil(r.Additions)
				cmd.Println(statusStyle.Render(time.Now().Format("15:04:05")))
				writeSummary(cmd.OutOrStdout(), cmd.ErrOrStderr(), r, rt.app.Paths.Manifest, true)
			})
		},
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var (
		since  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scan runs (requires [history] enabled = true)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cutoff, err := parseSince(since)
			if err != nil {
				return usageError{err}
			}
			ctx, stop := signalContext()
			defer stop()
			rt, err := loadRuntime(ctx, root)
			if err != nil {
				return err
			}
			defer rt.Close()

			runs, err := rt.app.LoadHistory(cutoff)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			if len(runs) == 0 {
				cmd.Println("No recorded runs.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tPYTHON\tFILES\tUNREADABLE\tADDED\tMODE\tCOMMIT")
			for _, run := range runs {
				mode := "append"
				if run.DryRun {
					mode = "dry-run"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
					run.Timestamp.Local().Format(time.DateTime), run.RuntimeVersion,
					run.FilesScanned, run.UnreadableCount, run.AddedCount(), mode, run.CommitHash)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only runs at/after this time (RFC3339, YYYY-MM-DD or a duration like 24h)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print runs as JSON")
	return cmd
}

func parseSince(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return time.Now().Add(-d), nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.DateOnly, raw); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid --since value %q: use RFC3339, YYYY-MM-DD or a duration", raw)
}
