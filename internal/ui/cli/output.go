package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	coreapp "github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/app"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	addedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type scanReport struct {
	RunID          string             `json:"run_id"`
	RuntimeVersion string             `json:"runtime_version"`
	Files          int                `json:"files"`
	Bytes          int64              `json:"bytes"`
	Additions      []string           `json:"additions"`
	Stdlib         []string           `json:"stdlib"`
	Excluded       []string           `json:"excluded"`
	Unreadable     []unreadableReport `json:"unreadable"`
	Appended       bool               `json:"appended"`
	DurationMillis int64              `json:"duration_ms"`
}

type unreadableReport struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

func newScanReport(r coreapp.Result) scanReport {
	report := scanReport{
		RunID:          r.RunID,
		RuntimeVersion: r.RuntimeVersion,
		Files:          r.Files,
		Bytes:          r.Bytes,
		Additions:      nonNil(r.Additions),
		Stdlib:         nonNil(r.Stdlib),
		Excluded:       nonNil(r.Excluded),
		Unreadable:     make([]unreadableReport, 0, len(r.Unreadable)),
		Appended:       r.Appended,
		DurationMillis: r.Duration.Milliseconds(),
	}
	for _, u := range r.Unreadable {
		report.Unreadable = append(report.Unreadable, unreadableReport{Path: u.Path, Error: u.Err.Error()})
	}
	return report
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeSummary prints the human-readable scan result. Unreadable files go
// to errw so stdout stays a clean list of additions.
func writeSummary(w, errw io.Writer, r coreapp.Result, manifestPath string, dryRun bool) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Scanned %d files (%s) for Python %s",
		r.Files, humanize.Bytes(uint64(r.Bytes)), r.RuntimeVersion)))

	switch {
	case len(r.Additions) == 0:
		fmt.Fprintln(w, statusStyle.Render("No third-party packages found."))
	case dryRun:
		fmt.Fprintln(w, addedStyle.Render(fmt.Sprintf("Would add %d packages to %s:", len(r.Additions), manifestPath)))
	default:
		fmt.Fprintln(w, addedStyle.Render(fmt.Sprintf("Added %d packages to %s:", len(r.Additions), manifestPath)))
	}
	for _, name := range r.Additions {
		fmt.Fprintf(w, "  %s\n", name)
	}
	if len(r.Stdlib) > 0 || len(r.Excluded) > 0 {
		fmt.Fprintln(w, statusStyle.Render(fmt.Sprintf("Skipped %d stdlib modules, %d tool packages (%s)",
			len(r.Stdlib), len(r.Excluded), r.Duration.Round(time.Millisecond))))
	}

	if len(r.Unreadable) > 0 {
		fmt.Fprintln(errw, warnStyle.Render(fmt.Sprintf("%d files could not be read:", len(r.Unreadable))))
		for _, u := range r.Unreadable {
			fmt.Fprintf(errw, "  %s: %s\n", u.Path, strings.TrimSpace(u.Err.Error()))
		}
	}
}
