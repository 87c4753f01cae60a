package report

import (
	"fmt"
	"strings"

	coreapp "github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/app"
)

// PackagesTable renders the third-party packages of a scan as a markdown
// table, followed by a one-line footer with the run's totals.
func PackagesTable(r coreapp.Result) string {
	var b strings.Builder
	if len(r.Additions) == 0 {
		b.WriteString("_No third-party packages._\n")
	} else {
		b.WriteString("| Package | Source |\n")
		b.WriteString("| --- | --- |\n")
		for _, name := range r.Additions {
			fmt.Fprintf(&b, "| `%s` | pip |\n", escapeCell(name))
		}
	}
	fmt.Fprintf(&b, "\n_Python %s: %d files scanned, %d stdlib modules skipped",
		r.RuntimeVersion, r.Files, len(r.Stdlib))
	if n := len(r.Unreadable); n > 0 {
		fmt.Fprintf(&b, ", %d unreadable", n)
	}
	b.WriteString("._\n")
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
