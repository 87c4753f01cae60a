package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type project struct {
	root     string
	config   string
	manifest string
}

func newProject(t *testing.T, extra string) project {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"analysis_code/data_downloader.py":            "import os\nimport requests\nfrom urllib.parse import urljoin\n",
		"analysis_code/Daniel/emoji_market_basket.py": "import pandas as pd\nfrom mlxtend.frequent_patterns import fpgrowth\nimport requests\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfgPath := filepath.Join(root, "envscan.toml")
	cfg := fmt.Sprintf("project_root = %q\nruntime_version = \"3.12\"\n\n[environment]\nname = \"troll-analysis\"\n%s", root, extra)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return project{root: root, config: cfgPath, manifest: filepath.Join(root, "environment.yml")}
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersionCmd(t *testing.T) {
	code, out, _ := run(t, "version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "envscan version "+version)
}

func TestUsageErrorsExitTwo(t *testing.T) {
	code, _, stderr := run(t, "scan", "--no-such-flag")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "unknown flag")

	code, _, _ = run(t, "init", "extra-arg")
	assert.Equal(t, exitUsage, code)

	code, _, _ = run(t, "frobnicate")
	assert.Equal(t, exitUsage, code)
}

func TestInitScanShow(t *testing.T) {
	p := newProject(t, "")

	code, out, _ := run(t, "--config", p.config, "init")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, p.manifest)

	code, _, _ = run(t, "--config", p.config, "init")
	assert.Equal(t, exitFailure, code, "init must refuse to overwrite without --force")

	code, out, _ = run(t, "--config", p.config, "scan")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Added 3 packages")

	data, err := os.ReadFile(p.manifest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "  - pip:\n    - mlxtend\n    - pandas\n    - requests\n")

	code, out, _ = run(t, "--config", p.config, "show")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "troll-analysis")
	assert.Contains(t, out, "    requests\n")
}

func TestScanJSONDryRun(t *testing.T) {
	p := newProject(t, "")

	code, out, _ := run(t, "--config", p.config, "scan", "--dry-run", "--json")
	require.Equal(t, exitOK, code)

	var report scanReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{"mlxtend", "pandas", "requests"}, report.Additions)
	assert.Equal(t, []string{"os", "urllib"}, report.Stdlib)
	assert.Equal(t, 2, report.Files)
	assert.False(t, report.Appended)
	assert.Empty(t, report.Unreadable)

	_, err := os.Stat(p.manifest)
	assert.True(t, os.IsNotExist(err), "dry run must not create the manifest")
}

func TestScanUnsupportedRuntime(t *testing.T) {
	p := newProject(t, "")
	require.Equal(t, exitOK, execute([]string{"--config", p.config, "init"}, &bytes.Buffer{}, &bytes.Buffer{}))
	before, err := os.ReadFile(p.manifest)
	require.NoError(t, err)

	code, _, stderr := run(t, "--config", p.config, "scan", "--runtime", "2.9")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "2.9")

	after, err := os.ReadFile(p.manifest)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestScanReportsUnreadableFiles(t *testing.T) {
	p := newProject(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(p.root, "broken.py"), []byte("import x\n\xff\n"), 0o644))

	code, out, stderr := run(t, "--config", p.config, "scan", "--dry-run")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "Would add 3 packages")
	assert.Contains(t, stderr, "broken.py")
}

func TestScanUpdatesReadme(t *testing.T) {
	p := newProject(t, "")
	readme := filepath.Join(p.root, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("# Analysis\n<!-- envscan:deps:start -->\n<!-- envscan:deps:end -->\n"), 0o644))

	code, _, _ := run(t, "--config", p.config, "scan", "--dry-run", "--readme", readme, "--marker", "deps")
	require.Equal(t, exitOK, code)

	data, err := os.ReadFile(readme)
	require.NoError(t, err)
	assert.Contains(t, string(data), "| `mlxtend` | pip |\n| `pandas` | pip |\n| `requests` | pip |\n")

}

func TestScanBadReadmeLeavesManifestUntouched(t *testing.T) {
	p := newProject(t, "")
	require.Equal(t, exitOK, execute([]string{"--config", p.config, "init"}, &bytes.Buffer{}, &bytes.Buffer{}))
	before, err := os.ReadFile(p.manifest)
	require.NoError(t, err)

	readme := filepath.Join(p.root, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("# Analysis\n"), 0o644))

	code, _, stderr := run(t, "--config", p.config, "scan", "--readme", readme, "--marker", "deps")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "deps")

	after, err := os.ReadFile(p.manifest)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	code, _, _ = run(t, "--config", p.config, "scan", "--readme", filepath.Join(p.root, "MISSING.md"))
	assert.Equal(t, exitFailure, code)
	after, err = os.ReadFile(p.manifest)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestHistoryCmd(t *testing.T) {
	disabled := newProject(t, "")
	code, _, _ := run(t, "--config", disabled.config, "history")
	assert.Equal(t, exitFailure, code)

	p := newProject(t, "\n[history]\nenabled = true\n")
	require.Equal(t, exitOK, execute([]string{"--config", p.config, "scan", "--dry-run"}, &bytes.Buffer{}, &bytes.Buffer{}))

	code, out, _ := run(t, "--config", p.config, "history")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "dry-run")
	assert.Contains(t, out, "3.12")

	code, _, _ = run(t, "--config", p.config, "history", "--since", "yesterday-ish")
	assert.Equal(t, exitUsage, code)
}

func TestParseSince(t *testing.T) {
	zero, err := parseSince("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	day, err := parseSince("2026-02-13")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC), day)

	recent, err := parseSince("1h")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(-time.Hour), recent, time.Minute)

	_, err = parseSince("soon")
	require.Error(t, err)
}
