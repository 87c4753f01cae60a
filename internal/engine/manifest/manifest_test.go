package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader() Header {
	return Header{Name: "troll-analysis", Channels: []string{"conda-forge", "defaults"}, Python: "3.12"}
}

func TestRenderHeader(t *testing.T) {
	want := "name: troll-analysis\n" +
		"channels:\n" +
		"  - conda-forge\n" +
		"  - defaults\n" +
		"dependencies:\n" +
		"  - python=3.12\n" +
		"  - pip\n" +
		"  - pip:\n"
	assert.Equal(t, want, RenderHeader(testHeader()))
}

func TestCreateRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env", "environment.yml")
	require.NoError(t, Create(path, testHeader(), false))

	err := Create(path, testHeader(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExists))

	require.NoError(t, os.WriteFile(path, []byte("junk"), 0o644))
	require.NoError(t, Create(path, testHeader(), true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, RenderHeader(testHeader()), string(data))
}

func TestCreateValidatesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "environment.yml")
	require.Error(t, Create(path, Header{Python: "3.12"}, false))
	require.Error(t, Create(path, Header{Name: "x"}, false))
	require.Error(t, Create(path, Header{Name: "x", Python: "3.12", Channels: []string{" "}}, false))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAppendPreservesExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "environment.yml")
	require.NoError(t, Create(path, testHeader(), false))

	require.NoError(t, Append(path, []string{"emoji", "numpy", "requests"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := RenderHeader(testHeader()) + "    - emoji\n    - numpy\n    - requests\n"
	assert.Equal(t, want, string(data))

	doc, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "troll-analysis", doc.Name)
	assert.Equal(t, []string{"conda-forge", "defaults"}, doc.Channels)
	assert.Equal(t, []string{"python=3.12", "pip"}, doc.Dependencies)
	assert.Equal(t, []string{"emoji", "numpy", "requests"}, doc.Pip)
}

func TestAppendTwiceDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "environment.yml")
	require.NoError(t, Create(path, testHeader(), false))

	require.NoError(t, Append(path, []string{"requests"}))
	require.NoError(t, Append(path, []string{"requests"}))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"requests", "requests"}, doc.Pip)
}

func TestAppendAddsMissingTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "environment.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\ndependencies:\n  - pip:"), 0o644))

	require.NoError(t, Append(path, []string{"tqdm"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name: x\ndependencies:\n  - pip:\n    - tqdm\n", string(data))
}

func TestAppendNothingLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "environment.yml")
	require.NoError(t, Append(path, nil), "empty append must not even require the file")

	require.NoError(t, os.WriteFile(path, []byte("name: x"), 0o644))
	require.NoError(t, Append(path, []string{}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name: x", string(data))
}

func TestAppendMissingFile(t *testing.T) {
	err := Append(filepath.Join(t.TempDir(), "missing.yml"), []string{"numpy"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseExportedEnvironment(t *testing.T) {
	exported := `name: troll-analysis
channels:
  - conda-forge
dependencies:
  - python=3.12.4
  - pip=24.0
  - pip:
      - emoji==2.12.1
      - mlxtend==0.23.1
prefix: /opt/conda/envs/troll-analysis
`
	doc, err := Parse([]byte(exported))
	require.NoError(t, err)
	assert.Equal(t, []string{"python=3.12.4", "pip=24.0"}, doc.Dependencies)
	assert.Equal(t, []string{"emoji==2.12.1", "mlxtend==0.23.1"}, doc.Pip)
	assert.Equal(t, "/opt/conda/envs/troll-analysis", doc.Prefix)
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("name: [unterminated"))
	require.Error(t, err)
}
