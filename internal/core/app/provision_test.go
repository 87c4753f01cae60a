package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/ports"
	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/engine/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnvironments struct {
	calls     []string
	createErr error
	seenPip   []string
}

func (f *fakeEnvironments) CreateEnvironment(_ context.Context, spec ports.EnvironmentSpec) (ports.EnvironmentHandle, error) {
	f.calls = append(f.calls, "create "+spec.Name)
	if f.createErr != nil {
		return ports.EnvironmentHandle{}, f.createErr
	}
	doc, err := manifest.Load(spec.ManifestPath)
	if err != nil {
		return ports.EnvironmentHandle{}, err
	}
	f.seenPip = doc.Pip
	return ports.EnvironmentHandle{Name: spec.Name}, nil
}

func (f *fakeEnvironments) ExportEnvironment(_ context.Context, h ports.EnvironmentHandle) (manifest.Document, []byte, error) {
	f.calls = append(f.calls, "export "+h.Name)
	return manifest.Document{Name: h.Name, Pip: f.seenPip}, nil, nil
}

func (f *fakeEnvironments) RemoveEnvironment(_ context.Context, h ports.EnvironmentHandle) error {
	f.calls = append(f.calls, "remove "+h.Name)
	return nil
}

func TestProvision(t *testing.T) {
	a := newTestApp(t, analysisTree(), nil)
	require.NoError(t, a.InitManifest(false))
	require.NoError(t, manifest.Append(a.Paths.Manifest, []string{"stale"}))
	envs := &fakeEnvironments{}
	a.Environments = envs

	res, err := a.Provision(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"remove troll-analysis", "create troll-analysis", "export troll-analysis"}, envs.calls)
	want := []string{"emoji", "mlxtend", "pandas", "requests", "sklearn", "tqdm", "trolldata_utils"}
	assert.Equal(t, want, envs.seenPip, "the manifest header is rewritten before the scan appends")
	assert.Equal(t, want, res.Scan.Additions)
	assert.Equal(t, "troll-analysis", res.Handle.Name)
	assert.Equal(t, want, res.Exported.Pip)
}

func TestProvision_UnsupportedVersionRemovesNothing(t *testing.T) {
	a := newTestApp(t, analysisTree(), nil)
	a.Config.RuntimeVersion = "2.9"
	envs := &fakeEnvironments{}
	a.Environments = envs

	_, err := a.Provision(context.Background(), nil)
	require.Error(t, err)
	assert.Empty(t, envs.calls)
}

func TestProvision_CreateFailureKeepsScan(t *testing.T) {
	a := newTestApp(t, analysisTree(), nil)
	envs := &fakeEnvironments{createErr: fmt.Errorf("solver failed")}
	a.Environments = envs

	res, err := a.Provision(context.Background(), nil)
	require.Error(t, err)
	assert.NotEmpty(t, res.Scan.Additions)
	assert.Equal(t, []string{"remove troll-analysis", "create troll-analysis"}, envs.calls)
}
