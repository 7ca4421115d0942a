package static_analyzer

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportedModel = `{"version": 1,
  "contracts": [{"id": "c1", "name": "Vault", "functions": ["f1"], "functions_declared": ["f1"], "source": {"relative": "src/Vault.sol", "lines": [1]}}],
  "functions": [{"id": "f1", "canonical_name": "Vault.deposit()", "full_name": "deposit()", "name": "deposit",
    "is_implemented": true, "visibility": "external", "contract": "c1", "source": {"relative": "src/Vault.sol", "lines": [3]}}]}`

func TestNewAnalyzerBackends(t *testing.T) {
	a, err := NewAnalyzer(AnalyzerConfig{Backend: BackendNoOp})
	require.NoError(t, err)
	prog, err := a.BuildModel(context.Background(), &ModelRequest{Target: "."})
	require.NoError(t, err)
	assert.Empty(t, prog.Contracts)
	assert.NoError(t, a.Close())

	_, err = NewAnalyzer(AnalyzerConfig{Backend: BackendModelFile})
	assert.Error(t, err)

	_, err = NewAnalyzer(AnalyzerConfig{Backend: "mythril"})
	assert.Error(t, err)
}

func TestModelFileAnalyzer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(exportedModel), 0644))

	a, err := NewAnalyzer(AnalyzerConfig{Backend: BackendModelFile, ModelFile: path})
	require.NoError(t, err)
	prog, err := a.BuildModel(context.Background(), &ModelRequest{})
	require.NoError(t, err)
	require.Len(t, prog.Functions, 1)
	assert.Same(t, prog.Contract("c1"), prog.Function("f1").Contract)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.BuildModel(ctx, &ModelRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSlitherAnalyzerParsesExport(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell interpreter stubs need a POSIX shell")
	}
	dir := t.TempDir()
	payload := filepath.Join(dir, "response.json")
	require.NoError(t, os.WriteFile(payload, []byte(`{"success": true, "program": `+exportedModel+`}`), 0644))
	python := filepath.Join(dir, "python")
	require.NoError(t, os.WriteFile(python, []byte("#!/bin/sh\ncat > /dev/null\ncat "+payload+"\n"), 0755))

	a, err := NewAnalyzer(AnalyzerConfig{Backend: BackendSlither, PythonPath: python, Timeout: time.Minute})
	require.NoError(t, err)
	defer a.Close()

	prog, err := a.BuildModel(context.Background(), &ModelRequest{Target: dir})
	require.NoError(t, err)
	require.Len(t, prog.Contracts, 1)
	assert.Equal(t, "Vault", prog.Contracts[0].Name)
	assert.NotEmpty(t, prog.Digest)
}

func TestSlitherAnalyzerRejectsInvalidModel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell interpreter stubs need a POSIX shell")
	}
	python := filepath.Join(t.TempDir(), "python")
	script := "#!/bin/sh\ncat > /dev/null\necho '{\"success\": true, \"program\": {\"version\": 1, \"functions\": [{\"id\": \"f\"}, {\"id\": \"f\"}]}}'\n"
	require.NoError(t, os.WriteFile(python, []byte(script), 0755))

	a, err := NewAnalyzer(AnalyzerConfig{Backend: BackendSlither, PythonPath: python})
	require.NoError(t, err)
	_, err = a.BuildModel(context.Background(), &ModelRequest{Target: "."})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model from slither")
}
