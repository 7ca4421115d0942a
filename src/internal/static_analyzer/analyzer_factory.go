package static_analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/VectorBits/solflow/src/internal/logger"
	"github.com/VectorBits/solflow/src/internal/model"
	"github.com/VectorBits/solflow/src/internal/static_analyzer/backend"
)

type BackendType string

const (
	BackendSlither   BackendType = "slither"
	BackendModelFile BackendType = "model_file"
	BackendNoOp      BackendType = "noop" // No-op implementation for testing
)

type AnalyzerConfig struct {
	Backend    BackendType
	PythonPath string // Python executable path
	ModelFile  string // exported model, for the model_file backend
	Timeout    time.Duration
}

// NewAnalyzer creates an analyzer instance
func NewAnalyzer(cfg AnalyzerConfig) (Analyzer, error) {
	switch cfg.Backend {
	case BackendSlither, "":
		pyBackend, err := backend.NewPythonScriptBackend(cfg.PythonPath, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return &slitherAdapter{backend: pyBackend}, nil

	case BackendModelFile:
		if cfg.ModelFile == "" {
			return nil, fmt.Errorf("backend %s requires a model file", BackendModelFile)
		}
		return &modelFileAnalyzer{path: cfg.ModelFile}, nil

	case BackendNoOp:
		return NewNoOpAnalyzer(), nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s (supported: slither, model_file, noop)", cfg.Backend)
	}
}

type slitherAdapter struct {
	backend *backend.PythonScriptBackend
}

func (a *slitherAdapter) BuildModel(ctx context.Context, req *ModelRequest) (*model.Program, error) {
	raw, err := a.backend.Export(ctx, &backend.ExportRequest{
		Target:      req.Target,
		Solc:        req.Solc,
		SolcArgs:    req.SolcArgs,
		FilterPaths: req.FilterPaths,
		SlitherRepo: req.SlitherRepo,
	})
	if err != nil {
		return nil, err
	}

	prog, err := model.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid model from slither: %w", err)
	}
	logger.Debug("analyzer: %d contracts, %d functions, %d variables", len(prog.Contracts), len(prog.Functions), len(prog.Variables))
	return prog, nil
}

func (a *slitherAdapter) Close() error {
	return a.backend.Close()
}
