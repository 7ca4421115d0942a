package static_analyzer

import (
	"context"
	"fmt"

	"github.com/VectorBits/solflow/src/internal/logger"
	"github.com/VectorBits/solflow/src/internal/model"
)

// modelFileAnalyzer reads a model exported by an earlier run.
type modelFileAnalyzer struct {
	path string
}

func (a *modelFileAnalyzer) BuildModel(ctx context.Context, req *ModelRequest) (*model.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prog, err := model.LoadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", a.path, err)
	}
	logger.Debug("analyzer: loaded %d contracts, %d functions from %s", len(prog.Contracts), len(prog.Functions), a.path)
	return prog, nil
}

func (a *modelFileAnalyzer) Close() error {
	return nil
}
