package static_analyzer

import (
	"context"

	"github.com/VectorBits/solflow/src/internal/model"
)

// Analyzer builds the program model of a Solidity target.
type Analyzer interface {
	BuildModel(ctx context.Context, req *ModelRequest) (*model.Program, error)

	Close() error
}

type NoOpAnalyzer struct{}

func (n *NoOpAnalyzer) BuildModel(ctx context.Context, req *ModelRequest) (*model.Program, error) {
	prog := &model.Program{Version: model.SchemaVersion}
	prog.Index()
	return prog, nil
}

func (n *NoOpAnalyzer) Close() error {
	return nil
}

func NewNoOpAnalyzer() Analyzer {
	return &NoOpAnalyzer{}
}
