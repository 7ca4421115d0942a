package report

import (
	"fmt"
	"time"

	"github.com/VectorBits/solflow/src/internal/workflow"
)

type Report struct {
	Target      string
	Backend     string
	GeneratedAt time.Time
	Document    *workflow.Document
}

type Reporter struct {
	generator Generator
	storage   Storage
}

func NewReporter(generator Generator, storage Storage) *Reporter {
	return &Reporter{
		generator: generator,
		storage:   storage,
	}
}

func (r *Reporter) GenerateAndSave(report *Report) (string, error) {
	// 生成报告内容
	content, err := r.generator.Generate(report)
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	filepath, err := r.storage.Save(report, content)
	if err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	return filepath, nil
}

func NewReport(target, backend string, doc *workflow.Document) *Report {
	return &Report{
		Target:      target,
		Backend:     backend,
		GeneratedAt: time.Now(),
		Document:    doc,
	}
}
