package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/VectorBits/solflow/src/internal/config"
	"github.com/VectorBits/solflow/src/internal/logger"
	"github.com/VectorBits/solflow/src/internal/model"
	"github.com/VectorBits/solflow/src/internal/report"
	"github.com/VectorBits/solflow/src/internal/solc"
	"github.com/VectorBits/solflow/src/internal/static_analyzer"
	"github.com/VectorBits/solflow/src/internal/store"
	"github.com/VectorBits/solflow/src/internal/ui"
	"github.com/VectorBits/solflow/src/internal/workflow"
)

func loadAppConfig(cfg *CLIConfig) *config.AppConfig {
	if cfg.ConfigPath != "" {
		appConfig, err := config.LoadConfigFile(cfg.ConfigPath)
		if err != nil {
			logger.Warn("Failed to load config: %v", err)
			return nil
		}
		return appConfig
	}
	appConfig, err := config.LoadConfig()
	if err != nil {
		logger.Debug("No settings file loaded: %v", err)
		return nil
	}
	return appConfig
}

// Execute runs one extraction and writes the workflow document to stdout
// (or the configured output file). A failed extraction still writes the
// failure document and returns errExtractionFailed.
func Execute(ctx context.Context, cfg *CLIConfig, stdout io.Writer) error {
	appConfig := loadAppConfig(cfg)
	run, err := cfg.MergeConfigs(appConfig)
	if err != nil {
		return err
	}

	logger.SetVerbose(run.Verbose)
	if run.LogDir != "" {
		logPath, err := logger.InitLogger(run.LogDir)
		if err != nil {
			logger.Warn("Failed to init logger: %v", err)
		} else {
			defer logger.Close()
			logger.Debug("Logging to %s", logPath)
		}
	}
	logger.InfoFileOnly("Running with config: %+v", run)

	start := time.Now()
	doc, prog, err := extract(ctx, &run)
	if err != nil {
		logger.Error("Extraction failed: %v", err)
		doc = workflow.Failure(err)
	}

	outputPath, err := writeDocument(doc, run.OutputPath, stdout)
	if err != nil {
		return err
	}

	summary := ui.Summary{
		Target:      run.Target,
		Files:       len(doc.Files),
		EntryPoints: doc.EntryPointCount(),
		Variables:   doc.VariableCount(),
		OutputPath:  outputPath,
	}

	if run.ReportDir != "" {
		reporter := report.NewReporter(report.NewMarkdownGenerator(), report.NewFileStorage(run.ReportDir))
		path, err := reporter.GenerateAndSave(report.NewReport(run.Target, run.Backend, doc))
		if err != nil {
			logger.Warn("Failed to write report: %v", err)
		} else {
			summary.ReportPath = path
		}
	}

	if run.StoreDriver != "" {
		id, err := saveRun(ctx, &run, prog, doc)
		if err != nil {
			logger.Warn("Failed to record run: %v", err)
		} else {
			summary.RunID = id
		}
	}

	summary.Duration = time.Since(start)
	if !doc.OK {
		ui.LogError("%s", doc.Error)
		return errExtractionFailed
	}
	ui.PrintSummary(summary)
	return nil
}

func extract(ctx context.Context, run *config.WorkflowConfiguration) (*workflow.Document, *model.Program, error) {
	if run.Backend == config.BackendSlither && run.AutoSolc && run.Solc == "" {
		path, version, err := solc.GetManager().Resolve(run.Target)
		if err != nil {
			logger.Warn("solc auto-detection failed, falling back to solc on PATH: %v", err)
		} else {
			ui.LogInfo("Using solc %s (%s)", version, path)
			logger.InfoFileOnly("Using solc %s (%s)", version, path)
			run.Solc = path
		}
	}

	analyzer, err := static_analyzer.NewAnalyzer(static_analyzer.AnalyzerConfig{
		Backend:    static_analyzer.BackendType(run.Backend),
		PythonPath: run.PythonPath,
		ModelFile:  run.ModelFile,
		Timeout:    run.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init analyzer: %w", err)
	}
	defer analyzer.Close()

	stop := ui.StartSpinner(fmt.Sprintf("Building program model of %s (%s)...", run.Target, run.Backend))
	prog, err := analyzer.BuildModel(ctx, &static_analyzer.ModelRequest{
		Target:      run.Target,
		Solc:        run.Solc,
		SolcArgs:    run.SolcArgs,
		FilterPaths: run.FilterPaths,
		SlitherRepo: run.SlitherRepo,
	})
	close(stop)
	if err != nil {
		return nil, nil, fmt.Errorf("build model: %w", err)
	}
	ui.LogInfo("Model: %d contracts, %d functions, %d variables",
		len(prog.Contracts), len(prog.Functions), len(prog.Variables))
	logger.InfoFileOnly("Model digest %s", prog.Digest)

	pb := ui.NewProgressBar(0, "Call trees")
	extractor := workflow.NewExtractor(workflow.Options{
		WorkspaceRoot:       run.WorkspaceRoot,
		MaxDepth:            run.MaxDepth,
		ExcludeDependencies: run.ExcludeDependencies,
		ExpandDependencies:  run.ExpandDependencies,
		Concurrency:         run.Concurrency,
		Progress:            pb.Set,
	})
	doc, err := extractor.Extract(ctx, prog)
	pb.Finish()
	if err != nil {
		return nil, prog, err
	}
	return doc, prog, nil
}

// writeDocument returns the output path, empty for stdout.
func writeDocument(doc *workflow.Document, path string, stdout io.Writer) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		if _, err := stdout.Write(data); err != nil {
			return "", fmt.Errorf("write document: %w", err)
		}
		return "", nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return path, nil
}

func saveRun(ctx context.Context, run *config.WorkflowConfiguration, prog *model.Program, doc *workflow.Document) (string, error) {
	s, err := store.Open(run.StoreDriver, run.StoreDSN)
	if err != nil {
		return "", err
	}
	defer s.Close()

	hash := ""
	if prog != nil {
		hash = prog.Digest
	}
	rec, err := store.NewRun(run.Target, run.WorkspaceRoot, hash, doc)
	if err != nil {
		return "", err
	}
	// the run is recorded even when the extraction was interrupted
	if err := s.Save(context.WithoutCancel(ctx), rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}
