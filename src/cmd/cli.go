package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/VectorBits/solflow/src/internal/config"
	"github.com/VectorBits/solflow/src/internal/ui"
)

// errExtractionFailed means a failure document was already emitted.
var errExtractionFailed = errors.New("workflow extraction failed")

type CLIConfig struct {
	Target        string
	WorkspaceRoot string
	ConfigPath    string
	Backend       string
	ModelFile     string
	PythonPath    string
	SlitherRepo   string
	Solc          string
	SolcArgs      string
	FilterPaths   []string
	FilterFile    string

	ExcludeDependencies bool
	ExpandDependencies  bool
	MaxDepth            int
	Concurrency         int

	OutputPath  string
	ReportDir   string
	StoreDriver string
	StoreDSN    string
	LogDir      string
	Verbose     bool
	InitConfig  bool

	// set records the flags given on the command line, so that only those
	// override settings.yaml.
	set map[string]bool
}

// IsSet reports whether the named flag was passed explicitly.
func (c *CLIConfig) IsSet(name string) bool {
	return c.set[name]
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func (c *CLIConfig) Validate() error {
	if c.InitConfig {
		return nil
	}
	if c.Target == "" {
		return errors.New("-target is required (a Solidity file or project directory)")
	}
	switch c.Backend {
	case "", config.BackendSlither, config.BackendModelFile, config.BackendNoop:
	default:
		return fmt.Errorf("unsupported backend: %s, supported backends: slither, model_file, noop", c.Backend)
	}
	if c.IsSet("max-depth") && c.MaxDepth < 1 {
		return fmt.Errorf("-max-depth must be >= 1, got %d", c.MaxDepth)
	}
	if c.IsSet("concurrency") && c.Concurrency < 1 {
		return fmt.Errorf("-concurrency must be >= 1, got %d", c.Concurrency)
	}
	return nil
}

// MergeConfigs layers defaults, settings.yaml, environment and flags.
func (c *CLIConfig) MergeConfigs(appConfig *config.AppConfig) (config.WorkflowConfiguration, error) {
	// 1. Start with defaults
	cfg := config.DefaultWorkflowConfiguration()

	// 2. Override with YAML config if available
	cfg.ApplyFile(appConfig)

	// 3. Environment
	cfg.ApplyEnv()

	// 4. Override with CLI arguments (if provided)
	cfg.Target = c.Target
	cfg.WorkspaceRoot = c.WorkspaceRoot
	overrideString := func(name string, dst *string, v string) {
		if c.IsSet(name) {
			*dst = strings.TrimSpace(v)
		}
	}
	overrideString("backend", &cfg.Backend, c.Backend)
	overrideString("model", &cfg.ModelFile, c.ModelFile)
	overrideString("python", &cfg.PythonPath, c.PythonPath)
	overrideString("slither-repo", &cfg.SlitherRepo, c.SlitherRepo)
	overrideString("solc", &cfg.Solc, c.Solc)
	overrideString("solc-args", &cfg.SolcArgs, c.SolcArgs)
	overrideString("o", &cfg.OutputPath, c.OutputPath)
	overrideString("r", &cfg.ReportDir, c.ReportDir)
	overrideString("store-driver", &cfg.StoreDriver, c.StoreDriver)
	overrideString("store-dsn", &cfg.StoreDSN, c.StoreDSN)
	overrideString("log-dir", &cfg.LogDir, c.LogDir)
	if c.IsSet("exclude-dependencies") {
		cfg.ExcludeDependencies = c.ExcludeDependencies
	}
	if c.IsSet("expand-dependencies") {
		cfg.ExpandDependencies = c.ExpandDependencies
	}
	if c.IsSet("max-depth") {
		cfg.MaxDepth = c.MaxDepth
	}
	if c.IsSet("concurrency") {
		cfg.Concurrency = c.Concurrency
	}
	if c.Verbose {
		cfg.Verbose = true
	}

	// -model alone selects the model_file backend
	if c.ModelFile != "" && !c.IsSet("backend") {
		cfg.Backend = config.BackendModelFile
	}
	if cfg.Backend == config.BackendModelFile && cfg.ModelFile == "" {
		return cfg, errors.New("backend model_file requires -model or analyzer.model_file")
	}

	if len(c.FilterPaths) > 0 {
		cfg.FilterPaths = config.MergeFilterPaths(nil, c.FilterPaths...)
	}
	if c.FilterFile != "" {
		extra, err := config.ReadFilterPaths(c.FilterFile)
		if err != nil {
			return cfg, err
		}
		cfg.FilterPaths = config.MergeFilterPaths(cfg.FilterPaths, extra...)
	}

	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = cfg.Target
	}
	if abs, err := filepath.Abs(cfg.WorkspaceRoot); err == nil {
		cfg.WorkspaceRoot = abs
	}

	return cfg, nil
}

func showGeneralHelp(w io.Writer) {
	fmt.Fprintln(w, ui.Cyan+"USAGE:"+ui.Reset)
	fmt.Fprintln(w, "  solflow -target <path> [OPTIONS]")
	fmt.Fprintln(w)

	fmt.Fprintln(w, ui.Cyan+"ANALYZER:"+ui.Reset)
	fmt.Fprintf(w, "  %-30s %s\n", "-target <path>", "Solidity file or project directory (required)")
	fmt.Fprintf(w, "  %-30s %s\n", "-workspace-root <dir>", "Root that output paths are relative to (default: target)")
	fmt.Fprintf(w, "  %-30s %s\n", "-backend <name>", "slither | model_file | noop (default: slither)")
	fmt.Fprintf(w, "  %-30s %s\n", "-model <file>", "Exported program model (implies -backend model_file)")
	fmt.Fprintf(w, "  %-30s %s\n", "-python <path>", "Python interpreter with slither installed")
	fmt.Fprintf(w, "  %-30s %s\n", "-slither-repo <dir>", "Slither checkout added to the import path")
	fmt.Fprintf(w, "  %-30s %s\n", "-solc <path>", "solc binary (default: detected from pragma)")
	fmt.Fprintf(w, "  %-30s %s\n", "-solc-args <args>", "Extra compiler arguments")
	fmt.Fprintf(w, "  %-30s %s\n", "-filter-path <regex>", "Path filter passed to slither (repeatable)")
	fmt.Fprintf(w, "  %-30s %s\n", "-filter-file <file>", "Filter paths from a .txt or .yaml list")
	fmt.Fprintln(w)

	fmt.Fprintln(w, ui.Cyan+"WORKFLOW:"+ui.Reset)
	fmt.Fprintf(w, "  %-30s %s\n", "-exclude-dependencies <bool>", "Skip lib/, node_modules/ and friends (default: true)")
	fmt.Fprintf(w, "  %-30s %s\n", "-expand-dependencies <bool>", "Expand call trees into dependencies (default: false)")
	fmt.Fprintf(w, "  %-30s %s\n", "-max-depth <n>", "Call tree depth bound (default: 10)")
	fmt.Fprintf(w, "  %-30s %s\n", "-concurrency <n>", "Call trees built in parallel (default: 4)")
	fmt.Fprintln(w)

	fmt.Fprintln(w, ui.Cyan+"OUTPUT:"+ui.Reset)
	fmt.Fprintf(w, "  %-30s %s\n", "-o <file>", "Write the JSON document to a file instead of stdout")
	fmt.Fprintf(w, "  %-30s %s\n", "-r <dir>", "Also write a Markdown report to this directory")
	fmt.Fprintf(w, "  %-30s %s\n", "-store-driver <name>", "Record the run: sqlite | postgres")
	fmt.Fprintf(w, "  %-30s %s\n", "-store-dsn <dsn>", "Database file (sqlite) or connection string")
	fmt.Fprintf(w, "  %-30s %s\n", "-log-dir <dir>", "Write a timestamped log file")
	fmt.Fprintf(w, "  %-30s %s\n", "-config <file>", "Settings file (default: config/settings.yaml)")
	fmt.Fprintf(w, "  %-30s %s\n", "-init-config", "Write config/settings.yaml from the built-in example")
	fmt.Fprintf(w, "  %-30s %s\n", "-v", "Verbose output")
	fmt.Fprintln(w)

	fmt.Fprintln(w, ui.Cyan+"EXAMPLES:"+ui.Reset)
	fmt.Fprintln(w, ui.Gray+"  # Foundry project, report and history"+ui.Reset)
	fmt.Fprintln(w, "  solflow -target ./vault -r reports -store-driver sqlite -store-dsn data/solflow.db")
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.Gray+"  # Re-run on an exported model"+ui.Reset)
	fmt.Fprintln(w, "  solflow -target ./vault -model vault.model.json -o workflows.json")
}

// ParseFlags 解析命令行参数
func ParseFlags(args []string) (*CLIConfig, error) {
	fs := flag.NewFlagSet("solflow", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		ui.PrintBanner()
		showGeneralHelp(os.Stderr)
	}

	var filterPaths stringList
	target := fs.String("target", "", "Solidity file or project directory")
	workspaceRoot := fs.String("workspace-root", "", "Workspace root for relative paths")
	configPath := fs.String("config", "", "Settings file")
	backend := fs.String("backend", config.BackendSlither, "Analyzer backend: slither | model_file | noop")
	modelFile := fs.String("model", "", "Exported model file")
	python := fs.String("python", "", "Python interpreter")
	slitherRepo := fs.String("slither-repo", "", "Slither checkout")
	solcPath := fs.String("solc", "", "solc binary")
	solcArgs := fs.String("solc-args", "", "Extra solc arguments")
	fs.Var(&filterPaths, "filter-path", "Path filter (repeatable)")
	filterFile := fs.String("filter-file", "", "Filter path list (.txt/.yaml)")
	exclude := fs.String("exclude-dependencies", "true", "Exclude dependency code")
	expand := fs.String("expand-dependencies", "false", "Expand calls into dependencies")
	maxDepth := fs.Int("max-depth", 10, "Call tree depth bound")
	concurrency := fs.Int("concurrency", 4, "Call trees built in parallel")
	output := fs.String("o", "", "Output file (default: stdout)")
	reportDir := fs.String("r", "", "Markdown report directory")
	storeDriver := fs.String("store-driver", "", "Run history driver: sqlite | postgres")
	storeDSN := fs.String("store-dsn", "", "Run history DSN")
	logDir := fs.String("log-dir", "", "Log file directory")
	verbose := fs.Bool("v", false, "Verbose output")
	initConfig := fs.Bool("init-config", false, "Write the example settings file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 && *target == "" {
		*target = fs.Arg(0)
	}

	cfg := &CLIConfig{
		Target:              strings.TrimSpace(*target),
		WorkspaceRoot:       strings.TrimSpace(*workspaceRoot),
		ConfigPath:          strings.TrimSpace(*configPath),
		Backend:             strings.ToLower(strings.TrimSpace(*backend)),
		ModelFile:           strings.TrimSpace(*modelFile),
		PythonPath:          *python,
		SlitherRepo:         *slitherRepo,
		Solc:                *solcPath,
		SolcArgs:            *solcArgs,
		FilterPaths:         filterPaths,
		FilterFile:          strings.TrimSpace(*filterFile),
		ExcludeDependencies: config.ParseBool(*exclude),
		ExpandDependencies:  config.ParseBool(*expand),
		MaxDepth:            *maxDepth,
		Concurrency:         *concurrency,
		OutputPath:          *output,
		ReportDir:           *reportDir,
		StoreDriver:         *storeDriver,
		StoreDSN:            *storeDSN,
		LogDir:              *logDir,
		Verbose:             *verbose,
		InitConfig:          *initConfig,
		set:                 make(map[string]bool),
	}
	fs.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })
	if fs.NArg() > 0 && !cfg.IsSet("target") {
		cfg.set["target"] = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run parses the command line and executes one extraction. initConfig
// writes the example settings file for -init-config.
func Run(initConfig func() (string, error)) error {
	cfg, err := ParseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if cfg.InitConfig {
		if initConfig == nil {
			return errors.New("-init-config is not available in this build")
		}
		path, err := initConfig()
		if err != nil {
			return fmt.Errorf("failed to init config file: %w", err)
		}
		ui.LogSuccess("Created config file: %s", path)
		if cfg.Target == "" {
			return nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(sigChan)
		close(sigChan)
	}()

	go func() {
		count := 0
		for range sigChan {
			count++
			if count == 1 {
				fmt.Fprintln(os.Stderr, "\nInterrupt received, stopping... (press Ctrl+C again to force exit)")
				cancel()
				continue
			}
			fmt.Fprintln(os.Stderr, "\nForce exiting...")
			os.Exit(130)
		}
	}()

	return Execute(ctx, cfg, os.Stdout)
}

func PrintFatal(err error) {
	if err == nil {
		return
	}
	if !errors.Is(err, errExtractionFailed) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(1)
}
