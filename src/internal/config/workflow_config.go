package config

import (
	"strings"
	"time"
)

// Analyzer backends.
const (
	BackendSlither   = "slither"
	BackendModelFile = "model_file"
	BackendNoop      = "noop"
)

// WorkflowConfiguration is the merged configuration of one run:
// defaults, then settings.yaml, then environment, then flags.
type WorkflowConfiguration struct {
	Target        string
	WorkspaceRoot string

	// 分析器
	Backend     string
	PythonPath  string
	SlitherRepo string
	Solc        string
	SolcArgs    string
	AutoSolc    bool
	FilterPaths []string
	ModelFile   string
	Timeout     time.Duration

	// 工作流
	ExcludeDependencies bool
	ExpandDependencies  bool
	MaxDepth            int
	Concurrency         int

	// 输出
	OutputPath  string
	ReportDir   string
	StoreDriver string
	StoreDSN    string
	LogDir      string
	Verbose     bool
}

func DefaultWorkflowConfiguration() WorkflowConfiguration {
	return WorkflowConfiguration{
		Backend:             BackendSlither,
		PythonPath:          "python3",
		AutoSolc:            true,
		Timeout:             300 * time.Second,
		ExcludeDependencies: true,
		ExpandDependencies:  false,
		MaxDepth:            10,
		Concurrency:         4,
	}
}

// ApplyFile overlays the non-empty values of a settings file.
func (c *WorkflowConfiguration) ApplyFile(app *AppConfig) {
	if app == nil {
		return
	}
	a := app.Analyzer
	setString(&c.Backend, a.Backend)
	setString(&c.PythonPath, a.PythonPath)
	setString(&c.SlitherRepo, a.SlitherRepo)
	setString(&c.Solc, a.Solc)
	setString(&c.SolcArgs, a.SolcArgs)
	setString(&c.ModelFile, a.ModelFile)
	if a.AutoSolc != nil {
		c.AutoSolc = *a.AutoSolc
	}
	if len(a.FilterPaths) > 0 {
		c.FilterPaths = append([]string(nil), a.FilterPaths...)
	}
	if a.Timeout > 0 {
		c.Timeout = time.Duration(a.Timeout) * time.Second
	}

	w := app.Workflow
	if w.ExcludeDependencies != nil {
		c.ExcludeDependencies = *w.ExcludeDependencies
	}
	if w.ExpandDependencies != nil {
		c.ExpandDependencies = *w.ExpandDependencies
	}
	if w.MaxDepth > 0 {
		c.MaxDepth = w.MaxDepth
	}
	if w.Concurrency > 0 {
		c.Concurrency = w.Concurrency
	}

	setString(&c.OutputPath, app.Output.Path)
	setString(&c.ReportDir, app.Output.ReportDir)
	setString(&c.StoreDriver, app.Store.Driver)
	setString(&c.StoreDSN, app.Store.DSN)
	setString(&c.LogDir, app.Log.Dir)
	if app.Log.Verbose {
		c.Verbose = true
	}
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// ParseBool accepts 1, true, yes, y and on (any case) as true. Everything
// else is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
