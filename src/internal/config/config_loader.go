package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type AnalyzerConfig struct {
	Backend     string   `yaml:"backend" toml:"backend"`
	PythonPath  string   `yaml:"python_path" toml:"python_path"`
	SlitherRepo string   `yaml:"slither_repo" toml:"slither_repo"`
	Solc        string   `yaml:"solc" toml:"solc"`
	SolcArgs    string   `yaml:"solc_args" toml:"solc_args"`
	AutoSolc    *bool    `yaml:"auto_solc" toml:"auto_solc"`
	FilterPaths []string `yaml:"filter_paths" toml:"filter_paths"`
	ModelFile   string   `yaml:"model_file" toml:"model_file"`
	// Timeout is in seconds.
	Timeout int `yaml:"timeout" toml:"timeout"`
}

type WorkflowConfig struct {
	ExcludeDependencies *bool `yaml:"exclude_dependencies" toml:"exclude_dependencies"`
	ExpandDependencies  *bool `yaml:"expand_dependencies" toml:"expand_dependencies"`
	MaxDepth            int   `yaml:"max_depth" toml:"max_depth"`
	Concurrency         int   `yaml:"concurrency" toml:"concurrency"`
}

type OutputConfig struct {
	Path      string `yaml:"path" toml:"path"`
	ReportDir string `yaml:"report_dir" toml:"report_dir"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	DSN    string `yaml:"dsn" toml:"dsn"`
}

type LogConfig struct {
	Dir     string `yaml:"dir" toml:"dir"`
	Verbose bool   `yaml:"verbose" toml:"verbose"`
}

type AppConfig struct {
	Analyzer AnalyzerConfig `yaml:"analyzer" toml:"analyzer"`
	Workflow WorkflowConfig `yaml:"workflow" toml:"workflow"`
	Output   OutputConfig   `yaml:"output" toml:"output"`
	Store    StoreConfig    `yaml:"store" toml:"store"`
	Log      LogConfig      `yaml:"log" toml:"log"`
}

var loadOnce sync.Once
var loadedConfig *AppConfig
var loadedErr error

// LoadConfig 加载 YAML 配置
func LoadConfig() (*AppConfig, error) {
	loadOnce.Do(func() {
		configPath := findConfigFile()
		if configPath == "" {
			loadedErr = fmt.Errorf("no settings.yaml or settings.toml found")
			return
		}

		config, err := LoadConfigFile(configPath)
		if err != nil {
			loadedErr = err
			return
		}

		loadedConfig = config
	})

	if loadedErr != nil {
		return nil, loadedErr
	}
	return loadedConfig, nil
}

// LoadConfigFile parses one settings file without touching the cached
// global configuration.
func LoadConfigFile(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var config AppConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &config); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
		}
	}
	return &config, nil
}

func findConfigFile() string {
	possiblePaths := []string{
		"config/settings.yaml",
		"settings.yaml",
		"src/config/settings.yaml",
		"../config/settings.yaml",
		"config/settings.toml",
		"settings.toml",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
