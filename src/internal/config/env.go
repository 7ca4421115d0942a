package config

import (
	"os"
	"strconv"
)

// Environment overrides, applied between settings.yaml and flags.
const (
	EnvPythonPath  = "SOLFLOW_PYTHON"
	EnvSlitherRepo = "SOLFLOW_SLITHER_REPO"
	EnvSolc        = "SOLFLOW_SOLC"
	EnvStoreDriver = "SOLFLOW_STORE_DRIVER"
	EnvStoreDSN    = "SOLFLOW_STORE_DSN"
	EnvMaxDepth    = "SOLFLOW_MAX_DEPTH"
)

func (c *WorkflowConfiguration) ApplyEnv() {
	c.PythonPath = getEnv(EnvPythonPath, c.PythonPath)
	c.SlitherRepo = getEnv(EnvSlitherRepo, c.SlitherRepo)
	c.Solc = getEnv(EnvSolc, c.Solc)
	c.StoreDriver = getEnv(EnvStoreDriver, c.StoreDriver)
	c.StoreDSN = getEnv(EnvStoreDSN, c.StoreDSN)
	c.MaxDepth = getEnvAsInt(EnvMaxDepth, c.MaxDepth)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
