package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/VectorBits/solflow/src/cmd"
)

//go:embed config/settings.example.yaml
var exampleSettings []byte

func main() {
	if err := cmd.Run(initConfigFile); err != nil {
		cmd.PrintFatal(err)
	}
}

func initConfigFile() (string, error) {
	targetDir := "config"
	targetFile := filepath.Join(targetDir, "settings.yaml")

	// 检查目标文件是否存在
	if _, err := os.Stat(targetFile); err == nil {
		return "", fmt.Errorf("%s already exists", targetFile)
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(targetFile, exampleSettings, 0644); err != nil {
		return "", err
	}
	return targetFile, nil
}
