package solc

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/VectorBits/solflow/src/internal/logger"
	"github.com/VectorBits/solflow/src/internal/workflow"
)

// SolcManager solc 版本管理器
type SolcManager struct {
	mu           sync.RWMutex
	versionCache map[string]string // version -> solc path
}

var (
	defaultManager *SolcManager
	once           sync.Once

	pragmaRe  = regexp.MustCompile(`pragma\s+solidity\s+([^;]+);`)
	versionRe = regexp.MustCompile(`(\d+\.\d+\.\d+)`)
)

func GetManager() *SolcManager {
	once.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

func NewManager() *SolcManager {
	return &SolcManager{versionCache: make(map[string]string)}
}

// ExtractPragmaVersion 从合约源码中提取 pragma solidity 版本
func ExtractPragmaVersion(source string) string {
	// pragma solidity ^0.8.16; 或 pragma solidity >=0.8.0 <0.9.0;
	matches := pragmaRe.FindAllStringSubmatch(source, -1)
	if len(matches) == 0 {
		return ""
	}

	var versions []string
	for _, match := range matches {
		versions = append(versions, versionRe.FindAllString(match[1], -1)...)
	}
	return highest(versions)
}

func highest(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	sorted := append([]string(nil), versions...)
	sort.Slice(sorted, func(i, j int) bool {
		return compareVersions(sorted[i], sorted[j]) > 0
	})
	return sorted[0]
}

func compareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")
	for i := 0; i < 3; i++ {
		var n1, n2 int
		if i < len(parts1) {
			fmt.Sscanf(parts1[i], "%d", &n1)
		}
		if i < len(parts2) {
			fmt.Sscanf(parts2[i], "%d", &n2)
		}
		if n1 != n2 {
			return n1 - n2
		}
	}
	return 0
}

// DetectVersion returns the highest pragma version across the .sol files
// of target, which may be a file or a directory. Dependency, test and
// script directories are not scanned.
func DetectVersion(target string) (string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("stat target: %w", err)
	}

	var versions []string
	collect := func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if v := ExtractPragmaVersion(string(data)); v != "" {
			versions = append(versions, v)
		}
		return nil
	}

	if !info.IsDir() {
		if err := collect(target); err != nil {
			return "", fmt.Errorf("read %s: %w", target, err)
		}
	} else {
		err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != target && (workflow.IsExcludedDir(d.Name()) || strings.HasPrefix(d.Name(), ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(d.Name(), ".sol") {
				return collect(path)
			}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("scan %s: %w", target, err)
		}
	}

	v := highest(versions)
	if v == "" {
		return "", fmt.Errorf("no pragma solidity found under %s", target)
	}
	return v, nil
}

// Resolve detects the target's compiler version and finds a local binary.
func (m *SolcManager) Resolve(target string) (path, version string, err error) {
	version, err = DetectVersion(target)
	if err != nil {
		return "", "", err
	}
	path, err = m.GetSolcPath(version)
	if err != nil {
		return "", version, err
	}
	logger.Debug("solc: using %s for pragma %s", path, version)
	return path, version, nil
}

// GetSolcPath 获取指定版本的 solc 路径（带缓存）
func (m *SolcManager) GetSolcPath(version string) (string, error) {
	if version == "" {
		return "", fmt.Errorf("version is empty")
	}

	version = normalizeVersion(version)

	m.mu.RLock()
	if path, ok := m.versionCache[version]; ok {
		m.mu.RUnlock()
		if fileExists(path) {
			return path, nil
		}
	} else {
		m.mu.RUnlock()
	}

	// 方法1: 检查 solc-select 安装的版本
	path, err := m.trySolcSelect(version)
	if err == nil && path != "" {
		m.cachePath(version, path)
		return path, nil
	}

	// 方法2: 检查 ~/.solcx 目录（py-solc-x 安装位置）
	path, err = m.trySolcx(version)
	if err == nil && path != "" {
		m.cachePath(version, path)
		return path, nil
	}

	return "", fmt.Errorf("solc %s not installed, install it with: solc-select install %s", version, version)
}

func normalizeVersion(version string) string {
	version = strings.TrimSpace(version)
	version = strings.TrimPrefix(version, "v")
	for _, prefix := range []string{"^", ">=", "<=", ">", "<", "~", "="} {
		version = strings.TrimPrefix(version, prefix)
	}
	return strings.TrimSpace(version)
}

func (m *SolcManager) cachePath(version, path string) {
	m.mu.Lock()
	m.versionCache[version] = path
	m.mu.Unlock()
}

// trySolcSelect looks for an installed solc-select artifact:
//
//	Linux/macOS: ~/.solc-select/artifacts/solc-{version}/solc-{version}
//	Windows: %USERPROFILE%\.solc-select\artifacts\solc-{version}\solc-{version}.exe
func (m *SolcManager) trySolcSelect(version string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	var possiblePaths []string
	solcSelectDir := filepath.Join(homeDir, ".solc-select", "artifacts", fmt.Sprintf("solc-%s", version))

	if runtime.GOOS == "windows" {
		possiblePaths = []string{
			filepath.Join(solcSelectDir, fmt.Sprintf("solc-%s.exe", version)),
			filepath.Join(solcSelectDir, "solc.exe"),
		}
	} else {
		possiblePaths = []string{
			filepath.Join(solcSelectDir, fmt.Sprintf("solc-%s", version)),
			filepath.Join(homeDir, ".solc-select", "artifacts", version, fmt.Sprintf("solc-%s", version)),
		}
	}

	for _, path := range possiblePaths {
		if fileExists(path) && isExecutable(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("solc-select version %s not found", version)
}

func (m *SolcManager) trySolcx(version string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	solcxDir := filepath.Join(homeDir, ".solcx")
	possiblePaths := []string{
		filepath.Join(solcxDir, fmt.Sprintf("solc-v%s", version)),
		filepath.Join(solcxDir, fmt.Sprintf("solc-v%s", version), fmt.Sprintf("solc-v%s", version)),
		filepath.Join(solcxDir, fmt.Sprintf("solc-%s", version)),
	}

	if runtime.GOOS == "darwin" {
		possiblePaths = append(possiblePaths,
			filepath.Join(solcxDir, fmt.Sprintf("solc-v%s", version), "bin", "solc"),
		)
	}

	for _, path := range possiblePaths {
		if fileExists(path) && isExecutable(path) {
			return path, nil
		}
	}

	return "", fmt.Errorf("solcx version %s not found", version)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	// Windows 上所有文件都可以执行，只需检查文件存在
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0111 != 0
}
