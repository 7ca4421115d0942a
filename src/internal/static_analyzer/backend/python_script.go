package backend

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/VectorBits/solflow/src/internal/logger"
)

//go:embed slither_export.py
var exportScriptContent []byte

// extractOnce ensures we only resolve the script path once per process execution
var extractOnce sync.Once
var extractedScriptPath string
var extractErr error

const maxErrOutput = 4096

// ErrSlitherUnavailable is returned when the interpreter cannot import Slither.
var ErrSlitherUnavailable = errors.New("slither is not importable")

// ExportRequest is written to the exporter's stdin.
type ExportRequest struct {
	Target      string   `json:"target"`
	Solc        string   `json:"solc,omitempty"`
	SolcArgs    string   `json:"solc_args,omitempty"`
	FilterPaths []string `json:"filter_paths,omitempty"`
	SlitherRepo string   `json:"slither_repo,omitempty"`
}

type exportResponse struct {
	Success   bool            `json:"success"`
	Program   json.RawMessage `json:"program"`
	Error     string          `json:"error"`
	ErrorKind string          `json:"error_kind"`
	Traceback string          `json:"traceback"`
}

// PythonScriptBackend 实现 Python 脚本后端
type PythonScriptBackend struct {
	scriptPath string
	pythonPath string
	timeout    time.Duration
}

// NewPythonScriptBackend 创建 Python 脚本后端
// 嵌入的 Python 脚本按内容哈希缓存，多次运行共用同一文件
func NewPythonScriptBackend(pythonPath string, timeout time.Duration) (*PythonScriptBackend, error) {
	path, err := ensureScriptExtracted()
	if err != nil {
		return nil, fmt.Errorf("failed to extract embedded script: %w", err)
	}

	if pythonPath == "" {
		pythonPath = "python3"
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}

	return &PythonScriptBackend{
		scriptPath: path,
		pythonPath: pythonPath,
		timeout:    timeout,
	}, nil
}

// ensureScriptExtracted 将嵌入的脚本写入用户缓存目录
func ensureScriptExtracted() (string, error) {
	extractOnce.Do(func() {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		extractedScriptPath, extractErr = extractScript(filepath.Join(dir, "solflow"))
	})

	return extractedScriptPath, extractErr
}

// extractScript writes the exporter under a name derived from its content,
// so repeated runs reuse one file instead of leaving a copy per process.
func extractScript(dir string) (string, error) {
	hash := crypto.Keccak256Hash(exportScriptContent).Hex()
	path := filepath.Join(dir, "slither_export_"+hash[2:14]+".py")
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, exportScriptContent) {
		return path, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create script directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "slither_export_*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(exportScriptContent); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write script content: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	_ = os.Chmod(tmpPath, 0755)

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to install script: %w", err)
	}
	return path, nil
}

// Export runs the exporter and returns the raw program document.
func (b *PythonScriptBackend) Export(ctx context.Context, req *ExportRequest) ([]byte, error) {
	inputJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal input failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.pythonPath, b.scriptPath)
	cmd.Stdin = bytes.NewReader(inputJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("analyzer: %s %s (target %s)", b.pythonPath, b.scriptPath, req.Target)
	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("python script timed out after %s: %w", b.timeout, ctx.Err())
		}
		errMsg := stderr.String()
		if errMsg == "" {
			errMsg = stdout.String()
		}
		return nil, fmt.Errorf("python script execution failed: %w, stderr: %s", err, truncate(errMsg))
	}
	logger.Debug("analyzer: model exported in %s (%d bytes)", time.Since(start).Round(time.Millisecond), stdout.Len())

	var response exportResponse
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		if stderrMsg := stderr.String(); stderrMsg != "" {
			return nil, fmt.Errorf("parse output failed: %w, stderr: %s", err, truncate(stderrMsg))
		}
		return nil, fmt.Errorf("parse output failed: %w, output: %s", err, truncate(stdout.String()))
	}

	if !response.Success {
		if response.ErrorKind == "import" {
			return nil, fmt.Errorf("%w by %s (set analyzer.python_path or analyzer.slither_repo): %s",
				ErrSlitherUnavailable, b.pythonPath, response.Error)
		}
		if response.Traceback != "" {
			logger.Debug("analyzer traceback:\n%s", response.Traceback)
		}
		return nil, fmt.Errorf("slither analysis failed: %s", response.Error)
	}
	if len(response.Program) == 0 {
		return nil, errors.New("python script returned no program")
	}
	return response.Program, nil
}

func truncate(s string) string {
	if len(s) > maxErrOutput {
		return s[:maxErrOutput] + "...(truncated)"
	}
	return s
}

// Close 目前不需要关闭操作
func (b *PythonScriptBackend) Close() error {
	return nil
}
