package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Console output goes to stderr: stdout is reserved for the workflow document.
var (
	fileLogger  *log.Logger
	logFile     *os.File
	initialized bool
	verbose     bool
	consoleMu   sync.Mutex
	console     io.Writer = os.Stderr
)

// InitLogger 初始化文件日志
func InitLogger(logDir string) (string, error) {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("solflow_%s.log", timestamp))

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f

	fileLogger = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	initialized = true
	return logPath, nil
}

func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	initialized = false
}

// SetVerbose echoes debug lines to the console.
func SetVerbose(v bool) {
	consoleMu.Lock()
	verbose = v
	consoleMu.Unlock()
}

// SetOutput replaces the console writer. Used by tests.
func SetOutput(w io.Writer) {
	consoleMu.Lock()
	console = w
	consoleMu.Unlock()
}

func format(level, f string, v ...interface{}) string {
	msg := fmt.Sprintf(f, v...)
	if len(msg) == 0 || msg[len(msg)-1] != '\n' {
		msg += "\n"
	}
	return "[" + level + "] " + msg
}

func emit(level string, toConsole bool, f string, v ...interface{}) {
	msg := format(level, f, v...)
	consoleMu.Lock()
	defer consoleMu.Unlock()
	if initialized {
		fileLogger.Output(3, msg)
	}
	if toConsole {
		fmt.Fprint(console, msg)
	}
}

func InfoFileOnly(format string, v ...interface{}) {
	if !initialized {
		return
	}
	emit("INFO", false, format, v...)
}

func Info(format string, v ...interface{}) {
	emit("INFO", true, format, v...)
}

func Debug(format string, v ...interface{}) {
	consoleMu.Lock()
	echo := verbose
	consoleMu.Unlock()
	if !initialized && !echo {
		return
	}
	emit("DEBUG", echo, format, v...)
}

func Warn(format string, v ...interface{}) {
	emit("WARN", true, format, v...)
}

func Error(format string, v ...interface{}) {
	emit("ERROR", true, format, v...)
}
