package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Gray   = "\033[37m"
	Bold   = "\033[1m"
)

// Terminal output goes to stderr; stdout carries the workflow document.
var (
	out         io.Writer = os.Stderr
	interactive           = isTerminal(os.Stderr)
	mu          sync.Mutex
)

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetOutput replaces the terminal writer; nil restores stderr. Spinners
// and progress bars are drawn on any explicit writer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		out = os.Stderr
		interactive = isTerminal(os.Stderr)
		return
	}
	out = w
	interactive = true
}

// Interactive reports whether animated output is drawn.
func Interactive() bool {
	mu.Lock()
	defer mu.Unlock()
	return interactive
}

func PrintBanner() {
	banner := `
           _  __ _
 ___  ___ | |/ _| | _____      __
/ __|/ _ \| | |_| |/ _ \ \ /\ / /
\__ \ (_) | |  _| | (_) \ V  V /
|___/\___/|_|_| |_|\___/ \_/\_/
`
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(out, Cyan+banner+Reset)
	fmt.Fprintln(out, Gray+"  Solidity workflow extractor: entry point call trees and state writers"+Reset)
	fmt.Fprintln(out)
}

func clearLine() {
	fmt.Fprint(out, "\r\033[K")
}

func LogSuccess(format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	clearLine()
	fmt.Fprintf(out, Green+"[SUCCESS] "+Reset+format+"\n", a...)
}

func LogInfo(format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	clearLine()
	fmt.Fprintf(out, Blue+"[INFO] "+Reset+format+"\n", a...)
}

func LogError(format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	clearLine()
	fmt.Fprintf(out, Red+"[ERROR] "+Reset+format+"\n", a...)
}

// StartSpinner animates msg until the returned channel is closed or written.
func StartSpinner(msg string) chan bool {
	stop := make(chan bool)
	if !Interactive() {
		return stop
	}
	go func() {
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		i := 0
		for {
			select {
			case <-stop:
				mu.Lock()
				clearLine()
				mu.Unlock()
				return
			default:
				mu.Lock()
				clearLine()
				fmt.Fprintf(out, Cyan+"%s %s"+Reset, frames[i%len(frames)], msg)
				mu.Unlock()
				time.Sleep(100 * time.Millisecond)
				i++
			}
		}
	}()
	return stop
}

// Summary is what PrintSummary reports after a run.
type Summary struct {
	Target      string
	Files       int
	EntryPoints int
	Variables   int
	OutputPath  string
	ReportPath  string
	RunID       string
	Duration    time.Duration
}

func PrintSummary(s Summary) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(out)
	fmt.Fprintln(out, Gray+strings.Repeat("─", 50)+Reset)
	fmt.Fprintf(out, "🏁 Extraction of %s completed in %s\n", s.Target, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "📊 Files: %d | 🚪 Entry Points: %d | ✏️  Written Variables: %d\n", s.Files, s.EntryPoints, s.Variables)
	if s.OutputPath != "" {
		fmt.Fprintf(out, "📄 Document: %s\n", s.OutputPath)
	}
	if s.ReportPath != "" {
		fmt.Fprintf(out, "📝 Report: %s\n", s.ReportPath)
	}
	if s.RunID != "" {
		fmt.Fprintf(out, "🗄️  Run ID: %s\n", s.RunID)
	}
	fmt.Fprintln(out, Gray+strings.Repeat("─", 50)+Reset)
}
