package workflow

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/VectorBits/solflow/src/internal/model"
)

// Location is a 0-based position relative to the workspace root.
type Location struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Character int    `json:"character"`
}

// ResolveLocation maps an entity to a workspace-relative position. The
// absolute filename rebased on the root wins, then the model's relative
// filename, then the raw absolute one. ok is false when no filename exists.
func ResolveLocation(m model.Mappable, workspaceRoot string) (Location, bool) {
	if m == nil {
		return Location{}, false
	}
	src := m.Mapping()
	if src == nil {
		return Location{}, false
	}

	filename := rebase(src.Absolute, workspaceRoot)
	if filename == "" {
		filename = src.Relative
	}
	if filename == "" {
		filename = src.Absolute
	}
	if filename == "" {
		return Location{}, false
	}

	if len(src.Lines) == 0 {
		return Location{File: filename}, true
	}
	line := src.Lines[0] - 1
	if line < 0 {
		line = 0
	}
	return Location{File: filename, Line: line}, true
}

func rebase(absolute, workspaceRoot string) string {
	if absolute == "" || workspaceRoot == "" || !filepath.IsAbs(absolute) {
		return ""
	}
	root := workspaceRoot
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		root = filepath.Dir(root)
	}
	rel, err := filepath.Rel(root, absolute)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}

func locationPtr(m model.Mappable, workspaceRoot string) *Location {
	loc, ok := ResolveLocation(m, workspaceRoot)
	if !ok {
		return nil
	}
	return &loc
}
