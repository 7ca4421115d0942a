package workflow

import (
	"strings"

	"github.com/VectorBits/solflow/src/internal/model"
)

// excludedDirs are path segments that mark vendored, test or script code.
var excludedDirs = map[string]struct{}{
	"lib":          {},
	"dependencies": {},
	"test":         {},
	"tests":        {},
	"script":       {},
	"scripts":      {},
	"node_modules": {},
	"mock":         {},
	"mocks":        {},
}

// IsExcludedDir reports whether a single path segment is on the denylist.
func IsExcludedDir(segment string) bool {
	_, ok := excludedDirs[segment]
	return ok
}

// IsDependency reports whether the entity comes from dependency, test or
// mock code. Unknown entities count as first-party.
func IsDependency(m model.Mappable) bool {
	if m == nil {
		return false
	}
	src := m.Mapping()
	if src == nil {
		return false
	}
	if src.IsDependency {
		return true
	}
	filename := src.Relative
	if filename == "" {
		filename = src.Absolute
	}
	if filename == "" {
		return false
	}
	for _, part := range strings.Split(strings.ReplaceAll(filename, "\\", "/"), "/") {
		if IsExcludedDir(part) {
			return true
		}
	}
	return false
}
