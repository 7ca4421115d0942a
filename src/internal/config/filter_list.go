package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadFilterPaths 从文件中读取过滤路径
// YAML files may hold a plain list or a {filter_paths: [...]} mapping;
// anything else is read line by line, skipping blanks and comments.
func ReadFilterPaths(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(path)))
	if ext == ".yaml" || ext == ".yml" {
		bs, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read filter file: %w", err)
		}

		var list []string
		if err := yaml.Unmarshal(bs, &list); err == nil && len(list) > 0 {
			return normalizeUniqueNonEmpty(list), nil
		}

		var wrapper struct {
			FilterPaths []string `yaml:"filter_paths"`
			Paths       []string `yaml:"paths"`
		}
		if err := yaml.Unmarshal(bs, &wrapper); err == nil {
			if len(wrapper.FilterPaths) > 0 {
				return normalizeUniqueNonEmpty(wrapper.FilterPaths), nil
			}
			if len(wrapper.Paths) > 0 {
				return normalizeUniqueNonEmpty(wrapper.Paths), nil
			}
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open filter file: %w", err)
	}
	defer file.Close()

	lines := make([]string, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan filter file: %w", err)
	}
	return normalizeUniqueNonEmpty(lines), nil
}

// MergeFilterPaths appends extra paths, dropping duplicates.
func MergeFilterPaths(base []string, extra ...string) []string {
	return normalizeUniqueNonEmpty(append(append([]string(nil), base...), extra...))
}

// Paths compare case-sensitively.
func normalizeUniqueNonEmpty(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		v := strings.TrimSpace(it)
		if v == "" || strings.HasPrefix(v, "#") || strings.HasPrefix(v, "//") {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
