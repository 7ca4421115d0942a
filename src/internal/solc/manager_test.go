package solc

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPragmaVersion(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"pragma solidity ^0.8.16;", "0.8.16"},
		{"pragma solidity >=0.8.0 <0.9.0;", "0.9.0"},
		{"pragma solidity 0.6.12;\npragma solidity ^0.7.6;", "0.7.6"},
		{"pragma solidity 0.8.9;\npragma solidity 0.8.10;", "0.8.10"},
		{"pragma abicoder v2;", ""},
		{"contract A {}", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractPragmaVersion(tt.source), tt.source)
	}
}

func TestCompareVersions(t *testing.T) {
	assert.Positive(t, compareVersions("0.8.10", "0.8.9"))
	assert.Negative(t, compareVersions("0.4.26", "0.5.0"))
	assert.Zero(t, compareVersions("0.8.20", "0.8.20"))
}

func TestNormalizeVersion(t *testing.T) {
	assert.Equal(t, "0.8.16", normalizeVersion(" ^0.8.16 "))
	assert.Equal(t, "0.8.0", normalizeVersion(">=0.8.0"))
	assert.Equal(t, "0.7.6", normalizeVersion("v0.7.6"))
}

func writeSol(t *testing.T, path, pragma string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("// SPDX-License-Identifier: MIT\npragma solidity "+pragma+";\ncontract X {}\n"), 0644))
}

func TestDetectVersion(t *testing.T) {
	root := t.TempDir()
	writeSol(t, filepath.Join(root, "src", "Vault.sol"), "^0.8.19")
	writeSol(t, filepath.Join(root, "src", "util", "Math.sol"), "0.8.20")
	writeSol(t, filepath.Join(root, "lib", "forge-std", "Test.sol"), "0.8.26")
	writeSol(t, filepath.Join(root, ".cache", "Old.sol"), "0.8.30")

	v, err := DetectVersion(root)
	require.NoError(t, err)
	assert.Equal(t, "0.8.20", v)

	v, err = DetectVersion(filepath.Join(root, "src", "Vault.sol"))
	require.NoError(t, err)
	assert.Equal(t, "0.8.19", v)

	_, err = DetectVersion(t.TempDir())
	assert.Error(t, err)

	_, err = DetectVersion(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestGetSolcPathFromSolcSelect(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("artifact layout differs on windows")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	bin := filepath.Join(home, ".solc-select", "artifacts", "solc-0.8.20", "solc-0.8.20")
	require.NoError(t, os.MkdirAll(filepath.Dir(bin), 0755))
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755))

	m := NewManager()
	path, err := m.GetSolcPath("^0.8.20")
	require.NoError(t, err)
	assert.Equal(t, bin, path)

	_, err = m.GetSolcPath("0.4.11")
	assert.Error(t, err)
	_, err = m.GetSolcPath("")
	assert.Error(t, err)
}

func TestResolveFromSolcx(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("artifact layout differs on windows")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	bin := filepath.Join(home, ".solcx", "solc-v0.7.6")
	require.NoError(t, os.MkdirAll(filepath.Dir(bin), 0755))
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755))

	project := t.TempDir()
	writeSol(t, filepath.Join(project, "contracts", "Pool.sol"), "=0.7.6")

	path, version, err := NewManager().Resolve(project)
	require.NoError(t, err)
	assert.Equal(t, "0.7.6", version)
	assert.Equal(t, bin, path)
}
