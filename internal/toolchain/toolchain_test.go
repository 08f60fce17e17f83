package toolchain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantum-rust/quantumctl/internal/shim"
)

// writeFakeBinary creates an executable plain file.
func writeFakeBinary(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	return path
}

// writeShim installs a real shim wrapping target into dir.
func writeShim(t *testing.T, dir, name, target string) string {
	t.Helper()
	path, err := shim.Spec{Tool: name, RealPath: target, Version: "test"}.Write(dir)
	require.NoError(t, err)
	return path
}

func pathEnv(dirs ...string) string {
	return strings.Join(dirs, string(os.PathListSeparator))
}

func TestLookAll(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	a := writeFakeBinary(t, dirA, "rustc")
	b := writeFakeBinary(t, dirB, "rustc")

	// Non-executable files are not candidates.
	require.NoError(t, os.WriteFile(filepath.Join(dirB, "cargo"), []byte("data"), 0o644))

	found := LookAll("rustc", pathEnv(dirA, dirB))
	assert.Equal(t, []string{a, b}, found, "PATH order must be preserved")

	assert.Empty(t, LookAll("cargo", pathEnv(dirA, dirB)))
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	real := writeFakeBinary(t, dir, "rustc")

	shimDir := t.TempDir()
	good := writeShim(t, shimDir, "rustc", real)

	danglingDir := t.TempDir()
	dangling := writeShim(t, danglingDir, "rustc", filepath.Join(dir, "gone"))

	assert.Equal(t, KindReal, Classify(real))
	assert.Equal(t, KindShim, Classify(good))
	assert.Equal(t, KindBroken, Classify(dangling))
}

func TestFindRealSkipsShims(t *testing.T) {
	realDir := t.TempDir()
	real := writeFakeBinary(t, realDir, "rustc")

	binDir := t.TempDir()
	writeShim(t, binDir, "rustc", real)

	found, err := FindReal("rustc", pathEnv(binDir, realDir), binDir)
	require.NoError(t, err)
	assert.Equal(t, real, found)
}

func TestFindRealThroughShimTarget(t *testing.T) {
	// System-default deployment: the only PATH entry for the tool is the
	// shim, and the real binary lives outside PATH. The shim's exec line is
	// the only way back to it.
	realDir := t.TempDir()
	real := writeFakeBinary(t, realDir, "rustc")

	shimDir := t.TempDir()
	writeShim(t, shimDir, "rustc", real)

	found, err := FindReal("rustc", pathEnv(shimDir), "")
	require.NoError(t, err)
	assert.Equal(t, real, found)
}

func TestFindRealNotFound(t *testing.T) {
	_, err := FindReal("rustc", pathEnv(t.TempDir()), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve(t *testing.T) {
	realDir := t.TempDir()
	real := writeFakeBinary(t, realDir, "cargo")

	binDir := t.TempDir()
	shimPath := writeShim(t, binDir, "cargo", real)

	t.Run("active deployment", func(t *testing.T) {
		tool := Resolve("cargo", pathEnv(binDir, realDir), binDir)
		assert.Equal(t, real, tool.RealPath)
		assert.Equal(t, shimPath, tool.ShimPath)
		assert.True(t, tool.Active)
		assert.False(t, tool.Broken)
	})

	t.Run("inactive when shim dir not first", func(t *testing.T) {
		tool := Resolve("cargo", pathEnv(realDir, binDir), binDir)
		assert.False(t, tool.Active)
	})

	t.Run("missing tool", func(t *testing.T) {
		tool := Resolve("rustfmt", pathEnv(realDir), binDir)
		assert.Empty(t, tool.RealPath)
		assert.Empty(t, tool.ShimPath)
		assert.False(t, tool.Active)
	})
}

func TestResolveBrokenShim(t *testing.T) {
	binDir := t.TempDir()
	writeShim(t, binDir, "rustc", filepath.Join(binDir, "nonexistent"))

	tool := Resolve("rustc", pathEnv(binDir), binDir)
	assert.True(t, tool.Broken)
}

func TestBinDirOnPath(t *testing.T) {
	binDir := t.TempDir()
	other := t.TempDir()

	assert.True(t, BinDirOnPath(binDir, pathEnv(other, binDir)))
	assert.False(t, BinDirOnPath(binDir, pathEnv(other)))
}
