// Package testutil provides common test utilities for the aoidata project.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestEnv provides a sandboxed test environment that validates all paths
// stay within a temporary directory. It is cleaned up with the test.
type TestEnv struct {
	t       *testing.T
	rootDir string
}

// NewTestEnv creates a new sandboxed test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return &TestEnv{
		t:       t,
		rootDir: t.TempDir(),
	}
}

// RootDir returns the root directory of the test environment.
func (e *TestEnv) RootDir() string {
	return e.rootDir
}

// Path returns an absolute path within the test environment. It fails the
// test when the path escapes the sandbox.
func (e *TestEnv) Path(elem ...string) string {
	e.t.Helper()

	relPath := filepath.Join(elem...)
	cleanPath := filepath.Clean(filepath.Join(e.rootDir, relPath))

	if !e.isWithinSandbox(cleanPath) {
		e.t.Fatalf("path %q escapes test sandbox %q", cleanPath, e.rootDir)
	}
	return cleanPath
}

func (e *TestEnv) isWithinSandbox(path string) bool {
	cleanRoot := filepath.Clean(e.rootDir)
	cleanPath := filepath.Clean(path)
	return strings.HasPrefix(cleanPath, cleanRoot+string(filepath.Separator)) || cleanPath == cleanRoot
}

// WriteFileString writes a string to a file within the test environment,
// creating parent directories as needed.
func (e *TestEnv) WriteFileString(path, content string) {
	e.t.Helper()

	absPath := e.Path(path)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		e.t.Fatalf("failed to create directory for %q: %v", absPath, err)
	}
	if err := os.WriteFile(absPath, []byte(content), 0o644); err != nil {
		e.t.Fatalf("failed to write file %q: %v", absPath, err)
	}
}

// ReadFileString reads a file as a string from within the test environment.
func (e *TestEnv) ReadFileString(path string) string {
	e.t.Helper()

	content, err := os.ReadFile(e.Path(path))
	if err != nil {
		e.t.Fatalf("failed to read file %q: %v", e.Path(path), err)
	}
	return string(content)
}

// MkdirAll creates a directory and all necessary parents within the
// test environment.
func (e *TestEnv) MkdirAll(path string) {
	e.t.Helper()

	if err := os.MkdirAll(e.Path(path), 0o755); err != nil {
		e.t.Fatalf("failed to create directory %q: %v", e.Path(path), err)
	}
}

// FileExists checks if a file exists within the test environment.
func (e *TestEnv) FileExists(path string) bool {
	e.t.Helper()

	_, err := os.Stat(e.Path(path))
	return err == nil
}

// RequireFileExists asserts that a file exists within the test environment.
func (e *TestEnv) RequireFileExists(path string) {
	e.t.Helper()

	if !e.FileExists(path) {
		e.t.Fatalf("expected file %q to exist", e.Path(path))
	}
}
