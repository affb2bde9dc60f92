// Package testutil provides common test utilities for bookfill.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestEnv is a sandboxed working area rooted in t.TempDir(). Paths handed
// out by it never escape the sandbox.
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

// Path returns an absolute path within the test environment.
func (e *TestEnv) Path(elem ...string) string {
	e.t.Helper()

	cleanPath := filepath.Clean(filepath.Join(e.rootDir, filepath.Join(elem...)))
	cleanRoot := filepath.Clean(e.rootDir)
	if cleanPath != cleanRoot && !strings.HasPrefix(cleanPath, cleanRoot+string(filepath.Separator)) {
		e.t.Fatalf("path %q escapes test sandbox %q", cleanPath, e.rootDir)
	}

	return cleanPath
}

// WriteFileString writes content to a file within the test environment,
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

// Chdir makes the sandbox root the working directory until the test completes.
func (e *TestEnv) Chdir() {
	e.t.Helper()

	origDir, err := os.Getwd()
	if err != nil {
		e.t.Fatalf("failed to get current directory: %v", err)
	}
	if err := os.Chdir(e.rootDir); err != nil {
		e.t.Fatalf("failed to change directory to %q: %v", e.rootDir, err)
	}

	e.t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			e.t.Errorf("failed to restore directory to %q: %v", origDir, err)
		}
	})
}

// SetEnv sets an environment variable and restores it when the test completes.
func (e *TestEnv) SetEnv(key, value string) {
	e.t.Helper()
	restoreEnv(e.t, key)
	if err := os.Setenv(key, value); err != nil {
		e.t.Fatalf("failed to set environment variable %q: %v", key, err)
	}
}

// UnsetEnv removes an environment variable and restores it when the test completes.
func (e *TestEnv) UnsetEnv(key string) {
	e.t.Helper()
	restoreEnv(e.t, key)
	if err := os.Unsetenv(key); err != nil {
		e.t.Fatalf("failed to unset environment variable %q: %v", key, err)
	}
}

func restoreEnv(t *testing.T, key string) {
	oldValue, hadValue := os.LookupEnv(key)
	t.Cleanup(func() {
		if hadValue {
			_ = os.Setenv(key, oldValue)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}
