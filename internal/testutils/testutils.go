package testutils

import (
	"path/filepath"
	"strings"
	"testing"
)

// CreateTestDBPath creates a temporary SQLite database file path for testing
func CreateTestDBPath(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	return filepath.Join(tmpDir, "test.db")
}

// AssertNoError is a helper to check for no error
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertErrorContains checks that an error occurred and mentions the fragment
func AssertErrorContains(t *testing.T, err error, fragment string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error containing '%s', got nil", fragment)
	}
	if !strings.Contains(err.Error(), fragment) {
		t.Fatalf("Expected error containing '%s', got: %v", fragment, err)
	}
}

// AssertEqual checks if two values are equal
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// AssertNotEqual checks if two values are not equal
func AssertNotEqual(t *testing.T, got, notWant interface{}) {
	t.Helper()
	if got == notWant {
		t.Errorf("got %v, expected it to be different", got)
	}
}
