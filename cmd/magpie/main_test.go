package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewIssueFinder_UnconfiguredIsNil(t *testing.T) {
	t.Setenv("MAGPIE_JIRA_URL", "")
	finder, err := newIssueFinder(".jira-auth", "")
	if err != nil {
		t.Fatalf("newIssueFinder: %v", err)
	}
	if finder != nil {
		t.Error("finder should be nil when Jira is unconfigured")
	}
}

func TestNewIssueFinder_RequiresProject(t *testing.T) {
	t.Setenv("MAGPIE_JIRA_URL", "https://jira.example.com")
	t.Setenv("MAGPIE_JIRA_PROJECT", "")
	if _, err := newIssueFinder(".jira-auth", ""); err == nil {
		t.Error("expected error when project is missing")
	}
}

func TestNewIssueFinder_ParsesAuthFile(t *testing.T) {
	t.Setenv("MAGPIE_JIRA_URL", "https://jira.example.com")
	authPath := filepath.Join(t.TempDir(), ".jira-auth")
	if err := os.WriteFile(authPath, []byte("qa@example.com:tok-123\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	finder, err := newIssueFinder(authPath, "FIN")
	if err != nil {
		t.Fatalf("newIssueFinder: %v", err)
	}
	if finder == nil {
		t.Fatal("expected a finder")
	}

	badPath := filepath.Join(t.TempDir(), ".jira-auth")
	if err := os.WriteFile(badPath, []byte("no-colon-here\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := newIssueFinder(badPath, "FIN"); err == nil {
		t.Error("expected error for malformed auth file")
	}
}
