package cmd

import (
	"testing"
)

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3")
	if version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %s", version)
	}
	if rootCmd.Version != "1.2.3" {
		t.Errorf("expected root command version 1.2.3, got %s", rootCmd.Version)
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	expected := []string{"sync", "export", "download", "version"}
	for _, name := range expected {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}
}

func TestSyncCmdValidatesCredentials(t *testing.T) {
	t.Setenv("ZOOM_CLIENT_ID", "")
	t.Setenv("ZOOM_CLIENT_SECRET", "")
	t.Setenv("ZOOM_ACCOUNT_ID", "")

	cmd := newSyncCmd()
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Error("expected sync to fail without Zoom credentials")
	}
}
