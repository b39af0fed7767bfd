package conf

import (
	"os"
	"path/filepath"
	"testing"
)

func resetConfig(t *testing.T) {
	t.Helper()
	original := config
	config = nil
	t.Cleanup(func() { config = original })
}

func TestConfigDefaults(t *testing.T) {
	resetConfig(t)
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	got := GetConfig()
	if got.Server.DataDir != filepath.Join(tmp, ".deployer") {
		t.Fatalf("expected default data dir, got %q", got.Server.DataDir)
	}
	if got.Work.Dir != filepath.Join(tmp, ".deployer", "work") {
		t.Fatalf("expected default work dir, got %q", got.Work.Dir)
	}
	if got.Pages.PollTimeoutSeconds != 180 {
		t.Fatalf("expected default poll timeout, got %d", got.Pages.PollTimeoutSeconds)
	}
	if got.Pages.PollIntervalSeconds != 3 {
		t.Fatalf("expected default poll interval, got %d", got.Pages.PollIntervalSeconds)
	}
	if got.Notify.MaxAttempts != 6 {
		t.Fatalf("expected default notify attempts, got %d", got.Notify.MaxAttempts)
	}
	if got.Version == "" {
		t.Fatalf("expected version to be set")
	}
}

func TestConfigJSONOverride(t *testing.T) {
	resetConfig(t)
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	dataDir := filepath.Join(tmp, ".deployer")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := `{"pages":{"poll_timeout_seconds":10},"notify":{"max_attempts":2}}`
	if err := os.WriteFile(filepath.Join(dataDir, "deployer.json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	got := GetConfig()
	if got.Pages.PollTimeoutSeconds != 10 {
		t.Fatalf("expected overridden poll timeout, got %d", got.Pages.PollTimeoutSeconds)
	}
	if got.Notify.MaxAttempts != 2 {
		t.Fatalf("expected overridden notify attempts, got %d", got.Notify.MaxAttempts)
	}
	if got.Pages.PollIntervalSeconds != 3 {
		t.Fatalf("expected default poll interval to survive, got %d", got.Pages.PollIntervalSeconds)
	}
}

func TestConfigYAMLOverride(t *testing.T) {
	resetConfig(t)
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	dataDir := filepath.Join(tmp, ".deployer")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := "pages:\n  poll_interval_seconds: 1\n"
	if err := os.WriteFile(filepath.Join(dataDir, "deployer.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	got := GetConfig()
	if got.Pages.PollIntervalSeconds != 1 {
		t.Fatalf("expected yaml poll interval, got %d", got.Pages.PollIntervalSeconds)
	}
}
