package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/helmling/arbor/internal/testutil"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}

	if cfg.Workspace.BaseDir == "" {
		t.Error("default BaseDir is empty")
	}
	if cfg.Workspace.DisableOrphanScan {
		t.Error("orphan scan should be enabled by default")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log level = %q, want info", cfg.Log.Level)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	testutil.WriteFile(t, path, `
workspace:
  base_dir: /srv/arbor/workspaces
  disable_orphan_scan: true
automerge:
  enabled: true
log:
  level: debug
  json: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Workspace.BaseDir != "/srv/arbor/workspaces" {
		t.Errorf("BaseDir = %q", cfg.Workspace.BaseDir)
	}
	if !cfg.Workspace.DisableOrphanScan {
		t.Error("DisableOrphanScan not read from file")
	}
	if !cfg.AutoMerge.Enabled {
		t.Error("AutoMerge.Enabled not read from file")
	}
	if cfg.Log.Level != "debug" || !cfg.Log.JSON {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	testutil.WriteFile(t, path, "workspace:\n  base_dir: /from/file\n")

	t.Setenv("ARBOR_WORKSPACE_BASE_DIR", "/from/env")
	t.Setenv("ARBOR_DISABLE_ORPHAN_SCAN", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Workspace.BaseDir != "/from/env" {
		t.Errorf("BaseDir = %q, want env override", cfg.Workspace.BaseDir)
	}
	if !cfg.Workspace.DisableOrphanScan {
		t.Error("env override for DisableOrphanScan not applied")
	}
}

func TestEnvForgeTokenFallback(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "gh-secret")
	t.Setenv("ARBOR_FORGE_GITLAB_TOKEN", "gl-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Forge.GitHubToken != "gh-secret" {
		t.Errorf("GitHubToken = %q, want fallback GITHUB_TOKEN", cfg.Forge.GitHubToken)
	}
	if cfg.Forge.GitLabToken != "gl-secret" {
		t.Errorf("GitLabToken = %q, want prefixed name", cfg.Forge.GitLabToken)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	testutil.WriteFile(t, path, "workspace: [not a mapping\n")

	if _, err := Load(path); err == nil {
		t.Error("Load should fail on malformed YAML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := NewDefault()
	cfg.Workspace.BaseDir = "/srv/arbor"
	cfg.AutoMerge.OpenReviews = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Workspace.BaseDir != "/srv/arbor" || !loaded.AutoMerge.OpenReviews {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadDotEnv(t *testing.T) {
	base := t.TempDir()
	testutil.WriteFile(t, filepath.Join(base, ArborDir, EnvFileName),
		"ARBOR_TEST_DOTENV_VALUE=from-dotenv\n")

	t.Setenv("ARBOR_TEST_DOTENV_VALUE", "")
	os.Unsetenv("ARBOR_TEST_DOTENV_VALUE")

	if err := LoadDotEnv(base); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("ARBOR_TEST_DOTENV_VALUE"); got != "from-dotenv" {
		t.Errorf("dotenv value = %q", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(t.TempDir()); err != nil {
		t.Errorf("LoadDotEnv on missing file: %v", err)
	}
}

func TestLoadDotEnvKeepsProcessEnv(t *testing.T) {
	base := t.TempDir()
	testutil.WriteFile(t, filepath.Join(base, ArborDir, EnvFileName),
		"ARBOR_TEST_PRIORITY=from-dotenv\n")

	t.Setenv("ARBOR_TEST_PRIORITY", "from-process")

	if err := LoadDotEnv(base); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("ARBOR_TEST_PRIORITY"); got != "from-process" {
		t.Errorf("process env overridden: %q", got)
	}
}
