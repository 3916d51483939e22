package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmp.WriteString(yaml); err != nil {
		t.Fatalf("failed to write YAML: %v", err)
	}
	tmp.Close()
	return tmp.Name()
}

func TestLoadConfig_ParsesBackupSection(t *testing.T) {
	yaml := `
backup:
  enabled: true
  destination: "/tmp/backups"
  timeout: 30m
  compression:
    enabled: true
    algorithm: gzip
    level: 6
  verification:
    enabled: true
    checksum_algorithm: sha256
jobs:
  - name: docs
    type: incremental
    sources: ["/srv/docs"]
    exclude: ["*.tmp"]
`
	var cfg Config
	if err := cfg.Load(writeConfig(t, yaml)); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !cfg.Backup.Enabled {
		t.Error("expected backup.enabled=true")
	}
	if cfg.Backup.Destination != "/tmp/backups" {
		t.Errorf("unexpected destination %q", cfg.Backup.Destination)
	}
	if cfg.Backup.Timeout != 30*time.Minute {
		t.Errorf("expected 30m timeout, got %v", cfg.Backup.Timeout)
	}
	if cfg.Backup.Compression.Level != 6 {
		t.Errorf("expected compression level 6, got %d", cfg.Backup.Compression.Level)
	}
	if cfg.Backup.Verification.ChecksumAlgorithm != "sha256" {
		t.Errorf("unexpected checksum algorithm %q", cfg.Backup.Verification.ChecksumAlgorithm)
	}
}

func TestLoadConfig_JobDefaultsToEnabled(t *testing.T) {
	yaml := `
backup:
  enabled: true
  destination: "/tmp/backups"
jobs:
  - name: implicit
    sources: ["/srv/a"]
  - name: off
    sources: ["/srv/b"]
    enabled: false
`
	var cfg Config
	if err := cfg.Load(writeConfig(t, yaml)); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if len(cfg.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(cfg.Jobs))
	}
	if !cfg.Jobs[0].Enabled {
		t.Error("job without enabled key should default to enabled")
	}
	if cfg.Jobs[1].Enabled {
		t.Error("explicitly disabled job should stay disabled")
	}
}

func TestLoadConfig_RejectsUnknownJobKey(t *testing.T) {
	yaml := `
backup:
  enabled: true
jobs:
  - name: typo
    sources: ["/srv/a"]
    sourcez: ["/srv/b"]
`
	var cfg Config
	err := cfg.Load(writeConfig(t, yaml))
	if !errors.Is(err, ErrLoadConfig) {
		t.Fatalf("expected ErrLoadConfig for unknown job key, got %v", err)
	}
}

func TestLoadConfig_ValidatesJobs(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{
			name: "missing name",
			yaml: "jobs:\n  - sources: [\"/srv/a\"]\n",
		},
		{
			name: "missing sources",
			yaml: "jobs:\n  - name: empty\n",
		},
		{
			name: "duplicate name",
			yaml: "jobs:\n  - name: dup\n    sources: [\"/a\"]\n  - name: dup\n    sources: [\"/b\"]\n",
		},
		{
			name: "bad type",
			yaml: "jobs:\n  - name: weird\n    type: hourly\n    sources: [\"/a\"]\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			err := cfg.Load(writeConfig(t, tc.yaml))
			if !errors.Is(err, ErrValidateConfig) {
				t.Fatalf("expected ErrValidateConfig, got %v", err)
			}
		})
	}
}

func TestLoadConfig_MergesIncludes(t *testing.T) {
	extra := writeConfig(t, "backup:\n  destination: \"/mnt/vault\"\n")
	base := writeConfig(t, "include:\n  - "+extra+"\nbackup:\n  enabled: true\n")

	var cfg Config
	if err := cfg.Load(base); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backup.Destination != "/mnt/vault" {
		t.Errorf("include file was not merged, destination=%q", cfg.Backup.Destination)
	}
}

func TestJob_LooksUpByName(t *testing.T) {
	cfg := Config{Jobs: []JobConfig{{Name: "a"}, {Name: "b"}}}
	if _, ok := cfg.Job("b"); !ok {
		t.Error("expected to find job b")
	}
	if _, ok := cfg.Job("missing"); ok {
		t.Error("did not expect to find job missing")
	}
}
