package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `backend: file
service: com.example.app
access_group: TEAMID.shared
accessibility: after-first-unlock
synchronizable: false
label: Example App
file_dir: /tmp/typedkeychain
audit_log: /tmp/typedkeychain/audit.log
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend != BackendFile {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendFile)
	}
	if cfg.Service != "com.example.app" {
		t.Errorf("Service = %q, want %q", cfg.Service, "com.example.app")
	}
	if cfg.AccessGroup != "TEAMID.shared" {
		t.Errorf("AccessGroup = %q, want %q", cfg.AccessGroup, "TEAMID.shared")
	}
	if cfg.Accessibility != "after-first-unlock" {
		t.Errorf("Accessibility = %q, want %q", cfg.Accessibility, "after-first-unlock")
	}
	if cfg.Synchronizable == nil || *cfg.Synchronizable {
		t.Errorf("Synchronizable = %v, want explicit false", cfg.Synchronizable)
	}
	if cfg.FileDir != "/tmp/typedkeychain" {
		t.Errorf("FileDir = %q, want %q", cfg.FileDir, "/tmp/typedkeychain")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Backend != "" {
		t.Errorf("Backend = %q, want empty", cfg.Backend)
	}
	if cfg.Synchronizable != nil {
		t.Errorf("Synchronizable = %v, want unset", *cfg.Synchronizable)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Service != "" {
		t.Errorf("Service = %q, want empty", cfg.Service)
	}
}

func TestLoadCommentsOnly(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, `# service: com.example.app
# backend: keyring
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Service != "" {
		t.Errorf("Service = %q, want empty", cfg.Service)
	}
	if cfg.Backend != "" {
		t.Errorf("Backend = %q, want empty", cfg.Backend)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	t.Parallel()
	if _, err := Load(writeConfig(t, "service: [unclosed\n")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	both := &Config{Service: "svc", Server: "https://example.com"}
	if err := both.Validate(); err == nil {
		t.Error("expected error when both service and server are set")
	}
	unknown := &Config{Service: "svc", Backend: "floppy"}
	if err := unknown.Validate(); err == nil {
		t.Error("expected error for unknown backend")
	}
}
