package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_TOKEN", "s3cret")
	p := writeConfig(t, "name: demo\nport: 9000\ntoken: ${SAMPLE_TOKEN}\n")

	var cfg sample
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "demo" || cfg.Port != 9000 || cfg.Token != "s3cret" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_KeepsDefaultsForMissingKeys(t *testing.T) {
	p := writeConfig(t, "name: demo\n")

	cfg := sample{Port: 8080}
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Port)
	}
}

func TestLoad_Errors(t *testing.T) {
	var cfg sample
	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Error("missing file should fail")
	}

	p := writeConfig(t, "port: [\n")
	if err := Load(p, &cfg); err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("bad yaml error = %v", err)
	}

	p = writeConfig(t, "port: 0\n")
	if err := Load(p, &cfg); err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("invalid config error = %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	cfg := sample{Port: 8080}
	if err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err != nil {
		t.Fatalf("missing file should keep defaults: %v", err)
	}

	bad := sample{}
	if err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &bad); err == nil {
		t.Error("invalid defaults should still fail validation")
	}

	p := writeConfig(t, "port: 9001\n")
	if err := LoadOptional(p, &cfg); err != nil || cfg.Port != 9001 {
		t.Errorf("LoadOptional = %v, port = %d", err, cfg.Port)
	}
}
