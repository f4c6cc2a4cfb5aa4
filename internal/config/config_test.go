package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tellerj/ollama-stack-sub001/internal/platform"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/stack", platform.CPUOnly)

	if cfg.Version != CurrentVersion {
		t.Fatalf("expected version %s, got %s", CurrentVersion, cfg.Version)
	}
	if cfg.ProjectName != "ollama-stack" {
		t.Fatalf("expected default project name, got %s", cfg.ProjectName)
	}
	if len(cfg.Services) != 3 {
		t.Fatalf("expected 3 core services, got %d", len(cfg.Services))
	}
	if cfg.BackupsDir != filepath.Join("/tmp/stack", "backups") {
		t.Fatalf("unexpected backups dir %s", cfg.BackupsDir)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir, platform.NvidiaGPU)
	cfg.Extensions = []Extension{{Name: "dia", Enabled: true}, {Name: "tts", Enabled: false}}

	if err := Save(cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !Exists(dir) {
		t.Fatal("expected config file to exist after save")
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Platform != platform.NvidiaGPU {
		t.Fatalf("expected platform %s, got %s", platform.NvidiaGPU, loaded.Platform)
	}
	if loaded.Dir != dir {
		t.Fatalf("expected dir %s, got %s", dir, loaded.Dir)
	}
	if len(loaded.Services) != 3 {
		t.Fatalf("expected 3 services, got %d", len(loaded.Services))
	}
	enabled := loaded.EnabledExtensions()
	if len(enabled) != 1 || enabled[0] != "dia" {
		t.Fatalf("expected only dia enabled, got %v", enabled)
	}
}

func TestLoadPlatformEnvOverride(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir, platform.CPUOnly)
	if err := Save(cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	t.Setenv(envPlatform, "nvidia-gpu")
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Platform != platform.NvidiaGPU {
		t.Fatalf("expected env override to nvidia-gpu, got %s", loaded.Platform)
	}
}

func TestLoadInvalidPlatformRejected(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir, platform.CPUOnly)
	if err := Save(cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	t.Setenv(envPlatform, "amiga")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected invalid platform to fail validation")
	}
}

func TestLoadMissingConfig(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadDotEnvValues(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir, platform.CPUOnly)
	if err := Save(cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := WriteEnvFile(dir, map[string]string{"WEBUI_SECRET_KEY": "abc123"}); err != nil {
		t.Fatalf("write env failed: %v", err)
	}
	t.Setenv("WEBUI_SECRET_KEY", "")
	os.Unsetenv("WEBUI_SECRET_KEY")

	if _, err := Load(dir); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := os.Getenv("WEBUI_SECRET_KEY"); got != "abc123" {
		t.Fatalf("expected .env value loaded, got %q", got)
	}
}

func TestValidateRejectsDuplicateServices(t *testing.T) {
	cfg := Default(t.TempDir(), platform.CPUOnly)
	cfg.Services = append(cfg.Services, cfg.Services[0])
	if err := Save(cfg); err == nil {
		t.Fatal("expected duplicate service to fail validation")
	}
}

func TestGenerateSecretKey(t *testing.T) {
	key, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(key) != secretKeyBytes*2 {
		t.Fatalf("expected %d hex chars, got %d", secretKeyBytes*2, len(key))
	}
	if _, err := hex.DecodeString(key); err != nil {
		t.Fatalf("expected hex-encoded key: %v", err)
	}

	other, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key == other {
		t.Fatal("expected distinct keys across calls")
	}
}

func TestWriteEnvFile(t *testing.T) {
	dir := t.TempDir()
	err := WriteEnvFile(dir, map[string]string{
		"ZEBRA":            "z",
		"WEBUI_SECRET_KEY": "secret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(EnvFilePath(dir))
	if err != nil {
		t.Fatalf("env file missing: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	data, err := os.ReadFile(EnvFilePath(dir))
	if err != nil {
		t.Fatalf("read env file: %v", err)
	}
	want := "WEBUI_SECRET_KEY=secret\nZEBRA=z\n"
	if string(data) != want {
		t.Fatalf("expected sorted keys %q, got %q", want, string(data))
	}
}

func TestWriteComposeFiles(t *testing.T) {
	dir := t.TempDir()
	if err := WriteComposeFiles(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"docker-compose.yml", "docker-compose.apple.yml", "docker-compose.nvidia.yml"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("expected %s to be written: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("expected %s to have content", name)
		}
	}

	base, err := os.ReadFile(filepath.Join(dir, "docker-compose.yml"))
	if err != nil {
		t.Fatalf("read base compose: %v", err)
	}
	if !strings.Contains(string(base), "ollama-stack.installed") {
		t.Fatal("expected ownership label in base compose file")
	}
}
