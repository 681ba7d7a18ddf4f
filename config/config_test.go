package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestLoadOrCreateConfigMissingCreatesDefault(t *testing.T) {
	tmp := t.TempDir()

	configPath := filepath.Join(tmp, "config", "config.toml")
	old := resolveConfigPath
	resolveConfigPath = func() (string, error) { return configPath, nil }
	t.Cleanup(func() { resolveConfigPath = old })

	// Ensure missing
	if _, err := os.Stat(configPath); err == nil {
		t.Fatalf("expected config file to be missing")
	}

	created, err := LoadOrCreateConfig()
	if err != nil {
		t.Fatalf("LoadOrCreateConfig() error: %v", err)
	}
	if !created {
		t.Fatalf("LoadOrCreateConfig() created=false, want true")
	}

	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}

	var got Config
	if _, err := toml.DecodeFile(configPath, &got); err != nil {
		t.Fatalf("decode created config: %v", err)
	}
	if got.Server.Host != "127.0.0.1" {
		t.Fatalf("default server host = %q, want %q", got.Server.Host, "127.0.0.1")
	}
	if got.Server.Port != 8888 {
		t.Fatalf("default server port = %d, want %d", got.Server.Port, 8888)
	}
	if got.Clipper.ChunkWindowMinutes != 10 {
		t.Fatalf("default chunk window = %d, want 10", got.Clipper.ChunkWindowMinutes)
	}
}

func TestSaveConfigCreatesParentDirs(t *testing.T) {
	tmp := t.TempDir()

	configPath := filepath.Join(tmp, "deep", "nest", "config.toml")
	old := resolveConfigPath
	resolveConfigPath = func() (string, error) { return configPath, nil }
	t.Cleanup(func() { resolveConfigPath = old })

	Conf = defaultConfig()
	Conf.Server.Port = 9999

	if err := SaveConfig(); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	var got Config
	if _, err := toml.DecodeFile(configPath, &got); err != nil {
		t.Fatalf("decode saved config: %v", err)
	}
	if got.Server.Port != 9999 {
		t.Fatalf("saved server port = %d, want 9999", got.Server.Port)
	}
}

func TestLoadOrCreateConfigEnvOverride(t *testing.T) {
	tmp := t.TempDir()

	configPath := filepath.Join(tmp, "config.toml")
	old := resolveConfigPath
	resolveConfigPath = func() (string, error) { return configPath, nil }
	t.Cleanup(func() { resolveConfigPath = old })

	t.Setenv("CLIPFORGE_LLM_API_KEY", "sk-from-env")

	if _, err := LoadOrCreateConfig(); err != nil {
		t.Fatalf("LoadOrCreateConfig() error: %v", err)
	}
	if Conf.Llm.ApiKey != "sk-from-env" {
		t.Fatalf("llm api key = %q, want env override", Conf.Llm.ApiKey)
	}
}

func TestCheckConfigRejectsBadClipDurations(t *testing.T) {
	Conf = defaultConfig()
	Conf.Llm.ApiKey = "sk-test"
	Conf.Transcribe.Openai.ApiKey = "sk-test"
	Conf.Clipper.MinClipDuration = 120
	Conf.Clipper.MaxClipDuration = 60

	if err := CheckConfig(); err == nil {
		t.Fatalf("CheckConfig() nil error, want duration validation failure")
	}
}

func TestCheckConfigRejectsUnknownProvider(t *testing.T) {
	Conf = defaultConfig()
	Conf.Llm.ApiKey = "sk-test"
	Conf.Transcribe.Provider = "carrier-pigeon"

	if err := CheckConfig(); err == nil {
		t.Fatalf("CheckConfig() nil error, want unsupported provider failure")
	}
}
