// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears every override variable.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, name := range []string{
		"LOCALGPT_OLLAMA_URL", "LOCALGPT_MODEL", "LOCALGPT_CLOUD_PRIORITY",
		"LOCALGPT_STORAGE", "LOCALGPT_DATA_DIR", "LOCALGPT_LOG_LEVEL", "LOCALGPT_LOG_FORMAT",
	} {
		t.Setenv(name, "")
	}
	return home
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestDefault(t *testing.T) {
	home := isolate(t)
	cfg := Default()

	assert.Equal(t, "http://localhost:11434", cfg.Local.OllamaURL)
	assert.Equal(t, "llama3.2", cfg.Local.Model)
	assert.Equal(t, 5, cfg.Local.ProbeTimeoutSecs)
	assert.Equal(t, 30, cfg.Local.GenerateTimeoutSecs)
	assert.Equal(t, []string{"openai", "groq", "together", "openrouter"}, cfg.Cloud.Priority)
	assert.Equal(t, 1000, cfg.Cloud.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Cloud.Temperature, 1e-9)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(home, ".localgpt"), cfg.Storage.DataDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
[local]
model = "mistral"

[cloud]
priority = ["groq"]
temperature = 0.0

[cloud.models]
groq = "llama3-70b-8192"

[storage]
backend = "sqlite"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "mistral", cfg.Local.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Local.OllamaURL)
	assert.Equal(t, []string{"groq"}, cfg.Cloud.Priority)
	assert.Zero(t, cfg.Cloud.Temperature, "an explicit zero is kept")
	assert.Equal(t, 1000, cfg.Cloud.MaxTokens)
	assert.Equal(t, "llama3-70b-8192", cfg.Cloud.Models["groq"])
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
}

func TestLoadFromPath_UnknownKey(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "[local]\nollama_urll = \"http://x\"\n")

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local.ollama_urll")
}

func TestLoadFromPath_BadTOML(t *testing.T) {
	isolate(t)
	_, err := LoadFromPath(writeConfig(t, "[local\n"))
	assert.Error(t, err)
}

func TestLoadFromPath_InvalidValues(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
[local]
ollama_url = "ftp://nope"

[cloud]
priority = ["openai", "bogus"]
temperature = 3.5

[storage]
backend = "postgres"

[log]
level = "chatty"
`)

	_, err := LoadFromPath(path)
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{
		"local.ollama_url", "cloud.priority", "cloud.temperature", "storage.backend", "log.level",
	}, fields)
}

func TestLoad_ReadsHomeConfig(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".localgpt")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[local]\nmodel = \"phi3\"\n"), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "phi3", cfg.Local.Model)
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("LOCALGPT_OLLAMA_URL", "http://gpu-box:11434")
	t.Setenv("LOCALGPT_MODEL", "qwen2")
	t.Setenv("LOCALGPT_CLOUD_PRIORITY", "together, openai")
	t.Setenv("LOCALGPT_STORAGE", "sqlite")
	t.Setenv("LOCALGPT_DATA_DIR", "/tmp/lg")
	t.Setenv("LOCALGPT_LOG_LEVEL", "debug")
	t.Setenv("LOCALGPT_LOG_FORMAT", "json")

	cfg, err := LoadFromPath(writeConfig(t, "[local]\nmodel = \"from-file\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://gpu-box:11434", cfg.Local.OllamaURL)
	assert.Equal(t, "qwen2", cfg.Local.Model, "environment beats the file")
	assert.Equal(t, []string{"together", "openai"}, cfg.Cloud.Priority)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/lg", cfg.Storage.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLookupCredential(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("VITE_GROQ_API_KEY", "")

	_, ok := LookupCredential("GROQ_API_KEY")
	assert.False(t, ok)

	t.Setenv("VITE_GROQ_API_KEY", "gsk-legacy")
	v, ok := LookupCredential("GROQ_API_KEY")
	assert.True(t, ok)
	assert.Equal(t, "gsk-legacy", v)

	t.Setenv("GROQ_API_KEY", "  gsk-real ")
	v, _ = LookupCredential("GROQ_API_KEY")
	assert.Equal(t, "gsk-real", v)
}

func TestLoadDotEnv_RealEnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnvFile),
		[]byte("LOCALGPT_TEST_FROM_FILE=file\nLOCALGPT_TEST_SHADOWED=file\n"), 0600))

	t.Setenv("LOCALGPT_TEST_SHADOWED", "env")
	t.Setenv("LOCALGPT_TEST_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("LOCALGPT_TEST_FROM_FILE"))

	loaded, err := LoadDotEnv(t.TempDir(), "", dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, DotEnvFile)}, loaded)

	assert.Equal(t, "file", os.Getenv("LOCALGPT_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("LOCALGPT_TEST_SHADOWED"))
}

// =============================================================================
// SAVE AND GET/SET
// =============================================================================

func TestSaveTo_RoundTrip(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Local.Model = "mistral"
	cfg.Cloud.Priority = []string{"openrouter", "openai"}
	cfg.Cloud.Models["openrouter"] = "meta-llama/llama-3-8b-instruct"
	cfg.Log.File = "/var/log/localgpt.log"

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, SaveTo(cfg, path))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetSet(t *testing.T) {
	isolate(t)
	cfg := Default()

	require.NoError(t, cfg.Set("local.model", " phi3 "))
	require.NoError(t, cfg.Set("cloud.max_tokens", "256"))
	require.NoError(t, cfg.Set("cloud.temperature", "0.2"))
	require.NoError(t, cfg.Set("cloud.priority", "groq,openai"))
	require.NoError(t, cfg.Set("cloud.models.groq", "mixtral-8x7b-32768"))
	require.NoError(t, cfg.Set("Storage.Backend", "sqlite"))

	for key, want := range map[string]string{
		"local.model":       "phi3",
		"cloud.max_tokens":  "256",
		"cloud.temperature": "0.2",
		"cloud.priority":    "groq,openai",
		"cloud.models.groq": "mixtral-8x7b-32768",
		"storage.backend":   "sqlite",
	} {
		got, err := cfg.Get(key)
		require.NoError(t, err, key)
		assert.Equal(t, want, got, key)
	}

	require.NoError(t, cfg.Set("cloud.models.groq", ""))
	_, ok := cfg.Cloud.Models["groq"]
	assert.False(t, ok)

	assert.Error(t, cfg.Set("cloud.max_tokens", "lots"))
	assert.Error(t, cfg.Set("nope", "x"))
	_, err := cfg.Get("nope")
	assert.Error(t, err)
}

func TestKeysAreGettable(t *testing.T) {
	cfg := Default()
	for _, key := range Keys() {
		if key == "cloud.models.<vendor>" {
			continue
		}
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestValidateErrors_Message(t *testing.T) {
	errs := ValidateErrors{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}
	assert.Equal(t, "a: bad; b: worse", errs.Error())
	assert.Equal(t, "no validation errors", ValidateErrors(nil).Error())
}
