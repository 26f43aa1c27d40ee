package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"BRICPA_CONFIG", "PORT", "DATA_DIR", "STORE_BACKEND", "SESSION_DSN", "PHOTO_BACKEND", "PHOTO_DIR",
	"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_USE_SSL",
	"AI_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL", "OLLAMA_URL", "OLLAMA_MODEL", "AI_TIMEOUT",
	"MAX_UPLOAD_BYTES", "LOG_FILE", "TEMPLATE_DIR", "STATIC_DIR", "COOKIE_SECURE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.StoreBack != "file" || cfg.PhotoBack != "fs" || cfg.AI.Provider != "none" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SessionDSN != filepath.Join("./data_plateforme", "sessions.db") {
		t.Fatalf("session dsn = %q", cfg.SessionDSN)
	}
	if cfg.PhotoDir != filepath.Join("./data_plateforme", "photos") {
		t.Fatalf("photo dir = %q", cfg.PhotoDir)
	}
	if cfg.AI.Timeout != 60*time.Second || cfg.MaxUpload != 25<<20 {
		t.Fatalf("timeout=%v max=%d", cfg.AI.Timeout, cfg.MaxUpload)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("STORE_BACKEND", " Badger ")
	t.Setenv("AI_PROVIDER", "ollama")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.StoreBack != "badger" || cfg.AI.Provider != "ollama" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.AI.Timeout != 5*time.Second || cfg.MaxUpload != 1024 || !cfg.Secure {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.SessionDSN != filepath.Join(dir, "sessions.db") {
		t.Fatalf("derived dsn = %q", cfg.SessionDSN)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bricpa.yaml")
	yml := "port: \"7000\"\nphoto_backend: s3\ns3:\n  endpoint: localhost:9000\n  bucket: photos\nai:\n  provider: gemini\n  gemini_api_key: k\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BRICPA_CONFIG", path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7001" {
		t.Fatalf("env should win over yaml, port = %q", cfg.Port)
	}
	if cfg.PhotoBack != "s3" || cfg.S3.Bucket != "photos" || cfg.AI.GeminiAPIKey != "k" {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
	if cfg.AI.GeminiModel != "gemini-2.0-flash" {
		t.Fatalf("default model lost: %q", cfg.AI.GeminiModel)
	}
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRICPA_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Config)
		want string
	}{
		{"store", func(c *Config) { c.StoreBack = "redis" }, "store backend"},
		{"photo", func(c *Config) { c.PhotoBack = "ftp" }, "photo backend"},
		{"s3 bucket", func(c *Config) { c.PhotoBack = "s3"; c.S3.Endpoint = "x" }, "S3_BUCKET"},
		{"gemini key", func(c *Config) { c.AI.Provider = "gemini" }, "GEMINI_API_KEY"},
		{"ollama url", func(c *Config) { c.AI.Provider = "ollama"; c.AI.OllamaURL = " " }, "OLLAMA_URL"},
		{"provider", func(c *Config) { c.AI.Provider = "gpt" }, "ai provider"},
		{"upload", func(c *Config) { c.MaxUpload = 0 }, "max upload"},
		{"data dir", func(c *Config) { c.DataDir = "" }, "data dir"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mod(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.want)
			}
		})
	}
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}
