package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string        `yaml:"port"`
	DataDir     string        `yaml:"data_dir"`
	StoreBack   string        `yaml:"store_backend"` // file | badger
	SessionDSN  string        `yaml:"session_dsn"`
	PhotoBack   string        `yaml:"photo_backend"` // fs | s3
	PhotoDir    string        `yaml:"photo_dir"`
	S3          S3Config      `yaml:"s3"`
	AI          AIConfig      `yaml:"ai"`
	MaxUpload   int           `yaml:"max_upload_bytes"`
	LogFile     string        `yaml:"log_file"`
	TemplateDir string        `yaml:"template_dir"`
	StaticDir   string        `yaml:"static_dir"`
	Secure      bool          `yaml:"cookie_secure"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type AIConfig struct {
	Provider     string        `yaml:"provider"` // gemini | ollama | none
	GeminiAPIKey string        `yaml:"gemini_api_key"`
	GeminiModel  string        `yaml:"gemini_model"`
	OllamaURL    string        `yaml:"ollama_url"`
	OllamaModel  string        `yaml:"ollama_model"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:        "8080",
		DataDir:     "./data_plateforme",
		StoreBack:   "file",
		PhotoBack:   "fs",
		AI:          AIConfig{Provider: "none", GeminiModel: "gemini-2.0-flash", OllamaURL: "http://localhost:11434", OllamaModel: "llava", Timeout: 60 * time.Second},
		MaxUpload:   25 << 20,
		TemplateDir: "./web/templates",
		StaticDir:   "./web/static",
		ReadTimeout: 90 * time.Second,
	}
}

// Load reads .env (if present), then the YAML file named by BRICPA_CONFIG
// (if set), then environment variables. Later sources win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("BRICPA_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	cfg.fillDerived()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	log.Printf("[config] PORT=%s DATA_DIR=%s STORE_BACKEND=%s PHOTO_BACKEND=%s AI_PROVIDER=%s LOG_FILE=%s",
		cfg.Port, cfg.DataDir, cfg.StoreBack, cfg.PhotoBack, cfg.AI.Provider, cfg.LogFile)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Port, "PORT")
	setString(&cfg.DataDir, "DATA_DIR")
	setString(&cfg.StoreBack, "STORE_BACKEND")
	setString(&cfg.SessionDSN, "SESSION_DSN")
	setString(&cfg.PhotoBack, "PHOTO_BACKEND")
	setString(&cfg.PhotoDir, "PHOTO_DIR")
	setString(&cfg.S3.Endpoint, "S3_ENDPOINT")
	setString(&cfg.S3.AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.S3.SecretKey, "S3_SECRET_KEY")
	setString(&cfg.S3.Bucket, "S3_BUCKET")
	setBool(&cfg.S3.UseSSL, "S3_USE_SSL")
	setString(&cfg.AI.Provider, "AI_PROVIDER")
	setString(&cfg.AI.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&cfg.AI.GeminiModel, "GEMINI_MODEL")
	setString(&cfg.AI.OllamaURL, "OLLAMA_URL")
	setString(&cfg.AI.OllamaModel, "OLLAMA_MODEL")
	if v := os.Getenv("AI_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			cfg.AI.Timeout = d
		}
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.MaxUpload = n
		}
	}
	setString(&cfg.LogFile, "LOG_FILE")
	setString(&cfg.TemplateDir, "TEMPLATE_DIR")
	setString(&cfg.StaticDir, "STATIC_DIR")
	setBool(&cfg.Secure, "COOKIE_SECURE")
}

func (c *Config) fillDerived() {
	c.StoreBack = strings.ToLower(strings.TrimSpace(c.StoreBack))
	c.PhotoBack = strings.ToLower(strings.TrimSpace(c.PhotoBack))
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.SessionDSN == "" {
		c.SessionDSN = filepath.Join(c.DataDir, "sessions.db")
	}
	if c.PhotoDir == "" {
		c.PhotoDir = filepath.Join(c.DataDir, "photos")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.DataDir, "bricpa.log")
	}
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	switch c.StoreBack {
	case "file", "badger":
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBack)
	}
	switch c.PhotoBack {
	case "fs":
	case "s3":
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return fmt.Errorf("s3 photo backend needs S3_ENDPOINT and S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown photo backend %q", c.PhotoBack)
	}
	switch c.AI.Provider {
	case "none", "":
	case "gemini":
		if strings.TrimSpace(c.AI.GeminiAPIKey) == "" {
			return fmt.Errorf("gemini provider needs GEMINI_API_KEY")
		}
	case "ollama":
		if strings.TrimSpace(c.AI.OllamaURL) == "" {
			return fmt.Errorf("ollama provider needs OLLAMA_URL")
		}
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}
	if c.MaxUpload <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUpload)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data dir is required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}
