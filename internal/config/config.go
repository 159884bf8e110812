package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v2"
)

// LocalFile is the per-repository config file looked up in the working
// directory before the user config.
const LocalFile = ".mreview.yml"

// Config represents the mreview configuration.
type Config struct {
	Provider       string         `yaml:"provider"`
	Model          string         `yaml:"model,omitempty"`
	Models         ProviderModels `yaml:"models,omitempty"`
	Language       string         `yaml:"language"`
	MaxFileSize    int            `yaml:"maxFileSize"`
	Ignore         []string       `yaml:"ignore,omitempty"`
	Extensions     []string       `yaml:"extensions,omitempty"`
	RulesFile      string         `yaml:"rulesFile,omitempty"`
	RulesContent   string         `yaml:"rulesContent,omitempty"`
	ProjectDir     string         `yaml:"projectDir,omitempty"`
	TimeoutSeconds int            `yaml:"timeoutSeconds"`
	MetricsFile    string         `yaml:"metricsFile,omitempty"`
	Log            LogConfig      `yaml:"log"`
	GitLab         GitLabConfig   `yaml:"gitlab"`
	GitHub         GitHubConfig   `yaml:"github"`
	Cache          CacheConfig    `yaml:"cache"`
	Privacy        PrivacyConfig  `yaml:"privacy"`
}

// ProviderModels are per-provider model choices used when Model is empty.
type ProviderModels struct {
	OpenAI    string `yaml:"openai,omitempty"`
	Anthropic string `yaml:"anthropic,omitempty"`
	Gemini    string `yaml:"gemini,omitempty"`
	Ollama    string `yaml:"ollama,omitempty"`
}

// LogConfig selects the log handler and level.
type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// GitLabConfig locates the merge request. The token is never written to
// disk.
type GitLabConfig struct {
	URL       string `yaml:"url"`
	ProjectID string `yaml:"projectId,omitempty"`
	MRIID     int    `yaml:"mrIid,omitempty"`
	Token     string `yaml:"-"`
}

// GitHubConfig holds the GitHub API endpoint. The token is never written
// to disk.
type GitHubConfig struct {
	APIURL string `yaml:"apiUrl"`
	Token  string `yaml:"-"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Dir        string `yaml:"dir,omitempty"`
	TTLSeconds int    `yaml:"ttlSeconds"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `yaml:"redactSecrets"`
	RedactPaths   []string `yaml:"redactPaths,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:       "auto",
		Language:       "cs",
		MaxFileSize:    50000,
		TimeoutSeconds: 600,
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		GitLab: GitLabConfig{URL: "https://gitlab.com"},
		GitHub: GitHubConfig{APIURL: "https://api.github.com"},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// ModelFor returns the model to use with provider: the explicit Model if
// set, otherwise the per-provider choice. Empty means the provider default.
func (c Config) ModelFor(provider string) string {
	if c.Model != "" {
		return c.Model
	}
	switch provider {
	case "openai":
		return c.Models.OpenAI
	case "anthropic":
		return c.Models.Anthropic
	case "gemini":
		return c.Models.Gemini
	case "ollama":
		return c.Models.Ollama
	}
	return ""
}

// Validate rejects values no pass can run with.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Language) {
	case "en", "cs":
	default:
		errs = append(errs, fmt.Errorf("language must be en or cs, got %q", c.Language))
	}
	if c.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("maxFileSize must not be negative, got %d", c.MaxFileSize))
	}
	if c.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("timeoutSeconds must not be negative, got %d", c.TimeoutSeconds))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ConfigDir returns the platform-appropriate config directory for mreview.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mreview"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "mreview"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "mreview"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "mreview"), nil
	default:
		return filepath.Join(home, ".config", "mreview"), nil
	}
}

// ConfigPath returns the full path to the user config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// FilePath returns the config file Load reads: LocalFile in dir if it
// exists, otherwise the user config path.
func FilePath(dir string) (string, error) {
	local := filepath.Join(dir, LocalFile)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	return ConfigPath()
}

// mergeFile decodes the YAML file at path onto cfg. Keys absent from the
// file keep their current value. A missing file is not an error.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// LoadFile loads the user config file on top of the defaults.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFileAt(path)
}

// LoadFileAt loads the config file at path on top of the defaults. A missing
// file yields the defaults.
func LoadFileAt(path string) (Config, error) {
	cfg := Default()
	if err := mergeFile(&cfg, path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the config to the user config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config as YAML to path, creating parent directories.
// Tokens are never written.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("getting working directory: %w", err)
	}
	path, err := FilePath(wd)
	if err != nil {
		return Config{}, err
	}
	return load(path, os.Getenv, overrides)
}

func load(path string, getenv func(string) string, overrides map[string]string) (Config, error) {
	cfg := Default()
	if err := mergeFile(&cfg, path); err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeEnv(cfg *Config, getenv func(string) string) error {
	str := map[string]*string{
		"CI_SERVER_URL":        &cfg.GitLab.URL,
		"CI_PROJECT_ID":        &cfg.GitLab.ProjectID,
		"CI_PROJECT_DIR":       &cfg.ProjectDir,
		"GITLAB_TOKEN":         &cfg.GitLab.Token,
		"GITHUB_TOKEN":         &cfg.GitHub.Token,
		"GITHUB_API_URL":       &cfg.GitHub.APIURL,
		"AI_PROVIDER":          &cfg.Provider,
		"OPENAI_MODEL":         &cfg.Models.OpenAI,
		"ANTHROPIC_MODEL":      &cfg.Models.Anthropic,
		"GEMINI_MODEL":         &cfg.Models.Gemini,
		"OLLAMA_MODEL":         &cfg.Models.Ollama,
		"REVIEW_LANGUAGE":      &cfg.Language,
		"REVIEW_RULES_FILE":    &cfg.RulesFile,
		"REVIEW_RULES_CONTENT": &cfg.RulesContent,
	}
	for key, dst := range str {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	if v := getenv("IGNORE_PATTERNS"); v != "" {
		cfg.Ignore = SplitList(v)
	}
	if v := getenv("REVIEW_EXTENSIONS"); v != "" {
		cfg.Extensions = SplitList(v)
	}
	if v := getenv("MAX_FILE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_FILE_SIZE must be an integer: %w", err)
		}
		cfg.MaxFileSize = n
	}
	if v := getenv("CI_MERGE_REQUEST_IID"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CI_MERGE_REQUEST_IID must be an integer: %w", err)
		}
		cfg.GitLab.MRIID = n
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, value := range overrides {
		if value == "" {
			continue
		}
		if err := SetField(cfg, key, value); err != nil {
			return fmt.Errorf("flag override: %w", err)
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "language":
		cfg.Language = value
	case "maxFileSize":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxFileSize must be an integer: %w", err)
		}
		cfg.MaxFileSize = n
	case "ignore":
		cfg.Ignore = SplitList(value)
	case "extensions":
		cfg.Extensions = SplitList(value)
	case "rulesFile":
		cfg.RulesFile = value
	case "timeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeoutSeconds must be an integer: %w", err)
		}
		cfg.TimeoutSeconds = n
	case "metricsFile":
		cfg.MetricsFile = value
	case "log.format":
		cfg.Log.Format = value
	case "log.level":
		cfg.Log.Level = value
	case "gitlab.url":
		cfg.GitLab.URL = value
	case "github.apiUrl":
		cfg.GitHub.APIURL = value
	case "cache.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cache.enabled must be a boolean: %w", err)
		}
		cfg.Cache.Enabled = b
	case "cache.ttlSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("cache.ttlSeconds must be an integer: %w", err)
		}
		cfg.Cache.TTLSeconds = n
	case "privacy.redactSecrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("privacy.redactSecrets must be a boolean: %w", err)
		}
		cfg.Privacy.RedactSecrets = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// SplitList splits a comma-separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
