package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	Language         string       `json:"language"`
	AIProvider       AI           `json:"ai_provider"`
	AIModels         map[AI]Model `json:"ai_models"`
	PolicyPath       string       `json:"policy_path,omitempty"`
	PrefilterCommand []string     `json:"prefilter_command,omitempty"`

	LookupTimeoutSeconds int     `json:"lookup_timeout_seconds"`
	AITimeoutSeconds     int     `json:"ai_timeout_seconds"`
	RequestsPerSecond    float64 `json:"requests_per_second"`
	LookupParallelism    int     `json:"lookup_parallelism,omitempty"`
	CacheTTLHours        int     `json:"cache_ttl_hours"`

	PathFile string `json:"-"`

	// Resolved from the environment on every load, never written to disk.
	DataDir       string   `json:"-"`
	GitHubToken   string   `json:"-"`
	GeminiKeys    []string `json:"-"`
	AnthropicKeys []string `json:"-"`
}

const (
	defaultLang              = LangEN
	defaultLookupTimeout     = 30
	defaultAITimeout         = 60
	defaultRequestsPerSecond = 10
	defaultCacheTTLHours     = 24
	defaultParallelism       = 1

	maxRotatedKeys = 5
	configFileName = "config.json"
)

// Load resolves the data directory, reads (or creates) its config file and
// overlays the credentials found in the environment.
func Load() (*Config, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(dir)
	if err != nil {
		return nil, err
	}
	cfg.DataDir = dir
	cfg.applyEnv()
	return cfg, nil
}

// DataDir returns GEMSCOUT_HOME, or ~/.gemscout when unset.
func DataDir() (string, error) {
	if dir := os.Getenv("GEMSCOUT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", fmt.Errorf("error resolving home directory: %w", errors.Join(err, errors.New("set GEMSCOUT_HOME")))
	}
	return filepath.Join(home, ".gemscout"), nil
}

func LoadConfig(path string) (*Config, error) {
	var configPath string

	if filepath.Ext(path) == ".json" {
		configPath = path
	} else {
		configPath = filepath.Join(path, configFileName)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return nil, fmt.Errorf("error creating data directory: %w", err)
			}
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}
	config.PathFile = configPath
	config.fillDefaults()

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func defaultConfig() *Config {
	return &Config{
		Language:             defaultLang,
		AIProvider:           AIGemini,
		AIModels:             map[AI]Model{AIGemini: DefaultModelForAI(AIGemini), AIAnthropic: DefaultModelForAI(AIAnthropic)},
		LookupTimeoutSeconds: defaultLookupTimeout,
		AITimeoutSeconds:     defaultAITimeout,
		RequestsPerSecond:    defaultRequestsPerSecond,
		CacheTTLHours:        defaultCacheTTLHours,
		LookupParallelism:    defaultParallelism,
	}
}

func createDefaultConfig(path string) (*Config, error) {
	config := defaultConfig()
	config.PathFile = path

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error encoding default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("error saving default config: %w", err)
	}

	return config, nil
}

func SaveConfig(config *Config) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("refusing to save invalid configuration: %w", err)
	}

	if config.PathFile == "" {
		return errors.New("config file path is not set")
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	if err := os.WriteFile(config.PathFile, data, 0644); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	return nil
}

func (c *Config) fillDefaults() {
	d := defaultConfig()
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.AIProvider == "" {
		c.AIProvider = d.AIProvider
	}
	if c.AIModels == nil {
		c.AIModels = map[AI]Model{}
	}
	for ai, model := range d.AIModels {
		if c.AIModels[ai] == "" {
			c.AIModels[ai] = model
		}
	}
	if c.LookupTimeoutSeconds == 0 {
		c.LookupTimeoutSeconds = d.LookupTimeoutSeconds
	}
	if c.AITimeoutSeconds == 0 {
		c.AITimeoutSeconds = d.AITimeoutSeconds
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = d.RequestsPerSecond
	}
	if c.LookupParallelism <= 0 {
		c.LookupParallelism = d.LookupParallelism
	}
	if c.CacheTTLHours == 0 {
		c.CacheTTLHours = d.CacheTTLHours
	}
}

func validateConfig(config *Config) error {
	if config.Language == "" {
		return errors.New("language cannot be empty")
	}
	if !IsSupportedAI(string(config.AIProvider)) {
		return fmt.Errorf("unsupported AI provider: %s", config.AIProvider)
	}
	if config.LookupTimeoutSeconds < 0 || config.AITimeoutSeconds < 0 {
		return errors.New("timeouts cannot be negative")
	}
	if config.RequestsPerSecond < 0 {
		return errors.New("requests_per_second cannot be negative")
	}
	return nil
}

func (c *Config) applyEnv() {
	c.GitHubToken = strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
	c.GeminiKeys = envKeys("GOOGLE_API_KEY")
	c.AnthropicKeys = envKeys("ANTHROPIC_API_KEY")
}

// envKeys reads NAME, NAME_2 .. NAME_5 in order, skipping blanks and duplicates.
func envKeys(name string) []string {
	keys := make([]string, 0, maxRotatedKeys)
	seen := make(map[string]bool)
	for i := 1; i <= maxRotatedKeys; i++ {
		envName := name
		if i > 1 {
			envName = fmt.Sprintf("%s_%d", name, i)
		}
		v := strings.TrimSpace(os.Getenv(envName))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		keys = append(keys, v)
	}
	return keys
}

// Keys returns the rotation pool for a provider.
func (c *Config) Keys(ai AI) []string {
	switch ai {
	case AIGemini:
		return c.GeminiKeys
	case AIAnthropic:
		return c.AnthropicKeys
	default:
		return nil
	}
}

func (c *Config) Model(ai AI) Model {
	if m, ok := c.AIModels[ai]; ok && m != "" {
		return m
	}
	return DefaultModelForAI(ai)
}

func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.LookupTimeoutSeconds) * time.Second
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "verdicts.db")
}

func (c *Config) CacheDir() string {
	return filepath.Join(c.DataDir, "cache")
}
