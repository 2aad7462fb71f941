package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	AI       AIConfig       `yaml:"ai"`
	Sampling SamplingConfig `yaml:"sampling"`
	Watch    WatchConfig    `yaml:"watch"`
	Email    EmailConfig    `yaml:"email"`
}

type ServerConfig struct {
	Port           string   `yaml:"port" env:"PORT"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// YouTubeConfig selects API-key access (public data) unless OAuth client
// credentials are configured, in which case the token file is used.
type YouTubeConfig struct {
	APIKey       string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string `yaml:"token_file"`
	PageSize     int64  `yaml:"page_size"`
	MaxPages     int    `yaml:"max_pages"` // 0 fetches every page
	// RequestsPerSecond bounds calls to the YouTube host.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// UseOAuth reports whether OAuth client credentials are configured.
func (y YouTubeConfig) UseOAuth() bool {
	return y.ClientID != "" && y.ClientSecret != ""
}

type AIConfig struct {
	Provider          string  `yaml:"provider"` // "gemini" or "openai"
	GeminiAPIKey      string  `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	OpenAIAPIKey      string  `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	Temperature       float32 `yaml:"temperature"`
	MaxOutputTokens   int32   `yaml:"max_output_tokens"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Timeout is the deadline for one generation round trip.
func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// SamplingConfig bounds how many comments are sent for analysis.
type SamplingConfig struct {
	Cap    int `yaml:"cap"`
	Recent int `yaml:"recent"`
	Liked  int `yaml:"liked"`
}

// WatchConfig lists videos analyzed on a schedule and emailed as a digest.
type WatchConfig struct {
	Videos   []string `yaml:"videos"`
	Schedule string   `yaml:"schedule"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Load reads the YAML file named by CONFIG_FILE (default config.yaml), then
// fills secrets from the environment (and .env) and applies defaults. A
// missing file is allowed so the service can run from the environment alone.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only deployment
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Server.Port, "PORT")
	setFromEnv(&c.YouTube.APIKey, "YOUTUBE_API_KEY")
	setFromEnv(&c.YouTube.ClientID, "GOOGLE_CLIENT_ID")
	setFromEnv(&c.YouTube.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setFromEnv(&c.AI.GeminiAPIKey, "GEMINI_API_KEY")
	setFromEnv(&c.AI.OpenAIAPIKey, "OPENAI_API_KEY")
	setFromEnv(&c.Email.Username, "EMAIL_USERNAME")
	setFromEnv(&c.Email.Password, "EMAIL_PASSWORD")
	if c.Log.Level == "" && os.Getenv("DEBUG") == "true" {
		c.Log.Level = "debug"
	}
}

func setFromEnv(field *string, key string) {
	if *field == "" {
		*field = os.Getenv(key)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "5000"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.YouTube.PageSize <= 0 || c.YouTube.PageSize > 100 {
		c.YouTube.PageSize = 100
	}
	if c.YouTube.RequestsPerSecond <= 0 {
		c.YouTube.RequestsPerSecond = 10
	}

	if c.AI.Provider == "" {
		c.AI.Provider = ProviderGemini
	}
	if c.AI.Model == "" {
		if c.AI.Provider == ProviderOpenAI {
			c.AI.Model = "gpt-4o-mini"
		} else {
			c.AI.Model = "gemini-2.5-flash"
		}
	}
	if c.AI.Provider == ProviderOpenAI && c.AI.BaseURL == "" {
		c.AI.BaseURL = "https://api.openai.com/v1"
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.7
	}
	if c.AI.MaxOutputTokens == 0 {
		c.AI.MaxOutputTokens = 8192
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = 90
	}
	if c.AI.RequestsPerSecond <= 0 {
		c.AI.RequestsPerSecond = 2
	}

	if c.Sampling.Cap == 0 {
		c.Sampling.Cap = 500
	}
	if c.Sampling.Recent == 0 {
		c.Sampling.Recent = 25
	}
	if c.Sampling.Liked == 0 {
		c.Sampling.Liked = 25
	}

	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "0 0 9 * * *" // Daily at 9 AM
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
}

func (c *Config) validate() error {
	if c.YouTube.APIKey == "" && !c.YouTube.UseOAuth() {
		return fmt.Errorf("YouTube API key is required (set YOUTUBE_API_KEY or youtube.api_key, or configure OAuth client credentials)")
	}
	switch c.AI.Provider {
	case ProviderGemini:
		if c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
		}
	case ProviderOpenAI:
		if c.AI.OpenAIAPIKey == "" {
			return fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY or ai.openai_api_key)")
		}
	default:
		return fmt.Errorf("unknown AI provider %q (use %q or %q)", c.AI.Provider, ProviderGemini, ProviderOpenAI)
	}
	if c.Sampling.Cap < 1 || c.Sampling.Recent < 0 || c.Sampling.Liked < 0 {
		return fmt.Errorf("sampling limits must be positive (cap=%d recent=%d liked=%d)", c.Sampling.Cap, c.Sampling.Recent, c.Sampling.Liked)
	}
	if len(c.Watch.Videos) > 0 {
		if c.Email.Username == "" || c.Email.Password == "" {
			return fmt.Errorf("Email credentials are required when watch.videos is set (set EMAIL_USERNAME and EMAIL_PASSWORD)")
		}
		if c.Email.SMTPServer == "" || c.Email.ToEmail == "" {
			return fmt.Errorf("email.smtp_server and email.to_email are required when watch.videos is set")
		}
	}
	return nil
}
