package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"darkpattern-scanner/pkg/models"
)

// Manager manages application configuration
type Manager struct {
	config *models.Config
	viper  *viper.Viper
	logger zerolog.Logger
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: &models.Config{},
		viper:  viper.New(),
		logger: zerolog.New(os.Stdout).With().Timestamp().Logger(),
	}
}

// Load loads configuration from file and environment
func (m *Manager) Load(configPath string) (*models.Config, error) {
	// A .env alongside the binary feeds the API-key variables below;
	// its absence is not an error.
	_ = godotenv.Load()

	// Set default values
	m.setDefaults()

	// Configure viper
	m.viper.SetConfigName("config")
	m.viper.SetConfigType("yaml")

	if configPath != "" {
		m.viper.AddConfigPath(configPath)
	} else {
		// Default config paths
		m.viper.AddConfigPath(".")
		m.viper.AddConfigPath("./config")
		m.viper.AddConfigPath("$HOME/.darkpattern-scanner")
		m.viper.AddConfigPath("/etc/darkpattern-scanner")
	}

	// Enable environment variable support
	m.viper.AutomaticEnv()
	m.viper.SetEnvPrefix("DPS")

	// Credentials keep their conventional unprefixed names
	m.bindCredentialEnv()

	// Read configuration
	if err := m.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, create default
		if err := m.createDefaultConfig(); err != nil {
			m.logger.Warn().Msgf("Failed to create default config: %v", err)
		}
	}

	// Unmarshal configuration
	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Ensure directories exist
	if err := m.ensureDirectories(); err != nil {
		return nil, fmt.Errorf("error ensuring directories: %w", err)
	}

	// Configure logger
	m.configureLogger()

	return m.config, nil
}

// Save saves configuration to file
func (m *Manager) Save(configPath string) error {
	m.viper.Set("config", m.config)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := m.viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	return nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *models.Config {
	return m.config
}

// UpdateConfig updates specific configuration values
func (m *Manager) UpdateConfig(updates map[string]interface{}) error {
	for key, value := range updates {
		m.viper.Set(key, value)
	}

	return m.viper.Unmarshal(m.config)
}

// Prompt returns the analysis prompt: the configured prompt file when
// set and readable, the built-in taxonomy prompt otherwise. The prompt
// is opaque to the rest of the pipeline.
func (m *Manager) Prompt() string {
	if m.config.Gemini.PromptFile != "" {
		data, err := os.ReadFile(m.config.Gemini.PromptFile)
		if err == nil && len(data) > 0 {
			return string(data)
		}
		m.logger.Warn().Str("file", m.config.Gemini.PromptFile).
			Msg("Prompt file unreadable, using built-in prompt")
	}
	return DefaultPrompt
}

// bindCredentialEnv maps the conventional environment variable names to
// their config keys so keys work without the DPS_ prefix.
func (m *Manager) bindCredentialEnv() {
	m.viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	m.viper.BindEnv("youtube.api_key", "YOUTUBE_API_KEY")
	m.viper.BindEnv("airtable.api_key", "AIRTABLE_API_KEY")
	m.viper.BindEnv("airtable.base_id", "AIRTABLE_BASE_ID")
	m.viper.BindEnv("airtable.table_id", "AIRTABLE_TABLE_ID")
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	m.viper.SetDefault("server.host", "0.0.0.0")
	m.viper.SetDefault("server.port", 8080)
	m.viper.SetDefault("server.read_timeout", 30)
	m.viper.SetDefault("server.write_timeout", 30)

	// Batch limit defaults
	m.viper.SetDefault("limits.max_youtube_urls", 10)
	m.viper.SetDefault("limits.max_tiktok_urls", 5)
	m.viper.SetDefault("limits.max_keyword_queries", 3)
	m.viper.SetDefault("limits.max_search_results", 5)

	// Extraction defaults
	m.viper.SetDefault("extraction.ytdlp_path", "yt-dlp")
	m.viper.SetDefault("extraction.whisper_path", "whisper")
	m.viper.SetDefault("extraction.download_timeout", 120)
	m.viper.SetDefault("extraction.metadata_timeout", 30)
	m.viper.SetDefault("extraction.http_timeout", 10)
	m.viper.SetDefault("extraction.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	m.viper.SetDefault("extraction.cookie", "")
	m.viper.SetDefault("extraction.proxy", "")
	m.viper.SetDefault("extraction.max_retries", 3)

	// Gemini defaults
	m.viper.SetDefault("gemini.model", "gemini-2.0-flash")
	m.viper.SetDefault("gemini.timeout", 60)
	m.viper.SetDefault("gemini.requests_per_second", 1.0)
	m.viper.SetDefault("gemini.prompt_file", "")

	// Database defaults
	m.viper.SetDefault("database.path", "./data/darkpattern-scanner.db")

	// Log defaults
	m.viper.SetDefault("log.level", "info")
	m.viper.SetDefault("log.format", "text")
	m.viper.SetDefault("log.output", "stdout")
}

// createDefaultConfig creates a default configuration file
func (m *Manager) createDefaultConfig() error {
	configDir := "./config"
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	configFile := filepath.Join(configDir, "config.yaml")

	// Create default config content
	defaultConfig := `# Dark Pattern Scanner Configuration

server:
  host: 0.0.0.0
  port: 8080
  read_timeout: 30
  write_timeout: 30

limits:
  max_youtube_urls: 10
  max_tiktok_urls: 5
  max_keyword_queries: 3
  max_search_results: 5

extraction:
  ytdlp_path: yt-dlp
  whisper_path: whisper
  download_timeout: 120   # seconds, full media download
  metadata_timeout: 30    # seconds, --dump-json
  http_timeout: 10        # seconds, page scraping
  user_agent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
  cookie: ""
  proxy: ""
  max_retries: 3

youtube:
  api_key: ""   # or YOUTUBE_API_KEY in the environment

gemini:
  api_key: ""   # or GEMINI_API_KEY in the environment
  model: gemini-2.0-flash
  timeout: 60
  requests_per_second: 1.0
  prompt_file: ""

airtable:
  api_key: ""
  base_id: ""
  table_id: ""

database:
  path: ./data/darkpattern-scanner.db

log:
  level: info
  format: text
  output: stdout
`

	if err := os.WriteFile(configFile, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("error writing default config: %w", err)
	}

	m.logger.Info().Msgf("Created default config file at: %s", configFile)
	return nil
}

// ensureDirectories ensures all required directories exist
func (m *Manager) ensureDirectories() error {
	dirs := []string{
		filepath.Dir(m.config.Database.Path),
		"./logs",
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}

	return nil
}

// configureLogger configures the logger based on settings
func (m *Manager) configureLogger() {
	// Set log level
	level, err := zerolog.ParseLevel(m.config.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if m.config.Log.Format == "json" {
		// JSON format is default for zerolog
	} else {
		m.logger = m.logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set log output
	if m.config.Log.Output != "stdout" {
		file, err := os.OpenFile(m.config.Log.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			m.logger = m.logger.Output(file)
		}
	}
}

// GetLogger returns the logger instance
func (m *Manager) GetLogger() zerolog.Logger {
	return m.logger
}
