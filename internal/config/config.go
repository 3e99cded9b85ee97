package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Agent      AgentConfig      `mapstructure:"agent"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Redis      RedisConfig      `mapstructure:"redis"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Upload     UploadConfig     `mapstructure:"upload"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Frontend   FrontendConfig   `mapstructure:"frontend"`
	Backend    BackendConfig    `mapstructure:"backend"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AgentConfig describes both sides of the decomposition agent: the
// fields the agent process serves under, and the URL the gateway
// client calls it on.
type AgentConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Name              string        `mapstructure:"name"`
	Description       string        `mapstructure:"description"`
	Version           string        `mapstructure:"version"`
	Streaming         bool          `mapstructure:"streaming"`
	PushNotifications bool          `mapstructure:"push_notifications"`
	Vendor            string        `mapstructure:"vendor"`
	Model             string        `mapstructure:"model"`
	URL               string        `mapstructure:"url"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// Port returns the listen port embedded in BaseURL, or 9999 when the
// URL carries none.
func (c AgentConfig) Port() int {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return 9999
	}
	if p, err := strconv.Atoi(u.Port()); err == nil && p > 0 {
		return p
	}
	return 9999
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

type CheckpointConfig struct {
	DSN              string `mapstructure:"dsn"`
	StorageDir       string `mapstructure:"storage_dir"`
	MaxConversations int    `mapstructure:"max_conversations"`
}

// EffectiveDSN returns the configured checkpoint DSN, falling back to
// a SQLite file under the storage directory.
func (c CheckpointConfig) EffectiveDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return filepath.Join(c.StorageDir, "conversations.db")
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type LLMConfig struct {
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Google    GoogleConfig    `mapstructure:"google"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	Timeout   time.Duration   `mapstructure:"timeout"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type GoogleConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type OllamaConfig struct {
	Host string `mapstructure:"host"`
}

type UploadConfig struct {
	Folder  string `mapstructure:"folder"`
	MaxSize int64  `mapstructure:"max_size"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
	Debug bool   `mapstructure:"debug"`
}

type FrontendConfig struct {
	URL string `mapstructure:"url"`
}

type BackendConfig struct {
	URL string `mapstructure:"url"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file path
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if _, statErr := os.Stat(configPath); !os.IsNotExist(statErr) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
		// Config file not found, use defaults and env vars
	}

	// Override with environment variables
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.middleware_timeout", "5m")

	// Agent
	v.SetDefault("agent.base_url", "http://modchat.agent.com:9999")
	v.SetDefault("agent.name", "DecomposeAgent")
	v.SetDefault("agent.description", "Agent that decomposes a solution into components")
	v.SetDefault("agent.version", "1.0")
	v.SetDefault("agent.streaming", false)
	v.SetDefault("agent.push_notifications", false)
	v.SetDefault("agent.vendor", "openai")
	v.SetDefault("agent.model", "gpt-4.1-mini")
	v.SetDefault("agent.url", "http://modchat.agent.com:9999")
	v.SetDefault("agent.timeout", "300s")

	// Database
	v.SetDefault("database.max_conns", 5)
	v.SetDefault("database.min_conns", 1)

	// Checkpoint
	v.SetDefault("checkpoint.storage_dir", "conversations")
	v.SetDefault("checkpoint.max_conversations", 100)

	// Redis
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// LLM
	v.SetDefault("llm.ollama.host", "http://localhost:11434")
	v.SetDefault("llm.timeout", "60s")

	// Upload
	v.SetDefault("upload.folder", "uploads")
	v.SetDefault("upload.max_size", 16777216) // 16 MB

	// Rate limiting
	v.SetDefault("rate_limit.requests_per_minute", 60)
	v.SetDefault("rate_limit.burst", 10)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "app.log")
	v.SetDefault("logging.debug", false)

	// Frontend / backend
	v.SetDefault("frontend.url", "http://modchat.frontend.com:8888")
	v.SetDefault("backend.url", "http://modchat.backend.com:5000")
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.port", "SERVER_PORT")

	// Agent
	v.BindEnv("agent.base_url", "AGENT_BASE_URL")
	v.BindEnv("agent.name", "AGENT_NAME")
	v.BindEnv("agent.description", "AGENT_DESCRIPTION")
	v.BindEnv("agent.version", "AGENT_VERSION")
	v.BindEnv("agent.streaming", "AGENT_STREAMING_ENABLED")
	v.BindEnv("agent.push_notifications", "AGENT_PUSH_NOTIFICATIONS_ENABLED")
	v.BindEnv("agent.vendor", "LLM_VENDOR")
	v.BindEnv("agent.model", "LLM_MODEL_ID")
	v.BindEnv("agent.url", "MOD_AGENT_URL")

	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// Checkpoint
	v.BindEnv("checkpoint.dsn", "CHECKPOINT_DSN")
	v.BindEnv("checkpoint.storage_dir", "CONVERSATION_STORAGE_DIR")
	v.BindEnv("checkpoint.max_conversations", "MAX_CONVERSATIONS_IN_MEMORY")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// LLM API keys
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.google.api_key", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	v.BindEnv("llm.ollama.host", "OLLAMA_HOST")

	// Uploads
	v.BindEnv("upload.folder", "UPLOAD_FOLDER")
	v.BindEnv("upload.max_size", "MAX_UPLOAD_SIZE")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.file", "LOG_FILE")
	v.BindEnv("logging.debug", "DEBUG_MODE")

	// CORS origins
	v.BindEnv("frontend.url", "FRONTEND_URL")
	v.BindEnv("backend.url", "BACKEND_URL")
}
