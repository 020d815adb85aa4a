package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Masumi    MasumiConfig
	Agent     AgentConfig
	Payment   PaymentConfig
	OpenAI    OpenAIConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MasumiConfig points at the payment service.
type MasumiConfig struct {
	PaymentServiceURL string
	APIKey            string
	Network           string
}

// AgentConfig is the seller-side identity this service is registered under.
type AgentConfig struct {
	Identifier   string
	SellerVKey   string
	APIURL       string
	PollInterval time.Duration
}

// PaymentConfig is the price of one job.
type PaymentConfig struct {
	Amount string
	Unit   string
}

// OpenAIConfig configures the model API the agent crew runs on.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type RateLimitConfig struct {
	StartJobPerHour   int
	ReflectionPerMin  int
	CompletionPerHour int
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("PAYMENT_API_KEY")
	readSecret("OPENAI_API_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("masumi.payment_service_url", "PAYMENT_SERVICE_URL")
	_ = viper.BindEnv("masumi.api_key", "PAYMENT_API_KEY")
	_ = viper.BindEnv("masumi.network", "NETWORK")
	_ = viper.BindEnv("agent.identifier", "AGENT_IDENTIFIER")
	_ = viper.BindEnv("agent.seller_vkey", "SELLER_VKEY")
	_ = viper.BindEnv("agent.api_url", "API_URL")
	_ = viper.BindEnv("agent.poll_interval_seconds", "PAYMENT_POLL_INTERVAL")
	_ = viper.BindEnv("payment.amount", "PAYMENT_AMOUNT")
	_ = viper.BindEnv("payment.unit", "PAYMENT_UNIT")
	_ = viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = viper.BindEnv("openai.model", "OPENAI_MODEL")
	_ = viper.BindEnv("ratelimit.start_job_per_hour", "RATELIMIT_START_JOB_PER_HOUR")
	_ = viper.BindEnv("ratelimit.reflection_per_min", "RATELIMIT_REFLECTION_PER_MIN")
	_ = viper.BindEnv("ratelimit.completion_per_hour", "RATELIMIT_COMPLETION_PER_HOUR")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Masumi defaults (preprod until registered on mainnet)
	viper.SetDefault("masumi.network", "Preprod")

	// Payment defaults: 10 ADA in lovelace
	viper.SetDefault("payment.amount", "10000000")
	viper.SetDefault("payment.unit", "lovelace")

	// Payment monitoring cadence
	viper.SetDefault("agent.poll_interval_seconds", 10)
	viper.SetDefault("agent.api_url", "http://localhost:8000")

	// Model API defaults
	viper.SetDefault("openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("openai.model", "gpt-4o-mini")

	viper.SetDefault("ratelimit.start_job_per_hour", 20)
	viper.SetDefault("ratelimit.reflection_per_min", 30)
	viper.SetDefault("ratelimit.completion_per_hour", 10)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Masumi: MasumiConfig{
			PaymentServiceURL: viper.GetString("masumi.payment_service_url"),
			APIKey:            viper.GetString("masumi.api_key"),
			Network:           viper.GetString("masumi.network"),
		},
		Agent: AgentConfig{
			Identifier:   viper.GetString("agent.identifier"),
			SellerVKey:   viper.GetString("agent.seller_vkey"),
			APIURL:       viper.GetString("agent.api_url"),
			PollInterval: time.Duration(viper.GetInt("agent.poll_interval_seconds")) * time.Second,
		},
		Payment: PaymentConfig{
			Amount: viper.GetString("payment.amount"),
			Unit:   viper.GetString("payment.unit"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  viper.GetString("openai.api_key"),
			BaseURL: viper.GetString("openai.base_url"),
			Model:   viper.GetString("openai.model"),
		},
		RateLimit: RateLimitConfig{
			StartJobPerHour:   viper.GetInt("ratelimit.start_job_per_hour"),
			ReflectionPerMin:  viper.GetInt("ratelimit.reflection_per_min"),
			CompletionPerHour: viper.GetInt("ratelimit.completion_per_hour"),
		},
	}

	return cfg, nil
}
