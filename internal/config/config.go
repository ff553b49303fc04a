package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// Browser origins allowed to call the API. Comma separated in env.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// RedisConfig enables the shared per-user lock. Leave Addr empty to use an
// in-process lock (single instance deployments).
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig holds the secret shared with the auth service that mints tokens.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type OpenAIConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	ClassifierModel string `mapstructure:"classifier_model"`
	GenerationModel string `mapstructure:"generation_model"`
}

// EngineConfig bounds the cost of each modification request.
type EngineConfig struct {
	ClassifierTimeout time.Duration `mapstructure:"classifier_timeout"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
	TemplateTimeout   time.Duration `mapstructure:"template_timeout"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	ContextTurns      int           `mapstructure:"context_turns"`
	LockTTL           time.Duration `mapstructure:"lock_ttl"`
	BreakerFailures   uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown   time.Duration `mapstructure:"breaker_cooldown"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, engine.lock_ttl -> ENGINE_LOCK_TTL
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// Environment variables and defaults are enough.
		err = nil
	} else if err != nil {
		return
	}

	// Durations are given as strings ("10s", "2m") and decoded by viper.
	err = v.Unmarshal(&config)
	if err != nil {
		return
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "plan_engine")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "plan-exports")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.classifier_model", "gpt-4o-mini")
	v.SetDefault("openai.generation_model", "gpt-4o")
	v.SetDefault("engine.classifier_timeout", "10s")
	v.SetDefault("engine.generation_timeout", "120s")
	v.SetDefault("engine.template_timeout", "5s")
	v.SetDefault("engine.retry_backoff", "500ms")
	v.SetDefault("engine.context_turns", 10)
	v.SetDefault("engine.lock_ttl", "3m")
	v.SetDefault("engine.breaker_failures", 5)
	v.SetDefault("engine.breaker_cooldown", "30s")
	v.SetDefault("log.mode", "dev")
}
