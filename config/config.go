package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const app = "vela"

// Config holds everything the server needs at startup. Values come from
// vela.yaml when present, overridden by VELA_* environment variables.
type Config struct {
	Port      string `mapstructure:"port"`
	Debug     bool   `mapstructure:"debug"`
	JSONLogs  bool   `mapstructure:"json-logs"`
	AWSRegion string `mapstructure:"aws-region"`
	S3Bucket  string `mapstructure:"s3-bucket"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`

	Gemini struct {
		APIKey  string        `mapstructure:"api-key"`
		Model   string        `mapstructure:"model"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"gemini"`

	Matching struct {
		DailyLikeAllowance int           `mapstructure:"daily-like-allowance"`
		CandidateLimit     int           `mapstructure:"candidate-limit"`
		ScorerConcurrency  int           `mapstructure:"scorer-concurrency"`
		QueueTTL           time.Duration `mapstructure:"queue-ttl"`
		StateTTL           time.Duration `mapstructure:"state-ttl"`
		NotifyRetries      int           `mapstructure:"notify-retries"`
		StoreTimeout       time.Duration `mapstructure:"store-timeout"`
	} `mapstructure:"matching"`
}

// Load reads the configuration, applying defaults for everything optional.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("aws-region", "ap-northeast-1")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.timeout", 15*time.Second)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("matching.daily-like-allowance", 20)
	v.SetDefault("matching.candidate-limit", 50)
	v.SetDefault("matching.scorer-concurrency", 10)
	v.SetDefault("matching.queue-ttl", time.Hour)
	v.SetDefault("matching.state-ttl", time.Hour)
	v.SetDefault("matching.notify-retries", 2)
	v.SetDefault("matching.store-timeout", 5*time.Second)

	v.SetEnvPrefix(strings.ToUpper(app))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(app)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
