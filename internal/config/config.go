package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/wb-go/wbf/retry"

	"restage-service/internal/domain"
)

type Config struct {
	Server    ServerConfig    `env-prefix:"SERVER_"`
	Providers ProvidersConfig ``
	Publisher PublisherConfig ``
	Poller    PollerConfig    `env-prefix:"POLL_"`
	Retry     RetryConfig     `env-prefix:"RETRY_"`
	Kafka     KafkaConfig     `env-prefix:"KAFKA_"`
	Worker    WorkerConfig    `env-prefix:"WORKER_"`
	Stamp     StampConfig     `env-prefix:"STAMP_"`
}

type ServerConfig struct {
	Addr            string        `env:"ADDR" env-default:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" env-default:"300s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type ProvidersConfig struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" env-default:"gemini-2.5-flash-image"`
	// GeminiModes lists transformation modes routed to the synchronous Gemini
	// adapter; everything else goes to the async Kie adapter.
	GeminiModes []string `env:"GEMINI_MODES" env-default:""`

	KieAPIKey  string `env:"KIE_API_KEY"`
	KieBaseURL string `env:"KIE_BASE_URL" env-default:"https://api.kie.ai"`
	KieModel   string `env:"KIE_MODEL" env-default:"google/nano-banana-edit"`

	RequestTimeout time.Duration `env:"PROVIDER_TIMEOUT" env-default:"60s"`
}

type PublisherConfig struct {
	ImgBBAPIKey string        `env:"IMGBB_API_KEY"`
	ImgBBExpiry time.Duration `env:"IMGBB_EXPIRY" env-default:"10m"`

	MinioEndpoint  string        `env:"MINIO_ENDPOINT"`
	MinioAccessKey string        `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string        `env:"MINIO_SECRET_KEY"`
	MinioBucket    string        `env:"MINIO_BUCKET" env-default:"restage-uploads"`
	MinioUseSSL    bool          `env:"MINIO_USE_SSL" env-default:"true"`
	MinioURLExpiry time.Duration `env:"MINIO_URL_EXPIRY" env-default:"15m"`
}

type PollerConfig struct {
	Interval    time.Duration `env:"INTERVAL" env-default:"2s"`
	FirstDelay  time.Duration `env:"FIRST_DELAY" env-default:"500ms"`
	MaxAttempts int           `env:"MAX_ATTEMPTS" env-default:"60"`
}

type RetryConfig struct {
	Attempts int           `env:"ATTEMPTS" env-default:"3"`
	Delay    time.Duration `env:"DELAY" env-default:"500ms"`
	Backoff  float64       `env:"BACKOFF" env-default:"2"`
}

type KafkaConfig struct {
	Brokers      []string `env:"BROKERS"`
	RestageTopic string   `env:"RESTAGE_TOPIC" env-default:"restage-tasks"`
	ResultsTopic string   `env:"RESULTS_TOPIC" env-default:"restage-results"`
	GroupID      string   `env:"GROUP_ID" env-default:"restage-worker-group"`
}

type WorkerConfig struct {
	Concurrency int `env:"CONCURRENCY" env-default:"2"`
}

type StampConfig struct {
	Enabled bool   `env:"ENABLED" env-default:"false"`
	Text    string `env:"TEXT" env-default:"Virtually staged"`
}

// MissingCredentialError reports a required secret that was absent from the
// environment. Dependent operations fail fast with it before any network call.
type MissingCredentialError struct {
	Name string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("configuration: %s is not set", e.Name)
}

func MustLoad() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if cfg.Poller.MaxAttempts <= 0 {
		cfg.Poller.MaxAttempts = domain.DefaultMaxPollAttempts
	}
	if cfg.Poller.Interval <= 0 {
		cfg.Poller.Interval = domain.DefaultPollInterval
	}
	return &cfg, nil
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}

// RequireKieKey validates the Kie credential at the point of use.
func (c *Config) RequireKieKey() error {
	if strings.TrimSpace(c.Providers.KieAPIKey) == "" {
		return &MissingCredentialError{Name: "KIE_API_KEY"}
	}
	return nil
}

// RequireGeminiKey validates the Gemini credential at the point of use.
func (c *Config) RequireGeminiKey() error {
	if strings.TrimSpace(c.Providers.GeminiAPIKey) == "" {
		return &MissingCredentialError{Name: "GEMINI_API_KEY"}
	}
	return nil
}

// GeminiMode reports whether the given transformation mode is routed to the
// synchronous Gemini adapter.
func (c *Config) GeminiMode(mode string) bool {
	for _, m := range c.Providers.GeminiModes {
		if strings.EqualFold(strings.TrimSpace(m), mode) {
			return true
		}
	}
	return false
}

// KafkaEnabled reports whether batch dispatch through Kafka is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}
