package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Service *svcConfig
}

type svcConfig struct {
	Address             string        `envconfig:"ORCHESTRATOR_ADDRESS" default:":8000"`
	MetricsAddress      string        `envconfig:"ORCHESTRATOR_METRICS_ADDRESS" default:":8080"`
	LogLevel            string        `envconfig:"ORCHESTRATOR_LOG_LEVEL" default:"info"`
	DefaultUnit         string        `envconfig:"ORCHESTRATOR_DEFAULT_UNIT" default:"content_pipeline"`
	MaxConcurrentJobs   int64         `envconfig:"ORCHESTRATOR_MAX_CONCURRENT_JOBS" default:"4"`
	WebhookTimeout      time.Duration `envconfig:"ORCHESTRATOR_WEBHOOK_TIMEOUT" default:"10s"`
	WebhookMaxAttempts  uint64        `envconfig:"ORCHESTRATOR_WEBHOOK_MAX_ATTEMPTS" default:"3"`
	SubscriberQueueSize int           `envconfig:"ORCHESTRATOR_SUBSCRIBER_QUEUE_SIZE" default:"64"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a config populated from defaults and the current environment.
// It is intended for tests.
func NewDefault() *Config {
	cfg := new(Config)
	envconfig.MustProcess("", cfg)
	return cfg
}
