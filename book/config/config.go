package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/lbrs/book-reservation-service/pkg/auth"
	"github.com/lbrs/book-reservation-service/pkg/kafka"
	"github.com/lbrs/book-reservation-service/pkg/logger"
	"github.com/lbrs/book-reservation-service/pkg/postgres"
	"github.com/lbrs/book-reservation-service/pkg/server"
	"go.uber.org/zap/zapcore"
)

type Expiry struct {
	SweepInterval time.Duration `yaml:"sweepInterval" envconfig:"EXPIRY_SWEEP_INTERVAL" default:"1m"`
	PickupWindow  time.Duration `yaml:"pickupWindow" envconfig:"EXPIRY_PICKUP_WINDOW" default:"72h"`
}

type Config struct {
	Server   server.Config
	Database postgres.Config
	Kafka    kafka.Config
	Expiry   Expiry
	JWT      auth.Config
	Log      logger.Log `yaml:"log"`
}

type Option func(*Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		c.Log.LogLevel = level
	}
}

func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Server.WriteTimeout = timeout
	}
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		if err := envconfig.Process("BOOK", &config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return &cfg
}

func printConfig(cfg Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
