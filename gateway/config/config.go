package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/lbrs/book-reservation-service/pkg/auth"
	"github.com/lbrs/book-reservation-service/pkg/logger"
	"github.com/lbrs/book-reservation-service/pkg/server"
	"go.uber.org/zap/zapcore"
)

type BookHTTPServer struct {
	Host string `envconfig:"BOOK_HTTP_HOST" default:"localhost"`
	Port string `envconfig:"BOOK_HTTP_PORT" default:"8081"`
}

type MemberHTTPServer struct {
	Host string `envconfig:"MEMBER_HTTP_HOST" default:"localhost"`
	Port string `envconfig:"MEMBER_HTTP_PORT" default:"8082"`
}

type StatsHTTPServer struct {
	Host string `envconfig:"STATS_HTTP_HOST" default:"localhost"`
	Port string `envconfig:"STATS_HTTP_PORT" default:"8083"`
}

type Config struct {
	Server           server.Config
	BookHTTPServer   BookHTTPServer
	MemberHTTPServer MemberHTTPServer
	StatsHTTPServer  StatsHTTPServer
	JWT              auth.Config
	Log              logger.Log `yaml:"log"`
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
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		if err := envconfig.Process("GATEWAY", &config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
