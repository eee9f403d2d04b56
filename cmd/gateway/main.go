package main

import (
	stdLog "log"
	"time"

	"github.com/joho/godotenv"
	"github.com/lbrs/book-reservation-service/gateway/app"
	"github.com/lbrs/book-reservation-service/gateway/config"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Println("load envs from .env ", err)
	}
	cfg := config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithWriteTimeout(time.Minute),
	)

	if err := app.Run(cfg); err != nil {
		stdLog.Fatal(err)
	}
}
