package main

import (
	stdLog "log"

	"github.com/joho/godotenv"
	"github.com/lbrs/book-reservation-service/stats/app"
	"github.com/lbrs/book-reservation-service/stats/config"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Println("load envs from .env ", err)
	}
	cfg := config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
	)

	if err := app.Run(cfg); err != nil {
		stdLog.Fatal(err)
	}
}
