package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/arnavshah/staffmonitr-go/internal/config"
	"github.com/arnavshah/staffmonitr-go/internal/devserver"
	"github.com/arnavshah/staffmonitr-go/internal/logger"
	"github.com/arnavshah/staffmonitr-go/pkg/database"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// Load .env if it exists
	config.LoadEnv()

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := logger.Init(conf.Log.Environment); err != nil {
		log.Fatalf("could not init logger: %v", err)
	}
	defer zap.L().Sync()

	dev := conf.DevAPI
	if dev.JWTSecret == "" {
		zap.L().Fatal("STAFFMONITR_DEVAPI_JWT_SECRET is required")
	}

	db, err := database.Open(database.Config{
		DatabaseURL: dev.DatabaseURL,
		SQLitePath:  dev.SQLitePath,
	})
	if err != nil {
		zap.L().Fatal("could not open database", zap.Error(err))
	}

	srv, err := devserver.New(db, devserver.Options{
		JWTSecret:      []byte(dev.JWTSecret),
		TokenTTL:       dev.JWTExpiry,
		AllowedOrigins: dev.AllowedOrigins,
		GinMode:        dev.GinMode,
		Logger:         zap.L(),
	})
	if err != nil {
		zap.L().Fatal("could not build server", zap.Error(err))
	}

	if dev.Seed {
		if err := devserver.Seed(context.Background(), db, 0); err != nil {
			zap.L().Fatal("could not seed demo data", zap.Error(err))
		}
	}

	zap.L().Info("server starting", zap.String("addr", dev.Addr))
	if err := srv.Router.Run(dev.Addr); err != nil {
		zap.L().Fatal("could not run server", zap.Error(err))
	}
}
