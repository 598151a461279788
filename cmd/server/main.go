package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/agenthands/infoase/internal/config"
	"github.com/agenthands/infoase/internal/core"
	"github.com/agenthands/infoase/internal/logger"
	"github.com/agenthands/infoase/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		if _, err := os.Stat("config/config.toml"); err == nil {
			cfgPath = "config/config.toml"
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer l.Sync()

	ctx := context.Background()
	svc, err := core.Open(ctx, cfg, l)
	if err != nil {
		l.Fatal("failed to start service", "error", err)
	}
	defer svc.Close(ctx)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := server.NewServer(svc, l).SetupRouter()

	l.Info("starting server", "port", cfg.Server.Port, "config", cfgPath)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		l.Error("server stopped", "error", err)
	}
}
