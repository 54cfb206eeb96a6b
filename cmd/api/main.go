package main

import (
	"context"
	"log"
	"time"

	"github.com/gokatarajesh/trivia/internal/app"
	"github.com/gokatarajesh/trivia/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	instance, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build app: %v", err)
	}

	if err := instance.Run(context.Background()); err != nil {
		log.Fatalf("runtime error: %v", err)
	}
}
