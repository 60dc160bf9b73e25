package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/JoseAlvarezDev/BusCar/internal/app"
	"github.com/JoseAlvarezDev/BusCar/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	configPath := os.Getenv("BUSCAR_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	application.Run()
}
