package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/avaldivia/cosecha/internal/cli"
	"github.com/avaldivia/cosecha/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development; ignored when absent.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("COSECHA_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	return cli.NewRootCmd(cfg).Execute()
}
