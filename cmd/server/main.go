// Command server runs the meethalfway web application.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/meethalfway/meethalfway/internal/app"
	"github.com/meethalfway/meethalfway/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "meethalfway:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	return a.Run()
}
