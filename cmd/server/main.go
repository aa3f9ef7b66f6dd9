package main

import (
	"flag"
	"log"
	"os"

	"github.com/simp-lee/membersearch/internal/app"
	"github.com/simp-lee/membersearch/internal/config"
)

func main() {
	defaultPath := "configs/config.yaml"
	if p := os.Getenv("MEMBERSEARCH_CONFIG"); p != "" {
		defaultPath = p
	}
	configPath := flag.String("config", defaultPath, "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal("failed to create app: ", err)
	}

	if err := a.Run(); err != nil {
		log.Fatal("server error: ", err)
	}
}
