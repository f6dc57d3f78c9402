package main

import (
	"flag"
	"log"

	"github.com/smartinertia/flywheel/internal/app"
	"github.com/smartinertia/flywheel/internal/config"
)

func main() {
	configPath := flag.String("config", "./flywheel_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting flywheel console (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
