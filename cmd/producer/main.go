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

	log.Println("starting flywheel serial producer (serial → MQTT)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
