package main

import (
	"os"

	"discover-release/internal/logger"

	// Explicitly import provider implementations to ensure their init() functions run and they register themselves
	_ "discover-release/internal/provider"
)

func main() {
	log := logger.NewLogger()

	app, err := newApp(log)
	if err != nil {
		log.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	Execute(app)
}
