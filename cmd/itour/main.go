package main

import (
	"log"

	"github.com/MrSnakeDoc/itour/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ itour failed to start: %v", err)
	}
}
