package main

import (
	"log"

	"whatip/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ whatip failed to start: %v", err)
	}
}
