package main

import (
	"log"

	"github.com/nitrolabs/nitro/internal/app"
)

func main() {
	application, err := app.New(app.LoadConfig())
	if err != nil {
		log.Fatalf("nitro: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("nitro: %v", err)
	}
}
