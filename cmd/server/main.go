package main

import (
	"context"
	"log"

	"flag-rush/internal/app"
)

func main() {
	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
