package main

import (
	"context"
	"log"

	"github.com/aleksvolk/connectboard/internal/client/cli"
	"github.com/aleksvolk/connectboard/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}
}
