package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/webportal/internal/server"
	"github.com/dmitrijs2005/webportal/internal/server/config"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("fatal: %v", r)
			os.Exit(1)
		}
	}()

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	app.Run(ctx)
}
