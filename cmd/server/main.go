package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/kabyedict/internal/server"
	"github.com/dmitrijs2005/kabyedict/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg, server.NewLogger(cfg.LogLevel))

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
