package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/webportal/internal/admin"
	"github.com/dmitrijs2005/webportal/internal/logging"
	"github.com/dmitrijs2005/webportal/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app, err := admin.NewApp(ctx, cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = app.Run(ctx, os.Args[1:])
	_ = app.Close()
	if err != nil {
		// a bare ErrUsage means the usage text was already printed
		if err != admin.ErrUsage { //nolint:errorlint
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
