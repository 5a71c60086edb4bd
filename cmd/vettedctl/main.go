package main

import (
	"fmt"
	"os"

	"vetted-backend/internal/bootstrap"
	"vetted-backend/internal/cli"
	"vetted-backend/internal/shared/config"
)

func main() {
	connect := func() (cli.Backend, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		app, err := bootstrap.Build(cfg)
		if err != nil {
			return nil, err
		}
		return cli.AppBackend{App: app}, nil
	}
	if err := cli.NewRootCmd(connect, os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
