// revsync aggregates one day of Rakuten order revenue per SKU and writes it
// into a Lark Bitable pivot table.
//
// Usage:
//
//	revsync sync [--date 2024-05-01]
//	revsync inspect [--app-token bascn... --table-id tbl...]
//	revsync serve
//	revsync migrate up|down|version
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

//go:generate swag init --v3.1 -g main.go -d ./,../../internal/interfaces/http -o ../../docs --outputTypes go

//	@title			revsync API
//	@version		1.0
//	@description	Daily per-SKU marketplace revenue sync into a Bitable pivot table.

//	@license.name	MIT

//	@BasePath	/

var (
	version = "dev"
	commit  = "none"
)

func main() {
	app := &cli.App{
		Name:    "revsync",
		Usage:   "Sync daily marketplace revenue per SKU into a Bitable pivot table",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config.toml (default: ./config.toml or /etc/revsync/config.toml)",
				EnvVars: []string{"REVSYNC_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override log.level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			syncCommand(),
			inspectCommand(),
			serveCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
