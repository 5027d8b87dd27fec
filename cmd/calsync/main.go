package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli"

	"calsync/internal/cmd"
	appLog "calsync/internal/log"
)

var version = "0.1.0"

func init() {
	if err := godotenv.Load(); err != nil {
		appLog.Debug("no .env loaded", "err", err)
	}
}

func main() {
	app := cli.App{
		Name:    cmd.AppName,
		Usage:   "one-way calendar sync from all mail account stores into one destination calendar",
		Version: version,
		Commands: []cli.Command{
			cmd.SyncCmd,
			cmd.StoresCmd,
			cmd.DaemonCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
