package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/liangyou/seed/internal/cli"
	"github.com/liangyou/seed/internal/engine"
)

const appVersion = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cli.DefaultServices, cli.WithVersion(appVersion))
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if engine.IsCancelled(err) {
			color.New(color.FgYellow).Fprintln(os.Stderr, "installation cancelled")
			stop()
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		stop()
		os.Exit(1)
	}
}
