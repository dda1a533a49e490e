package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/bodykeeper/internal/buildinfo"
	"github.com/dmitrijs2005/bodykeeper/internal/client/cli"
	"github.com/dmitrijs2005/bodykeeper/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// A second interrupt kills the process even while the REPL waits for input.
	go func() {
		<-ctx.Done()
		stop()
	}()

	cfg := config.LoadConfig()

	if err := cli.NewRootCmd(cfg).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}

}
