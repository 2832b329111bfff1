// Command vetta gathers business vetting information about a company.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/vetta/internal/adapters/driving/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetWiring(cli.Wiring{
		OpenConfig:   openConfig,
		Build:        buildServices,
		WorkerSource: workerSource,
	})
	code := cli.Execute(ctx)

	stop()
	os.Exit(code)
}
