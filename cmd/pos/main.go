package main

import (
	"context"
	"os"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/oolio-pos/internal/cli"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		return cli.New(cli.Options{
			Logger:    lg,
			Telemetry: m,
		}).Run(ctx, os.Args[1:])
	})
}
