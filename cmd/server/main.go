package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"motion-arena/server/internal/app"
	"motion-arena/server/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := config.Load(logrus.StandardLogger())
	if err := app.Run(ctx, app.Config{Settings: settings}); err != nil {
		logrus.Fatalf("%v", err)
	}
}
