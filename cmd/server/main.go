package main

import (
	"context"
	"fmt"
	"os"

	"github.com/courseloom/courseloom-backend/internal/app"
	"github.com/courseloom/courseloom-backend/internal/platform/shutdown"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	a.Start()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(":" + a.Cfg.Port)
	}()

	select {
	case <-ctx.Done():
		a.Close()
	case err := <-errCh:
		a.Close()
		if err != nil {
			fmt.Printf("server exited: %v\n", err)
			os.Exit(1)
		}
	}
}
