package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyContext cancels the returned context on SIGINT or SIGTERM. A second
// signal exits the process immediately so a wedged shutdown can still be
// killed from the terminal.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		os.Exit(130)
	}()
	return ctx, cancel
}
