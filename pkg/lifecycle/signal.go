package lifecycle

import (
	"context"
	"os"
	"os/signal"
)

// NotifyContext is signal.NotifyContext, except that the signals are released
// as soon as the context is done. A second interrupt during a slow save then
// gets the default behaviour and kills the process.
func NotifyContext(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, signals...)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}
