package bootstrap

import (
	"context"
	"fmt"
)

// Hook is user code run at a lifecycle point.
type Hook func(ctx context.Context) error

// OnStart registers hooks run once all components are up.
func (a *App[C]) OnStart(hooks ...Hook) { a.onStart = append(a.onStart, hooks...) }

// OnReady registers hooks run after the ready check.
func (a *App[C]) OnReady(hooks ...Hook) { a.onReady = append(a.onReady, hooks...) }

// OnStop registers hooks run before components stop. Their errors are
// reported but do not prevent the stop.
func (a *App[C]) OnStop(hooks ...Hook) { a.onStop = append(a.onStop, hooks...) }

// runHooks stops at the first failing hook.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i := range hooks {
		if err := hooks[i](ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
