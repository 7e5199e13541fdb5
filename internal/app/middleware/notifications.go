package middleware

import (
	"context"
	"fmt"
	"log/slog"

	"rentflow/internal/app/commands"
	"rentflow/internal/app/policies"
)

// Notifications gives each command a collector and delivers what it
// gathered after the inner chain (and its transaction) succeeded. Each
// recipient is sent to independently; failures and panics are logged and
// never reach the caller.
func Notifications(notifier policies.Notifier, logger *slog.Logger) CommandMiddleware {
	if notifier == nil {
		panic("middleware: notifier required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			box := &policies.Outbox{}
			res, err := nextFn(policies.ContextWithOutbox(ctx, box), cmd)
			if err != nil {
				return nil, err
			}
			for _, n := range box.Take() {
				if sendErr := deliver(ctx, notifier, n); sendErr != nil {
					logger.WarnContext(ctx, "notification failed",
						"command", cmd.Key(),
						"user_id", n.UserID,
						"title", n.Title,
						"error", sendErr,
					)
				}
			}
			return res, nil
		})
	}
}

func deliver(ctx context.Context, notifier policies.Notifier, n policies.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return notifier.Notify(ctx, n)
}
