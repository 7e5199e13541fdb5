package middleware

import (
	"context"
	"log/slog"
	"time"

	"rentflow/internal/app/commands"
	"rentflow/internal/app/queries"
	"rentflow/internal/domain/shared/errs"
)

// CommandMiddleware wraps a command bus with additional behavior (tx, outbox, etc.).
type CommandMiddleware func(next commands.Bus) commands.Bus

// QueryMiddleware wraps a query bus with extra behavior.
type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands builds a command bus wrapped with the provided middleware (outermost first).
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	return chain(base, mws)
}

// ChainQueries builds a query bus with middleware applied (outermost first).
func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	return chain(base, mws)
}

func chain[B any, M ~func(B) B](base B, mws []M) B {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

// Logging writes one line per dispatched command with its outcome. Domain
// refusals are logged at info, internal failures at error.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			attrs := []any{"command", cmd.Key(), "duration", time.Since(start)}
			switch {
			case err == nil:
				logger.DebugContext(ctx, "command handled", attrs...)
			case errs.KindOf(err) == errs.KindInternal:
				logger.ErrorContext(ctx, "command failed", append(attrs, "error", err)...)
			default:
				logger.InfoContext(ctx, "command refused", append(attrs, "kind", string(errs.KindOf(err)), "error", err)...)
			}
			return res, err
		})
	}
}

// commandFunc allows lightweight middleware composition without new structs per wrapper.
type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

func wrapCommand(next commands.Bus) commandFunc {
	return func(ctx context.Context, cmd commands.Command) (any, error) {
		return next.Dispatch(ctx, cmd)
	}
}

type queryFunc func(ctx context.Context, query queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}

func wrapQuery(next queries.Bus) queryFunc {
	return func(ctx context.Context, q queries.Query) (any, error) {
		return next.Ask(ctx, q)
	}
}
