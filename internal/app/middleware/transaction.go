package middleware

import (
	"context"
	"fmt"

	"rentflow/internal/app/commands"
	"rentflow/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction runs the rest of the chain inside one unit of work. Any error
// rolls back before it is returned.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, fmt.Errorf("middleware: begin %s: %w", cmd.Key(), err)
			}
			execCtx := uow.Scope(ctx, unit)
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := nextFn(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, fmt.Errorf("middleware: commit %s: %w", cmd.Key(), err)
			}
			committed = true
			return res, nil
		})
	}
}
