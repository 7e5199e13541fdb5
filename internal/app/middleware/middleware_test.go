package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentflow/internal/app/commands"
	"rentflow/internal/app/middleware"
	"rentflow/internal/app/policies"
	"rentflow/internal/app/uow"
	"rentflow/internal/domain/shared/errs"
	domainwallet "rentflow/internal/domain/wallet"
	"rentflow/internal/infra/storage/memory"
)

type chargeCommand struct {
	UserID     string `validate:"required"`
	RequestKey string
}

func (c chargeCommand) Key() string            { return "test.charge" }
func (c chargeCommand) IdempotencyKey() string { return c.RequestKey }
func (c chargeCommand) ResultPrototype() any   { return &chargeResult{} }

type chargeResult struct {
	Calls int `json:"calls"`
}

func newBus(t *testing.T, fn func(ctx context.Context, cmd chargeCommand) (*chargeResult, error)) *commands.InMemoryBus {
	t.Helper()
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, chargeCommand{}.Key(), commands.HandlerFunc[chargeCommand, *chargeResult](fn))
	return bus
}

func TestIdempotencyReplaysResult(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(
		newBus(t, func(ctx context.Context, cmd chargeCommand) (*chargeResult, error) {
			calls++
			return &chargeResult{Calls: calls}, nil
		}),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
	)
	ctx := context.Background()

	first, err := commands.Dispatch[chargeCommand, *chargeResult](ctx, bus, chargeCommand{UserID: "u1", RequestKey: "k1"})
	require.NoError(t, err)
	second, err := commands.Dispatch[chargeCommand, *chargeResult](ctx, bus, chargeCommand{UserID: "u1", RequestKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Calls, second.Calls)

	_, err = commands.Dispatch[chargeCommand, *chargeResult](ctx, bus, chargeCommand{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyStoresDomainErrorsOnly(t *testing.T) {
	calls := 0
	var next error
	bus := middleware.ChainCommands(
		newBus(t, func(ctx context.Context, cmd chargeCommand) (*chargeResult, error) {
			calls++
			return nil, next
		}),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
	)
	ctx := context.Background()

	next = errs.Conflict("already done")
	_, err := commands.Dispatch[chargeCommand, *chargeResult](ctx, bus, chargeCommand{UserID: "u1", RequestKey: "conflict"})
	require.Error(t, err)
	_, err = commands.Dispatch[chargeCommand, *chargeResult](ctx, bus, chargeCommand{UserID: "u1", RequestKey: "conflict"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, errs.Is(err, errs.KindConflict))
	assert.Equal(t, "already done", err.Error())

	next = errors.New("database unreachable")
	_, err = commands.Dispatch[chargeCommand, *chargeResult](ctx, bus, chargeCommand{UserID: "u1", RequestKey: "internal"})
	require.Error(t, err)
	_, err = commands.Dispatch[chargeCommand, *chargeResult](ctx, bus, chargeCommand{UserID: "u1", RequestKey: "internal"})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestIdempotencyReplaysTypedErrors(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		check func(t *testing.T, replayed error)
	}{
		{
			name: "balance shortfall",
			err:  &errs.BalanceError{UserID: "leaser-1", Required: 101, Current: 10},
			check: func(t *testing.T, replayed error) {
				var bal *errs.BalanceError
				require.ErrorAs(t, replayed, &bal)
				assert.Equal(t, "leaser-1", bal.UserID)
				assert.InDelta(t, 101, bal.Required, 0.001)
				assert.InDelta(t, 10, bal.Current, 0.001)
			},
		},
		{
			name: "missing documents",
			err:  &errs.DocumentError{Missing: []string{"passport", "licence"}},
			check: func(t *testing.T, replayed error) {
				var doc *errs.DocumentError
				require.ErrorAs(t, replayed, &doc)
				assert.Equal(t, []string{"passport", "licence"}, doc.Missing)
			},
		},
		{
			name: "coded conflict",
			err:  errs.Conflict("already settled").WithCode("already_processed"),
			check: func(t *testing.T, replayed error) {
				assert.Equal(t, "already_processed", errs.CodeOf(replayed))
				assert.True(t, errs.Is(replayed, errs.KindConflict))
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			bus := middleware.ChainCommands(
				newBus(t, func(ctx context.Context, cmd chargeCommand) (*chargeResult, error) {
					calls++
					return nil, tc.err
				}),
				middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
			)
			cmd := chargeCommand{UserID: "u1", RequestKey: "k"}
			_, err := commands.Dispatch[chargeCommand, *chargeResult](context.Background(), bus, cmd)
			require.Error(t, err)
			replayed, err := commands.Dispatch[chargeCommand, *chargeResult](context.Background(), bus, cmd)
			require.Nil(t, replayed)
			require.Error(t, err)
			assert.Equal(t, 1, calls)
			assert.Equal(t, tc.err.Error(), err.Error())
			tc.check(t, err)
		})
	}
}

type stubNotifier struct {
	sent  []policies.Notification
	err   error
	panic bool
}

func (s *stubNotifier) Notify(ctx context.Context, n policies.Notification) error {
	if s.panic {
		panic("boom")
	}
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

func TestNotificationsDeliveredAfterSuccessOnly(t *testing.T) {
	var fail error
	notifier := &stubNotifier{}
	bus := middleware.ChainCommands(
		newBus(t, func(ctx context.Context, cmd chargeCommand) (*chargeResult, error) {
			policies.Enqueue(ctx, policies.Notification{UserID: cmd.UserID, Title: "charged"})
			return &chargeResult{}, fail
		}),
		middleware.Notifications(notifier, nil),
	)
	ctx := context.Background()

	_, err := commands.Dispatch[chargeCommand, *chargeResult](ctx, bus, chargeCommand{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "u1", notifier.sent[0].UserID)

	fail = errs.Validation("nope")
	_, err = commands.Dispatch[chargeCommand, *chargeResult](ctx, bus, chargeCommand{UserID: "u2"})
	require.Error(t, err)
	assert.Len(t, notifier.sent, 1)
}

func TestNotificationFailuresAreSwallowed(t *testing.T) {
	for name, notifier := range map[string]*stubNotifier{
		"error": {err: errors.New("smtp down")},
		"panic": {panic: true},
	} {
		t.Run(name, func(t *testing.T) {
			bus := middleware.ChainCommands(
				newBus(t, func(ctx context.Context, cmd chargeCommand) (*chargeResult, error) {
					policies.Enqueue(ctx, policies.Notification{UserID: cmd.UserID})
					return &chargeResult{Calls: 1}, nil
				}),
				middleware.Notifications(notifier, nil),
			)
			res, err := commands.Dispatch[chargeCommand, *chargeResult](context.Background(), bus, chargeCommand{UserID: "u1"})
			require.NoError(t, err)
			assert.Equal(t, 1, res.Calls)
		})
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	store := memory.NewStore()
	factory := memory.Factory{Store: store}
	var fail error
	bus := middleware.ChainCommands(
		newBus(t, func(ctx context.Context, cmd chargeCommand) (*chargeResult, error) {
			unit, err := uow.Current(ctx)
			if err != nil {
				return nil, err
			}
			w, err := domainwallet.New(cmd.UserID, 50, time.Now())
			if err != nil {
				return nil, err
			}
			if err := unit.Wallets().Save(ctx, w); err != nil {
				return nil, err
			}
			return &chargeResult{}, fail
		}),
		middleware.Transaction(factory, nil),
	)
	ctx := context.Background()

	fail = errs.Conflict("late failure")
	_, err := commands.Dispatch[chargeCommand, *chargeResult](ctx, bus, chargeCommand{UserID: "u1"})
	require.Error(t, err)

	fail = nil
	_, err = commands.Dispatch[chargeCommand, *chargeResult](ctx, bus, chargeCommand{UserID: "u2"})
	require.NoError(t, err)

	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer func() { _ = unit.Rollback(ctx) }()
	_, err = unit.Wallets().ByUserID(ctx, "u1")
	assert.True(t, errs.Is(err, errs.KindNotFound))
	w, err := unit.Wallets().ByUserID(ctx, "u2")
	require.NoError(t, err)
	assert.InDelta(t, 50, float64(w.Balance), 0.001)
}

func TestHandlersOutsideTransactionHaveNoUnit(t *testing.T) {
	bus := newBus(t, func(ctx context.Context, cmd chargeCommand) (*chargeResult, error) {
		_, err := uow.Current(ctx)
		return nil, err
	})
	_, err := commands.Dispatch[chargeCommand, *chargeResult](context.Background(), bus, chargeCommand{UserID: "u1"})
	assert.ErrorIs(t, err, uow.ErrUnitOfWorkMissing)
}

func TestValidationRejectsMissingFields(t *testing.T) {
	called := false
	bus := middleware.ChainCommands(
		newBus(t, func(ctx context.Context, cmd chargeCommand) (*chargeResult, error) {
			called = true
			return &chargeResult{}, nil
		}),
		middleware.Validation(middleware.NewStructValidator()),
	)
	_, err := commands.Dispatch[chargeCommand, *chargeResult](context.Background(), bus, chargeCommand{})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindValidation))
	assert.Contains(t, err.Error(), "UserID")
	assert.False(t, called)
}

func TestLoggingClassifiesOutcome(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	var next error
	bus := middleware.ChainCommands(
		newBus(t, func(ctx context.Context, cmd chargeCommand) (*chargeResult, error) {
			return &chargeResult{}, next
		}),
		middleware.Logging(logger),
	)
	ctx := context.Background()

	_, err := commands.Dispatch[chargeCommand, *chargeResult](ctx, bus, chargeCommand{UserID: "u1"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "command handled")
	assert.Contains(t, buf.String(), "command=test.charge")

	buf.Reset()
	next = errs.Forbidden("not yours")
	_, err = commands.Dispatch[chargeCommand, *chargeResult](ctx, bus, chargeCommand{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "command refused")
	assert.Contains(t, buf.String(), "kind=forbidden")

	buf.Reset()
	next = errors.New("disk on fire")
	_, err = commands.Dispatch[chargeCommand, *chargeResult](ctx, bus, chargeCommand{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "command failed")
}
