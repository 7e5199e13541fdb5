package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rentflow/internal/app/commands"
	"rentflow/internal/domain/shared/errs"
)

// IdempotentCommand is implemented by commands that carry a client supplied
// Idempotency-Key. ResultPrototype returns a pointer of the handler's result
// type that a stored payload is decoded into.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any
}

// IdempotencyRecord is the remembered outcome of one keyed command. Exactly
// one of Payload or Error is meaningful. The remaining error fields keep
// what the classified error carried so a replay is indistinguishable.
type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	Error      string
	ErrorKind  string
	ErrorCode  string
	Missing    []string
	Shortfall  *Shortfall
	OccurredAt time.Time
}

// Shortfall mirrors errs.BalanceError.
type Shortfall struct {
	UserID   string  `json:"user_id" bson:"user_id"`
	Required float64 `json:"required" bson:"required"`
	Current  float64 `json:"current" bson:"current"`
}

func (r IdempotencyRecord) failed() bool { return r.Error != "" }

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

type idempotency struct {
	store IdempotencyStore
	codec ResultCodec
	now   func() time.Time
}

// Idempotency replays the stored outcome of a command whose key was seen
// before. Keys are scoped per command type. Domain failures are replayed
// with their kind; internal failures are not stored so the caller can retry.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	mw := idempotency{store: store, codec: codec, now: func() time.Time { return time.Now().UTC() }}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			keyed, ok := cmd.(IdempotentCommand)
			if !ok || keyed.IdempotencyKey() == "" {
				return nextFn(ctx, cmd)
			}
			key := cmd.Key() + ":" + keyed.IdempotencyKey()
			rec, found, err := mw.store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				return mw.replay(rec, keyed)
			}
			result, err := nextFn(ctx, cmd)
			return mw.remember(ctx, key, result, err)
		})
	}
}

func (m idempotency) replay(rec IdempotencyRecord, cmd IdempotentCommand) (any, error) {
	if rec.failed() {
		return nil, rec.rebuildError()
	}
	out := cmd.ResultPrototype()
	if out == nil {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) == 0 {
		return out, nil
	}
	if err := m.codec.Decode(rec.Payload, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m idempotency) remember(ctx context.Context, key string, result any, cause error) (any, error) {
	rec := IdempotencyRecord{Key: key, OccurredAt: m.now()}
	if cause != nil {
		kind := errs.KindOf(cause)
		if kind == errs.KindInternal {
			return nil, cause
		}
		rec.keepError(cause, kind)
		if err := m.store.Save(ctx, rec); err != nil {
			return nil, errors.Join(cause, err)
		}
		return nil, cause
	}
	if result != nil {
		payload, err := m.codec.Encode(result)
		if err != nil {
			return nil, err
		}
		rec.Payload = payload
	}
	if err := m.store.Save(ctx, rec); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *IdempotencyRecord) keepError(err error, kind errs.Kind) {
	r.Error, r.ErrorKind = err.Error(), string(kind)
	var docErr *errs.DocumentError
	if errors.As(err, &docErr) {
		r.Missing = append([]string(nil), docErr.Missing...)
	}
	var balErr *errs.BalanceError
	if errors.As(err, &balErr) {
		r.Shortfall = &Shortfall{UserID: balErr.UserID, Required: balErr.Required, Current: balErr.Current}
	}
	var classified *errs.Error
	if errors.As(err, &classified) {
		r.ErrorCode = classified.Code
	}
}

func (r IdempotencyRecord) rebuildError() error {
	switch errs.Kind(r.ErrorKind) {
	case errs.KindDocumentValidation:
		if len(r.Missing) > 0 {
			return &errs.DocumentError{Missing: r.Missing}
		}
	case errs.KindInsufficientBalance:
		if r.Shortfall != nil {
			return &errs.BalanceError{UserID: r.Shortfall.UserID, Required: r.Shortfall.Required, Current: r.Shortfall.Current}
		}
	}
	e := errs.New(errs.Kind(r.ErrorKind), r.Error)
	if r.ErrorCode != "" {
		e = e.WithCode(r.ErrorCode)
	}
	return e
}
