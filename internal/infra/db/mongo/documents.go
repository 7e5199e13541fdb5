package mongo

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"rentflow/internal/domain/shared/errs"
)

var ErrConcurrentUpdate = errs.Conflict("mongo: concurrent update detected")

// mapWriteErr turns duplicate keys and transaction write conflicts into
// ErrConcurrentUpdate.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrConcurrentUpdate
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorLabel("TransientTransactionError") {
		return errs.Wrap(err, errs.KindConflict, ErrConcurrentUpdate.Message)
	}
	return err
}

func timeToTimestamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func timestampToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func categoryFilterValue(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
