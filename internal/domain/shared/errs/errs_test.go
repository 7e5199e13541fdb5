package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWalksWrapChain(t *testing.T) {
	base := Conflict("taken")
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("outer: %w", base)))
	assert.Equal(t, KindInsufficientBalance, KindOf(fmt.Errorf("settle: %w", &BalanceError{Required: 2, Current: 1})))
	assert.Equal(t, KindDocumentValidation, KindOf(&DocumentError{Missing: []string{"id"}}))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestCodeOf(t *testing.T) {
	plain := Conflict("refund: request has already been processed")
	coded := plain.WithCode("already_processed")

	assert.Equal(t, "already_processed", CodeOf(fmt.Errorf("wrap: %w", coded)))
	assert.Equal(t, "conflict", CodeOf(plain))
	assert.Equal(t, "internal", CodeOf(errors.New("boom")))
	assert.Empty(t, plain.Code)
	assert.Equal(t, plain.Message, coded.Message)
}
