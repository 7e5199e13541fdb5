package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil, "rentflow")
	assert.ErrorIs(t, err, ErrNoBrokers)
}

func TestPublishSendsPayload(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"id":"evt-1"}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})
	p := NewProducerFrom(mock)

	err := p.Publish(context.Background(), "booking.events.v1", "bk-1", []byte(`{"id":"evt-1"}`), map[string]string{"content-type": "application/cloudevents+json"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestPublishReturnsBrokerError(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	p := NewProducerFrom(mock)

	err := p.Publish(context.Background(), "refund.events.v1", "rf-1", []byte(`{}`), nil)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := NewProducerFrom(mock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, "booking.events.v1", "bk-1", []byte(`{}`), nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, p.Close())
}
