//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"canon/internal/platform/kafka"
	"canon/pkg/testutil/containers"
)

func TestProducerRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	broker := containers.NewRedpandaContainer(t)
	ctx := context.Background()

	producer, err := kafka.NewProducer(ctx, kafka.Config{
		Brokers: broker.Brokers,
		Topic:   "intake.audit.test",
	})
	require.NoError(t, err)
	require.NotNil(t, producer)
	defer producer.Close()

	require.NoError(t, producer.Health(ctx))

	key := []byte("session-1")
	value := []byte(`{"outcome":"applied"}`)
	require.NoError(t, producer.Produce(ctx, key, value))

	consumer := broker.NewClient(t, "intake.audit.test")
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var got *kgo.Record
	for got == nil {
		fetches := consumer.PollFetches(fetchCtx)
		require.NoError(t, fetches.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			got = r
		})
	}

	require.Equal(t, key, got.Key)
	require.Equal(t, value, got.Value)
}

func TestNewProducerWithoutBrokersIsDisabled(t *testing.T) {
	producer, err := kafka.NewProducer(context.Background(), kafka.Config{Topic: "intake.audit"})
	require.NoError(t, err)
	require.Nil(t, producer)
}
