package priceproducer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type recordingWriter struct {
	mu      sync.Mutex
	written []kafka.Message
	err     error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func (w *recordingWriter) messages() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.written...)
}

func TestWalk_Current(t *testing.T) {
	walk := NewWalk([]string{"AAPL", "MSFT"}, rand.New(rand.NewPCG(1, 2)))

	assert.Equal(t, []orderv1.PriceUpdate{
		{Name: "AAPL", Price: StartPrice},
		{Name: "MSFT", Price: StartPrice},
	}, walk.Current())
}

func TestWalk_StepBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Uint64().Draw(t, "seed")
		steps := rapid.IntRange(1, 200).Draw(t, "steps")
		walk := NewWalk(DefaultSymbols, rand.New(rand.NewPCG(seed, seed)))

		last := make(map[string]float64)
		for _, u := range walk.Current() {
			last[u.Name] = u.Price
		}

		for range steps {
			updates := walk.Step()
			if len(updates) < 2 || len(updates) > 4 {
				t.Fatalf("step moved %d symbols", len(updates))
			}

			seen := make(map[string]bool)
			for _, u := range updates {
				if seen[u.Name] {
					t.Fatalf("symbol %s moved twice in one step", u.Name)
				}
				seen[u.Name] = true

				if u.Price < MinPrice {
					t.Fatalf("price %v below floor", u.Price)
				}
				if u.Price > last[u.Name]+MaxStep {
					t.Fatalf("price of %s jumped from %v to %v", u.Name, last[u.Name], u.Price)
				}
				last[u.Name] = u.Price
			}
		}
	})
}

func TestWalk_SmallUniverse(t *testing.T) {
	walk := NewWalk([]string{"AAPL"}, rand.New(rand.NewPCG(3, 4)))
	assert.Len(t, walk.Step(), 1)

	assert.Nil(t, NewWalk(nil, rand.New(rand.NewPCG(3, 4))).Step())
}

func TestProducer_Run(t *testing.T) {
	w := &recordingWriter{}
	walk := NewWalk([]string{"AAPL", "MSFT", "GOOG"}, rand.New(rand.NewPCG(5, 6)))
	p := newProducer(w, walk, time.Millisecond, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return len(w.messages()) > 3 }, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	msgs := w.messages()
	for i, name := range []string{"AAPL", "MSFT", "GOOG"} {
		assert.Equal(t, name, string(msgs[i].Key))
		update, err := orderv1.PriceUpdateFromBytes(msgs[i].Value)
		require.NoError(t, err)
		assert.Equal(t, StartPrice, update.Price)
	}
	for _, msg := range msgs {
		update, err := orderv1.PriceUpdateFromBytes(msg.Value)
		require.NoError(t, err)
		assert.Equal(t, update.Name, string(msg.Key))
	}
}

func TestProducer_RunFailsWithoutOpeningPrices(t *testing.T) {
	w := &recordingWriter{err: fmt.Errorf("no brokers")}
	p := newProducer(w, NewWalk(DefaultSymbols, rand.New(rand.NewPCG(1, 1))), time.Millisecond, logger.NewNopLogger())

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.EqualError(t, err, "failed to publish price updates")
}
