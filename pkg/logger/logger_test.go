package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]DigestEntry
}

func (p *capturePublisher) Publish(_ context.Context, topic string, _ []byte, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, value.([]DigestEntry))
	return nil
}

func (p *capturePublisher) snapshot() [][]DigestEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]DigestEntry(nil), p.batches...)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	require.Error(t, err)
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop()
	l.Info("hello", String("k", "v"), Float64("f", 1.5))
	l.Error("boom", Error(errors.New("x")))
	l.With(Int("n", 1)).Warn("child")
}

func TestDigestDeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	d := NewDigest(DigestConfig{Interval: time.Hour, MaxUnique: 10, Topic: "fincast.log-digest", Publisher: pub})

	l := Nop()
	l.AttachDigest(d)
	for i := 0; i < 3; i++ {
		l.Warn("price source degraded", String("symbol", "AAPL"))
	}
	l.Error("price source down", String("symbol", "AAPL"))
	l.Info("not collected")
	l.DetachDigest()

	batches := pub.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, "fincast.log-digest", pub.topic)
	require.Len(t, batches[0], 2)

	counts := map[string]int{}
	for _, e := range batches[0] {
		counts[e.Message] = e.Count
	}
	assert.Equal(t, 3, counts["price source degraded"])
	assert.Equal(t, 1, counts["price source down"])
}

func TestDigestFlushesWhenFull(t *testing.T) {
	pub := &capturePublisher{}
	d := NewDigest(DigestConfig{Interval: time.Hour, MaxUnique: 2, Publisher: pub})
	defer d.Close()

	d.Add("error", "a", nil, "x.go:1")
	d.Add("error", "b", nil, "x.go:2")

	require.Eventually(t, func() bool { return len(pub.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Len(t, pub.snapshot()[0], 2)
}
