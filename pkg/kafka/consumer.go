package kafka

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"

	applogger "FinCast/pkg/logger"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Permanent marks a handler error that must not be retried, such as an
// undecodable payload.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer fetches from one reader per registered topic and hands messages
// to a fixed worker pool. Every partition maps to one worker lane, so its
// messages are handled in offset order. Offsets are committed after success,
// or after the message was parked on the DLQ. Once a message fails without
// being parked, its partition commits nothing further, so the failed offset
// is redelivered after a restart or rebalance.
type Consumer struct {
	cfg      *ConsumerConfig
	log      *applogger.Logger
	metrics  *consumerMetrics
	hook     ConsumerHook
	handlers map[string]MessageHandler
	readers  map[string]messageReader
	dlq      messageWriter

	newReader func(topic string) messageReader

	lanes    []chan kafka.Message
	cancel   context.CancelFunc
	fetchWg  sync.WaitGroup
	workerWg sync.WaitGroup
	stopOnce sync.Once

	blockMu sync.Mutex
	blocked map[string]int64 // partition -> first offset that must be redelivered
}

func NewConsumer(log *applogger.Logger, reg prometheus.Registerer, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "default",
		WorkerCount: 1,
		BufferSize:  10,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := &Consumer{
		cfg:      cfg,
		log:      log,
		metrics:  newConsumerMetrics(reg),
		hook:     NoopHook{},
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]messageReader),
		blocked:  make(map[string]int64),
	}
	c.newReader = func(topic string) messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    topic,
			GroupID:  cfg.GroupID,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		})
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.DLQTopic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		}
	}
	return c, nil
}

// WithConsumerHook sets a hook implementation for lifecycle events.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// RegisterHandler registers a handler for its topic. Must be called before Start.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.log.Warn("kafka handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// Start launches the fetch loops and the worker pool. They run until Stop.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return errors.New("no handlers registered")
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	workers := c.cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	c.lanes = make([]chan kafka.Message, workers)
	for i := range c.lanes {
		c.lanes[i] = make(chan kafka.Message, c.cfg.BufferSize)
		c.workerWg.Add(1)
		go c.worker(ctx, c.lanes[i])
	}
	for topic := range c.handlers {
		r := c.newReader(topic)
		c.readers[topic] = r
		c.fetchWg.Add(1)
		go c.fetch(ctx, topic, r)
	}
	c.log.Info("kafka consumer started",
		applogger.Int("workers", workers),
		applogger.String("group_id", c.cfg.GroupID),
	)
	return nil
}

// Stop cancels fetching and in-flight handling, waits for the workers and
// closes readers. Uncommitted messages are redelivered to the group later.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		if c.cancel == nil {
			return
		}
		c.cancel()
		c.fetchWg.Wait()
		for _, lane := range c.lanes {
			close(lane)
		}

		done := make(chan struct{})
		go func() {
			c.workerWg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			stopErr = fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
		}

		for topic, r := range c.readers {
			if err := r.Close(); err != nil {
				c.log.Error("close kafka reader", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.log.Error("close dlq writer", applogger.Error(err))
			}
		}
		c.log.Info("kafka consumer stopped")
	})
	return stopErr
}

func (c *Consumer) fetch(ctx context.Context, topic string, r messageReader) {
	defer c.fetchWg.Done()
	for {
		km, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
			select {
			case <-time.After(c.cfg.BackoffMin):
			case <-ctx.Done():
				return
			}
			continue
		}
		if km.Topic == "" {
			km.Topic = topic
		}
		lane := c.lanes[laneIndex(km.Topic, km.Partition, len(c.lanes))]
		select {
		case lane <- km:
			c.metrics.queueDepth.WithLabelValues(topic).Set(float64(len(lane)))
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) worker(ctx context.Context, lane <-chan kafka.Message) {
	defer c.workerWg.Done()
	for km := range lane {
		c.process(ctx, km)
	}
}

func laneIndex(topic string, partition, lanes int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(partitionKey(topic, partition)))
	return int(h.Sum32() % uint32(lanes))
}

func partitionKey(topic string, partition int) string {
	return topic + "/" + strconv.Itoa(partition)
}

// process runs the handler with retries, then commits unless an earlier
// offset of the same partition is still awaiting redelivery.
func (c *Consumer) process(ctx context.Context, km kafka.Message) {
	handler, ok := c.handlers[km.Topic]
	if !ok {
		return
	}

	start := time.Now()
	op := func() error {
		hctx, err := c.hook.BeforeHandle(ctx, km)
		if err != nil {
			return backoff.Permanent(err)
		}
		err = safeHandle(hctx, handler, km.Value)
		c.hook.AfterHandle(hctx, km, err)
		if err != nil {
			c.hook.OnError(hctx, km, err)
		}
		return err
	}
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(c.retryPolicy(), uint64(c.cfg.RetryMax)), ctx))
	c.metrics.latency.WithLabelValues(km.Topic).Observe(time.Since(start).Seconds())

	commit := err == nil
	switch {
	case err == nil:
		c.metrics.messages.WithLabelValues(km.Topic, "ok").Inc()
	case ctx.Err() != nil:
		// shutting down: leave the offset for the next group member
		c.block(km)
		return
	default:
		c.log.Error("kafka message failed",
			applogger.String("topic", km.Topic),
			applogger.Int64("offset", km.Offset),
			applogger.Error(err),
		)
		c.metrics.messages.WithLabelValues(km.Topic, "error").Inc()
		if c.dlq != nil {
			if dlqErr := c.toDLQ(ctx, km, err); dlqErr != nil {
				c.log.Error("write to dlq", applogger.String("topic", c.cfg.DLQTopic), applogger.Error(dlqErr))
			} else {
				c.metrics.messages.WithLabelValues(km.Topic, "dlq").Inc()
				commit = true
			}
		}
	}
	if !commit {
		c.block(km)
		return
	}
	if from, blocked := c.blockedAt(km); blocked {
		c.log.Warn("kafka commit held for earlier failed offset",
			applogger.String("topic", km.Topic),
			applogger.Int("partition", km.Partition),
			applogger.Int64("offset", km.Offset),
			applogger.Int64("redeliver_from", from),
		)
		return
	}
	c.commit(ctx, km)
}

// block stops commits on km's partition at km's offset. Commits are
// cumulative, so committing any later offset would skip km.
func (c *Consumer) block(km kafka.Message) {
	key := partitionKey(km.Topic, km.Partition)
	c.blockMu.Lock()
	defer c.blockMu.Unlock()
	if _, ok := c.blocked[key]; !ok {
		c.blocked[key] = km.Offset
	}
}

func (c *Consumer) blockedAt(km kafka.Message) (int64, bool) {
	c.blockMu.Lock()
	defer c.blockMu.Unlock()
	from, ok := c.blocked[partitionKey(km.Topic, km.Partition)]
	return from, ok
}

func (c *Consumer) retryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.BackoffMin
	b.MaxInterval = c.cfg.BackoffMax
	b.MaxElapsedTime = 0
	return b
}

func (c *Consumer) toDLQ(ctx context.Context, km kafka.Message, cause error) error {
	return c.dlq.WriteMessages(ctx, kafka.Message{
		Key:   km.Key,
		Value: km.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "source_topic", Value: []byte(km.Topic)},
			{Key: "source_offset", Value: []byte(strconv.FormatInt(km.Offset, 10))},
			{Key: "error", Value: []byte(cause.Error())},
		},
	})
}

func (c *Consumer) commit(ctx context.Context, km kafka.Message) {
	r := c.readers[km.Topic]
	if r == nil {
		return
	}
	op := func() error {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return r.CommitMessages(cctx, km)
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(100*time.Millisecond), 2)
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		c.log.Error("kafka commit failed",
			applogger.String("topic", km.Topic),
			applogger.Int64("offset", km.Offset),
			applogger.Error(err),
		)
	}
}

func safeHandle(ctx context.Context, h MessageHandler, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = backoff.Permanent(fmt.Errorf("handler panic: %v", r))
		}
	}()
	return h.Handle(ctx, data)
}
