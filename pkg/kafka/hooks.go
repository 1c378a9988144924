package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	applogger "FinCast/pkg/logger"
)

// ConsumerHook wraps message handling. An error from BeforeHandle skips the
// handler and is treated as a permanent failure for that message.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error)
	AfterHandle(ctx context.Context, km kafka.Message, err error)
	OnError(ctx context.Context, km kafka.Message, err error)
}

type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ kafka.Message) (context.Context, error) {
	return ctx, nil
}

func (NoopHook) AfterHandle(context.Context, kafka.Message, error) {}

func (NoopHook) OnError(context.Context, kafka.Message, error) {}

// HookFuncs adapts plain functions to ConsumerHook. Nil functions are no-ops.
type HookFuncs struct {
	Before func(context.Context, kafka.Message) (context.Context, error)
	After  func(context.Context, kafka.Message, error)
	Err    func(context.Context, kafka.Message, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error) {
	if h.Before == nil {
		return ctx, nil
	}
	return h.Before(ctx, km)
}

func (h HookFuncs) AfterHandle(ctx context.Context, km kafka.Message, err error) {
	if h.After != nil {
		h.After(ctx, km, err)
	}
}

func (h HookFuncs) OnError(ctx context.Context, km kafka.Message, err error) {
	if h.Err != nil {
		h.Err(ctx, km, err)
	}
}

type ctxKey string

const ctxRequestID ctxKey = "kafka_request_id"

// RequestIDHeader is the message header carrying a caller-chosen correlation id.
const RequestIDHeader = "request_id"

// RequestIDFromContext returns the id stored by LoggingHook, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}

func headerValue(km kafka.Message, key string) string {
	for _, h := range km.Headers {
		if h.Key == key && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}

// LoggingHook copies the request_id header into the context and logs every
// failed attempt.
func LoggingHook(log *applogger.Logger) ConsumerHook {
	type startKey struct{}
	return HookFuncs{
		Before: func(ctx context.Context, km kafka.Message) (context.Context, error) {
			if id := headerValue(km, RequestIDHeader); id != "" {
				ctx = context.WithValue(ctx, ctxRequestID, id)
			}
			return context.WithValue(ctx, startKey{}, time.Now()), nil
		},
		After: func(ctx context.Context, km kafka.Message, err error) {
			start, _ := ctx.Value(startKey{}).(time.Time)
			log.Debug("kafka message handled",
				applogger.String("topic", km.Topic),
				applogger.Int("partition", km.Partition),
				applogger.Int64("offset", km.Offset),
				applogger.Duration("duration_ms", time.Since(start)),
				applogger.Bool("ok", err == nil),
			)
		},
		Err: func(ctx context.Context, km kafka.Message, err error) {
			log.Warn("kafka handler attempt failed",
				applogger.String("topic", km.Topic),
				applogger.Int64("offset", km.Offset),
				applogger.String("key", string(km.Key)),
				applogger.Error(err),
			)
		},
	}
}
