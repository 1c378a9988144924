package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	xhttp "FinCast/pkg/http"
)

// ErrNotConfigured is returned when no service URL was provided.
var ErrNotConfigured = errors.New("analytics service url not configured")

// HTTPServiceBase is the shared JSON POST client for the remote language-model
// services.
type HTTPServiceBase struct {
	baseURL    string
	client     *xhttp.Client
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

func NewHTTPServiceBase(baseURL string, timeout time.Duration, maxRetries uint64) *HTTPServiceBase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPServiceBase{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		maxRetries: maxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			return b
		},
	}
}

func (b *HTTPServiceBase) Configured() bool {
	return b != nil && b.baseURL != ""
}

// PostJSON posts payload to path under the base URL and decodes the reply into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if !b.Configured() {
		return ErrNotConfigured
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    b.baseURL + path,
		Body:   payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// PostJSONWithRetry retries transient failures with exponential backoff.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if !b.Configured() {
		return ErrNotConfigured
	}
	op := func() error {
		err := b.PostJSON(ctx, path, payload, dest)
		if err != nil && (!xhttp.IsTemporary(err) || ctx.Err() != nil) {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.WithMaxRetries(b.newBackOff(), b.maxRetries)
	return backoff.Retry(op, backoff.WithContext(policy, ctx))
}
