package finnhub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"FinCast/internal/domain/models"
	dservice "FinCast/internal/domain/service"
	"FinCast/internal/service/metrics"
	xhttp "FinCast/pkg/http"
)

var _ dservice.PriceSource = (*Client)(nil)

// Client fetches daily closes from the Finnhub REST candle endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	http       *xhttp.Client
	limiter    *rate.Limiter
	maxRetries uint64
	now        func() time.Time
	newBackOff func() backoff.BackOff
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRateLimit caps outgoing requests per second (free tier allows ~1/s sustained).
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    "https://finnhub.io/api/v1",
		http:       xhttp.NewClient(xhttp.WithTimeout(8 * time.Second)),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 5),
		maxRetries: 3,
		now:        time.Now,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "finnhub" }

type candleResponse struct {
	Close  []float64 `json:"c"`
	Status string    `json:"s"`
}

// FetchPrices returns the last `days` daily closes, oldest first.
func (c *Client) FetchPrices(ctx context.Context, symbol string, days int) (models.PriceSeries, error) {
	if days <= 0 {
		return nil, fmt.Errorf("finnhub: days must be positive, got %d", days)
	}
	to := c.now().UTC()
	// weekends and holidays: look back about twice as many calendar days
	from := to.AddDate(0, 0, -(days*2 + 7))

	opts := &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/stock/candle",
		Headers: map[string]string{
			"X-Finnhub-Token": c.apiKey,
		},
		QueryParams: map[string][]string{
			"symbol":     {symbol},
			"resolution": {"D"},
			"from":       {strconv.FormatInt(from.Unix(), 10)},
			"to":         {strconv.FormatInt(to.Unix(), 10)},
		},
	}

	start := time.Now()
	var resp candleResponse
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}
		resp = candleResponse{}
		err := c.http.SendAndParse(ctx, opts, &resp)
		if err == nil {
			return nil
		}
		if !xhttp.IsTemporary(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.WithMaxRetries(c.newBackOff(), c.maxRetries)
	err := backoff.Retry(op, backoff.WithContext(policy, ctx))
	metrics.ObserveCall(metrics.UpstreamFinnhub, start, err)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusForbidden {
			return nil, fmt.Errorf("finnhub: symbol %s not available on this plan: %w", symbol, err)
		}
		return nil, fmt.Errorf("finnhub candles %s: %w", symbol, err)
	}

	if resp.Status != "ok" || len(resp.Close) == 0 {
		return nil, fmt.Errorf("finnhub %s (status %q): %w", symbol, resp.Status, dservice.ErrNoPriceData)
	}
	closes := resp.Close
	if len(closes) > days {
		closes = closes[len(closes)-days:]
	}
	out := make(models.PriceSeries, len(closes))
	copy(out, closes)
	return out, nil
}
