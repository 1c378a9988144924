package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
	dservice "FinCast/internal/domain/service"
)

func newTestClient(url string) *Client {
	c := New("test-key", WithBaseURL(url), WithRateLimit(1000, 10), WithMaxRetries(2))
	c.now = func() time.Time { return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) }
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func TestFetchPricesTrimsToDays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/candle", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "D", r.URL.Query().Get("resolution"))
		assert.Equal(t, "test-key", r.Header.Get("X-Finnhub-Token"))

		from, _ := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
		to, _ := strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)
		assert.Equal(t, int64(21*24*3600), to-from)

		_, _ = w.Write([]byte(`{"s":"ok","c":[1,2,3,4,5,6,7,8,9,10]}`))
	}))
	defer srv.Close()

	prices, err := newTestClient(srv.URL).FetchPrices(context.Background(), "AAPL", 7)
	require.NoError(t, err)
	assert.Equal(t, models.PriceSeries{4, 5, 6, 7, 8, 9, 10}, prices)
}

func TestFetchPricesRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"s":"ok","c":[10,11]}`))
	}))
	defer srv.Close()

	prices, err := newTestClient(srv.URL).FetchPrices(context.Background(), "MSFT", 7)
	require.NoError(t, err)
	assert.Equal(t, models.PriceSeries{10, 11}, prices)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchPricesDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPrices(context.Background(), "MSFT", 7)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchPricesNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"s":"no_data"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPrices(context.Background(), "ZZZZ", 7)
	assert.True(t, errors.Is(err, dservice.ErrNoPriceData))
}
