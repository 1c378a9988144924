package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
	applogger "FinCast/pkg/logger"
)

type recordingAnalyzer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
	days  int
}

func (a *recordingAnalyzer) AnalyzeSymbol(_ context.Context, symbol string, days int) (*models.PredictionReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, symbol)
	a.days = days
	if a.fail[symbol] {
		return nil, errors.New("no data")
	}
	return &models.PredictionReport{Symbol: symbol}, nil
}

func (a *recordingAnalyzer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func TestRunOnceContinuesPastFailures(t *testing.T) {
	a := &recordingAnalyzer{fail: map[string]bool{"MSFT": true}}
	s := New(a, []string{"AAPL", "MSFT", "NVDA"}, 14, applogger.Nop())

	assert.Equal(t, 2, s.RunOnce(context.Background()))
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, a.calls)
	assert.Equal(t, 14, a.days)
}

func TestRunOnceStopsOnCancel(t *testing.T) {
	a := &recordingAnalyzer{}
	s := New(a, []string{"AAPL", "MSFT"}, 7, applogger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, 0, s.RunOnce(ctx))
	assert.Empty(t, a.calls)
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := New(&recordingAnalyzer{}, []string{"AAPL"}, 7, applogger.Nop())
	require.Error(t, s.Register("every tuesday"))
	require.NoError(t, s.Register("0 */30 * * * *"))
	require.NoError(t, s.Register("@hourly"))
}

func TestScheduledRun(t *testing.T) {
	a := &recordingAnalyzer{}
	s := New(a, []string{"AAPL"}, 10, applogger.Nop())
	require.NoError(t, s.Register("@every 50ms"))
	s.Start()
	require.Eventually(t, func() bool { return a.count() >= 1 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
