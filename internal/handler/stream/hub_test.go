package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
	applogger "FinCast/pkg/logger"
)

func startHub(t *testing.T, origins []string) (*Hub, string) {
	t.Helper()
	hub := NewHub(applogger.Nop(), origins)
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/predictions"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestBroadcastReachesSubscribers(t *testing.T) {
	hub, url := startHub(t, []string{"*"})
	all := dial(t, url)
	onlyMSFT := dial(t, url+"?symbols=msft")
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(&models.PredictionReport{RequestID: "1", Symbol: "AAPL"})
	hub.Broadcast(&models.PredictionReport{RequestID: "2", Symbol: "MSFT"})

	var got models.PredictionReport
	_ = all.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, all.ReadJSON(&got))
	assert.Equal(t, "AAPL", got.Symbol)
	require.NoError(t, all.ReadJSON(&got))
	assert.Equal(t, "MSFT", got.Symbol)

	_ = onlyMSFT.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, onlyMSFT.ReadJSON(&got))
	assert.Equal(t, "2", got.RequestID)
}

func TestClientDisconnectIsRemoved(t *testing.T) {
	hub, url := startHub(t, nil)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)

	// broadcasting with nobody listening is a no-op
	hub.Broadcast(&models.PredictionReport{Symbol: "AAPL"})
}

func TestOriginCheck(t *testing.T) {
	check := originChecker([]string{"https://app.example"})

	r := httptest.NewRequest(http.MethodGet, "/ws/predictions", nil)
	assert.True(t, check(r))
	r.Header.Set("Origin", "https://app.example")
	assert.True(t, check(r))
	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(r))
}

func TestParseSymbols(t *testing.T) {
	assert.Equal(t, map[string]bool{"AAPL": true, "TCS": true}, parseSymbols(" aapl, ,tcs"))
	assert.Empty(t, parseSymbols(""))
}
