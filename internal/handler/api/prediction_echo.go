package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"FinCast/internal/domain/models"
	"FinCast/internal/services/marketdata"
	"FinCast/internal/usecase"
	xhttp "FinCast/pkg/http"
	applogger "FinCast/pkg/logger"
)

var _ xhttp.Handler = (*PredictionEchoHandler)(nil)

// HealthCheck pings one backing dependency.
type HealthCheck func(ctx context.Context) error

// PredictionEchoHandler serves the prediction API.
type PredictionEchoHandler struct {
	logger  *applogger.Logger
	uc      *usecase.PredictionUseCase
	symbols []models.SupportedSymbol
	limit   echo.MiddlewareFunc
	checks  map[string]HealthCheck
}

// NewPredictionEchoHandler builds the handler. limit, when non-nil, guards the
// analyze route only.
func NewPredictionEchoHandler(logger *applogger.Logger, uc *usecase.PredictionUseCase, symbols []string, limit echo.MiddlewareFunc, checks map[string]HealthCheck) *PredictionEchoHandler {
	return &PredictionEchoHandler{
		logger:  logger,
		uc:      uc,
		symbols: marketdata.SupportedSymbols(symbols),
		limit:   limit,
		checks:  checks,
	}
}

func (h *PredictionEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/prediction")
	var mw []echo.MiddlewareFunc
	if h.limit != nil {
		mw = append(mw, h.limit)
	}
	g.POST("/analyze", h.Analyze, mw...)
	g.GET("/symbols", h.Symbols)
	e.GET("/healthz", h.Health)
}

// Analyze handles POST /api/prediction/analyze.
func (h *PredictionEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.uc.Analyze(c.Request().Context(), usecase.AnalyzeParams{
		Symbol:    req.Symbol,
		Days:      req.Days,
		Headlines: req.Headlines,
		RequestID: c.Request().Header.Get(echo.HeaderXRequestID),
	})
	if err != nil {
		return h.renderError(c, req.Symbol, err)
	}
	c.Response().Header().Set(echo.HeaderXRequestID, report.RequestID)
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, report)
}

func (h *PredictionEchoHandler) renderError(c echo.Context, symbol string, err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidSymbol):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_INVALID_SYMBOL", "symbol",
			"symbol must be 1-15 letters, digits or . - ^ &", http.StatusBadRequest).WithParam("symbol", symbol))
	case errors.Is(err, usecase.ErrNoPriceData):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_NO_PRICE_DATA", "symbol",
			"No price data available for symbol.", http.StatusBadRequest).WithParam("symbol", symbol))
	case errors.Is(err, usecase.ErrPriceSourceUnavailable):
		return xhttp.AppErrorResponse(c, xhttp.UpstreamError("Price source unavailable, retry later.").WithError(err))
	case errors.Is(err, context.Canceled):
		// client went away
		return nil
	default:
		h.logger.Error("prediction usecase error", applogger.String("symbol", symbol), applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
}

// Symbols handles GET /api/prediction/symbols.
func (h *PredictionEchoHandler) Symbols(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.ListResponse(c, h.symbols, int64(len(h.symbols)))
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET /healthz. Any failing dependency turns the answer into 503.
func (h *PredictionEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	res := healthStatus{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("health check failed", applogger.String("check", name), applogger.Error(err))
			res.Checks[name] = err.Error()
			res.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[name] = "ok"
	}
	return xhttp.DataResponse(c, status, res)
}
