package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	svcmetrics "PriceCast/internal/service/metrics"
	"PriceCast/internal/usecase"
	xhttp "PriceCast/pkg/http"
	xlogger "PriceCast/pkg/logger"
)

// AnalysisEchoHandler serves analysis, evaluation and snapshot endpoints.
type AnalysisEchoHandler struct {
	logger    *xlogger.Logger
	analyze   *usecase.AnalyzeUseCase
	batch     *usecase.BatchAnalyzeUseCase
	evaluate  *usecase.EvaluateUseCase
	refresher *usecase.SnapshotRefresher
	now       func() time.Time
}

// NewAnalysisEchoHandler builds the handler. refresher may be nil when no snapshot backend is configured.
func NewAnalysisEchoHandler(
	logger *xlogger.Logger,
	analyze *usecase.AnalyzeUseCase,
	batch *usecase.BatchAnalyzeUseCase,
	evaluate *usecase.EvaluateUseCase,
	refresher *usecase.SnapshotRefresher,
) *AnalysisEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &AnalysisEchoHandler{
		logger:    logger.With("api"),
		analyze:   analyze,
		batch:     batch,
		evaluate:  evaluate,
		refresher: refresher,
		now:       time.Now,
	}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	svcmetrics.Register()

	e.GET("/health", h.Health)
	e.GET("/analyze/:symbol", h.AnalyzeFlat)

	g := e.Group("/api")
	g.GET("/analyze/:symbol", h.Analyze)
	g.POST("/analyze/batch", h.AnalyzeBatch)
	g.GET("/evaluate/:symbol", h.Evaluate)
	g.POST("/snapshots/refresh", h.RefreshSnapshots)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *AnalysisEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "healthy", Timestamp: h.now().UTC()})
}

// AnalyzeFlat returns the bare analysis object, or {"error": message} on failure.
func (h *AnalysisEchoHandler) AnalyzeFlat(c echo.Context) error {
	start := time.Now()
	req, verr := h.readAnalyzeRequest(c)
	if verr != nil {
		svcmetrics.Observe("analyze_flat", start, "ERR_VALIDATION")
		return c.JSON(http.StatusBadRequest, verr)
	}
	res, err := h.analyze.Report(c.Request().Context(), analyzeParams(req))
	if err != nil {
		appErr := h.toAppError(err)
		svcmetrics.Observe("analyze_flat", start, appErr.Code)
		return c.JSON(appErr.Status, map[string]string{"error": appErr.Message})
	}
	svcmetrics.Observe("analyze_flat", start, "")
	return c.JSON(http.StatusOK, res)
}

func (h *AnalysisEchoHandler) Analyze(c echo.Context) error {
	start := time.Now()
	req, verr := h.readAnalyzeRequest(c)
	if verr != nil {
		svcmetrics.Observe("analyze", start, "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.analyze.Report(c.Request().Context(), analyzeParams(req))
	if err != nil {
		appErr := h.toAppError(err)
		svcmetrics.Observe("analyze", start, appErr.Code)
		return xhttp.AppErrorResponse(c, appErr)
	}
	svcmetrics.Observe("analyze", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) AnalyzeBatch(c echo.Context) error {
	start := time.Now()
	req := &models.BatchAnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("analyze_batch", start, "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	horizon := models.DefaultHorizon
	if req.Horizon != nil {
		horizon = *req.Horizon
	}
	res, err := h.batch.AnalyzeBatch(c.Request().Context(), usecase.BatchParams{
		Symbols: req.Symbols,
		Period:  domrepo.NormalizePeriod(req.Period),
		Horizon: horizon,
	})
	if err != nil {
		appErr := h.toAppError(err)
		svcmetrics.Observe("analyze_batch", start, appErr.Code)
		return xhttp.AppErrorResponse(c, appErr)
	}
	svcmetrics.Observe("analyze_batch", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Evaluate(c echo.Context) error {
	start := time.Now()
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("evaluate", start, "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.evaluate.Evaluate(c.Request().Context(), usecase.EvaluateParams{
		Symbol:  req.Symbol,
		Period:  domrepo.Period(req.Period),
		Splits:  req.Splits,
		Horizon: req.Horizon,
	})
	if err != nil {
		appErr := h.toAppError(err)
		svcmetrics.Observe("evaluate", start, appErr.Code)
		return xhttp.AppErrorResponse(c, appErr)
	}
	svcmetrics.Observe("evaluate", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) RefreshSnapshots(c echo.Context) error {
	start := time.Now()
	if h.refresher == nil {
		svcmetrics.Observe("snapshots_refresh", start, "ERR_DISABLED")
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_DISABLED", "", "snapshot storage is disabled", http.StatusServiceUnavailable))
	}
	res, err := h.refresher.RefreshAll(c.Request().Context())
	if err != nil {
		appErr := h.toAppError(err)
		svcmetrics.Observe("snapshots_refresh", start, appErr.Code)
		return xhttp.AppErrorResponse(c, appErr)
	}
	svcmetrics.Observe("snapshots_refresh", start, "")
	return xhttp.SuccessResponse(c, res)
}

// readAnalyzeRequest binds and validates an analyze request. An absent horizon means DefaultHorizon; 0 is kept.
func (h *AnalysisEchoHandler) readAnalyzeRequest(c echo.Context) (*models.AnalyzeRequest, []xhttp.ValidationError) {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return nil, verr
	}
	if c.QueryParam("horizon") == "" {
		req.Horizon = models.DefaultHorizon
	}
	return req, nil
}

func analyzeParams(req *models.AnalyzeRequest) usecase.AnalyzeParams {
	return usecase.AnalyzeParams{
		Symbol:  req.Symbol,
		Period:  domrepo.NormalizePeriod(req.Period),
		Horizon: req.Horizon,
	}
}

// toAppError maps domain failures onto HTTP errors. Unknown errors are logged and hidden.
func (h *AnalysisEchoHandler) toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, usecase.ErrInvalidInput):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrDataUnavailable):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrInsufficientHistory):
		return xhttp.UnprocessableEntityError("ERR_INSUFFICIENT_HISTORY", err.Error()).WithError(err)
	case errors.Is(err, models.ErrForecastUnavailable):
		return xhttp.NewAppError("ERR_FORECAST_UNAVAILABLE", "", err.Error(), http.StatusInternalServerError).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.GatewayTimeoutError("analysis timed out").WithError(err)
	default:
		h.logger.Error("request failed", xlogger.Error(err))
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
