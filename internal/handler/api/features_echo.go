package api

import (
	"errors"
	"net/http"
	"time"

	models "TrendForge/internal/domain/models"
	domrepo "TrendForge/internal/domain/repository"
	domsvc "TrendForge/internal/domain/service"
	"TrendForge/internal/usecase"
	xhttp "TrendForge/pkg/http"
	xlogger "TrendForge/pkg/logger"
	"TrendForge/pkg/queue"
	"TrendForge/pkg/util"

	"github.com/labstack/echo/v4"
)

// FeaturesEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type FeaturesEchoHandler struct {
	logger    *xlogger.Logger
	scoring   *usecase.ScoringUseCase
	dataset   *usecase.DatasetUseCase
	candles   *usecase.CandlesUseCase
	trainer   domsvc.Trainer
	predictor domsvc.Predictor
	queue     queue.QueueService
}

func NewFeaturesEchoHandler(
	logger *xlogger.Logger,
	scoring *usecase.ScoringUseCase,
	dataset *usecase.DatasetUseCase,
	candles *usecase.CandlesUseCase,
) *FeaturesEchoHandler {
	return &FeaturesEchoHandler{logger: logger, scoring: scoring, dataset: dataset, candles: candles}
}

// SetTrainer enables the /api/train endpoint.
func (h *FeaturesEchoHandler) SetTrainer(t domsvc.Trainer) { h.trainer = t }

// SetPredictor enables the /api/predict endpoint.
func (h *FeaturesEchoHandler) SetPredictor(p domsvc.Predictor) { h.predictor = p }

// SetQueue enables the /api/dataset/async endpoint.
func (h *FeaturesEchoHandler) SetQueue(q queue.QueueService) { h.queue = q }

func (h *FeaturesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/features", h.Features)
	g.GET("/features/names", h.FeatureNames)
	g.POST("/dataset", h.Dataset)
	g.POST("/dataset/async", h.DatasetAsync)
	g.POST("/train", h.Train)
	g.POST("/predict", h.Predict)
	g.GET("/candles", h.Candles)
}

func (h *FeaturesEchoHandler) Features(c echo.Context) error {
	req := &models.FeaturesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	res, err := h.scoring.LatestFeatures(c.Request().Context(), req.Symbol, req.N, tf)
	if err != nil {
		var ide *models.InsufficientDataError
		if errors.As(err, &ide) {
			return xhttp.AppErrorResponse(c, xhttp.UnprocessableError(ide.Error()).
				WithParam("required", ide.Required).
				WithParam("actual", ide.Actual))
		}
		h.logger.Error("features usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=5")
	return xhttp.SuccessResponse(c, res)
}

func (h *FeaturesEchoHandler) FeatureNames(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.scoring.Layout())
}

func (h *FeaturesEchoHandler) Dataset(c echo.Context) error {
	req := &models.DatasetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, verr := h.datasetParams(req)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dataset.BuildDataset(c.Request().Context(), p)
	if err != nil {
		h.logger.Error("dataset usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *FeaturesEchoHandler) DatasetAsync(c echo.Context) error {
	if h.queue == nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_NO_QUEUE", "", "queue not configured", http.StatusServiceUnavailable))
	}
	req := &models.DatasetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, verr := h.datasetParams(req)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	payload := usecase.DatasetJobPayload{
		Symbol:        p.Symbol,
		FromUnix:      p.From.Unix(),
		ToUnix:        p.To.Unix(),
		Timeframe:     string(p.Timeframe),
		FuturePeriods: p.FuturePeriods,
		Threshold:     p.Threshold,
		Publish:       p.Publish,
	}
	if err := h.queue.PublishMessage(c.Request().Context(), usecase.DatasetBuildType, payload); err != nil {
		h.logger.Error("dataset enqueue error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, payload)
}

func (h *FeaturesEchoHandler) Train(c echo.Context) error {
	if h.trainer == nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_NO_TRAINER", "", "trainer not configured", http.StatusServiceUnavailable))
	}
	req := &models.DatasetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, verr := h.datasetParams(req)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ds, err := h.dataset.BuildDataset(c.Request().Context(), p)
	if err != nil {
		h.logger.Error("dataset usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	result, err := h.trainer.SubmitDataset(c.Request().Context(), ds)
	if err != nil {
		h.logger.Error("trainer submit error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, result)
}

// Predict scores the freshest trailing window through the trained model.
func (h *FeaturesEchoHandler) Predict(c echo.Context) error {
	if h.predictor == nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_NO_PREDICTOR", "", "predictor not configured", http.StatusServiceUnavailable))
	}
	req := &models.FeaturesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	res, err := h.scoring.LatestFeatures(c.Request().Context(), req.Symbol, req.N, tf)
	if err != nil {
		var ide *models.InsufficientDataError
		if errors.As(err, &ide) {
			return xhttp.AppErrorResponse(c, xhttp.UnprocessableError(ide.Error()).
				WithParam("required", ide.Required).
				WithParam("actual", ide.Actual))
		}
		h.logger.Error("predict features error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	pred, err := h.predictor.Predict(c.Request().Context(), req.Symbol, res.Fingerprint, res.Values)
	if err != nil {
		h.logger.Error("predictor error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	pred.Bucket = res.Bucket
	return xhttp.SuccessResponse(c, pred)
}

func (h *FeaturesEchoHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)
	now := time.Now()
	from := util.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := util.ParseTimeDefault(req.To, now)
	from, to = util.AlignFromTo(from, to, string(tf))

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: tf,
		Limit:     req.Limit,
	})
	if err != nil {
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *FeaturesEchoHandler) datasetParams(req *models.DatasetRequest) (usecase.BuildDatasetParams, interface{}) {
	from, ok := util.ParseTime(req.From)
	if !ok {
		return usecase.BuildDatasetParams{}, []xhttp.ValidationError{{Code: "ERR_TIME", Field: "from", Message: "from must be RFC3339 or unix seconds"}}
	}
	to, ok := util.ParseTime(req.To)
	if !ok {
		return usecase.BuildDatasetParams{}, []xhttp.ValidationError{{Code: "ERR_TIME", Field: "to", Message: "to must be RFC3339 or unix seconds"}}
	}
	tf := domrepo.NormalizeTimeframe(req.TF)
	from, to = util.AlignFromTo(from, to, string(tf))
	return usecase.BuildDatasetParams{
		Symbol:        req.Symbol,
		From:          from,
		To:            to,
		Timeframe:     tf,
		FuturePeriods: req.FuturePeriods,
		Threshold:     req.Threshold,
		Publish:       req.Publish,
	}, nil
}
