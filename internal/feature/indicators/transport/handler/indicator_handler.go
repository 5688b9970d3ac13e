// Package handler はindicatorsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"indicator_backend/internal/feature/indicators/domain"
	"indicator_backend/internal/feature/indicators/domain/entity"
	"indicator_backend/internal/feature/indicators/transport/http/dto"

	"github.com/gin-gonic/gin"
)

const (
	defaultPeriod = 20
	// maxPeriod はクエリで受け付ける期間の上限（約10年分の取引日）です。
	maxPeriod = 2520
)

// errBadRequest marks query parameters that could not be parsed.
var errBadRequest = errors.New("bad request")

// IndicatorsUsecase は指標計算のユースケースです。
type IndicatorsUsecase interface {
	Compute(ctx context.Context, req entity.Request) (entity.Result, error)
	Snapshot(ctx context.Context, symbol string, period int, date time.Time) (entity.Snapshot, error)
}

// Recorder は計算時間とエラーを記録します。
type Recorder interface {
	ObserveCompute(kind string, d time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCompute(string, time.Duration, error) {}

// IndicatorsHandler は指標のHTTPリクエストを処理します。
type IndicatorsHandler struct {
	uc  IndicatorsUsecase
	rec Recorder
}

// NewIndicatorsHandler は IndicatorsHandler を生成します。rec が nil の場合は記録しません。
func NewIndicatorsHandler(uc IndicatorsUsecase, rec Recorder) *IndicatorsHandler {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &IndicatorsHandler{uc: uc, rec: rec}
}

// GetIndicator は1つの指標を計算して返します。
//
// エンドポイント例:
// GET /indicators/:code/:kind?period=20&date=2024-01-15&smoothing=2
func (h *IndicatorsHandler) GetIndicator(c *gin.Context) {
	kind := entity.Kind(c.Param("kind"))

	period, date, err := parsePeriodAndDate(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	var smoothing float64
	if s := c.Query("smoothing"); s != "" {
		smoothing, err = strconv.ParseFloat(s, 64)
		if err != nil || smoothing <= 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: fmt.Sprintf("invalid smoothing %q", s)})
			return
		}
	}

	start := time.Now()
	res, err := h.uc.Compute(c.Request.Context(), entity.Request{
		Symbol:    c.Param("code"),
		Kind:      kind,
		Period:    period,
		Date:      date,
		Smoothing: smoothing,
	})
	h.rec.ObserveCompute(string(kind), time.Since(start), err)
	if err != nil {
		c.JSON(statusFor(err), dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.IndicatorResponse{
		Symbol: res.Symbol,
		Kind:   string(res.Kind),
		Period: res.Period,
		Date:   res.Date.Format(time.DateOnly),
		Value:  res.Value,
	})
}

// GetSnapshot は全指標を同じ日付で計算して返します。
//
// エンドポイント例:
// GET /indicators/:code?period=20&date=2024-01-15
func (h *IndicatorsHandler) GetSnapshot(c *gin.Context) {
	period, date, err := parsePeriodAndDate(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	start := time.Now()
	snap, err := h.uc.Snapshot(c.Request.Context(), c.Param("code"), period, date)
	h.rec.ObserveCompute("snapshot", time.Since(start), err)
	if err != nil {
		c.JSON(statusFor(err), dto.ErrorResponse{Error: err.Error()})
		return
	}

	out := dto.SnapshotResponse{
		Symbol: snap.Symbol,
		Period: snap.Period,
		Date:   snap.Date.Format(time.DateOnly),
		Values: make(map[string]float64, len(snap.Values)),
	}
	for k, v := range snap.Values {
		out.Values[string(k)] = v
	}
	if len(snap.Errors) > 0 {
		out.Errors = make(map[string]string, len(snap.Errors))
		for k, v := range snap.Errors {
			out.Errors[string(k)] = v
		}
	}
	c.JSON(http.StatusOK, out)
}

// parsePeriodAndDate reads ?period= (default 20, at most maxPeriod) and ?date=YYYY-MM-DD.
// A missing date is returned as the zero time.
func parsePeriodAndDate(c *gin.Context) (int, time.Time, error) {
	period := defaultPeriod
	if s := c.Query("period"); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("%w: invalid period %q", errBadRequest, s)
		}
		if p > maxPeriod {
			return 0, time.Time{}, fmt.Errorf("%w: period %d exceeds %d", errBadRequest, p, maxPeriod)
		}
		period = p
	}

	var date time.Time
	if s := c.Query("date"); s != "" {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", errBadRequest, s)
		}
		date = d
	}
	return period, date, nil
}

// statusFor maps usecase errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidPeriod), errors.Is(err, domain.ErrUnknownIndicator):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyWindow), errors.Is(err, domain.ErrNoTradingDay):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
