package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jdu211171/schedule-website-sub003/internal/dto"
	appErrors "github.com/jdu211171/schedule-website-sub003/pkg/errors"
	"github.com/jdu211171/schedule-website-sub003/pkg/response"
)

type seriesExtender interface {
	Extend(ctx context.Context, seriesID string, req dto.ExtendSeriesRequest) (*dto.ExtendSeriesResponse, error)
	Preview(ctx context.Context, seriesID string, req dto.ExtendSeriesRequest) (*dto.ExtendSeriesResponse, error)
}

type seriesSweeper interface {
	EnqueueActive(ctx context.Context) (dto.SweepResponse, error)
}

// SeriesExtensionHandler exposes class series generation endpoints.
type SeriesExtensionHandler struct {
	service        seriesExtender
	sweeper        seriesSweeper
	defaultHorizon int
}

// NewSeriesExtensionHandler constructs the handler. sweeper may be nil when background extension is disabled.
func NewSeriesExtensionHandler(svc seriesExtender, sweeper seriesSweeper, defaultHorizon int) *SeriesExtensionHandler {
	if defaultHorizon <= 0 {
		defaultHorizon = 1
	}
	return &SeriesExtensionHandler{service: svc, sweeper: sweeper, defaultHorizon: defaultHorizon}
}

// Extend godoc
// @Summary Materialize the next window of a class series
// @Description Creates sessions for every candidate date, classifying each against bookings, availability and absences. Returns 201 when at least one session was created.
// @Tags ClassSeries
// @Accept json
// @Produce json
// @Param id path string true "Series ID"
// @Param payload body dto.ExtendSeriesRequest false "Horizon and per-date overrides"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /class-series/{id}/extend [post]
func (h *SeriesExtensionHandler) Extend(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	result, err := h.service.Extend(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.CreatedCount > 0 {
		response.Created(c, result)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Preview godoc
// @Summary Preview the next window of a class series
// @Description Classifies candidate dates without creating sessions or moving the series cursor.
// @Tags ClassSeries
// @Accept json
// @Produce json
// @Param id path string true "Series ID"
// @Param payload body dto.ExtendSeriesRequest false "Horizon and per-date overrides"
// @Success 200 {object} response.Envelope
// @Router /class-series/{id}/preview [post]
func (h *SeriesExtensionHandler) Preview(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	result, err := h.service.Preview(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"mode": "preview"})
}

// Sweep godoc
// @Summary Queue extension of every active class series
// @Tags ClassSeries
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /class-series/sweep [post]
func (h *SeriesExtensionHandler) Sweep(c *gin.Context) {
	if h.sweeper == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "series sweep is disabled"))
		return
	}
	result, err := h.sweeper.EnqueueActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, result)
}

// bind accepts an empty body, which extends by the default horizon.
func (h *SeriesExtensionHandler) bind(c *gin.Context) (dto.ExtendSeriesRequest, bool) {
	var req dto.ExtendSeriesRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid series extension payload"))
			return req, false
		}
	}
	if req.HorizonMonths == 0 {
		req.HorizonMonths = h.defaultHorizon
	}
	return req, true
}
