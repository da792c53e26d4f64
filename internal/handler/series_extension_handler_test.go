package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdu211171/schedule-website-sub003/internal/dto"
	"github.com/jdu211171/schedule-website-sub003/internal/models"
	appErrors "github.com/jdu211171/schedule-website-sub003/pkg/errors"
)

type seriesExtenderMock struct {
	seriesID string
	captured dto.ExtendSeriesRequest
	result   *dto.ExtendSeriesResponse
	err      error
}

func (m *seriesExtenderMock) Extend(ctx context.Context, seriesID string, req dto.ExtendSeriesRequest) (*dto.ExtendSeriesResponse, error) {
	m.seriesID = seriesID
	m.captured = req
	return m.result, m.err
}

func (m *seriesExtenderMock) Preview(ctx context.Context, seriesID string, req dto.ExtendSeriesRequest) (*dto.ExtendSeriesResponse, error) {
	m.seriesID = seriesID
	m.captured = req
	if m.result != nil {
		m.result.Preview = true
	}
	return m.result, m.err
}

type seriesSweeperMock struct {
	result dto.SweepResponse
	err    error
}

func (m *seriesSweeperMock) EnqueueActive(ctx context.Context) (dto.SweepResponse, error) {
	return m.result, m.err
}

func seriesRouter(h *SeriesExtensionHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/class-series/sweep", h.Sweep)
	router.POST("/class-series/:id/extend", h.Extend)
	router.POST("/class-series/:id/preview", h.Preview)
	return router
}

func perform(router *gin.Engine, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(http.MethodPost, path, nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSeriesExtendCreated(t *testing.T) {
	svc := &seriesExtenderMock{result: &dto.ExtendSeriesResponse{SeriesID: "series-1", CreatedCount: 3}}
	router := seriesRouter(NewSeriesExtensionHandler(svc, nil, 1))

	w := perform(router, "/class-series/series-1/extend", []byte(`{"horizonMonths":2,"overrides":[{"date":"2026-01-07","action":"SKIP"}]}`))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "series-1", svc.seriesID)
	assert.Equal(t, 2, svc.captured.HorizonMonths)
	require.Len(t, svc.captured.Overrides, 1)
	assert.Equal(t, models.OverrideSkip, svc.captured.Overrides[0].Action)

	var body struct {
		Data dto.ExtendSeriesResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Data.CreatedCount)
}

func TestSeriesExtendNothingCreatedIsOK(t *testing.T) {
	svc := &seriesExtenderMock{result: &dto.ExtendSeriesResponse{SeriesID: "series-1"}}
	router := seriesRouter(NewSeriesExtensionHandler(svc, nil, 3))

	w := perform(router, "/class-series/series-1/extend", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, svc.captured.HorizonMonths, "empty body uses the default horizon")
}

func TestSeriesExtendMalformedPayload(t *testing.T) {
	svc := &seriesExtenderMock{}
	router := seriesRouter(NewSeriesExtensionHandler(svc, nil, 1))

	w := perform(router, "/class-series/series-1/extend", []byte(`{"horizonMonths":`))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.seriesID)
}

func TestSeriesExtendMapsDomainErrors(t *testing.T) {
	svc := &seriesExtenderMock{err: appErrors.Clone(appErrors.ErrSeriesLocked, "")}
	router := seriesRouter(NewSeriesExtensionHandler(svc, nil, 1))

	w := perform(router, "/class-series/series-1/extend", []byte(`{"horizonMonths":1}`))

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "SERIES_LOCKED")
}

func TestSeriesPreview(t *testing.T) {
	svc := &seriesExtenderMock{result: &dto.ExtendSeriesResponse{SeriesID: "series-1", CreatedCount: 4}}
	router := seriesRouter(NewSeriesExtensionHandler(svc, nil, 1))

	w := perform(router, "/class-series/series-1/preview", []byte(`{"horizonMonths":1}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"preview"`)
	assert.Contains(t, w.Body.String(), `"preview":true`)
}

func TestSeriesSweep(t *testing.T) {
	sweeper := &seriesSweeperMock{result: dto.SweepResponse{Enqueued: 2, SeriesIDs: []string{"a", "b"}}}
	router := seriesRouter(NewSeriesExtensionHandler(&seriesExtenderMock{}, sweeper, 1))

	w := perform(router, "/class-series/sweep", nil)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"enqueued":2`)
}

func TestSeriesSweepDisabled(t *testing.T) {
	router := seriesRouter(NewSeriesExtensionHandler(&seriesExtenderMock{}, nil, 1))

	w := perform(router, "/class-series/sweep", nil)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
