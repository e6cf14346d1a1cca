// Package compute exposes the analytics engine over HTTP.
package compute

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/tripstats/core/analytics"
	"github.com/kilianp07/tripstats/core/battery"
	"github.com/kilianp07/tripstats/core/logger"
	"github.com/kilianp07/tripstats/core/model"
	"github.com/kilianp07/tripstats/core/worker"
	"github.com/kilianp07/tripstats/infra/computelog"
	"github.com/kilianp07/tripstats/infra/metrics"
)

// maxBody caps request bodies.
const maxBody = 32 << 20

// Pool runs compute requests.
type Pool interface {
	Do(ctx context.Context, req worker.Request) (worker.Response, error)
	TrySubmit(req worker.Request) (string, error)
	Pending() int
}

// Handler serves the compute API.
type Handler struct {
	pool     Pool
	logger   logger.Logger
	defaults model.Settings
	now      func() time.Time

	// Logs is queried by GET /api/logs. The route answers 404 when nil.
	Logs computelog.Store
	// Token, when set, is required as a bearer token on GET /api/logs.
	Token string
}

// NewHandler returns a handler computing on pool. defaults fill the settings
// fields a request leaves empty.
func NewHandler(pool Pool, log logger.Logger, defaults model.Settings) *Handler {
	if log == nil {
		log = logger.Nop{}
	}
	return &Handler{pool: pool, logger: log, defaults: defaults, now: time.Now}
}

// RegisterRoutes mounts the API on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler(nil)))

	api := r.Group("/api")
	{
		api.POST("/compute", h.Compute)
		api.POST("/compute/async", h.Enqueue)
		api.POST("/soh", h.SoH)
		api.POST("/soc", h.SoC)
		api.POST("/insights/trip", h.TripInsight)
		api.GET("/logs", h.ListLogs)
	}
}

// Health reports liveness and the number of queued requests.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "pending": h.pool.Pending()})
}

func (h *Handler) decode(c *gin.Context) (worker.Request, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
	if err == nil {
		var req worker.Request
		if req, err = worker.DecodeRequest(body); err == nil {
			return req, true
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	return worker.Request{}, false
}

// Compute runs a full analytics request.
func (h *Handler) Compute(c *gin.Context) {
	req, ok := h.decode(c)
	if !ok {
		return
	}
	resp, err := h.pool.Do(c.Request.Context(), req)
	if err != nil {
		h.logger.Warnf("compute %s: %v", req.ID, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if resp.Error != "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": resp.Error, "data": resp})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// Enqueue queues a request without waiting for it. The response is published
// to the pool subscribers and recorded in the compute log under its key.
func (h *Handler) Enqueue(c *gin.Context) {
	req, ok := h.decode(c)
	if !ok {
		return
	}
	id, err := h.pool.TrySubmit(req)
	if err != nil {
		h.logger.Warnf("enqueue %s: %v", req.ID, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"id": id, "key": req.Key}})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, worker.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, worker.ErrClosed), errors.Is(err, worker.ErrQueueFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusBadRequest
	}
}

type sohRequest struct {
	Charges  json.RawMessage `json:"charges"`
	Settings model.Settings  `json:"settings"`
}

// SoH estimates battery health from a charging history.
func (h *Handler) SoH(c *gin.Context) {
	var req sohRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var charges []model.Charge
	if len(req.Charges) > 0 && string(req.Charges) != "null" {
		var err error
		if charges, err = model.DecodeCharges(req.Charges); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	s := req.Settings.WithDefaults(h.defaults)
	res := battery.Estimator{Now: h.now}.Estimate(charges, s.MfgDate, s.BatterySize, s.ChargerTypes, s.Thermal())
	c.JSON(http.StatusOK, gin.H{"data": res})
}

type socRequest struct {
	Previous    battery.PriorCharge `json:"previous"`
	Odometer    float64             `json:"odometer"`
	Efficiency  float64             `json:"efficiency"`
	BatterySize float64             `json:"batterySize"`
}

// SoC estimates the state of charge at an odometer reading.
func (h *Handler) SoC(c *gin.Context) {
	var req socRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.BatterySize == 0 {
		req.BatterySize = h.defaults.BatterySize
	}
	soc, ok := battery.EstimateInitialSoC(req.Previous, req.Odometer, req.Efficiency, req.BatterySize)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "not enough data to estimate state of charge"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"soc": soc}})
}

type insightRequest struct {
	Trip     *model.Trip     `json:"trip"`
	History  json.RawMessage `json:"history"`
	Settings model.Settings  `json:"settings"`
}

// TripInsight scores one trip against a history.
func (h *Handler) TripInsight(c *gin.Context) {
	var req insightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Trip.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trip is missing or has no distance"})
		return
	}
	var history []*model.Trip
	if len(req.History) > 0 && string(req.History) != "null" {
		var err error
		if history, err = model.DecodeTrips(req.History); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	s := req.Settings.WithDefaults(h.defaults)
	c.JSON(http.StatusOK, gin.H{"data": analytics.Insight(*req.Trip, history, s)})
}

// ListLogs returns compute log records. Supported query parameters are
// start and end (RFC3339), key and failed.
func (h *Handler) ListLogs(c *gin.Context) {
	if h.Logs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "compute log disabled"})
		return
	}
	if h.Token != "" && c.GetHeader("Authorization") != "Bearer "+h.Token {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	q := computelog.Query{Key: c.Query("key")}
	if s := c.Query("start"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.Start = t
		}
	}
	if s := c.Query("end"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.End = t
		}
	}
	if f := strings.ToLower(c.Query("failed")); f == "1" || f == "true" {
		q.FailedOnly = true
	}
	records, err := h.Logs.Query(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}
