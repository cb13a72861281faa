package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"webhookd/internal/models"
	"webhookd/internal/service"

	"github.com/gin-gonic/gin"
)

const defaultLimit = 50

type Handler struct {
	Service *service.MessageService
	Log     *slog.Logger
}

func NewAPIHandler(service *service.MessageService, log *slog.Logger) *Handler {
	return &Handler{
		Service: service,
		Log:     log,
	}
}

type ListMessagesResponse struct {
	Data   []models.Message `json:"data"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// Webhook receives one signed delivery. Authentication failures map to 401
// with a fixed message, validation failures to 422, and both created and
// duplicate outcomes to 200.
func (h *Handler) Webhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "unable to read request body"})
		return
	}

	result, err := h.Service.Ingest(rawBody, c.GetHeader("X-Signature"))
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.Is(err, service.ErrInvalidSignature):
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid signature"})
		case errors.As(err, &verr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": verr.Error()})
		default:
			h.Log.Error("webhook ingest failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "result": string(result)})
}

func (h *Handler) ListMessages(c *gin.Context) {
	limit, err := parseIntParam(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)), 1, 100)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "limit must be an integer between 1 and 100"})
		return
	}
	offset, err := parseIntParam(c.DefaultQuery("offset", "0"), 0, math.MaxInt)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "offset must be a non-negative integer"})
		return
	}

	filter := service.QueryFilter{
		From:   c.Query("from"),
		Since:  c.Query("since"),
		Q:      c.Query("q"),
		Limit:  limit,
		Offset: offset,
	}
	data, total, err := h.Service.ListMessages(filter)
	if err != nil {
		h.Log.Error("message query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}
	c.JSON(http.StatusOK, ListMessagesResponse{
		Data:   data,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *Handler) Stats(c *gin.Context) {
	summary, err := h.Service.Stats()
	if err != nil {
		h.Log.Error("stats query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) HealthLive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (h *Handler) HealthReady(c *gin.Context) {
	if err := h.Service.Ready(); err != nil {
		h.Log.Warn("readiness check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func parseIntParam(raw string, min, max int) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%d out of range [%d, %d]", v, min, max)
	}
	return v, nil
}
