package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/uptrade-api/pkg/response"
)

// Pinger is satisfied by both store variants.
type Pinger interface {
	Ping(ctx context.Context) error
	Driver() string
}

type HealthHandler struct {
	Store  Pinger
	Logger *logrus.Logger
}

func NewHealthHandler(store Pinger, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{Store: store, Logger: logger}
}

// Health GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("driver", h.Store.Driver()).Error("health check failed")
		}
		response.JSON(c, http.StatusInternalServerError, gin.H{"status": "ERROR", "error": "store unreachable"})
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "OK"})
}
