package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/uptrade-api/internal/application"
	"github.com/oksasatya/uptrade-api/internal/interface/middleware"
	"github.com/oksasatya/uptrade-api/pkg/response"
)

type AdminHandler struct {
	Svc    *application.AdminService
	Logger *logrus.Logger
}

func NewAdminHandler(svc *application.AdminService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

// StorageStats GET /api/admin/storage-stats
func (h *AdminHandler) StorageStats(c *gin.Context) {
	stats, err := h.Svc.Stats(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// RunRetention POST /api/admin/retention/run
func (h *AdminHandler) RunRetention(c *gin.Context) {
	n, err := h.Svc.RunRetention(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"cleared": n})
}
