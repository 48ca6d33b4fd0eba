package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/uptrade-api/internal/application"
	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	"github.com/oksasatya/uptrade-api/internal/interface/middleware"
	"github.com/oksasatya/uptrade-api/pkg/response"
)

type TradeHandler struct {
	Svc    *application.TradeService
	Logger *logrus.Logger
}

func NewTradeHandler(svc *application.TradeService, logger *logrus.Logger) *TradeHandler {
	return &TradeHandler{Svc: svc, Logger: logger}
}

// List GET /api/trades?status=&userId=&page=&limit=
// Students are always narrowed to their own trades by the service.
func (h *TradeHandler) List(c *gin.Context) {
	p := parsePage(c)
	owner := c.Query("userId")
	if owner == "" {
		owner = c.Query("user_id")
	}
	f := entity.TradeFilter{OwnerID: owner, Status: entity.TradeStatus(c.Query("status"))}
	if p.Paged {
		f.Limit, f.Offset = p.Limit, p.Offset()
	}
	res, err := h.Svc.List(c.Request.Context(), middleware.ActorFrom(c), f)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	writeList(c, p, res.Items, res.Total)
}

// Get GET /api/trades/:id
func (h *TradeHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	t, err := h.Svc.Get(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, t)
}

// Create POST /api/trades
// The body is a loose field map: snake_case and camelCase names are both accepted.
func (h *TradeHandler) Create(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		bindError(c, err)
		return
	}
	t, err := h.Svc.Create(c.Request.Context(), middleware.ActorFrom(c), raw)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusCreated, t)
}

// Update PATCH /api/trades/:id
func (h *TradeHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		bindError(c, err)
		return
	}
	t, err := h.Svc.Update(c.Request.Context(), middleware.ActorFrom(c), id, raw)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, t)
}

// Delete DELETE /api/trades/:id
func (h *TradeHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Message(c, http.StatusOK, "Trade deleted", nil)
}
