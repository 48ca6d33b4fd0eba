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

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=200"`
	Role     *string `json:"role" binding:"omitempty,role"`
	Status   *string `json:"status" binding:"omitempty,userstatus"`
	Password *string `json:"password" binding:"omitempty,pwd"`
}

// List GET /api/users?status=&role=&page=&limit=
func (h *UserHandler) List(c *gin.Context) {
	p := parsePage(c)
	f := entity.UserFilter{
		Status: entity.UserStatus(c.Query("status")),
		Role:   entity.Role(c.Query("role")),
	}
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

// Get GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := h.Svc.Get(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, u)
}

// Update PATCH /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.Svc.Update(c.Request.Context(), middleware.ActorFrom(c), id, application.UpdateUserInput{
		Name:     req.Name,
		Role:     req.Role,
		Status:   req.Status,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Message(c, http.StatusOK, "User updated", gin.H{"user": u})
}

// Delete DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Message(c, http.StatusOK, "User deleted", nil)
}
