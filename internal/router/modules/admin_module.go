package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	handlers "github.com/oksasatya/uptrade-api/internal/interface/http"
	"github.com/oksasatya/uptrade-api/internal/interface/middleware"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
)

type AdminModule struct {
	Handler *handlers.AdminHandler
	JWT     *helpers.JWTManager
}

func NewAdminModule(h *handlers.AdminHandler, jwt *helpers.JWTManager) *AdminModule {
	return &AdminModule{Handler: h, JWT: jwt}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.BearerAuth(m.JWT), middleware.RequireRoles(entity.RoleAdmin))
	{
		admin.GET("/storage-stats", m.Handler.StorageStats)
		admin.POST("/retention/run", m.Handler.RunRetention)
	}
}
