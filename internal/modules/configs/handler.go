package configs

import (
	"github.com/cargoport/core/internal/config"
	"github.com/cargoport/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler exposes the settings API. Stored credentials stay encoded in
// responses; only the sync engine sees them decoded.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the settings endpoints behind authentication.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.GET("/settings/remote", h.get)
	r.PUT("/settings/remote", h.save)
}

func (h *Handler) get(c *gin.Context) {
	cfg, err := h.service.GetStored(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, cfg)
}

func (h *Handler) save(c *gin.Context) {
	var cfg config.RemoteConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.Save(c.Request.Context(), cfg); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"saved": true})
}
