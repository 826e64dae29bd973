package backupstore

import (
	"github.com/cargoport/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler exposes the deletion backup log and snapshot export.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the backup endpoints behind authentication.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.GET("/backups/deleted-content", h.list)
	r.POST("/backups/snapshot", h.snapshot)
}

func (h *Handler) list(c *gin.Context) {
	entries, err := h.service.Store().List(c.Request.Context(), 200)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, entries)
}

func (h *Handler) snapshot(c *gin.Context) {
	path, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"path": path})
}
