package sync

import (
	"github.com/cargoport/core/internal/pkg/cron"
	"github.com/cargoport/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler exposes reconciliation triggers and job visibility.
type Handler struct {
	service   *Service
	scheduler *cron.Scheduler
}

func NewHandler(service *Service, scheduler *cron.Scheduler) *Handler {
	return &Handler{service: service, scheduler: scheduler}
}

// Register mounts the sync endpoints; all of them are write-side and belong
// behind authentication.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.POST("/sync/reconcile", h.reconcile)
	r.GET("/sync/jobs", h.jobs)
}

// reconcile runs a full reconciliation synchronously and returns the report.
// Partial runs still answer 200; the report carries the failure detail.
func (h *Handler) reconcile(c *gin.Context) {
	report, err := h.service.Reconcile(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, report)
}

func (h *Handler) jobs(c *gin.Context) {
	if h.scheduler == nil {
		response.OK(c, []cron.ListItem{})
		return
	}
	response.OK(c, h.scheduler.List())
}
