package media

import (
	"io"
	"net/http"

	"github.com/cargoport/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds the request body accepted by the upload endpoint,
// independent of the per-class validation that follows.
const maxUploadBytes = 128 << 20

// Handler exposes media upload endpoints.
type Handler struct {
	service *Service
	store   *GormStore
}

func NewHandler(service *Service, store *GormStore) *Handler {
	return &Handler{service: service, store: store}
}

// Register mounts the media endpoints behind authentication.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.POST("/media", h.upload)
	r.POST("/media/sync-directory", h.syncDirectory)
	r.GET("/media", h.recent)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file field missing")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "unreadable upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(c, "unreadable upload")
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mimeForExtension(fileHeader.Filename)
	}

	result, err := h.service.SyncFile(c.Request.Context(), fileHeader.Filename, mimeType, data)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, result)
}

type syncDirectoryRequest struct {
	Path string `json:"path" binding:"required"`
}

func (h *Handler) syncDirectory(c *gin.Context) {
	var req syncDirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	report, err := h.service.SyncDirectory(c.Request.Context(), req.Path)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, report)
}

func (h *Handler) recent(c *gin.Context) {
	if h.store == nil {
		response.OK(c, []SyncResult{})
		return
	}
	files, err := h.store.Recent(c.Request.Context(), 50)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, files)
}
