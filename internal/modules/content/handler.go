package content

import (
	"github.com/cargoport/core/internal/modules/publish"
	"github.com/cargoport/core/internal/pkg/jwt"
	"github.com/cargoport/core/internal/pkg/pagination"
	"github.com/cargoport/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler exposes the content API.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublic mounts the read-only endpoints.
func (h *Handler) RegisterPublic(r *gin.RouterGroup) {
	r.GET("/contents", h.list)
	r.GET("/contents/:id", h.get)
	r.GET("/categories", h.categories)
	r.GET("/tags", h.tags)
}

// RegisterProtected mounts the write endpoints behind authentication.
func (h *Handler) RegisterProtected(r *gin.RouterGroup) {
	r.POST("/contents", h.create)
	r.PUT("/contents/:id", h.update)
	r.DELETE("/contents/:id", h.remove)
	r.POST("/contents/:id/publish", h.publish)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	page, err := h.service.List(c.Request.Context(), q.Page, q.Size)
	if err != nil {
		response.FromError(c, err)
		return
	}

	totalPage := int((page.Total + int64(q.Size) - 1) / int64(q.Size))
	response.Paged(c, page.Items, response.Pagination{
		Total:       page.Total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	})
}

func (h *Handler) get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, item)
}

func (h *Handler) categories(c *gin.Context) {
	terms, err := h.service.Categories(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, terms)
}

func (h *Handler) tags(c *gin.Context) {
	terms, err := h.service.Tags(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, terms)
}

func (h *Handler) create(c *gin.Context) {
	var in DraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	author := ""
	if claims, ok := c.Get("claims"); ok {
		if jc, ok := claims.(*jwt.Claims); ok {
			author = jc.Name
		}
	}

	item, err := h.service.CreateDraft(c.Request.Context(), in, author)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, item)
}

func (h *Handler) update(c *gin.Context) {
	var in DraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	item, err := h.service.UpdateDraft(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, item)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

type publishRequest struct {
	Transport  string `json:"transport"` // primary | secondary; default primary
	PublishNow bool   `json:"publish_now"`
}

func (h *Handler) publish(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, err.Error())
		return
	}

	choice := publish.TransportPrimary
	if req.Transport == string(publish.TransportSecondary) {
		choice = publish.TransportSecondary
	}

	item, result, err := h.service.Publish(c.Request.Context(), c.Param("id"), choice, req.PublishNow)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"content": item, "publish": result})
}
