// Package webhook receives change notifications pushed by the remote CMS
// and feeds them to the reconciler's single-post path.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/cargoport/core/internal/modules/sync"
	"github.com/cargoport/core/internal/pkg/response"
	"github.com/cargoport/core/internal/remote"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const signatureHeader = "X-Cargoport-Signature"

// Handler ingests webhook events.
type Handler struct {
	service *sync.Service
	secret  string
	logger  *zap.Logger
}

// NewHandler builds the webhook handler. A non-empty secret enables HMAC
// verification of the payload.
func NewHandler(service *sync.Service, secret string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, secret: secret, logger: logger}
}

// Register mounts the webhook intake path.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.POST("/webhooks/cms", h.handle)
}

func (h *Handler) handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "unreadable payload")
		return
	}

	if h.secret != "" && !h.verify(body, c.GetHeader(signatureHeader)) {
		h.logger.Warn("webhook signature mismatch")
		response.Unauthorized(c)
		return
	}

	var event remote.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		response.BadRequest(c, "malformed event payload")
		return
	}
	if event.Kind == "" {
		response.BadRequest(c, "event kind missing")
		return
	}

	report, err := h.service.HandleEvent(c.Request.Context(), &event)
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.logger.Info("webhook event processed",
		zap.String("kind", event.Kind),
		zap.Int64("remote_id", event.Post.ID))
	response.OK(c, report)
}

func (h *Handler) verify(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
