package app

import (
	"net/http"
	"time"

	"github.com/cargoport/core/internal/middleware"
	"github.com/cargoport/core/internal/modules/backupstore"
	"github.com/cargoport/core/internal/modules/configs"
	"github.com/cargoport/core/internal/modules/content"
	"github.com/cargoport/core/internal/modules/media"
	syncmod "github.com/cargoport/core/internal/modules/sync"
	"github.com/cargoport/core/internal/modules/webhook"
	pkgredis "github.com/cargoport/core/internal/pkg/redis"
	"github.com/cargoport/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	authMW := middleware.Auth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})

	appInfo := gin.H{
		"name":    "cargoport-core",
		"version": "1.0.0",
	}

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(rc.Raw()))

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptimeMs := time.Since(processStart).Milliseconds()
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptimeMs,
			"humanize":  humanizeDuration(time.Duration(uptimeMs) * time.Millisecond),
		})
	})

	// Webhook intake sits outside auth and idempotence: the payload is
	// HMAC-verified and the merge itself is idempotent.
	webhook.NewHandler(a.syncSvc, a.cfg.WebhookSecret, a.logger).Register(api)

	contentHandler := content.NewHandler(a.contentSvc)
	contentHandler.RegisterPublic(api)

	admin := api.Group("")
	admin.Use(authMW)
	admin.Use(middleware.Idempotence(rc.Raw()))

	contentHandler.RegisterProtected(admin)
	syncmod.NewHandler(a.syncSvc, a.sched).Register(admin)
	media.NewHandler(a.mediaSvc, a.mediaStore).Register(admin)
	configs.NewHandler(a.cfgSvc).Register(admin)
	backupstore.NewHandler(a.backupSvc).Register(admin)

	admin.POST("/cache/clear", func(c *gin.Context) {
		a.cacheSvc.InvalidateContent(c.Request.Context())
		a.cfgSvc.Invalidate()
		response.OK(c, gin.H{"cleared": true})
	})
}
