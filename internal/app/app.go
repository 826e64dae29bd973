// Package app wires the sync core into a running HTTP service: config,
// database, redis, remote transports, and the route table.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cargoport/core/internal/config"
	"github.com/cargoport/core/internal/database"
	"github.com/cargoport/core/internal/middleware"
	"github.com/cargoport/core/internal/modules/backupstore"
	"github.com/cargoport/core/internal/modules/cache"
	"github.com/cargoport/core/internal/modules/configs"
	"github.com/cargoport/core/internal/modules/content"
	"github.com/cargoport/core/internal/modules/media"
	"github.com/cargoport/core/internal/modules/publish"
	syncmod "github.com/cargoport/core/internal/modules/sync"
	pkgcron "github.com/cargoport/core/internal/pkg/cron"
	pkgredis "github.com/cargoport/core/internal/pkg/redis"
	"github.com/cargoport/core/internal/pkg/retry"
	"github.com/cargoport/core/internal/pkg/secrets"
	"github.com/cargoport/core/internal/remote"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler

	cfgSvc     *configs.Service
	cacheSvc   *cache.Cache
	contentSvc *content.Service
	syncSvc    *syncmod.Service
	mediaSvc   *media.Service
	backupSvc  *backupstore.Service
	mediaStore *media.GormStore
}

// New initializes the application: config, database, redis, remote
// transports, then routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg, logger); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg, false)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(buildCORSConfig(cfg)))

	codec := secrets.NewCodec(cfg.SecretKey)
	cfgSvc := configs.NewService(db, codec, logger)

	// Remote transports are built from the persisted settings blob.
	remoteCfg, err := cfgSvc.Get(context.Background())
	if err != nil {
		return nil, fmt.Errorf("remote settings: %w", err)
	}

	restClient := remote.NewRESTClient(remote.RESTOptions{
		BaseURL:  remoteCfg.RemoteCMS.RESTEndpoint(),
		Username: remoteCfg.RemoteCMS.Username,
		Password: remoteCfg.RemoteCMS.AppPassword,
		Logger:   logger,
	})
	ajaxClient := remote.NewAjaxClient(remote.AjaxOptions{
		Endpoint: remoteCfg.RemoteCMS.AjaxEndpoint(),
		Username: remoteCfg.RemoteCMS.Username,
		Password: remoteCfg.RemoteCMS.AppPassword,
		Logger:   logger,
	})

	var backend cache.Store
	if cfg.CacheBackend == "redis" {
		backend = cache.NewRedisStore(rc)
	} else {
		backend = cache.NewMemoryStore(remoteCfg.Cache.MaxSizeBytes)
	}
	cacheSvc := cache.New(backend, cache.TTLs{
		Default:  time.Duration(remoteCfg.Cache.DefaultTTLSeconds) * time.Second,
		PostList: time.Duration(remoteCfg.Cache.PostListTTLSeconds) * time.Second,
	}, logger)

	policy := retry.DefaultPolicy(logger)
	pipeline := publish.New(restClient, ajaxClient, policy, logger)

	contentStore := content.NewGormStore(db)
	backupStore := backupstore.NewGormStore(db)

	var uploader *backupstore.S3Uploader
	if remoteCfg.Backup.Enable && remoteCfg.Backup.S3.Bucket != "" {
		uploader = backupstore.NewS3Uploader(backupstore.S3Config{
			Endpoint:  remoteCfg.Backup.S3.Endpoint,
			Region:    remoteCfg.Backup.S3.Region,
			Bucket:    remoteCfg.Backup.S3.Bucket,
			AccessKey: remoteCfg.Backup.S3.AccessKeyID,
			SecretKey: remoteCfg.Backup.S3.SecretAccessKey,
		})
	}
	backupSvc := backupstore.NewService(backupStore, cfg.BackupDir(), uploader, logger)

	syncSvc := syncmod.NewService(contentStore, backupStore, restClient, cacheSvc, syncmod.Options{
		PageSize:      remoteCfg.RemoteCMS.PageSize,
		AllowFallback: remoteCfg.SampleData.AllowFallback && cfg.IsDev(),
	}, logger)

	contentSvc := content.NewService(contentStore, backupStore, cacheSvc, pipeline, restClient, logger)

	mediaStore := media.NewGormStore(db)
	mediaSvc := media.NewService(ajaxClient, restClient, policy, mediaStore, nil, remoteCfg.MediaSync, logger)

	ctx, cancel := context.WithCancel(context.Background())
	sched := pkgcron.New()

	app := &App{
		cfg:        cfg,
		router:     router,
		db:         db,
		logger:     logger,
		cancel:     cancel,
		sched:      sched,
		cfgSvc:     cfgSvc,
		cacheSvc:   cacheSvc,
		contentSvc: contentSvc,
		syncSvc:    syncSvc,
		mediaSvc:   mediaSvc,
		backupSvc:  backupSvc,
		mediaStore: mediaStore,
	}

	app.registerCronJobs()
	sched.Start(ctx)
	app.registerRoutes(rc)

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown cleans up background goroutines.
func (a *App) Shutdown() { a.cancel() }

var processStart = time.Now()

func buildCORSConfig(cfg *config.AppConfig) cors.Config {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Cargoport-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	return corsConfig
}
