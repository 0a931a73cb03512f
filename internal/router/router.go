// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dreamweave/dreamweave-backend/internal/config"
	"github.com/dreamweave/dreamweave-backend/internal/handlers"
	"github.com/dreamweave/dreamweave-backend/internal/jobs"
	"github.com/dreamweave/dreamweave-backend/internal/middleware"
	"github.com/dreamweave/dreamweave-backend/internal/services"
	"github.com/dreamweave/dreamweave-backend/internal/store"
)

// Setup wires handlers, services, and middleware into the HTTP surface.
func Setup(cfg *config.Config, st store.Store, queue *jobs.Queue, assets services.AssetRemover) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.OptionalAuth())

	dreamService := services.NewDreamService(st, assets)
	ipfsService := services.NewIPFSService(cfg)
	storyService := services.NewStoryService(cfg)
	licenseService := services.NewLicenseService(st)
	paymentService := services.NewPaymentService(cfg)

	authHandler := handlers.NewAuthHandler(cfg)
	dreamHandler := handlers.NewDreamHandler(dreamService, queue)
	storyHandler := handlers.NewStoryHandler(st, dreamService, ipfsService, storyService, licenseService, paymentService)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.POST("/auth/session", middleware.GeneralRateLimit(), authHandler.CreateSession)

	dreams := r.Group("/dreams")
	dreams.Use(middleware.GeneralRateLimit())
	{
		dreams.POST("/create", middleware.CreateRateLimit(), dreamHandler.CreateDream)
		dreams.GET("", dreamHandler.ListDreams)
		dreams.GET("/:id", dreamHandler.GetDream)
		dreams.PATCH("/:id", dreamHandler.UpdateDream)
		dreams.DELETE("/:id", dreamHandler.DeleteDream)
		dreams.GET("/:id/progress", dreamHandler.StreamProgress)
	}

	story := r.Group("/story")
	story.Use(middleware.GeneralRateLimit())
	{
		story.POST("/prepare-metadata", storyHandler.PrepareMetadata)
		story.POST("/register", middleware.ChainRateLimit(), storyHandler.Register)
		story.GET("/info", storyHandler.GetInfo)
		story.POST("/license", middleware.ChainRateLimit(), storyHandler.AttachLicense)
		story.POST("/license/mint", middleware.ChainRateLimit(), storyHandler.MintLicense)
		story.PUT("/license", storyHandler.RecordPurchase)
		story.GET("/license/stats", storyHandler.GetLicenseStats)
		story.POST("/license/checkout", storyHandler.Checkout)
		story.GET("/royalty/:ipAssetId", storyHandler.GetClaimableRoyalty)
		story.POST("/royalty", middleware.ChainRateLimit(), storyHandler.ClaimRoyalty)
	}

	return r
}
