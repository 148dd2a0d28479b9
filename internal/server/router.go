// Package server assembles the HTTP surface.
package server

import (
	"net/http"
	"time"

	"github.com/Baaaki/pet-adoption/internal/handler"
	"github.com/Baaaki/pet-adoption/internal/metrics"
	"github.com/Baaaki/pet-adoption/internal/middleware"
	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	AuthHandler  *handler.AuthHandler
	UserHandler  *handler.UserHandler
	PetHandler   *handler.PetHandler
	MediaHandler *handler.MediaHandler
	Verifier     middleware.TokenVerifier

	IsProduction bool
	CORSOrigins  []string

	// MediaDir is served under MediaPath when images are stored locally.
	MediaDir  string
	MediaPath string
}

func NewRouter(d Deps) *gin.Engine {
	handler.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.HSTSMiddleware(d.IsProduction))
	if len(d.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	if d.MediaDir != "" && d.MediaPath != "" {
		router.Static(d.MediaPath, d.MediaDir)
	}

	api := router.Group("/api")

	// Public routes
	api.POST("/signup", d.AuthHandler.Signup)
	api.POST("/login", d.AuthHandler.Login)
	api.GET("/signout", d.AuthHandler.Signout)
	api.GET("/pets", d.PetHandler.ListAvailable)
	api.GET("/pet/:id", d.PetHandler.Get)

	// Protected routes (require a session)
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(d.Verifier))
	{
		protected.GET("/users", d.UserHandler.ListUsers)
		protected.GET("/user/:id", d.UserHandler.GetUser)
		protected.PUT("/user/:id", d.UserHandler.UpdateUser)
		protected.GET("/user/:id/pets", d.UserHandler.ListPets)
		protected.GET("/user/:id/favorites", d.UserHandler.ListFavorites)

		protected.POST("/pets", middleware.RequireRole(models.RoleOwner), d.PetHandler.Create)
		protected.POST("/upload-and-analyze", d.MediaHandler.UploadAndAnalyze)

		protected.PATCH("/pet/:id", d.PetHandler.Update)
		protected.DELETE("/pet/:id", d.PetHandler.Delete)
		protected.GET("/pet/:id/interested-adopters", d.PetHandler.InterestedAdopters)
		protected.PATCH("/pet/:id/interest", d.PetHandler.ExpressInterest)
		protected.DELETE("/pet/:id/interest", d.PetHandler.WithdrawInterest)
		protected.PATCH("/pet/:id/favorite", d.PetHandler.ToggleFavorite)
		protected.GET("/pet/:id/contact-owner", d.PetHandler.ContactOwner)
		protected.GET("/pet/:id/activity", d.PetHandler.Activity)
	}

	return router
}
