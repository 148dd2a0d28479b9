package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Baaaki/pet-adoption/internal/cache"
	"github.com/Baaaki/pet-adoption/internal/config"
	"github.com/Baaaki/pet-adoption/internal/database"
	"github.com/Baaaki/pet-adoption/internal/handler"
	"github.com/Baaaki/pet-adoption/internal/journal"
	"github.com/Baaaki/pet-adoption/internal/media"
	"github.com/Baaaki/pet-adoption/internal/repository"
	"github.com/Baaaki/pet-adoption/internal/server"
	"github.com/Baaaki/pet-adoption/internal/service"
	"github.com/Baaaki/pet-adoption/internal/utils"
	"github.com/Baaaki/pet-adoption/pkg/logger"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	tokens, err := utils.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		logger.Log.Fatal("Failed to initialize token issuer", zap.Error(err))
	}

	// Initialize activity journal
	activity, err := journal.Open(cfg.JournalPath)
	if err != nil {
		logger.Log.Fatal("Failed to open activity journal", zap.Error(err))
	}
	defer activity.Close()

	listings := newListingCache(ctx, cfg)
	defer listings.Close()

	store, labeler, mediaDir := newMediaBackends(ctx, cfg)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	petRepo := repository.NewPetRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, tokens, utils.NewPasswordHasher(utils.DefaultArgon2Params), cfg.Environment)
	mediaService := service.NewMediaService(store, labeler, cfg.MediaTimeout)
	petService := service.NewPetService(petRepo, userRepo, mediaService, listings, activity)

	router := server.NewRouter(server.Deps{
		AuthHandler:  handler.NewAuthHandler(authService),
		UserHandler:  handler.NewUserHandler(authService, petService),
		PetHandler:   handler.NewPetHandler(petService, cfg.MaxUploadBytes),
		MediaHandler: handler.NewMediaHandler(mediaService, cfg.MaxUploadBytes),
		Verifier:     tokens,
		IsProduction: cfg.IsProduction(),
		CORSOrigins:  cfg.CORSOrigins,
		MediaDir:     mediaDir,
		MediaPath:    cfg.MediaBaseURL,
	})

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting", zap.String("addr", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// newListingCache falls back to no caching when Redis is absent or unreachable.
func newListingCache(ctx context.Context, cfg *config.Config) cache.ListingCache {
	if cfg.RedisURL == "" {
		logger.Log.Info("REDIS_URL not set, listing cache disabled")
		return cache.NoopCache{}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	redisCache, err := cache.NewRedisListingCache(pingCtx, cfg.RedisURL, cfg.ListingCacheTTL)
	if err != nil {
		logger.Log.Warn("Redis unavailable, listing cache disabled", zap.Error(err))
		return cache.NoopCache{}
	}
	return redisCache
}

// newMediaBackends picks S3 when a bucket is configured and the local media
// directory otherwise. mediaDir is empty unless images are served locally.
func newMediaBackends(ctx context.Context, cfg *config.Config) (store media.ObjectStore, labeler media.Labeler, mediaDir string) {
	if cfg.UseS3() || cfg.RekognitionRegion != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Log.Fatal("Failed to load AWS config", zap.Error(err))
		}

		if cfg.UseS3() {
			store = media.NewS3Store(s3.NewFromConfig(awsCfg), cfg.BucketName, cfg.AWSRegion)
		}

		if cfg.RekognitionRegion != "" {
			rek := rekognition.NewFromConfig(awsCfg, func(o *rekognition.Options) {
				o.Region = cfg.RekognitionRegion
			})
			// Rekognition reads S3 objects only within its own region;
			// otherwise the image bytes are sent inline
			bucket := ""
			if cfg.UseS3() && cfg.RekognitionRegion == cfg.AWSRegion {
				bucket = cfg.BucketName
			}
			labeler = media.NewRekognitionLabeler(rek, bucket)
		}
	}

	if store == nil {
		local, err := media.NewLocalStore(cfg.MediaDir, cfg.MediaBaseURL)
		if err != nil {
			logger.Log.Fatal("Failed to prepare media directory", zap.Error(err))
		}
		store = local
		mediaDir = local.Dir()
	}

	logger.Log.Info("Media backends ready",
		zap.Bool("s3", cfg.UseS3()),
		zap.Bool("labeling", labeler != nil),
	)
	return store, labeler, mediaDir
}
