package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/Baaaki/pet-adoption/internal/config"
	"github.com/Baaaki/pet-adoption/internal/database"
	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/Baaaki/pet-adoption/internal/repository"
	"github.com/Baaaki/pet-adoption/internal/service"
	"github.com/Baaaki/pet-adoption/internal/utils"
	"github.com/Baaaki/pet-adoption/pkg/logger"
	"go.uber.org/zap"
)

// seed creates the first owner account so listings can be posted on a fresh
// install. Running it twice is harmless.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	username := os.Getenv("SEED_USERNAME")
	email := os.Getenv("SEED_EMAIL")
	password := os.Getenv("SEED_PASSWORD")
	if username == "" || email == "" || password == "" {
		logger.Log.Fatal("Missing environment variables: SEED_USERNAME, SEED_EMAIL, SEED_PASSWORD")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)

	// Check if an account with this email already exists
	existing, err := userRepo.GetUserByEmail(ctx, email)
	if err == nil {
		logger.Log.Info("Owner already exists",
			zap.String("username", existing.Username),
			zap.String("email", existing.Email),
		)
		return
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		logger.Log.Fatal("Failed to look up owner", zap.Error(err))
	}

	tokens, err := utils.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		logger.Log.Fatal("Failed to initialize token issuer", zap.Error(err))
	}
	authService := service.NewAuthService(userRepo, tokens, utils.NewPasswordHasher(utils.DefaultArgon2Params), cfg.Environment)

	owner, err := authService.Signup(ctx, service.SignupInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     models.RoleOwner,
	})
	if err != nil {
		logger.Log.Fatal("Failed to create owner", zap.Error(err))
	}

	logger.Log.Info("Owner created successfully",
		zap.String("id", owner.ID.String()),
		zap.String("username", owner.Username),
		zap.String("email", owner.Email),
	)
}
