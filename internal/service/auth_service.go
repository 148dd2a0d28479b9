package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Baaaki/pet-adoption/internal/apperror"
	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/Baaaki/pet-adoption/internal/repository"
	"github.com/Baaaki/pet-adoption/internal/utils"
	"github.com/Baaaki/pet-adoption/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 128
	maxUsernameLength = 50
	maxEmailLength    = 100
)

var (
	ErrEmailAlreadyExists    = apperror.Conflict("email already exists")
	ErrUsernameAlreadyExists = apperror.Conflict("username already exists")
	ErrInvalidCredentials    = apperror.Unauthorized("invalid credentials")

	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

type SignupInput struct {
	Username        string
	Email           string
	Password        string
	Role            models.Role
	RoleDescription string
}

// ProfileUpdate applies only the non-empty fields.
type ProfileUpdate struct {
	Username    string
	Email       string
	NewPassword string
}

// Session is the result of a successful login.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	userRepo    *repository.UserRepository
	tokens      *utils.TokenIssuer
	hasher      *utils.PasswordHasher
	environment string
}

func NewAuthService(userRepo *repository.UserRepository, tokens *utils.TokenIssuer, hasher *utils.PasswordHasher, environment string) *AuthService {
	if hasher == nil {
		hasher = utils.NewPasswordHasher(utils.DefaultArgon2Params)
	}
	return &AuthService{
		userRepo:    userRepo,
		tokens:      tokens,
		hasher:      hasher,
		environment: environment,
	}
}

// IsProduction returns true if running in production environment
func (s *AuthService) IsProduction() bool {
	return s.environment == "production"
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.tokens.TTL()
}

// VerifySession checks a session token without touching the store.
func (s *AuthService) VerifySession(token string) (*utils.Claims, error) {
	return s.tokens.Verify(token)
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	start := time.Now()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.RoleDescription = strings.TrimSpace(in.RoleDescription)
	if in.Role == "" {
		in.Role = models.RoleAdopter
	}

	logger.Log.Debug("Processing signup",
		zap.String("username", in.Username),
		zap.String("email", in.Email),
	)

	// 1. Validate input
	if err := validateSignup(in); err != nil {
		logger.Log.Warn("Signup validation failed",
			zap.String("username", in.Username),
			zap.Error(err),
		)
		return nil, err
	}

	// 2. Check uniqueness (the unique indexes still catch races)
	if err := s.ensureAvailable(ctx, uuid.Nil, in.Username, in.Email); err != nil {
		return nil, err
	}

	// 3. Hash password (Argon2)
	hashStart := time.Now()
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return nil, apperror.Internal(err)
	}
	hashDuration := time.Since(hashStart)

	// 4. Create user
	description := in.RoleDescription
	if description == "" {
		description = in.Role.Description()
	}
	user := &models.User{
		Username:        in.Username,
		Email:           in.Email,
		PasswordHash:    hash,
		Role:            in.Role,
		RoleDescription: description,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		logger.Log.Error("Failed to create user in database",
			zap.String("username", in.Username),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("User signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)
	return user, nil
}

// Login reports NotFound for an unknown email and ErrInvalidCredentials for a
// wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	start := time.Now()
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" || password == "" {
		return nil, apperror.Validation("email and password are required")
	}

	// 1. Get user by email
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			logger.Log.Warn("Login failed: user not found", zap.String("email", email))
		} else {
			logger.Log.Error("Failed to get user by email", zap.String("email", email), zap.Error(err))
		}
		return nil, err
	}

	// 2. Verify password
	verifyStart := time.Now()
	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, apperror.Internal(err)
	}
	verifyDuration := time.Since(verifyStart)

	if !valid {
		logger.Log.Warn("Login failed: invalid password",
			zap.String("user_id", user.ID.String()),
		)
		return nil, ErrInvalidCredentials
	}

	// 3. Issue session token
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		logger.Log.Error("Failed to issue session token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.Duration("password_verify_duration", verifyDuration),
		zap.Duration("total_duration", time.Since(start)),
	)
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.userRepo.GetAllUsers(ctx)
	if err != nil {
		logger.Log.Error("Failed to fetch users", zap.Error(err))
		return nil, err
	}

	logger.Log.Debug("Fetched users", zap.Int("count", len(users)))
	return users, nil
}

func (s *AuthService) GetUser(ctx context.Context, rawID string) (*models.User, error) {
	id, err := parseID(rawID, "user")
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetUserByID(ctx, id)
}

// UpdateProfile changes the caller's own account. The password is replaced
// only when NewPassword is set, and is always re-hashed here.
func (s *AuthService) UpdateProfile(ctx context.Context, actorID uuid.UUID, rawID string, in ProfileUpdate) (*models.User, error) {
	id, err := parseID(rawID, "user")
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorID != user.ID {
		logger.Log.Warn("Profile update denied",
			zap.String("actor_id", actorID.String()),
			zap.String("user_id", user.ID.String()),
		)
		return nil, apperror.Forbidden("you can only update your own profile")
	}

	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if username != "" && username != user.Username {
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		user.Username = username
	}
	if email != "" && email != user.Email {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if err := s.ensureAvailable(ctx, user.ID, user.Username, user.Email); err != nil {
		return nil, err
	}

	if in.NewPassword != "" {
		if err := validatePassword(in.NewPassword); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(in.NewPassword)
		if err != nil {
			logger.Log.Error("Failed to hash password", zap.Error(err))
			return nil, apperror.Internal(err)
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		logger.Log.Error("Failed to update user",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Profile updated",
		zap.String("user_id", user.ID.String()),
		zap.Bool("password_changed", in.NewPassword != ""),
	)
	return user, nil
}

// ensureAvailable fails if username or email belongs to someone other than self.
func (s *AuthService) ensureAvailable(ctx context.Context, self uuid.UUID, username, email string) error {
	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != self:
		logger.Log.Warn("Email already exists", zap.String("email", email))
		return ErrEmailAlreadyExists
	case err != nil && !errors.Is(err, repository.ErrUserNotFound):
		return err
	}

	existing, err = s.userRepo.GetUserByUsername(ctx, username)
	switch {
	case err == nil && existing.ID != self:
		logger.Log.Warn("Username already exists", zap.String("username", username))
		return ErrUsernameAlreadyExists
	case err != nil && !errors.Is(err, repository.ErrUserNotFound):
		return err
	}
	return nil
}

func validateSignup(in SignupInput) error {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return apperror.Validation("username, email and password are required")
	}
	if err := validateUsername(in.Username); err != nil {
		return err
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}
	if !in.Role.Valid() {
		return apperror.Validation("role must be owner or adopter")
	}
	if utf8.RuneCountInString(in.RoleDescription) > 100 {
		return apperror.Validation("role description is too long")
	}
	if described := models.RoleForDescription(in.RoleDescription); described != "" && described != in.Role {
		return apperror.Validation("role description does not match role")
	}
	return nil
}

func validateUsername(username string) error {
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return apperror.Validation("username must be at most 50 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > maxEmailLength {
		return apperror.Validation("email too long")
	}
	if !emailRegex.MatchString(email) {
		return apperror.Validation("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperror.Validation("password must be at least 6 characters")
	}
	if len(password) > maxPasswordLength {
		return apperror.Validation("password too long")
	}
	if utils.LooksHashed(password) {
		return apperror.Validation("password must be sent in plain form")
	}
	return nil
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperror.Validation("invalid " + what + " id")
	}
	return id, nil
}
