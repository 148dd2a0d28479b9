package handler

import (
	"net/http"

	"github.com/Baaaki/pet-adoption/internal/apperror"
	"github.com/Baaaki/pet-adoption/internal/middleware"
	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/Baaaki/pet-adoption/internal/service"
	"github.com/Baaaki/pet-adoption/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type SignupRequest struct {
	Username        string      `json:"username" binding:"required"`
	Email           string      `json:"email" binding:"required"`
	Password        string      `json:"password" binding:"required"`
	Role            models.Role `json:"role" binding:"omitempty,petrole"`
	RoleID          models.Role `json:"roleId" binding:"omitempty,petrole"`
	RoleDescription string      `json:"roleDescription" binding:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest

	// 1. Parse JSON request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	// roleId is an alias of role; both may be sent only if they agree
	role := req.Role
	if req.RoleID != "" {
		if role != "" && role != req.RoleID {
			respondError(c, apperror.Validation("role and roleId disagree"))
			return
		}
		role = req.RoleID
	}

	logger.Log.Info("Signup attempt",
		zap.String("username", req.Username),
		zap.String("ip", c.ClientIP()),
	)

	// 2. Call service
	user, err := h.authService.Signup(c.Request.Context(), service.SignupInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		Role:            role,
		RoleDescription: req.RoleDescription,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	// 3. Respond without any credential material
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest

	// 1. Parse JSON request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	logger.Log.Info("Login attempt",
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	// 2. Call service
	session, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	// 3. Set token in HTTP-only cookie; lifetime matches the token
	h.setSessionCookie(c, session.Token, int(h.authService.SessionTTL().Seconds()))

	// 4. Return success response (token stays in the cookie)
	user := session.User
	c.JSON(http.StatusOK, gin.H{
		"message":  "Login successful",
		"userId":   user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
	})
}

// Signout clears the session cookie. Tokens are stateless, so a copied token
// stays valid until it expires.
func (h *AuthHandler) Signout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode) // CSRF protection
	c.SetCookie(
		middleware.SessionCookie,
		value,
		maxAge,
		"/",
		"",                           // domain (empty = current domain)
		h.authService.IsProduction(), // secure (HTTPS-only in production)
		true,                         // httpOnly (JavaScript cannot access)
	)
}
