package handler

import (
	"net/http"

	"github.com/Baaaki/pet-adoption/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	authService *service.AuthService
	petService  *service.PetService
}

func NewUserHandler(authService *service.AuthService, petService *service.PetService) *UserHandler {
	return &UserHandler{
		authService: authService,
		petService:  petService,
	}
}

type UpdateProfileRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// ListUsers returns every account (password hashes are never serialized)
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.GetAllUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.authService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), callerID, c.Param("id"), service.ProfileUpdate{
		Username:    req.Username,
		Email:       req.Email,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ListPets(c *gin.Context) {
	pets, err := h.petService.ListByOwner(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pets)
}

func (h *UserHandler) ListFavorites(c *gin.Context) {
	pets, err := h.petService.ListFavorites(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pets)
}
