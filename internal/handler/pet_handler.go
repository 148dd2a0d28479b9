package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Baaaki/pet-adoption/internal/apperror"
	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/Baaaki/pet-adoption/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

type PetHandler struct {
	petService    *service.PetService
	maxImageBytes int64
}

func NewPetHandler(petService *service.PetService, maxImageBytes int64) *PetHandler {
	return &PetHandler{
		petService:    petService,
		maxImageBytes: maxImageBytes,
	}
}

// CreatePetRequest accepts the location either as an object or as flat
// longitude/latitude fields.
type CreatePetRequest struct {
	Name        string           `json:"name"`
	Species     string           `json:"species"`
	Breed       string           `json:"breed"`
	Age         *int             `json:"age" binding:"omitempty,min=0,max=100"`
	Gender      string           `json:"gender" binding:"omitempty,oneof=Male Female Unknown"`
	Size        string           `json:"size" binding:"omitempty,oneof=Small Medium Large"`
	Color       string           `json:"color"`
	Description string           `json:"description"`
	Available   *bool            `json:"available"`
	Owner       string           `json:"owner"`
	Location    *models.Location `json:"location"`
	Longitude   *float64         `json:"longitude"`
	Latitude    *float64         `json:"latitude"`
}

// UpdatePetRequest: absent fields are kept; "location": null clears it.
type UpdatePetRequest struct {
	Name        *string         `json:"name"`
	Species     *string         `json:"species"`
	Breed       *string         `json:"breed"`
	Age         *int            `json:"age" binding:"omitempty,min=0,max=100"`
	Gender      *string         `json:"gender" binding:"omitempty,oneof=Male Female Unknown"`
	Size        *string         `json:"size" binding:"omitempty,oneof=Small Medium Large"`
	Color       *string         `json:"color"`
	Description *string         `json:"description"`
	Available   *bool           `json:"available"`
	ImageURL    *string         `json:"imageUrl"`
	Location    json.RawMessage `json:"location"`
	Longitude   *float64        `json:"longitude"`
	Latitude    *float64        `json:"latitude"`
}

// ActAsRequest is the optional body of interest and favorite calls.
type ActAsRequest struct {
	UserID string `json:"userId"`
}

// Create accepts multipart (JSON in "data" plus an optional "image" file) or
// a plain JSON body.
func (h *PetHandler) Create(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}

	var (
		req   CreatePetRequest
		image *service.ImageUpload
	)
	if isMultipart(c) {
		limitBody(c, h.maxImageBytes)

		// Reading the file parses the form, so size errors surface here
		img, err := readImage(c, "image", h.maxImageBytes)
		switch {
		case err == nil:
			image = img
		case errors.Is(err, errNoImage):
		default:
			respondError(c, err)
			return
		}

		data := c.PostForm("data")
		if data == "" {
			respondError(c, apperror.Validation("data field is required"))
			return
		}
		if err := json.Unmarshal([]byte(data), &req); err != nil {
			respondBindError(c, err)
			return
		}
		if err := binding.Validator.ValidateStruct(&req); err != nil {
			respondBindError(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := actingAs(callerID, req.Owner); err != nil {
		respondError(c, err)
		return
	}

	location, err := flatLocation(req.Location, req.Longitude, req.Latitude)
	if err != nil {
		respondError(c, err)
		return
	}

	pet, err := h.petService.Create(c.Request.Context(), callerID.String(), service.CreatePetInput{
		Name:        req.Name,
		Species:     req.Species,
		Breed:       req.Breed,
		Age:         req.Age,
		Gender:      models.Gender(req.Gender),
		Size:        models.Size(req.Size),
		Color:       req.Color,
		Description: req.Description,
		Available:   req.Available,
		Location:    location,
	}, image)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pet)
}

func (h *PetHandler) ListAvailable(c *gin.Context) {
	pets, err := h.petService.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pets)
}

func (h *PetHandler) Get(c *gin.Context) {
	pet, err := h.petService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pet)
}

func (h *PetHandler) Update(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	in, err := req.toInput()
	if err != nil {
		respondError(c, err)
		return
	}

	pet, err := h.petService.Update(c.Request.Context(), callerID, c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pet)
}

func (h *PetHandler) Delete(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.petService.Delete(c.Request.Context(), callerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PetHandler) InterestedAdopters(c *gin.Context) {
	contacts, err := h.petService.InterestedParties(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *PetHandler) ExpressInterest(c *gin.Context) {
	callerID, ok := h.actor(c)
	if !ok {
		return
	}

	outcome, err := h.petService.ExpressInterest(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Interest expressed successfully"
	if outcome == service.InterestAlreadyExpressed {
		message = "You have already expressed interest in this pet"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"status":  outcome,
	})
}

func (h *PetHandler) WithdrawInterest(c *gin.Context) {
	callerID, ok := h.actor(c)
	if !ok {
		return
	}

	removed, err := h.petService.WithdrawInterest(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Interest withdrawn"
	if !removed {
		message = "You had not expressed interest in this pet"
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *PetHandler) ToggleFavorite(c *gin.Context) {
	callerID, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.petService.ToggleFavorite(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Pet removed from favorites"
	if result.Favorited {
		message = "Pet added to favorites"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   message,
		"favorited": result.Favorited,
		"favorites": result.Favorites,
	})
}

func (h *PetHandler) ContactOwner(c *gin.Context) {
	contact, err := h.petService.OwnerContact(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ownerUsername": contact.Username,
		"ownerEmail":    contact.Email,
	})
}

func (h *PetHandler) Activity(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}

	entries, err := h.petService.Activity(c.Request.Context(), callerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// actor returns the caller, rejecting a body userId that names someone else.
func (h *PetHandler) actor(c *gin.Context) (callerID uuid.UUID, ok bool) {
	callerID, ok = currentUser(c)
	if !ok {
		return callerID, false
	}

	var req ActAsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return callerID, false
	}
	if err := actingAs(callerID, req.UserID); err != nil {
		respondError(c, err)
		return callerID, false
	}
	return callerID, true
}

func (r UpdatePetRequest) toInput() (service.UpdatePetInput, error) {
	in := service.UpdatePetInput{
		Name:        r.Name,
		Species:     r.Species,
		Breed:       r.Breed,
		Age:         r.Age,
		Color:       r.Color,
		Description: r.Description,
		Available:   r.Available,
		ImageURL:    r.ImageURL,
	}
	if r.Gender != nil {
		g := models.Gender(*r.Gender)
		in.Gender = &g
	}
	if r.Size != nil {
		s := models.Size(*r.Size)
		in.Size = &s
	}

	raw := strings.TrimSpace(string(r.Location))
	switch {
	case raw == "null":
		in.ClearLocation = true
	case raw != "":
		var loc struct {
			Longitude *float64 `json:"longitude"`
			Latitude  *float64 `json:"latitude"`
		}
		if err := json.Unmarshal(r.Location, &loc); err != nil {
			return in, apperror.Validation("location must be an object with longitude and latitude")
		}
		l, err := flatLocation(nil, loc.Longitude, loc.Latitude)
		if err != nil {
			return in, err
		}
		if l == nil {
			return in, apperror.Validation("location must have longitude and latitude")
		}
		in.Location = l
	default:
		l, err := flatLocation(nil, r.Longitude, r.Latitude)
		if err != nil {
			return in, err
		}
		in.Location = l
	}
	return in, nil
}

// flatLocation never returns half a location.
func flatLocation(loc *models.Location, lng, lat *float64) (*models.Location, error) {
	if loc != nil {
		return loc, nil
	}
	if (lng == nil) != (lat == nil) {
		return nil, apperror.Validation("longitude and latitude must be given together")
	}
	if lng == nil {
		return nil, nil
	}
	return &models.Location{Longitude: *lng, Latitude: *lat}, nil
}
