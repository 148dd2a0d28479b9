package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/Baaaki/pet-adoption/internal/apperror"
	"github.com/Baaaki/pet-adoption/internal/middleware"
	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/Baaaki/pet-adoption/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules. Safe to call repeatedly.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("petrole", func(fl validator.FieldLevel) bool {
			return models.Role(fl.Field().String()).Valid()
		})
	})
}

// respondError writes the client-safe message for err. Internal details only
// go to the log.
func respondError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Log.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": apperror.PublicMessage(err)})
}

// respondBindError turns binding failures into a 400 naming the first bad field.
func respondBindError(c *gin.Context, err error) {
	logger.Log.Debug("Request parsing failed",
		zap.String("path", c.FullPath()),
		zap.String("ip", c.ClientIP()),
		zap.Error(err),
	)

	msg := "invalid request body"
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msg = describeFieldError(verrs[0])
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "petrole":
		return fmt.Sprintf("%s must be owner or adopter", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// currentUser reads the identity set by the auth middleware.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return uuid.Nil, false
	}
	return id, true
}

// actingAs checks that a userId given in a body names the caller.
func actingAs(caller uuid.UUID, claimed string) error {
	claimed = strings.TrimSpace(claimed)
	if claimed == "" {
		return nil
	}
	id, err := uuid.Parse(claimed)
	if err != nil {
		return apperror.Validation("invalid user id")
	}
	if id != caller {
		return apperror.Forbidden("you can only act as yourself")
	}
	return nil
}
