package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus_TableDriven(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", Validation("name is required"), http.StatusBadRequest},
		{"conflict", Conflict("email already exists"), http.StatusBadRequest},
		{"not_found", NotFound("pet not found"), http.StatusNotFound},
		{"unauthorized", Unauthorized("no session"), http.StatusUnauthorized},
		{"invalid_token", New(KindInvalidToken, "invalid token"), http.StatusBadRequest},
		{"forbidden", Forbidden("not your pet"), http.StatusForbidden},
		{"upload_failed", Wrap(KindUploadFailed, "upload failed", errors.New("s3 down")), http.StatusInternalServerError},
		{"plain_error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("context: %w", NotFound("user not found")), http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, HTTPStatus(tc.err))
		})
	}
}

func TestPublicMessage_HidesCause(t *testing.T) {
	err := Wrap(KindUploadFailed, "failed to upload image", errors.New("AccessDenied: bucket policy"))

	assert.Equal(t, "failed to upload image", PublicMessage(err))
	assert.Contains(t, err.Error(), "AccessDenied", "cause stays available for logs")
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: connection refused")))
}

func TestIs(t *testing.T) {
	assert.True(t, Is(Conflict("dup"), KindConflict))
	assert.False(t, Is(Conflict("dup"), KindNotFound))
	assert.False(t, Is(nil, KindInternal))
}
