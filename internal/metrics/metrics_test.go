package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveMedia_CountsByResult(t *testing.T) {
	before := testutil.ToFloat64(mediaOperations.WithLabelValues("upload", "error"))

	ObserveMedia("upload", errors.New("boom"))
	ObserveMedia("upload", nil)

	assert.Equal(t, before+1, testutil.ToFloat64(mediaOperations.WithLabelValues("upload", "error")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(mediaOperations.WithLabelValues("upload", "success")), 1.0)
}

func TestPetCreated(t *testing.T) {
	before := testutil.ToFloat64(petsCreated)

	PetCreated()

	assert.Equal(t, before+1, testutil.ToFloat64(petsCreated))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	ObserveHTTP("GET", "/api/pets", "200", 0.01)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "petadopt_http_requests_total")
	assert.Contains(t, body, "petadopt_http_request_duration_seconds")
	assert.Contains(t, body, `route="/api/pets"`)
}
