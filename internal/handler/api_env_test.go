package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Baaaki/pet-adoption/internal/cache"
	"github.com/Baaaki/pet-adoption/internal/handler"
	"github.com/Baaaki/pet-adoption/internal/journal"
	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/Baaaki/pet-adoption/internal/repository"
	"github.com/Baaaki/pet-adoption/internal/server"
	"github.com/Baaaki/pet-adoption/internal/service"
	"github.com/Baaaki/pet-adoption/internal/testutil"
	"github.com/Baaaki/pet-adoption/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret     = "test-secret-key"
	testMaxImageBytes = 64 << 10
)

// pngHeader is enough for content sniffing to report image/png
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// apiEnv is the full HTTP stack over sqlite, miniredis and in-memory media
type apiEnv struct {
	testDB    *testutil.TestDatabase
	testRedis *testutil.TestRedis
	store     *testutil.FakeObjectStore
	labeler   *testutil.FakeLabeler
	tokens    *utils.TokenIssuer
	router    *gin.Engine
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &apiEnv{
		testDB:    testutil.SetupTestDatabase(t),
		testRedis: testutil.SetupTestRedis(t),
		store:     testutil.NewFakeObjectStore(),
		labeler:   &testutil.FakeLabeler{Labels: []string{"Dog", "Pet"}},
	}

	tokens, err := utils.NewTokenIssuer(testJWTSecret)
	require.NoError(t, err)
	env.tokens = tokens

	activity, err := journal.Open(filepath.Join(t.TempDir(), "activity.log"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = activity.Close() })

	userRepo := repository.NewUserRepository(env.testDB.DB)
	petRepo := repository.NewPetRepository(env.testDB.DB)

	authService := service.NewAuthService(userRepo, tokens, testutil.FastHasher, "development")
	mediaService := service.NewMediaService(env.store, env.labeler, time.Second)
	listings := cache.NewRedisListingCacheFromClient(env.testRedis.Client, time.Minute)
	petService := service.NewPetService(petRepo, userRepo, mediaService, listings, activity)

	env.router = server.NewRouter(server.Deps{
		AuthHandler:  handler.NewAuthHandler(authService),
		UserHandler:  handler.NewUserHandler(authService, petService),
		PetHandler:   handler.NewPetHandler(petService, testMaxImageBytes),
		MediaHandler: handler.NewMediaHandler(mediaService, testMaxImageBytes),
		Verifier:     tokens,
	})
	return env
}

func (e *apiEnv) teardown(t *testing.T) {
	e.testDB.Teardown(t)
	e.testRedis.Teardown(t)
}

func (e *apiEnv) reset(t *testing.T) {
	testutil.CleanDatabase(t, e.testDB.DB)
	e.testRedis.Server.FlushAll()
}

// tokenFor signs a session for user without going through /login
func (e *apiEnv) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := e.tokens.Issue(user.ID, user.Role)
	require.NoError(t, err)
	return token
}

// do sends body as JSON (nil means no body) with an optional bearer token
func (e *apiEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// doMultipart posts fields plus an optional file part named "image"
func (e *apiEnv) doMultipart(t *testing.T, path string, fields map[string]string, image []byte, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "rex.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "token" {
			return cookie
		}
	}
	return nil
}
