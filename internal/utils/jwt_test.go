package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test constants
const (
	testSecret      = "test-secret-key-for-jwt-testing"
	testWrongSecret = "wrong-secret-key-for-jwt-testing"
)

func newTestIssuer(t *testing.T, secret string) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(secret)
	require.NoError(t, err)
	return issuer
}

func TestNewTokenIssuer_EmptySecret(t *testing.T) {
	issuer, err := NewTokenIssuer("")

	assert.ErrorIs(t, err, ErrEmptySecret)
	assert.Nil(t, issuer)
}

func TestNewTokenIssuer_LifetimeIsOneDay(t *testing.T) {
	issuer := newTestIssuer(t, testSecret)

	assert.Equal(t, 24*time.Hour, issuer.TTL())
}

func TestIssue_ExpiryIsOneDayAfterIssue(t *testing.T) {
	// Arrange
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, testSecret).WithClock(func() time.Time { return fixed })

	// Act
	token, expiresAt, err := issuer.Issue(uuid.New(), models.RoleOwner)
	require.NoError(t, err)
	claims, err := issuer.Verify(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(24*time.Hour), expiresAt)
	assert.Equal(t, claims.IssuedAt.Time.Add(24*time.Hour), claims.ExpiresAt.Time)
}

func TestVerify_RoundTripRoles(t *testing.T) {
	issuer := newTestIssuer(t, testSecret)

	for _, role := range []models.Role{models.RoleOwner, models.RoleAdopter} {
		t.Run(string(role), func(t *testing.T) {
			userID := uuid.New()

			token, _, err := issuer.Issue(userID, role)
			require.NoError(t, err)
			claims, err := issuer.Verify(token)

			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
			assert.Equal(t, role, claims.Role)
		})
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	// Arrange: issued 25 hours ago
	past := time.Now().Add(-25 * time.Hour)
	issuer := newTestIssuer(t, testSecret)
	token, _, err := issuer.WithClock(func() time.Time { return past }).Issue(uuid.New(), models.RoleAdopter)
	require.NoError(t, err)

	// Act
	claims, err := issuer.Verify(token)

	// Assert
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestVerify_TamperedToken(t *testing.T) {
	issuer := newTestIssuer(t, testSecret)
	token, _, err := issuer.Issue(uuid.New(), models.RoleAdopter)
	require.NoError(t, err)
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// Forge a payload claiming the owner role, keep the original signature
	forged, _, err := issuer.Issue(uuid.New(), models.RoleOwner)
	require.NoError(t, err)
	forgedPayload := strings.Split(forged, ".")[1]

	testCases := map[string]string{
		"signature_modified": token[:len(token)-5] + "XXXXX",
		"payload_swapped":    parts[0] + "." + forgedPayload + "." + parts[2],
	}

	for name, tampered := range testCases {
		t.Run(name, func(t *testing.T) {
			claims, err := issuer.Verify(tampered)

			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	token, _, err := newTestIssuer(t, testSecret).Issue(uuid.New(), models.RoleOwner)
	require.NoError(t, err)

	claims, err := newTestIssuer(t, testWrongSecret).Verify(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestVerify_MalformedTokens(t *testing.T) {
	issuer := newTestIssuer(t, testSecret)
	invalidTokens := []string{
		"",                                     // Empty
		"invalid.token.here",                   // Invalid format
		"not-a-jwt-token",                      // Plain text
		"a.b",                                  // Incomplete JWT
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9", // Only header
	}

	for _, invalidToken := range invalidTokens {
		t.Run(invalidToken, func(t *testing.T) {
			claims, err := issuer.Verify(invalidToken)

			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestVerify_RejectsUnexpectedClaims(t *testing.T) {
	issuer := newTestIssuer(t, testSecret)
	now := time.Now()
	sign := func(claims *Claims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}

	testCases := []struct {
		name   string
		claims *Claims
	}{
		{
			name: "unknown_role",
			claims: &Claims{UserID: uuid.New(), Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}},
		},
		{
			name: "missing_user",
			claims: &Claims{Role: models.RoleOwner, RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}},
		},
		{
			name:   "missing_expiry",
			claims: &Claims{UserID: uuid.New(), Role: models.RoleOwner},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := issuer.Verify(sign(tc.claims))

			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	issuer := newTestIssuer(t, testSecret)
	claims := &Claims{UserID: uuid.New(), Role: models.RoleOwner, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Verify(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

// Benchmark tests
func BenchmarkVerify(b *testing.B) {
	issuer, _ := NewTokenIssuer(testSecret)
	token, _, _ := issuer.Issue(uuid.New(), models.RoleOwner)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = issuer.Verify(token)
	}
}
