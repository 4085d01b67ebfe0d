package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"videotube/internal/identity"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func expiredToken(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "123",
		Issuer:    identity.TokenIssuer,
		Audience:  jwt.ClaimStrings{identity.TokenAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func viewerApp(tokens *identity.Tokens, required bool) *fiber.App {
	app := fiber.New()
	app.Get("/test", Authenticate(tokens, nil, required), func(c *fiber.Ctx) error {
		v := ViewerFrom(c)
		return c.JSON(fiber.Map{"viewer": v.ID, "anonymous": v.IsAnonymous()})
	})
	return app
}

func TestAuthenticate(t *testing.T) {
	tokens := identity.NewTokens(testSecret, time.Hour)
	valid, err := tokens.Issue(123, "alice")
	require.NoError(t, err)

	tests := []struct {
		name           string
		required       bool
		authHeader     string
		expectedStatus int
		expectedViewer uint
	}{
		{name: "Happy Path", required: true, authHeader: "Bearer " + valid, expectedStatus: http.StatusOK, expectedViewer: 123},
		{name: "Missing Header", required: true, expectedStatus: http.StatusUnauthorized},
		{name: "Missing Header Optional", required: false, expectedStatus: http.StatusOK},
		{name: "Invalid Format", required: false, authHeader: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "Malformed Token", required: false, authHeader: "Bearer malformed.token.here", expectedStatus: http.StatusUnauthorized},
		{name: "Expired Token", required: true, authHeader: "Bearer " + expiredToken(t), expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := viewerApp(tokens, tt.required).Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, float64(tt.expectedViewer), body["viewer"])
				assert.Equal(t, tt.expectedViewer == 0, body["anonymous"])
			}
		})
	}
}

func TestAuthenticate_RevokedToken(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	tokens := identity.NewTokens(testSecret, time.Hour)
	token, err := tokens.Issue(7, "bob")
	require.NoError(t, err)
	claims, err := tokens.Verify(token)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", Authenticate(tokens, rdb, true), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	require.NoError(t, mr.Set(RevokedTokenKey(claims.JTI), "1"))

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}
