package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hospital-records/config"
	"hospital-records/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWT() *jwt.JWTService {
	return jwt.NewJWTService(config.JWTConfig{Secret: "secret", AccessExpiry: time.Hour})
}

func echoActor() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := ActorFromContext(r.Context())
		if actor == nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = io.WriteString(w, actor.String())
	})
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_WithoutRedis(t *testing.T) {
	svc := newJWT()
	auth := NewAuthMiddleware(svc, nil)
	userID := uuid.New()
	token, _, err := svc.GenerateAccessToken(userID, "ops@clinic.ma", jwt.RoleAdmin)
	require.NoError(t, err)

	rec := serve(auth.Authenticate(echoActor()), token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String(), rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(auth.Authenticate(echoActor()), "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(auth.Authenticate(echoActor()), "garbage").Code)
}

func TestAuthenticate_RedisRegistry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := newJWT()
	auth := NewAuthMiddleware(svc, client)
	userID := uuid.New()
	token, tokenID, err := svc.GenerateAccessToken(userID, "ops@clinic.ma", jwt.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serve(auth.Authenticate(echoActor()), token).Code)

	require.NoError(t, client.Set(context.Background(), AccessTokenKey(userID, tokenID), "1", time.Hour).Err())
	assert.Equal(t, http.StatusOK, serve(auth.Authenticate(echoActor()), token).Code)
}

func TestRequireAdmin(t *testing.T) {
	svc := newJWT()
	auth := NewAuthMiddleware(svc, nil)
	h := auth.Authenticate(RequireAdmin(echoActor()))

	viewer, _, err := svc.GenerateAccessToken(uuid.New(), "view@clinic.ma", jwt.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(h, viewer).Code)

	admin, _, err := svc.GenerateAccessToken(uuid.New(), "ops@clinic.ma", jwt.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(h, admin).Code)
}

func TestCORSPreflight(t *testing.T) {
	h := NewCORSMiddleware("").Handle(echoActor())
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestLoggingKeepsStatus(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := NewLoggingMiddleware(log).Handle(echoActor())

	assert.Equal(t, http.StatusTeapot, serve(h, "").Code)
}
