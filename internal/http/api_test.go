package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"todo-server/internal/auth"
	"todo-server/internal/repository/sqlite"
	"todo-server/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	todoRepo := sqlite.NewTodoRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, todoRepo.Init(ctx))

	codec, err := auth.NewTokenCodec([]byte("test-signing-key"), time.Hour)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	authSvc := auth.NewService(userRepo, auth.NewHasher(bcrypt.MinCost), codec, logger)
	todoSvc := service.NewTodoService(todoRepo)

	router := gin.New()
	NewHandler(authSvc, todoSvc, codec, userRepo, time.Hour, logger).RegisterRoutes(router)
	return router
}

func do(router *gin.Engine, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == auth.CookieName {
			return cookie
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func registerUser(t *testing.T, router *gin.Engine, username, password string) *http.Cookie {
	t.Helper()
	rec := do(router, http.MethodPost, "/auth/register", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return sessionCookie(t, rec)
}

func TestRegisterLoginMeLogoutScenario(t *testing.T) {
	router := newTestRouter(t)

	rec := do(router, http.MethodPost, "/auth/register", gin.H{"username": "alice", "password": "pw123456"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)

	cookie := sessionCookie(t, rec)
	assert.Equal(t, body.Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.Equal(t, int(time.Hour.Seconds()), cookie.MaxAge)

	rec = do(router, http.MethodGet, "/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	rec = do(router, http.MethodPost, "/auth/logout", nil, cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)
	cleared := sessionCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	// browser dropped the cookie; the next call carries none
	rec = do(router, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice", "pw123456")

	rec := do(router, http.MethodPost, "/auth/login", gin.H{"username": "alice", "password": "wrongpw"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "failed login must not set a cookie")
}

func TestLoginUnknownUserSameAnswer(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice", "pw123456")

	wrongPw := do(router, http.MethodPost, "/auth/login", gin.H{"username": "alice", "password": "nope-nope"})
	unknown := do(router, http.MethodPost, "/auth/login", gin.H{"username": "mallory", "password": "nope-nope"})

	assert.Equal(t, wrongPw.Code, unknown.Code)
	assert.Equal(t, wrongPw.Body.String(), unknown.Body.String())
}

func TestLoginAfterRegister(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice", "pw123456")

	rec := do(router, http.MethodPost, "/auth/login", gin.H{"username": "alice", "password": "pw123456"})
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	rec = do(router, http.MethodGet, "/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
}

func TestRegisterConflict(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice", "pw123456")

	rec := do(router, http.MethodPost, "/auth/register", gin.H{"username": "alice", "password": "different1"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "username already exists")
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := do(router, http.MethodPost, "/auth/register", gin.H{"username": "alice", "password": "short"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/auth/register", gin.H{"username": "alice"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTodosRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	for _, probe := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/todos"},
		{http.MethodGet, "/api/todos"},
		{http.MethodGet, "/api/todos/1"},
		{http.MethodPut, "/api/todos/1"},
		{http.MethodDelete, "/api/todos/1"},
		{http.MethodGet, "/api/todos/completed/true"},
	} {
		rec := do(router, probe.method, probe.path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", probe.method, probe.path)
	}

	// health stays public
	rec := do(router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTodoCRUD(t *testing.T) {
	router := newTestRouter(t)
	cookie := registerUser(t, router, "alice", "pw123456")

	rec := do(router, http.MethodPost, "/api/todos", gin.H{
		"title":       "write report",
		"description": "quarterly numbers",
		"dueDate":     "2026-09-15T12:00:00Z",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created TodoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "/api/todos/1", rec.Header().Get("Location"))
	assert.Equal(t, "write report", created.Title)
	require.NotNil(t, created.DueDate)
	assert.Equal(t, "2026-09-15T12:00:00Z", *created.DueDate)

	rec = do(router, http.MethodGet, "/api/todos/1", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodPut, "/api/todos/1", gin.H{"title": "write report", "completed": true}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated TodoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.Completed)
	assert.Empty(t, updated.Description)

	rec = do(router, http.MethodGet, "/api/todos/completed/true", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var completedList []TodoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completedList))
	assert.Len(t, completedList, 1)

	rec = do(router, http.MethodDelete, "/api/todos/1", nil, cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(router, http.MethodGet, "/api/todos/1", nil, cookie)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTodoPaginationEnvelope(t *testing.T) {
	router := newTestRouter(t)
	cookie := registerUser(t, router, "alice", "pw123456")

	for i := 0; i < 12; i++ {
		rec := do(router, http.MethodPost, "/api/todos", gin.H{"title": "item"}, cookie)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(router, http.MethodGet, "/api/todos?page=1&size=5", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var page PagedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Content, 5)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 5, page.Size)
	assert.Equal(t, int64(12), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.First)
	assert.False(t, page.Last)

	rec = do(router, http.MethodGet, "/api/todos?page=-1", nil, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTodoCrossTenantIsolation(t *testing.T) {
	router := newTestRouter(t)
	alice := registerUser(t, router, "alice", "pw123456")
	bob := registerUser(t, router, "bob", "pw123456")

	rec := do(router, http.MethodPost, "/api/todos", gin.H{"title": "alice's secret"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)

	// bob sees alice's row as missing, on every verb
	rec = do(router, http.MethodGet, "/api/todos/1", nil, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(router, http.MethodPut, "/api/todos/1", gin.H{"title": "hijacked"}, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(router, http.MethodDelete, "/api/todos/1", nil, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodGet, "/api/todos", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	var page PagedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(0), page.TotalElements)
}

func TestBearerHeaderAcceptedOnProtectedRoutes(t *testing.T) {
	router := newTestRouter(t)
	cookie := registerUser(t, router, "alice", "pw123456")

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice", "pw123456")

	// correctly signed with the server's key, but already expired
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	rec := do(router, http.MethodGet, "/api/todos", nil, &http.Cookie{Name: auth.CookieName, Value: expired})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
