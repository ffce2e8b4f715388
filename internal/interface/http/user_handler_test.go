package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamerhq/roamer-api/internal/application"
	"github.com/roamerhq/roamer-api/internal/domain/entity"
	"github.com/roamerhq/roamer-api/pkg/helpers"
	"github.com/roamerhq/roamer-api/pkg/validation"
)

type userFixture struct {
	router *gin.Engine
	users  *stubUserRepo
	store  *memStore
	jwt    *helpers.JWTManager
}

var validationOnce sync.Once

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validationOnce.Do(validation.Init)

	f := &userFixture{
		users: &stubUserRepo{users: map[string]*entity.User{}},
		store: &memStore{},
		jwt:   &helpers.JWTManager{Secret: []byte("test-secret"), TTL: time.Hour},
	}
	svc := application.NewUserService(f.users, f.jwt, f.store, nil, quietLogger(), nil, "")
	h := NewUserHandler(svc, f.store, quietLogger(), 1<<20)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/users", h.List)
	api.POST("/users/signup", h.Signup)
	api.POST("/users/login", h.Login)

	f.router = r
	return f
}

func (f *userFixture) signup(t *testing.T, name, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	buf, ctype := multipartPlace(t, map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, "image/png")
	req := httptest.NewRequest(http.MethodPost, "/api/users/signup", buf)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestUserSignup(t *testing.T) {
	t.Parallel()

	f := newUserFixture(t)
	w := f.signup(t, "Kai", "kai@example.com", "secret123")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, "kai@example.com", data["email"])
	require.NotEmpty(t, data["token"])

	claims, err := f.jwt.Parse(data["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, data["userId"], claims.UserID)
	assert.Empty(t, f.store.released)
}

func TestUserSignupDuplicateEmail(t *testing.T) {
	t.Parallel()

	f := newUserFixture(t)
	require.Equal(t, http.StatusCreated, f.signup(t, "Kai", "kai@example.com", "secret123").Code)

	w := f.signup(t, "Imposter", "kai@example.com", "different456")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Len(t, f.users.users, 1, "no second record for a taken email")
	assert.Equal(t, []string{"img-2.png"}, f.store.released)
}

func TestUserSignupRejectsShortPassword(t *testing.T) {
	t.Parallel()

	f := newUserFixture(t)
	w := f.signup(t, "Kai", "kai@example.com", "tiny")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.users.users)
	assert.Zero(t, f.store.staged, "validation fails before the upload is staged")
}

func TestUserLogin(t *testing.T) {
	t.Parallel()

	f := newUserFixture(t)
	require.Equal(t, http.StatusCreated, f.signup(t, "Kai", "kai@example.com", "secret123").Code)

	payload := `{"email":"kai@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["data"].(map[string]any)["token"])
}

func TestUserLoginBadCredentials(t *testing.T) {
	t.Parallel()

	f := newUserFixture(t)
	require.Equal(t, http.StatusCreated, f.signup(t, "Kai", "kai@example.com", "secret123").Code)

	for name, payload := range map[string]string{
		"wrong password": `{"email":"kai@example.com","password":"nope12"}`,
		"unknown email":  `{"email":"nobody@example.com","password":"secret123"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code, name)
		assert.Contains(t, w.Body.String(), "invalid credentials", name)
	}
}

func TestUserList(t *testing.T) {
	t.Parallel()

	f := newUserFixture(t)
	require.Equal(t, http.StatusCreated, f.signup(t, "Kai", "kai@example.com", "secret123").Code)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	users := body["data"].(map[string]any)["users"].([]any)
	require.Len(t, users, 1)
	u := users[0].(map[string]any)
	assert.Equal(t, "kai@example.com", u["email"])
	assert.NotContains(t, u, "password")
	assert.NotContains(t, u, "password_hash")
}
