package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidstream/identity-service/config"
	"github.com/vidstream/identity-service/internal/auth/domain"
	"github.com/vidstream/identity-service/internal/auth/handler"
	"github.com/vidstream/identity-service/internal/auth/mocks"
	"github.com/vidstream/identity-service/internal/auth/service"
)

type testEnv struct {
	app          *fiber.App
	repo         *mocks.MockUserRepository
	media        *mocks.MockStore
	tokenService *service.TokenService
}

func setupApp(t *testing.T) *testEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockMedia := mocks.NewMockStore(ctrl)
	tokenService := service.NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 10080*time.Minute)
	userService := service.NewUserService(mockRepo, tokenService, mockMedia, zap.NewNop(), time.Second)
	cfg := &config.Config{CookieSecure: true}
	authHandler := handler.NewAuthHandler(userService, tokenService, cfg)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler)

	return &testEnv{
		app:          app,
		repo:         mockRepo,
		media:        mockMedia,
		tokenService: tokenService,
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return string(hash)
}

func registerForm(t *testing.T, withAvatar bool) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	require.NoError(t, w.WriteField("fullName", "Abc Def"))
	require.NoError(t, w.WriteField("username", "abc"))
	require.NoError(t, w.WriteField("email", "a@b.com"))
	require.NoError(t, w.WriteField("password", "pw1"))

	if withAvatar {
		fw, err := w.CreateFormFile("avatar", "avatar.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRegister_Created(t *testing.T) {
	env := setupApp(t)

	env.repo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "abc").Return(nil, nil)
	env.repo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "a@b.com").Return(nil, nil)
	env.media.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("https://assets.example.com/avatars/x.png", nil)
	env.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	body, contentType := registerForm(t, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	assert.Equal(t, "abc", payload["username"])
	// the public projection must never carry credential state
	assert.NotContains(t, payload, "password")
	assert.NotContains(t, payload, "passwordHash")
	assert.NotContains(t, payload, "refreshToken")
	assert.NotContains(t, payload, "currentRefreshToken")
}

func TestRegister_MissingAvatar(t *testing.T) {
	env := setupApp(t)

	body, contentType := registerForm(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := setupApp(t)

	env.repo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "abc").
		Return(&domain.User{ID: "existing-id", Username: "abc"}, nil)

	body, contentType := registerForm(t, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLogin_SetsTokenCookies(t *testing.T) {
	env := setupApp(t)

	stored := &domain.User{
		ID:           "user-123",
		Username:     "abc",
		Email:        "a@b.com",
		PasswordHash: hashPassword(t, "pw1"),
	}

	env.repo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "abc").Return(stored, nil)
	env.repo.EXPECT().SetRefreshToken(gomock.Any(), "user-123", gomock.Any()).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		strings.NewReader(`{"username":"abc","password":"pw1"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	access := cookieByName(resp, "accessToken")
	refresh := cookieByName(resp, "refreshToken")
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.True(t, refresh.HttpOnly)
	assert.True(t, refresh.Secure)

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, access.Value, payload["accessToken"])
	assert.Equal(t, refresh.Value, payload["refreshToken"])
}

func TestLogin_WrongPassword_NoCookies(t *testing.T) {
	env := setupApp(t)

	stored := &domain.User{
		ID:           "user-123",
		Username:     "abc",
		PasswordHash: hashPassword(t, "correct"),
	}

	env.repo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "abc").Return(stored, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		strings.NewReader(`{"username":"abc","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Cookies())
}

func TestRefresh_FromCookie(t *testing.T) {
	env := setupApp(t)

	refreshToken, err := env.tokenService.Issue(service.RefreshToken, "user-123")
	require.NoError(t, err)

	stored := &domain.User{ID: "user-123", CurrentRefreshToken: refreshToken}
	env.repo.EXPECT().GetByID(gomock.Any(), "user-123").Return(stored, nil)
	env.repo.EXPECT().RotateRefreshToken(gomock.Any(), "user-123", refreshToken, gomock.Any()).Return(true, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refreshToken})

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var pair map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pair))
	assert.NotEmpty(t, pair["accessToken"])
	assert.NotEqual(t, refreshToken, pair["refreshToken"])

	rotated := cookieByName(resp, "refreshToken")
	require.NotNil(t, rotated)
	assert.NotEqual(t, refreshToken, rotated.Value)
}

func TestRefresh_FromBody(t *testing.T) {
	env := setupApp(t)

	refreshToken, err := env.tokenService.Issue(service.RefreshToken, "user-123")
	require.NoError(t, err)

	stored := &domain.User{ID: "user-123", CurrentRefreshToken: refreshToken}
	env.repo.EXPECT().GetByID(gomock.Any(), "user-123").Return(stored, nil)
	env.repo.EXPECT().RotateRefreshToken(gomock.Any(), "user-123", refreshToken, gomock.Any()).Return(true, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token",
		strings.NewReader(`{"refreshToken":"`+refreshToken+`"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefresh_MissingToken(t *testing.T) {
	env := setupApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefresh_ReusedToken(t *testing.T) {
	env := setupApp(t)

	refreshToken, err := env.tokenService.Issue(service.RefreshToken, "user-123")
	require.NoError(t, err)

	// storage already rotated past this token
	stored := &domain.User{ID: "user-123", CurrentRefreshToken: "something-newer"}
	env.repo.EXPECT().GetByID(gomock.Any(), "user-123").Return(stored, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refreshToken})

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_ClearsCookiesAndRevokes(t *testing.T) {
	env := setupApp(t)

	accessToken, err := env.tokenService.Issue(service.AccessToken, "user-123")
	require.NoError(t, err)

	stored := &domain.User{ID: "user-123", Username: "abc"}
	env.repo.EXPECT().GetByID(gomock.Any(), "user-123").Return(stored, nil)
	env.repo.EXPECT().SetRefreshToken(gomock.Any(), "user-123", "").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: accessToken})

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	access := cookieByName(resp, "accessToken")
	refresh := cookieByName(resp, "refreshToken")
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.Empty(t, access.Value)
	assert.Empty(t, refresh.Value)
}

func TestLogout_WithoutToken(t *testing.T) {
	env := setupApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCurrentUser_BearerFallback(t *testing.T) {
	env := setupApp(t)

	accessToken, err := env.tokenService.Issue(service.AccessToken, "user-123")
	require.NoError(t, err)

	stored := &domain.User{ID: "user-123", Username: "abc", Email: "a@b.com"}
	env.repo.EXPECT().GetByID(gomock.Any(), "user-123").Return(stored, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "abc", payload["username"])
	assert.NotContains(t, payload, "passwordHash")
}

func TestChangePassword_CorrectOldPassword(t *testing.T) {
	env := setupApp(t)

	accessToken, err := env.tokenService.Issue(service.AccessToken, "user-123")
	require.NoError(t, err)

	stored := &domain.User{
		ID:           "user-123",
		Username:     "abc",
		PasswordHash: hashPassword(t, "old-pw"),
	}
	// middleware resolves the caller, then the service re-reads for verification
	env.repo.EXPECT().GetByID(gomock.Any(), "user-123").Return(stored, nil).Times(2)
	env.repo.EXPECT().UpdatePasswordHash(gomock.Any(), "user-123", gomock.Any()).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password",
		strings.NewReader(`{"oldPassword":"old-pw","newPassword":"new-pw"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChannelProfile(t *testing.T) {
	env := setupApp(t)

	accessToken, err := env.tokenService.Issue(service.AccessToken, "viewer-1")
	require.NoError(t, err)

	viewer := &domain.User{ID: "viewer-1", Username: "viewer"}
	env.repo.EXPECT().GetByID(gomock.Any(), "viewer-1").Return(viewer, nil)
	env.repo.EXPECT().GetChannelProfile(gomock.Any(), "channelguy", "viewer-1").
		Return(&domain.ChannelProfile{ID: "user-456", Username: "channelguy", SubscribersCount: 42}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/c/channelguy", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, float64(42), payload["subscribersCount"])
}
