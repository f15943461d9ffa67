package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-foody/internal/http/middleware"
	"github.com/pribylovaa/go-foody/internal/models"
	"github.com/pribylovaa/go-foody/internal/service"
)

// fakeService: ручной фейк сервисного слоя: каждый метод делегирует в поле-функцию.
type fakeService struct {
	signup     func(ctx context.Context, email, password string) (int64, error)
	signin     func(ctx context.Context, email, password string) (models.TokenPair, error)
	refresh    func(ctx context.Context, u *models.User) (models.TokenPair, error)
	logout     func(ctx context.Context, u *models.User) (int64, error)
	edit       func(ctx context.Context, u *models.User, nickname string, imageURI *string) (*models.User, error)
	categories func(ctx context.Context, u *models.User, c models.Categories) (*models.User, error)
	upload     func(ctx context.Context, u *models.User, files []service.Upload) ([]string, error)
}

func (f *fakeService) Signup(ctx context.Context, email, password string) (int64, error) {
	return f.signup(ctx, email, password)
}

func (f *fakeService) Signin(ctx context.Context, email, password string) (models.TokenPair, error) {
	return f.signin(ctx, email, password)
}

func (f *fakeService) Refresh(ctx context.Context, u *models.User) (models.TokenPair, error) {
	return f.refresh(ctx, u)
}

func (f *fakeService) Logout(ctx context.Context, u *models.User) (int64, error) {
	return f.logout(ctx, u)
}

func (f *fakeService) Profile(u *models.User) models.ProfileResponse {
	return models.NewProfileResponse(u)
}

func (f *fakeService) EditProfile(ctx context.Context, u *models.User, nickname string, imageURI *string) (*models.User, error) {
	return f.edit(ctx, u, nickname, imageURI)
}

func (f *fakeService) UpdateCategories(ctx context.Context, u *models.User, c models.Categories) (*models.User, error) {
	return f.categories(ctx, u, c)
}

func (f *fakeService) UploadImages(ctx context.Context, u *models.User, files []service.Upload) ([]string, error) {
	return f.upload(ctx, u, files)
}

type errEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func testUser() *models.User {
	return &models.User{
		ID:        42,
		Email:     strings.ToLower(gofakeit.Email()),
		LoginType: models.LoginTypeEmail,
		Nickname:  "chef",
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withUser(req *http.Request, u *models.User) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), u))
}

func errCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var env errEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env.Error.Code
}

func TestSignup(t *testing.T) {
	t.Parallel()

	var gotEmail, gotPassword string
	h := New(&fakeService{
		signup: func(_ context.Context, email, password string) (int64, error) {
			gotEmail, gotPassword = email, password
			return 1, nil
		},
	}, 0)

	rr := httptest.NewRecorder()
	h.Signup(rr, jsonReq(http.MethodPost, "/auth/signup", `{"email":"cook@example.com","password":"secret123"}`))

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"id":1}`, rr.Body.String())
	require.Equal(t, "cook@example.com", gotEmail)
	require.Equal(t, "secret123", gotPassword)
}

func TestSignup_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		err      error
		called   bool
		status   int
		wantCode string
	}{
		{"unknown field", `{"email":"chef@example.com","password":"secret123","admin":true}`, nil, false, http.StatusBadRequest, "invalid_argument"},
		{"broken json", `{"email":`, nil, false, http.StatusBadRequest, "invalid_argument"},
		{"bad email", `{"email":"not-an-email","password":"secret123"}`, nil, false, http.StatusBadRequest, "invalid_argument"},
		{"short password", `{"email":"chef@example.com","password":"x"}`, nil, false, http.StatusBadRequest, "invalid_argument"},
		{"password symbols", `{"email":"chef@example.com","password":"with spaces 1"}`, nil, false, http.StatusBadRequest, "invalid_argument"},
		{"duplicate", `{"email":"chef@example.com","password":"secret123"}`, service.ErrEmailDuplicate, true, http.StatusConflict, "email_duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			h := New(&fakeService{
				signup: func(context.Context, string, string) (int64, error) {
					called = true
					return 0, tt.err
				},
			}, 0)

			rr := httptest.NewRecorder()
			h.Signup(rr, jsonReq(http.MethodPost, "/auth/signup", tt.body))

			require.Equal(t, tt.status, rr.Code)
			require.Equal(t, tt.wantCode, errCode(t, rr))
			require.Equal(t, tt.called, called)
		})
	}
}

func TestSignin_ValidatesBody(t *testing.T) {
	t.Parallel()

	h := New(&fakeService{
		signin: func(context.Context, string, string) (models.TokenPair, error) {
			t.Error("service must not be called for an invalid body")
			return models.TokenPair{}, nil
		},
	}, 0)

	rr := httptest.NewRecorder()
	h.Signin(rr, jsonReq(http.MethodPost, "/auth/signin", `{"email":"cook@example.com","password":"short"}`))

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var env errEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Equal(t, "invalid_argument", env.Error.Code)
	require.Contains(t, env.Error.Message, "password")
}

func TestSignin(t *testing.T) {
	t.Parallel()

	h := New(&fakeService{
		signin: func(_ context.Context, email, _ string) (models.TokenPair, error) {
			if email == "ghost@example.com" {
				return models.TokenPair{}, service.ErrUserNotFound
			}
			return models.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil
		},
	}, 0)

	rr := httptest.NewRecorder()
	h.Signin(rr, jsonReq(http.MethodPost, "/auth/signin", `{"email":"cook@example.com","password":"secret123"}`))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"accessToken":"a","refreshToken":"r"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.Signin(rr, jsonReq(http.MethodPost, "/auth/signin", `{"email":"ghost@example.com","password":"secret123"}`))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "user_not_found", errCode(t, rr))
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	user := testUser()
	h := New(&fakeService{
		refresh: func(_ context.Context, u *models.User) (models.TokenPair, error) {
			require.Same(t, user, u)
			return models.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, nil
		},
	}, 0)

	rr := httptest.NewRecorder()
	h.Refresh(rr, withUser(httptest.NewRequest(http.MethodGet, "/auth/refresh", nil), user))

	require.Equal(t, http.StatusCreated, rr.Code)
	require.JSONEq(t, `{"accessToken":"a2","refreshToken":"r2"}`, rr.Body.String())
}

func TestRefresh_Stale(t *testing.T) {
	t.Parallel()

	h := New(&fakeService{
		refresh: func(context.Context, *models.User) (models.TokenPair, error) {
			return models.TokenPair{}, fmt.Errorf("op: %w", service.ErrRefreshTokenInvalid)
		},
	}, 0)

	rr := httptest.NewRecorder()
	h.Refresh(rr, withUser(httptest.NewRequest(http.MethodGet, "/auth/refresh", nil), testUser()))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "refresh_token_invalid", errCode(t, rr))
}

func TestHandlers_WithoutPrincipal(t *testing.T) {
	t.Parallel()

	h := New(&fakeService{}, 0)

	for name, fn := range map[string]http.HandlerFunc{
		"refresh":    h.Refresh,
		"logout":     h.Logout,
		"me":         h.Me,
		"edit":       h.EditMe,
		"categories": h.Categories,
		"images":     h.Images,
	} {
		rr := httptest.NewRecorder()
		fn(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Equal(t, http.StatusInternalServerError, rr.Code, name)
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()

	user := testUser()
	h := New(&fakeService{
		logout: func(_ context.Context, u *models.User) (int64, error) { return u.ID, nil },
	}, 0)

	rr := httptest.NewRecorder()
	h.Logout(rr, withUser(httptest.NewRequest(http.MethodGet, "/auth/logout", nil), user))

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"id":42}`, rr.Body.String())
}

func TestMe(t *testing.T) {
	t.Parallel()

	user := testUser()
	hash := "secret-hash"
	user.PasswordHash = "bcrypt"
	user.HashedRefreshToken = &hash

	rr := httptest.NewRecorder()
	New(&fakeService{}, 0).Me(rr, withUser(httptest.NewRequest(http.MethodGet, "/auth/me", nil), user))

	require.Equal(t, http.StatusOK, rr.Code)

	var got models.ProfileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, models.NewProfileResponse(user), got)
	require.NotContains(t, rr.Body.String(), "secret-hash")
	require.NotContains(t, rr.Body.String(), "bcrypt")
}

func TestEditMe(t *testing.T) {
	t.Parallel()

	user := testUser()
	h := New(&fakeService{
		edit: func(_ context.Context, u *models.User, nickname string, imageURI *string) (*models.User, error) {
			out := *u
			out.Nickname = nickname
			out.ImageURI = imageURI
			return &out, nil
		},
	}, 0)

	rr := httptest.NewRecorder()
	h.EditMe(rr, withUser(jsonReq(http.MethodPatch, "/auth/me", `{"nickname":"gourmet","imageUri":"https://cdn.example.com/a.png"}`), user))

	require.Equal(t, http.StatusOK, rr.Code)

	var got models.ProfileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, "gourmet", got.Nickname)
	require.NotNil(t, got.ImageURI)
	require.Equal(t, "https://cdn.example.com/a.png", *got.ImageURI)
}

func TestCategories(t *testing.T) {
	t.Parallel()

	user := testUser()
	var got models.Categories
	h := New(&fakeService{
		categories: func(_ context.Context, u *models.User, c models.Categories) (*models.User, error) {
			got = c
			out := *u
			out.Categories = c
			return &out, nil
		},
	}, 0)

	rr := httptest.NewRecorder()
	h.Categories(rr, withUser(jsonReq(http.MethodPatch, "/auth/category", `{"red":"spicy","blue":"seafood"}`), user))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, models.Categories{Red: "spicy", Blue: "seafood"}, got)
}

// pngHeader: сигнатура PNG, достаточная для http.DetectContentType.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile(filesField, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestImages(t *testing.T) {
	t.Parallel()

	user := testUser()
	var got []service.Upload
	var gotBody []byte

	h := New(&fakeService{
		upload: func(_ context.Context, u *models.User, files []service.Upload) ([]string, error) {
			got = files
			b, err := io.ReadAll(files[0].Body)
			require.NoError(t, err)
			gotBody = b
			return []string{"https://cdn.example.com/images/42/x.png"}, nil
		},
	}, 1<<20)

	body, ct := multipartBody(t, map[string][]byte{"dish.png": pngHeader})
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", ct)

	rr := httptest.NewRecorder()
	h.Images(rr, withUser(req, user))

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `["https://cdn.example.com/images/42/x.png"]`, rr.Body.String())

	require.Len(t, got, 1)
	require.Equal(t, "dish.png", got[0].Filename)
	require.Equal(t, "image/png", got[0].ContentType)
	require.EqualValues(t, len(pngHeader), got[0].Size)
	// После сниффинга файл перемотан: сервис видит содержимое целиком.
	require.Equal(t, pngHeader, gotBody)
}

func TestImages_SniffsContentType(t *testing.T) {
	t.Parallel()

	var got []service.Upload
	h := New(&fakeService{
		upload: func(_ context.Context, _ *models.User, files []service.Upload) ([]string, error) {
			got = files
			return nil, service.ErrUnsupportedMediaType
		},
	}, 0)

	body, ct := multipartBody(t, map[string][]byte{"fake.png": []byte("just text, not an image")})
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", ct)

	rr := httptest.NewRecorder()
	h.Images(rr, withUser(req, testUser()))

	require.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	require.Equal(t, "unsupported_media_type", errCode(t, rr))
	require.Len(t, got, 1)
	require.True(t, strings.HasPrefix(got[0].ContentType, "text/plain"))
}

func TestImages_BodyTooLarge(t *testing.T) {
	t.Parallel()

	h := New(&fakeService{}, 64)

	body, ct := multipartBody(t, map[string][]byte{"big.png": bytes.Repeat([]byte{0x89}, 4096)})
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", ct)

	rr := httptest.NewRecorder()
	h.Images(rr, withUser(req, testUser()))

	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Equal(t, "image_too_large", errCode(t, rr))
}

func TestImages_NotMultipart(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	New(&fakeService{}, 0).Images(rr, withUser(jsonReq(http.MethodPost, "/images", `{}`), testUser()))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_argument", errCode(t, rr))
}
