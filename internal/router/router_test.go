package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/fastbb/internal/application"
	"github.com/oksasatya/fastbb/internal/domain/entity"
	"github.com/oksasatya/fastbb/internal/domain/repository/repotest"
	"github.com/oksasatya/fastbb/internal/interface/middleware"
	"github.com/oksasatya/fastbb/pkg/helpers"
	"github.com/oksasatya/fastbb/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

type testApp struct {
	engine *gin.Engine
	users  *repotest.Users
	hasher *helpers.BcryptHasher
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	tokens, err := helpers.NewTokenManager("router-secret", "HS256", 30*time.Minute)
	require.NoError(t, err)

	users := repotest.NewUsers()
	hasher := helpers.NewBcryptHasher(bcrypt.MinCost)
	cats := application.NewCategoryService(&repotest.Categories{}, nil, nil)
	upload := func(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
		_, _ = io.Copy(io.Discard, r)
		return "https://storage.example/" + objectPath, nil
	}

	deps := Deps{
		Auth:         application.NewAuthService(users, hasher, tokens, nil, application.MailSettings{}, nil),
		Users:        application.NewUserService(users, upload, nil),
		Categories:   cats,
		Posts:        application.NewPostService(&repotest.Posts{}, users, cats, nil, "", nil, application.MailSettings{}, nil),
		DebugMetrics: true,
	}

	e := gin.New()
	reg := NewRegistry(e)
	reg.Use(middleware.RequestID(), middleware.RealIP(), middleware.Metrics())
	InitModules(reg, deps)
	reg.RegisterAll()
	return &testApp{engine: e, users: users, hasher: hasher}
}

type envelope struct {
	Status    int             `json:"status"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Error     json.RawMessage `json:"error"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body io.Reader, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (a *testApp) doJSON(t *testing.T, method, path, token string, payload any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return a.do(t, method, path, token, body, "application/json")
}

func (a *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	w, env := a.doJSON(t, http.MethodPost, "/api/users/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tok application.AccessToken
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	return tok.AccessToken
}

func (a *testApp) seed(t *testing.T, u entity.User, password string) {
	t.Helper()
	hash, err := a.hasher.Hash(password)
	require.NoError(t, err)
	a.users.Add(u, hash)
}

func TestRegisterLoginMe(t *testing.T) {
	app := newTestApp(t)

	w, env := app.doJSON(t, http.MethodPost, "/api/users", "", map[string]string{"username": "bob", "password": "secret123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)
	assert.NotContains(t, string(env.Data), "password")

	w, env = app.doJSON(t, http.MethodPost, "/api/users/login", "", map[string]string{"username": "bob", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	var tok map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	assert.Equal(t, "bearer", tok["token_type"])
	assert.NotEmpty(t, tok["access_token"])
	assert.NotEmpty(t, tok["expires_at"])

	w, env = app.doJSON(t, http.MethodGet, "/api/users/me", tok["access_token"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me entity.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "bob", me.Username)
	assert.True(t, me.IsActive)

	w, env = app.doJSON(t, http.MethodPost, "/api/users/login", "", map[string]string{"username": "bob", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "incorrect username or password", env.Message)
}

func TestLogin_FormEncoded(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, entity.User{Username: "bob", IsActive: true}, "secret123")

	form := url.Values{"username": {"bob"}, "password": {"secret123"}}
	w, env := app.do(t, http.MethodPost, "/api/users/login", "", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), "access_token")
}

func TestLogin_UnknownUserMatchesWrongPassword(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, entity.User{Username: "bob", IsActive: true}, "secret123")

	w1, e1 := app.doJSON(t, http.MethodPost, "/api/users/login", "", map[string]string{"username": "nobody", "password": "secret123"})
	w2, e2 := app.doJSON(t, http.MethodPost, "/api/users/login", "", map[string]string{"username": "bob", "password": "nope"})
	assert.Equal(t, w1.Code, w2.Code)
	assert.Equal(t, e1.Message, e2.Message)
}

func TestLogin_StoreOutageIsServerError(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, entity.User{Username: "bob", IsActive: true}, "secret123")
	app.users.Err = errors.New("connection refused")

	w, env := app.doJSON(t, http.MethodPost, "/api/users/login", "", map[string]string{"username": "bob", "password": "secret123"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", env.Message)
	assert.Empty(t, w.Header().Get("WWW-Authenticate"))
}

func TestRegister_Errors(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, entity.User{Username: "bob", IsActive: true}, "pw")

	w, _ := app.doJSON(t, http.MethodPost, "/api/users", "", map[string]string{"username": "bob", "password": "pw"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env := app.doJSON(t, http.MethodPost, "/api/users", "", map[string]string{"username": "eve"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(env.Error), "password")

	w, _ = app.do(t, http.MethodPost, "/api/users", "", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMe_Rejections(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, entity.User{Username: "ghost", IsActive: false}, "pw")

	w, env := app.doJSON(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "not authenticated", env.Message)

	w, _ = app.doJSON(t, http.MethodGet, "/api/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// inactive users can log in but can not use protected routes
	tok := app.login(t, "ghost", "pw")
	w, env = app.doJSON(t, http.MethodGet, "/api/users/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "inactive user", env.Message)
}

func TestUsers_PublicRoutes(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, entity.User{Username: "bob", IsActive: true}, "pw")
	app.seed(t, entity.User{Username: "eve", IsActive: true}, "pw")

	w, env := app.doJSON(t, http.MethodGet, "/api/users?limit=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []entity.User
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	w, _ = app.doJSON(t, http.MethodGet, "/api/users?limit=500", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.doJSON(t, http.MethodGet, "/api/users/eve", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = app.doJSON(t, http.MethodGet, "/api/users/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user does not exist", env.Message)
}

func TestUploadAvatar(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, entity.User{Username: "bob", IsActive: true}, "pw")
	tok := app.login(t, "bob", "pw")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="avatar"; filename="me.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG"))
	require.NoError(t, mw.Close())

	w, env := app.do(t, http.MethodPut, "/api/users/me/avatar", tok, &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var u entity.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.True(t, strings.HasPrefix(u.AvatarURL, "https://storage.example/avatars/1/"))

	w, _ = app.do(t, http.MethodPut, "/api/users/me/avatar", tok, strings.NewReader(""), "multipart/form-data; boundary=x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoriesAndPosts(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, entity.User{Username: "root", IsActive: true, IsAdmin: true}, "pw")
	app.seed(t, entity.User{Username: "bob", IsActive: true}, "pw")
	admin := app.login(t, "root", "pw")
	bob := app.login(t, "bob", "pw")

	w, _ := app.doJSON(t, http.MethodPost, "/api/categories", bob, map[string]string{"name": "general"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.doJSON(t, http.MethodPost, "/api/categories", "", map[string]string{"name": "general"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = app.doJSON(t, http.MethodPost, "/api/categories", admin, map[string]string{"name": "general"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = app.doJSON(t, http.MethodPost, "/api/categories", admin, map[string]string{"name": "general"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env := app.doJSON(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "general")

	w, env = app.doJSON(t, http.MethodPost, "/api/posts", bob, map[string]any{"text": "hello", "category": "general"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var root entity.Post
	require.NoError(t, json.Unmarshal(env.Data, &root))

	w, _ = app.doJSON(t, http.MethodPost, "/api/posts", bob, map[string]any{"text": "re", "category": "general", "parent_id": root.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = app.doJSON(t, http.MethodPost, "/api/posts", bob, map[string]any{"text": "re", "category": "general", "parent_id": 99})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "invalid parent post", env.Message)

	w, _ = app.doJSON(t, http.MethodPost, "/api/posts", bob, map[string]any{"text": "x", "category": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = app.doJSON(t, http.MethodGet, "/api/posts/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var thread entity.Post
	require.NoError(t, json.Unmarshal(env.Data, &thread))
	require.Len(t, thread.Children, 1)
	assert.Equal(t, "re", thread.Children[0].Text)

	w, _ = app.doJSON(t, http.MethodGet, "/api/posts/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = app.doJSON(t, http.MethodGet, "/api/posts/404", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = app.doJSON(t, http.MethodGet, "/api/posts/category/general", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var flat []entity.Post
	require.NoError(t, json.Unmarshal(env.Data, &flat))
	assert.Len(t, flat, 2)

	w, _ = app.doJSON(t, http.MethodGet, "/api/posts/user/bob", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = app.doJSON(t, http.MethodGet, "/api/posts/user/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = app.doJSON(t, http.MethodGet, "/api/posts/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, env = app.doJSON(t, http.MethodGet, "/api/posts/search?q=hello", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestDebugVars(t *testing.T) {
	app := newTestApp(t)
	app.doJSON(t, http.MethodGet, "/api/users", "", nil)

	w, _ := app.do(t, http.MethodGet, "/api/debug/vars", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_by_status")
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)
	w, env := app.doJSON(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "route not found", env.Message)
	assert.False(t, env.Success)
}
