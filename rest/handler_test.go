package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/auth"
	"inkwell/config"
	"inkwell/domain"
	"inkwell/driver/taskqueue"
	"inkwell/storage"
	"inkwell/usecase"
	"inkwell/worker"
)

type memTxRunner struct{}

func (memTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, changes *domain.ChangeSet) error) (*domain.ChangeSet, error) {
	changes := domain.NewChangeSet()
	if err := fn(ctx, changes); err != nil {
		return nil, err
	}
	return changes, nil
}

type memPostRepo struct {
	posts  map[int64]*domain.Post
	nextID int64
}

func (m *memPostRepo) CreatePost(ctx context.Context, post *domain.Post) error {
	m.nextID++
	post.ID = m.nextID
	post.CreatedAt = time.Now()
	m.posts[post.ID] = post
	return nil
}

func (m *memPostRepo) UpdatePost(ctx context.Context, post *domain.Post) error {
	if _, ok := m.posts[post.ID]; !ok {
		return domain.ErrNotFound
	}
	m.posts[post.ID] = post
	return nil
}

func (m *memPostRepo) DeletePost(ctx context.Context, id int64) error {
	if _, ok := m.posts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *memPostRepo) GetPostByID(ctx context.Context, id int64) (*domain.Post, error) {
	post, ok := m.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return post, nil
}

func (m *memPostRepo) GetPostsByIDs(ctx context.Context, ids []int64) ([]*domain.Post, error) {
	var out []*domain.Post
	for _, id := range ids {
		if post, ok := m.posts[id]; ok {
			out = append(out, post)
		}
	}
	return out, nil
}

func (m *memPostRepo) ListPosts(ctx context.Context, page, pageSize int) ([]*domain.Post, int64, error) {
	var out []*domain.Post
	for _, post := range m.posts {
		out = append(out, post)
	}
	return out, int64(len(out)), nil
}

func (m *memPostRepo) IteratePosts(ctx context.Context, lastCreatedAt *time.Time, lastID int64, limit int) ([]*domain.Post, *time.Time, int64, error) {
	if lastCreatedAt != nil {
		return nil, lastCreatedAt, lastID, nil
	}
	var out []*domain.Post
	for _, post := range m.posts {
		out = append(out, post)
	}
	if len(out) == 0 {
		return nil, nil, 0, nil
	}
	last := out[len(out)-1]
	return out, &last.CreatedAt, last.ID, nil
}

type memUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func (m *memUserRepo) CreateUser(ctx context.Context, user *domain.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return domain.ErrDuplicate
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (m *memUserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	user, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	user.PasswordHash = hash
	return nil
}

func (m *memUserRepo) UpdateImageFile(ctx context.Context, id int64, imageFile string) error {
	user, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	user.ImageFile = imageFile
	return nil
}

type memEngine struct {
	enabled     bool
	queryResult *domain.QueryResult
	indexed     []domain.Searchable
	removed     []int64
	wiped       int
}

func (m *memEngine) Enabled() bool { return m.enabled }

func (m *memEngine) EnsureIndex(ctx context.Context, namespace string) error { return nil }

func (m *memEngine) Index(ctx context.Context, s domain.Searchable) error {
	m.indexed = append(m.indexed, s)
	return nil
}

func (m *memEngine) Remove(ctx context.Context, namespace string, id int64) error {
	m.removed = append(m.removed, id)
	return nil
}

func (m *memEngine) Query(ctx context.Context, namespace, phrase string, offset, limit int64) (*domain.QueryResult, error) {
	if m.queryResult != nil {
		return m.queryResult, nil
	}
	return &domain.QueryResult{IDs: []int64{}, Hits: []domain.SearchHit{}}, nil
}

func (m *memEngine) WipeIndex(ctx context.Context, namespace string) error {
	m.wiped++
	return nil
}

type mailSink struct{}

func (mailSink) Send(ctx context.Context, recipient, subject, body string) error { return nil }

type testApp struct {
	router   *echo.Echo
	tokens   *auth.TokenManager
	engine   *memEngine
	postRepo *memPostRepo
	userRepo *memUserRepo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	postRepo := &memPostRepo{posts: map[int64]*domain.Post{}}
	userRepo := &memUserRepo{users: map[int64]*domain.User{}}
	engine := &memEngine{enabled: true}

	tokens := auth.NewTokenManager(config.AuthConfig{
		JWTSecret:     "test-secret",
		SessionTTL:    time.Hour,
		ResetTokenTTL: 30 * time.Minute,
	})

	registry := taskqueue.NewRegistry()
	worker.NewHandlers(postRepo, engine, mailSink{}, "http://localhost:9400", nil).Register(registry)
	queue := taskqueue.NewInlineQueue(registry, nil)

	policy := usecase.NewIndexSyncPolicy(queue, nil)

	uploadsDir := t.TempDir()
	pictures, err := storage.NewPictureStore(uploadsDir)
	require.NoError(t, err)

	handler := NewHandler(HandlerDeps{
		CreatePost:    usecase.NewCreatePostUsecase(memTxRunner{}, postRepo, policy, nil),
		UpdatePost:    usecase.NewUpdatePostUsecase(memTxRunner{}, postRepo, policy, nil),
		DeletePost:    usecase.NewDeletePostUsecase(memTxRunner{}, postRepo, policy, nil),
		GetPost:       usecase.NewGetPostUsecase(postRepo),
		ListPosts:     usecase.NewListPostsUsecase(postRepo),
		SearchPosts:   usecase.NewSearchPostsUsecase(engine, postRepo, nil),
		ReindexPosts:  usecase.NewReindexPostsUsecase(engine, postRepo, nil),
		RegisterUser:  usecase.NewRegisterUserUsecase(userRepo),
		LoginUser:     usecase.NewLoginUserUsecase(userRepo, tokens),
		RequestReset:  usecase.NewRequestPasswordResetUsecase(userRepo, tokens, queue, nil),
		ConfirmReset:  usecase.NewConfirmPasswordResetUsecase(userRepo, tokens),
		UpdatePicture: usecase.NewUpdateProfilePictureUsecase(userRepo, pictures, nil),
		UserRepo:      userRepo,
	})

	cfg := &config.Config{Uploads: config.UploadsConfig{Dir: uploadsDir}}
	return &testApp{
		router:   NewRouter(handler, tokens, cfg),
		tokens:   tokens,
		engine:   engine,
		postRepo: postRepo,
		userRepo: userRepo,
	}
}

func (a *testApp) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) registerAndLogin(t *testing.T) string {
	t.Helper()

	rec := a.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "corey",
		"email":    "corey@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "corey@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	app.registerAndLogin(t)

	rec := app.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "other",
		"email":    "corey@example.com",
		"password": "hunter2hunter2",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	app := newTestApp(t)
	app.registerAndLogin(t)

	rec := app.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "corey@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatePost_RequiresAuth(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(http.MethodPost, "/v1/posts", "", map[string]string{
		"title":   "t",
		"content": "c",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// A write through the API lands in the index via the task pipeline.
func TestCreatePost_IndexesThroughInlineQueue(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t)

	rec := app.do(http.MethodPost, "/v1/posts", token, map[string]string{
		"title":   "Docker Magic",
		"content": "containers all the way down",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, app.engine.indexed, 1)
	assert.Equal(t, "Docker Magic", app.engine.indexed[0].SearchFields()["title"])
}

func TestDeletePost_RemovesFromIndex(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t)

	rec := app.do(http.MethodPost, "/v1/posts", token, map[string]string{
		"title":   "doomed",
		"content": "c",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = app.do(http.MethodDelete, fmt.Sprintf("/v1/posts/%d", created.ID), token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{created.ID}, app.engine.removed)
}

func TestUpdatePost_NonAuthorForbidden(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t)

	rec := app.do(http.MethodPost, "/v1/posts", token, map[string]string{
		"title":   "mine",
		"content": "c",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Second account.
	rec = app.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "mallory",
		"email":    "mallory@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "mallory@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = app.do(http.MethodPut, "/v1/posts/1", login.Token, map[string]string{
		"title":   "stolen",
		"content": "c",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetPost_Missing(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(http.MethodGet, "/v1/posts/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchPosts_BlankQueryIsOK(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(http.MethodGet, "/v1/search/posts?q=", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Hits)
}

func TestSearchPosts_ReturnsRankedHits(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t)

	for _, title := range []string{"first", "second"} {
		rec := app.do(http.MethodPost, "/v1/posts", token, map[string]string{
			"title":   title,
			"content": "c",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	app.engine.queryResult = &domain.QueryResult{
		IDs:   []int64{2, 1},
		Total: 2,
		Hits: []domain.SearchHit{
			{ID: 2, Highlights: map[string][]string{"title": {"<em>second</em>"}}},
			{ID: 1},
		},
	}

	rec := app.do(http.MethodGet, "/v1/search/posts?q=anything", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Hits, 2)
	assert.Equal(t, int64(2), resp.Hits[0].Post.ID)
	assert.Equal(t, []string{"<em>second</em>"}, resp.Hits[0].Highlights["title"])
}

func TestReindex_RequiresAuth(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(http.MethodPost, "/v1/admin/search/reindex", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReindex_RebuildsIndex(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t)

	rec := app.do(http.MethodPost, "/v1/posts", token, map[string]string{
		"title":   "t",
		"content": "c",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	app.engine.indexed = nil

	rec = app.do(http.MethodPost, "/v1/admin/search/reindex", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, 1, app.engine.wiped)
	assert.Len(t, app.engine.indexed, 1)

	var resp struct {
		Indexed int `json:"indexed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Indexed)
}

func TestUpdateProfilePicture(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("picture", "avatar.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(fw, image.NewRGBA(image.Rect(0, 0, 10, 10))))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, "/v1/users/me/picture", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		ImageFile string `json:"image_file"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ImageFile)

	rec = app.do(http.MethodGet, "/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, resp.ImageFile, user.ImageFile)
}

func TestPasswordResetFlow(t *testing.T) {
	app := newTestApp(t)
	app.registerAndLogin(t)

	rec := app.do(http.MethodPost, "/v1/auth/reset_password", "", map[string]string{
		"email": "corey@example.com",
	})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	// Unknown email gets the same answer.
	rec = app.do(http.MethodPost, "/v1/auth/reset_password", "", map[string]string{
		"email": "nobody@example.com",
	})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	token, err := app.tokens.IssueReset(1)
	require.NoError(t, err)

	rec = app.do(http.MethodPost, "/v1/auth/reset_password/confirm", "", map[string]string{
		"token":    token,
		"password": "new-password-1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "corey@example.com",
		"password": "new-password-1",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}
