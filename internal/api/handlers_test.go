package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/corpnet/microblog/internal/blobstore"
	"github.com/corpnet/microblog/internal/db"
	"github.com/corpnet/microblog/internal/models"
	"github.com/corpnet/microblog/internal/service"
	"github.com/corpnet/microblog/pkg/config"
)

// envelope covers every response shape the API produces
type envelope struct {
	Result       bool                `json:"result"`
	ErrorType    string              `json:"error_type"`
	ErrorMessage string              `json:"error_message"`
	TweetID      int64               `json:"tweet_id"`
	MediaID      int64               `json:"media_id"`
	Tweets       []service.FeedTweet `json:"tweets"`
	User         *service.Profile    `json:"user"`
}

type testAPI struct {
	engine *gin.Engine
	alice  *models.User
	bob    *models.User
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbCfg := &config.DatabaseConfig{
		URL:          filepath.Join(t.TempDir(), "test.db"),
		MaxIdleConns: 2,
		MaxOpenConns: 2,
	}
	database, err := db.New(dbCfg, "ERROR")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.Migrate(); err != nil {
		t.Fatalf("Failed to migrate schema: %v", err)
	}

	mediaDir := t.TempDir()
	blobs, err := blobstore.NewDiskStore(mediaDir, 1024*1024)
	if err != nil {
		t.Fatalf("Failed to create blob store: %v", err)
	}

	repo := db.NewRepository(database.DB)
	users := db.NewUserRepository(repo)
	alice := &models.User{Name: "alice", APIKey: "key-alice"}
	bob := &models.User{Name: "bob", APIKey: "key-bob"}
	for _, u := range []*models.User{alice, bob} {
		if err := users.Create(context.Background(), u); err != nil {
			t.Fatalf("Failed to seed user: %v", err)
		}
	}

	cfg := &config.Config{
		Redis: config.RedisConfig{FeedTTL: time.Minute},
		Media: config.MediaConfig{Dir: mediaDir, BaseURL: "/media/", MaxUploadBytes: 1024 * 1024},
	}

	engine := gin.New()
	NewRouter(database, nil, blobs, cfg).SetupRoutes(engine)

	return &testAPI{engine: engine, alice: alice, bob: bob}
}

func (a *testAPI) do(t *testing.T, method, path, apiKey string, body io.Reader, contentType string) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if apiKey != "" {
		req.Header.Set("api-key", apiKey)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, &env
}

func (a *testAPI) postJSON(t *testing.T, path, apiKey string, payload interface{}) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	return a.do(t, http.MethodPost, path, apiKey, bytes.NewReader(data), "application/json")
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec, _ := api.do(t, http.MethodGet, "/health", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "OK") {
		t.Errorf("Expected OK status in body, got: %s", rec.Body.String())
	}

	rec, _ = api.do(t, http.MethodGet, "/.well-known/healthcheck.json", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from well-known path, got: %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(t, http.MethodGet, "/api/tweets", "", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got: %d", rec.Code)
	}
	if env.Result {
		t.Error("Expected result=false")
	}
	if env.ErrorType != "unauthorized" {
		t.Errorf("Expected unauthorized error type, got: %s", env.ErrorType)
	}

	rec, _ = api.do(t, http.MethodGet, "/api/tweets", "bogus-key", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with bogus key, got: %d", rec.Code)
	}
}

func TestCreateAndListTweets(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.postJSON(t, "/api/tweets", "key-alice", gin.H{"tweet_data": "hello world"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got: %d (%s)", rec.Code, rec.Body.String())
	}
	if !env.Result || env.TweetID == 0 {
		t.Errorf("Expected result with tweet_id, got: %+v", env)
	}

	rec, env = api.do(t, http.MethodGet, "/api/tweets", "key-bob", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", rec.Code)
	}
	if len(env.Tweets) != 1 {
		t.Fatalf("Expected 1 tweet, got: %d", len(env.Tweets))
	}
	if env.Tweets[0].Content != "hello world" {
		t.Errorf("Unexpected content: %s", env.Tweets[0].Content)
	}
	if env.Tweets[0].Author.Name != "alice" {
		t.Errorf("Expected author alice, got: %s", env.Tweets[0].Author.Name)
	}
}

func TestCreateTweetRejectsInvalid(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.postJSON(t, "/api/tweets", "key-alice", gin.H{"tweet_data": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty tweet, got: %d", rec.Code)
	}
	if env.ErrorType != "invalid_action" {
		t.Errorf("Expected invalid_action, got: %s", env.ErrorType)
	}

	long := strings.Repeat("x", 281)
	rec, env = api.postJSON(t, "/api/tweets", "key-alice", gin.H{"tweet_data": long})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for long tweet, got: %d", rec.Code)
	}

	rec, env = api.do(t, http.MethodPost, "/api/tweets", "key-alice", strings.NewReader("{not json"), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got: %d", rec.Code)
	}
	if env.ErrorType != "invalid_action" {
		t.Errorf("Expected invalid_action, got: %s", env.ErrorType)
	}
}

func TestDeleteTweetOwnership(t *testing.T) {
	api := newTestAPI(t)

	_, created := api.postJSON(t, "/api/tweets", "key-alice", gin.H{"tweet_data": "mine"})

	path := "/api/tweets/" + itoa(created.TweetID)
	rec, env := api.do(t, http.MethodDelete, path, "key-bob", nil, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for foreign delete, got: %d", rec.Code)
	}
	if env.ErrorType != "forbidden" {
		t.Errorf("Expected forbidden, got: %s", env.ErrorType)
	}

	rec, _ = api.do(t, http.MethodDelete, path, "key-alice", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for owner delete, got: %d", rec.Code)
	}

	rec, env = api.do(t, http.MethodDelete, path, "key-alice", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for repeated delete, got: %d", rec.Code)
	}
	if env.ErrorType != "not_found" {
		t.Errorf("Expected not_found, got: %s", env.ErrorType)
	}
}

func TestLikeEndpoints(t *testing.T) {
	api := newTestAPI(t)

	_, created := api.postJSON(t, "/api/tweets", "key-alice", gin.H{"tweet_data": "like me"})
	path := "/api/tweets/" + itoa(created.TweetID) + "/likes"

	rec, _ := api.do(t, http.MethodPost, path, "key-bob", nil, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for like, got: %d", rec.Code)
	}

	rec, env := api.do(t, http.MethodPost, path, "key-bob", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for duplicate like, got: %d", rec.Code)
	}
	if env.ErrorType != "duplicate" {
		t.Errorf("Expected duplicate, got: %s", env.ErrorType)
	}

	rec, _ = api.do(t, http.MethodDelete, path, "key-bob", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for unlike, got: %d", rec.Code)
	}

	rec, env = api.do(t, http.MethodDelete, path, "key-bob", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for repeated unlike, got: %d", rec.Code)
	}

	rec, _ = api.do(t, http.MethodPost, "/api/tweets/99999/likes", "key-bob", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 liking missing tweet, got: %d", rec.Code)
	}
}

func TestFollowEndpoints(t *testing.T) {
	api := newTestAPI(t)

	bobPath := "/api/users/" + itoa(api.bob.ID) + "/follow"

	rec, _ := api.do(t, http.MethodPost, bobPath, "key-alice", nil, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for follow, got: %d", rec.Code)
	}

	rec, env := api.do(t, http.MethodPost, bobPath, "key-alice", nil, "")
	if rec.Code != http.StatusBadRequest || env.ErrorType != "duplicate" {
		t.Errorf("Expected 400 duplicate, got: %d %s", rec.Code, env.ErrorType)
	}

	selfPath := "/api/users/" + itoa(api.alice.ID) + "/follow"
	rec, env = api.do(t, http.MethodPost, selfPath, "key-alice", nil, "")
	if rec.Code != http.StatusBadRequest || env.ErrorType != "invalid_action" {
		t.Errorf("Expected 400 invalid_action for self-follow, got: %d %s", rec.Code, env.ErrorType)
	}

	rec, _ = api.do(t, http.MethodPost, "/api/users/99999/follow", "key-alice", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 following missing user, got: %d", rec.Code)
	}

	rec, _ = api.do(t, http.MethodDelete, bobPath, "key-alice", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for unfollow, got: %d", rec.Code)
	}

	rec, _ = api.do(t, http.MethodDelete, bobPath, "key-alice", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for repeated unfollow, got: %d", rec.Code)
	}
}

func TestProfileEndpoints(t *testing.T) {
	api := newTestAPI(t)

	// bob follows alice
	rec, _ := api.do(t, http.MethodPost, "/api/users/"+itoa(api.alice.ID)+"/follow", "key-bob", nil, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("Follow failed: %d", rec.Code)
	}

	rec, env := api.do(t, http.MethodGet, "/api/users/me", "key-alice", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /users/me, got: %d", rec.Code)
	}
	if env.User == nil || env.User.Name != "alice" {
		t.Fatalf("Expected alice profile, got: %+v", env.User)
	}
	if len(env.User.Followers) != 1 || env.User.Followers[0].Name != "bob" {
		t.Errorf("Expected bob as follower, got: %+v", env.User.Followers)
	}

	rec, env = api.do(t, http.MethodGet, "/api/users/"+itoa(api.bob.ID), "key-alice", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /users/:id, got: %d", rec.Code)
	}
	if len(env.User.Following) != 1 || env.User.Following[0].Name != "alice" {
		t.Errorf("Expected alice in following, got: %+v", env.User.Following)
	}

	rec, env = api.do(t, http.MethodGet, "/api/users/99999", "key-alice", nil, "")
	if rec.Code != http.StatusNotFound || env.ErrorType != "not_found" {
		t.Errorf("Expected 404 not_found, got: %d %s", rec.Code, env.ErrorType)
	}
}

func TestMediaUploadAndAttach(t *testing.T) {
	api := newTestAPI(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "photo.jpg")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := fw.Write([]byte("jpeg bytes")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	w.Close()

	rec, env := api.do(t, http.MethodPost, "/api/medias", "key-alice", &buf, w.FormDataContentType())
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for upload, got: %d (%s)", rec.Code, rec.Body.String())
	}
	if env.MediaID == 0 {
		t.Fatal("Expected media_id in response")
	}

	rec, created := api.postJSON(t, "/api/tweets", "key-alice", gin.H{
		"tweet_data":      "with attachment",
		"tweet_media_ids": []int64{env.MediaID},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for tweet, got: %d", rec.Code)
	}

	rec, feed := api.do(t, http.MethodGet, "/api/tweets", "key-alice", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", rec.Code)
	}
	if len(feed.Tweets) != 1 || feed.Tweets[0].ID != created.TweetID {
		t.Fatalf("Expected the created tweet, got: %+v", feed.Tweets)
	}
	if len(feed.Tweets[0].Attachments) != 1 {
		t.Fatalf("Expected 1 attachment, got: %d", len(feed.Tweets[0].Attachments))
	}
	if !strings.HasPrefix(feed.Tweets[0].Attachments[0], "/media/") {
		t.Errorf("Expected /media/ prefix, got: %s", feed.Tweets[0].Attachments[0])
	}

	// The stored blob is fetchable through the static route
	rec, _ = api.do(t, http.MethodGet, feed.Tweets[0].Attachments[0], "", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 fetching attachment, got: %d", rec.Code)
	}
	if rec.Body.String() != "jpeg bytes" {
		t.Errorf("Expected blob bytes back, got: %q", rec.Body.String())
	}
}

func TestMissingUploadField(t *testing.T) {
	api := newTestAPI(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.Close()

	rec, env := api.do(t, http.MethodPost, "/api/medias", "key-alice", &buf, w.FormDataContentType())
	if rec.Code != http.StatusBadRequest || env.ErrorType != "invalid_action" {
		t.Errorf("Expected 400 invalid_action, got: %d %s", rec.Code, env.ErrorType)
	}
}

func TestBadPathParam(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(t, http.MethodDelete, "/api/tweets/abc", "key-alice", nil, "")
	if rec.Code != http.StatusBadRequest || env.ErrorType != "invalid_action" {
		t.Errorf("Expected 400 invalid_action, got: %d %s", rec.Code, env.ErrorType)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	// Generate one counted request first
	api.do(t, http.MethodGet, "/health", "", nil, "")

	rec, _ := api.do(t, http.MethodGet, "/metrics", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /metrics, got: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "microblog_http_requests_total") {
		t.Error("Expected request counter in metrics output")
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
