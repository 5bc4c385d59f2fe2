package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/avatarhub/pkg/app"
	"github.com/yeisme/avatarhub/pkg/configs"
)

func testConfig(t *testing.T) *configs.AppConfig {
	t.Helper()

	cfg := configs.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.Timeout = 5
	cfg.DB.Type = configs.SQLite
	cfg.DB.Database = "memory:app_" + t.Name()
	cfg.DB.LogLevel = "silent"
	cfg.Media.Store = configs.MediaStoreMemory
	cfg.KV.Type = configs.KVTypeMemory
	cfg.MQ.Type = configs.MQTypeMemory

	return cfg
}

func newApp(t *testing.T, opts ...func(*configs.AppConfig)) *app.App {
	t.Helper()

	cfg := testConfig(t)
	for _, opt := range opts {
		opt(cfg)
	}

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	return a
}

func createItem(t *testing.T, a *app.App, user, code string) string {
	t.Helper()

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("code", code))
	require.NoError(t, mw.WriteField("name", "Item "+code))
	fw, err := mw.CreateFormFile("image", "a.png")
	require.NoError(t, err)
	_, err = fw.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User", user)

	w := httptest.NewRecorder()
	a.Engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))

	return env.Data.ID
}

func get(a *app.App, target, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if user != "" {
		req.Header.Set("X-User", user)
	}

	w := httptest.NewRecorder()
	a.Engine.ServeHTTP(w, req)

	return w
}

func TestAppServesGallery(t *testing.T) {
	a := newApp(t)
	require.NotNil(t, a.Services())

	id := createItem(t, a, "alice", "APP-1")

	w := get(a, "/api/v1/items", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), id)

	w = get(a, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAppReadCacheInvalidatedByVote(t *testing.T) {
	a := newApp(t)
	id := createItem(t, a, "alice", "APP-2")
	target := "/api/v1/items/" + id

	require.Equal(t, http.StatusOK, get(a, target, "bob").Code)
	require.Eventually(t, func() bool {
		return get(a, target, "bob").Header().Get("X-Cache") == "HIT"
	}, 2*time.Second, 10*time.Millisecond)

	req := httptest.NewRequest(http.MethodPost, target+"/vote", nil)
	req.Header.Set("X-User", "bob")

	w := httptest.NewRecorder()
	a.Engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = get(a, target, "bob")
	require.NotEqual(t, "HIT", w.Header().Get("X-Cache"))

	var env struct {
		Data struct {
			VoteCount int64 `json:"voteCount"`
			Voted     bool  `json:"voted"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.EqualValues(t, 1, env.Data.VoteCount)
	require.True(t, env.Data.Voted)
}

func vote(a *app.App, id, user string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+id+"/vote", nil)
	req.Header.Set("X-User", user)

	w := httptest.NewRecorder()
	a.Engine.ServeHTTP(w, req)

	return w.Code
}

func TestAppVoteLimitSeparateFromWrites(t *testing.T) {
	a := newApp(t, func(cfg *configs.AppConfig) {
		cfg.RateLimit.RPS = 0.001
		cfg.RateLimit.Burst = 2
		cfg.RateLimit.Vote = configs.RateLimitBucket{RPS: 0.001, Burst: 3}
	})
	id := createItem(t, a, "alice", "APP-3")

	for range 3 {
		require.Equal(t, http.StatusOK, vote(a, id, "bob"))
	}
	require.Equal(t, http.StatusTooManyRequests, vote(a, id, "bob"))

	// 其他用户的投票与 bob 的写配额都不受影响
	require.Equal(t, http.StatusOK, vote(a, id, "carol"))
	createItem(t, a, "bob", "APP-4")

	// alice 的写桶已用掉一次
	createItem(t, a, "alice", "APP-5")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/items/"+id, nil)
	req.Header.Set("X-User", "alice")

	w := httptest.NewRecorder()
	a.Engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAppRunStopsOnCancel(t *testing.T) {
	a := newApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	require.NoError(t, a.Shutdown(context.Background()))
}
