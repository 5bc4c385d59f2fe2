package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/avatarhub/pkg/cache"
	"github.com/yeisme/avatarhub/pkg/configs"
	ctxPkg "github.com/yeisme/avatarhub/pkg/context"
	"github.com/yeisme/avatarhub/pkg/internal/media"
	"github.com/yeisme/avatarhub/pkg/internal/model"
	"github.com/yeisme/avatarhub/pkg/internal/service"
	"github.com/yeisme/avatarhub/pkg/internal/storage/db"
	"github.com/yeisme/avatarhub/pkg/internal/storage/kv"
	"github.com/yeisme/avatarhub/pkg/internal/types"
)

// recorder 记录发布的事件主题.
type recorder struct {
	mu     sync.Mutex
	topics []string
}

func (r *recorder) Publish(topic string, _ ...*message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.topics = append(r.topics, topic)

	return nil
}

func (r *recorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.topics...)
}

// hookStore 在内存存储外加入故障注入与回调.
type hookStore struct {
	*media.MemoryStore

	onUpload  func()
	deleteErr error
}

func (h *hookStore) Upload(ctx context.Context, data []byte, folder string) (*media.Asset, error) {
	a, err := h.MemoryStore.Upload(ctx, data, folder)
	if err == nil && h.onUpload != nil {
		h.onUpload()
	}

	return a, err
}

func (h *hookStore) Delete(ctx context.Context, id string) error {
	if h.deleteErr != nil {
		return h.deleteErr
	}

	return h.MemoryStore.Delete(ctx, id)
}

type env struct {
	svc   *service.Services
	db    *db.Client
	store *hookStore
	pub   *recorder
	cfg   *configs.AppConfig
}

func newEnv(t *testing.T) *env {
	t.Helper()

	ctx := context.Background()

	cfg := configs.Default()
	cfg.DB.Type = configs.SQLite
	cfg.DB.Database = "memory:" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg.DB.LogLevel = "silent"
	cfg.Events.Enabled = true
	cfg.Events.Item = configs.ItemEventsConfig{Created: true, Updated: true, Deleted: true, Voted: true}

	client, err := db.New(ctx, &cfg.DB, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Migrate(ctx, model.Models()...))

	store := &hookStore{MemoryStore: media.NewMemoryStore(media.NewProcessor(cfg.Media), "")}

	kvStore, err := kv.NewMemoryKV(ctx, nil)
	require.NoError(t, err)

	pub := &recorder{}

	opts := service.OptionsFromConfig(cfg)
	opts.DB = client
	opts.Media = store
	opts.Cache = cache.NewCache(kvStore)
	opts.Publisher = pub

	return &env{svc: service.New(opts), db: client, store: store, pub: pub, cfg: cfg}
}

func asUser(user string) context.Context {
	return ctxPkg.WithUser(context.Background(), user)
}

func asAdmin(user string) context.Context {
	return ctxPkg.WithRole(asUser(user), ctxPkg.RoleAdmin)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{uint8(x * 7), uint8(y * 5), 128, 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

// create 以 owner 身份创建条目.
func (e *env) create(t *testing.T, owner, code string, mutate ...func(*types.CreateItemInput)) *model.Item {
	t.Helper()

	in := types.CreateItemInput{
		Code:  code,
		Name:  "Item " + code,
		Image: pngBytes(t, 8, 8),
	}
	for _, m := range mutate {
		m(&in)
	}

	it, err := e.svc.Items.Create(asUser(owner), in)
	require.NoError(t, err)

	return it
}

// requireVoteCount vote_count 必须等于投票行数.
func (e *env) requireVoteCount(t *testing.T, itemID string) int64 {
	t.Helper()

	var it model.Item
	require.NoError(t, e.db.GetDB(context.Background()).Where("id = ?", itemID).Take(&it).Error)

	var rows int64
	require.NoError(t, e.db.GetDB(context.Background()).Model(&model.ItemVote{}).
		Where("item_id = ?", itemID).Count(&rows).Error)

	require.Equal(t, rows, it.VoteCount, "vote_count must equal number of vote rows")

	return it.VoteCount
}

func user(i int) string { return fmt.Sprintf("user-%02d", i) }

var errBoom = errors.New("boom")
