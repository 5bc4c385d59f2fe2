package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/avatarhub/pkg/internal/model"
	"github.com/yeisme/avatarhub/pkg/internal/service"
	"github.com/yeisme/avatarhub/pkg/internal/types"
	"github.com/yeisme/avatarhub/pkg/queue"
)

func TestCreateItem(t *testing.T) {
	e := newEnv(t)

	it := e.create(t, "alice", " CODE-1 ", func(in *types.CreateItemInput) {
		in.Name = "  Mark Evans "
		in.Description = "keeper"
		in.Tags = []string{" fire", "keeper", "fire", ""}
		in.Style = "anime"
		in.OwnerID = "mallory"
		in.Image = pngBytes(t, 1600, 800)
	})

	require.True(t, strings.HasPrefix(it.ID, "av_"))
	require.Equal(t, "CODE-1", it.Code)
	require.Equal(t, "Mark Evans", it.Name)
	require.Equal(t, []string{"fire", "keeper"}, it.Tags)
	require.Equal(t, "alice", it.OwnerID, "caller identity wins over ownerId field")
	require.Zero(t, it.VoteCount)
	require.Equal(t, 1000, it.ImageWidth)
	require.Equal(t, 500, it.ImageHeight)
	require.Equal(t, "jpg", it.ImageFormat)
	require.True(t, e.store.Has(it.ImageStorageID))
	require.Contains(t, it.ImageURL, it.ImageStorageID)
	require.Equal(t, []string{queue.TopicItemCreated}, e.pub.Topics())

	got, err := e.svc.Items.Get(asUser("bob"), it.ID)
	require.NoError(t, err)
	require.Equal(t, it.Code, got.Code)
	require.Equal(t, []string{"fire", "keeper"}, got.Tags)
	require.False(t, got.Voted)

	byCode, err := e.svc.Items.GetByCode(context.Background(), "CODE-1")
	require.NoError(t, err)
	require.Equal(t, it.ID, byCode.ID)
}

func TestCreateOwnerFromFieldWhenAnonymous(t *testing.T) {
	e := newEnv(t)

	it, err := e.svc.Items.Create(context.Background(), types.CreateItemInput{
		Code: "c", Name: "n", OwnerID: "carol", Image: pngBytes(t, 4, 4),
	})
	require.NoError(t, err)
	require.Equal(t, "carol", it.OwnerID)

	_, err = e.svc.Items.Create(context.Background(), types.CreateItemInput{
		Code: "d", Name: "n", Image: pngBytes(t, 4, 4),
	})
	require.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := asUser("alice")

	cases := map[string]types.CreateItemInput{
		"missing code":  {Name: "n", Image: pngBytes(t, 4, 4)},
		"blank name":    {Code: "c", Name: "   ", Image: pngBytes(t, 4, 4)},
		"missing image": {Code: "c", Name: "n"},
		"not an image":  {Code: "c", Name: "n", Image: []byte("hello world")},
		"bad tag":       {Code: "c", Name: "n", Image: pngBytes(t, 4, 4), Tags: []string{"a/b"}},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.svc.Items.Create(ctx, in)
			require.ErrorIs(t, err, service.ErrValidation)
		})
	}

	objs, err := e.store.List(context.Background(), e.cfg.Media.Folder)
	require.NoError(t, err)
	require.Empty(t, objs, "rejected creates must not leave media behind")
}

func TestCreateDuplicateCode(t *testing.T) {
	e := newEnv(t)
	e.create(t, "alice", "dup")

	_, err := e.svc.Items.Create(asUser("bob"), types.CreateItemInput{Code: "dup", Name: "x", Image: pngBytes(t, 4, 4)})
	require.ErrorIs(t, err, service.ErrDuplicateCode)

	objs, err := e.store.List(context.Background(), e.cfg.Media.Folder)
	require.NoError(t, err)
	require.Len(t, objs, 1)
}

// 预检之后、插入之前另一请求抢先写入同一代码：唯一索引拦截，已上传图片被删除.
func TestCreateDuplicateCodeRaceCompensates(t *testing.T) {
	e := newEnv(t)

	e.store.onUpload = func() {
		e.store.onUpload = nil
		require.NoError(t, e.svc.Items.Repository().Create(context.Background(), &model.Item{
			ID: "av_racer", Code: "race", Name: "racer", OwnerID: "bob",
			ImageURL: "/media/x", ImageStorageID: "elsewhere/x.jpg",
		}))
	}

	_, err := e.svc.Items.Create(asUser("alice"), types.CreateItemInput{Code: "race", Name: "mine", Image: pngBytes(t, 4, 4)})
	require.ErrorIs(t, err, service.ErrDuplicateCode)

	objs, err := e.store.List(context.Background(), e.cfg.Media.Folder)
	require.NoError(t, err)
	require.Empty(t, objs)
}

func TestUpdatePreservesUntouchedFields(t *testing.T) {
	e := newEnv(t)
	it := e.create(t, "alice", "u1", func(in *types.CreateItemInput) {
		in.Description = "first draft"
		in.Tags = []string{"a", "b"}
		in.Style = "pixel"
	})

	name := "  Renamed "
	updated, err := e.svc.Items.Update(asUser("alice"), it.ID, types.UpdateItemRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, "first draft", updated.Description)
	require.Equal(t, []string{"a", "b"}, updated.Tags)
	require.Equal(t, "pixel", updated.Style)
	require.Equal(t, it.Code, updated.Code)
	require.Equal(t, it.ImageURL, updated.ImageURL)
	require.False(t, updated.UpdatedAt.Before(it.UpdatedAt))

	tags := []string{"c", " c ", "d"}
	updated, err = e.svc.Items.Update(asUser("alice"), it.ID, types.UpdateItemRequest{Tags: &tags})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, []string{"c", "d"}, updated.Tags)

	res, err := e.svc.Gallery.List(context.Background(), types.ListItemsQuery{Tags: "a"})
	require.NoError(t, err)
	require.Empty(t, res.Data, "tag index must follow the update")

	res, err = e.svc.Gallery.List(context.Background(), types.ListItemsQuery{Tags: "d"})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
}

func TestUpdateRules(t *testing.T) {
	e := newEnv(t)
	it := e.create(t, "alice", "u2")

	name := "hijack"
	_, err := e.svc.Items.Update(asUser("bob"), it.ID, types.UpdateItemRequest{Name: &name})
	require.ErrorIs(t, err, service.ErrForbidden)

	_, err = e.svc.Items.Update(context.Background(), it.ID, types.UpdateItemRequest{Name: &name})
	require.ErrorIs(t, err, service.ErrUnauthorized)

	blank := "  "
	_, err = e.svc.Items.Update(asUser("alice"), it.ID, types.UpdateItemRequest{Name: &blank})
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = e.svc.Items.Update(asUser("alice"), "av_missing", types.UpdateItemRequest{Name: &name})
	require.ErrorIs(t, err, service.ErrNotFound)

	updated, err := e.svc.Items.Update(asAdmin("root"), it.ID, types.UpdateItemRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "hijack", updated.Name)
}

func TestDeleteRemovesMediaFirst(t *testing.T) {
	e := newEnv(t)
	it := e.create(t, "alice", "del")

	_, err := e.svc.Votes.Toggle(context.Background(), it.ID, "bob")
	require.NoError(t, err)

	e.store.deleteErr = errBoom

	_, err = e.svc.Items.Delete(asUser("alice"), it.ID)
	require.ErrorIs(t, err, service.ErrUpstream)

	_, err = e.svc.Items.Get(context.Background(), it.ID)
	require.NoError(t, err, "record must survive a failed media delete")

	e.store.deleteErr = nil

	_, err = e.svc.Items.Delete(asUser("bob"), it.ID)
	require.ErrorIs(t, err, service.ErrForbidden)

	deleted, err := e.svc.Items.Delete(asUser("alice"), it.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	require.False(t, e.store.Has(it.ImageStorageID))

	_, err = e.svc.Items.Get(context.Background(), it.ID)
	require.ErrorIs(t, err, service.ErrNotFound)

	var votes int64
	require.NoError(t, e.db.GetDB(context.Background()).Model(&model.ItemVote{}).Where("item_id = ?", it.ID).Count(&votes).Error)
	require.Zero(t, votes)

	_, err = e.svc.Items.Delete(asUser("alice"), it.ID)
	require.ErrorIs(t, err, service.ErrNotFound)

	require.Contains(t, e.pub.Topics(), queue.TopicItemDeleted)
}

func TestRepositoryDeleteReportsExistence(t *testing.T) {
	e := newEnv(t)
	it := e.create(t, "alice", "r1")

	repo := e.svc.Items.Repository()

	existed, err := repo.Delete(context.Background(), it.ID)
	require.NoError(t, err)
	require.True(t, existed)
	require.True(t, e.store.Has(it.ImageStorageID), "repository delete does not touch media")

	existed, err = repo.Delete(context.Background(), it.ID)
	require.NoError(t, err)
	require.False(t, existed)
}

func TestListByOwner(t *testing.T) {
	e := newEnv(t)
	first := e.create(t, "alice", "o1")
	e.create(t, "bob", "o2")
	second := e.create(t, "alice", "o3")

	items, err := e.svc.Items.ListByOwner(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, second.ID, items[0].ID)
	require.Equal(t, first.ID, items[1].ID)

	items, err = e.svc.Items.ListByOwner(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestNormalizeTags(t *testing.T) {
	got, err := service.NormalizeTags(service.SplitTags(" a, b ,a,,c "))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, got)

	got, err = service.NormalizeTags(nil)
	require.NoError(t, err)
	require.Empty(t, got)

	many := make([]string, 21)
	for i := range many {
		many[i] = user(i)
	}

	_, err = service.NormalizeTags(many)
	require.ErrorIs(t, err, service.ErrValidation)
}
