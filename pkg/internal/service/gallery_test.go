package service_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/avatarhub/pkg/internal/types"
)

func TestGalleryPagination(t *testing.T) {
	e := newEnv(t)

	for i := range 30 {
		e.create(t, "alice", fmt.Sprintf("p%02d", i))
	}

	ctx := context.Background()
	seen := map[string]bool{}

	for page, want := range map[int]int{1: 12, 2: 12, 3: 6, 4: 0} {
		res, err := e.svc.Gallery.List(ctx, types.ListItemsQuery{Page: page, Limit: 12})
		require.NoError(t, err)
		require.Len(t, res.Data, want, "page %d", page)
		require.EqualValues(t, 30, res.Pagination.Total)
		require.Equal(t, 3, res.Pagination.TotalPages)
		require.Equal(t, page, res.Pagination.Page)
		require.Equal(t, 12, res.Pagination.Limit)

		for _, it := range res.Data {
			require.False(t, seen[it.ID], "item %s on two pages", it.ID)
			seen[it.ID] = true
		}
	}

	require.Len(t, seen, 30)
}

func TestGalleryDefaultsAndClamp(t *testing.T) {
	e := newEnv(t)

	f := e.svc.Gallery.Normalize(types.ListItemsQuery{SortBy: "oldest", Page: -3, Limit: 5000, Tags: "b, a,,b"})
	require.Equal(t, types.SortRecent, f.SortBy)
	require.Equal(t, 1, f.Page)
	require.Equal(t, 100, f.Limit)
	require.Equal(t, []string{"a", "b"}, f.Tags)

	f = e.svc.Gallery.Normalize(types.ListItemsQuery{})
	require.Equal(t, 12, f.Limit)

	res, err := e.svc.Gallery.List(context.Background(), types.ListItemsQuery{})
	require.NoError(t, err)
	require.Empty(t, res.Data)
	require.NotNil(t, res.Data)
	require.Zero(t, res.Pagination.TotalPages)
}

func TestGalleryPageBeyondRangeIsEmpty(t *testing.T) {
	e := newEnv(t)

	for i := range 3 {
		e.create(t, "alice", fmt.Sprintf("far%d", i))
	}

	for _, page := range []int{2, math.MaxInt64, math.MaxInt64/12 + 2} {
		res, err := e.svc.Gallery.List(context.Background(), types.ListItemsQuery{Page: page, Limit: 12})
		require.NoError(t, err)
		require.Empty(t, res.Data, "page %d", page)
		require.EqualValues(t, 3, res.Pagination.Total)
		require.Equal(t, 1, res.Pagination.TotalPages)
		require.Equal(t, page, res.Pagination.Page)
	}
}

func TestGallerySortPopular(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := e.create(t, "alice", "a")
	b := e.create(t, "alice", "b")
	c := e.create(t, "alice", "c")
	d := e.create(t, "alice", "d")

	for _, v := range []struct {
		id    string
		users []string
	}{
		{a.ID, []string{"u1"}},
		{b.ID, []string{"u1", "u2"}},
		{c.ID, []string{"u2"}},
	} {
		for _, u := range v.users {
			_, err := e.svc.Votes.Toggle(ctx, v.id, u)
			require.NoError(t, err)
		}
	}

	res, err := e.svc.Gallery.List(ctx, types.ListItemsQuery{SortBy: "popular"})
	require.NoError(t, err)

	ids := make([]string, 0, len(res.Data))
	for _, it := range res.Data {
		ids = append(ids, it.ID)
	}

	// 票数相同按创建时间倒序
	require.Equal(t, []string{b.ID, c.ID, a.ID, d.ID}, ids)

	res, err = e.svc.Gallery.List(ctx, types.ListItemsQuery{SortBy: "recent"})
	require.NoError(t, err)
	require.Equal(t, d.ID, res.Data[0].ID)
	require.Equal(t, a.ID, res.Data[3].ID)
}

func TestGallerySortName(t *testing.T) {
	e := newEnv(t)

	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		e.create(t, "alice", name, func(in *types.CreateItemInput) { in.Name = name })
	}

	res, err := e.svc.Gallery.List(context.Background(), types.ListItemsQuery{SortBy: "name"})
	require.NoError(t, err)
	require.Equal(t, "Alpha", res.Data[0].Name)
	require.Equal(t, "Mid", res.Data[1].Name)
	require.Equal(t, "Zeta", res.Data[2].Name)
}

func TestGallerySearchAndFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.create(t, "alice", "FIRE-01", func(in *types.CreateItemInput) {
		in.Name = "Axel Blaze"
		in.Style = "anime"
		in.Role = "forward"
		in.Tags = []string{"fire", "striker"}
	})
	e.create(t, "alice", "ice-02", func(in *types.CreateItemInput) {
		in.Name = "Shawn Frost"
		in.Description = "100% cold"
		in.Style = "pixel"
		in.Role = "forward"
		in.Tags = []string{"ice"}
	})
	e.create(t, "alice", "gk_03", func(in *types.CreateItemInput) {
		in.Name = "Mark Evans"
		in.Style = "anime"
		in.Role = "keeper"
		in.Tags = []string{"keeper"}
	})

	count := func(q types.ListItemsQuery) int64 {
		t.Helper()

		res, err := e.svc.Gallery.List(ctx, q)
		require.NoError(t, err)

		return res.Pagination.Total
	}

	require.EqualValues(t, 1, count(types.ListItemsQuery{Search: "blaze"}))
	require.EqualValues(t, 1, count(types.ListItemsQuery{Search: "fire-0"}), "code is searched")
	require.EqualValues(t, 1, count(types.ListItemsQuery{Search: "COLD"}), "description is searched")
	require.EqualValues(t, 1, count(types.ListItemsQuery{Search: "100%"}), "percent is literal")
	require.EqualValues(t, 0, count(types.ListItemsQuery{Search: "1_0"}), "underscore is literal")
	require.EqualValues(t, 1, count(types.ListItemsQuery{Search: "k_0"}))
	require.EqualValues(t, 2, count(types.ListItemsQuery{Style: "anime"}))
	require.EqualValues(t, 2, count(types.ListItemsQuery{Role: "forward"}))
	require.EqualValues(t, 1, count(types.ListItemsQuery{Style: "anime", Role: "forward"}))
	require.EqualValues(t, 2, count(types.ListItemsQuery{Tags: "ice,keeper"}))
	require.EqualValues(t, 1, count(types.ListItemsQuery{Tags: "fire,striker"}), "matching two tags counts once")
	require.EqualValues(t, 0, count(types.ListItemsQuery{Tags: "water"}))
	require.EqualValues(t, 1, count(types.ListItemsQuery{Tags: "ice", Search: "frost"}))
	require.EqualValues(t, 0, count(types.ListItemsQuery{Search: "blaze\nfire"}), "fields are not joined")
}

func TestGallerySearchFoldsUnicode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	it := e.create(t, "alice", "ÉCL-01", func(in *types.CreateItemInput) {
		in.Name = "ÉCLAIR Mamoru"
		in.Description = "Gardien ÉTOILÉ"
	})

	count := func(search string) int64 {
		t.Helper()

		res, err := e.svc.Gallery.List(ctx, types.ListItemsQuery{Search: search})
		require.NoError(t, err)

		return res.Pagination.Total
	}

	for _, q := range []string{"ÉCLAIR", "éclair", "Éclair", "mamoru", "étoilé", "écl-0"} {
		require.EqualValues(t, 1, count(q), "search %q", q)
	}

	name := "Übergröße Kidō"
	_, err := e.svc.Items.Update(asUser("alice"), it.ID, types.UpdateItemRequest{Name: &name})
	require.NoError(t, err)

	require.EqualValues(t, 0, count("éclair"), "old name no longer matches")
	require.EqualValues(t, 1, count("ÜBERGRÖ"))
	require.EqualValues(t, 1, count("KIDŌ"))
	require.EqualValues(t, 1, count("étoilé"), "description kept")
}

func TestGalleryCacheFollowsMutations(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	it := e.create(t, "alice", "cache")

	q := types.ListItemsQuery{SortBy: "popular"}

	res, err := e.svc.Gallery.List(ctx, q)
	require.NoError(t, err)
	require.Zero(t, res.Data[0].VoteCount)

	_, err = e.svc.Votes.Toggle(ctx, it.ID, "bob")
	require.NoError(t, err)

	res, err = e.svc.Gallery.List(ctx, q)
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Data[0].VoteCount)

	e.create(t, "alice", "cache-2")

	res, err = e.svc.Gallery.List(ctx, q)
	require.NoError(t, err)
	require.EqualValues(t, 2, res.Pagination.Total)
}

func TestGalleryStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := e.create(t, "alice", "s1", func(in *types.CreateItemInput) { in.Style = "anime" })
	b := e.create(t, "alice", "s2", func(in *types.CreateItemInput) { in.Style = "anime" })
	e.create(t, "alice", "s3", func(in *types.CreateItemInput) { in.Style = "pixel" })
	e.create(t, "alice", "s4")

	for _, v := range [][2]string{{a.ID, "u1"}, {a.ID, "u2"}, {b.ID, "u1"}} {
		_, err := e.svc.Votes.Toggle(ctx, v[0], v[1])
		require.NoError(t, err)
	}

	st, err := e.svc.Gallery.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 4, st.Items)
	require.EqualValues(t, 3, st.Votes)
	require.EqualValues(t, 2, st.Voters)
	require.Len(t, st.ByStyle, 2)
	require.Equal(t, "anime", st.ByStyle[0].Style)
	require.EqualValues(t, 2, st.ByStyle[0].Count)
}
