package relview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLike struct {
	TargetID uint
	LikedBy  uint
}

type testSub struct {
	Subscriber uint
	Channel    uint
}

type testOwner struct {
	ID               uint
	Subs             []testSub
	SubscribersCount int64
}

type testVideo struct {
	ID         uint
	OwnerID    uint
	Views      int64
	Published  bool
	CreatedAt  time.Time
	Owner      *testOwner
	Likes      []testLike
	LikesCount int64
	IsLiked    bool
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func videoRanking() Ranking[*testVideo] {
	return Ranking[*testVideo]{
		CreatedAt: func(v *testVideo) time.Time { return v.CreatedAt },
		ID:        func(v *testVideo) uint { return v.ID },
		Fields: map[string]SortField[*testVideo]{
			"views":      Field(func(v *testVideo) int64 { return v.Views }),
			"likesCount": JoinedField(func(v *testVideo) int { return len(v.Likes) }),
		},
	}
}

type likeStore struct {
	likes []testLike
	calls int
	keys  [][]uint
}

func (s *likeStore) load(_ context.Context, keys []uint) ([]testLike, error) {
	s.calls++
	s.keys = append(s.keys, keys)
	set := make(map[uint]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	var out []testLike
	for _, l := range s.likes {
		if set[l.TargetID] {
			out = append(out, l)
		}
	}
	return out, nil
}

func likesJoin(store *likeStore) Join[*testVideo, testLike] {
	return Join[*testVideo, testLike]{
		Name:   "likes",
		Keys:   Key(func(v *testVideo) uint { return v.ID }),
		Match:  func(l testLike) uint { return l.TargetID },
		Load:   store.load,
		Assign: func(v *testVideo, ls []testLike) { v.Likes = ls },
	}
}

func videoPipeline(store *likeStore) Pipeline[*testVideo] {
	return Pipeline[*testVideo]{
		Name:    "test_videos",
		Joins:   []Resolver[*testVideo]{likesJoin(store)},
		Ranking: videoRanking(),
		Annotate: func(v *testVideo, viewer Viewer) {
			v.LikesCount = Count(v.Likes)
			v.IsLiked = Contains(viewer, v.Likes, func(l testLike) uint { return l.LikedBy })
		},
	}
}

func makeVideos(n int) []*testVideo {
	out := make([]*testVideo, n)
	for i := range out {
		out[i] = &testVideo{ID: uint(i + 1), CreatedAt: epoch.Add(time.Duration(i) * time.Minute), Published: true}
	}
	return out
}

func TestJoin_OuterJoinKeepsUnmatchedRecords(t *testing.T) {
	t.Parallel()
	store := &likeStore{likes: []testLike{{TargetID: 1, LikedBy: 7}}}
	videos := makeVideos(3)

	require.NoError(t, Resolve(context.Background(), videos, Resolver[*testVideo](likesJoin(store))))

	assert.Len(t, videos[0].Likes, 1)
	assert.NotNil(t, videos[1].Likes)
	assert.Empty(t, videos[1].Likes)
	assert.Empty(t, videos[2].Likes)
}

func TestJoin_LoadsEachCollectionOnce(t *testing.T) {
	t.Parallel()
	store := &likeStore{}
	videos := makeVideos(25)

	require.NoError(t, likesJoin(store).Resolve(context.Background(), videos))

	assert.Equal(t, 1, store.calls)
	assert.Len(t, store.keys[0], 25)
}

func TestJoin_SkipsLoadWhenNoKeys(t *testing.T) {
	t.Parallel()
	store := &likeStore{}
	videos := []*testVideo{{ID: 0}}

	require.NoError(t, likesJoin(store).Resolve(context.Background(), videos))

	assert.Equal(t, 0, store.calls)
	assert.Empty(t, videos[0].Likes)
}

func TestJoin_SingleValuedTakesFirstMatch(t *testing.T) {
	t.Parallel()
	owners := []*testOwner{{ID: 5}, {ID: 5}}
	join := Join[*testVideo, *testOwner]{
		Name:  "owner",
		Keys:  Key(func(v *testVideo) uint { return v.OwnerID }),
		Match: func(o *testOwner) uint { return o.ID },
		Load: func(_ context.Context, _ []uint) ([]*testOwner, error) {
			return owners, nil
		},
		Assign: func(v *testVideo, os []*testOwner) {
			v.Owner, _ = First(os)
		},
		Single: true,
	}
	videos := []*testVideo{{ID: 1, OwnerID: 5}, {ID: 2, OwnerID: 9}}

	require.NoError(t, join.Resolve(context.Background(), videos))

	assert.Same(t, owners[0], videos[0].Owner)
	assert.Nil(t, videos[1].Owner)
}

func TestJoin_NestedJoinsResolveBeforeParent(t *testing.T) {
	t.Parallel()
	subs := []testSub{{Subscriber: 2, Channel: 1}, {Subscriber: 3, Channel: 1}}
	subsJoin := Join[*testOwner, testSub]{
		Name:  "subscribers",
		Keys:  Key(func(o *testOwner) uint { return o.ID }),
		Match: func(s testSub) uint { return s.Channel },
		Load: func(_ context.Context, _ []uint) ([]testSub, error) {
			return subs, nil
		},
		Assign: func(o *testOwner, ss []testSub) { o.Subs = ss },
	}
	ownerJoin := Join[*testVideo, *testOwner]{
		Name:  "owner",
		Keys:  Key(func(v *testVideo) uint { return v.OwnerID }),
		Match: func(o *testOwner) uint { return o.ID },
		Load: func(_ context.Context, keys []uint) ([]*testOwner, error) {
			out := make([]*testOwner, len(keys))
			for i, k := range keys {
				out[i] = &testOwner{ID: k}
			}
			return out, nil
		},
		Assign: func(v *testVideo, os []*testOwner) {
			o, _ := First(os)
			require.NotNil(t, o)
			// Nested data is already present when the parent is assigned.
			assert.Len(t, o.Subs, 2)
			v.Owner = o
		},
		Single: true,
		Nested: []Resolver[*testOwner]{subsJoin},
	}

	videos := []*testVideo{{ID: 1, OwnerID: 1}}
	require.NoError(t, ownerJoin.Resolve(context.Background(), videos))
	assert.Len(t, videos[0].Owner.Subs, 2)
}

func TestJoin_MultiKeyPreservesLocalOrder(t *testing.T) {
	t.Parallel()
	type playlist struct {
		VideoIDs []uint
		Videos   []*testVideo
	}
	join := Join[*playlist, *testVideo]{
		Name:  "videos",
		Keys:  func(p *playlist) []uint { return p.VideoIDs },
		Match: func(v *testVideo) uint { return v.ID },
		Load: func(_ context.Context, keys []uint) ([]*testVideo, error) {
			// Store returns rows in id order, not playlist order.
			return makeVideos(3), nil
		},
		Assign: func(p *playlist, vs []*testVideo) { p.Videos = vs },
	}
	pl := &playlist{VideoIDs: []uint{3, 1, 2}}

	require.NoError(t, join.Resolve(context.Background(), []*playlist{pl}))

	require.Len(t, pl.Videos, 3)
	assert.Equal(t, uint(3), pl.Videos[0].ID)
	assert.Equal(t, uint(1), pl.Videos[1].ID)
	assert.Equal(t, uint(2), pl.Videos[2].ID)
}

func TestJoin_LoaderErrorPropagates(t *testing.T) {
	t.Parallel()
	loadErr := errors.New("store down")
	join := Join[*testVideo, testLike]{
		Name:   "likes",
		Keys:   Key(func(v *testVideo) uint { return v.ID }),
		Match:  func(l testLike) uint { return l.TargetID },
		Load:   func(context.Context, []uint) ([]testLike, error) { return nil, loadErr },
		Assign: func(*testVideo, []testLike) {},
	}

	err := join.Resolve(context.Background(), makeVideos(2))
	assert.ErrorIs(t, err, loadErr)
}

func TestRanking_DefaultsToNewestFirst(t *testing.T) {
	t.Parallel()
	videos := makeVideos(4)

	videoRanking().Sort(videos, SortSpec{})

	assert.Equal(t, []uint{4, 3, 2, 1}, ids(videos))
}

func TestRanking_UnknownFieldFallsBackToDefault(t *testing.T) {
	t.Parallel()
	videos := makeVideos(3)

	videoRanking().Sort(videos, SortSpec{Field: "password", Direction: Ascending})

	assert.Equal(t, []uint{3, 2, 1}, ids(videos))
}

func TestRanking_TiesBreakByCreatedAtThenID(t *testing.T) {
	t.Parallel()
	videos := []*testVideo{
		{ID: 1, Views: 10, CreatedAt: epoch},
		{ID: 2, Views: 10, CreatedAt: epoch.Add(time.Hour)},
		{ID: 3, Views: 10, CreatedAt: epoch},
		{ID: 4, Views: 50, CreatedAt: epoch},
	}

	videoRanking().Sort(videos, SortSpec{Field: "views", Direction: Ascending})

	assert.Equal(t, []uint{2, 3, 1, 4}, ids(videos))

	// Same order on a repeated call over a shuffled copy.
	again := []*testVideo{videos[3], videos[1], videos[0], videos[2]}
	videoRanking().Sort(again, SortSpec{Field: "views", Direction: Ascending})
	assert.Equal(t, ids(videos), ids(again))
}

func TestRanking_CreatedAtAscendingIsHonoured(t *testing.T) {
	t.Parallel()
	videos := makeVideos(3)

	videoRanking().Sort(videos, SortSpec{Field: FieldCreatedAt, Direction: Ascending})

	assert.Equal(t, []uint{1, 2, 3}, ids(videos))
}

func TestParseDirection(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Ascending, ParseDirection("ASC"))
	assert.Equal(t, Ascending, ParseDirection(" ascending "))
	assert.Equal(t, Descending, ParseDirection("desc"))
	assert.Equal(t, Descending, ParseDirection(""))
	assert.Equal(t, Descending, ParseDirection("sideways"))
}

func TestPageRequest_Normalize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{"defaults", PageRequest{}, PageRequest{Page: 1, Limit: 10}},
		{"negative page", PageRequest{Page: -3, Limit: 5}, PageRequest{Page: 1, Limit: 5}},
		{"capped limit", PageRequest{Page: 2, Limit: 1000}, PageRequest{Page: 2, Limit: MaxLimit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestPaginate_SecondPageOfFifteen(t *testing.T) {
	t.Parallel()
	page := Paginate(makeVideos(15), PageRequest{Page: 2, Limit: 10})

	assert.Len(t, page.Records, 5)
	assert.Equal(t, int64(15), page.TotalRecords)
	assert.Equal(t, 2, page.TotalPages)
	assert.False(t, page.HasNextPage)
	assert.True(t, page.HasPrevPage)
}

func TestPaginate_EmptySet(t *testing.T) {
	t.Parallel()
	page := Paginate([]*testVideo(nil), PageRequest{Page: 1, Limit: 10})

	assert.NotNil(t, page.Records)
	assert.Empty(t, page.Records)
	assert.Equal(t, int64(0), page.TotalRecords)
	assert.Equal(t, 0, page.TotalPages)
	assert.False(t, page.HasNextPage)
	assert.False(t, page.HasPrevPage)
}

func TestPaginate_PastTheEnd(t *testing.T) {
	t.Parallel()
	page := Paginate(makeVideos(3), PageRequest{Page: 5, Limit: 2})

	assert.Empty(t, page.Records)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasPrevPage)
}

func TestPaginate_PagesCoverRankedSetExactlyOnce(t *testing.T) {
	t.Parallel()
	for n := 0; n <= 23; n++ {
		for limit := 1; limit <= 7; limit++ {
			videos := makeVideos(n)
			videoRanking().Sort(videos, SortSpec{})

			var seen []uint
			first := Paginate(videos, PageRequest{Page: 1, Limit: limit})
			for p := 1; p <= first.TotalPages; p++ {
				seen = append(seen, ids(Paginate(videos, PageRequest{Page: p, Limit: limit}).Records)...)
			}
			assert.Equal(t, ids(videos), nonNil(seen), "n=%d limit=%d", n, limit)
		}
	}
}

func TestContains_AnonymousIsAlwaysFalse(t *testing.T) {
	t.Parallel()
	likes := []testLike{{TargetID: 1, LikedBy: 0}, {TargetID: 1, LikedBy: 2}}
	key := func(l testLike) uint { return l.LikedBy }

	assert.False(t, Contains(Anonymous(), likes, key))
	assert.True(t, Contains(As(2), likes, key))
	assert.False(t, Contains(As(3), likes, key))
}

func TestSum(t *testing.T) {
	t.Parallel()
	videos := []*testVideo{{Views: 3}, {Views: 4}}
	assert.Equal(t, int64(7), Sum(videos, func(v *testVideo) int64 { return v.Views }))
	assert.Equal(t, int64(0), Sum([]*testVideo{}, func(v *testVideo) int64 { return v.Views }))
}

func TestPipeline_LikesScenario(t *testing.T) {
	t.Parallel()
	store := &likeStore{likes: []testLike{
		{TargetID: 1, LikedBy: 2},
		{TargetID: 1, LikedBy: 3},
		{TargetID: 1, LikedBy: 4},
	}}
	p := videoPipeline(store)

	v2, ok, err := p.One(context.Background(), &testVideo{ID: 1, OwnerID: 1}, As(2))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), v2.LikesCount)
	assert.True(t, v2.IsLiked)

	v5, _, err := p.One(context.Background(), &testVideo{ID: 1, OwnerID: 1}, As(5))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v5.LikesCount)
	assert.False(t, v5.IsLiked)

	anon, _, err := p.One(context.Background(), &testVideo{ID: 1, OwnerID: 1}, Anonymous())
	require.NoError(t, err)
	assert.False(t, anon.IsLiked)
}

func TestPipeline_FiltersBeforeWindowing(t *testing.T) {
	t.Parallel()
	store := &likeStore{}
	p := videoPipeline(store)
	p.Filters = []func(*testVideo) bool{func(v *testVideo) bool { return v.Published }}

	videos := makeVideos(12)
	for _, v := range videos[:5] {
		v.Published = false
	}

	page, err := p.Run(context.Background(), videos, Query{Page: PageRequest{Page: 1, Limit: 5}})
	require.NoError(t, err)

	assert.Equal(t, int64(7), page.TotalRecords)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, []uint{12, 11, 10, 9, 8}, ids(page.Records))
}

func TestPipeline_WindowsEarlyOnlyForBaseRanking(t *testing.T) {
	t.Parallel()
	store := &likeStore{likes: []testLike{{TargetID: 1, LikedBy: 9}, {TargetID: 1, LikedBy: 8}}}
	p := videoPipeline(store)

	page, err := p.Run(context.Background(), makeVideos(30), Query{Page: PageRequest{Page: 1, Limit: 10}})
	require.NoError(t, err)
	require.Len(t, store.keys, 1)
	assert.Len(t, store.keys[0], 10, "only the page is joined")
	assert.Equal(t, int64(30), page.TotalRecords)

	store.keys = nil
	page, err = p.Run(context.Background(), makeVideos(30), Query{
		Sort: SortSpec{Field: "likesCount"},
		Page: PageRequest{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, store.keys, 1)
	assert.Len(t, store.keys[0], 30, "joined ranking needs the full set")
	assert.Equal(t, uint(1), page.Records[0].ID)
	assert.Equal(t, int64(2), page.Records[0].LikesCount)
}

func TestPipeline_PropagatesJoinError(t *testing.T) {
	t.Parallel()
	loadErr := errors.New("boom")
	p := Pipeline[*testVideo]{
		Name: "failing",
		Joins: []Resolver[*testVideo]{Join[*testVideo, testLike]{
			Name:   "likes",
			Keys:   Key(func(v *testVideo) uint { return v.ID }),
			Match:  func(l testLike) uint { return l.TargetID },
			Load:   func(context.Context, []uint) ([]testLike, error) { return nil, loadErr },
			Assign: func(*testVideo, []testLike) {},
		}},
		Ranking: videoRanking(),
	}

	_, err := p.Run(context.Background(), makeVideos(3), Query{})
	assert.ErrorIs(t, err, loadErr)
}

func ids(videos []*testVideo) []uint {
	out := make([]uint, len(videos))
	for i, v := range videos {
		out[i] = v.ID
	}
	return out
}

func nonNil(s []uint) []uint {
	if s == nil {
		return []uint{}
	}
	return s
}
