package videos

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/anatolykoptev/go_travel/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "videos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(id string) engine.RawVideoRecord {
	return engine.RawVideoRecord{
		ExternalID:        id,
		Title:             "title " + id,
		Description:       "description " + id,
		URL:               "https://www.youtube.com/watch?v=" + id,
		ThumbnailURL:      "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg",
		ChannelExternalID: "UC" + id,
		ChannelName:       "channel " + id,
		PublishedAt:       time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteStore_SaveVideoIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.SaveVideo(ctx, record("abc123"), Tag{Category: "캠핑"})
	require.NoError(t, err)
	assert.True(t, created)

	rec := record("abc123")
	rec.Title = "updated title"
	created, err = s.SaveVideo(ctx, rec, Tag{Category: "캠핑"})
	require.NoError(t, err)
	assert.False(t, created)

	n, err := s.CountVideos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := s.ListVideos(ctx, VideoFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "updated title", list[0].Title)
	assert.Equal(t, []string{"캠핑"}, list[0].Categories)
	assert.Equal(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), list[0].PublishedAt)
}

func TestSQLiteStore_TagsAccumulate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.SaveVideo(ctx, record("abc123"), Tag{Category: "캠핑"})
	require.NoError(t, err)
	_, err = s.SaveVideo(ctx, record("abc123"), Tag{Category: "힐링"})
	require.NoError(t, err)
	_, err = s.SaveVideo(ctx, record("abc123"), Tag{Region: "제주도", City: "애월"})
	require.NoError(t, err)
	_, err = s.SaveVideo(ctx, record("abc123"), Tag{Region: "제주도", City: "애월"})
	require.NoError(t, err)

	list, err := s.ListVideos(ctx, VideoFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"캠핑", "힐링"}, list[0].Categories)
	assert.Equal(t, []Place{{Region: "제주도", City: "애월"}}, list[0].Places)
}

func TestSQLiteStore_ListFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mustSave := func(id string, tag Tag) {
		t.Helper()
		_, err := s.SaveVideo(ctx, record(id), tag)
		require.NoError(t, err)
	}
	mustSave("camp1", Tag{Category: "캠핑"})
	mustSave("camp2", Tag{Category: "캠핑"})
	mustSave("heal1", Tag{Category: "힐링"})
	mustSave("jeju1", Tag{Region: "제주도", City: "애월"})
	mustSave("jeju2", Tag{Region: "제주도", City: "성산"})
	mustSave("busan", Tag{Region: "부산", City: "해운대"})

	ids := func(vs []Video) []string {
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			out = append(out, v.ExternalID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter VideoFilter
		want   []string
	}{
		{"category", VideoFilter{Category: "캠핑"}, []string{"camp1", "camp2"}},
		{"region", VideoFilter{Region: "제주도"}, []string{"jeju1", "jeju2"}},
		{"region and city", VideoFilter{Region: "제주도", City: "성산"}, []string{"jeju2"}},
		{"city only", VideoFilter{City: "해운대"}, []string{"busan"}},
		{"no match", VideoFilter{Category: "산"}, nil},
		{"limit", VideoFilter{Limit: 2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListVideos(ctx, tt.filter)
			require.NoError(t, err)
			if tt.name == "limit" {
				assert.Len(t, got, 2)
				return
			}
			assert.ElementsMatch(t, tt.want, ids(got))
		})
	}
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos.db")
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = s.SaveVideo(ctx, record("abc123"), Tag{Category: "산"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.CountVideos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFormatSQLiteTime_FixedWidth(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	tests := []time.Duration{0, 100 * time.Millisecond, 120 * time.Millisecond, time.Nanosecond}
	for _, d := range tests {
		assert.Len(t, formatSQLiteTime(base.Add(d)), len("2024-05-01T09:00:00.000000000Z"))
	}
	assert.Less(t, formatSQLiteTime(base.Add(100*time.Millisecond)), formatSQLiteTime(base.Add(120*time.Millisecond)))
}

func TestSQLiteStore_ListOrderWithinOneSecond(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base.Add(100 * time.Millisecond) }
	_, err := s.SaveVideo(ctx, record("older"), Tag{Category: "캠핑"})
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(120 * time.Millisecond) }
	_, err = s.SaveVideo(ctx, record("newer"), Tag{Category: "캠핑"})
	require.NoError(t, err)

	list, err := s.ListVideos(ctx, VideoFilter{Category: "캠핑"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].ExternalID)
	assert.Equal(t, "older", list[1].ExternalID)
	assert.True(t, list[0].UpdatedAt.Equal(base.Add(120*time.Millisecond)), "got %v", list[0].UpdatedAt)
}
