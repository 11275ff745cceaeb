package videos

import (
	"context"
	"errors"
	"testing"

	"github.com/anatolykoptev/go_travel/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails SaveVideo for the listed external ids and delegates the rest.
type flakyStore struct {
	Store
	fail map[string]bool
	seen []string
}

func (f *flakyStore) SaveVideo(ctx context.Context, rec engine.RawVideoRecord, tag Tag) (bool, error) {
	f.seen = append(f.seen, rec.ExternalID)
	if f.fail[rec.ExternalID] {
		return false, errors.New("disk full")
	}
	return f.Store.SaveVideo(ctx, rec, tag)
}

func TestService_SaveFromAPI(t *testing.T) {
	svc := NewService(openTestStore(t))
	ctx := context.Background()

	res, err := svc.SaveFromAPI(ctx, []engine.RawVideoRecord{record("a1"), record("a2"), record("a3")}, "캠핑")
	require.NoError(t, err)
	assert.Equal(t, engine.BatchResult{Received: 3, Created: 3}, res)

	res, err = svc.SaveFromAPI(ctx, []engine.RawVideoRecord{record("a1"), record("a4")}, "캠핑")
	require.NoError(t, err)
	assert.Equal(t, engine.BatchResult{Received: 2, Created: 1, Updated: 1}, res)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestService_SaveByRegionAndCity(t *testing.T) {
	svc := NewService(openTestStore(t))
	ctx := context.Background()

	res, err := svc.SaveByRegionAndCity(ctx, []engine.RawVideoRecord{record("j1")}, "제주도", "서귀포")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	list, err := svc.List(ctx, VideoFilter{Region: "제주도", City: "서귀포"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []Place{{Region: "제주도", City: "서귀포"}}, list[0].Places)
}

func TestService_RecordFailureDoesNotAbortBatch(t *testing.T) {
	store := &flakyStore{Store: openTestStore(t), fail: map[string]bool{"bad": true}}
	svc := NewService(store)

	records := []engine.RawVideoRecord{record("ok1"), record("bad"), {Title: "no id"}, record("ok2")}
	res, err := svc.SaveFromAPI(context.Background(), records, "힐링")

	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrPersistence))
	assert.Equal(t, engine.BatchResult{Received: 4, Created: 2, Failed: 2}, res)
	assert.Equal(t, []string{"ok1", "bad", "ok2"}, store.seen, "records without an id never reach the store")
}

func TestService_EmptyBatch(t *testing.T) {
	svc := NewService(openTestStore(t))
	res, err := svc.SaveFromAPI(context.Background(), nil, "산")
	require.NoError(t, err)
	assert.Equal(t, engine.BatchResult{}, res)
}

func TestService_RejectsMissingTag(t *testing.T) {
	svc := NewService(openTestStore(t))
	ctx := context.Background()

	_, err := svc.SaveFromAPI(ctx, []engine.RawVideoRecord{record("x")}, "")
	assert.Error(t, err)
	_, err = svc.SaveByRegionAndCity(ctx, []engine.RawVideoRecord{record("x")}, "제주도", "")
	assert.Error(t, err)
}

func TestTagString(t *testing.T) {
	assert.Equal(t, "캠핑", Tag{Category: "캠핑"}.String())
	tag := Tag{Region: "제주도", City: "애월"}
	assert.Equal(t, "제주도/애월", tag.String())
	assert.Equal(t, Place{Region: "제주도", City: "애월"}, parsePlace(tag.String()))
}
