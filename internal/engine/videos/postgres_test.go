//go:build integration

package videos

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db, err := ConnectPostgres(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestIntegration_PostgresUpsert(t *testing.T) {
	db := connectTestPostgres(t)
	ctx := context.Background()
	id := fmt.Sprintf("it%d", time.Now().UnixNano())

	created, err := db.SaveVideo(ctx, record(id), Tag{Category: "캠핑"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = db.SaveVideo(ctx, record(id), Tag{Region: "제주도", City: "애월"})
	require.NoError(t, err)
	assert.False(t, created)

	list, err := db.ListVideos(ctx, VideoFilter{Region: "제주도", City: "애월", Limit: 100})
	require.NoError(t, err)
	var found *Video
	for i := range list {
		if list[i].ExternalID == id {
			found = &list[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, []string{"캠핑"}, found.Categories)
	assert.Equal(t, []Place{{Region: "제주도", City: "애월"}}, found.Places)
}
