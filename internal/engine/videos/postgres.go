package videos

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/anatolykoptev/go_travel/internal/engine"
	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// PostgresStore holds the pgx connection pool for video storage.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres creates a pgx pool, waits for the server and runs schema migrations.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	// The database container often comes up after us; give it a short grace period.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, pool.Ping(ctx)
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(5), backoff.WithMaxElapsedTime(30*time.Second))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := &PostgresStore{pool: pool}
	if err := db.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("videos postgres connected", slog.String("addr", config.ConnConfig.Host))
	return db, nil
}

// Close closes the pool.
func (db *PostgresStore) Close() error {
	db.pool.Close()
	return nil
}

func (db *PostgresStore) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := db.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
		slog.Debug("migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

// SaveVideo upserts the channel and the video in one transaction, then attaches tag.
// Concurrent sweeps saving the same external id serialize on the unique index.
func (db *PostgresStore) SaveVideo(ctx context.Context, rec engine.RawVideoRecord, tag Tag) (bool, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if rec.ChannelExternalID != "" {
		_, err = tx.Exec(ctx, `INSERT INTO channels (external_id, name)
			VALUES ($1, $2)
			ON CONFLICT (external_id) DO UPDATE SET name = EXCLUDED.name, updated_at = now()`,
			rec.ChannelExternalID, rec.ChannelName)
		if err != nil {
			return false, fmt.Errorf("upsert channel: %w", err)
		}
	}

	var published *time.Time
	if !rec.PublishedAt.IsZero() {
		t := rec.PublishedAt.UTC()
		published = &t
	}

	var (
		id       int64
		inserted bool
	)
	err = tx.QueryRow(ctx, `INSERT INTO videos
			(external_id, title, description, url, thumbnail_url, channel_external_id, channel_name, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (external_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			url = EXCLUDED.url,
			thumbnail_url = EXCLUDED.thumbnail_url,
			channel_external_id = EXCLUDED.channel_external_id,
			channel_name = EXCLUDED.channel_name,
			published_at = COALESCE(EXCLUDED.published_at, videos.published_at),
			updated_at = now()
		RETURNING id, (xmax = 0)`,
		rec.ExternalID, rec.Title, rec.Description, rec.URL, rec.ThumbnailURL,
		rec.ChannelExternalID, rec.ChannelName, published).Scan(&id, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert video: %w", err)
	}

	if tag.Category != "" {
		_, err = tx.Exec(ctx, `INSERT INTO video_categories (video_id, category) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			id, tag.Category)
	} else {
		_, err = tx.Exec(ctx, `INSERT INTO video_places (video_id, region, city) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			id, tag.Region, tag.City)
	}
	if err != nil {
		return false, fmt.Errorf("tag video: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// ListVideos returns videos matching f, most recently updated first.
func (db *PostgresStore) ListVideos(ctx context.Context, f VideoFilter) ([]Video, error) {
	rows, err := db.pool.Query(ctx, `SELECT v.id, v.external_id, v.title, v.description, v.url, v.thumbnail_url,
			v.channel_external_id, v.channel_name, v.published_at, v.created_at, v.updated_at,
			COALESCE((SELECT array_agg(c.category ORDER BY c.category)
				FROM video_categories c WHERE c.video_id = v.id), '{}') AS categories,
			COALESCE((SELECT array_agg(p.region || '/' || p.city ORDER BY p.region, p.city)
				FROM video_places p WHERE p.video_id = v.id), '{}') AS places
		FROM videos v
		WHERE ($1 = '' OR EXISTS (SELECT 1 FROM video_categories c WHERE c.video_id = v.id AND c.category = $1))
		  AND (($2 = '' AND $3 = '') OR EXISTS (SELECT 1 FROM video_places p WHERE p.video_id = v.id
				AND ($2 = '' OR p.region = $2) AND ($3 = '' OR p.city = $3)))
		ORDER BY v.updated_at DESC, v.id DESC
		LIMIT $4`,
		f.Category, f.Region, f.City, f.limit())
	if err != nil {
		return nil, fmt.Errorf("videos: list: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Video, error) {
		var (
			v         Video
			published *time.Time
			places    []string
		)
		err := row.Scan(&v.ID, &v.ExternalID, &v.Title, &v.Description, &v.URL, &v.ThumbnailURL,
			&v.ChannelExternalID, &v.ChannelName, &published, &v.CreatedAt, &v.UpdatedAt,
			&v.Categories, &places)
		if published != nil {
			v.PublishedAt = published.UTC()
		}
		for _, p := range places {
			v.Places = append(v.Places, parsePlace(p))
		}
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("videos: scan: %w", err)
	}
	return out, nil
}

// CountVideos returns the number of stored videos.
func (db *PostgresStore) CountVideos(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM videos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("videos: count: %w", err)
	}
	return n, nil
}
