package videos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anatolykoptev/go_travel/internal/engine"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS channels (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS videos (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id         TEXT NOT NULL UNIQUE,
	title               TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	url                 TEXT NOT NULL DEFAULT '',
	thumbnail_url       TEXT NOT NULL DEFAULT '',
	channel_external_id TEXT NOT NULL DEFAULT '',
	channel_name        TEXT NOT NULL DEFAULT '',
	published_at        TEXT,
	created_at          TEXT NOT NULL,
	updated_at          TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS video_categories (
	video_id INTEGER NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
	category TEXT NOT NULL,
	PRIMARY KEY (video_id, category)
);
CREATE TABLE IF NOT EXISTS video_places (
	video_id INTEGER NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
	region   TEXT NOT NULL,
	city     TEXT NOT NULL,
	PRIMARY KEY (video_id, region, city)
);
CREATE INDEX IF NOT EXISTS idx_video_categories_category ON video_categories(category);
CREATE INDEX IF NOT EXISTS idx_video_places_region_city ON video_places(region, city);
`

// SQLiteStore keeps videos in a local SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// sqliteTimeLayout is fixed width so text order matches time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// DefaultSQLitePath returns ~/.go_travel/videos.db.
func DefaultSQLitePath() string {
	return filepath.Join(os.Getenv("HOME"), ".go_travel", "videos.db")
}

// OpenSQLite opens (or creates) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultSQLitePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("videos: mkdir %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("videos: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("videos: enable foreign keys: %w", err)
	}
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("videos: init schema: %w", err)
		}
	}
	return &SQLiteStore{db: db, path: path, now: time.Now}, nil
}

// Path is the database file location.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveVideo upserts the channel and the video, then attaches tag.
func (s *SQLiteStore) SaveVideo(ctx context.Context, rec engine.RawVideoRecord, tag Tag) (bool, error) {
	now := formatSQLiteTime(s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if rec.ChannelExternalID != "" {
		_, err = tx.ExecContext(ctx, `INSERT INTO channels (external_id, name, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(external_id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
			rec.ChannelExternalID, rec.ChannelName, now, now)
		if err != nil {
			return false, fmt.Errorf("upsert channel: %w", err)
		}
	}

	var published any
	if !rec.PublishedAt.IsZero() {
		published = rec.PublishedAt.UTC().Format(time.RFC3339)
	}

	var id int64
	created := false
	err = tx.QueryRowContext(ctx, `SELECT id FROM videos WHERE external_id = ?`, rec.ExternalID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx, `INSERT INTO videos
			(external_id, title, description, url, thumbnail_url, channel_external_id, channel_name, published_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ExternalID, rec.Title, rec.Description, rec.URL, rec.ThumbnailURL,
			rec.ChannelExternalID, rec.ChannelName, published, now, now)
		if err != nil {
			return false, fmt.Errorf("insert video: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return false, fmt.Errorf("insert video id: %w", err)
		}
		created = true
	case err != nil:
		return false, fmt.Errorf("lookup video: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `UPDATE videos SET
			title = ?, description = ?, url = ?, thumbnail_url = ?,
			channel_external_id = ?, channel_name = ?,
			published_at = COALESCE(?, published_at), updated_at = ?
			WHERE id = ?`,
			rec.Title, rec.Description, rec.URL, rec.ThumbnailURL,
			rec.ChannelExternalID, rec.ChannelName, published, now, id)
		if err != nil {
			return false, fmt.Errorf("update video: %w", err)
		}
	}

	if tag.Category != "" {
		_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO video_categories (video_id, category) VALUES (?, ?)`, id, tag.Category)
	} else {
		_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO video_places (video_id, region, city) VALUES (?, ?, ?)`, id, tag.Region, tag.City)
	}
	if err != nil {
		return false, fmt.Errorf("tag video: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// ListVideos returns videos matching f, most recently updated first.
func (s *SQLiteStore) ListVideos(ctx context.Context, f VideoFilter) ([]Video, error) {
	place := f.Region + f.City
	rows, err := s.db.QueryContext(ctx, `SELECT v.id, v.external_id, v.title, v.description, v.url, v.thumbnail_url,
			v.channel_external_id, v.channel_name, v.published_at, v.created_at, v.updated_at
		FROM videos v
		WHERE (? = '' OR EXISTS (SELECT 1 FROM video_categories c WHERE c.video_id = v.id AND c.category = ?))
		  AND (? = '' OR EXISTS (SELECT 1 FROM video_places p WHERE p.video_id = v.id
				AND (? = '' OR p.region = ?) AND (? = '' OR p.city = ?)))
		ORDER BY v.updated_at DESC, v.id DESC
		LIMIT ?`,
		f.Category, f.Category, place, f.Region, f.Region, f.City, f.City, f.limit())
	if err != nil {
		return nil, fmt.Errorf("videos: list: %w", err)
	}
	defer rows.Close()

	var out []Video
	for rows.Next() {
		var (
			v                    Video
			published            sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&v.ID, &v.ExternalID, &v.Title, &v.Description, &v.URL, &v.ThumbnailURL,
			&v.ChannelExternalID, &v.ChannelName, &published, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("videos: scan: %w", err)
		}
		if published.Valid {
			v.PublishedAt, _ = time.Parse(time.RFC3339, published.String)
		}
		v.CreatedAt, _ = time.Parse(sqliteTimeLayout, createdAt)
		v.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updatedAt)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("videos: rows: %w", err)
	}

	for i := range out {
		if err := s.loadTags(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteStore) loadTags(ctx context.Context, v *Video) error {
	rows, err := s.db.QueryContext(ctx, `SELECT category FROM video_categories WHERE video_id = ? ORDER BY category`, v.ID)
	if err != nil {
		return fmt.Errorf("videos: categories: %w", err)
	}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			rows.Close()
			return fmt.Errorf("videos: scan category: %w", err)
		}
		v.Categories = append(v.Categories, c)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT region, city FROM video_places WHERE video_id = ? ORDER BY region, city`, v.ID)
	if err != nil {
		return fmt.Errorf("videos: places: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p Place
		if err := rows.Scan(&p.Region, &p.City); err != nil {
			return fmt.Errorf("videos: scan place: %w", err)
		}
		v.Places = append(v.Places, p)
	}
	return rows.Err()
}

// CountVideos returns the number of stored videos.
func (s *SQLiteStore) CountVideos(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("videos: count: %w", err)
	}
	return n, nil
}
