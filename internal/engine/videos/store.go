package videos

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anatolykoptev/go_travel/internal/engine"
)

// Tag classifies a saved video: either a category keyword or a region/city pair.
type Tag struct {
	Category string
	Region   string
	City     string
}

func (t Tag) validate() error {
	switch {
	case t.Category != "" && t.Region == "" && t.City == "":
		return nil
	case t.Category == "" && t.Region != "" && t.City != "":
		return nil
	}
	return errors.New("tag needs a category or a region and city")
}

func (t Tag) String() string {
	if t.Category != "" {
		return t.Category
	}
	return Place{Region: t.Region, City: t.City}.String()
}

// Place is a region/city tag attached to a video.
type Place struct {
	Region string `json:"region"`
	City   string `json:"city"`
}

func (p Place) String() string { return p.Region + "/" + p.City }

func parsePlace(s string) Place {
	region, city, _ := strings.Cut(s, "/")
	return Place{Region: region, City: city}
}

// Video is a persisted video, unique by ExternalID. Tags accumulate across saves.
type Video struct {
	ID                int64     `json:"id"`
	ExternalID        string    `json:"external_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	URL               string    `json:"url"`
	ThumbnailURL      string    `json:"thumbnail_url,omitempty"`
	ChannelExternalID string    `json:"channel_external_id,omitempty"`
	ChannelName       string    `json:"channel_name,omitempty"`
	PublishedAt       time.Time `json:"published_at,omitzero"`
	Categories        []string  `json:"categories,omitempty"`
	Places            []Place   `json:"places,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// VideoFilter narrows ListVideos. Empty fields match everything.
type VideoFilter struct {
	Category string
	Region   string
	City     string
	Limit    int
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (f VideoFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultListLimit
	case f.Limit > maxListLimit:
		return maxListLimit
	}
	return f.Limit
}

// Store persists videos. SaveVideo must be idempotent per rec.ExternalID:
// a repeated save updates the row and adds the tag if it is new.
type Store interface {
	SaveVideo(ctx context.Context, rec engine.RawVideoRecord, tag Tag) (created bool, err error)
	ListVideos(ctx context.Context, f VideoFilter) ([]Video, error)
	CountVideos(ctx context.Context) (int, error)
	Close() error
}
