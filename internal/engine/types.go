package engine

import "time"

// RawVideoRecord is one search hit from the external video source.
// It is consumed by the ingestion service right after the call that produced it.
type RawVideoRecord struct {
	ExternalID        string    `json:"external_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	URL               string    `json:"url"`
	ThumbnailURL      string    `json:"thumbnail_url,omitempty"`
	ChannelExternalID string    `json:"channel_external_id,omitempty"`
	ChannelName       string    `json:"channel_name,omitempty"`
	PublishedAt       time.Time `json:"published_at,omitzero"`
}

// BatchResult summarizes one hand-off to the ingestion service.
type BatchResult struct {
	Received int `json:"received"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Failed   int `json:"failed"`
}

// Add accumulates o into r.
func (r *BatchResult) Add(o BatchResult) {
	r.Received += o.Received
	r.Created += o.Created
	r.Updated += o.Updated
	r.Failed += o.Failed
}
