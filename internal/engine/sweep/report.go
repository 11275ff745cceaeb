package sweep

import (
	"time"

	"github.com/anatolykoptev/go_travel/internal/engine"
)

// Sweep names.
const (
	CategorySweep   = "category"
	RegionCitySweep = "region_city"
)

// ItemResult is the outcome of one keyword or city job.
type ItemResult struct {
	Keyword string `json:"keyword,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
	Query   string `json:"query"`
	Fetched int    `json:"fetched"`
	engine.BatchResult
	Err error `json:"-"`
	// ErrKind and Error mirror Err for JSON output.
	ErrKind string `json:"error_kind,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r *ItemResult) setErr(err error) {
	r.Err = err
	if err != nil {
		r.ErrKind = engine.ErrorKind(err)
		r.Error = err.Error()
	}
}

// OK reports whether the job finished without a fetch or save error.
func (r ItemResult) OK() bool { return r.Err == nil }

// Report folds the item results of one sweep.
type Report struct {
	Sweep      string       `json:"sweep"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Cancelled  bool         `json:"cancelled,omitempty"`
	Items      []ItemResult `json:"items"`
}

// Failed counts items that ended with an error.
func (r Report) Failed() int {
	n := 0
	for _, it := range r.Items {
		if !it.OK() {
			n++
		}
	}
	return n
}

// Totals sums the batch results of all items.
func (r Report) Totals() engine.BatchResult {
	var t engine.BatchResult
	for _, it := range r.Items {
		t.Add(it.BatchResult)
	}
	return t
}

// Fetched sums records returned by the source.
func (r Report) Fetched() int {
	n := 0
	for _, it := range r.Items {
		n += it.Fetched
	}
	return n
}

// Duration is the wall time of the sweep.
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
