package engine

import (
	"context"
	"errors"
)

// Error kinds shared by the source, the ingestion service and the scheduler.
// Callers wrap them with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrTransport     = errors.New("transport error")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrPersistence   = errors.New("persistence error")
)

// ErrorKind returns a short label for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrTransport), errors.Is(err, context.DeadlineExceeded):
		return "transport"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "unknown"
}
