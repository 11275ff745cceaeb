package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"quota", fmt.Errorf("%w: daily limit", ErrQuotaExceeded), "quota"},
		{"transport", fmt.Errorf("search: %w", ErrTransport), "transport"},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), "transport"},
		{"persistence", fmt.Errorf("%w: insert video", ErrPersistence), "persistence"},
		{"joined persistence", errors.Join(errors.New("x"), fmt.Errorf("%w: y", ErrPersistence)), "persistence"},
		{"cancelled", context.Canceled, "cancelled"},
		{"other", errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorKind(tt.err); got != tt.want {
				t.Errorf("ErrorKind() = %q, want %q", got, tt.want)
			}
		})
	}
}
