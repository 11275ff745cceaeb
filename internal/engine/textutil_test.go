package engine

import "testing"

func TestCleanAPIText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  제주 &amp; 애월  ", "제주 & 애월"},
		{"Let&#39;s go camping", "Let's go camping"},
		{"&quot;힐링&quot;", `"힐링"`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := CleanAPIText(tt.in); got != tt.want {
			t.Errorf("CleanAPIText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
