package auctions

import (
	"testing"
	"time"
)

func TestFolderSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"Toyota Aqua", "toyota_aqua"},
		{"Toyota Aqua #42!", "toyota_aqua_42"},
		{"Auction_2025-06-01_020000", "auction_2025_06_01_020000"},
		{"  spaced   out  ", "spaced_out"},
		{"___", "auction"},
		{"", "auction"},
		{"日産ノート", "auction"},
	}

	for _, tt := range tests {
		if got := FolderSlug(tt.input); got != tt.want {
			t.Errorf("FolderSlug(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDefaultFolderName(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 14, 30, 45, 0, time.UTC)
	if got, want := DefaultFolderName(at), "Auction_2025-06-01_143045"; got != want {
		t.Errorf("DefaultFolderName = %q, want %q", got, want)
	}
}
