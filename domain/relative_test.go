package domain

import (
	"testing"
	"time"
)

func TestRelativeLabel(t *testing.T) {
	base := time.Date(2025, 10, 7, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		elapsed time.Duration
		want    string
	}{
		{0, "now"},
		{30 * time.Second, "now"},
		{90 * time.Second, "1 minute ago"},
		{2 * time.Minute, "2 minutes ago"},
		{time.Hour, "1 hour ago"},
		{2 * time.Hour, "2 hours ago"},
		{25 * time.Hour, "1 day ago"},
		{49 * time.Hour, "2 days ago"},
		{8 * 24 * time.Hour, "1 week ago"},
		{14 * 24 * time.Hour, "2 weeks ago"},
		{31 * 24 * time.Hour, "1 month ago"},
		{61 * 24 * time.Hour, "2 months ago"},
	}

	for _, tc := range cases {
		if got := RelativeLabel(base, base.Add(tc.elapsed)); got != tc.want {
			t.Fatalf("elapsed %v: got %q, want %q", tc.elapsed, got, tc.want)
		}
	}
}

func TestRelativeLabelFutureTimestamp(t *testing.T) {
	// Clock skew between client and server can put updatedAt in the
	// future; the label uses the absolute distance.
	base := time.Date(2025, 10, 7, 10, 0, 0, 0, time.UTC)
	if got := RelativeLabel(base.Add(2*time.Hour), base); got != "2 hours ago" {
		t.Fatalf("got %q", got)
	}
}
