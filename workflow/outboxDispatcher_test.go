package workflow

import (
	"context"
	"testing"
	"time"
)

func TestPublishBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{8, 10 * time.Minute},
		{20, 10 * time.Minute},
	}
	for _, tc := range cases {
		if got := publishBackoff(5*time.Second, tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %s, got %s", tc.attempt, tc.want, got)
		}
	}
}

func TestDispatchOnceWithoutDBIsNoop(t *testing.T) {
	d := NewOutboxDispatcher(nil, nil)
	d.dispatchOnce(context.Background())
	if d.DispatcherID == "" || d.Publish == nil {
		t.Fatalf("expected dispatcher defaults to be set")
	}
}
