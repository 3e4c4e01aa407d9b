package trigger

import (
	"context"
	"testing"
	"time"
)

func TestCronValidate(t *testing.T) {
	cases := []struct {
		schedule string
		timezone string
		ok       bool
	}{
		{"*/15 * * * *", "", true},
		{"0 9 * * 1-5", "Europe/Berlin", true},
		{"", "", false},
		{"every minute", "", false},
		{"* * * * *", "Mars/Olympus", false},
	}
	for _, tc := range cases {
		err := NewCron(tc.schedule, tc.timezone).Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("Validate(%q, %q) err=%v, want ok=%v", tc.schedule, tc.timezone, err, tc.ok)
		}
	}
}

func TestCronClosesChannelOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	events, err := NewCron("@every 1h", "").Start(ctx)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("expected closed channel, got event")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("channel not closed after cancel")
	}
}

func TestCronStopTwice(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewCron("@every 1h", "")
	if _, err := c.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
