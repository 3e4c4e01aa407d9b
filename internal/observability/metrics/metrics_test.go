package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderObserveAccumulates(t *testing.T) {
	r := NewRecorder("")
	r.Observe([]PlatformCounts{{Platform: "ios", Fetched: 3, Notified: 2, Failed: 1}}, time.Unix(100, 0), time.Second)
	r.Observe([]PlatformCounts{{Platform: "ios", Fetched: 1, Notified: 1}}, time.Unix(200, 0), time.Second)

	if got := testutil.ToFloat64(r.notified.WithLabelValues("ios")); got != 3 {
		t.Fatalf("notified = %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.lastRun); got != 200 {
		t.Fatalf("last run = %v, want 200", got)
	}
	if err := r.Push(context.Background()); err != nil {
		t.Fatalf("push without url should be a no-op: %v", err)
	}
}

func TestRecorderPushesToGateway(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if !strings.Contains(r.URL.Path, "/metrics/job/reviewbot") {
			http.Error(w, "bad path "+r.URL.Path, http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := NewRecorder(server.URL)
	r.Observe([]PlatformCounts{{Platform: "android", Notified: 1}}, time.Now(), time.Second)
	if err := r.Push(context.Background()); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected one push, got %d", calls)
	}
}
