package jobqueue

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
	"github.com/riskibarqy/matchday-tipster/internal/platform/resilience"
)

func TestQStashPublisher_Enqueue_SetsUpstashHeaders(t *testing.T) {
	t.Parallel()

	var got *http.Request
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		got = r
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"msg_1"}`))
	}))
	defer server.Close()

	publisher, err := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          server.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://tipster.example.com/",
		Retries:          3,
		InternalJobToken: "job-token",
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	err = publisher.Enqueue(context.Background(), "v1/internal/jobs/predictions-check", map[string]any{"matchId": "m1"}, 90*time.Minute+400*time.Millisecond, " dedup-1 ")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if got.URL.Path != "/v2/publish/https://tipster.example.com/v1/internal/jobs/predictions-check" {
		t.Fatalf("unexpected publish path %s", got.URL.Path)
	}
	checks := map[string]string{
		"Authorization":                        "Bearer qstash-token",
		"Upstash-Method":                       "POST",
		"Upstash-Retries":                      "3",
		"Upstash-Delay":                        "5400s",
		"Upstash-Deduplication-Id":             "dedup-1",
		"Upstash-Forward-X-Internal-Job-Token": "job-token",
	}
	for header, want := range checks {
		if value := got.Header.Get(header); value != want {
			t.Fatalf("header %s: expected %q, got %q", header, want, value)
		}
	}
	if !strings.Contains(body, `"matchId":"m1"`) {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestQStashPublisher_TransientFailuresOpenCircuit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	publisher, err := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:        server.URL,
		Token:          "t",
		TargetBaseURL:  "https://tipster.example.com",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute},
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	first := publisher.Enqueue(context.Background(), "/jobs", nil, 0, "")
	if !isQStashCircuitFailure(first) {
		t.Fatalf("expected transient failure, got %v", first)
	}
	if err := publisher.Enqueue(context.Background(), "/jobs", nil, 0, ""); err == nil {
		t.Fatalf("expected circuit rejection")
	}
	if calls.Load() != 1 {
		t.Fatalf("open circuit must not reach qstash, got %d calls", calls.Load())
	}
}

func TestNewQStashPublisher_ValidatesConfig(t *testing.T) {
	t.Parallel()

	cases := []QStashPublisherConfig{
		{BaseURL: "", Token: "t", TargetBaseURL: "https://x"},
		{BaseURL: "ftp://qstash", Token: "t", TargetBaseURL: "https://x"},
		{BaseURL: "https://qstash.upstash.io", Token: "t", TargetBaseURL: "https://"},
		{BaseURL: "https://qstash.upstash.io", Token: " ", TargetBaseURL: "https://x"},
	}
	for i, cfg := range cases {
		if _, err := NewQStashPublisher(cfg, logging.NewNop()); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestNormalizeDelay(t *testing.T) {
	t.Parallel()

	if got := normalizeDelay(-time.Second); got != "0s" {
		t.Fatalf("negative delay: got %s", got)
	}
	if got := normalizeDelay(1500 * time.Millisecond); got != "2s" {
		t.Fatalf("rounding: got %s", got)
	}
}
