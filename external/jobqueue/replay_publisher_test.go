package jobqueue

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/wallet"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
)

func TestEnqueueSettlementReplay_PublishesWithDeduplication(t *testing.T) {
	t.Parallel()

	var gotPath, gotDedup, gotForward string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDedup = r.Header.Get("Upstash-Deduplication-Id")
		gotForward = r.Header.Get("Upstash-Forward-X-Internal-Job-Token")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(server.Close)

	publisher := NewReplayPublisher(ReplayPublisherConfig{
		BaseURL:          server.URL,
		Token:            "queue-token",
		TargetBaseURL:    "https://settlement.internal",
		Retries:          3,
		InternalJobToken: "job-token",
	}, logging.NewNop())

	err := publisher.EnqueueSettlementReplay(context.Background(), wallet.FailureRecord{
		ID:        "fail-1",
		UserID:    "u-1",
		ContestID: "c-1",
		EntryID:   "e-1",
		Rank:      1,
		Amount:    1000,
		Reason:    "wallet credit failed",
	})
	if err != nil {
		t.Fatalf("enqueue replay: %v", err)
	}

	wantPath := "/v2/publish/https://settlement.internal/v1/internal/contests/c-1/replay-payout"
	if gotPath != wantPath {
		t.Fatalf("publish path = %q, want %q", gotPath, wantPath)
	}
	if gotDedup != "fail-1" {
		t.Fatalf("deduplication id = %q, want failure record id", gotDedup)
	}
	if gotForward != "job-token" {
		t.Fatalf("forwarded job token = %q", gotForward)
	}
	if !strings.Contains(string(gotBody), `"entry_id":"e-1"`) {
		t.Fatalf("payload missing entry id: %s", gotBody)
	}
}

func TestEnqueueSettlementReplay_RejectsBadBaseURL(t *testing.T) {
	t.Parallel()

	publisher := NewReplayPublisher(ReplayPublisherConfig{
		BaseURL:       "ftp://queue.invalid",
		TargetBaseURL: "https://settlement.internal",
	}, logging.NewNop())

	if err := publisher.EnqueueSettlementReplay(context.Background(), wallet.FailureRecord{ID: "fail-1"}); err == nil {
		t.Fatal("expected invalid base url error")
	}
}
