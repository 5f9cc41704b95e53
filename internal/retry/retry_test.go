package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/czmobin/karlancer/internal/model"
)

// FlakyFetcher fails failCount times, then succeeds.
type FlakyFetcher struct {
	failCount int
	failWith  error
	calls     int
}

func (f *FlakyFetcher) FetchProjects(_ context.Context, _ string) ([]model.Project, error) {
	f.calls++
	if f.calls <= f.failCount {
		return nil, f.failWith
	}
	return []model.Project{{ID: 1, Title: "ok"}}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchRecoversFromTransientError(t *testing.T) {
	inner := &FlakyFetcher{failCount: 2, failWith: errors.New("connection reset")}
	f := NewFetcher(inner, 2, time.Millisecond, discardLogger())

	projects, err := f.FetchProjects(context.Background(), "python")
	if err != nil {
		t.Fatalf("FetchProjects: %v", err)
	}
	if len(projects) != 1 {
		t.Errorf("got %d projects, want 1", len(projects))
	}
	if inner.calls != 3 {
		t.Errorf("inner called %d times, want 3", inner.calls)
	}
}

func TestFetchExhaustsRetries(t *testing.T) {
	inner := &FlakyFetcher{failCount: 10, failWith: &model.HTTPError{StatusCode: 503}}
	f := NewFetcher(inner, 2, time.Millisecond, discardLogger())

	_, err := f.FetchProjects(context.Background(), "python")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if inner.calls != 3 {
		t.Errorf("inner called %d times, want 3 (1 initial + 2 retries)", inner.calls)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	inner := &FlakyFetcher{failCount: 10, failWith: &model.HTTPError{StatusCode: 401}}
	f := NewFetcher(inner, 3, time.Millisecond, discardLogger())

	_, err := f.FetchProjects(context.Background(), "python")
	if err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1 (4xx must not retry)", inner.calls)
	}
}

func TestFetchDoesNotRetryCancelledContext(t *testing.T) {
	inner := &FlakyFetcher{failCount: 10, failWith: context.Canceled}
	f := NewFetcher(inner, 3, time.Millisecond, discardLogger())

	_, err := f.FetchProjects(context.Background(), "python")
	if err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1 (cancellation must not retry)", inner.calls)
	}
}

func TestBackoffHonorsRetryAfter(t *testing.T) {
	f := NewFetcher(nil, 2, time.Second, discardLogger())

	err := &model.HTTPError{StatusCode: 429, RetryAfter: 7 * time.Second}
	if got := f.backoffDelay(1, err); got != 7*time.Second {
		t.Errorf("backoffDelay = %v, want Retry-After 7s", got)
	}
}

func TestBackoffGrowsExponentially(t *testing.T) {
	f := NewFetcher(nil, 3, 2*time.Second, discardLogger())
	plain := errors.New("network")

	// With ±30% jitter the second-attempt delay must stay within [2.8s, 5.2s].
	got := f.backoffDelay(2, plain)
	if got < 2800*time.Millisecond || got > 5200*time.Millisecond {
		t.Errorf("backoffDelay(2) = %v, want within jitter band of 4s", got)
	}
}
