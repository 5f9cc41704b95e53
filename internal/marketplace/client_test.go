package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/czmobin/karlancer/internal/model"
)

func newTestClient(url string) *Client {
	return NewClient(url, "test-token", 0, http.DefaultClient)
}

func TestFetchProjects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		q := r.URL.Query()
		if q.Get("q") != "python" || q.Get("order") != "newest" || q.Get("logged_in") != "1" {
			t.Errorf("unexpected query params: %v", q)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "success",
			"data": {"data": [
				{"id": 42, "title": "ربات تلگرام", "min_budget": 3000000, "max_budget": 6000000,
				 "job_duration": 10, "skills": [{"name": "Python"}], "url": "project/42"},
				{"id": 43, "title": "اسکریپت پایتون", "min_budget": 1000000, "max_budget": 2000000,
				 "job_duration": 3, "skills": [], "url": "project/43"}
			]}
		}`))
	}))
	defer srv.Close()

	projects, err := newTestClient(srv.URL).FetchProjects(context.Background(), "python")
	if err != nil {
		t.Fatalf("FetchProjects: %v", err)
	}

	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}
	if projects[0].ID != 42 || projects[0].MinBudget != 3000000 {
		t.Errorf("first project = %+v", projects[0])
	}
	if projects[0].Skills[0].Name != "Python" {
		t.Errorf("skills not decoded: %+v", projects[0].Skills)
	}
}

func TestFetchProjectsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "error", "data": {"data": []}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchProjects(context.Background(), "python")
	if err == nil {
		t.Fatal("expected error for application-level failure status")
	}
}

func TestFetchProjectsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchProjects(context.Background(), "python")

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", httpErr.StatusCode)
	}
	if httpErr.RetryAfter.Seconds() != 30 {
		t.Errorf("RetryAfter = %v, want 30s", httpErr.RetryAfter)
	}
}

func TestProjectDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/publics/projects/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"status": "success", "data": {"min_budget": 3000000, "max_budget": 6000000, "job_duration": 10}}`))
	}))
	defer srv.Close()

	detail, err := newTestClient(srv.URL).ProjectDetail(context.Background(), 42)
	if err != nil {
		t.Fatalf("ProjectDetail: %v", err)
	}
	if detail.MinBudget != 3000000 || detail.JobDuration != 10 {
		t.Errorf("detail = %+v", detail)
	}
}

func TestSubmitBid(t *testing.T) {
	var received Bid
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/bids" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding bid: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	bid := Bid{
		ProjectID:   42,
		Description: "پیشنهاد تست",
		Milestones:  []Milestone{{Description: "فاز اول", Duration: "10", Budget: "3000000"}},
	}
	if err := newTestClient(srv.URL).SubmitBid(context.Background(), bid); err != nil {
		t.Fatalf("SubmitBid: %v", err)
	}

	if received.ProjectID != 42 {
		t.Errorf("project_id = %d, want 42", received.ProjectID)
	}
	if received.BidID != nil || received.EditCartID != nil {
		t.Error("bid_id and edit_cart_id must serialize as null")
	}
	if received.Milestones[0].Budget != "3000000" {
		t.Errorf("milestone budget = %q, want string 3000000", received.Milestones[0].Budget)
	}
}

func TestSubmitBidRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message": "bid already exists"}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).SubmitBid(context.Background(), Bid{ProjectID: 1})

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode = %d, want 422", httpErr.StatusCode)
	}
	if httpErr.Body == "" {
		t.Error("expected response body in error")
	}
}
