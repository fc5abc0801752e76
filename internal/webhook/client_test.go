package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestChatClientSend(t *testing.T) {
	var gotMessage, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMessage = r.URL.Query().Get("message")
		gotUser = r.URL.Query().Get("userId")
		_ = json.NewEncoder(w).Encode([]map[string]string{{"output": "hello back"}})
	}))
	defer srv.Close()

	c := NewChat(srv.URL, time.Second, false)
	reply, err := c.Send(context.Background(), "user_abc", "what's for lunch?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "hello back" {
		t.Errorf("reply = %q", reply)
	}
	if gotMessage != "what's for lunch?" || gotUser != "user_abc" {
		t.Errorf("query params message=%q userId=%q", gotMessage, gotUser)
	}
}

func TestChatClientEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewChat(srv.URL, time.Second, false)
	reply, err := c.Send(context.Background(), "u", "hi")
	if err != nil {
		t.Fatalf("an empty success body must not be an error, got %v", err)
	}
	if reply != EmptyReplyFallback {
		t.Errorf("reply = %q, want the friendly fallback", reply)
	}
}

func TestChatClientHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewChat(srv.URL, time.Second, false)
	_, err := c.Send(context.Background(), "u", "hi")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("want HTTPError, got %v", err)
	}
	if httpErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d", httpErr.Status)
	}
}

func TestChatClientNetworkError(t *testing.T) {
	c := NewChat("http://127.0.0.1:1", 200*time.Millisecond, false)
	_, err := c.Send(context.Background(), "u", "hi")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("want NetworkError, got %v", err)
	}
}

func TestChatClientHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("message") != "Hello" {
			t.Errorf("health check message = %q", r.URL.Query().Get("message"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if !NewChat(srv.URL, time.Second, false).Healthy(context.Background()) {
		t.Error("reachable webhook reported unhealthy")
	}
	if NewChat("http://127.0.0.1:1", 200*time.Millisecond, false).Healthy(context.Background()) {
		t.Error("unreachable webhook reported healthy")
	}
}

func TestMessClientSubmit(t *testing.T) {
	var got MealSubmission
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/webhook/mess-log" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewMess(srv.URL, "wf-1", time.Second, false)
	sub := MealSubmission{
		StudentID: "student_12", FoodItem: "Rice", Quantity: 2,
		UnitPrice: 50, TotalPrice: 100, Date: "2025-05-01",
	}
	if err := c.SubmitMeal(context.Background(), sub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != sub {
		t.Errorf("server saw %+v", got)
	}
}

func TestMessClientSubmitNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "duplicate order", http.StatusConflict)
	}))
	defer srv.Close()

	c := NewMess(srv.URL, "wf-1", time.Second, false)
	err := c.SubmitMeal(context.Background(), MealSubmission{StudentID: "s", FoodItem: "Dal", Quantity: 1})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("want HTTPError, got %v", err)
	}
	if httpErr.Status != http.StatusConflict {
		t.Errorf("status = %d", httpErr.Status)
	}
}

func TestMessClientFetchMeals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/webhook/wf-1/get-meals/student_12" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["request_type"] != "fetch_meals" || body["student_id"] != "student_12" {
			t.Errorf("body = %v", body)
		}
		_, _ = w.Write([]byte(`{"meals":[{"food_item":"Rice","quantity":1,"unit_price":50,"total_price":50,"date":"2025-05-01"}]}`))
	}))
	defer srv.Close()

	c := NewMess(srv.URL, "wf-1", time.Second, false)
	records, err := c.FetchMeals(context.Background(), "student_12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].FoodItem != "Rice" {
		t.Fatalf("got %+v", records)
	}
}
