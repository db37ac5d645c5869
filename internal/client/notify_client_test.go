package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNotifyClient_Send_Success(t *testing.T) {
	t.Parallel()

	var gotReq sendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotReq)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"id":      "email-log-42",
		})
	}))
	t.Cleanup(srv.Close)

	c := NewNotifyClient(srv.URL, "noreply@accountflow.com", 5*time.Second)

	id, err := c.Send(context.Background(), "email", "client@example.com", "Reminder: VAT", "<p>hi</p>")
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if id != "email-log-42" {
		t.Fatalf("expected remote id email-log-42, got %q", id)
	}

	if gotReq.Channel != "email" || gotReq.To != "client@example.com" {
		t.Fatalf("unexpected request payload: %+v", gotReq)
	}
	if gotReq.From != "noreply@accountflow.com" {
		t.Fatalf("expected default from address, got %q", gotReq.From)
	}
	if gotReq.Subject != "Reminder: VAT" {
		t.Fatalf("unexpected subject: %q", gotReq.Subject)
	}
}

func TestNotifyClient_Send_RejectedWithReason(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "mailbox does not exist",
		})
	}))
	t.Cleanup(srv.Close)

	c := NewNotifyClient(srv.URL, "", 5*time.Second)

	_, err := c.Send(context.Background(), "email", "x@example.com", "s", "b")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "mailbox does not exist") {
		t.Fatalf("expected sender reason in error, got: %v", err)
	}
}

func TestNotifyClient_Send_UnexpectedStatusCode(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	t.Cleanup(srv.Close)

	c := NewNotifyClient(srv.URL, "", 5*time.Second)

	_, err := c.Send(context.Background(), "email", "x@example.com", "s", "b")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, "unexpected status code: 500") {
		t.Fatalf("expected status code error, got: %v", err)
	}
	if !strings.Contains(msg, `body="boom"`) {
		t.Fatalf("expected body in error, got: %v", err)
	}
}

func TestNotifyClient_Send_InvalidJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("THIS IS NOT JSON"))
	}))
	t.Cleanup(srv.Close)

	c := NewNotifyClient(srv.URL, "", 5*time.Second)

	_, err := c.Send(context.Background(), "email", "x@example.com", "s", "b")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "failed to decode json") {
		t.Fatalf("expected decode error, got: %v", err)
	}
}

func TestNotifyClient_Send_MissingID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(srv.Close)

	c := NewNotifyClient(srv.URL, "", 5*time.Second)

	_, err := c.Send(context.Background(), "email", "x@example.com", "s", "b")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "missing id") {
		t.Fatalf("expected missing id error, got: %v", err)
	}
}

func TestNotifyClient_Send_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true,"id":"abc"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewNotifyClient(srv.URL, "", 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Send(ctx, "email", "x@example.com", "s", "b")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(strings.ToLower(err.Error()), "context") &&
		!strings.Contains(strings.ToLower(err.Error()), "deadline") {
		t.Fatalf("expected context/deadline error, got: %v", err)
	}
}
