package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mamadbah2/breadlog/internal/config"
)

func TestSendReport(t *testing.T) {
	var got reportPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(config.WebhookConfig{URL: srv.URL, Token: "secret"})
	if err := client.SendReport(context.Background(), "Relatório 2024-05-06", "Total Produzido: 120"); err != nil {
		t.Fatalf("SendReport returned error: %v", err)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected authorization header %q", auth)
	}
	if got.Subject != "Relatório 2024-05-06" || got.Text != "Total Produzido: 120" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestSendReportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad token"}`))
	}))
	defer srv.Close()

	client := NewClient(config.WebhookConfig{URL: srv.URL})
	err := client.SendReport(context.Background(), "s", "t")
	if err == nil || !strings.Contains(err.Error(), "bad token") {
		t.Fatalf("expected api error, got %v", err)
	}
}
