// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mail

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olegiv/vitrine/internal/testutil"
)

func TestGenerateSignature(t *testing.T) {
	sig := GenerateSignature([]byte(`{"template":"user_pending"}`), "secret")
	if len(sig) != 64 {
		t.Errorf("GenerateSignature() length = %d, want 64", len(sig))
	}
	if again := GenerateSignature([]byte(`{"template":"user_pending"}`), "secret"); again != sig {
		t.Errorf("GenerateSignature() not deterministic: %s != %s", sig, again)
	}
	if other := GenerateSignature([]byte(`{"template":"user_pending"}`), "other"); other == sig {
		t.Error("GenerateSignature() should depend on the secret")
	}
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"abc"}`)
	sig := GenerateSignature(payload, "secret")

	tests := []struct {
		name      string
		signature string
		secret    string
		want      bool
	}{
		{"bare hex", sig, "secret", true},
		{"prefixed", "sha256=" + sig, "secret", true},
		{"wrong secret", sig, "nope", false},
		{"tampered", "sha256=" + sig[:63] + "x", "secret", false},
		{"empty", "", "secret", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(payload, tt.signature, tt.secret); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRelayMailer_RejectsPrivateRelay(t *testing.T) {
	_, err := NewRelayMailer(DefaultConfig("http://127.0.0.1:9000/send", "s"), testutil.TestLoggerSilent())
	if err == nil {
		t.Fatal("expected error for loopback relay without AllowPrivate")
	}

	_, err = NewRelayMailer(DefaultConfig("ftp://93.184.216.34/send", "s"), testutil.TestLoggerSilent())
	if err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}

func TestRelayMailer_DeliversSignedEnvelope(t *testing.T) {
	received := make(chan *http.Request, 1)
	bodies := make(chan []byte, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- r
		bodies <- body
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL, "relay-secret")
	cfg.From = "noreply@example.com"
	cfg.AllowPrivate = true

	m, err := NewRelayMailer(cfg, testutil.TestLoggerSilent())
	if err != nil {
		t.Fatalf("NewRelayMailer: %v", err)
	}
	m.Start(context.Background())
	defer m.Stop()

	err = m.Send(context.Background(), Message{
		Template: TemplateUserApproved,
		To:       []string{"editor@example.com"},
		Data:     map[string]any{"role": "editor"},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	var (
		req  *http.Request
		body []byte
	)
	select {
	case req = <-received:
		body = <-bodies
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not receive the message")
	}

	if req.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", req.Method)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if req.Header.Get(DeliveryHeader) == "" {
		t.Error("missing delivery id header")
	}
	if !VerifySignature(body, req.Header.Get(SignatureHeader), "relay-secret") {
		t.Error("signature does not verify")
	}

	var env struct {
		ID       string         `json:"id"`
		From     string         `json:"from"`
		Template string         `json:"template"`
		To       []string       `json:"to"`
		Data     map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if env.Template != string(TemplateUserApproved) {
		t.Errorf("template = %q", env.Template)
	}
	if env.From != "noreply@example.com" {
		t.Errorf("from = %q", env.From)
	}
	if len(env.To) != 1 || env.To[0] != "editor@example.com" {
		t.Errorf("to = %v", env.To)
	}
	if env.Data["role"] != "editor" {
		t.Errorf("data = %v", env.Data)
	}
}

func TestRelayMailer_FailuresAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL, "")
	cfg.AllowPrivate = true
	cfg.Workers = 1

	m, err := NewRelayMailer(cfg, testutil.TestLoggerSilent())
	if err != nil {
		t.Fatalf("NewRelayMailer: %v", err)
	}
	m.Start(context.Background())

	if err := m.Send(context.Background(), Message{Template: TemplateLeadAssigned, To: []string{"a@example.com"}}); err != nil {
		t.Fatalf("Send should swallow transport failures, got %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for hits.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	m.Stop()

	if got := hits.Load(); got != 1 {
		t.Errorf("relay hits = %d, want exactly 1", got)
	}
}

func TestRelayMailer_SendAfterStop(t *testing.T) {
	cfg := DefaultConfig("http://127.0.0.1:1/send", "")
	cfg.AllowPrivate = true

	m, err := NewRelayMailer(cfg, testutil.TestLoggerSilent())
	if err != nil {
		t.Fatalf("NewRelayMailer: %v", err)
	}

	err = m.Send(context.Background(), Message{Template: TemplateUserPending, To: []string{"a@example.com"}})
	if !errors.Is(err, ErrRelayStopped) {
		t.Errorf("Send before Start = %v, want ErrRelayStopped", err)
	}

	m.Start(context.Background())
	m.Stop()
	m.Stop()

	err = m.Send(context.Background(), Message{Template: TemplateUserPending, To: []string{"a@example.com"}})
	if !errors.Is(err, ErrRelayStopped) {
		t.Errorf("Send after Stop = %v, want ErrRelayStopped", err)
	}
}

func TestRelayMailer_Restart(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL, "")
	cfg.AllowPrivate = true
	cfg.Workers = 1

	m, err := NewRelayMailer(cfg, testutil.TestLoggerSilent())
	if err != nil {
		t.Fatalf("NewRelayMailer: %v", err)
	}

	m.Start(context.Background())
	m.Stop()
	m.Start(context.Background())

	if err := m.Send(context.Background(), Message{Template: TemplateUserApproved, To: []string{"a@example.com"}}); err != nil {
		t.Fatalf("Send after restart: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for hits.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	m.Stop()

	if got := hits.Load(); got != 1 {
		t.Errorf("relay hits after restart = %d, want 1", got)
	}
}

func TestRelayMailer_QueueFullDrops(t *testing.T) {
	cfg := DefaultConfig("http://127.0.0.1:1/send", "")
	cfg.AllowPrivate = true
	cfg.QueueSize = 1

	m, err := NewRelayMailer(cfg, testutil.TestLoggerSilent())
	if err != nil {
		t.Fatalf("NewRelayMailer: %v", err)
	}
	// Mark running without workers so the queue is never drained.
	m.running = true

	msg := Message{Template: TemplateInquiryReceived, To: []string{"a@example.com"}}
	for i := 0; i < 3; i++ {
		if err := m.Send(context.Background(), msg); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	if got := len(m.queue); got != 1 {
		t.Errorf("queue length = %d, want 1", got)
	}
}

func TestRelayMailer_NoRecipients(t *testing.T) {
	cfg := DefaultConfig("http://127.0.0.1:1/send", "")
	cfg.AllowPrivate = true

	m, err := NewRelayMailer(cfg, testutil.TestLoggerSilent())
	if err != nil {
		t.Fatalf("NewRelayMailer: %v", err)
	}
	if err := m.Send(context.Background(), Message{Template: TemplateUserPending}); err != nil {
		t.Errorf("Send with no recipients = %v, want nil", err)
	}
}

func TestNoopMailer(t *testing.T) {
	var m Mailer = NewNoopMailer(nil)
	if err := m.Send(context.Background(), Message{Template: TemplateUserPending, To: []string{"a@example.com"}}); err != nil {
		t.Errorf("NoopMailer.Send() = %v", err)
	}
}
