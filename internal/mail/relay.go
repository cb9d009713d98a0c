// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mail

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/vitrine/internal/util"
)

// Relay delivery constants.
const (
	SignatureHeader = "X-Vitrine-Signature"
	DeliveryHeader  = "X-Vitrine-Delivery"
	RequestTimeout  = 15 * time.Second
	UserAgent       = "Vitrine-Mailer/1.0"
)

// ErrRelayStopped is returned by Send after Stop.
var ErrRelayStopped = errors.New("mail relay is stopped")

// Config holds relay mailer settings.
type Config struct {
	URL    string
	Secret string
	From   string
	// Workers is the number of concurrent delivery goroutines.
	Workers int
	// QueueSize bounds the number of pending messages.
	QueueSize int
	// AllowPrivate permits relay hosts on private networks.
	AllowPrivate bool
}

// DefaultConfig returns the default relay configuration for url.
func DefaultConfig(url, secret string) Config {
	return Config{
		URL:       url,
		Secret:    secret,
		Workers:   2,
		QueueSize: 100,
	}
}

// envelope is the JSON body posted to the relay.
type envelope struct {
	ID        string    `json:"id"`
	From      string    `json:"from,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Message
}

// RelayMailer posts messages to an HTTP mail relay from a worker pool.
type RelayMailer struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger

	queue   chan envelope
	wg      sync.WaitGroup
	done    chan struct{} // closed by Stop; recreated by every Start
	mu      sync.Mutex
	running bool
}

// NewRelayMailer validates the relay URL and creates a stopped RelayMailer.
func NewRelayMailer(cfg Config, logger *slog.Logger) (*RelayMailer, error) {
	if err := util.ValidateRelayURL(cfg.URL, cfg.AllowPrivate); err != nil {
		return nil, fmt.Errorf("mail relay: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	if !cfg.AllowPrivate {
		transport.DialContext = util.SSRFSafeDialContext(&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		})
	}

	return &RelayMailer{
		cfg:    cfg,
		client: &http.Client{Timeout: RequestTimeout, Transport: transport},
		logger: logger,
		queue:  make(chan envelope, cfg.QueueSize),
	}, nil
}

// Start launches the delivery workers. A stopped mailer can be started
// again.
func (m *RelayMailer) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	done := make(chan struct{})
	m.done = done
	m.mu.Unlock()

	for i := 0; i < m.cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker(ctx, done, i)
	}

	m.logger.Info("mail relay started", "workers", m.cfg.Workers)
}

// Stop stops the workers and waits for in-flight deliveries to finish.
// Messages still queued are dropped.
func (m *RelayMailer) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	done := m.done
	m.done = nil
	m.mu.Unlock()

	close(done)
	m.wg.Wait()

	m.logger.Info("mail relay stopped", "dropped", len(m.queue))
}

// Send enqueues msg for delivery. It never blocks: when the queue is full
// the message is dropped with a warning.
func (m *RelayMailer) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return nil
	}

	m.mu.Lock()
	running := m.running
	m.mu.Unlock()
	if !running {
		return ErrRelayStopped
	}

	env := envelope{
		ID:        uuid.NewString(),
		From:      m.cfg.From,
		Timestamp: time.Now().UTC(),
		Message:   msg,
	}

	select {
	case m.queue <- env:
		m.logger.Debug("mail queued", "id", env.ID, "template", msg.Template)
	default:
		m.logger.Warn("mail queue full, dropping message",
			"id", env.ID,
			"template", msg.Template)
	}
	return nil
}

func (m *RelayMailer) worker(ctx context.Context, done <-chan struct{}, id int) {
	defer m.wg.Done()

	m.logger.Debug("mail worker started", "worker_id", id)

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("mail worker stopping (context done)", "worker_id", id)
			return
		case <-done:
			m.logger.Debug("mail worker stopping (done signal)", "worker_id", id)
			return
		case env := <-m.queue:
			if err := m.deliver(ctx, env); err != nil {
				m.logger.Warn("mail delivery failed",
					"id", env.ID,
					"template", env.Template,
					"error", err)
			}
		}
	}
}

// deliver posts one envelope to the relay. There are no retries.
func (m *RelayMailer) deliver(ctx context.Context, env envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set(DeliveryHeader, env.ID)
	if m.cfg.Secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+GenerateSignature(body, m.cfg.Secret))
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to relay: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("relay responded with status %d", resp.StatusCode)
	}

	m.logger.Debug("mail delivered", "id", env.ID, "status", resp.StatusCode)
	return nil
}

// GenerateSignature returns the hex HMAC-SHA256 of payload keyed by secret.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches payload. A "sha256="
// prefix is accepted.
func VerifySignature(payload []byte, signature, secret string) bool {
	if len(signature) > 7 && signature[:7] == "sha256=" {
		signature = signature[7:]
	}
	expected := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}
