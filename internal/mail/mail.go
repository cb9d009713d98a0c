// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mail hands outbound email to an external relay.
//
// Delivery is fire-and-forget: Send never blocks on the network and never
// reports transport failures to the caller. Rendering and SMTP are the
// relay's job; this package only decides what envelope to send.
package mail

import (
	"context"
	"log/slog"
)

// Template identifies the email the relay should render.
type Template string

// Templates used by the workflows.
const (
	TemplateUserPending      Template = "user_pending"
	TemplateUserApproved     Template = "user_approved"
	TemplateInquiryReceived  Template = "inquiry_received"
	TemplateLeadAssigned     Template = "lead_assigned"
	TemplateContentPublished Template = "content_published"
)

// Message is one email request. Data is passed to the relay template as-is.
type Message struct {
	Template Template       `json:"template"`
	To       []string       `json:"to"`
	Data     map[string]any `json:"data,omitempty"`
}

// Mailer sends email. Implementations must not block on delivery.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NoopMailer drops every message. Used when no relay is configured.
type NoopMailer struct {
	logger *slog.Logger
}

// NewNoopMailer creates a NoopMailer. logger may be nil.
func NewNoopMailer(logger *slog.Logger) *NoopMailer {
	return &NoopMailer{logger: logger}
}

// Send logs the message at debug level and discards it.
func (m *NoopMailer) Send(_ context.Context, msg Message) error {
	if m.logger != nil {
		m.logger.Debug("mail relay disabled, message dropped",
			"template", msg.Template,
			"recipients", len(msg.To))
	}
	return nil
}
