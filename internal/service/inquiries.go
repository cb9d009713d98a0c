// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mileusna/useragent"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/store"
	"github.com/olegiv/vitrine/internal/util"
)

// Inquiry field limits.
const (
	MaxInquiryNameLength    = 200
	MaxInquiryFieldLength   = 200
	MaxInquiryMessageLength = 5000
	DefaultInquiryListLimit = 50
	MaxInquiryListLimit     = 200
)

// inquirySanitizer removes all markup from public form input.
var inquirySanitizer = bluemonday.StrictPolicy()

// RequestMeta describes where a public submission came from.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// CountryLocator resolves an IP address to an ISO country code.
type CountryLocator interface {
	LookupCountry(ip string) string
}

// ContactInput is a message from the public contact form.
type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// LeadInput is a sales inquiry from the public site.
type LeadInput struct {
	Name     string
	Email    string
	Company  string
	Interest string
	Message  string
}

// InquiryService captures contacts and leads and tracks lead follow-up.
type InquiryService struct {
	queries *store.Queries
	locator CountryLocator
	now     func() time.Time
}

// NewInquiryService creates a new InquiryService. locator may be nil.
func NewInquiryService(db *sql.DB, locator CountryLocator) *InquiryService {
	return &InquiryService{
		queries: store.New(db),
		locator: locator,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CaptureContact stores a contact form submission.
func (s *InquiryService) CaptureContact(ctx context.Context, in ContactInput, meta RequestMeta) (model.Contact, error) {
	name, err := cleanField("name", in.Name, MaxInquiryNameLength, true)
	if err != nil {
		return model.Contact{}, err
	}
	email, err := cleanEmail(in.Email)
	if err != nil {
		return model.Contact{}, err
	}
	phone, err := cleanField("phone", in.Phone, MaxInquiryFieldLength, false)
	if err != nil {
		return model.Contact{}, err
	}
	message, err := cleanField("message", in.Message, MaxInquiryMessageLength, true)
	if err != nil {
		return model.Contact{}, err
	}

	id, err := s.queries.CreateContact(ctx, store.CreateContactParams{
		Name:      name,
		Email:     email,
		Phone:     phone,
		Message:   message,
		IpAddress: meta.IPAddress,
		UserAgent: describeUserAgent(meta.UserAgent),
		Country:   s.country(meta.IPAddress),
		CreatedAt: s.now(),
	})
	if err != nil {
		return model.Contact{}, fmt.Errorf("creating contact: %w", err)
	}
	return s.GetContact(ctx, id)
}

// CaptureLead stores a new lead in status new.
func (s *InquiryService) CaptureLead(ctx context.Context, in LeadInput, meta RequestMeta) (model.Lead, error) {
	name, err := cleanField("name", in.Name, MaxInquiryNameLength, true)
	if err != nil {
		return model.Lead{}, err
	}
	email, err := cleanEmail(in.Email)
	if err != nil {
		return model.Lead{}, err
	}
	company, err := cleanField("company", in.Company, MaxInquiryFieldLength, false)
	if err != nil {
		return model.Lead{}, err
	}
	interest, err := cleanField("interest", in.Interest, MaxInquiryFieldLength, false)
	if err != nil {
		return model.Lead{}, err
	}
	message, err := cleanField("message", in.Message, MaxInquiryMessageLength, false)
	if err != nil {
		return model.Lead{}, err
	}

	now := s.now()
	id, err := s.queries.CreateLead(ctx, store.CreateLeadParams{
		Name:      name,
		Email:     email,
		Company:   company,
		Interest:  interest,
		Message:   message,
		IpAddress: meta.IPAddress,
		UserAgent: describeUserAgent(meta.UserAgent),
		Country:   s.country(meta.IPAddress),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return model.Lead{}, fmt.Errorf("creating lead: %w", err)
	}
	return s.GetLead(ctx, id)
}

// GetContact returns a contact by id.
func (s *InquiryService) GetContact(ctx context.Context, id int64) (model.Contact, error) {
	row, err := s.queries.GetContact(ctx, id)
	if err != nil {
		return model.Contact{}, notFound(err, "contact %d", id)
	}
	return contactFromRow(row), nil
}

// GetLead returns a lead by id.
func (s *InquiryService) GetLead(ctx context.Context, id int64) (model.Lead, error) {
	row, err := s.queries.GetLead(ctx, id)
	if err != nil {
		return model.Lead{}, notFound(err, "lead %d", id)
	}
	return leadFromRow(row), nil
}

// ListContacts returns the newest contacts. Only approved team members may read them.
func (s *InquiryService) ListContacts(ctx context.Context, actor model.User, limit int) ([]model.Contact, error) {
	if !actor.CanEdit() {
		return nil, forbidden("list contacts")
	}
	rows, err := s.queries.ListContacts(ctx, int64(clampInquiryLimit(limit)))
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	contacts := make([]model.Contact, 0, len(rows))
	for _, r := range rows {
		contacts = append(contacts, contactFromRow(r))
	}
	return contacts, nil
}

// ListLeads returns the newest leads, optionally filtered by status.
func (s *InquiryService) ListLeads(ctx context.Context, actor model.User, status model.LeadStatus, limit int) ([]model.Lead, error) {
	if !actor.CanEdit() {
		return nil, forbidden("list leads")
	}
	switch status {
	case "", model.LeadStatusNew, model.LeadStatusAssigned, model.LeadStatusClosed:
	default:
		return nil, invalid("status", fmt.Sprintf("unknown lead status %q", status))
	}
	rows, err := s.queries.ListLeads(ctx, string(status), int64(clampInquiryLimit(limit)))
	if err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	leads := make([]model.Lead, 0, len(rows))
	for _, r := range rows {
		leads = append(leads, leadFromRow(r))
	}
	return leads, nil
}

// AssignLead hands an open lead to an approved, active team member.
// Reassigning an assigned lead is allowed; closed leads cannot be assigned.
func (s *InquiryService) AssignLead(ctx context.Context, actor model.User, leadID, assigneeID int64) (model.Lead, error) {
	if !actor.CanAdminister() {
		return model.Lead{}, forbidden("assign lead")
	}

	assigneeRow, err := s.queries.GetUserByID(ctx, assigneeID)
	if err != nil {
		return model.Lead{}, notFound(err, "assignee %d", assigneeID)
	}
	if assignee := userFromRow(assigneeRow); !assignee.CanEdit() {
		return model.Lead{}, invalid("assignee_id", "must be an approved, active team member")
	}

	rows, err := s.queries.AssignLead(ctx, store.AssignLeadParams{
		AssignedTo: util.NullInt64FromValue(assigneeID),
		UpdatedAt:  s.now(),
		ID:         leadID,
	})
	if err != nil {
		return model.Lead{}, fmt.Errorf("assigning lead %d: %w", leadID, err)
	}
	if rows == 0 {
		if _, err := s.GetLead(ctx, leadID); err != nil {
			return model.Lead{}, err
		}
		return model.Lead{}, invalidState("lead %d is closed", leadID)
	}
	return s.GetLead(ctx, leadID)
}

// CloseLead marks a lead as handled.
func (s *InquiryService) CloseLead(ctx context.Context, actor model.User, leadID int64) (model.Lead, error) {
	if !actor.CanEdit() {
		return model.Lead{}, forbidden("close lead")
	}

	rows, err := s.queries.CloseLead(ctx, s.now(), leadID)
	if err != nil {
		return model.Lead{}, fmt.Errorf("closing lead %d: %w", leadID, err)
	}
	if rows == 0 {
		if _, err := s.GetLead(ctx, leadID); err != nil {
			return model.Lead{}, err
		}
		return model.Lead{}, invalidState("lead %d is already closed", leadID)
	}
	return s.GetLead(ctx, leadID)
}

func (s *InquiryService) country(ip string) string {
	if s.locator == nil || ip == "" {
		return ""
	}
	return s.locator.LookupCountry(ip)
}

// cleanField strips markup and surrounding whitespace and enforces length.
// The result stays entity-escaped so encoded markup never turns into tags.
func cleanField(field, value string, maxLen int, required bool) (string, error) {
	value = strings.TrimSpace(inquirySanitizer.Sanitize(value))
	if value == "" && required {
		return "", invalid(field, "is required")
	}
	if len(value) > maxLen {
		return "", invalid(field, fmt.Sprintf("must be at most %d characters", maxLen))
	}
	return value, nil
}

func cleanEmail(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return "", invalid("email", "must be a plain email address")
	}
	return strings.ToLower(addr.Address), nil
}

// describeUserAgent reduces a raw user agent to "Browser on OS (device)".
func describeUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	ua := useragent.Parse(raw)

	browser := ua.Name
	if browser == "" {
		browser = "Unknown"
	}
	osName := ua.OS
	if osName == "" {
		osName = "Unknown"
	}

	device := "desktop"
	switch {
	case ua.Bot:
		device = "bot"
	case ua.Mobile:
		device = "mobile"
	case ua.Tablet:
		device = "tablet"
	}

	return fmt.Sprintf("%s on %s (%s)", browser, osName, device)
}

func clampInquiryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultInquiryListLimit
	case limit > MaxInquiryListLimit:
		return MaxInquiryListLimit
	}
	return limit
}

func contactFromRow(r store.Contact) model.Contact {
	return model.Contact{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Message:   r.Message,
		IPAddress: r.IpAddress,
		UserAgent: r.UserAgent,
		Country:   r.Country,
		CreatedAt: r.CreatedAt,
	}
}

func leadFromRow(r store.Lead) model.Lead {
	return model.Lead{
		ID:         r.ID,
		Name:       r.Name,
		Email:      r.Email,
		Company:    r.Company,
		Interest:   r.Interest,
		Message:    r.Message,
		Status:     model.LeadStatus(r.Status),
		AssignedTo: util.Int64PtrFromNull(r.AssignedTo),
		IPAddress:  r.IpAddress,
		UserAgent:  r.UserAgent,
		Country:    r.Country,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
