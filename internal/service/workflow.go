// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olegiv/vitrine/internal/geoip"
	"github.com/olegiv/vitrine/internal/mail"
	"github.com/olegiv/vitrine/internal/model"
)

// Dashboard paths used in notification links.
const (
	PendingUsersPath = "/users/pending"
	ContactsPath     = "/contacts"
	LeadsPath        = "/leads"
)

// Workflow runs state transitions and then fans out their side effects:
// an in-app notification, an outbound email and an audit event.
//
// The transition is the only part whose failure reaches the caller. Once it
// has committed, notification, mail and audit failures are logged and
// swallowed.
type Workflow struct {
	users         *UserService
	notifications *NotificationService
	inquiries     *InquiryService
	events        *EventService
	mailer        mail.Mailer
	dashboardURL  string
	logger        *slog.Logger
}

// NewWorkflow wires the services a workflow orchestrates. dashboardURL is the
// base for links in outgoing email; a nil mailer disables email.
func NewWorkflow(
	users *UserService,
	notifications *NotificationService,
	inquiries *InquiryService,
	events *EventService,
	mailer mail.Mailer,
	dashboardURL string,
	logger *slog.Logger,
) *Workflow {
	if mailer == nil {
		mailer = mail.NewNoopMailer(logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		users:         users,
		notifications: notifications,
		inquiries:     inquiries,
		events:        events,
		mailer:        mailer,
		dashboardURL:  strings.TrimRight(dashboardURL, "/"),
		logger:        logger,
	}
}

// Register upserts the authenticated subject. A newly created pending user
// is announced to the admin cohort.
func (w *Workflow) Register(ctx context.Context, p Profile) (model.User, bool, error) {
	user, created, err := w.users.Upsert(ctx, p)
	if err != nil {
		return model.User{}, false, err
	}
	if !created {
		return user, false, nil
	}

	if user.IsAdmin() {
		w.auditUser(ctx, "Bootstrap admin registered", &user.ID, map[string]any{
			"email": user.Email,
		})
		return user, true, nil
	}

	w.auditUser(ctx, "User registered, awaiting approval", &user.ID, map[string]any{
		"email": user.Email,
	})
	w.notifyAdmins(ctx, NotificationInput{
		Type:    model.NotificationUserPending,
		Title:   "New user awaiting approval",
		Message: fmt.Sprintf("%s (%s) signed up and needs a role.", user.Name, user.Email),
		Link:    PendingUsersPath,
	}, mail.TemplateUserPending, map[string]any{
		"name":  user.Name,
		"email": user.Email,
	})
	return user, true, nil
}

// ApproveUser approves a pending user and tells them about it.
func (w *Workflow) ApproveUser(ctx context.Context, actor model.User, id int64, role model.Role) (model.User, error) {
	user, err := w.users.Approve(ctx, actor, id, role)
	if err != nil {
		return model.User{}, err
	}

	w.auditUser(ctx, "User approved", &actor.ID, map[string]any{
		"target_id": user.ID,
		"role":      string(user.Role),
	})
	w.notifyUser(ctx, user, NotificationInput{
		Type:    model.NotificationUserApproved,
		Title:   "Your account has been approved",
		Message: fmt.Sprintf("You now have %s access.", user.Role),
		Link:    "/",
	}, mail.TemplateUserApproved, map[string]any{
		"role": string(user.Role),
	})
	return user, nil
}

// RejectUser deletes a pending user.
func (w *Workflow) RejectUser(ctx context.Context, actor model.User, id int64) (model.User, error) {
	user, err := w.users.Reject(ctx, actor, id)
	if err != nil {
		return model.User{}, err
	}
	w.auditUser(ctx, "User rejected", &actor.ID, map[string]any{
		"target_id": user.ID,
		"email":     user.Email,
	})
	return user, nil
}

// ChangeUserRole moves an approved user between admin and editor.
func (w *Workflow) ChangeUserRole(ctx context.Context, actor model.User, id int64, role model.Role) (model.User, error) {
	user, err := w.users.ChangeRole(ctx, actor, id, role)
	if err != nil {
		return model.User{}, err
	}
	w.auditUser(ctx, "User role changed", &actor.ID, map[string]any{
		"target_id": user.ID,
		"role":      string(user.Role),
	})
	return user, nil
}

// ToggleUserActive suspends or restores an approved user.
func (w *Workflow) ToggleUserActive(ctx context.Context, actor model.User, id int64) (model.User, error) {
	user, err := w.users.ToggleActive(ctx, actor, id)
	if err != nil {
		return model.User{}, err
	}
	msg := "User deactivated"
	if user.Active {
		msg = "User reactivated"
	}
	w.auditUser(ctx, msg, &actor.ID, map[string]any{
		"target_id": user.ID,
	})
	return user, nil
}

// CaptureContact stores a contact form submission and alerts the admins.
func (w *Workflow) CaptureContact(ctx context.Context, in ContactInput, meta RequestMeta) (model.Contact, error) {
	contact, err := w.inquiries.CaptureContact(ctx, in, meta)
	if err != nil {
		return model.Contact{}, err
	}

	w.auditInquiry(ctx, "Contact form submitted", meta.IPAddress, map[string]any{
		"contact_id": contact.ID,
		"country":    contact.Country,
	})
	w.notifyAdmins(ctx, NotificationInput{
		Type:    model.NotificationNewContact,
		Title:   "New contact message",
		Message: fmt.Sprintf("%s <%s> sent a message.", contact.Name, contact.Email),
		Link:    fmt.Sprintf("%s/%d", ContactsPath, contact.ID),
	}, mail.TemplateInquiryReceived, map[string]any{
		"kind":    "contact",
		"name":    contact.Name,
		"email":   contact.Email,
		"message": contact.Message,
		"country": geoip.CountryName(contact.Country),
	})
	return contact, nil
}

// CaptureLead stores a sales inquiry and alerts the admins.
func (w *Workflow) CaptureLead(ctx context.Context, in LeadInput, meta RequestMeta) (model.Lead, error) {
	lead, err := w.inquiries.CaptureLead(ctx, in, meta)
	if err != nil {
		return model.Lead{}, err
	}

	w.auditInquiry(ctx, "Lead captured", meta.IPAddress, map[string]any{
		"lead_id": lead.ID,
		"country": lead.Country,
	})
	w.notifyAdmins(ctx, NotificationInput{
		Type:    model.NotificationNewLead,
		Title:   "New sales lead",
		Message: leadSummary(lead),
		Link:    fmt.Sprintf("%s/%d", LeadsPath, lead.ID),
	}, mail.TemplateInquiryReceived, map[string]any{
		"kind":     "lead",
		"name":     lead.Name,
		"email":    lead.Email,
		"company":  lead.Company,
		"interest": lead.Interest,
		"country":  geoip.CountryName(lead.Country),
	})
	return lead, nil
}

// AssignLead hands a lead to a team member and notifies the assignee.
func (w *Workflow) AssignLead(ctx context.Context, actor model.User, leadID, assigneeID int64) (model.Lead, error) {
	lead, err := w.inquiries.AssignLead(ctx, actor, leadID, assigneeID)
	if err != nil {
		return model.Lead{}, err
	}

	w.auditLead(ctx, "Lead assigned", &actor.ID, map[string]any{
		"lead_id":     lead.ID,
		"assignee_id": assigneeID,
	})

	assignee, err := w.users.Get(ctx, assigneeID)
	if err != nil {
		w.logger.Error("failed to load lead assignee", "error", err, "user_id", assigneeID)
		return lead, nil
	}
	w.notifyUser(ctx, assignee, NotificationInput{
		Type:    model.NotificationLeadAssigned,
		Title:   "A lead was assigned to you",
		Message: leadSummary(lead),
		Link:    fmt.Sprintf("%s/%d", LeadsPath, lead.ID),
	}, mail.TemplateLeadAssigned, map[string]any{
		"lead_name":  lead.Name,
		"lead_email": lead.Email,
		"company":    lead.Company,
	})
	return lead, nil
}

// CloseLead marks a lead as handled.
func (w *Workflow) CloseLead(ctx context.Context, actor model.User, leadID int64) (model.Lead, error) {
	lead, err := w.inquiries.CloseLead(ctx, actor, leadID)
	if err != nil {
		return model.Lead{}, err
	}
	w.auditLead(ctx, "Lead closed", &actor.ID, map[string]any{
		"lead_id": lead.ID,
	})
	return lead, nil
}

// CreateContent adds a draft to catalog.
func (w *Workflow) CreateContent(ctx context.Context, catalog *CatalogService, actor model.User, in ContentInput) (model.ContentItem, error) {
	item, err := catalog.Create(ctx, actor, in)
	if err != nil {
		return model.ContentItem{}, err
	}
	w.auditContent(ctx, "Content created", actor, item)
	return item, nil
}

// UpdateContent edits a draft in catalog.
func (w *Workflow) UpdateContent(ctx context.Context, catalog *CatalogService, actor model.User, id int64, patch ContentPatch) (model.ContentItem, error) {
	item, err := catalog.Update(ctx, actor, id, patch)
	if err != nil {
		return model.ContentItem{}, err
	}
	w.auditContent(ctx, "Content updated", actor, item)
	return item, nil
}

// PublishContent publishes a draft and tells its creator.
func (w *Workflow) PublishContent(ctx context.Context, catalog *CatalogService, actor model.User, id int64) (model.ContentItem, error) {
	item, err := catalog.Publish(ctx, actor, id)
	if err != nil {
		return model.ContentItem{}, err
	}
	w.auditContent(ctx, "Content published", actor, item)

	if item.CreatedBy == actor.ID {
		return item, nil
	}
	creator, err := w.users.Get(ctx, item.CreatedBy)
	if err != nil {
		w.logger.Warn("content creator not found, skipping notification",
			"error", err,
			"user_id", item.CreatedBy)
		return item, nil
	}
	kind := catalog.Kind()
	w.notifyUser(ctx, creator, NotificationInput{
		Type:    model.NotificationContentPublished,
		Title:   fmt.Sprintf("%s published", kind.Label),
		Message: fmt.Sprintf("%q is now live.", item.Name),
		Link:    fmt.Sprintf("/%s/%d", kind.Name, item.ID),
	}, mail.TemplateContentPublished, map[string]any{
		"kind":         kind.Name,
		"item_name":    item.Name,
		"slug":         item.Slug,
		"published_by": actor.Name,
	})
	return item, nil
}

// UnpublishContent returns an item to draft.
func (w *Workflow) UnpublishContent(ctx context.Context, catalog *CatalogService, actor model.User, id int64) (model.ContentItem, error) {
	item, err := catalog.Unpublish(ctx, actor, id)
	if err != nil {
		return model.ContentItem{}, err
	}
	w.auditContent(ctx, "Content unpublished", actor, item)
	return item, nil
}

// ArchiveContent archives an item.
func (w *Workflow) ArchiveContent(ctx context.Context, catalog *CatalogService, actor model.User, id int64) (model.ContentItem, error) {
	item, err := catalog.Archive(ctx, actor, id)
	if err != nil {
		return model.ContentItem{}, err
	}
	w.auditContent(ctx, "Content archived", actor, item)
	return item, nil
}

// DeleteContent removes an item permanently.
func (w *Workflow) DeleteContent(ctx context.Context, catalog *CatalogService, actor model.User, id int64) error {
	if err := catalog.Delete(ctx, actor, id); err != nil {
		return err
	}
	w.auditCatalog(ctx, "Content deleted", &actor.ID, map[string]any{
		"kind": catalog.Kind().Name,
		"id":   id,
	})
	return nil
}

// notifyAdmins broadcasts to the admin role and mails every active admin.
func (w *Workflow) notifyAdmins(ctx context.Context, in NotificationInput, tmpl mail.Template, data map[string]any) {
	if _, err := w.notifications.CreateForRole(ctx, in, model.RoleAdmin); err != nil {
		w.logger.Error("failed to create admin notification", "error", err, "type", in.Type)
	}

	admins, err := w.users.ListActiveAdmins(ctx)
	if err != nil {
		w.logger.Error("failed to list admins for email", "error", err, "type", in.Type)
		return
	}
	to := make([]string, 0, len(admins))
	for _, a := range admins {
		if a.Email != "" {
			to = append(to, a.Email)
		}
	}
	w.send(ctx, tmpl, to, in.Link, data)
}

// notifyUser notifies one user in-app and by email.
func (w *Workflow) notifyUser(ctx context.Context, u model.User, in NotificationInput, tmpl mail.Template, data map[string]any) {
	if _, err := w.notifications.CreateForUser(ctx, in, u.ID); err != nil {
		w.logger.Error("failed to create notification", "error", err, "type", in.Type, "user_id", u.ID)
	}
	if u.Email == "" {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["recipient_name"] = u.Name
	w.send(ctx, tmpl, []string{u.Email}, in.Link, data)
}

func (w *Workflow) send(ctx context.Context, tmpl mail.Template, to []string, link string, data map[string]any) {
	if len(to) == 0 {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["dashboard_link"] = w.dashboardLink(link)

	if err := w.mailer.Send(ctx, mail.Message{Template: tmpl, To: to, Data: data}); err != nil {
		w.logger.Warn("failed to send email", "error", err, "template", tmpl, "recipients", len(to))
	}
}

func (w *Workflow) dashboardLink(path string) string {
	if path == "" || path == "/" {
		return w.dashboardURL + "/"
	}
	return w.dashboardURL + "/" + strings.TrimLeft(path, "/")
}

func (w *Workflow) auditUser(ctx context.Context, message string, userID *int64, metadata map[string]any) {
	if w.events == nil {
		return
	}
	w.auditFailed(message, w.events.LogUserEvent(ctx, model.EventLevelInfo, message, userID, metadata))
}

func (w *Workflow) auditCatalog(ctx context.Context, message string, userID *int64, metadata map[string]any) {
	if w.events == nil {
		return
	}
	w.auditFailed(message, w.events.LogContentEvent(ctx, model.EventLevelInfo, message, userID, metadata))
}

// auditLead records a dashboard action on a lead; auditInquiry records the
// anonymous submission itself.
func (w *Workflow) auditLead(ctx context.Context, message string, userID *int64, metadata map[string]any) {
	if w.events == nil {
		return
	}
	w.auditFailed(message, w.events.LogInquiryEvent(ctx, model.EventLevelInfo, message, userID, "", metadata))
}

func (w *Workflow) auditInquiry(ctx context.Context, message, ip string, metadata map[string]any) {
	if w.events == nil {
		return
	}
	w.auditFailed(message, w.events.LogInquiryEvent(ctx, model.EventLevelInfo, message, nil, ip, metadata))
}

func (w *Workflow) auditFailed(message string, err error) {
	if err != nil {
		w.logger.Warn("failed to write audit event", "error", err, "message", message)
	}
}

func (w *Workflow) auditContent(ctx context.Context, message string, actor model.User, item model.ContentItem) {
	w.auditCatalog(ctx, message, &actor.ID, map[string]any{
		"kind":   item.Kind,
		"id":     item.ID,
		"slug":   item.Slug,
		"status": string(item.Status),
	})
}

func leadSummary(l model.Lead) string {
	if l.Company != "" {
		return fmt.Sprintf("%s from %s <%s>", l.Name, l.Company, l.Email)
	}
	return fmt.Sprintf("%s <%s>", l.Name, l.Email)
}
