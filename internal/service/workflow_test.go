// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/vitrine/internal/mail"
	"github.com/olegiv/vitrine/internal/model"
)

func TestWorkflowRegister(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	admin, created, err := s.workflow.Register(ctx, Profile{SubjectID: "root", Email: "root@example.com", Name: "Root"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.Empty(t, s.mailer.messages(), "bootstrap sends no mail")
	assert.Equal(t, 1, s.countEvents(t, model.EventCategoryUser, "Bootstrap admin registered"))

	pending, created, err := s.workflow.Register(ctx, Profile{SubjectID: "new", Email: "new@example.com", Name: "Newbie"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.RolePending, pending.Role)

	notes, err := s.notifications.GetForSubject(ctx, ViewerOf(admin), 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationUserPending, notes[0].Type)
	assert.True(t, notes[0].IsBroadcast())
	assert.Equal(t, PendingUsersPath, notes[0].Link)

	sent := s.mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, mail.TemplateUserPending, sent[0].Template)
	assert.Equal(t, []string{"root@example.com"}, sent[0].To)
	assert.Equal(t, "https://dash.example.com/users/pending", sent[0].Data["dashboard_link"])
	assert.Equal(t, "Newbie", sent[0].Data["name"])

	// A returning user triggers nothing.
	_, created, err = s.workflow.Register(ctx, Profile{SubjectID: "new", Email: "new@example.com", Name: "Newbie"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, s.mailer.messages(), 1)

	count, err := s.notifications.UnreadCount(ctx, ViewerOf(admin))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// Scenario A: bootstrap admin approves a signup, who then has an unread
// notification addressed to them.
func TestWorkflowApproveUser(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	user1, _, err := s.workflow.Register(ctx, Profile{SubjectID: "u1", Email: "u1@example.com"})
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, user1.Role)
	require.True(t, user1.Active)

	user2, _, err := s.workflow.Register(ctx, Profile{SubjectID: "u2", Email: "u2@example.com", Name: "Two"})
	require.NoError(t, err)
	require.Equal(t, model.RolePending, user2.Role)
	require.False(t, user2.Active)

	user2, err = s.workflow.ApproveUser(ctx, user1, user2.ID, model.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, model.RoleEditor, user2.Role)
	assert.True(t, user2.Active)

	notes, err := s.notifications.GetForSubject(ctx, ViewerOf(user2), 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationUserApproved, notes[0].Type)
	assert.False(t, notes[0].Read)
	assert.False(t, notes[0].IsBroadcast())

	sent := s.mailer.messages()
	require.Len(t, sent, 2)
	approval := sent[1]
	assert.Equal(t, mail.TemplateUserApproved, approval.Template)
	assert.Equal(t, []string{"u2@example.com"}, approval.To)
	assert.Equal(t, "editor", approval.Data["role"])
	assert.Equal(t, "Two", approval.Data["recipient_name"])
	assert.Equal(t, "https://dash.example.com/", approval.Data["dashboard_link"])

	assert.Equal(t, 1, s.countEvents(t, model.EventCategoryUser, "User approved"))

	_, err = s.workflow.ApproveUser(ctx, user1, user2.ID, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Len(t, s.mailer.messages(), 2, "failed transitions send nothing")
}

func TestWorkflowMailFailureIsSwallowed(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	s.mailer.err = errors.New("relay down")

	admin, _, err := s.workflow.Register(ctx, Profile{SubjectID: "a", Email: "a@example.com"})
	require.NoError(t, err)
	pending, _, err := s.workflow.Register(ctx, Profile{SubjectID: "b", Email: "b@example.com"})
	require.NoError(t, err)

	approved, err := s.workflow.ApproveUser(ctx, admin, pending.ID, model.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, model.RoleEditor, approved.Role)

	notes, err := s.notifications.GetForSubject(ctx, ViewerOf(approved), 0)
	require.NoError(t, err)
	assert.Len(t, notes, 1, "notification persists even when mail fails")
}

func TestWorkflowUserAdministration(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	admin := s.bootstrap(t)
	editor := s.member(t, admin, "ed", model.RoleEditor)
	pending := s.register(t, "p1")

	_, err := s.workflow.RejectUser(ctx, admin, pending.ID)
	require.NoError(t, err)

	promoted, err := s.workflow.ChangeUserRole(ctx, admin, editor.ID, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, promoted.Role)

	off, err := s.workflow.ToggleUserActive(ctx, admin, editor.ID)
	require.NoError(t, err)
	assert.False(t, off.Active)

	_, err = s.workflow.ToggleUserActive(ctx, admin, editor.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, s.countEvents(t, model.EventCategoryUser, "User rejected"))
	assert.Equal(t, 1, s.countEvents(t, model.EventCategoryUser, "User role changed"))
	assert.Equal(t, 1, s.countEvents(t, model.EventCategoryUser, "User deactivated"))
	assert.Equal(t, 1, s.countEvents(t, model.EventCategoryUser, "User reactivated"))

	_, err = s.workflow.RejectUser(ctx, editor, admin.ID)
	assert.ErrorIs(t, err, ErrForbidden, "stale actor record still fails closed")
}

// Scenario B: an editor drafts a product, cannot publish it, and an admin
// publishes it; the editor is told.
func TestWorkflowPublishContent(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	user1 := s.bootstrap(t)
	user2 := s.member(t, user1, "ed", model.RoleEditor)

	p, err := s.workflow.CreateContent(ctx, s.products, user2, ContentInput{
		Name:     "Walnut Door",
		Category: "residential",
		ImageURL: "/media/walnut.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ContentStatusDraft, p.Status)

	_, err = s.workflow.PublishContent(ctx, s.products, user2, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	published, err := s.workflow.PublishContent(ctx, s.products, user1, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContentStatusPublished, published.Status)
	require.NotNil(t, published.PublishedBy)
	assert.Equal(t, user1.ID, *published.PublishedBy)

	notes, err := s.notifications.GetForSubject(ctx, ViewerOf(user2), 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationContentPublished, notes[0].Type)
	assert.Equal(t, "Product published", notes[0].Title)

	sent := s.mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, mail.TemplateContentPublished, sent[0].Template)
	assert.Equal(t, []string{"ed@example.com"}, sent[0].To)
	assert.Equal(t, "walnut-door", sent[0].Data["slug"])

	assert.Equal(t, 1, s.countEvents(t, model.EventCategoryContent, "Content created"))
	assert.Equal(t, 1, s.countEvents(t, model.EventCategoryContent, "Content published"))
}

func TestWorkflowPublishOwnContentSkipsNotification(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	admin := s.bootstrap(t)
	item := s.product(t, admin, "Own")

	_, err := s.workflow.PublishContent(ctx, s.products, admin, item.ID)
	require.NoError(t, err)

	notes, err := s.notifications.GetForSubject(ctx, ViewerOf(admin), 0)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Empty(t, s.mailer.messages())
}

func TestWorkflowContentLifecycleAudit(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	admin := s.bootstrap(t)

	item, err := s.workflow.CreateContent(ctx, s.gallery, admin, ContentInput{
		Name:     "Showroom Opening",
		Category: "events",
		ImageURL: "https://cdn.example.com/opening.jpg",
	})
	require.NoError(t, err)

	_, err = s.workflow.UpdateContent(ctx, s.gallery, admin, item.ID, ContentPatch{Description: ptr("Opening night")})
	require.NoError(t, err)
	_, err = s.workflow.PublishContent(ctx, s.gallery, admin, item.ID)
	require.NoError(t, err)
	_, err = s.workflow.UnpublishContent(ctx, s.gallery, admin, item.ID)
	require.NoError(t, err)
	_, err = s.workflow.ArchiveContent(ctx, s.gallery, admin, item.ID)
	require.NoError(t, err)
	require.NoError(t, s.workflow.DeleteContent(ctx, s.gallery, admin, item.ID))

	for _, msg := range []string{
		"Content created", "Content updated", "Content published",
		"Content unpublished", "Content archived", "Content deleted",
	} {
		assert.Equal(t, 1, s.countEvents(t, model.EventCategoryContent, msg), msg)
	}

	assert.ErrorIs(t, s.workflow.DeleteContent(ctx, s.gallery, admin, item.ID), ErrNotFound)
}

// Scenario C: a role broadcast about a new lead is seen by both admins and
// read state is tracked per admin.
func TestWorkflowCaptureLead(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	admin1 := s.bootstrap(t)
	admin2 := s.member(t, admin1, "second", model.RoleAdmin)
	editor := s.member(t, admin1, "ed", model.RoleEditor)

	lead, err := s.workflow.CaptureLead(ctx, LeadInput{
		Name:    "Bob",
		Email:   "bob@acme.example",
		Company: "ACME",
	}, RequestMeta{IPAddress: "203.0.113.9", UserAgent: firefoxUA})
	require.NoError(t, err)

	var noteID int64
	for _, admin := range []model.User{admin1, admin2} {
		notes, err := s.notifications.GetForSubject(ctx, ViewerOf(admin), 0)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, model.NotificationNewLead, notes[0].Type)
		assert.Equal(t, "Bob from ACME <bob@acme.example>", notes[0].Message)
		noteID = notes[0].ID
	}

	editorNotes, err := s.notifications.GetForSubject(ctx, ViewerOf(editor), 0)
	require.NoError(t, err)
	assert.Empty(t, editorNotes)

	require.NoError(t, s.notifications.MarkRead(ctx, ViewerOf(admin1), noteID))

	unread1, err := s.notifications.UnreadCount(ctx, ViewerOf(admin1))
	require.NoError(t, err)
	unread2, err := s.notifications.UnreadCount(ctx, ViewerOf(admin2))
	require.NoError(t, err)
	assert.Zero(t, unread1)
	assert.Equal(t, int64(1), unread2)

	sent := s.mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, mail.TemplateInquiryReceived, sent[0].Template)
	assert.ElementsMatch(t, []string{"admin@example.com", "second@example.com"}, sent[0].To)
	assert.Equal(t, "lead", sent[0].Data["kind"])
	assert.Equal(t, "Germany", sent[0].Data["country"])

	var ip string
	require.NoError(t, s.db.QueryRow(
		"SELECT ip_address FROM events WHERE category = ? AND message = ?",
		model.EventCategoryInquiry, "Lead captured",
	).Scan(&ip))
	assert.Equal(t, "203.0.113.9", ip)
	assert.Equal(t, "DE", lead.Country)
}

func TestWorkflowCaptureContact(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	admin := s.bootstrap(t)

	_, err := s.workflow.CaptureContact(ctx, ContactInput{Name: "", Email: "x@example.com", Message: "hi"}, RequestMeta{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, s.mailer.messages())

	contact, err := s.workflow.CaptureContact(ctx, ContactInput{
		Name:    "Jane",
		Email:   "jane@example.com",
		Message: "Do you ship to Austria?",
	}, RequestMeta{IPAddress: "203.0.113.10"})
	require.NoError(t, err)

	notes, err := s.notifications.GetForSubject(ctx, ViewerOf(admin), 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationNewContact, notes[0].Type)

	sent := s.mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Do you ship to Austria?", sent[0].Data["message"])
	assert.Equal(t, "Germany", sent[0].Data["country"])
	assert.Contains(t, sent[0].Data["dashboard_link"], "/contacts/")
	assert.Equal(t, 1, s.countEvents(t, model.EventCategoryInquiry, "Contact form submitted"))
	assert.NotZero(t, contact.ID)
}

func TestWorkflowAssignLead(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	admin := s.bootstrap(t)
	editor := s.member(t, admin, "ed", model.RoleEditor)

	lead, err := s.inquiries.CaptureLead(ctx, LeadInput{Name: "Bob", Email: "bob@acme.example"}, RequestMeta{})
	require.NoError(t, err)

	assigned, err := s.workflow.AssignLead(ctx, admin, lead.ID, editor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusAssigned, assigned.Status)

	notes, err := s.notifications.GetForSubject(ctx, ViewerOf(editor), 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationLeadAssigned, notes[0].Type)

	sent := s.mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, mail.TemplateLeadAssigned, sent[0].Template)
	assert.Equal(t, []string{"ed@example.com"}, sent[0].To)

	closed, err := s.workflow.CloseLead(ctx, editor, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusClosed, closed.Status)
	assert.Equal(t, 1, s.countEvents(t, model.EventCategoryInquiry, "Lead assigned"))
	assert.Equal(t, 1, s.countEvents(t, model.EventCategoryInquiry, "Lead closed"))

	_, err = s.workflow.AssignLead(ctx, editor, lead.ID, editor.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestNewWorkflow_NilMailer(t *testing.T) {
	s := newTestServices(t)
	w := NewWorkflow(s.users, s.notifications, s.inquiries, nil, nil, "", nil)

	admin, _, err := w.Register(context.Background(), Profile{SubjectID: "a", Email: "a@example.com"})
	require.NoError(t, err)
	_, _, err = w.Register(context.Background(), Profile{SubjectID: "b", Email: "b@example.com"})
	require.NoError(t, err)

	count, err := s.notifications.UnreadCount(context.Background(), ViewerOf(admin))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "/users/pending", w.dashboardLink(PendingUsersPath))
}
