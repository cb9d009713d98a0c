// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/vitrine/internal/mail"
	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/testutil"
)

// fakeMailer records messages instead of delivering them.
type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

// fakeLocator resolves every address to one country.
type fakeLocator struct{ country string }

func (l fakeLocator) LookupCountry(string) string { return l.country }

type testServices struct {
	db            *sql.DB
	users         *UserService
	notifications *NotificationService
	inquiries     *InquiryService
	events        *EventService
	products      *CatalogService
	gallery       *CatalogService
	mailer        *fakeMailer
	workflow      *Workflow
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db := testutil.TestDB(t)
	logger := testutil.TestLoggerSilent()

	s := &testServices{
		db:            db,
		users:         NewUserService(db),
		notifications: NewNotificationService(db),
		inquiries:     NewInquiryService(db, fakeLocator{country: "DE"}),
		events:        NewEventService(db, logger),
		products:      NewCatalogService(db, model.ProductKind, nil, logger),
		gallery:       NewCatalogService(db, model.GalleryKind, nil, logger),
		mailer:        &fakeMailer{},
	}
	s.workflow = NewWorkflow(s.users, s.notifications, s.inquiries, s.events, s.mailer, "https://dash.example.com/", logger)
	return s
}

// register signs a subject up through the user directory.
func (s *testServices) register(t *testing.T, subject string) model.User {
	t.Helper()
	u, _, err := s.users.Upsert(context.Background(), Profile{
		SubjectID: subject,
		Email:     subject + "@example.com",
		Name:      "User " + subject,
	})
	require.NoError(t, err)
	return u
}

// bootstrap registers the first admin.
func (s *testServices) bootstrap(t *testing.T) model.User {
	t.Helper()
	admin := s.register(t, "admin")
	require.Equal(t, model.RoleAdmin, admin.Role)
	return admin
}

// member registers a subject and has admin approve it with role.
func (s *testServices) member(t *testing.T, admin model.User, subject string, role model.Role) model.User {
	t.Helper()
	u := s.register(t, subject)
	u, err := s.users.Approve(context.Background(), admin, u.ID, role)
	require.NoError(t, err)
	return u
}

// reload returns the current record of u.
func (s *testServices) reload(t *testing.T, u model.User) model.User {
	t.Helper()
	fresh, err := s.users.Get(context.Background(), u.ID)
	require.NoError(t, err)
	return fresh
}

func (s *testServices) product(t *testing.T, actor model.User, name string) model.ContentItem {
	t.Helper()
	item, err := s.products.Create(context.Background(), actor, ContentInput{
		Name:     name,
		Category: "residential",
		ImageURL: "https://cdn.example.com/product.jpg",
	})
	require.NoError(t, err)
	return item
}

func (s *testServices) countEvents(t *testing.T, category, message string) int {
	t.Helper()
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM events WHERE category = ? AND message = ?", category, message,
	).Scan(&n)
	require.NoError(t, err, fmt.Sprintf("counting %s events", category))
	return n
}
