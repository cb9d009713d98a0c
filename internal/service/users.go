// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/store"
	"github.com/olegiv/vitrine/internal/util"
)

// Profile carries the identity claims supplied for an authenticated subject.
type Profile struct {
	SubjectID string
	Email     string
	Name      string
	AvatarURL string
}

// UserService owns user records, their role and their activation flag.
//
// The first user ever registered becomes an active admin; everyone after
// that starts pending and inactive until an admin approves them. Gated
// operations take the acting user and fail with ErrForbidden unless the
// actor is an active admin targeting someone other than themself.
type UserService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{
		queries: store.New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Upsert registers the subject on first contact and refreshes profile fields
// on every later contact. Role and activation are never changed here.
// created reports whether a new user row was inserted.
func (s *UserService) Upsert(ctx context.Context, p Profile) (user model.User, created bool, err error) {
	p.SubjectID = strings.TrimSpace(p.SubjectID)
	if p.SubjectID == "" {
		return model.User{}, false, invalid("subject_id", "is required")
	}
	p.Email = strings.TrimSpace(p.Email)
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = p.Email
	}

	now := s.now()
	updated, err := s.refreshProfile(ctx, p, now)
	if err != nil {
		return model.User{}, false, err
	}

	if !updated {
		_, err = s.queries.InsertUserBootstrapAware(ctx, store.InsertUserBootstrapAwareParams{
			SubjectID: p.SubjectID,
			Email:     p.Email,
			Name:      p.Name,
			AvatarUrl: util.NullStringFromValue(p.AvatarURL),
			CreatedAt: now,
		})
		switch {
		case err == nil:
			created = true
		case errors.Is(err, sql.ErrNoRows):
			// Another request registered the same subject in between.
			if _, err := s.refreshProfile(ctx, p, now); err != nil {
				return model.User{}, false, err
			}
		default:
			return model.User{}, false, fmt.Errorf("inserting user: %w", err)
		}
	}

	user, err = s.GetBySubject(ctx, p.SubjectID)
	if err != nil {
		return model.User{}, false, err
	}
	return user, created, nil
}

func (s *UserService) refreshProfile(ctx context.Context, p Profile, now time.Time) (bool, error) {
	rows, err := s.queries.UpdateUserProfile(ctx, store.UpdateUserProfileParams{
		Email:     p.Email,
		Name:      p.Name,
		AvatarUrl: util.NullStringFromValue(p.AvatarURL),
		UpdatedAt: now,
		SubjectID: p.SubjectID,
	})
	if err != nil {
		return false, fmt.Errorf("updating profile: %w", err)
	}
	return rows > 0, nil
}

// Get returns the user with the given id.
func (s *UserService) Get(ctx context.Context, id int64) (model.User, error) {
	row, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return model.User{}, notFound(err, "user %d", id)
	}
	return userFromRow(row), nil
}

// GetBySubject returns the user registered for an external subject id.
func (s *UserService) GetBySubject(ctx context.Context, subjectID string) (model.User, error) {
	row, err := s.queries.GetUserBySubject(ctx, subjectID)
	if err != nil {
		return model.User{}, notFound(err, "user subject %q", subjectID)
	}
	return userFromRow(row), nil
}

// Approve grants role to a pending user and activates them.
func (s *UserService) Approve(ctx context.Context, actor model.User, id int64, role model.Role) (model.User, error) {
	if err := authorizeAdmin(actor, id, "approve user"); err != nil {
		return model.User{}, err
	}
	if !role.Assignable() {
		return model.User{}, invalid("role", "must be admin or editor")
	}

	rows, err := s.queries.ApprovePendingUser(ctx, store.ApprovePendingUserParams{
		Role:      string(role),
		UpdatedAt: s.now(),
		ID:        id,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("approving user %d: %w", id, err)
	}
	if rows == 0 {
		return model.User{}, s.explainNoop(ctx, id, "user %d is not pending")
	}
	return s.Get(ctx, id)
}

// Reject deletes a pending user. Approved users are never deleted; they are
// deactivated with ToggleActive instead. The removed record is returned.
func (s *UserService) Reject(ctx context.Context, actor model.User, id int64) (model.User, error) {
	if err := authorizeAdmin(actor, id, "reject user"); err != nil {
		return model.User{}, err
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if !user.IsPending() {
		return model.User{}, invalidState("user %d is not pending", id)
	}

	rows, err := s.queries.DeletePendingUser(ctx, id)
	if err != nil {
		return model.User{}, fmt.Errorf("deleting user %d: %w", id, err)
	}
	if rows == 0 {
		return model.User{}, s.explainNoop(ctx, id, "user %d is not pending")
	}
	return user, nil
}

// ChangeRole reassigns an approved, active user between admin and editor.
func (s *UserService) ChangeRole(ctx context.Context, actor model.User, id int64, role model.Role) (model.User, error) {
	if err := authorizeAdmin(actor, id, "change role"); err != nil {
		return model.User{}, err
	}
	if !role.Assignable() {
		return model.User{}, invalid("role", "must be admin or editor")
	}

	rows, err := s.queries.UpdateApprovedUserRole(ctx, store.UpdateApprovedUserRoleParams{
		Role:      string(role),
		UpdatedAt: s.now(),
		ID:        id,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("changing role of user %d: %w", id, err)
	}
	if rows == 0 {
		return model.User{}, s.explainNoop(ctx, id, "user %d is not an active team member")
	}
	return s.Get(ctx, id)
}

// ToggleActive suspends or restores an approved user without touching their role.
func (s *UserService) ToggleActive(ctx context.Context, actor model.User, id int64) (model.User, error) {
	if err := authorizeAdmin(actor, id, "toggle activation"); err != nil {
		return model.User{}, err
	}

	rows, err := s.queries.ToggleApprovedUserActive(ctx, store.ToggleApprovedUserActiveParams{
		UpdatedAt: s.now(),
		ID:        id,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("toggling user %d: %w", id, err)
	}
	if rows == 0 {
		return model.User{}, s.explainNoop(ctx, id, "user %d is still pending approval")
	}
	return s.Get(ctx, id)
}

// List returns every user, newest first.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return usersFromRows(rows), nil
}

// ListByRole returns the users holding role, newest first.
func (s *UserService) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	rows, err := s.queries.ListUsersByRole(ctx, string(role))
	if err != nil {
		return nil, fmt.Errorf("listing %s users: %w", role, err)
	}
	return usersFromRows(rows), nil
}

// ListPending returns users awaiting approval, newest first.
func (s *UserService) ListPending(ctx context.Context) ([]model.User, error) {
	return s.ListByRole(ctx, model.RolePending)
}

// ListActiveAdmins returns the admins that currently receive admin mail.
func (s *UserService) ListActiveAdmins(ctx context.Context) ([]model.User, error) {
	rows, err := s.queries.ListActiveUsersByRole(ctx, string(model.RoleAdmin))
	if err != nil {
		return nil, fmt.Errorf("listing admins: %w", err)
	}
	return usersFromRows(rows), nil
}

// Count returns the number of registered users.
func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.queries.CountUsers(ctx)
}

// explainNoop distinguishes a missing user from one in the wrong state after
// a conditional update matched no rows.
func (s *UserService) explainNoop(ctx context.Context, id int64, stateFormat string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return invalidState(stateFormat, id)
}

func authorizeAdmin(actor model.User, targetID int64, action string) error {
	if !actor.CanAdminister() {
		return forbidden(action)
	}
	if actor.ID == targetID {
		return forbidden(action + " on self")
	}
	return nil
}

func userFromRow(u store.User) model.User {
	return model.User{
		ID:        u.ID,
		SubjectID: u.SubjectID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarUrl.String,
		Role:      model.Role(u.Role),
		Active:    u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func usersFromRows(rows []store.User) []model.User {
	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, userFromRow(r))
	}
	return users
}
