// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/scheduler"
	"github.com/olegiv/vitrine/internal/service"
)

const timeLayout = "2006-01-02 15:04"

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", a.cfg.DBPath)
			return nil
		},
	}
}

func newPurgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete notifications and audit events past their retention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			retention := scheduler.Retention{
				Notifications: a.cfg.NotificationRetention(),
				Events:        a.cfg.EventRetention(),
			}
			res, err := scheduler.Purge(cmd.Context(),
				service.NewNotificationService(a.db),
				service.NewEventService(a.db, a.logger),
				retention)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "purged %d notifications and %d events\n", res.Notifications, res.Events)
			return err
		},
	}
}

func newUsersCommand() *cobra.Command {
	var roleFlag string

	users := &cobra.Command{
		Use:   "users",
		Short: "Inspect registered users",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List users, optionally filtered by role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var role model.Role
			if roleFlag != "" {
				r, ok := model.ParseRole(roleFlag)
				if !ok {
					return fmt.Errorf("unknown role %q (want pending, editor or admin)", roleFlag)
				}
				role = r
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			return listUsers(cmd.Context(), cmd.OutOrStdout(), service.NewUserService(a.db), role)
		},
	}
	list.Flags().StringVar(&roleFlag, "role", "", "Only list users with this role")
	users.AddCommand(list)
	return users
}

func listUsers(ctx context.Context, w io.Writer, svc *service.UserService, role model.Role) error {
	var (
		users []model.User
		err   error
	)
	if role != "" {
		users, err = svc.ListByRole(ctx, role)
	} else {
		users, err = svc.List(ctx)
	}
	if err != nil {
		return err
	}
	if len(users) == 0 {
		_, _ = fmt.Fprintln(w, "no users")
		return nil
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			strconv.FormatInt(u.ID, 10),
			u.Email,
			u.Name,
			string(u.Role),
			yesNo(u.Active),
			u.CreatedAt.Local().Format(timeLayout),
		})
	}
	_, _ = fmt.Fprintln(w, renderTable(
		[]string{"ID", "Email", "Name", "Role", "Active", "Created"},
		rows,
		[]columnAlignment{alignRight},
	))
	return nil
}

func newJobsCommand() *cobra.Command {
	jobs := &cobra.Command{
		Use:   "jobs",
		Short: "Show scheduled background jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withScheduler(func(sched *scheduler.Scheduler) error {
				writeJobs(cmd.OutOrStdout(), sched.Jobs())
				return nil
			})
		},
	}
	run := &cobra.Command{
		Use:   "run <job>",
		Short: "Run one background job now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScheduler(func(sched *scheduler.Scheduler) error {
				if err := sched.TriggerNow(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "job %s finished\n", args[0])
				return nil
			})
		},
	}
	jobs.AddCommand(run)
	return jobs
}

// withScheduler builds the same job set as serve and hands it to fn.
func withScheduler(fn func(*scheduler.Scheduler) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	geo := a.openGeoIP()
	defer func() { _ = geo.Close() }()

	sched, err := newScheduler(a, service.NewNotificationService(a.db), service.NewEventService(a.db, a.logger), geo)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	return fn(sched)
}

func newEventsCommand() *cobra.Command {
	var (
		category string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the newest audit events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if category != "" && !model.IsEventCategory(category) {
				return fmt.Errorf("unknown category %q (want one of %s)", category, strings.Join(model.EventCategories, ", "))
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			events, err := service.NewEventService(a.db, a.logger).ListEvents(cmd.Context(), category, limit)
			if err != nil {
				return err
			}
			writeEvents(cmd.OutOrStdout(), events)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only show events in this category")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events to show (max 100)")
	return cmd
}

func writeEvents(w io.Writer, events []model.Event) {
	if len(events) == 0 {
		_, _ = fmt.Fprintln(w, "no events")
		return
	}

	rows := make([][]string, 0, len(events))
	for _, e := range events {
		user := "-"
		if e.UserID != nil {
			user = strconv.FormatInt(*e.UserID, 10)
		}
		rows = append(rows, []string{
			e.CreatedAt.Local().Format(timeLayout),
			e.Level,
			e.Category,
			e.Message,
			user,
			e.IPAddress,
		})
	}
	_, _ = fmt.Fprintln(w, renderTable(
		[]string{"Time", "Level", "Category", "Message", "User", "IP"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
}

func writeJobs(w io.Writer, jobs []scheduler.JobInfo) {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{j.Name, j.Schedule, formatTime(j.NextRun), j.Description})
	}
	_, _ = fmt.Fprintln(w, renderTable([]string{"Job", "Schedule", "Next run", "Description"}, rows, nil))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
