// Package tui wires the terminal client together: the API client, the
// app shell and the background jobs that feed it.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Wal-20/studysphere-cli/internal/config"
	"github.com/Wal-20/studysphere-cli/internal/cron"
	"github.com/Wal-20/studysphere-cli/internal/logger"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/state"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

// Run starts the terminal client and blocks until the user quits.
func Run(cfg config.Client) error {
	logFile, err := tea.LogToFile(cfg.LogPath, "")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger.SetPrefix("client")

	sessionPath := cfg.SessionPath
	if sessionPath == "" {
		sessionPath = utils.SessionPath()
	}

	apiClient := client.NewAPIClient(cfg)
	program := tea.NewProgram(models.NewAppModel(apiClient, sessionPath), tea.WithAltScreen())

	scheduler, err := cron.StartCronJobs(backgroundJobs(cfg, apiClient, program.Send, state.NewReminderTracker())...)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	logger.Infof("studysphere client started against %s", cfg.ServerURL)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

// backgroundJobs polls the unread count and raises session reminders.
// Both skip while nobody is signed in.
func backgroundJobs(cfg config.Client, api *client.APIClient, send func(tea.Msg), reminders *state.ReminderTracker) []cron.Job {
	signedIn := func() bool {
		return api.Session().Valid(time.Now())
	}
	return []cron.Job{
		{
			Name:  "notification-poll",
			Every: cfg.NotificationPoll,
			Delay: true,
			Run: func() error {
				if !signedIn() {
					return nil
				}
				list, err := api.Notifications(api.CurrentUser().ID)
				if err != nil {
					return err
				}
				unread := 0
				for _, n := range list {
					if !n.IsRead {
						unread++
					}
				}
				send(models.UnreadCountMsg{Count: unread})
				return nil
			},
		},
		{
			Name:  "session-reminders",
			Every: time.Minute,
			Delay: true,
			Run: func() error {
				if !signedIn() {
					return nil
				}
				events, err := api.UpcomingEvents()
				if err != nil {
					return err
				}
				if due := reminders.Due(events, time.Now(), cfg.ReminderLead); len(due) > 0 {
					send(models.ReminderMsg{Events: due})
				}
				return nil
			},
		},
	}
}
