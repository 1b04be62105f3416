// Command devserver runs the sandbox StudySphere backend the terminal client
// can be pointed at during development.
package main

import (
	"log"
	"time"

	"github.com/Wal-20/studysphere-cli/internal/api"
	"github.com/Wal-20/studysphere-cli/internal/config"
	"github.com/Wal-20/studysphere-cli/internal/cron"
	"github.com/Wal-20/studysphere-cli/internal/logger"
	"github.com/Wal-20/studysphere-cli/internal/repositories"
)

func main() {
	logger.SetPrefix("devserver")

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := config.InitDB(cfg.DatabaseDSN, false)
	if err != nil {
		log.Fatal(err)
	}
	if err := repositories.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := repositories.SeedCourses(db); err != nil {
		log.Fatalf("seed courses: %v", err)
	}

	srv := api.NewServer(cfg, db, nil)
	defer srv.Close()

	jobs, err := cron.StartCronJobs(
		cron.Job{
			Name:  "purgeReadNotifications",
			Every: 24 * time.Hour,
			Run: func() error {
				n, err := srv.Svcs.Notifications.PurgeRead()
				if n > 0 {
					logger.Infof("purged %d read notifications", n)
				}
				return err
			},
		},
		cron.Job{
			Name:  "sessionReminders",
			Every: time.Minute,
			Run: func() error {
				n, err := srv.Svcs.Calendar.SendReminders(cfg.ReminderLead)
				if n > 0 {
					logger.Infof("sent reminders for %d sessions", n)
				}
				return err
			},
		},
	)
	if err != nil {
		log.Fatalf("cron: %v", err)
	}
	defer jobs.Stop()

	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
