package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/santurist/santurist/internal/app"
	"github.com/santurist/santurist/internal/config"
	"github.com/santurist/santurist/internal/notify"
	"github.com/santurist/santurist/internal/onboarding"
	"github.com/santurist/santurist/internal/retention"
)

const auditRetentionDays = 365

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		os.Exit(runAdmin(os.Args[2:]))
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	mailer := notify.NewMailer(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom, cfg.MailTimeoutMS)

	cronScheduler, err := setupCron(cfg, application.DB, mailer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup cron: %v\n", err)
		os.Exit(1)
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- application.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server error")
			os.Exit(1)
		}
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := application.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
			os.Exit(1)
		}
	}
}

// setupCron schedules the onboarding reminder sweep and the nightly
// maintenance job. Reminders run hourly so every day-threshold is hit even if
// one run fails; the sweep's own dedupe keeps reruns quiet.
func setupCron(cfg *config.Config, pool *pgxpool.Pool, mailer *notify.Mailer) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	reminderSchedule := "0 * * * *"
	maintenanceSchedule := "0 3 * * *"
	if cfg.IsDev() {
		reminderSchedule = "* * * * *"
		maintenanceSchedule = "*/5 * * * *"
	}

	_, err := c.AddFunc(reminderSchedule, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("Reminder sweep panicked")
			}
		}()

		ctx := context.Background()
		if _, err := onboarding.SweepReminders(ctx, pool, mailer, time.Now().UTC()); err != nil {
			log.Error().Err(err).Msg("Reminder sweep failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}

	_, err = c.AddFunc(maintenanceSchedule, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("Maintenance job panicked")
			}
		}()

		ctx := context.Background()
		if err := retention.RunMaintenanceJob(ctx, pool, auditRetentionDays); err != nil {
			log.Error().Err(err).Msg("Maintenance job failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule maintenance job: %w", err)
	}

	return c, nil
}
