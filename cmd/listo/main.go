package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/sandeepkv93/listo/internal/apiclient"
	"github.com/sandeepkv93/listo/internal/config"
	"github.com/sandeepkv93/listo/internal/logging"
	"github.com/sandeepkv93/listo/internal/scheduler"
	"github.com/sandeepkv93/listo/internal/storage"
	"github.com/sandeepkv93/listo/internal/store"
	"github.com/sandeepkv93/listo/internal/update"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "listo failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg := config.RuntimeConfigFromEnv(config.DefaultRuntimeConfig())

	logCloser, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logCloser.Close()

	repo, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	session := apiclient.NewSession(repo)
	if err := session.Restore(context.Background()); err != nil {
		log.Warn().Err(err).Msg("restore session")
	}
	client := apiclient.New(session, apiclient.Options{
		BaseURL:  cfg.APIBaseURL,
		Timeout:  cfg.RequestTimeout,
		Location: time.Local,
	})

	notes := store.NewLog(store.DefaultLogLimit)
	tasks := store.NewTaskStore(client, notes)

	engine := scheduler.NewEngine(cfg.SchedulerBuffer)
	engine.Start()
	defer engine.Stop()

	var desktop update.DesktopNotifier = update.NoopDesktopNotifier{}
	if cfg.DesktopNotifications {
		desktop = update.ExecDesktopNotifier{}
	}

	log.Info().Str("api", cfg.APIBaseURL).Bool("signed_in", session.Authenticated()).Msg("starting listo")
	program := tea.NewProgram(update.NewModel(update.Deps{
		Config:    cfg,
		Client:    client,
		Tasks:     tasks,
		Notes:     notes,
		Scheduler: engine,
		Repo:      repo,
		Desktop:   desktop,
	}), tea.WithAltScreen())

	session.OnUnauthorized(func() { program.Send(update.SessionExpiredMsg{}) })
	client.OnNetworkChange(func(online bool) { program.Send(update.NetworkStatusMsg{Online: online}) })

	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}
