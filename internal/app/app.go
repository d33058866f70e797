package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/matchday-tipster/external/jobqueue"
	"github.com/riskibarqy/matchday-tipster/external/sportmonks"
	"github.com/riskibarqy/matchday-tipster/external/telegram"
	"github.com/riskibarqy/matchday-tipster/internal/config"
	contentgen "github.com/riskibarqy/matchday-tipster/internal/content"
	"github.com/riskibarqy/matchday-tipster/internal/domain/settings"
	"github.com/riskibarqy/matchday-tipster/internal/infrastructure/fixturecache"
	"github.com/riskibarqy/matchday-tipster/internal/infrastructure/settingsstore"
	"github.com/riskibarqy/matchday-tipster/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/matchday-tipster/internal/platform/id"
	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
	"github.com/riskibarqy/matchday-tipster/internal/scheduler"
	"github.com/riskibarqy/matchday-tipster/internal/usecase"
)

// App holds the wired poster. The CLI drives it directly; Serve adds the
// HTTP surface and the cron grid on top.
type App struct {
	cfg    config.Config
	logger *logging.Logger

	Sender     *telegram.Sender
	Poster     *usecase.PosterService
	Driver     *scheduler.Driver
	Automation *usecase.AutomationService

	closeJournal func() error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := cfg.RequireDelivery(); err != nil {
		return nil, err
	}

	fixtures := fixturecache.New(
		sportmonks.NewClient(sportmonks.ClientConfig{
			BaseURL:        cfg.SportMonksBaseURL,
			Token:          cfg.SportMonksToken,
			LeagueIDs:      cfg.SportMonksLeagueIDs,
			Lookahead:      cfg.SportMonksLookahead,
			Location:       cfg.Location,
			Timeout:        cfg.SportMonksTimeout,
			MaxRetries:     cfg.SportMonksMaxRetries,
			RatePerMinute:  cfg.SportMonksRatePerMinute,
			Logger:         logger,
			CircuitBreaker: cfg.SportMonksCircuit,
		}),
		cfg.SportMonksCacheTTL,
		cfg.Location,
	)

	base := baseSettings(cfg)
	state := usecase.NewSchedulerState(base)
	generator := contentgen.NewTemplateGenerator(state, contentgen.Config{Location: cfg.Location})

	if err := telegram.InstallLogger(logger); err != nil {
		logger.Warn("install telegram logger failed", "error", err)
	}
	sender, err := telegram.NewSender(telegram.SenderConfig{
		Token:          cfg.TelegramBotToken,
		Channel:        cfg.TelegramChannel,
		APIEndpoint:    cfg.TelegramAPIEndpoint,
		Timeout:        cfg.TelegramTimeout,
		RatePerMinute:  cfg.TelegramRatePerMinute,
		MaxRetries:     cfg.TelegramMaxRetries,
		Logger:         logger,
		CircuitBreaker: cfg.TelegramCircuit,
	})
	if err != nil {
		return nil, fmt.Errorf("build telegram sender: %w", err)
	}

	journal, closeJournal, err := openJournal(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	queue := usecase.NewNoopJobQueue()
	if cfg.QStashEnabled {
		publisher, err := jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker:   cfg.QStashCircuit,
		}, logger)
		if err != nil {
			_ = closeJournal()
			return nil, fmt.Errorf("build qstash publisher: %w", err)
		}
		queue = publisher
	}

	poster := usecase.NewPosterService(
		state,
		fixtures,
		generator,
		sender,
		settingsstore.NewFileProvider(cfg.SettingsFile, base),
		journal,
		queue,
		idgen.NewUUIDGenerator("dlv"),
		usecase.PosterConfig{
			Location:               cfg.Location,
			ResultsHour:            cfg.ResultsHour,
			FixedWindowMin:         cfg.FixedWindowMin,
			FixedWindowMax:         cfg.FixedWindowMax,
			CallTimeout:            cfg.CallTimeout,
			AutoPauseAfterFailures: cfg.AutoPauseAfterFailures,
			WakeupsEnabled:         cfg.QStashEnabled,
		},
		logger,
	)
	// Manual runs may happen before Start, so the settings file is applied
	// up front rather than on the first start.
	poster.ReloadSettings(ctx)

	driver, err := scheduler.New(state, poster.HandleTaskFailure, scheduler.Config{
		Location:    cfg.Location,
		Workers:     cfg.SchedulerWorkers,
		TaskTimeout: cfg.SchedulerTaskTimeout,
	}, logger)
	if err != nil {
		_ = closeJournal()
		return nil, err
	}
	if err := scheduler.Register(driver, scheduler.BuildTasks(poster, cfg.Schedules)); err != nil {
		_ = closeJournal()
		return nil, fmt.Errorf("register scheduled tasks: %w", err)
	}

	return &App{
		cfg:          cfg,
		logger:       logger,
		Sender:       sender,
		Poster:       poster,
		Driver:       driver,
		Automation:   usecase.NewAutomationService(poster, driver, journal, logger),
		closeJournal: closeJournal,
	}, nil
}

func (a *App) Config() config.Config {
	return a.cfg
}

// Handler builds the HTTP surface over the automation gateway.
func (a *App) Handler() http.Handler {
	handler := httpapi.NewHandler(a.Automation, a.Driver, a.logger)
	return httpapi.NewRouter(handler, httpapi.RouterConfig{
		AdminToken:         a.cfg.AdminToken,
		InternalJobToken:   a.cfg.InternalJobToken,
		CORSAllowedOrigins: a.cfg.CORSAllowedOrigins,
	}, a.logger)
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Driver != nil {
		if err := a.Driver.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown scheduler: %w", err))
		}
	}
	if a.closeJournal != nil {
		if err := a.closeJournal(); err != nil {
			errs = append(errs, fmt.Errorf("close delivery journal: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Serve runs the cron grid and the HTTP server until ctx is done, then
// drains both.
func (a *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadTimeout:       a.cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      a.cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return fmt.Errorf("http server addr cannot be empty")
	}

	a.Driver.Start()
	if a.cfg.SchedulerAutoStart {
		if _, err := a.Automation.Start(ctx); err != nil {
			a.logger.Warn("automation auto start failed", "error", err)
		}
	} else {
		a.logger.Info("automation waiting for manual start", "reason", "SCHEDULER_AUTO_START=false")
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
	defer cancel()

	a.Automation.Stop(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("graceful shutdown failed: %w", err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	a.logger.Info("http server stopped")

	return runErr
}

// baseSettings lays the env defaults over settings.Defaults. The settings
// file, when present, is read on top of this on every reload.
func baseSettings(cfg config.Config) settings.Settings {
	base := settings.Defaults()
	if cfg.WebsiteURL != "" {
		base.WebsiteURL = cfg.WebsiteURL
	}
	if cfg.HoursBeforeMatch > 0 {
		base.AutoPosting.HoursBeforeMatch = cfg.HoursBeforeMatch
	}
	base.AutoPosting.MinGapBetweenPosts = cfg.MinGapMinutes
	base.AutoPosting.DynamicTiming = cfg.DynamicTiming
	return base
}
