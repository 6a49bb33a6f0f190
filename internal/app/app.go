// Package app wires the homework bot together: config, logging, the
// Telegram adapter, the optional delivery journal, and the poll loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/altmanhellen/homework-bot/internal/adapters/telegram"
	"github.com/altmanhellen/homework-bot/internal/config"
	"github.com/altmanhellen/homework-bot/internal/poller"
	"github.com/altmanhellen/homework-bot/internal/practicum"
	"github.com/altmanhellen/homework-bot/internal/storage"
	logx "github.com/altmanhellen/homework-bot/pkg/logx"
)

type App struct {
	cfgPath string
	cfg     *config.Config

	logSvc  *logx.Service
	log     logx.Logger
	adapter *telegram.Adapter
	store   storage.Store
	poller  *poller.Service

	schedule poller.Schedule

	// lastBeat is the unix-nano time of the last completed iteration,
	// consulted by the systemd watchdog pinger.
	lastBeat atomic.Int64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New loads and validates configuration and constructs every component.
// A missing credential surfaces here, before anything starts.
func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	adapter, err := telegram.New(telegram.Config{Token: cfg.Telegram.Token})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	logSvc, log := logx.New(logxConfig(cfg.Logging), adapter)
	logSvc.SetTelegramTarget(cfg.Telegram.ChatID, cfg.Logging.Telegram.ThreadID)

	httpTimeout, err := config.ParseDurationOrDefault("practicum.http_timeout", cfg.Practicum.HTTPTimeout, 15*time.Second)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	client, err := practicum.NewClient(practicum.Config{
		Endpoint: cfg.Practicum.Endpoint,
		Token:    cfg.Practicum.Token,
		Timeout:  httpTimeout,
	})
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("practicum: %w", err)
	}

	schedule, err := poller.ParseSchedule(cfg.Poll.Schedule)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	var store storage.Store
	if cfg.Storage != nil {
		busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
		if err != nil {
			_ = logSvc.Close()
			return nil, err
		}
		store, err = storage.Open(storage.Config{
			Driver:      cfg.Storage.Driver,
			Path:        cfg.Storage.Path,
			BusyTimeout: busy,
		}, log)
		if err != nil {
			_ = logSvc.Close()
			return nil, fmt.Errorf("storage: %w", err)
		}
	}

	loop := poller.New(poller.Config{
		ChatID:    cfg.Telegram.ChatID,
		Schedule:  schedule,
		StartFrom: cfg.Poll.StartFrom,
	}, client, adapter, store, log)

	return &App{
		cfgPath:  cfgPath,
		cfg:      cfg,
		logSvc:   logSvc,
		log:      log,
		adapter:  adapter,
		store:    store,
		poller:   loop,
		schedule: schedule,
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	rctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.lastBeat.Store(time.Now().UnixNano())
	a.poller.SetHeartbeat(func() {
		a.lastBeat.Store(time.Now().UnixNano())
	})

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		err := a.poller.Run(rctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error("poll loop exited", logx.Err(err))
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		err := config.Watch(rctx, a.cfgPath, a.log, func(cfg *config.Config) {
			// Only logging changes apply live; credentials, schedule and
			// storage require a restart.
			a.logSvc.Apply(logxConfig(cfg.Logging))
			a.logSvc.SetTelegramTarget(cfg.Telegram.ChatID, cfg.Logging.Telegram.ThreadID)
		})
		if err != nil {
			a.log.Warn("config watch unavailable", logx.Err(err))
		}
	}()

	a.startWatchdog(rctx)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("homework bot started",
		logx.Int64("chat_id", a.cfg.Telegram.ChatID),
		logx.String("schedule", a.schedule.Source))
	return nil
}

// startWatchdog pings the systemd watchdog while iterations keep completing.
// A loop wedged inside an iteration for more than two poll intervals stops
// the pings and lets systemd restart the unit.
func (a *App) startWatchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}

	maxAge := 2*a.schedule.Interval(time.Now()) + time.Minute

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				last := time.Unix(0, a.lastBeat.Load())
				if time.Since(last) <= maxAge {
					_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
				}
			}
		}
	}()
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.logSvc.Close()
	return nil
}

func logxConfig(l config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   l.Level,
		Console: l.Console,
		File: logx.FileConfig{
			Enabled: l.File.Enabled,
			Path:    l.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    l.Telegram.Enabled,
			ThreadID:   l.Telegram.ThreadID,
			MinLevel:   l.Telegram.MinLevel,
			RatePerSec: l.Telegram.RatePerSec,
		},
	}
}
