// Package poller runs the poll-check-notify loop: one serial pass of
// poll -> validate -> translate -> deliver -> advance cursor -> sleep,
// repeated until the process is told to stop.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/altmanhellen/homework-bot/internal/homework"
	"github.com/altmanhellen/homework-bot/internal/practicum"
	"github.com/altmanhellen/homework-bot/internal/storage"
	"github.com/altmanhellen/homework-bot/internal/transport"
	logx "github.com/altmanhellen/homework-bot/pkg/logx"
)

// failurePrefix is prepended to every iteration-failure notification.
const failurePrefix = "Сбой в работе программы: "

// APIClient fetches homework statuses changed since the given unix timestamp.
type APIClient interface {
	HomeworkStatuses(ctx context.Context, from int64) (json.RawMessage, error)
}

type Config struct {
	ChatID   int64
	Schedule Schedule
	// StartFrom is the initial cursor in unix seconds; 0 means "now".
	StartFrom int64
}

// Service is the poll loop. It is strictly serial: one request in flight at a
// time, one goroutine touching the cursor and the gate.
type Service struct {
	cfg    Config
	api    APIClient
	sender transport.Sender
	store  storage.Store // nil when the journal is disabled
	log    logx.Logger

	gate      *Gate
	cursor    int64
	iter      uint64
	heartbeat func()
}

func New(cfg Config, api APIClient, sender transport.Sender, store storage.Store, log logx.Logger) *Service {
	return &Service{
		cfg:    cfg,
		api:    api,
		sender: sender,
		store:  store,
		log:    log,
		gate:   NewGate(),
	}
}

// SetHeartbeat installs a callback invoked once per completed iteration.
// Must be called before Run.
func (s *Service) SetHeartbeat(fn func()) { s.heartbeat = fn }

// Run executes the loop until ctx is cancelled. The only ways out are
// cancellation; iteration failures are reported and absorbed.
func (s *Service) Run(ctx context.Context) error {
	s.cursor = s.cfg.StartFrom
	if s.cursor == 0 {
		s.cursor = time.Now().Unix()
	}
	s.log.Info("poll loop started",
		logx.Int64("from_date", s.cursor),
		logx.String("schedule", s.cfg.Schedule.Source))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.iter++
		s.runOnce(ctx)
		if s.heartbeat != nil {
			s.heartbeat()
		}

		next := s.cfg.Schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// runOnce performs a single iteration. It never returns an error: every
// failure is converted to a notification and absorbed here.
func (s *Service) runOnce(ctx context.Context) {
	log := s.log.With(logx.Uint64("iteration", s.iter))
	log.Debug("poll started", logx.Int64("from_date", s.cursor))

	payload, err := s.api.HomeworkStatuses(ctx, s.cursor)
	if err != nil {
		if ctx.Err() != nil {
			return // shutting down, not a poll failure
		}
		s.reportFailure(ctx, log, err)
		return
	}

	resp, err := practicum.ParseStatuses(payload)
	if err != nil {
		s.reportFailure(ctx, log, err)
		return
	}

	for _, hw := range resp.Homeworks {
		msg, err := homework.StatusMessage(hw)
		if err != nil {
			// One bad record aborts the rest of this iteration.
			s.reportFailure(ctx, log, err)
			return
		}
		s.deliver(ctx, log, storage.DeliveryStatus, msg)
	}
	if len(resp.Homeworks) == 0 {
		log.Debug("no new statuses")
	}

	// The cursor follows the server clock, not ours.
	if resp.CurrentDate != nil {
		s.cursor = *resp.CurrentDate
		log.Debug("cursor advanced", logx.Int64("cursor", s.cursor))
	}
}

func (s *Service) reportFailure(ctx context.Context, log logx.Logger, cause error) {
	msg := failurePrefix + cause.Error()
	var apiErr *practicum.APIError
	if errors.As(cause, &apiErr) {
		log = log.With(
			logx.String("error_kind", apiErr.Kind.String()),
			logx.Int("status", apiErr.StatusCode))
	}
	log.Error("iteration failed", logx.Err(cause))
	if !s.gate.ShouldSend(msg) {
		log.Info("duplicate failure notification suppressed")
		return
	}
	s.deliver(ctx, log, storage.DeliveryFailure, msg)
	s.gate.RecordSent(msg)
}

// deliver sends one message. A delivery failure is logged and dropped, never
// retried and never re-raised: a broken sender must not feed the failure path
// that would use the same sender to report it.
func (s *Service) deliver(ctx context.Context, log logx.Logger, kind, text string) {
	_, err := s.sender.SendText(ctx, transport.ChatTarget{ChatID: s.cfg.ChatID}, text, nil)
	if err != nil {
		log.Error("notification delivery failed", logx.String("kind", kind), logx.Err(err))
	} else {
		log.Debug("notification sent", logx.String("kind", kind), logx.String("text", text))
	}
	s.journal(ctx, log, kind, text, err)
}

func (s *Service) journal(ctx context.Context, log logx.Logger, kind, text string, sendErr error) {
	if s.store == nil {
		return
	}
	e := storage.DeliveryEntry{
		At:        time.Now(),
		Iteration: s.iter,
		Kind:      kind,
		ChatID:    s.cfg.ChatID,
		Text:      text,
	}
	if sendErr != nil {
		e.Error = sendErr.Error()
	}
	if err := s.store.AppendDelivery(ctx, e); err != nil {
		log.Warn("delivery journal append failed", logx.Err(err))
	}
}
