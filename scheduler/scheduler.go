package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BotDeck/db"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ActiveSetter is the write side of the bot state.
type ActiveSetter interface {
	Active() bool
	SetActive(v bool) bool
}

// StatusPoller copies the remote bot status flag into the bot state on a
// fixed interval.
type StatusPoller struct {
	store    db.StatusStore
	state    ActiveSetter
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func NewStatusPoller(store db.StatusStore, state ActiveSetter, interval time.Duration, logger *zap.Logger) *StatusPoller {
	return &StatusPoller{
		store:    store,
		state:    state,
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

// Start polls once immediately and then on every interval until ctx is done.
func (p *StatusPoller) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	spec := fmt.Sprintf("@every %s", p.interval)
	if _, err := c.AddFunc(spec, func() { p.Poll(ctx) }); err != nil {
		return fmt.Errorf("schedule status poll %q: %w", spec, err)
	}

	p.Poll(ctx)
	c.Start()
	p.logger.Info("Status poller started", zap.Duration("interval", p.interval))

	<-ctx.Done()
	<-c.Stop().Done()
	p.logger.Info("Status poller stopped")
	return nil
}

// Poll reads the status row once. Read errors leave the current state
// untouched; an empty table counts as active.
func (p *StatusPoller) Poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	active := true
	status, err := p.store.GetBotStatus(ctx)
	switch {
	case errors.Is(err, db.ErrNotFound):
	case err != nil:
		p.logger.Warn("Failed to fetch bot status", zap.Error(err))
		return
	default:
		active = status.IsActive
	}

	if previous := p.state.SetActive(active); previous != active {
		p.logger.Info("bot status changed", zap.Bool("from", previous), zap.Bool("to", active))
	}
}
