package poller

import (
	"context"
	"time"

	"order-relay/internal/logger"
	"order-relay/internal/telegram"
)

type callbackProcessor interface {
	ProcessCallback(ctx context.Context, cb telegram.CallbackQuery)
}

// Poller drives the getUpdates long poll when webhook mode is off.
type Poller struct {
	tg        telegram.API
	processor callbackProcessor
	lg        *logger.Logger

	PollTimeout int           // seconds passed to getUpdates
	RetryDelay  time.Duration // pause after a transport error
}

func New(tg telegram.API, processor callbackProcessor, lg *logger.Logger) *Poller {
	return &Poller{tg: tg, processor: processor, lg: lg, PollTimeout: 30, RetryDelay: 5 * time.Second}
}

// Run polls until ctx is cancelled. Batches are processed in order; the
// offset advances past every update regardless of its type.
func (p *Poller) Run(ctx context.Context) {
	p.lg.Info("poller_started", nil)
	var offset int64
	for {
		if ctx.Err() != nil {
			p.lg.Info("poller_stopped", nil)
			return
		}
		updates, err := p.tg.GetUpdates(ctx, offset, p.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				p.lg.Info("poller_stopped", nil)
				return
			}
			p.lg.Error("get_updates_failed", err, nil)
			select {
			case <-time.After(p.RetryDelay):
			case <-ctx.Done():
			}
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.CallbackQuery != nil {
				p.processor.ProcessCallback(ctx, *u.CallbackQuery)
			}
		}
	}
}
