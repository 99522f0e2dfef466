package dmail

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Kebolder/e6aibot/internal/e6ai"
	"github.com/Kebolder/e6aibot/pkg/metrics"
)

// Poller reconciles the remote mailbox on a fixed interval and dispatches
// each newly-seen unread dmail to exactly one handler.
//
// The processed-set it owns is an in-memory record of dmail ids already
// dispatched during the current unread streak. It is cleared whenever a
// poll returns zero unread messages and is lost on restart; the remote
// is_read flag is the true source of truth.
type Poller struct {
	api        MailAPI
	registry   *Registry
	botUserID  int64
	configured bool
	interval   time.Duration
	logger     *zap.Logger

	running atomic.Bool

	mu        sync.Mutex
	processed map[int64]struct{}
}

func NewPoller(api MailAPI, registry *Registry, botUserID int64, configured bool, interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		api:        api,
		registry:   registry,
		botUserID:  botUserID,
		configured: configured,
		interval:   interval,
		logger:     logger,
		processed:  make(map[int64]struct{}),
	}
}

// Run fires an immediate tick, then schedules the poll on a fixed
// interval. The returned cron owns the schedule; stop it to stop polling.
func (p *Poller) Run(ctx context.Context) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", p.interval), func() {
		p.Tick(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule dmail poll: %w", err)
	}

	p.Tick(ctx)
	c.Start()

	p.logger.Info("Dmail poller started", zap.Duration("interval", p.interval))
	return c, nil
}

// Tick runs one poll. At most one tick executes at a time; an overlapping
// tick is skipped entirely.
func (p *Poller) Tick(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Info("A dmail check is already in progress, skipping this tick")
		metrics.RecordPollTick("skipped")
		return
	}
	defer p.running.Store(false)

	if !p.configured {
		p.logger.Info("e6AI credentials or bot user id not configured, skipping dmail check")
		metrics.RecordPollTick("unconfigured")
		return
	}

	dmails, err := p.api.ListDmails(ctx)
	if err != nil {
		p.logger.Error("Failed to fetch dmail listing", zap.Error(err))
		metrics.RecordPollTick("list_error")
		return
	}

	var unread []e6ai.Dmail
	for _, dm := range dmails {
		if !dm.IsRead {
			unread = append(unread, dm)
		}
	}

	if len(unread) == 0 {
		// The remote inbox has caught up; forgotten ids may recycle.
		p.clearProcessed()
		metrics.RecordPollTick("ok")
		return
	}

	for _, dm := range unread {
		if p.isProcessed(dm.ID) {
			continue
		}
		if dm.FromID == p.botUserID {
			// Never reply to our own mail.
			continue
		}
		p.dispatch(ctx, dm)
	}

	metrics.RecordPollTick("ok")
}

// dispatch runs one handler. A handler failure or panic is isolated so one
// bad message cannot block its siblings; the message is then retried on a
// later tick while it stays unread.
func (p *Poller) dispatch(ctx context.Context, dm e6ai.Dmail) {
	handler, matched := p.registry.Lookup(dm.Title)

	command := strings.ToLower(dm.Title)
	if !matched {
		command = "fallback"
		p.logger.Info("No dmail command matches subject, using fallback",
			zap.Int64("dmail_id", dm.ID),
			zap.String("subject", dm.Title),
			zap.Int64("from_id", dm.FromID),
		)
	}
	metrics.RecordDispatch(command)

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("handler panicked: %v", rec)
			}
		}()
		return handler.Execute(ctx, dm)
	}()

	if err != nil {
		p.logger.Error("Dmail handler failed",
			zap.Int64("dmail_id", dm.ID),
			zap.String("command", command),
			zap.Error(err),
		)
		return
	}

	p.markProcessed(dm.ID)
}

func (p *Poller) isProcessed(id int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.processed[id]
	return ok
}

func (p *Poller) markProcessed(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed[id] = struct{}{}
}

func (p *Poller) clearProcessed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.processed) > 0 {
		p.logger.Info("Unread inbox is empty, clearing processed dmail ids",
			zap.Int("count", len(p.processed)),
		)
	}
	p.processed = make(map[int64]struct{})
}

// ProcessedIDs returns a snapshot of the processed-set for the ops API.
func (p *Poller) ProcessedIDs() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]int64, 0, len(p.processed))
	for id := range p.processed {
		ids = append(ids, id)
	}
	return ids
}
