package dmail

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Kebolder/e6aibot/internal/e6ai"
	"github.com/Kebolder/e6aibot/pkg/metrics"
)

// MailAPI is the slice of the remote client the poller and handlers need
// for mailbox work.
type MailAPI interface {
	ListDmails(ctx context.Context) ([]e6ai.Dmail, error)
	MarkDmailRead(ctx context.Context, dmailID int64) error
	SendDmail(ctx context.Context, toID int64, title, body string) error
}

// Replier sends outbound reply dmails and absorbs the send endpoint's
// expected non-success status.
type Replier struct {
	api    MailAPI
	logger *zap.Logger
}

func NewReplier(api MailAPI, logger *zap.Logger) *Replier {
	return &Replier{api: api, logger: logger}
}

// Send posts a reply dmail. ErrExpectedSendStatus is logged as a
// successful send, not surfaced as a failure.
func (r *Replier) Send(ctx context.Context, toID int64, title, body string) error {
	err := r.api.SendDmail(ctx, toID, title, body)
	switch {
	case err == nil:
		r.logger.Info("Sent reply dmail",
			zap.Int64("to_id", toID),
			zap.String("title", title),
		)
		metrics.RecordReply("success")
		return nil
	case errors.Is(err, e6ai.ErrExpectedSendStatus):
		r.logger.Info("Sent reply dmail (API returned expected 406)",
			zap.Int64("to_id", toID),
			zap.String("title", title),
		)
		metrics.RecordReply("expected_denied")
		return nil
	default:
		r.logger.Error("Failed to send reply dmail",
			zap.Int64("to_id", toID),
			zap.String("title", title),
			zap.Error(err),
		)
		metrics.RecordReply("failed")
		return err
	}
}

// markRead is the shared fire-and-forget read-marking helper. Read state
// is best-effort bookkeeping; a failure is logged and never propagated.
func markRead(ctx context.Context, api MailAPI, logger *zap.Logger, dmailID int64) {
	if err := api.MarkDmailRead(ctx, dmailID); err != nil {
		logger.Error("Failed to mark dmail as read",
			zap.Int64("dmail_id", dmailID),
			zap.Error(err),
		)
		return
	}
	logger.Info("Marked dmail as read by visiting detail view",
		zap.Int64("dmail_id", dmailID),
	)
}
