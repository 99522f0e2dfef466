package dmail

import (
	"context"

	"go.uber.org/zap"

	"github.com/Kebolder/e6aibot/internal/e6ai"
)

// FallbackHandler answers dmails whose subject matches no registered
// command. An unknown subject is terminal: the message is marked read and
// the sender gets a corrective reply.
type FallbackHandler struct {
	api     MailAPI
	replier *Replier
	logger  *zap.Logger
}

func NewFallbackHandler(api MailAPI, replier *Replier, logger *zap.Logger) *FallbackHandler {
	return &FallbackHandler{
		api:     api,
		replier: replier,
		logger:  logger,
	}
}

func (h *FallbackHandler) Name() string {
	return "fallback"
}

func (h *FallbackHandler) Execute(ctx context.Context, dm e6ai.Dmail) error {
	h.logger.Info("Replying to unrecognized dmail command",
		zap.Int64("dmail_id", dm.ID),
		zap.String("subject", dm.Title),
		zap.Int64("from_id", dm.FromID),
	)

	markRead(ctx, h.api, h.logger, dm.ID)

	// Reply failure is logged by the replier; the message is still
	// considered handled so it will not be retried.
	_ = h.replier.Send(ctx, dm.FromID, replyTitle(dm.Title), invalidCommandBody(dm.Title))

	return nil
}
