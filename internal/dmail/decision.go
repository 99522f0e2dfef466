package dmail

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/Kebolder/e6aibot/internal/mq"
)

// DecisionHandler consumes moderator accept/decline verdicts from the bus
// and notifies the original requester by dmail.
//
// Delivery is at-least-once; a duplicate verdict resends the notification.
type DecisionHandler struct {
	replier *Replier
	logger  *zap.Logger
}

func NewDecisionHandler(replier *Replier, logger *zap.Logger) *DecisionHandler {
	return &DecisionHandler{
		replier: replier,
		logger:  logger,
	}
}

// HandleDecision is the bus consumer entrypoint for replacement.decision.
func (h *DecisionHandler) HandleDecision(ctx context.Context, raw json.RawMessage) error {
	var p mq.ReplacementDecisionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal replacement decision", zap.Error(err))
		// Malformed payloads are dropped, not requeued.
		return nil
	}

	var title, body string
	switch p.Action {
	case mq.DecisionAccept:
		title, body = approvedTitle, approvedBody(p.PostID)
	case mq.DecisionDecline:
		title, body = declinedTitle, declinedBody(p.PostID)
	default:
		h.logger.Error("Unknown replacement decision action",
			zap.String("action", p.Action),
			zap.Int64("post_id", p.PostID),
		)
		return nil
	}

	h.logger.Info("Processing replacement decision",
		zap.String("action", p.Action),
		zap.Int64("post_id", p.PostID),
		zap.Int64("requester_id", p.RequesterID),
	)

	if err := h.replier.Send(ctx, p.RequesterID, title, body); err != nil {
		return fmt.Errorf("failed to notify requester %d: %w", p.RequesterID, err)
	}

	return nil
}
