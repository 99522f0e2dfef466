package mq

import "time"

// Routing keys on the moderation exchange.
const (
	RoutingKeyReplacementRequested = "replacement.requested"
	RoutingKeyReplacementDecision  = "replacement.decision"
)

// ReplacementRequestedPayload notifies the moderation channel that a user
// submitted a replacement request by dmail.
type ReplacementRequestedPayload struct {
	DmailID     int64     `json:"dmail_id"`
	RequesterID int64     `json:"requester_id"`
	Requester   string    `json:"requester"`
	PostID      int64     `json:"post_id"`
	PostLink    string    `json:"post_link"`
	NewImageURL string    `json:"new_image_url"`
	Body        string    `json:"body"`
	PostSummary string    `json:"post_summary,omitempty"`
	ChannelID   string    `json:"channel_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// Decision actions carried on replacement.decision.
const (
	DecisionAccept  = "accept"
	DecisionDecline = "decline"
)

// ReplacementDecisionPayload carries a moderator's accept/decline verdict
// back to the bot.
type ReplacementDecisionPayload struct {
	Action      string `json:"action"`
	PostID      int64  `json:"post_id"`
	RequesterID int64  `json:"requester_id"`
}
