package dmail

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Kebolder/e6aibot/internal/e6ai"
	"github.com/Kebolder/e6aibot/internal/mq"
	"github.com/Kebolder/e6aibot/internal/render"
	"github.com/Kebolder/e6aibot/pkg/metrics"
)

// DirectoryAPI is the slice of the remote client used for best-effort
// context lookups around a replacement request.
type DirectoryAPI interface {
	GetUser(ctx context.Context, userID int64) (*e6ai.User, error)
	SearchPosts(ctx context.Context, tags string, limit int) ([]e6ai.Post, error)
	SearchPostsAny(ctx context.Context, tags string, limit int) ([]e6ai.Post, error)
}

// Publisher puts moderation events on the bus.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

// NameCache is a best-effort display-name cache; misses fall through to
// the API.
type NameCache interface {
	Get(ctx context.Context, userID int64) (string, bool)
	Set(ctx context.Context, userID int64, name string)
}

// ReplacementRequest is the two-field mini-format parsed out of a dmail
// body.
type ReplacementRequest struct {
	PostID      int64
	PostLink    string
	NewImageURL string
}

var newImageRe = regexp.MustCompile(`(?im)^New Image:\s*(https?://\S+)`)

// postLinkPattern builds the Post: line matcher for a given site base URL,
// capturing the full link and the numeric post id.
func postLinkPattern(baseURL string) *regexp.Regexp {
	base := strings.TrimRight(baseURL, "/")
	base = strings.TrimPrefix(base, "https://")
	base = strings.TrimPrefix(base, "http://")
	return regexp.MustCompile(`(?im)^Post:\s*(https?://` + regexp.QuoteMeta(base) + `/posts/(\d+))`)
}

// ParseReplacementRequest scans a dmail body for the Post: and New Image:
// lines. Both must be present, in any order, anywhere in the body.
func ParseReplacementRequest(body string, postLinkRe *regexp.Regexp) (ReplacementRequest, bool) {
	postMatch := postLinkRe.FindStringSubmatch(body)
	imageMatch := newImageRe.FindStringSubmatch(body)

	if postMatch == nil || imageMatch == nil {
		return ReplacementRequest{}, false
	}

	postID, err := strconv.ParseInt(postMatch[2], 10, 64)
	if err != nil {
		return ReplacementRequest{}, false
	}

	return ReplacementRequest{
		PostID:      postID,
		PostLink:    postMatch[1],
		NewImageURL: imageMatch[1],
	}, true
}

// ReplacementHandler implements the "Replacement" dmail command: parse the
// request, reject malformed input with a corrective reply, and forward
// well-formed requests to the moderation channel.
type ReplacementHandler struct {
	api        MailAPI
	directory  DirectoryAPI
	replier    *Replier
	publisher  Publisher
	names      NameCache
	baseURL    string
	channelID  string
	ownerID    int64
	postLinkRe *regexp.Regexp
	logger     *zap.Logger
}

func NewReplacementHandler(
	api MailAPI,
	directory DirectoryAPI,
	replier *Replier,
	publisher Publisher,
	names NameCache,
	baseURL string,
	channelID string,
	ownerID int64,
	logger *zap.Logger,
) *ReplacementHandler {
	return &ReplacementHandler{
		api:        api,
		directory:  directory,
		replier:    replier,
		publisher:  publisher,
		names:      names,
		baseURL:    baseURL,
		channelID:  channelID,
		ownerID:    ownerID,
		postLinkRe: postLinkPattern(baseURL),
		logger:     logger,
	}
}

func (h *ReplacementHandler) Name() string {
	return "replacement"
}

func (h *ReplacementHandler) Execute(ctx context.Context, dm e6ai.Dmail) error {
	req, ok := ParseReplacementRequest(dm.Body, h.postLinkRe)
	if !ok {
		h.logger.Info("Invalid replacement request, missing post or image link",
			zap.Int64("dmail_id", dm.ID),
			zap.Int64("from_id", dm.FromID),
		)
		markRead(ctx, h.api, h.logger, dm.ID)
		_ = h.replier.Send(ctx, dm.FromID, replyTitle(dm.Title), invalidReplacementBody)
		return nil
	}

	h.logger.Info("New replacement request received",
		zap.Int64("dmail_id", dm.ID),
		zap.Int64("from_id", dm.FromID),
		zap.Int64("post_id", req.PostID),
		zap.String("new_image_url", req.NewImageURL),
	)

	markRead(ctx, h.api, h.logger, dm.ID)

	payload := mq.ReplacementRequestedPayload{
		DmailID:     dm.ID,
		RequesterID: dm.FromID,
		Requester:   h.resolveSender(ctx, dm.FromID),
		PostID:      req.PostID,
		PostLink:    req.PostLink,
		NewImageURL: req.NewImageURL,
		Body:        dm.Body,
		PostSummary: h.postContext(ctx, req.PostID),
		ChannelID:   h.channelID,
		RequestedAt: dm.CreatedAt,
	}

	if err := h.publisher.Publish(mq.RoutingKeyReplacementRequested, payload); err != nil {
		h.logger.Error("Failed to publish moderation notification",
			zap.Int64("dmail_id", dm.ID),
			zap.String("channel_id", h.channelID),
			zap.Error(err),
		)
		metrics.RecordNotification("failed")
		h.escalateToOwner(ctx, payload, err)
		return nil
	}

	metrics.RecordNotification("success")
	return nil
}

// resolveSender returns the sender's display name, falling back to the raw
// user id. A lookup failure never fails the handler.
func (h *ReplacementHandler) resolveSender(ctx context.Context, userID int64) string {
	if name, ok := h.names.Get(ctx, userID); ok {
		return name
	}

	user, err := h.directory.GetUser(ctx, userID)
	if err != nil || user.Name == "" {
		if err != nil {
			h.logger.Error("Could not fetch user details",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
		return fmt.Sprintf("User ID %d", userID)
	}

	h.names.Set(ctx, userID, user.Name)
	return user.Name
}

// postContext fetches the referenced post for moderator context,
// best-effort. The unauthenticated lookup runs first; if it finds nothing
// the authenticated status:any lookup is tried.
func (h *ReplacementHandler) postContext(ctx context.Context, postID int64) string {
	tags := fmt.Sprintf("id:%d", postID)

	posts, err := h.directory.SearchPosts(ctx, tags, 1)
	if err == nil && len(posts) == 0 {
		h.logger.Info("Post not found publicly, retrying with authentication",
			zap.Int64("post_id", postID),
		)
		posts, err = h.directory.SearchPostsAny(ctx, tags, 1)
	}

	if err != nil {
		h.logger.Error("Failed to fetch post for replacement context",
			zap.Int64("post_id", postID),
			zap.Error(err),
		)
		return fmt.Sprintf("There was an error trying to display post ID: %d.", postID)
	}
	if len(posts) == 0 {
		return fmt.Sprintf("The post in the replacement request (ID: %d) could not be found, even with janitor permissions.", postID)
	}

	return render.PostSummary(&posts[0], h.baseURL)
}

// escalateToOwner direct-messages the configured owner when the
// moderation channel cannot be reached.
func (h *ReplacementHandler) escalateToOwner(ctx context.Context, payload mq.ReplacementRequestedPayload, cause error) {
	if h.ownerID == 0 {
		return
	}

	body := fmt.Sprintf(
		"Error: failed to deliver a replacement request notification to channel %s (%v).\n\n"+
			"Requester: %s\nPost: %s\nNew Image: %s\n\n%s",
		payload.ChannelID, cause, payload.Requester, payload.PostLink,
		payload.NewImageURL, payload.PostSummary,
	)

	if err := h.replier.Send(ctx, h.ownerID, "Replacement notification delivery failed", body); err != nil {
		h.logger.Error("Failed to escalate notification failure to owner",
			zap.Int64("owner_id", h.ownerID),
			zap.Error(err),
		)
		return
	}
	metrics.RecordNotification("escalated")
}
