package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kebolder/e6aibot/internal/e6ai"
	"github.com/Kebolder/e6aibot/internal/render"
)

// PostAdmin exposes the janitor operations (replace, undelete, view) to
// authenticated operators.
type PostAdmin struct {
	client *e6ai.Client
	logger *zap.Logger
}

func NewPostAdmin(client *e6ai.Client, logger *zap.Logger) *PostAdmin {
	return &PostAdmin{client: client, logger: logger}
}

var allowedReplacementTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"video/mp4":  true,
	"video/webm": true,
}

func postIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post id must be a number"})
		return 0, false
	}
	return id, true
}

// View fetches a post, trying the public lookup first and the
// authenticated status:any lookup second.
func (a *PostAdmin) View(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	tags := fmt.Sprintf("id:%d", postID)
	posts, err := a.client.SearchPosts(c.Request.Context(), tags, 1)
	if err == nil && len(posts) == 0 {
		posts, err = a.client.SearchPostsAny(c.Request.Context(), tags, 1)
	}
	if err != nil {
		a.logger.Error("Failed to fetch post", zap.Int64("post_id", postID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch post"})
		return
	}
	if len(posts) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("post %d not found", postID)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post":    posts[0],
		"summary": render.PostSummary(&posts[0], a.client.BaseURL()),
	})
}

// Replace uploads a new file for a post.
func (a *PostAdmin) Replace(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	reason := c.PostForm("reason")
	if len(reason) < 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason must be at least 5 characters long"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedReplacementTypes[contentType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file type must be PNG, JPG, GIF, WEBP, MP4 or WEBM"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	defer f.Close()

	asPending, _ := strconv.ParseBool(c.DefaultPostForm("as_pending", "false"))
	undelete, _ := strconv.ParseBool(c.DefaultPostForm("undelete", "false"))

	// Fetch the current file URL first so the operator can compare the
	// old image after the swap.
	old, err := a.client.GetPost(c.Request.Context(), postID)
	if err != nil || old.File.URL == "" {
		if err != nil {
			a.logger.Error("Could not fetch post before replacement",
				zap.Int64("post_id", postID), zap.Error(err))
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "could not fetch the current file; the post may not exist or may not be visible to the bot"})
		return
	}

	up := e6ai.ReplacementUpload{
		File:        f,
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Reason:      reason,
		Source:      c.PostForm("source"),
		AsPending:   asPending,
	}

	if err := a.client.SubmitReplacement(c.Request.Context(), postID, up); err != nil {
		a.logger.Error("Replacement submission failed", zap.Int64("post_id", postID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "replacement submission failed"})
		return
	}

	a.logger.Info("Replacement submitted",
		zap.Int64("post_id", postID),
		zap.String("file", fileHeader.Filename),
		zap.String("reason", reason),
	)

	if undelete {
		if err := a.client.UndeletePost(c.Request.Context(), postID); err != nil {
			a.logger.Error("Failed to undelete post after replacement",
				zap.Int64("post_id", postID), zap.Error(err))
			c.JSON(http.StatusOK, gin.H{
				"status":        "replaced",
				"old_image_url": old.File.URL,
				"warning":       "replacement succeeded but the post could not be undeleted",
			})
			return
		}
		// Give the remote a moment to process the undeletion before the
		// operator refetches.
		time.Sleep(2 * time.Second)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "replaced",
		"old_image_url": old.File.URL,
	})
}

// Undelete restores a deleted post.
func (a *PostAdmin) Undelete(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := a.client.UndeletePost(c.Request.Context(), postID); err != nil {
		a.logger.Error("Failed to undelete post", zap.Int64("post_id", postID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "undelete failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "undeleted"})
}
