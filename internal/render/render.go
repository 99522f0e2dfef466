package render

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Kebolder/e6aibot/internal/e6ai"
)

const (
	StatusActive  = "Active"
	StatusPending = "Pending"
	StatusDeleted = "Deleted"
)

// PostStatus maps a post's flag set to its display status.
func PostStatus(flags e6ai.PostFlags) string {
	if flags.Deleted {
		return StatusDeleted
	}
	if flags.Pending {
		return StatusPending
	}
	return StatusActive
}

var byteSizes = []string{"Bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FormatBytes renders a byte count with a 1024-based unit suffix.
func FormatBytes(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(byteSizes) {
		i = len(byteSizes) - 1
	}
	v := float64(bytes) / math.Pow(1024, float64(i))
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + " " + byteSizes[i]
}

var (
	boldItalicRe = regexp.MustCompile(`(?i)\[b\]\[i\]([\s\S]*?)\[/i\]\[/b\]`)
	italicBoldRe = regexp.MustCompile(`(?i)\[i\]\[b\]([\s\S]*?)\[/b\]\[/i\]`)
	boldRe       = regexp.MustCompile(`(?i)\[b\]([\s\S]*?)\[/b\]`)
	italicRe     = regexp.MustCompile(`(?i)\[i\]([\s\S]*?)\[/i\]`)
	anyTagRe     = regexp.MustCompile(`\[.*?\]`)
)

// StripDText converts bold/italic DText markup to markdown emphasis and
// drops every other tag.
func StripDText(text string) string {
	if text == "" {
		return "No description provided."
	}
	out := boldItalicRe.ReplaceAllString(text, "***$1***")
	out = italicBoldRe.ReplaceAllString(out, "***$1***")
	out = boldRe.ReplaceAllString(out, "**$1**")
	out = italicRe.ReplaceAllString(out, "*$1*")
	out = anyTagRe.ReplaceAllString(out, "")
	return out
}

// PostSummary renders a post record into a plain-text display block.
func PostSummary(post *e6ai.Post, baseURL string) string {
	status := PostStatus(post.Flags)

	var b strings.Builder
	fmt.Fprintf(&b, "Post #%d\n", post.ID)
	fmt.Fprintf(&b, "%s/posts/%d\n", strings.TrimRight(baseURL, "/"), post.ID)
	fmt.Fprintf(&b, "%s\n", StripDText(post.Description))
	fmt.Fprintf(&b, "Likes: %d | Favorites: %d\n", post.Score.Total, post.FavCount)
	fmt.Fprintf(&b, "Size: %dx%d (%s) | Type: %s | Status: %s\n",
		post.File.Width, post.File.Height, FormatBytes(post.File.Size),
		strings.ToUpper(post.File.Ext), status)
	if post.ApproverID != nil {
		fmt.Fprintf(&b, "Approver: ID %d\n", *post.ApproverID)
	}
	return b.String()
}
