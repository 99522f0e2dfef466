package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kebolder/e6aibot/internal/e6ai"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{-5, "0 Bytes"},
		{1, "1 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{5242880, "5 MB"},
		{1073741824, "1 GB"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatBytes(c.in), "bytes=%d", c.in)
	}
}

func TestPostStatus(t *testing.T) {
	assert.Equal(t, "Active", PostStatus(e6ai.PostFlags{}))
	assert.Equal(t, "Pending", PostStatus(e6ai.PostFlags{Pending: true}))
	assert.Equal(t, "Deleted", PostStatus(e6ai.PostFlags{Deleted: true}))
	assert.Equal(t, "Deleted", PostStatus(e6ai.PostFlags{Deleted: true, Pending: true}), "deleted wins over pending")
}

func TestStripDText(t *testing.T) {
	assert.Equal(t, "No description provided.", StripDText(""))
	assert.Equal(t, "**bold** and *italic*", StripDText("[b]bold[/b] and [i]italic[/i]"))
	assert.Equal(t, "***both***", StripDText("[b][i]both[/i][/b]"))
	assert.Equal(t, "***both***", StripDText("[i][b]both[/b][/i]"))
	assert.Equal(t, "quoted", StripDText("[quote]quoted[/quote]"))
	assert.Equal(t, "**Bold**", StripDText("[B]Bold[/B]"), "tags match case-insensitively")
}

func TestPostSummary(t *testing.T) {
	approver := int64(7)
	post := &e6ai.Post{
		ID:          123,
		Description: "[b]nice[/b]",
		Score:       e6ai.PostScore{Total: 10},
		FavCount:    4,
		File:        e6ai.PostFile{Width: 800, Height: 600, Ext: "png", Size: 1048576},
		ApproverID:  &approver,
	}

	out := PostSummary(post, "https://example.net/")

	assert.Contains(t, out, "Post #123")
	assert.Contains(t, out, "https://example.net/posts/123")
	assert.Contains(t, out, "**nice**")
	assert.Contains(t, out, "Likes: 10 | Favorites: 4")
	assert.Contains(t, out, "800x600 (1 MB) | Type: PNG | Status: Active")
	assert.Contains(t, out, "Approver: ID 7")
}
