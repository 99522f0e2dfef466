package e6ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "E6aiBot/test (by Slop on e6AI)"

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(srv.URL, Credentials{Username: "bot", APIKey: "secret"}, testUserAgent)
	return c, srv
}

func TestListDmails(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dmails.json", r.URL.Path)
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "bot", r.URL.Query().Get("login"))
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		w.Write([]byte(`[{"id":1,"from_id":2,"title":"Replacement","body":"hi","is_read":false}]`))
	}))
	defer srv.Close()

	dmails, err := c.ListDmails(context.Background())
	require.NoError(t, err)
	require.Len(t, dmails, 1)
	assert.Equal(t, int64(1), dmails[0].ID)
	assert.Equal(t, int64(2), dmails[0].FromID)
	assert.Equal(t, "Replacement", dmails[0].Title)
	assert.False(t, dmails[0].IsRead)
}

func TestListDmailsRejectsNonListBody(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"reason":"authentication failed"}`))
	}))
	defer srv.Close()

	_, err := c.ListDmails(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a list")
}

func TestMarkDmailReadVisitsDetailView(t *testing.T) {
	var gotPath, gotAccept string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	require.NoError(t, c.MarkDmailRead(context.Background(), 77))
	assert.Equal(t, "/dmails/77", gotPath)
	assert.Equal(t, "text/html", gotAccept)
}

func TestSendDmailExpectedStatus(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "100", r.PostForm.Get("dmail[to_id]"))
		assert.Equal(t, "Re: hello", r.PostForm.Get("dmail[title]"))
		w.WriteHeader(http.StatusNotAcceptable)
	}))
	defer srv.Close()

	err := c.SendDmail(context.Background(), 100, "Re: hello", "body")
	assert.ErrorIs(t, err, ErrExpectedSendStatus)
}

func TestSendDmailUnexpectedStatus(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := c.SendDmail(context.Background(), 100, "Re: hello", "body")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExpectedSendStatus)
}

func TestSearchPostsAnyAppendsStatusAndCredentials(t *testing.T) {
	var gotTags, gotLogin string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTags = r.URL.Query().Get("tags")
		gotLogin = r.URL.Query().Get("login")
		w.Write([]byte(`{"posts":[{"id":123,"flags":{"deleted":true}}]}`))
	}))
	defer srv.Close()

	posts, err := c.SearchPostsAny(context.Background(), "id:123", 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "id:123 status:any", gotTags)
	assert.Equal(t, "bot", gotLogin)
	assert.True(t, posts[0].Flags.Deleted)
}

func TestSearchPostsUnauthenticated(t *testing.T) {
	var gotLogin string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLogin = r.URL.Query().Get("login")
		w.Write([]byte(`{"posts":[]}`))
	}))
	defer srv.Close()

	posts, err := c.SearchPosts(context.Background(), "id:123", 1)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Empty(t, gotLogin, "public search must not carry credentials")
}

func TestGetUser(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/100.json", r.URL.Path)
		w.Write([]byte(`{"id":100,"name":"slop_fan"}`))
	}))
	defer srv.Close()

	user, err := c.GetUser(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, "slop_fan", user.Name)
}
