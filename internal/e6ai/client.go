package e6ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Kebolder/e6aibot/pkg/metrics"
)

// ErrExpectedSendStatus marks the known quirk of the dmail send endpoint:
// it returns 406 Not Acceptable on an otherwise-successful send. Callers
// must treat this error as success.
var ErrExpectedSendStatus = errors.New("dmail send returned expected non-success status")

type Credentials struct {
	Username string
	APIKey   string
}

type Client struct {
	baseURL    string
	creds      Credentials
	userAgent  string
	httpClient *http.Client
}

func NewClient(baseURL string, creds Credentials, userAgent string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		creds:     creds,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// PostURL returns the canonical web URL of a post.
func (c *Client) PostURL(postID int64) string {
	return fmt.Sprintf("%s/posts/%d", c.baseURL, postID)
}

func (c *Client) UserURL(userID int64) string {
	return fmt.Sprintf("%s/users/%d", c.baseURL, userID)
}

func (c *Client) authParams(q url.Values) {
	q.Set("login", c.creds.Username)
	q.Set("api_key", c.creds.APIKey)
}

func (c *Client) do(endpoint string, req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)

	if err != nil {
		metrics.RecordE6AIRequest(endpoint, "error", latency)
		return nil, err
	}

	metrics.RecordE6AIRequest(endpoint, strconv.Itoa(resp.StatusCode), latency)
	return resp, nil
}

// ListDmails fetches the authenticated mailbox listing.
func (c *Client) ListDmails(ctx context.Context) ([]Dmail, error) {
	q := url.Values{}
	c.authParams(q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/dmails.json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do("/dmails.json", req)
	if err != nil {
		return nil, fmt.Errorf("failed to list dmails: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dmail listing returned status %d", resp.StatusCode)
	}

	// The endpoint returns a JSON array on success and an error object
	// otherwise. A non-array body aborts the caller's tick.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read dmail listing: %w", err)
	}

	var dmails []Dmail
	if err := json.Unmarshal(body, &dmails); err != nil {
		return nil, fmt.Errorf("dmail listing was not a list: %w", err)
	}

	return dmails, nil
}

// MarkDmailRead visits the dmail's HTML detail view. The remote marks the
// message read as a side effect of the visit; there is no dedicated
// mark-read endpoint.
func (c *Client) MarkDmailRead(ctx context.Context, dmailID int64) error {
	q := url.Values{}
	c.authParams(q)

	u := fmt.Sprintf("%s/dmails/%d?%s", c.baseURL, dmailID, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.do("/dmails/{id}", req)
	if err != nil {
		return fmt.Errorf("failed to visit dmail %d detail view: %w", dmailID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dmail %d detail view returned status %d", dmailID, resp.StatusCode)
	}

	return nil
}

// SendDmail submits an outbound dmail. A 406 response is the endpoint's
// known behavior on success and is reported as ErrExpectedSendStatus.
func (c *Client) SendDmail(ctx context.Context, toID int64, title, body string) error {
	q := url.Values{}
	c.authParams(q)

	form := url.Values{}
	form.Set("dmail[to_id]", strconv.FormatInt(toID, 10))
	form.Set("dmail[title]", title)
	form.Set("dmail[body]", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/dmails.json?"+q.Encode(), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do("/dmails.json#send", req)
	if err != nil {
		return fmt.Errorf("failed to send dmail to user %d: %w", toID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotAcceptable:
		return ErrExpectedSendStatus
	default:
		return fmt.Errorf("dmail send to user %d returned status %d", toID, resp.StatusCode)
	}
}

// GetUser resolves a user record by id.
func (c *Client) GetUser(ctx context.Context, userID int64) (*User, error) {
	q := url.Values{}
	c.authParams(q)

	u := fmt.Sprintf("%s/users/%d.json?%s", c.baseURL, userID, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do("/users/{id}.json", req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %d: %w", userID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user %d lookup returned status %d", userID, resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user %d: %w", userID, err)
	}

	return &user, nil
}

type postsResponse struct {
	Posts []Post `json:"posts"`
}

// SearchPosts queries /posts.json with a tag expression, unauthenticated.
func (c *Client) SearchPosts(ctx context.Context, tags string, limit int) ([]Post, error) {
	return c.searchPosts(ctx, tags, limit, false)
}

// SearchPostsAny queries with status:any appended and credentials attached,
// so hidden and deleted posts are visible to the lookup.
func (c *Client) SearchPostsAny(ctx context.Context, tags string, limit int) ([]Post, error) {
	return c.searchPosts(ctx, tags+" status:any", limit, true)
}

func (c *Client) searchPosts(ctx context.Context, tags string, limit int, authed bool) ([]Post, error) {
	q := url.Values{}
	q.Set("tags", tags)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if authed {
		c.authParams(q)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/posts.json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do("/posts.json", req)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts %q: %w", tags, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("post search %q returned status %d", tags, resp.StatusCode)
	}

	var pr postsResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode post search %q: %w", tags, err)
	}

	return pr.Posts, nil
}

type postResponse struct {
	Post Post `json:"post"`
}

// GetPost fetches a single post by id, authenticated.
func (c *Client) GetPost(ctx context.Context, postID int64) (*Post, error) {
	q := url.Values{}
	c.authParams(q)

	u := fmt.Sprintf("%s/posts/%d.json?%s", c.baseURL, postID, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do("/posts/{id}.json", req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch post %d: %w", postID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("post %d lookup returned status %d", postID, resp.StatusCode)
	}

	var pr postResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode post %d: %w", postID, err)
	}

	return &pr.Post, nil
}

// ReplacementUpload describes a file submitted for a post replacement.
type ReplacementUpload struct {
	File        io.Reader
	Filename    string
	ContentType string
	Reason      string
	Source      string
	AsPending   bool
}

// SubmitReplacement uploads a replacement file for a post via
// /post_replacements.json.
func (c *Client) SubmitReplacement(ctx context.Context, postID int64, up ReplacementUpload) error {
	q := url.Values{}
	q.Set("post_id", strconv.FormatInt(postID, 10))
	c.authParams(q)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("post_replacement[replacement_file]", up.Filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, up.File); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := mw.WriteField("post_replacement[reason]", up.Reason); err != nil {
			pw.CloseWithError(err)
			return
		}
		if up.Source != "" {
			if err := mw.WriteField("post_replacement[source]", up.Source); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		if err := mw.WriteField("post_replacement[as_pending]", strconv.FormatBool(up.AsPending)); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/post_replacements.json?"+q.Encode(), pr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do("/post_replacements.json", req)
	if err != nil {
		return fmt.Errorf("failed to submit replacement for post %d: %w", postID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("replacement for post %d returned status %d", postID, resp.StatusCode)
	}

	return nil
}

// UndeletePost restores a deleted post through the moderator endpoint.
func (c *Client) UndeletePost(ctx context.Context, postID int64) error {
	q := url.Values{}
	c.authParams(q)

	u := fmt.Sprintf("%s/moderator/post/posts/%d/undelete.json?%s", c.baseURL, postID, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.do("/moderator/post/posts/{id}/undelete.json", req)
	if err != nil {
		return fmt.Errorf("failed to undelete post %d: %w", postID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("undelete of post %d returned status %d", postID, resp.StatusCode)
	}

	return nil
}
