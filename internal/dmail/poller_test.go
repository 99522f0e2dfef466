package dmail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kebolder/e6aibot/internal/e6ai"
)

type sentDmail struct {
	toID  int64
	title string
	body  string
}

type stubMailAPI struct {
	dmails  []e6ai.Dmail
	listErr error
	sendErr error

	readIDs []int64
	sent    []sentDmail
}

func (s *stubMailAPI) ListDmails(ctx context.Context) ([]e6ai.Dmail, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.dmails, nil
}

func (s *stubMailAPI) MarkDmailRead(ctx context.Context, dmailID int64) error {
	s.readIDs = append(s.readIDs, dmailID)
	return nil
}

func (s *stubMailAPI) SendDmail(ctx context.Context, toID int64, title, body string) error {
	s.sent = append(s.sent, sentDmail{toID: toID, title: title, body: body})
	return s.sendErr
}

type stubHandler struct {
	name     string
	executed []e6ai.Dmail
	err      error
	onExec   func(dm e6ai.Dmail)
}

func (s *stubHandler) Name() string { return s.name }

func (s *stubHandler) Execute(ctx context.Context, dm e6ai.Dmail) error {
	s.executed = append(s.executed, dm)
	if s.onExec != nil {
		s.onExec(dm)
	}
	return s.err
}

const botID int64 = 42811

func newTestPoller(api *stubMailAPI, handlers ...Handler) (*Poller, *stubHandler) {
	fallback := &stubHandler{name: "fallback"}
	all := append([]Handler{}, handlers...)
	registry := NewRegistry(fallback, all...)
	return NewPoller(api, registry, botID, true, 15*time.Second, zap.NewNop()), fallback
}

func TestTickDispatchesUnreadBySubject(t *testing.T) {
	api := &stubMailAPI{
		dmails: []e6ai.Dmail{
			{ID: 1, FromID: 100, Title: "Replacement", IsRead: false},
			{ID: 2, FromID: 101, Title: "REPLACEMENT", IsRead: false},
			{ID: 3, FromID: 102, Title: "replacement", IsRead: true},
		},
	}
	replacement := &stubHandler{name: "replacement"}
	p, fallback := newTestPoller(api, replacement)

	p.Tick(context.Background())

	require.Len(t, replacement.executed, 2)
	assert.Equal(t, int64(1), replacement.executed[0].ID)
	assert.Equal(t, int64(2), replacement.executed[1].ID)
	assert.Empty(t, fallback.executed, "read dmails must not be dispatched")
	assert.ElementsMatch(t, []int64{1, 2}, p.ProcessedIDs())
}

func TestTickListErrorLeavesProcessedSetUntouched(t *testing.T) {
	replacement := &stubHandler{name: "replacement"}
	api := &stubMailAPI{
		dmails: []e6ai.Dmail{{ID: 7, FromID: 100, Title: "replacement"}},
	}
	p, _ := newTestPoller(api, replacement)

	p.Tick(context.Background())
	require.Len(t, replacement.executed, 1)

	api.listErr = errors.New("boom")
	p.Tick(context.Background())

	assert.Len(t, replacement.executed, 1, "no handler may run on a failed listing")
	assert.ElementsMatch(t, []int64{7}, p.ProcessedIDs())
}

func TestTickSkipsSelfSentDmails(t *testing.T) {
	api := &stubMailAPI{
		dmails: []e6ai.Dmail{
			{ID: 5, FromID: botID, Title: "replacement"},
		},
	}
	replacement := &stubHandler{name: "replacement"}
	p, fallback := newTestPoller(api, replacement)

	p.Tick(context.Background())

	assert.Empty(t, replacement.executed)
	assert.Empty(t, fallback.executed)
	assert.Empty(t, p.ProcessedIDs(), "self-sent dmails never enter the processed-set")
	assert.Empty(t, api.readIDs, "self-sent dmails must not have their read state altered")
}

func TestTickDoesNotDispatchProcessedTwice(t *testing.T) {
	api := &stubMailAPI{
		dmails: []e6ai.Dmail{{ID: 9, FromID: 100, Title: "replacement"}},
	}
	replacement := &stubHandler{name: "replacement"}
	p, _ := newTestPoller(api, replacement)

	p.Tick(context.Background())
	p.Tick(context.Background())

	assert.Len(t, replacement.executed, 1)
}

func TestTickClearsProcessedSetWhenInboxCatchesUp(t *testing.T) {
	api := &stubMailAPI{
		dmails: []e6ai.Dmail{{ID: 11, FromID: 100, Title: "replacement"}},
	}
	replacement := &stubHandler{name: "replacement"}
	p, _ := newTestPoller(api, replacement)

	p.Tick(context.Background())
	require.NotEmpty(t, p.ProcessedIDs())

	api.dmails = []e6ai.Dmail{{ID: 11, FromID: 100, Title: "replacement", IsRead: true}}
	p.Tick(context.Background())

	assert.Empty(t, p.ProcessedIDs())
}

func TestTickIsolatesFailingHandler(t *testing.T) {
	api := &stubMailAPI{
		dmails: []e6ai.Dmail{
			{ID: 1, FromID: 100, Title: "replacement"},
			{ID: 2, FromID: 101, Title: "replacement"},
		},
	}
	replacement := &stubHandler{name: "replacement"}
	replacement.onExec = func(dm e6ai.Dmail) {
		if dm.ID == 1 {
			replacement.err = errors.New("bad message")
		} else {
			replacement.err = nil
		}
	}
	p, _ := newTestPoller(api, replacement)

	p.Tick(context.Background())

	require.Len(t, replacement.executed, 2, "a failing handler must not block siblings")
	assert.ElementsMatch(t, []int64{2}, p.ProcessedIDs(), "failed dmails are retried on a later tick")
}

func TestTickIsolatesPanickingHandler(t *testing.T) {
	api := &stubMailAPI{
		dmails: []e6ai.Dmail{
			{ID: 1, FromID: 100, Title: "replacement"},
			{ID: 2, FromID: 101, Title: "other"},
		},
	}
	replacement := &stubHandler{name: "replacement", onExec: func(e6ai.Dmail) { panic("kaboom") }}
	p, fallback := newTestPoller(api, replacement)

	p.Tick(context.Background())

	assert.Len(t, fallback.executed, 1, "siblings still run after a panic")
	assert.NotContains(t, p.ProcessedIDs(), int64(1))
}

func TestTickSkipsWhenAlreadyRunning(t *testing.T) {
	api := &stubMailAPI{
		dmails: []e6ai.Dmail{{ID: 1, FromID: 100, Title: "replacement"}},
	}
	replacement := &stubHandler{name: "replacement"}
	p, _ := newTestPoller(api, replacement)

	// A re-entrant tick fired from inside a handler must be skipped.
	replacement.onExec = func(e6ai.Dmail) {
		p.Tick(context.Background())
	}

	p.Tick(context.Background())

	assert.Len(t, replacement.executed, 1)
}

func TestTickNoOpsWithoutCredentials(t *testing.T) {
	api := &stubMailAPI{
		dmails:  []e6ai.Dmail{{ID: 1, FromID: 100, Title: "replacement"}},
		listErr: errors.New("must not be called"),
	}
	replacement := &stubHandler{name: "replacement"}
	fallback := &stubHandler{name: "fallback"}
	registry := NewRegistry(fallback, replacement)
	p := NewPoller(api, registry, botID, false, 15*time.Second, zap.NewNop())

	p.Tick(context.Background())

	assert.Empty(t, replacement.executed)
}

func TestTickRoutesUnknownSubjectToFallback(t *testing.T) {
	api := &stubMailAPI{
		dmails: []e6ai.Dmail{
			{ID: 1, FromID: 100, Title: "replacement "},
			{ID: 2, FromID: 101, Title: "replac"},
		},
	}
	replacement := &stubHandler{name: "replacement"}
	p, fallback := newTestPoller(api, replacement)

	p.Tick(context.Background())

	assert.Empty(t, replacement.executed)
	assert.Len(t, fallback.executed, 2)
}
