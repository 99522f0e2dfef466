package dmail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Kebolder/e6aibot/internal/e6ai"
)

func TestReplierTreatsExpectedStatusAsSuccess(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	api := &stubMailAPI{sendErr: e6ai.ErrExpectedSendStatus}
	r := NewReplier(api, zap.New(core))

	err := r.Send(context.Background(), 100, "Re: hello", "body")

	require.NoError(t, err, "the expected non-success status is a successful send")
	entries := logs.FilterMessage("Sent reply dmail (API returned expected 406)").All()
	require.Len(t, entries, 1, "the send must be logged as a success")
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
}

func TestReplierPropagatesRealFailures(t *testing.T) {
	api := &stubMailAPI{sendErr: errors.New("connection refused")}
	r := NewReplier(api, zap.NewNop())

	err := r.Send(context.Background(), 100, "Re: hello", "body")

	assert.Error(t, err)
}

func TestReplierSuccess(t *testing.T) {
	api := &stubMailAPI{}
	r := NewReplier(api, zap.NewNop())

	err := r.Send(context.Background(), 100, "Re: hello", "body")

	require.NoError(t, err)
	require.Len(t, api.sent, 1)
	assert.Equal(t, sentDmail{toID: 100, title: "Re: hello", body: "body"}, api.sent[0])
}
