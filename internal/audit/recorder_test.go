package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "custodia/pkg/domain"
	"custodia/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Create(context.Context, *Entry) error {
	return errors.New("audit store down")
}

func (failingStore) List(context.Context, int) ([]*Entry, error) {
	return nil, errors.New("audit store down")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecordCapturesRequestContext(t *testing.T) {
	store := NewInMemoryStore()
	recorder := NewRecorder(store, nil, discardLogger(), nil)

	actor := id.NewUserID()
	at := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithIdentity(context.Background(), actor, "officer", "Officer One")
	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.9", "raw-ua", "Chrome 120 / Linux")
	ctx = requestcontext.WithTime(ctx, at)

	recorder.Record(ctx, ActionCustodyTransferred, TargetTransfer, "t-1", map[string]any{"reason": "handover"})

	entries, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, actor, entry.ActorID)
	assert.Equal(t, "Officer One", entry.ActorName)
	assert.Equal(t, ActionCustodyTransferred, entry.Action)
	assert.Equal(t, "t-1", entry.TargetID)
	assert.Equal(t, "10.0.0.9", entry.SourceIP)
	assert.Equal(t, "Chrome 120 / Linux", entry.Device)
	assert.True(t, entry.CreatedAt.Equal(at))
	assert.JSONEq(t, `{"reason":"handover"}`, string(entry.Detail))
}

// Record never panics or propagates an error, whatever the store does.
func TestRecordAbsorbsStoreFailure(t *testing.T) {
	recorder := NewRecorder(failingStore{}, nil, discardLogger(), nil)

	assert.NotPanics(t, func() {
		recorder.Record(context.Background(), ActionEvidenceLogged, TargetEvidence, "e-1", nil)
	})
}

func TestRecordUnserializableDetailDegrades(t *testing.T) {
	store := NewInMemoryStore()
	recorder := NewRecorder(store, nil, discardLogger(), nil)

	recorder.Record(context.Background(), ActionEvidenceLogged, TargetEvidence, "e-1",
		map[string]any{"bad": make(chan int)})

	entries, err := store.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.JSONEq(t, `{}`, string(entries[0].Detail))
}

func TestListNewestFirst(t *testing.T) {
	store := NewInMemoryStore()
	recorder := NewRecorder(store, nil, discardLogger(), nil)

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ctx := requestcontext.WithTime(context.Background(), base.Add(time.Duration(i)*time.Minute))
		recorder.Record(ctx, ActionEvidenceLogged, TargetEvidence, "e-1", nil)
	}

	entries, err := store.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt))
}
