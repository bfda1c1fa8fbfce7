package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/pkg/requestcontext"
)

type failingTransport struct{}

func (failingTransport) Send(context.Context, string, string, string) error {
	return errors.New("relay unreachable")
}

type failingStore struct{}

func (failingStore) Create(context.Context, *Entry) error {
	return errors.New("ledger down")
}

func (failingStore) ListByReference(context.Context, uuid.UUID) ([]*Entry, error) {
	return nil, errors.New("ledger down")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleNotification() Notification {
	return Notification{
		EventType:   EventCustodyTransferred,
		Recipient:   "courier@central.example",
		Subject:     "Custody transferred: EVD-2026-000001",
		Body:        "item moved",
		ReferenceID: uuid.New(),
	}
}

func TestRecordDeliveredWritesSentEntry(t *testing.T) {
	store := NewInMemoryStore()
	recorder := NewRecorder(NoopTransport{}, store, discardLogger(), nil)
	n := sampleNotification()

	delivered := recorder.Record(context.Background(), n)
	assert.True(t, delivered)

	entries, err := store.ListByReference(context.Background(), n.ReferenceID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusSent, entries[0].Status)
	assert.Empty(t, entries[0].ErrorDetail)
	assert.Equal(t, n.Recipient, entries[0].Recipient)
}

func TestRecordFailedDeliveryWritesFailedEntry(t *testing.T) {
	store := NewInMemoryStore()
	recorder := NewRecorder(failingTransport{}, store, discardLogger(), nil)
	n := sampleNotification()

	delivered := recorder.Record(context.Background(), n)
	assert.False(t, delivered)

	entries, err := store.ListByReference(context.Background(), n.ReferenceID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusFailed, entries[0].Status)
	assert.Contains(t, entries[0].ErrorDetail, "relay unreachable")
}

// A dead ledger store cannot turn into a caller-visible failure; the
// delivery outcome is still reported truthfully.
func TestRecordAbsorbsLedgerFailure(t *testing.T) {
	recorder := NewRecorder(NoopTransport{}, failingStore{}, discardLogger(), nil)

	delivered := recorder.Record(context.Background(), sampleNotification())
	assert.True(t, delivered)
}

// The ledger write survives the caller's context being cancelled between
// delivery and the write.
func TestRecordWritesLedgerOnCancelledContext(t *testing.T) {
	store := NewInMemoryStore()
	recorder := NewRecorder(NoopTransport{}, store, discardLogger(), nil)
	n := sampleNotification()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recorder.Record(ctx, n)

	entries, err := store.ListByReference(context.Background(), n.ReferenceID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecordUsesRequestTime(t *testing.T) {
	store := NewInMemoryStore()
	recorder := NewRecorder(NoopTransport{}, store, discardLogger(), nil)
	n := sampleNotification()

	at := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	recorder.Record(requestcontext.WithTime(context.Background(), at), n)

	entries, err := store.ListByReference(context.Background(), n.ReferenceID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].AttemptedAt.Equal(at))
}
