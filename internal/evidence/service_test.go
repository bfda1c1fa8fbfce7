package evidence

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/attachment"
	"custodia/internal/audit"
	"custodia/internal/cases"
	"custodia/internal/custody"
	"custodia/internal/identity"
	"custodia/internal/notify"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/requestcontext"
)

type logFixture struct {
	service     *Service
	custodyMem  *custody.InMemoryStore
	notifyStore *notify.InMemoryStore
	auditStore  *audit.InMemoryStore
	officer     *identity.Account
	caseID      id.CaseID
}

func newLogFixture(t *testing.T) *logFixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	now := time.Now().UTC()

	accounts := identity.NewInMemoryStore()
	officer, err := identity.NewAccount(id.NewUserID(), "officer@central.example", "Officer One", identity.RoleOfficer, "Central", now)
	require.NoError(t, err)
	require.NoError(t, accounts.Create(ctx, officer))

	caseStore := cases.NewInMemoryStore()
	devCase := &cases.Case{ID: id.NewCaseID(), Number: "CASE-2026-0001", Title: "Sample", Status: "open", CreatedAt: now}
	require.NoError(t, caseStore.Create(ctx, devCase))

	attachments, err := attachment.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	custodyMem := custody.NewInMemoryStore()
	store := NewInMemoryStore(custodyMem, "EVD")
	notifyStore := notify.NewInMemoryStore()
	auditStore := audit.NewInMemoryStore()
	notifier := notify.NewRecorder(notify.NoopTransport{}, notifyStore, log, nil)
	auditor := audit.NewRecorder(auditStore, nil, log, nil)

	service := NewService(store, attachments, cases.NewRegistry(caseStore),
		identity.NewService(accounts), auditor, notifier, nil, log, time.Second)
	return &logFixture{
		service:     service,
		custodyMem:  custodyMem,
		notifyStore: notifyStore,
		auditStore:  auditStore,
		officer:     officer,
		caseID:      devCase.ID,
	}
}

func (f *logFixture) authedCtx() context.Context {
	return requestcontext.WithIdentity(context.Background(), f.officer.ID, "officer", f.officer.DisplayName)
}

func validRequest(caseID id.CaseID) LogRequest {
	return LogRequest{
		CaseID:         caseID,
		Description:    "seized phone",
		Category:       "electronics",
		Location:       "Evidence Locker A",
		AttachmentName: "seizure.jpg",
		ContentType:    "image/jpeg",
	}
}

func TestLogEvidenceCreatesItemAndInitialCustody(t *testing.T) {
	f := newLogFixture(t)
	ctx := f.authedCtx()

	item, err := f.service.LogEvidence(ctx, validRequest(f.caseID), strings.NewReader("jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, "EVD-"+time.Now().UTC().Format("2006")+"-000001", item.Code)
	assert.Equal(t, f.officer.ID, item.LoggedBy)
	assert.NotEmpty(t, item.AttachmentRef)

	state, err := f.custodyMem.Current(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, f.officer.ID, state.HolderID)
	assert.Equal(t, "Evidence Locker A", state.Location)

	trail, err := f.auditStore.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, audit.ActionEvidenceLogged, trail[0].Action)

	// Confirmation runs off the request path; wait for its ledger entry.
	require.Eventually(t, func() bool {
		attempts, err := f.notifyStore.ListByReference(context.Background(), item.ID.UUID())
		return err == nil && len(attempts) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLogEvidenceUnknownCase(t *testing.T) {
	f := newLogFixture(t)

	_, err := f.service.LogEvidence(f.authedCtx(), validRequest(id.NewCaseID()), strings.NewReader("jpeg bytes"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestLogEvidenceRequiresAttachment(t *testing.T) {
	f := newLogFixture(t)

	req := validRequest(f.caseID)
	req.AttachmentName = ""
	_, err := f.service.LogEvidence(f.authedCtx(), req, strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestLogEvidenceRequiresOfficer(t *testing.T) {
	f := newLogFixture(t)

	_, err := f.service.LogEvidence(context.Background(), validRequest(f.caseID), strings.NewReader("jpeg bytes"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestOpenAttachmentRoundTrip(t *testing.T) {
	f := newLogFixture(t)
	ctx := f.authedCtx()

	item, err := f.service.LogEvidence(ctx, validRequest(f.caseID), strings.NewReader("jpeg bytes"))
	require.NoError(t, err)

	rc, got, err := f.service.OpenAttachment(ctx, item.ID)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, item.ID, got.ID)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestResolveReturnsCatalogItem(t *testing.T) {
	f := newLogFixture(t)
	ctx := f.authedCtx()

	item, err := f.service.LogEvidence(ctx, validRequest(f.caseID), strings.NewReader("jpeg bytes"))
	require.NoError(t, err)

	resolved, err := f.service.Resolve(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Code, resolved.Code)
	assert.Equal(t, item.CaseID, resolved.CaseID)

	_, err = f.service.Resolve(ctx, id.NewEvidenceID())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
