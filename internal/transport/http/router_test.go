package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/admin"
	"custodia/internal/attachment"
	"custodia/internal/audit"
	"custodia/internal/cases"
	"custodia/internal/custody"
	"custodia/internal/evidence"
	"custodia/internal/identity"
	"custodia/internal/notify"
	id "custodia/pkg/domain"
)

type apiFixture struct {
	server       *httptest.Server
	officerToken string
	adminToken   string
	courier      *identity.Account
	caseID       id.CaseID
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	now := time.Now().UTC()

	accounts := identity.NewInMemoryStore()
	officer, err := identity.NewAccount(id.NewUserID(), "officer@central.example", "Officer One", identity.RoleOfficer, "Central", now)
	require.NoError(t, err)
	adminAccount, err := identity.NewAccount(id.NewUserID(), "admin@central.example", "Admin One", identity.RoleAdmin, "Central", now)
	require.NoError(t, err)
	courier, err := identity.NewAccount(id.NewUserID(), "courier@central.example", "Officer Two", identity.RoleOfficer, "Central", now)
	require.NoError(t, err)
	for _, account := range []*identity.Account{officer, adminAccount, courier} {
		require.NoError(t, accounts.Create(ctx, account))
	}
	identitySvc := identity.NewService(accounts)

	caseStore := cases.NewInMemoryStore()
	devCase := &cases.Case{ID: id.NewCaseID(), Number: "CASE-2026-0001", Title: "Sample", Status: "open", CreatedAt: now}
	require.NoError(t, caseStore.Create(ctx, devCase))

	attachments, err := attachment.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	custodyMem := custody.NewInMemoryStore()
	evidenceStore := evidence.NewInMemoryStore(custodyMem, "EVD")
	notifier := notify.NewRecorder(notify.NoopTransport{}, notify.NewInMemoryStore(), log, nil)
	auditor := audit.NewRecorder(audit.NewInMemoryStore(), nil, log, nil)

	evidenceSvc := evidence.NewService(evidenceStore, attachments, cases.NewRegistry(caseStore),
		identitySvc, auditor, notifier, nil, log, time.Second)
	custodySvc := custody.NewService(custodyMem, evidenceSvc, identitySvc,
		nil, auditor, notifier, nil, log, time.Second)
	adminSvc := admin.NewService(evidenceSvc, custodySvc, auditor)

	jwtSvc := identity.NewJWTService("test-signing-key", "custodia-test")
	officerToken, err := jwtSvc.GenerateToken(officer, time.Hour)
	require.NoError(t, err)
	adminToken, err := jwtSvc.GenerateToken(adminAccount, time.Hour)
	require.NoError(t, err)

	router := NewRouter(Deps{
		Evidence:  evidenceSvc,
		Custody:   custodySvc,
		Admin:     adminSvc,
		Validator: jwtSvc,
		Logger:    log,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &apiFixture{
		server:       server,
		officerToken: officerToken,
		adminToken:   adminToken,
		courier:      courier,
		caseID:       devCase.ID,
	}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func (f *apiFixture) logEvidence(t *testing.T) evidence.Item {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("description", "seized phone"))
	require.NoError(t, mw.WriteField("category", "electronics"))
	require.NoError(t, mw.WriteField("location", "Evidence Locker A"))
	fw, err := mw.CreateFormFile("attachment", "seizure.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp := f.do(t, http.MethodPost, "/cases/"+f.caseID.String()+"/evidence",
		f.officerToken, &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var item evidence.Item
	decodeJSON(t, resp, &item)
	return item
}

func (f *apiFixture) transferBody(location string) *bytes.Reader {
	body, _ := json.Marshal(map[string]string{
		"to_holder_id": f.courier.ID.String(),
		"to_location":  location,
		"reason":       "forensic analysis",
	})
	return bytes.NewReader(body)
}

func TestAPIRequiresAuth(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/evidence/"+id.NewEvidenceID().String(), "", nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPILogEvidenceAndReadBack(t *testing.T) {
	f := newAPIFixture(t)
	item := f.logEvidence(t)
	assert.Contains(t, item.Code, "EVD-")

	resp := f.do(t, http.MethodGet, "/evidence/"+item.ID.String(), f.officerToken, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got evidence.Item
	decodeJSON(t, resp, &got)
	assert.Equal(t, item.Code, got.Code)

	resp = f.do(t, http.MethodGet, "/evidence/"+item.ID.String()+"/custody", f.officerToken, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state custody.State
	decodeJSON(t, resp, &state)
	assert.Equal(t, "Evidence Locker A", state.Location)
}

func TestAPILogEvidenceWithoutAttachment(t *testing.T) {
	f := newAPIFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("description", "seized phone"))
	require.NoError(t, mw.WriteField("category", "electronics"))
	require.NoError(t, mw.WriteField("location", "Evidence Locker A"))
	require.NoError(t, mw.Close())

	resp := f.do(t, http.MethodPost, "/cases/"+f.caseID.String()+"/evidence",
		f.officerToken, &buf, mw.FormDataContentType())
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPITransferThenNoOpConflict(t *testing.T) {
	f := newAPIFixture(t)
	item := f.logEvidence(t)
	path := "/evidence/" + item.ID.String() + "/transfers"

	resp := f.do(t, http.MethodPost, path, f.officerToken, f.transferBody("Forensics Lab"), "application/json")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Transfer  custody.TransferLedgerEntry `json:"transfer"`
		Delivered bool                        `json:"delivered"`
	}
	decodeJSON(t, resp, &created)
	assert.True(t, created.Delivered)
	assert.Equal(t, "Forensics Lab", created.Transfer.ToLocation)

	// The identical transfer is now a no-op and must answer 409 with the
	// dedicated code, distinguishable from a 404.
	resp = f.do(t, http.MethodPost, path, f.officerToken, f.transferBody("Forensics Lab"), "application/json")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	decodeJSON(t, resp, &envelope)
	assert.Equal(t, "no_op_transfer", envelope.Error)

	// History holds exactly the one committed transfer.
	resp = f.do(t, http.MethodGet, path, f.officerToken, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []custody.HistoryEntry
	decodeJSON(t, resp, &history)
	assert.Len(t, history, 1)
}

func TestAPITransferUnknownEvidenceIs404(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/evidence/"+id.NewEvidenceID().String()+"/transfers",
		f.officerToken, f.transferBody("Forensics Lab"), "application/json")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIMalformedIDsAre400(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{
		"/evidence/not-a-uuid",
		"/evidence/not-a-uuid/custody",
		"/evidence/not-a-uuid/transfers",
	} {
		resp := f.do(t, http.MethodGet, path, f.officerToken, nil, "")
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "path %s", path)
	}
}

func TestAPIAdminSurfaceRequiresAdminRole(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/admin/evidence", f.officerToken, nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/admin/evidence", f.adminToken, nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIAdminProjections(t *testing.T) {
	f := newAPIFixture(t)
	item := f.logEvidence(t)

	resp := f.do(t, http.MethodPost, "/evidence/"+item.ID.String()+"/transfers",
		f.officerToken, f.transferBody("Forensics Lab"), "application/json")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodGet, fmt.Sprintf("/admin/transfers?q=%s&page=1&page_size=10", "forensics"), f.adminToken, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var transfers admin.TransferPage
	decodeJSON(t, resp, &transfers)
	assert.Equal(t, 1, transfers.Total)

	resp = f.do(t, http.MethodGet, "/admin/audit?limit=10", f.adminToken, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var trail []audit.Entry
	decodeJSON(t, resp, &trail)
	assert.NotEmpty(t, trail)
}

func TestAPIHealthz(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/healthz", "", nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
