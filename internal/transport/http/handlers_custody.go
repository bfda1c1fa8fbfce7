package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custodia/internal/custody"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

type transferRequestBody struct {
	ToHolderID    string `json:"to_holder_id"`
	ToHolderEmail string `json:"to_holder_email"`
	ToLocation    string `json:"to_location"`
	Reason        string `json:"reason"`
	TransferDate  string `json:"transfer_date"`
}

type transferResponse struct {
	Transfer  *custody.TransferLedgerEntry `json:"transfer"`
	Delivered bool                         `json:"delivered"`
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	evidenceID, err := id.ParseEvidenceID(chi.URLParam(r, "evidenceID"))
	if err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "malformed evidence id"))
		return
	}

	var body transferRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}

	req := custody.TransferRequest{
		EvidenceID:    evidenceID,
		ToHolderEmail: body.ToHolderEmail,
		ToLocation:    body.ToLocation,
		Reason:        body.Reason,
	}
	if body.ToHolderID != "" {
		holderID, err := id.ParseUserID(body.ToHolderID)
		if err != nil {
			h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "malformed destination holder id"))
			return
		}
		req.ToHolderID = holderID
	}
	if body.TransferDate != "" {
		t, err := time.Parse(time.RFC3339, body.TransferDate)
		if err != nil {
			h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "transfer_date must be RFC 3339"))
			return
		}
		req.TransferDate = t
	}

	result, err := h.custody.TransferCustody(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transferResponse{
		Transfer:  result.Entry,
		Delivered: result.Delivered,
	})
}

func (h *Handler) handleGetCustody(w http.ResponseWriter, r *http.Request) {
	evidenceID, err := id.ParseEvidenceID(chi.URLParam(r, "evidenceID"))
	if err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "malformed evidence id"))
		return
	}
	state, err := h.custody.Current(r.Context(), evidenceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	evidenceID, err := id.ParseEvidenceID(chi.URLParam(r, "evidenceID"))
	if err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "malformed evidence id"))
		return
	}
	entries, err := h.custody.History(r.Context(), evidenceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []custody.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
