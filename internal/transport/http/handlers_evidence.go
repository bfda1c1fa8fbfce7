package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custodia/internal/evidence"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Uploads are bounded; the attachment is proof of seizure, not a media
// archive.
const maxUploadBytes = 32 << 20

// handleLogEvidence accepts a multipart form: the item fields plus the
// proof-of-seizure file under "attachment".
func (h *Handler) handleLogEvidence(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "malformed case id"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "malformed multipart form"))
		return
	}
	file, header, err := r.FormFile("attachment")
	if err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeValidation, "proof-of-seizure attachment is required"))
		return
	}
	defer file.Close()

	req := evidence.LogRequest{
		CaseID:         caseID,
		Description:    r.FormValue("description"),
		Category:       r.FormValue("category"),
		Location:       r.FormValue("location"),
		AttachmentName: header.Filename,
		ContentType:    header.Header.Get("Content-Type"),
	}
	item, err := h.evidence.LogEvidence(r.Context(), req, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleListCaseEvidence(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "malformed case id"))
		return
	}
	items, err := h.evidence.ListByCase(r.Context(), caseID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*evidence.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleGetEvidence(w http.ResponseWriter, r *http.Request) {
	evidenceID, err := id.ParseEvidenceID(chi.URLParam(r, "evidenceID"))
	if err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "malformed evidence id"))
		return
	}
	item, err := h.evidence.Get(r.Context(), evidenceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	evidenceID, err := id.ParseEvidenceID(chi.URLParam(r, "evidenceID"))
	if err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "malformed evidence id"))
		return
	}
	rc, item, err := h.evidence.OpenAttachment(r.Context(), evidenceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+item.Code+`"`)
	_, _ = io.Copy(w, rc)
}
