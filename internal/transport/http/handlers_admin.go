package http

import (
	"net/http"
	"strconv"
)

func (h *Handler) handleAdminEvidence(w http.ResponseWriter, r *http.Request) {
	term, page, pageSize := searchParams(r)
	result, err := h.admin.SearchEvidence(r.Context(), term, page, pageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAdminTransfers(w http.ResponseWriter, r *http.Request) {
	term, page, pageSize := searchParams(r)
	result, err := h.admin.SearchTransfers(r.Context(), term, page, pageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.admin.AuditTrail(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func searchParams(r *http.Request) (term string, page, pageSize int) {
	q := r.URL.Query()
	term = q.Get("q")
	page, _ = strconv.Atoi(q.Get("page"))
	pageSize, _ = strconv.Atoi(q.Get("page_size"))
	return term, page, pageSize
}
