// Package admin serves the oversight surface: searchable, paginated
// projections over the evidence catalog, the transfer ledger, and the audit
// trail. Everything here is read-only.
package admin

import (
	"context"

	"custodia/internal/audit"
	"custodia/internal/custody"
	"custodia/internal/evidence"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxAuditLimit   = 500
)

type EvidencePage struct {
	Items    []*evidence.Item `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

type TransferPage struct {
	Entries  []custody.HistoryEntry `json:"entries"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

type Service struct {
	evidence *evidence.Service
	custody  *custody.Service
	auditor  *audit.Recorder
}

func NewService(evidenceSvc *evidence.Service, custodySvc *custody.Service, auditor *audit.Recorder) *Service {
	return &Service{evidence: evidenceSvc, custody: custodySvc, auditor: auditor}
}

// SearchEvidence pages through the catalog, optionally filtered by term.
func (s *Service) SearchEvidence(ctx context.Context, term string, page, pageSize int) (*EvidencePage, error) {
	page, pageSize = clampPage(page, pageSize)
	items, total, err := s.evidence.Search(ctx, evidence.SearchQuery{
		Term: term, Page: page, PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*evidence.Item{}
	}
	return &EvidencePage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// SearchTransfers pages through the full transfer ledger.
func (s *Service) SearchTransfers(ctx context.Context, term string, page, pageSize int) (*TransferPage, error) {
	page, pageSize = clampPage(page, pageSize)
	entries, total, err := s.custody.SearchTransfers(ctx, custody.SearchQuery{
		Term: term, Page: page, PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []custody.HistoryEntry{}
	}
	return &TransferPage{Entries: entries, Total: total, Page: page, PageSize: pageSize}, nil
}

// AuditTrail returns the most recent audit entries.
func (s *Service) AuditTrail(ctx context.Context, limit int) ([]*audit.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	entries, err := s.auditor.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}
	return entries, nil
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
