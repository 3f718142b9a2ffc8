package usecase

import (
	"context"
	"fmt"

	"signoff.io/signoff/internal/domain/approval"
	apperrors "signoff.io/signoff/internal/pkg/errors"
	"signoff.io/signoff/internal/repository"
)

// Pagination defaults and bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a normalized pagination window.
type Page struct {
	Number int
	Size   int
}

// NormalizePage clamps raw pagination input: page floors at 1, size
// defaults to 20 and caps at 100.
func NormalizePage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// RequestPage is one page of approval requests with the total count.
type RequestPage struct {
	Items []*approval.Request
	Total int
	Page  Page
}

// ApprovalQueryService serves the read side: inbox-style listings and
// request detail.
type ApprovalQueryService struct {
	store repository.Store
}

// NewApprovalQueryService creates the query service.
func NewApprovalQueryService(store repository.Store) *ApprovalQueryService {
	return &ApprovalQueryService{store: store}
}

// PendingFor lists the requests currently awaiting the approver's
// decision, newest first.
func (s *ApprovalQueryService) PendingFor(ctx context.Context, approverID string, page Page) (*RequestPage, error) {
	items, total, err := s.store.ListPendingForApprover(ctx, approverID, page.Number, page.Size)
	if err != nil {
		return nil, fmt.Errorf("list pending approvals for %s: %w", approverID, err)
	}
	return &RequestPage{Items: items, Total: total, Page: page}, nil
}

// Mine lists the requester's own submissions, optionally narrowed to a
// status, newest first.
func (s *ApprovalQueryService) Mine(ctx context.Context, requesterID string, status approval.Status, page Page) (*RequestPage, error) {
	items, total, err := s.store.ListByRequester(ctx, requesterID, status, page.Number, page.Size)
	if err != nil {
		return nil, fmt.Errorf("list own requests for %s: %w", requesterID, err)
	}
	return &RequestPage{Items: items, Total: total, Page: page}, nil
}

// Detail loads one request for a viewer. Only the requester, a chain
// participant or an administrator may see it.
func (s *ApprovalQueryService) Detail(ctx context.Context, requestID, viewerID string, isAdmin bool) (*approval.Request, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request %s: %w", requestID, err)
	}
	if req == nil {
		return nil, apperrors.NotFound(apperrors.CodeApprovalNotFound,
			fmt.Sprintf("approval request %s not found", requestID))
	}

	if !isAdmin && !canView(req, viewerID) {
		return nil, apperrors.Forbidden(apperrors.CodeApprovalNotAuthorized,
			"only the requester or a chain participant may view this request")
	}
	return req, nil
}

func canView(req *approval.Request, viewerID string) bool {
	if req.RequesterID() == viewerID {
		return true
	}
	for _, s := range req.Steps() {
		if s.ApproverID == viewerID {
			return true
		}
	}
	return false
}
