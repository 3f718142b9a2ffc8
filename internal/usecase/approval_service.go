// Package usecase provides the application services. Approval writes
// and their notice enqueues run atomically in a single transaction so a
// committed decision always carries its notification job.
package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"signoff.io/signoff/internal/audit"
	"signoff.io/signoff/internal/domain/approval"
	"signoff.io/signoff/internal/jobs"
	"signoff.io/signoff/internal/notification"
	apperrors "signoff.io/signoff/internal/pkg/errors"
	"signoff.io/signoff/internal/pkg/logger"
	"signoff.io/signoff/internal/repository"
	"signoff.io/signoff/internal/service"
)

// ApprovalService orchestrates the approval lifecycle: submission with
// chain building, decisions and cancellation.
type ApprovalService struct {
	store repository.Store
	chain *service.ChainBuilder
	audit *audit.Logger
}

// NewApprovalService creates the approval service. The audit logger may
// be nil.
func NewApprovalService(store repository.Store, chain *service.ChainBuilder, auditLogger *audit.Logger) *ApprovalService {
	return &ApprovalService{
		store: store,
		chain: chain,
		audit: auditLogger,
	}
}

// CreateLeave submits a leave request. The approval chain is derived
// from the directory inside the same transaction as the insert.
func (s *ApprovalService) CreateLeave(ctx context.Context, requesterID string, detail approval.LeaveDetail) (*approval.Request, error) {
	return s.create(ctx, approval.TypeLeave, requesterID, func(chain []string) (*approval.Request, error) {
		return approval.NewLeaveRequest(requesterID, detail, chain)
	})
}

// CreateExpense submits an expense request.
func (s *ApprovalService) CreateExpense(ctx context.Context, requesterID string, detail approval.ExpenseDetail) (*approval.Request, error) {
	return s.create(ctx, approval.TypeExpense, requesterID, func(chain []string) (*approval.Request, error) {
		return approval.NewExpenseRequest(requesterID, detail, chain)
	})
}

func (s *ApprovalService) create(
	ctx context.Context,
	typ approval.Type,
	requesterID string,
	build func(chain []string) (*approval.Request, error),
) (*approval.Request, error) {
	var req *approval.Request

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		chain, err := s.chain.Build(ctx, tx.Directory(), typ, requesterID)
		if err != nil {
			if errors.Is(err, service.ErrChainBuild) {
				return apperrors.UnprocessableEntity(apperrors.CodeApprovalChainEmpty, err.Error())
			}
			return fmt.Errorf("build approval chain: %w", err)
		}

		req, err = build(chain)
		if err != nil {
			return fmt.Errorf("create %s request: %w", typ, err)
		}

		if err := tx.InsertRequest(ctx, req); err != nil {
			return err
		}

		return tx.EnqueueNotice(ctx, jobs.DecisionNoticeArgs{
			RequestID:    req.ID(),
			RequestType:  string(typ),
			Event:        notification.EventSubmitted,
			Actor:        requesterID,
			RecipientIDs: []string{chain[0]},
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.RecordDecision(req.ID(), "submit", requesterID)
	logger.Info("approval request submitted",
		zap.String("request_id", req.ID()),
		zap.String("type", string(typ)),
		zap.String("requester", requesterID),
		zap.Int("chain_length", len(req.Steps())),
	)
	return req, nil
}

// Approve records the current approver's approval. Intermediate
// approvals notify the next approver; the final one notifies the
// requester.
func (s *ApprovalService) Approve(ctx context.Context, requestID, approverID, comment string) (*approval.Request, error) {
	req, err := s.decide(ctx, requestID, "approve", func(req *approval.Request) (jobs.DecisionNoticeArgs, error) {
		if err := req.Approve(approverID, comment); err != nil {
			return jobs.DecisionNoticeArgs{}, err
		}

		notice := jobs.DecisionNoticeArgs{
			RequestID:   req.ID(),
			RequestType: string(req.Type()),
			Actor:       approverID,
			Comment:     comment,
		}
		if req.Status() == approval.StatusApproved {
			notice.Event = notification.EventApproved
			notice.RecipientIDs = []string{req.RequesterID()}
		} else if next, ok := req.CurrentStep(); ok {
			notice.Event = notification.EventStepAdvanced
			notice.RecipientIDs = []string{next.ApproverID}
		}
		return notice, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.RecordDecision(requestID, "approve", approverID)
	return req, nil
}

// Reject records the current approver's rejection, terminating the
// request.
func (s *ApprovalService) Reject(ctx context.Context, requestID, approverID, comment string) (*approval.Request, error) {
	req, err := s.decide(ctx, requestID, "reject", func(req *approval.Request) (jobs.DecisionNoticeArgs, error) {
		if err := req.Reject(approverID, comment); err != nil {
			return jobs.DecisionNoticeArgs{}, err
		}
		return jobs.DecisionNoticeArgs{
			RequestID:    req.ID(),
			RequestType:  string(req.Type()),
			Event:        notification.EventRejected,
			Actor:        approverID,
			Comment:      comment,
			RecipientIDs: []string{req.RequesterID()},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.RecordDecision(requestID, "reject", approverID)
	return req, nil
}

// Cancel withdraws a pending request on behalf of its requester. The
// approver currently holding the request is notified.
func (s *ApprovalService) Cancel(ctx context.Context, requestID, requesterID string) (*approval.Request, error) {
	req, err := s.decide(ctx, requestID, "cancel", func(req *approval.Request) (jobs.DecisionNoticeArgs, error) {
		current, hadCurrent := req.CurrentStep()
		if err := req.Cancel(requesterID); err != nil {
			return jobs.DecisionNoticeArgs{}, err
		}

		notice := jobs.DecisionNoticeArgs{
			RequestID:   req.ID(),
			RequestType: string(req.Type()),
			Event:       notification.EventCancelled,
			Actor:       requesterID,
		}
		if hadCurrent {
			notice.RecipientIDs = []string{current.ApproverID}
		}
		return notice, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.RecordDecision(requestID, "cancel", requesterID)
	return req, nil
}

// decide loads the request under a row lock, applies the transition and
// persists the result with its notice in one transaction.
func (s *ApprovalService) decide(
	ctx context.Context,
	requestID, action string,
	transition func(req *approval.Request) (jobs.DecisionNoticeArgs, error),
) (*approval.Request, error) {
	var req *approval.Request

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		req, err = tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return apperrors.NotFound(apperrors.CodeApprovalNotFound,
				fmt.Sprintf("approval request %s not found", requestID))
		}

		notice, err := transition(req)
		if err != nil {
			return translateDomainError(err)
		}

		if err := tx.UpdateRequest(ctx, req); err != nil {
			return err
		}
		if len(notice.RecipientIDs) == 0 {
			return nil
		}
		return tx.EnqueueNotice(ctx, notice)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("approval decision recorded",
		zap.String("request_id", requestID),
		zap.String("action", action),
		zap.String("status", string(req.Status())),
	)
	return req, nil
}

// translateDomainError maps aggregate sentinels onto the API error
// surface: authorization failures are 403, state conflicts are 400.
func translateDomainError(err error) error {
	switch {
	case errors.Is(err, approval.ErrNotAuthorized):
		return apperrors.Forbidden(apperrors.CodeApprovalNotAuthorized, err.Error())
	case errors.Is(err, approval.ErrInvalidStatus):
		return apperrors.BadRequest(apperrors.CodeApprovalInvalidStatus, err.Error())
	case errors.Is(err, approval.ErrNoPendingStep):
		return apperrors.BadRequest(apperrors.CodeApprovalInvalidStatus, err.Error())
	default:
		return err
	}
}
