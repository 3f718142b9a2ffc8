package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"signoff.io/signoff/internal/domain/approval"
	apperrors "signoff.io/signoff/internal/pkg/errors"
)

// CreateLeave handles POST /approvals/leave.
func (s *Server) CreateLeave(c *gin.Context) {
	var body CreateLeaveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequest, err.Error()))
		return
	}

	detail, err := approval.NewLeaveDetail(approval.LeaveType(body.LeaveType), body.StartDate, body.EndDate, body.Reason)
	if err != nil {
		_ = c.Error(validationError(err))
		return
	}

	req, err := s.commands.CreateLeave(c.Request.Context(), actorFromCtx(c), detail)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toRequestResponse(req))
}

// CreateExpense handles POST /approvals/expense.
func (s *Server) CreateExpense(c *gin.Context) {
	var body CreateExpenseRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequest, err.Error()))
		return
	}

	detail, err := approval.NewExpenseDetail(body.Amount, body.Category, body.Description, body.ReceiptURL)
	if err != nil {
		_ = c.Error(validationError(err))
		return
	}

	req, err := s.commands.CreateExpense(c.Request.Context(), actorFromCtx(c), detail)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toRequestResponse(req))
}

// ApproveRequest handles POST /approvals/:id/approve.
func (s *Server) ApproveRequest(c *gin.Context) {
	s.decide(c, s.commands.Approve)
}

// RejectRequest handles POST /approvals/:id/reject.
func (s *Server) RejectRequest(c *gin.Context) {
	s.decide(c, s.commands.Reject)
}

func (s *Server) decide(c *gin.Context, op func(ctx context.Context, requestID, actor, comment string) (*approval.Request, error)) {
	// The comment body is optional; an empty body decides without one.
	var body DecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequest, err.Error()))
		return
	}

	req, err := op(c.Request.Context(), c.Param("id"), actorFromCtx(c), body.Comment)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toRequestResponse(req))
}

// CancelRequest handles POST /approvals/:id/cancel.
func (s *Server) CancelRequest(c *gin.Context) {
	req, err := s.commands.Cancel(c.Request.Context(), c.Param("id"), actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toRequestResponse(req))
}

// ListPending handles GET /approvals/pending: requests currently
// awaiting the caller's decision.
func (s *Server) ListPending(c *gin.Context) {
	page, err := s.queries.PendingFor(c.Request.Context(), actorFromCtx(c), pageFromQuery(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(page))
}

// ListMine handles GET /approvals/mine: the caller's own submissions,
// optionally narrowed by ?status=.
func (s *Server) ListMine(c *gin.Context) {
	status := approval.Status(c.Query("status"))
	switch status {
	case "", approval.StatusPending, approval.StatusApproved, approval.StatusRejected, approval.StatusCancelled:
	default:
		_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequest, "unknown status filter"))
		return
	}

	page, err := s.queries.Mine(c.Request.Context(), actorFromCtx(c), status, pageFromQuery(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(page))
}

// GetRequest handles GET /approvals/:id.
func (s *Server) GetRequest(c *gin.Context) {
	req, err := s.queries.Detail(c.Request.Context(), c.Param("id"), actorFromCtx(c), isAdminCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toRequestResponse(req))
}

// validationError maps detail construction failures onto the 400
// surface while passing anything unexpected through unchanged.
func validationError(err error) error {
	var vErr *approval.ValidationError
	if errors.As(err, &vErr) {
		return apperrors.BadRequest(apperrors.CodeValidationFailed, vErr.Error())
	}
	return err
}
