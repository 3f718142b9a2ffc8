package handlers

import (
	"time"

	"signoff.io/signoff/internal/directory"
	"signoff.io/signoff/internal/domain/approval"
	"signoff.io/signoff/internal/usecase"
)

// --- request bodies ---

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

// CreateLeaveRequest is the leave submission payload.
type CreateLeaveRequest struct {
	LeaveType string    `json:"leave_type" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
	Reason    string    `json:"reason" binding:"required"`
}

// CreateExpenseRequest is the expense submission payload.
type CreateExpenseRequest struct {
	Amount      float64 `json:"amount" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Description string  `json:"description" binding:"required"`
	ReceiptURL  string  `json:"receipt_url"`
}

// DecisionRequest carries an optional comment for approve/reject.
type DecisionRequest struct {
	Comment string `json:"comment"`
}

// EmployeeRequest is the admin payload for creating or updating an
// employee record.
type EmployeeRequest struct {
	IDNo       string `json:"id_no" binding:"required"`
	Department string `json:"department" binding:"required"`
	RoleName   string `json:"role_name" binding:"required"`
	RoleLevel  int    `json:"role_level" binding:"required,min=1"`
	AccountID  string `json:"account_id"`
}

// --- responses ---

// StepResponse is one chain link in API form.
type StepResponse struct {
	Order      int        `json:"order"`
	ApproverID string     `json:"approver_id"`
	Status     string     `json:"status"`
	Comment    string     `json:"comment,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// RequestResponse is an approval request in API form. Detail carries
// the leave or expense payload; its shape follows the request type.
type RequestResponse struct {
	ID               string         `json:"id"`
	Type             string         `json:"type"`
	Status           string         `json:"status"`
	RequesterID      string         `json:"requester_id"`
	Detail           any            `json:"detail"`
	Steps            []StepResponse `json:"steps"`
	CurrentStepOrder *int           `json:"current_step_order,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        *time.Time     `json:"updated_at,omitempty"`
}

// PageResponse is a paginated listing envelope.
type PageResponse struct {
	Items []RequestResponse `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
}

// EmployeeResponse is an employee record in API form.
type EmployeeResponse struct {
	ID         int64      `json:"id"`
	IDNo       string     `json:"id_no"`
	Department string     `json:"department"`
	RoleName   string     `json:"role_name"`
	RoleLevel  int        `json:"role_level"`
	AccountID  string     `json:"account_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// EmployeePageResponse is a paginated employee listing.
type EmployeePageResponse struct {
	Items []EmployeeResponse `json:"items"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

func toRequestResponse(req *approval.Request) RequestResponse {
	steps := req.Steps()
	stepDTOs := make([]StepResponse, 0, len(steps))
	for _, s := range steps {
		stepDTOs = append(stepDTOs, StepResponse{
			Order:      s.Order,
			ApproverID: s.ApproverID,
			Status:     string(s.Status),
			Comment:    s.Comment,
			DecidedAt:  s.DecidedAt,
			CreatedAt:  s.CreatedAt,
		})
	}

	resp := RequestResponse{
		ID:          req.ID(),
		Type:        string(req.Type()),
		Status:      string(req.Status()),
		RequesterID: req.RequesterID(),
		Detail:      req.Detail(),
		Steps:       stepDTOs,
		CreatedAt:   req.CreatedAt(),
		UpdatedAt:   req.UpdatedAt(),
	}
	if current, ok := req.CurrentStep(); ok && req.Status() == approval.StatusPending {
		order := current.Order
		resp.CurrentStepOrder = &order
	}
	return resp
}

func toPageResponse(page *usecase.RequestPage) PageResponse {
	items := make([]RequestResponse, 0, len(page.Items))
	for _, req := range page.Items {
		items = append(items, toRequestResponse(req))
	}
	return PageResponse{
		Items: items,
		Total: page.Total,
		Page:  page.Page.Number,
		Size:  page.Page.Size,
	}
}

func toEmployeeResponse(e *directory.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:         e.ID,
		IDNo:       e.IDNo,
		Department: e.Department,
		RoleName:   e.RoleName,
		RoleLevel:  e.RoleLevel,
		AccountID:  e.AccountID,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
