// Package handlers implements the HTTP API surface. Handlers stay
// thin: bind and validate input, call a use case, map the result to a
// response DTO. Errors flow through c.Error into the centralized error
// handler middleware.
package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"signoff.io/signoff/internal/api/middleware"
	"signoff.io/signoff/internal/audit"
	"signoff.io/signoff/internal/directory"
	"signoff.io/signoff/internal/domain/approval"
	"signoff.io/signoff/internal/notification"
	"signoff.io/signoff/internal/repository"
	"signoff.io/signoff/internal/usecase"
)

// ApprovalCommands is the write side of the approval API.
type ApprovalCommands interface {
	CreateLeave(ctx context.Context, requesterID string, detail approval.LeaveDetail) (*approval.Request, error)
	CreateExpense(ctx context.Context, requesterID string, detail approval.ExpenseDetail) (*approval.Request, error)
	Approve(ctx context.Context, requestID, approverID, comment string) (*approval.Request, error)
	Reject(ctx context.Context, requestID, approverID, comment string) (*approval.Request, error)
	Cancel(ctx context.Context, requestID, requesterID string) (*approval.Request, error)
}

// ApprovalQueries is the read side of the approval API.
type ApprovalQueries interface {
	PendingFor(ctx context.Context, approverID string, page usecase.Page) (*usecase.RequestPage, error)
	Mine(ctx context.Context, requesterID string, status approval.Status, page usecase.Page) (*usecase.RequestPage, error)
	Detail(ctx context.Context, requestID, viewerID string, isAdmin bool) (*approval.Request, error)
}

// UserReader resolves accounts for login.
type UserReader interface {
	GetUserByUsername(ctx context.Context, username string) (*repository.User, error)
}

// EmployeeAdmin is the employee directory administration surface.
type EmployeeAdmin interface {
	CreateEmployee(ctx context.Context, e *directory.Employee) error
	GetEmployeeByID(ctx context.Context, id int64) (*directory.Employee, error)
	ListEmployees(ctx context.Context, department string, page, size int) ([]directory.Employee, int, error)
	UpdateEmployee(ctx context.Context, e *directory.Employee) (bool, error)
	DeleteEmployee(ctx context.Context, id int64) (bool, error)
}

// InboxReader serves the notification inbox.
type InboxReader interface {
	ListForUser(ctx context.Context, userID string, unreadOnly bool, page, size int) ([]notification.Notification, int, error)
	MarkRead(ctx context.Context, userID, notificationID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// Pinger checks database liveness for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds all API handlers.
type Server struct {
	commands  ApprovalCommands
	queries   ApprovalQueries
	users     UserReader
	employees EmployeeAdmin
	inbox     InboxReader
	pinger    Pinger
	jwtCfg    middleware.JWTConfig
	audit     *audit.Logger
}

// ServerDeps holds all dependencies for creating a Server. Manual DI,
// no Wire/Dig.
type ServerDeps struct {
	Commands  ApprovalCommands
	Queries   ApprovalQueries
	Users     UserReader
	Employees EmployeeAdmin
	Inbox     InboxReader
	Pinger    Pinger
	JWTCfg    middleware.JWTConfig
	Audit     *audit.Logger
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		commands:  deps.Commands,
		queries:   deps.Queries,
		users:     deps.Users,
		employees: deps.Employees,
		inbox:     deps.Inbox,
		pinger:    deps.Pinger,
		jwtCfg:    deps.JWTCfg,
		audit:     deps.Audit,
	}
}

// actorFromCtx extracts the authenticated user ID from the request
// context.
func actorFromCtx(c *gin.Context) string {
	return c.GetString("user_id")
}

func isAdminCtx(c *gin.Context) bool {
	return c.GetString("role") == middleware.RoleAdmin
}

// pageFromQuery reads and clamps ?page= and ?size=.
func pageFromQuery(c *gin.Context) usecase.Page {
	return usecase.NormalizePage(intQuery(c, "page", 1), intQuery(c, "size", usecase.DefaultPageSize))
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
