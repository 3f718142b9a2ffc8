package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"signoff.io/signoff/internal/api/middleware"
	"signoff.io/signoff/internal/directory"
	"signoff.io/signoff/internal/notification"
	"signoff.io/signoff/internal/pkg/logger"
	"signoff.io/signoff/internal/repository"
	"signoff.io/signoff/internal/service"
	"signoff.io/signoff/internal/testutil"
	"signoff.io/signoff/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

var testJWTCfg = middleware.JWTConfig{
	SigningKey: []byte("handler-test-key-1234567890123456"),
	Issuer:     "signoff",
	ExpiresIn:  time.Hour,
}

// --- fakes ---

type fakeUsers struct {
	users map[string]*repository.User
}

func (f *fakeUsers) GetUserByUsername(_ context.Context, username string) (*repository.User, error) {
	return f.users[username], nil
}

type fakeEmployees struct {
	byID    map[int64]*directory.Employee
	nextID  int64
	idNos   map[string]int64
	deleted []int64
}

func newFakeEmployees() *fakeEmployees {
	return &fakeEmployees{byID: map[int64]*directory.Employee{}, idNos: map[string]int64{}}
}

func (f *fakeEmployees) CreateEmployee(_ context.Context, e *directory.Employee) error {
	if _, dup := f.idNos[e.IDNo]; dup {
		return fmt.Errorf("create employee %s: %w", e.IDNo, repository.ErrDuplicate)
	}
	f.nextID++
	e.ID = f.nextID
	e.CreatedAt = time.Now().UTC()
	copied := *e
	f.byID[e.ID] = &copied
	f.idNos[e.IDNo] = e.ID
	return nil
}

func (f *fakeEmployees) GetEmployeeByID(_ context.Context, id int64) (*directory.Employee, error) {
	return f.byID[id], nil
}

func (f *fakeEmployees) ListEmployees(_ context.Context, department string, page, size int) ([]directory.Employee, int, error) {
	var out []directory.Employee
	for _, e := range f.byID {
		if department == "" || e.Department == department {
			out = append(out, *e)
		}
	}
	return out, len(out), nil
}

func (f *fakeEmployees) UpdateEmployee(_ context.Context, e *directory.Employee) (bool, error) {
	existing, ok := f.byID[e.ID]
	if !ok {
		return false, nil
	}
	existing.Department = e.Department
	existing.RoleName = e.RoleName
	existing.RoleLevel = e.RoleLevel
	existing.AccountID = e.AccountID
	now := time.Now().UTC()
	existing.UpdatedAt = &now
	return true, nil
}

func (f *fakeEmployees) DeleteEmployee(_ context.Context, id int64) (bool, error) {
	if _, ok := f.byID[id]; !ok {
		return false, nil
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return true, nil
}

type fakeInbox struct {
	items map[string]*notification.Notification
}

func newFakeInbox() *fakeInbox {
	return &fakeInbox{items: map[string]*notification.Notification{}}
}

func (f *fakeInbox) add(id, userID string, read bool) {
	f.items[id] = &notification.Notification{
		ID:        id,
		UserID:    userID,
		Type:      notification.TypeApprovalPending,
		Title:     "t",
		Message:   "m",
		Read:      read,
		CreatedAt: time.Now().UTC(),
	}
}

func (f *fakeInbox) ListForUser(_ context.Context, userID string, unreadOnly bool, page, size int) ([]notification.Notification, int, error) {
	var out []notification.Notification
	for _, n := range f.items {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, *n)
	}
	return out, len(out), nil
}

func (f *fakeInbox) MarkRead(_ context.Context, userID, notificationID string) (bool, error) {
	n, ok := f.items[notificationID]
	if !ok || n.UserID != userID || n.Read {
		return false, nil
	}
	n.Read = true
	return true, nil
}

func (f *fakeInbox) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var updated int64
	for _, n := range f.items {
		if n.UserID == userID && !n.Read {
			n.Read = true
			updated++
		}
	}
	return updated, nil
}

// --- harness ---

type env struct {
	router    *gin.Engine
	store     *testutil.MemStore
	employees *fakeEmployees
	inbox     *fakeInbox
	users     *fakeUsers
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dir := &testutil.MemDirectory{AdminID: "admin"}
	dir.Add("it-staff", directory.DepartmentIT, 1)
	dir.Add("it-lead", directory.DepartmentIT, 2)
	dir.Add("admin", directory.DepartmentHR, 9)

	store := testutil.NewMemStore(dir)
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	e := &env{
		store:     store,
		employees: newFakeEmployees(),
		inbox:     newFakeInbox(),
		users: &fakeUsers{users: map[string]*repository.User{
			"alice": {ID: "it-staff", Username: "alice", PasswordHash: string(hash), Role: "USER"},
		}},
	}

	srv := NewServer(ServerDeps{
		Commands:  usecase.NewApprovalService(store, service.NewChainBuilder(), nil),
		Queries:   usecase.NewApprovalQueryService(store),
		Users:     e.users,
		Employees: e.employees,
		Inbox:     e.inbox,
		JWTCfg:    testJWTCfg,
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler())
	srv.RegisterRoutes(r)
	e.router = r
	return e
}

func (e *env) token(t *testing.T, userID, role string) string {
	t.Helper()
	token, _, err := middleware.GenerateToken(testJWTCfg, userID, userID, role)
	require.NoError(t, err)
	return token
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func leaveBody() CreateLeaveRequest {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return CreateLeaveRequest{
		LeaveType: "ANNUAL",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 5),
		Reason:    "vacation",
	}
}

// --- auth ---

func TestLogin(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Username: "alice", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "it-staff", resp.UserID)

	w = e.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Username: "alice", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown users get the same response as a wrong password.
	w = e.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Username: "mallory", Password: "password123"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_FAILED")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/api/v1/approvals/mine", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- approval flow ---

func TestApprovalLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)
	staff := e.token(t, "it-staff", "USER")
	lead := e.token(t, "it-lead", "USER")
	admin := e.token(t, "admin", "ADMIN")

	w := e.do(t, http.MethodPost, "/api/v1/approvals/leave", staff, leaveBody())
	require.Equal(t, http.StatusCreated, w.Code)

	var created RequestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "PENDING", created.Status)
	require.Len(t, created.Steps, 2)
	require.NotNil(t, created.CurrentStepOrder)
	assert.Equal(t, 1, *created.CurrentStepOrder)
	assert.Equal(t, "it-lead", created.Steps[0].ApproverID)
	assert.Equal(t, "admin", created.Steps[1].ApproverID)

	// The first approver sees it in their pending queue.
	w = e.do(t, http.MethodGet, "/api/v1/approvals/pending", lead, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending PageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	require.Equal(t, 1, pending.Total)

	// Approving out of turn is forbidden.
	w = e.do(t, http.MethodPost, "/api/v1/approvals/"+created.ID+"/approve", admin, DecisionRequest{})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "APPROVAL_NOT_AUTHORIZED")

	w = e.do(t, http.MethodPost, "/api/v1/approvals/"+created.ID+"/approve", lead, DecisionRequest{Comment: "fine"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/approvals/"+created.ID+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var final RequestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &final))
	assert.Equal(t, "APPROVED", final.Status)
	assert.Nil(t, final.CurrentStepOrder)

	// Deciding a terminal request is a 400.
	w = e.do(t, http.MethodPost, "/api/v1/approvals/"+created.ID+"/reject", admin, DecisionRequest{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "APPROVAL_INVALID_STATUS")

	// The requester sees it in their own listing.
	w = e.do(t, http.MethodGet, "/api/v1/approvals/mine?status=APPROVED", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine PageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	require.Equal(t, 1, mine.Total)
}

func TestCancelOverHTTP(t *testing.T) {
	e := newEnv(t)
	staff := e.token(t, "it-staff", "USER")
	lead := e.token(t, "it-lead", "USER")

	w := e.do(t, http.MethodPost, "/api/v1/approvals/leave", staff, leaveBody())
	require.Equal(t, http.StatusCreated, w.Code)
	var created RequestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Only the requester may cancel.
	w = e.do(t, http.MethodPost, "/api/v1/approvals/"+created.ID+"/cancel", lead, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/approvals/"+created.ID+"/cancel", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cancelled RequestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cancelled))
	assert.Equal(t, "CANCELLED", cancelled.Status)
}

func TestCreateLeaveValidation(t *testing.T) {
	e := newEnv(t)
	staff := e.token(t, "it-staff", "USER")

	bad := leaveBody()
	bad.EndDate = bad.StartDate
	w := e.do(t, http.MethodPost, "/api/v1/approvals/leave", staff, bad)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_FAILED")

	w = e.do(t, http.MethodPost, "/api/v1/approvals/leave", staff, gin.H{"leave_type": "ANNUAL"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateExpenseValidation(t *testing.T) {
	e := newEnv(t)
	staff := e.token(t, "it-staff", "USER")

	w := e.do(t, http.MethodPost, "/api/v1/approvals/expense", staff, CreateExpenseRequest{
		Amount: -5, Category: "travel", Description: "taxi",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRequest(t *testing.T) {
	e := newEnv(t)
	staff := e.token(t, "it-staff", "USER")

	w := e.do(t, http.MethodGet, "/api/v1/approvals/nope", staff, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "APPROVAL_NOT_FOUND")

	created := RequestResponse{}
	w = e.do(t, http.MethodPost, "/api/v1/approvals/leave", staff, leaveBody())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = e.do(t, http.MethodGet, "/api/v1/approvals/"+created.ID, staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestListMineRejectsUnknownStatus(t *testing.T) {
	e := newEnv(t)
	staff := e.token(t, "it-staff", "USER")

	w := e.do(t, http.MethodGet, "/api/v1/approvals/mine?status=BANANA", staff, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

// --- admin employees ---

func TestEmployeeAdminRequiresAdminRole(t *testing.T) {
	e := newEnv(t)
	staff := e.token(t, "it-staff", "USER")

	w := e.do(t, http.MethodGet, "/api/v1/admin/employees", staff, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestEmployeeCRUD(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, "admin", "ADMIN")

	body := EmployeeRequest{
		IDNo:       "E-100",
		Department: directory.DepartmentIT,
		RoleName:   "engineer",
		RoleLevel:  1,
		AccountID:  "it-staff",
	}
	w := e.do(t, http.MethodPost, "/api/v1/admin/employees", admin, body)
	require.Equal(t, http.StatusCreated, w.Code)
	var created EmployeeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	// Duplicate employee number.
	w = e.do(t, http.MethodPost, "/api/v1/admin/employees", admin, body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "EMPLOYEE_ALREADY_EXISTS")

	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/employees/%d", created.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body.RoleLevel = 2
	w = e.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/employees/%d", created.ID), admin, body)
	require.Equal(t, http.StatusOK, w.Code)
	var updated EmployeeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 2, updated.RoleLevel)

	w = e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/employees/%d", created.ID), admin, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/employees/%d", created.ID), admin, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/admin/employees/abc", admin, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

// --- notifications ---

func TestNotificationInbox(t *testing.T) {
	e := newEnv(t)
	staff := e.token(t, "it-staff", "USER")
	e.inbox.add("n-1", "it-staff", false)
	e.inbox.add("n-2", "it-staff", true)
	e.inbox.add("n-3", "it-lead", false)

	w := e.do(t, http.MethodGet, "/api/v1/notifications", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page NotificationPageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, 2, page.Total)

	w = e.do(t, http.MethodGet, "/api/v1/notifications?unread=true", staff, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, 1, page.Total)

	w = e.do(t, http.MethodPost, "/api/v1/notifications/n-1/read", staff, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// Another user's notification is invisible.
	w = e.do(t, http.MethodPost, "/api/v1/notifications/n-3/read", staff, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	e.inbox.add("n-4", "it-staff", false)
	w = e.do(t, http.MethodPost, "/api/v1/notifications/read-all", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"updated":1`)
}

// --- health ---

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// No pinger configured: ready by definition.
	w = e.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
