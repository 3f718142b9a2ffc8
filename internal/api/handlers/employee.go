package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"signoff.io/signoff/internal/directory"
	apperrors "signoff.io/signoff/internal/pkg/errors"
	"signoff.io/signoff/internal/repository"
	"signoff.io/signoff/internal/usecase"
)

// CreateEmployee handles POST /admin/employees.
func (s *Server) CreateEmployee(c *gin.Context) {
	var body EmployeeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequest, err.Error()))
		return
	}

	e := directory.Employee{
		IDNo:       body.IDNo,
		Department: body.Department,
		RoleName:   body.RoleName,
		RoleLevel:  body.RoleLevel,
		AccountID:  body.AccountID,
	}
	if err := s.employees.CreateEmployee(c.Request.Context(), &e); err != nil {
		_ = c.Error(mapEmployeeError(err))
		return
	}

	s.audit.Record("employee.create", "employee", e.IDNo, actorFromCtx(c), nil)
	c.JSON(http.StatusCreated, toEmployeeResponse(&e))
}

// ListEmployees handles GET /admin/employees with optional
// ?department= filter.
func (s *Server) ListEmployees(c *gin.Context) {
	page := usecase.NormalizePage(intQuery(c, "page", 1), intQuery(c, "size", usecase.DefaultPageSize))
	items, total, err := s.employees.ListEmployees(c.Request.Context(), c.Query("department"), page.Number, page.Size)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := EmployeePageResponse{
		Items: make([]EmployeeResponse, 0, len(items)),
		Total: total,
		Page:  page.Number,
		Size:  page.Size,
	}
	for i := range items {
		resp.Items = append(resp.Items, toEmployeeResponse(&items[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetEmployee handles GET /admin/employees/:id.
func (s *Server) GetEmployee(c *gin.Context) {
	id, err := employeeID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	e, err := s.employees.GetEmployeeByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if e == nil {
		_ = c.Error(apperrors.NotFound(apperrors.CodeEmployeeNotFound, "employee not found"))
		return
	}
	c.JSON(http.StatusOK, toEmployeeResponse(e))
}

// UpdateEmployee handles PUT /admin/employees/:id.
func (s *Server) UpdateEmployee(c *gin.Context) {
	id, err := employeeID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var body EmployeeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequest, err.Error()))
		return
	}

	e := directory.Employee{
		ID:         id,
		IDNo:       body.IDNo,
		Department: body.Department,
		RoleName:   body.RoleName,
		RoleLevel:  body.RoleLevel,
		AccountID:  body.AccountID,
	}
	found, err := s.employees.UpdateEmployee(c.Request.Context(), &e)
	if err != nil {
		_ = c.Error(mapEmployeeError(err))
		return
	}
	if !found {
		_ = c.Error(apperrors.NotFound(apperrors.CodeEmployeeNotFound, "employee not found"))
		return
	}

	s.audit.Record("employee.update", "employee", strconv.FormatInt(id, 10), actorFromCtx(c), nil)
	updated, err := s.employees.GetEmployeeByID(c.Request.Context(), id)
	if err != nil || updated == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, toEmployeeResponse(updated))
}

// DeleteEmployee handles DELETE /admin/employees/:id.
func (s *Server) DeleteEmployee(c *gin.Context) {
	id, err := employeeID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	found, err := s.employees.DeleteEmployee(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !found {
		_ = c.Error(apperrors.NotFound(apperrors.CodeEmployeeNotFound, "employee not found"))
		return
	}

	s.audit.Record("employee.delete", "employee", strconv.FormatInt(id, 10), actorFromCtx(c), nil)
	c.Status(http.StatusNoContent)
}

func employeeID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperrors.BadRequest(apperrors.CodeInvalidRequest, "employee id must be an integer")
	}
	return id, nil
}

func mapEmployeeError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.BadRequest(apperrors.CodeEmployeeExists, "employee number or account already in use")
	}
	return err
}
