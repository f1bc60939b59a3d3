package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

// AdminHandler serves the admin area. Every route sits behind
// RequireRole(admin).
type AdminHandler struct {
	dashboard ports.DashboardService
	accounts  ports.AccountService
}

func NewAdminHandler(dashboard ports.DashboardService, accounts ports.AccountService) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, accounts: accounts}
}

// Overview handles GET /admin.
//
// @Summary      Admin overview
// @Tags         admin
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /admin [get]
func (h *AdminHandler) Overview(c echo.Context) error {
	return render(c, http.StatusOK, h.dashboard.Overview(c.Request().Context()))
}

// Analytics handles GET /admin/analytics.
//
// @Summary      Sorting analytics
// @Tags         admin
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /admin/analytics [get]
func (h *AdminHandler) Analytics(c echo.Context) error {
	return render(c, http.StatusOK, h.dashboard.Analytics(c.Request().Context()))
}

// Logs handles GET /admin/logs.
//
// @Summary      Sorting logs and account activity
// @Tags         admin
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /admin/logs [get]
func (h *AdminHandler) Logs(c echo.Context) error {
	return render(c, http.StatusOK, h.dashboard.Logs(c.Request().Context()))
}

// Settings handles GET /admin/settings.
//
// @Summary      System settings
// @Tags         admin
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /admin/settings [get]
func (h *AdminHandler) Settings(c echo.Context) error {
	return render(c, http.StatusOK, h.dashboard.Settings(c.Request().Context()))
}

// SaveSettings handles PUT /admin/settings.
//
// @Summary      Save system settings
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      domain.SystemSettings  true  "Settings"
// @Success      200   {object}  pageResponse
// @Failure      400   {object}  map[string]string
// @Router       /admin/settings [put]
func (h *AdminHandler) SaveSettings(c echo.Context) error {
	var req domain.SystemSettings
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	saved, err := h.dashboard.SaveSettings(c.Request().Context(), actor(c), req)
	if err != nil {
		return err
	}
	notify(c, domain.Notification{Title: "Settings Saved", Description: "System settings have been updated"})
	return render(c, http.StatusOK, saved)
}

// Users handles GET /admin/users.
//
// @Summary      List accounts
// @Tags         admin
// @Produce      json
// @Param        filter  query     string  false  "all, pending, approved or rejected"
// @Success      200     {object}  pageResponse
// @Failure      400     {object}  map[string]string
// @Router       /admin/users [get]
func (h *AdminHandler) Users(c echo.Context) error {
	filter := c.QueryParam("filter")
	if filter == "" {
		filter = "all"
	}
	var status domain.ApprovalStatus
	if filter != "all" {
		parsed, err := domain.ParseApprovalStatus(filter)
		if err != nil {
			return fmt.Errorf("%w: unknown filter %q", domain.ErrInvalidInput, filter)
		}
		status = parsed
	}

	ctx := c.Request().Context()
	users, err := h.accounts.ListAccounts(ctx, status)
	if err != nil {
		return err
	}
	stats, err := h.accounts.Stats(ctx)
	if err != nil {
		return err
	}
	if users == nil {
		users = []domain.Account{}
	}
	return render(c, http.StatusOK, usersResponse{Filter: filter, Users: users, Stats: stats})
}

// CreateUser handles POST /admin/users.
//
// @Summary      Create an approved account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "Account details"
// @Success      201   {object}  pageResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /admin/users [post]
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	acct, err := h.accounts.CreateAccount(c.Request().Context(), actor(c), req.toInput())
	if err != nil {
		return err
	}
	notify(c, domain.Notification{Title: "User Added", Description: fmt.Sprintf("%s has been added successfully", acct.Username)})
	return render(c, http.StatusCreated, acct)
}

// UpdateUser handles PATCH /admin/users/:id.
//
// @Summary      Update an account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Account id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  pageResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /admin/users/{id} [patch]
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id := c.Param("id")
	if err := h.accounts.UpdateAccount(c.Request().Context(), actor(c), id, req.toPatch()); err != nil {
		return err
	}
	notify(c, domain.Notification{Title: "User Updated", Description: "User details have been saved"})
	return render(c, http.StatusOK, map[string]string{"id": id})
}

// ApproveUser handles POST /admin/users/:id/approve.
//
// @Summary      Approve an account
// @Tags         admin
// @Produce      json
// @Param        id  path      string  true  "Account id"
// @Success      200  {object}  pageResponse
// @Failure      404  {object}  map[string]string
// @Router       /admin/users/{id}/approve [post]
func (h *AdminHandler) ApproveUser(c echo.Context) error {
	id := c.Param("id")
	if err := h.accounts.Approve(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	notify(c, domain.Notification{Title: "User Approved", Description: "User has been approved successfully"})
	return render(c, http.StatusOK, approvalResponse{ID: id, ApprovalStatus: domain.ApprovalApproved})
}

// RejectUser handles POST /admin/users/:id/reject.
//
// @Summary      Reject an account
// @Tags         admin
// @Produce      json
// @Param        id  path      string  true  "Account id"
// @Success      200  {object}  pageResponse
// @Failure      404  {object}  map[string]string
// @Router       /admin/users/{id}/reject [post]
func (h *AdminHandler) RejectUser(c echo.Context) error {
	id := c.Param("id")
	if err := h.accounts.Reject(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	notify(c, domain.Notification{Title: "User Rejected", Description: "User has been rejected successfully"})
	return render(c, http.StatusOK, approvalResponse{ID: id, ApprovalStatus: domain.ApprovalRejected})
}
