package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

// OperatorHandler serves the operator console.
type OperatorHandler struct {
	dashboard ports.DashboardService
}

func NewOperatorHandler(dashboard ports.DashboardService) *OperatorHandler {
	return &OperatorHandler{dashboard: dashboard}
}

// View handles GET /operator.
//
// @Summary      Operator console
// @Tags         operator
// @Produce      json
// @Param        filter  query     string  false  "all, plastic or non-plastic"
// @Success      200     {object}  pageResponse
// @Failure      400     {object}  map[string]string
// @Router       /operator [get]
func (h *OperatorHandler) View(c echo.Context) error {
	view, err := h.dashboard.Operator(c.Request().Context(), c.QueryParam("filter"))
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, view)
}

// ToggleBelt handles POST /operator/belt/toggle.
//
// @Summary      Start or pause the belt
// @Tags         operator
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /operator/belt/toggle [post]
func (h *OperatorHandler) ToggleBelt(c echo.Context) error {
	st := h.dashboard.ToggleBelt(c.Request().Context(), actor(c))
	if st.Running {
		notify(c, domain.Notification{Title: "System Started", Description: "The conveyor belt is now running"})
	} else {
		notify(c, domain.Notification{Title: "System Paused", Description: "The conveyor belt has been paused"})
	}
	return render(c, http.StatusOK, st)
}

// RestartBelt handles POST /operator/belt/restart.
//
// @Summary      Restart the belt
// @Tags         operator
// @Produce      json
// @Success      202  {object}  pageResponse
// @Router       /operator/belt/restart [post]
func (h *OperatorHandler) RestartBelt(c echo.Context) error {
	st := h.dashboard.RestartBelt(c.Request().Context(), actor(c))
	notify(c, domain.Notification{Title: "System Restarting", Description: "The system is restarting, please wait..."})
	return render(c, http.StatusAccepted, st)
}

// UpdateSettings handles PUT /operator/settings.
//
// @Summary      Change belt speed and camera settings
// @Tags         operator
// @Accept       json
// @Produce      json
// @Param        body  body      beltSettingsRequest  true  "Belt settings"
// @Success      200   {object}  pageResponse
// @Failure      400   {object}  map[string]string
// @Router       /operator/settings [put]
func (h *OperatorHandler) UpdateSettings(c echo.Context) error {
	var req beltSettingsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	st, err := h.dashboard.UpdateBeltSettings(c.Request().Context(), actor(c), domain.BeltSettings{
		BeltSpeed:     req.BeltSpeed,
		CameraQuality: domain.CameraQuality(req.CameraQuality),
		CameraZoom:    req.CameraZoom,
	})
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, st)
}

// ReportIssue handles POST /operator/items/:id/report.
//
// @Summary      Report a misclassified item
// @Tags         operator
// @Produce      json
// @Param        id  path      string  true  "Item id"
// @Success      201  {object}  pageResponse
// @Failure      404  {object}  map[string]string
// @Router       /operator/items/{id}/report [post]
func (h *OperatorHandler) ReportIssue(c echo.Context) error {
	id := c.Param("id")
	report, err := h.dashboard.ReportIssue(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	notify(c, domain.Notification{
		Title:       "Issue Reported",
		Description: fmt.Sprintf("Issue with item #%s has been reported and will be reviewed.", id),
	})
	return render(c, http.StatusCreated, report)
}
