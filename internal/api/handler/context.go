package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sortify/conveyor-dashboard/internal/api/middleware"
	"github.com/sortify/conveyor-dashboard/internal/api/visitor"
	"github.com/sortify/conveyor-dashboard/internal/core/domain"
)

// pageResponse is the envelope of every page view. Notifications raised
// since the previous response are drained into it.
type pageResponse struct {
	Data          any                   `json:"data,omitempty"`
	Session       domain.Projection     `json:"session"`
	Notifications []domain.Notification `json:"notifications,omitempty"`
}

// currentVisitor fails fast when a route is mounted outside the Visitor
// middleware.
func currentVisitor(c echo.Context) (*visitor.Visitor, error) {
	v := middleware.VisitorFrom(c)
	if v == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "visitor state unavailable")
	}
	return v, nil
}

// actor names the signed-in user for audit entries and issue reports.
func actor(c echo.Context) string {
	v := middleware.VisitorFrom(c)
	if v == nil {
		return ""
	}
	st := v.Session.State()
	if st.Name != "" {
		return st.Name
	}
	return string(st.Role)
}

func notify(c echo.Context, n domain.Notification) {
	if v := middleware.VisitorFrom(c); v != nil {
		v.Inbox.Notify(n)
	}
}

func render(c echo.Context, status int, data any) error {
	resp := pageResponse{Data: data, Session: domain.AnonymousProjection()}
	if v := middleware.VisitorFrom(c); v != nil {
		resp.Session = v.Session.State()
		resp.Notifications = v.Inbox.Drain()
	}
	return c.JSON(status, resp)
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
