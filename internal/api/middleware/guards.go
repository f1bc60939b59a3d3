package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
)

const (
	loginPath     = "/login"
	settleTimeout = 10 * time.Second
)

// RequireRole admits authenticated visitors whose role matches. Anonymous
// visitors go to the login page; visitors with another role go there with
// an explanatory message.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	mismatch := loginPath + "?message=" + url.QueryEscape(fmt.Sprintf("You must be an %s to access this page.", role))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st := SettledState(c)
			if !st.IsAuthenticated {
				return c.Redirect(http.StatusSeeOther, loginPath)
			}
			if st.Role != role {
				return c.Redirect(http.StatusSeeOther, mismatch)
			}
			return next(c)
		}
	}
}

// RedirectAuthenticated sends authenticated visitors to their role's home
// instead of the login page.
func RedirectAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st := SettledState(c)
			if st.IsAuthenticated {
				return c.Redirect(http.StatusSeeOther, st.Role.Home())
			}
			return next(c)
		}
	}
}

// SettledState waits for in-flight classification of the visitor's session
// and returns the resulting projection. Without a visitor it is anonymous.
func SettledState(c echo.Context) domain.Projection {
	v := VisitorFrom(c)
	if v == nil {
		return domain.AnonymousProjection()
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), settleTimeout)
	defer cancel()
	_ = v.Session.Settle(ctx)
	return v.Session.State()
}
