package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sortify/conveyor-dashboard/internal/api/visitor"
)

const (
	// VisitorCookie carries the opaque visitor id.
	VisitorCookie = "sortify_visitor"

	visitorKey      = "visitor"
	visitorLifetime = 30 * 24 * time.Hour
)

// CookieConfig controls the visitor cookie attributes.
type CookieConfig struct {
	Secure bool
}

// Visitor resolves the visitor cookie to its server-side state, issuing a
// new id when the cookie is missing or malformed.
func Visitor(reg *visitor.Registry, cfg CookieConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := ""
			if ck, err := c.Cookie(VisitorCookie); err == nil {
				if parsed, err := uuid.Parse(ck.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     VisitorCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(visitorLifetime.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			v, err := reg.Get(c.Request().Context(), id)
			if err != nil {
				return err
			}
			c.Set(visitorKey, v)
			return next(c)
		}
	}
}

// VisitorFrom returns the visitor attached by the Visitor middleware.
func VisitorFrom(c echo.Context) *visitor.Visitor {
	v, _ := c.Get(visitorKey).(*visitor.Visitor)
	return v
}

// WithVisitor attaches v to the request context, as the Visitor middleware does.
func WithVisitor(c echo.Context, v *visitor.Visitor) {
	c.Set(visitorKey, v)
}
