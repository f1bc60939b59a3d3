package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type PublicHandler struct {
	log zerolog.Logger
}

func NewPublicHandler(log zerolog.Logger) *PublicHandler {
	return &PublicHandler{log: log}
}

var landing = landingResponse{
	Title:    "AI-Powered Conveyor Belt Sorting",
	Tagline:  "Transform your factory's sorting system with real-time AI object detection, instant classification, and full operator control.",
	LoginURL: "/login",
	Features: []feature{
		{Title: "AI-Powered Object Detection", Description: "Accurately detects plastic vs. non-plastic items."},
		{Title: "Live Monitoring Dashboard", Description: "Real-time visual tracking, like airport security systems."},
		{Title: "Conveyor Speed Control", Description: "Adjust speed dynamically for optimal sorting efficiency."},
		{Title: "Error Reporting & Audit Logs", Description: "Track all operational actions and generate reports."},
		{Title: "Secure Operator Access", Description: "Role-based management for admins and operators."},
		{Title: "Easy Integration", Description: "Works with existing factory conveyor belt systems."},
	},
}

// Landing handles GET /.
//
// @Summary      Landing page
// @Tags         public
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       / [get]
func (h *PublicHandler) Landing(c echo.Context) error {
	return render(c, http.StatusOK, landing)
}

// NotFound answers any unmatched path.
func (h *PublicHandler) NotFound(c echo.Context) error {
	path := c.Request().URL.Path
	h.log.Warn().Str("path", path).Msg("404: non-existent route requested")
	return c.JSON(http.StatusNotFound, notFoundResponse{
		Error: "Oops! The page you're looking for doesn't exist.",
		Path:  path,
		Home:  "/",
	})
}
