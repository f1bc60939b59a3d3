package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

type AuthHandler struct {
	accounts ports.AccountService
	log      zerolog.Logger
}

func NewAuthHandler(accounts ports.AccountService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, log: log}
}

// LoginPage echoes the message a guard attached to the redirect.
//
// @Summary      Login page
// @Tags         auth
// @Produce      json
// @Param        message  query     string  false  "Message shown above the form"
// @Success      200      {object}  pageResponse
// @Failure      303
// @Router       /login [get]
func (h *AuthHandler) LoginPage(c echo.Context) error {
	msg := c.QueryParam("message")
	if msg != "" {
		notify(c, domain.Notification{Title: "Access Denied", Description: msg, Variant: domain.VariantDestructive})
	}
	return render(c, http.StatusOK, loginPageResponse{Message: msg})
}

// Login checks credentials and waits for the approval decision.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  pageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	v, err := currentVisitor(c)
	if err != nil {
		return err
	}

	if err := v.Session.SignIn(c.Request().Context(), req.Email, req.Password); err != nil {
		return err
	}
	return render(c, http.StatusOK, redirectResponse{Redirect: v.Session.State().Role.Home()})
}

// SignUp registers an operator account awaiting admin approval. The visitor
// stays signed out.
//
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Registration details"
// @Success      201   {object}  pageResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	acct, err := h.accounts.SignUp(c.Request().Context(), ports.SignUpInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}

	notify(c, domain.Notification{
		Title:       "Registration Submitted",
		Description: "Your account has been created and is pending admin approval. You'll be notified when approved.",
	})
	return render(c, http.StatusCreated, acct)
}

// Logout ends the visitor's session.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	v, err := currentVisitor(c)
	if err != nil {
		return err
	}
	v.Session.Logout(c.Request().Context())
	return render(c, http.StatusOK, redirectResponse{Redirect: "/login"})
}
