package handler

import (
	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

type loginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type signupRequest struct {
	Username        string `json:"username" form:"username" validate:"required"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
	FullName        string `json:"full_name" form:"full_name" validate:"required"`
}

type loginPageResponse struct {
	Message string `json:"message,omitempty"`
}

// redirectResponse tells the client where to navigate after an auth action.
type redirectResponse struct {
	Redirect string `json:"redirect"`
}

type createUserRequest struct {
	Username     string `json:"username" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	FullName     string `json:"full_name" validate:"required"`
	Role         string `json:"role" validate:"required,oneof=admin operator"`
	AssignedBelt string `json:"assigned_belt"`
	Status       string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (r createUserRequest) toInput() ports.CreateAccountInput {
	in := ports.CreateAccountInput{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		FullName: r.FullName,
		Role:     domain.Role(r.Role),
		Status:   domain.AccountStatus(r.Status),
	}
	if r.AssignedBelt != "" {
		belt := r.AssignedBelt
		in.AssignedBelt = &belt
	}
	return in
}

type updateUserRequest struct {
	Username     *string `json:"username" validate:"omitempty,min=1"`
	Email        *string `json:"email" validate:"omitempty,email"`
	FullName     *string `json:"full_name" validate:"omitempty,min=1"`
	Role         *string `json:"role" validate:"omitempty,oneof=admin operator"`
	AssignedBelt *string `json:"assigned_belt"`
	Status       *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (r updateUserRequest) toPatch() domain.AccountPatch {
	p := domain.AccountPatch{
		Username:     r.Username,
		Email:        r.Email,
		FullName:     r.FullName,
		AssignedBelt: r.AssignedBelt,
	}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		p.Role = &role
	}
	if r.Status != nil {
		status := domain.AccountStatus(*r.Status)
		p.Status = &status
	}
	return p
}

type usersResponse struct {
	Filter string              `json:"filter"`
	Users  []domain.Account    `json:"users"`
	Stats  domain.AccountStats `json:"stats"`
}

type approvalResponse struct {
	ID             string                `json:"id"`
	ApprovalStatus domain.ApprovalStatus `json:"approval_status"`
}

type beltSettingsRequest struct {
	BeltSpeed     int     `json:"belt_speed" validate:"gte=0,lte=100"`
	CameraQuality string  `json:"camera_quality" validate:"required,oneof=144p 240p 360p 480p 720p 1080p"`
	CameraZoom    float64 `json:"camera_zoom" validate:"gte=1"`
}

type landingResponse struct {
	Title    string    `json:"title"`
	Tagline  string    `json:"tagline"`
	Features []feature `json:"features"`
	LoginURL string    `json:"login_url"`
}

type feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type notFoundResponse struct {
	Error string `json:"error"`
	Path  string `json:"path"`
	Home  string `json:"home"`
}
