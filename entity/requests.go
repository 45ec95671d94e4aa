package entity

import (
	"net/http"
	"phonereuse/lib/validate"
	"strings"
)

type RegisterRequest struct {
	PhoneNumber  string `json:"phone_number" validate:"required,phone"`
	CountryCode  string `json:"country_code" validate:"omitempty,max=16"`
	ActivationID string `json:"activation_id" validate:"omitempty,max=64"`
	Service      string `json:"service" validate:"omitempty,max=32"`
}

// Bind trims the fields the registry trims, so both apply the same phone rule.
func (r *RegisterRequest) Bind(_ *http.Request) error {
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.Service = strings.TrimSpace(r.Service)
	return validate.Struct(r)
}

// ServiceRequest is the body of acquire and mark-used calls; an empty service means the default one.
type ServiceRequest struct {
	Service string `json:"service" validate:"omitempty,max=32"`
}

func (r *ServiceRequest) Bind(_ *http.Request) error {
	r.Service = strings.TrimSpace(r.Service)
	return validate.Struct(r)
}
