package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// AdminLoginRequest payload for administrator login.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r AdminLoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// AdminRegisterRequest creates another administrator.
type AdminRegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r AdminRegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(2, 32)),
		validation.Field(&r.Password, passwordRules...),
	)
}

// AdminResponse is the public view of an administrator.
type AdminResponse struct {
	AdminID  int64  `json:"adminId"`
	Username string `json:"username"`
}
