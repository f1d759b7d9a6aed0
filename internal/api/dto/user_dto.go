package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/vibe-music/vibe-music-server/internal/domain"
)

const (
	verificationCodeLength = 6
	minPasswordLength      = 8
	maxPasswordLength      = 72
)

var passwordRules = []validation.Rule{
	validation.Required,
	validation.Length(minPasswordLength, maxPasswordLength),
}

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Username         string `json:"username"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	VerificationCode string `json:"verificationCode"`
}

// Validate will run validation rules
func (r UserRegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(2, 32)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.VerificationCode, validation.Required,
			validation.Length(verificationCodeLength, verificationCodeLength), is.Digit),
	)
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r UserLoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// SendCodeRequest carries the email a verification code is sent to.
type SendCodeRequest struct {
	Email string `query:"email"`
}

// Validate will run validation rules
func (r SendCodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
	)
}

// UpdateUserInfoRequest edits the caller's profile. Omitted fields are kept.
type UpdateUserInfoRequest struct {
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	Phone        *string `json:"phone"`
	Introduction *string `json:"introduction"`
}

// Validate will run validation rules
func (r UpdateUserInfoRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Length(2, 32)),
		validation.Field(&r.Email, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Length(10, 11), is.Digit),
		validation.Field(&r.Introduction, validation.Length(0, 255)),
	)
}

// UpdateAvatarRequest points the caller's avatar at an uploaded image.
type UpdateAvatarRequest struct {
	AvatarURL string `json:"avatarUrl"`
}

// Validate will run validation rules
func (r UpdateAvatarRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AvatarURL, validation.Required, validation.Length(1, 255), is.RequestURL),
	)
}

// UpdatePasswordRequest changes the caller's password. Equality of the new
// and repeated password is checked by the service after the old password.
type UpdatePasswordRequest struct {
	OldPassword    string `json:"oldPassword"`
	NewPassword    string `json:"newPassword"`
	RepeatPassword string `json:"repeatPassword"`
}

// Validate will run validation rules
func (r UpdatePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, passwordRules...),
		validation.Field(&r.RepeatPassword, validation.Required),
	)
}

// ResetPasswordRequest sets a new password using an emailed code.
type ResetPasswordRequest struct {
	Email            string `json:"email"`
	VerificationCode string `json:"verificationCode"`
	NewPassword      string `json:"newPassword"`
	RepeatPassword   string `json:"repeatPassword"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.VerificationCode, validation.Required,
			validation.Length(verificationCodeLength, verificationCodeLength), is.Digit),
		validation.Field(&r.NewPassword, passwordRules...),
		validation.Field(&r.RepeatPassword, validation.Required),
	)
}

// AuthResponse standard response for login endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewAuthResponse renders an issued session.
func NewAuthResponse(session *domain.Session) AuthResponse {
	return AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt}
}

// UserResponse is the public view of a user profile.
type UserResponse struct {
	UserID       int64     `json:"userId"`
	Username     string    `json:"username"`
	Phone        *string   `json:"phone"`
	Email        string    `json:"email"`
	UserAvatar   *string   `json:"userAvatar"`
	Introduction *string   `json:"introduction"`
	CreateTime   time.Time `json:"createTime"`
}

// NewUserResponse maps a domain user, dropping credentials and status.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:       user.ID,
		Username:     user.Username,
		Phone:        user.Phone,
		Email:        user.Email,
		UserAvatar:   user.Avatar,
		Introduction: user.Introduction,
		CreateTime:   user.CreatedAt,
	}
}
