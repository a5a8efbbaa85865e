package httpapi

import (
	"time"

	"github.com/dmitrijs2005/cashbackhub/internal/server/models"
	"github.com/dmitrijs2005/cashbackhub/internal/server/users"
)

type userDTO struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	Role             string    `json:"role"`
	IsVerified       bool      `json:"isVerified"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled"`
	CreatedAt        time.Time `json:"createdAt"`

	CompanyName string `json:"companyName,omitempty"`
	Website     string `json:"website,omitempty"`

	Channels     []string `json:"channels,omitempty"`
	AudienceSize int      `json:"audienceSize,omitempty"`
}

func toUserDTO(u *models.User) *userDTO {
	return &userDTO{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Phone:            u.Phone,
		Role:             u.Role,
		IsVerified:       u.IsVerified,
		TwoFactorEnabled: u.TwoFactorEnabled,
		CreatedAt:        u.CreatedAt,
		CompanyName:      u.CompanyName,
		Website:          u.Website,
		Channels:         u.Channels,
		AudienceSize:     u.AudienceSize,
	}
}

type userResponse struct {
	User *userDTO `json:"user"`
}

type loginRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	TwoFactorCode string `json:"twoFactorCode"`
}

type authResponse struct {
	User              *userDTO `json:"user,omitempty"`
	AccessToken       string   `json:"accessToken,omitempty"`
	RefreshToken      string   `json:"refreshToken,omitempty"`
	RequiresTwoFactor bool     `json:"requiresTwoFactor,omitempty"`
}

func newAuthResponse(u *models.User, pair *users.TokenPair) authResponse {
	return authResponse{User: toUserDTO(u), AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type twoFactorSetupResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

type dashboardResponse struct {
	Role    string             `json:"role"`
	Metrics map[string]float64 `json:"metrics"`
	Notices []string           `json:"notices,omitempty"`
}
