package models

// CredentialPair holds the bearer credentials issued by the backend.
// Both values are opaque to the client.
type CredentialPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginRequest is the body of the login call. TwoFactorCode is sent only on
// the second step for accounts that require it.
type LoginRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	TwoFactorCode string `json:"twoFactorCode,omitempty"`
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	User              *User  `json:"user,omitempty"`
	AccessToken       string `json:"accessToken,omitempty"`
	RefreshToken      string `json:"refreshToken,omitempty"`
	RequiresTwoFactor bool   `json:"requiresTwoFactor,omitempty"`
}

// Credentials extracts the token pair from the response.
func (r *AuthResponse) Credentials() CredentialPair {
	return CredentialPair{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}

// RefreshResponse is returned by the token refresh exchange. RefreshToken is
// empty when the backend does not rotate it.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// PasswordChange is the body of the reset-password call.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,nefield=CurrentPassword"`
}

// TwoFactorSetup is what the backend returns when enrolling a second factor.
type TwoFactorSetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}
