package client

import (
	"context"

	"github.com/dmitrijs2005/cashbackhub/internal/client/models"
)

// Client is the transport-agnostic contract of the platform API.
type Client interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, profile models.RegistrationProfile) (*models.AuthResponse, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context, refreshToken string) error

	ResendVerification(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, change models.PasswordChange) error
	SetupTwoFactor(ctx context.Context) (*models.TwoFactorSetup, error)
	DisableTwoFactor(ctx context.Context, password string) error
	UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.User, error)

	Dashboard(ctx context.Context, role models.Role) (*models.DashboardSummary, error)
	Ping(ctx context.Context) error
}
