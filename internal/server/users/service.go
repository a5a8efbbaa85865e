// Package users implements the dev backend's account logic: registration,
// login with an optional second factor, refresh token rotation and the
// profile operations behind /auth and /users.
package users

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/cashbackhub/internal/logging"
	"github.com/dmitrijs2005/cashbackhub/internal/secret"
	"github.com/dmitrijs2005/cashbackhub/internal/server/auth"
	"github.com/dmitrijs2005/cashbackhub/internal/server/config"
	"github.com/dmitrijs2005/cashbackhub/internal/server/models"
	"github.com/dmitrijs2005/cashbackhub/internal/server/refreshtokens"
)

const issuer = "CashbackHub"

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidAccessToken  = errors.New("invalid access token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrIncorrectPassword   = errors.New("password is incorrect")
	ErrInvalidVerification = errors.New("invalid verification token")
	ErrForbidden           = errors.New("forbidden")
)

// ValidationError lists rejected fields by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Registration is the sign-up payload. Role-specific fields are checked
// against Role.
type Registration struct {
	Role      string `json:"role" validate:"required,oneof=user publisher promoter"`
	FirstName string `json:"firstName" validate:"required,max=64"`
	LastName  string `json:"lastName" validate:"required,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Phone     string `json:"phone" validate:"omitempty,e164"`

	ReferralCode string `json:"referralCode" validate:"omitempty,alphanum,max=32"`

	CompanyName string `json:"companyName" validate:"max=128"`
	Website     string `json:"website" validate:"omitempty,url"`
	TaxID       string `json:"taxId" validate:"max=32"`

	Channels     []string `json:"channels" validate:"dive,required"`
	AudienceSize int      `json:"audienceSize" validate:"gte=0"`
}

// ProfilePatch carries editable profile fields. Nil fields are unchanged.
type ProfilePatch struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=64"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=64"`
	Phone     *string `json:"phone" validate:"omitempty,e164"`
}

// Dashboard is the role-scoped summary.
type Dashboard struct {
	Role    string
	Metrics map[string]float64
	Notices []string
}

type Service struct {
	repo                         Repository
	refreshTokenRepo             refreshtokens.Repository
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	bcryptCost                   int
	publicURL                    string
	validate                     *validator.Validate
	now                          func() time.Time

	mu            sync.Mutex
	verifications map[string]string
}

func NewService(repo Repository, refreshTokenRepo refreshtokens.Repository, cfg *config.Config, logger logging.Logger) *Service {
	return &Service{
		repo:                         repo,
		refreshTokenRepo:             refreshTokenRepo,
		logger:                       logger,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		bcryptCost:                   cfg.BcryptCost,
		publicURL:                    strings.TrimRight(cfg.PublicURL, "/"),
		validate:                     newValidator(),
		now:                          time.Now,
		verifications:                make(map[string]string),
	}
}

// Register creates an account, issues a verification link and signs the
// new user in.
func (s *Service) Register(ctx context.Context, reg Registration) (*models.User, *TokenPair, error) {
	if err := s.validateRegistration(reg); err != nil {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(reg.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		Email:        reg.Email,
		Phone:        reg.Phone,
		Role:         reg.Role,
		PasswordHash: hash,
		ReferralCode: reg.ReferralCode,
		CompanyName:  reg.CompanyName,
		Website:      reg.Website,
		TaxID:        reg.TaxID,
		Channels:     reg.Channels,
		AudienceSize: reg.AudienceSize,
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)

	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Warn(ctx, "verification link not issued", "user_id", user.ID, "error", err)
	}

	pair, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *Service) validateRegistration(reg Registration) error {
	fields := map[string]string{}
	if err := s.validate.Struct(reg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields[fe.Field()] = describe(fe)
		}
	}

	switch reg.Role {
	case models.RolePublisher:
		if strings.TrimSpace(reg.CompanyName) == "" {
			fields["companyName"] = "is required"
		}
		if reg.Website == "" {
			fields["website"] = "is required"
		}
	case models.RolePromoter:
		if len(reg.Channels) == 0 {
			fields["channels"] = "needs at least 1 item(s)"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Login checks the password and, for accounts with a second factor, the
// code. requiresTwoFactor is true when the code is missing or wrong; no
// tokens are issued then.
func (s *Service) Login(ctx context.Context, email, password, code string) (user *models.User, pair *TokenPair, requiresTwoFactor bool, err error) {
	user, err = s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, false, ErrInvalidCredentials
		}
		return nil, nil, false, err
	}
	if !auth.ComparePassword(user.PasswordHash, password) {
		return nil, nil, false, ErrInvalidCredentials
	}

	if user.TwoFactorEnabled && !auth.ValidateTOTP(user.TwoFactorSecret, code, s.now()) {
		if code != "" {
			s.logger.Info(ctx, "two-factor code rejected", "user_id", user.ID)
		}
		return nil, nil, true, nil
	}

	pair, err = s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, nil, false, err
	}
	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return user, pair, false, nil
}

// Authenticate resolves an access token to its account.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccessToken, err)
	}
	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidAccessToken
		}
		return nil, err
	}
	return user, nil
}

// RefreshToken validates a refresh token, revokes it and returns a fresh
// pair. Each refresh token works once.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	token, err := s.refreshTokenRepo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, refreshtokens.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if !token.Expires.After(s.now()) {
		return nil, ErrInvalidRefreshToken
	}

	revoked, err := s.refreshTokenRepo.Delete(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("error deleting refresh token: %w", err)
	}
	if !revoked {
		// already spent by a concurrent refresh or logout
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.repo.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return s.generateTokenPair(ctx, user)
}

// Logout revokes refreshToken. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	_, err := s.refreshTokenRepo.Delete(ctx, refreshToken)
	return err
}

// UpdateProfile applies patch to the account.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*models.User, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, toValidationError(err)
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.FirstName != nil {
		user.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		user.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.Phone != nil {
		user.Phone = *patch.Phone
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResendVerification issues a new link for an unverified account. Unknown
// and verified addresses are accepted silently.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if user.IsVerified {
		return nil
	}
	return s.sendVerification(ctx, user)
}

// sendVerification stands in for the mailer: the link is logged.
func (s *Service) sendVerification(ctx context.Context, user *models.User) error {
	token, err := secret.Token(24)
	if err != nil {
		return err
	}
	s.mu.Lock()
	for t, id := range s.verifications {
		if id == user.ID {
			delete(s.verifications, t)
		}
	}
	s.verifications[token] = user.ID
	s.mu.Unlock()

	s.logger.Info(ctx, "verification link", "email", user.Email, "url", s.publicURL+"/auth/verify-email?token="+token)
	return nil
}

// VerifyEmail marks the account owning token as verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	s.mu.Lock()
	var userID string
	for t, id := range s.verifications {
		if secret.Equal(t, token) {
			userID = id
			delete(s.verifications, t)
			break
		}
	}
	s.mu.Unlock()
	if userID == "" {
		return ErrInvalidVerification
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.IsVerified = true
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info(ctx, "email verified", "user_id", userID)
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < 8 {
		return &ValidationError{Fields: map[string]string{"newPassword": "must be at least 8 characters"}}
	}
	if next == current {
		return &ValidationError{Fields: map[string]string{"newPassword": "must differ from the current password"}}
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.ComparePassword(user.PasswordHash, current) {
		return ErrIncorrectPassword
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	return s.repo.Update(ctx, user)
}

// SetupTwoFactor enables TOTP with a fresh secret and returns it with the
// otpauth URL.
func (s *Service) SetupTwoFactor(ctx context.Context, userID string) (secretKey, otpauthURL string, err error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	secretKey, err = auth.NewTOTPSecret()
	if err != nil {
		return "", "", err
	}
	user.TwoFactorEnabled = true
	user.TwoFactorSecret = secretKey
	if err := s.repo.Update(ctx, user); err != nil {
		return "", "", err
	}
	s.logger.Info(ctx, "two-factor enabled", "user_id", userID)
	return secretKey, auth.TOTPURL(issuer, user.Email, secretKey), nil
}

// DisableTwoFactor turns TOTP off after checking the password.
func (s *Service) DisableTwoFactor(ctx context.Context, userID, password string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.ComparePassword(user.PasswordHash, password) {
		return ErrIncorrectPassword
	}
	user.TwoFactorEnabled = false
	user.TwoFactorSecret = ""
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info(ctx, "two-factor disabled", "user_id", userID)
	return nil
}

// Dashboard builds the summary of role for user. Admins may view any role.
func (s *Service) Dashboard(ctx context.Context, user *models.User, role string) (*Dashboard, error) {
	if role != user.Role && user.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	d := &Dashboard{Role: role, Metrics: map[string]float64{}}
	switch role {
	case models.RolePublisher:
		d.Metrics["activeOffers"] = 0
		d.Metrics["clicks"] = 0
		d.Metrics["conversions"] = 0
	case models.RolePromoter:
		d.Metrics["channels"] = float64(len(user.Channels))
		d.Metrics["audience"] = float64(user.AudienceSize)
		d.Metrics["earnings"] = 0
	case models.RoleAdmin:
		n, err := s.repo.Count(ctx)
		if err != nil {
			return nil, err
		}
		d.Metrics["users"] = float64(n)
	case models.RoleUser:
		d.Metrics["cashbackBalance"] = 0
		d.Metrics["pendingCashback"] = 0
		d.Metrics["purchases"] = 0
	default:
		return nil, ErrForbidden
	}

	if !user.IsVerified {
		d.Notices = append(d.Notices, "Verify your email address to withdraw earnings.")
	}
	if !user.TwoFactorEnabled && slices.Contains([]string{models.RolePublisher, models.RoleAdmin}, user.Role) {
		d.Notices = append(d.Notices, "Enable two-factor authentication to protect payouts.")
	}
	return d, nil
}

// SeedAdmin creates a verified admin account unless the email is taken.
func (s *Service) SeedAdmin(ctx context.Context, email, password string) error {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.repo.Create(ctx, &models.User{
		FirstName:    "Admin",
		Email:        email,
		Role:         models.RoleAdmin,
		PasswordHash: hash,
		IsVerified:   true,
	})
	if errors.Is(err, ErrEmailTaken) {
		return nil
	}
	return err
}

func (s *Service) generateTokenPair(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := secret.Token(32)
	if err != nil {
		return nil, err
	}
	if err := s.refreshTokenRepo.Create(ctx, user.ID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
